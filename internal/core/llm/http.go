package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
)

// HTTPError is a non-2xx answer from a provider.
type HTTPError struct {
	Status int
	Body   []byte
}

func (e *HTTPError) Error() string {
	const max = 512
	body := e.Body
	if len(body) > max {
		body = body[:max]
	}
	return fmt.Sprintf("non-2xx status: %d: %s", e.Status, bytes.TrimSpace(body))
}

// Retryable reports whether the status is worth another attempt.
func (e *HTTPError) Retryable() bool {
	switch {
	case e.Status == http.StatusTooManyRequests:
		return true
	case e.Status >= 500:
		return true
	default:
		return false
	}
}

// IsUnauthorized reports whether the provider rejected the credential.
func (e *HTTPError) IsUnauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// RetryPolicy bounds SendJSON's retries. Zero Attempts means a single try.
type RetryPolicy struct {
	Attempts uint
	Delay    time.Duration
}

// SendJSON sends a JSON request to a full URL with optional headers and returns the raw response body.
// It does not assume any provider. Network errors, 429 and 5xx answers are retried per policy;
// other non-2xx answers come back as *HTTPError without retrying.
func SendJSON(ctx context.Context, client *http.Client, url string, body any, headers map[string]string, policy RetryPolicy, logger *slog.Logger) ([]byte, int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: 45 * time.Second}
	}
	if policy.Attempts == 0 {
		policy.Attempts = 1
	}
	if policy.Delay <= 0 {
		policy.Delay = time.Second
	}

	reqID := uuid.New().String()
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		logger.Error("llm.http.encode_error", "req_id", reqID, "error", err)
		return nil, 0, fmt.Errorf("encode json: %w", err)
	}

	var (
		raw    []byte
		status int
	)
	attempt := 0
	err = retry.Do(
		func() error {
			attempt++
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("build request: %w", err))
			}

			// Default headers; allow caller overrides.
			req.Header.Set("Content-Type", "application/json")
			for k, v := range headers {
				req.Header.Set(k, v)
			}

			logger.Info("llm.http.request",
				"req_id", reqID,
				"url", url,
				"attempt", attempt,
				"content_length", len(bs),
			)

			resp, err := client.Do(req)
			if err != nil {
				logger.Warn("llm.http.send_error", "req_id", reqID, "attempt", attempt, "error", err)
				return err
			}
			defer func(Body io.ReadCloser) {
				if err := Body.Close(); err != nil {
					logger.Warn("llm.http.response_body_close_error", "req_id", reqID, "error", err)
				}
			}(resp.Body)

			raw, err = io.ReadAll(resp.Body)
			status = resp.StatusCode
			if err != nil {
				return fmt.Errorf("read response: %w", err)
			}

			logger.Info("llm.http.response",
				"req_id", reqID,
				"status", status,
				"bytes", len(raw),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)

			if status/100 != 2 {
				httpErr := &HTTPError{Status: status, Body: raw}
				if !httpErr.Retryable() {
					return retry.Unrecoverable(httpErr)
				}
				return httpErr
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(policy.Attempts),
		retry.Delay(policy.Delay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		logger.Error("llm.http.failed",
			"req_id", reqID,
			"attempts", attempt,
			"status", status,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			return raw, status, httpErr
		}
		return raw, status, err
	}
	return raw, status, nil
}
