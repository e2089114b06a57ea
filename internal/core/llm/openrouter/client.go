package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/ballot-registry/internal/common"
	"github.com/joseph-ayodele/ballot-registry/internal/core/llm"
)

const (
	BaseURL      = "https://openrouter.ai/api/v1"
	defaultModel = "google/gemini-2.5-flash"
)

// Config for the OpenRouter client.
type Config struct {
	APIKey      string // if empty, falls back to env OPENROUTER_API_KEY
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
	MaxRetries  int           // retries after the first attempt
	RetryDelay  time.Duration // base delay between retries
	Referer     string
	Title       string
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENROUTER_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Title == "" {
		cfg.Title = "Ballot Registry"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float32         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []contentPart
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// ExtractPage implements llm.PageExtractor against OpenRouter's chat completions API.
func (c *Client) ExtractPage(ctx context.Context, req llm.PageRequest) (llm.PageResult, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"provider", common.ProviderOpenRouter,
		"model", c.cfg.Model,
		"page_id", req.PageID,
		"image_bytes", len(req.Image),
	)

	body := chatRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Messages: []chatMessage{
			{Role: "system", Content: llm.BuildSystemPrompt()},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: llm.BuildUserPrompt(req)},
				{Type: "image_url", ImageURL: &imageURL{URL: llm.DataURL(req)}},
			}},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	headers := map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
		"X-Title":       c.cfg.Title,
	}
	if c.cfg.Referer != "" {
		headers["HTTP-Referer"] = c.cfg.Referer
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	policy := llm.RetryPolicy{Attempts: uint(c.cfg.MaxRetries) + 1, Delay: c.cfg.RetryDelay}
	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, policy, c.logger)
	if err != nil {
		err = c.mapError(err)
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"auth_expired", errors.Is(err, common.ErrAuthorizationExpired),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.PageResult{}, nil, err
	}

	var cc chatResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.PageResult{}, raw, fmt.Errorf("decode openrouter response: %w", err)
	}
	if cc.Error != nil {
		err := c.mapError(errors.New(cc.Error.Message))
		c.logger.Error("llm.extract.api_error",
			"req_id", rid, "error", err, "code", cc.Error.Code,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.PageResult{}, raw, fmt.Errorf("openrouter: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.PageResult{}, raw, fmt.Errorf("no choices in openrouter response")
	}

	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	out, rawContent, err := llm.DecodePageResult(content, c.logger)
	if err != nil {
		c.logger.Error("llm.extract.decode_failed",
			"req_id", rid, "error", err, "content", content,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.PageResult{}, rawContent, err
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"page_id", req.PageID,
		"start_page", out.IsStartPage,
		"last_name", out.Data.LastName,
		"votes", len(out.Data.Votes),
		"prompt_tokens", cc.Usage.PromptTokens,
		"completion_tokens", cc.Usage.CompletionTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, rawContent, nil
}

func (c *Client) mapError(err error) error {
	if llm.IsAuthError(err) {
		return common.AuthorizationExpired(common.ProviderOpenRouter, err)
	}
	return err
}
