package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"

	"github.com/joseph-ayodele/ballot-registry/internal/common"
	"github.com/joseph-ayodele/ballot-registry/internal/core/llm"
)

// ExtractPage implements llm.PageExtractor with a single vision chat completion.
func (c *Client) ExtractPage(ctx context.Context, req llm.PageRequest) (llm.PageResult, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"provider", c.cfg.Provider,
		"model", c.cfg.Model,
		"page_id", req.PageID,
		"image_bytes", len(req.Image),
	)

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(llm.BuildSystemPrompt()),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(llm.BuildUserPrompt(req)),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL:    llm.DataURL(req),
					Detail: "high",
				}),
			}),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	if c.cfg.Temperature > 0 {
		params.Temperature = openai.Float(float64(c.cfg.Temperature))
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		err = c.mapError(err)
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"auth_expired", errors.Is(err, common.ErrAuthorizationExpired),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.PageResult{}, nil, err
	}
	if len(resp.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.PageResult{}, nil, fmt.Errorf("no choices in %s response", c.cfg.Provider)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
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
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, rawContent, nil
}

// mapError classifies SDK errors. Rejected credentials abort the run; Gemini
// reports a revoked key as a 404 "Requested entity was not found".
func (c *Client) mapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized, apiErr.StatusCode == http.StatusForbidden:
			return common.AuthorizationExpired(c.cfg.Provider, err)
		case common.IsAuthorizationExpired(err), strings.Contains(apiErr.Message, "Requested entity was not found"):
			return common.AuthorizationExpired(c.cfg.Provider, err)
		}
		return fmt.Errorf("%s error (status %d): %w", c.cfg.Provider, apiErr.StatusCode, err)
	}
	if common.IsAuthorizationExpired(err) {
		return common.AuthorizationExpired(c.cfg.Provider, err)
	}
	return err
}
