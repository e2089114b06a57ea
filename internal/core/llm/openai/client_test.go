package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/ballot-registry/internal/common"
	"github.com/joseph-ayodele/ballot-registry/internal/core/llm"
)

func chatResponse(content string) []byte {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
	return b
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		Provider:   common.ProviderGoogle,
		APIKey:     "test-key",
		BaseURL:    server.URL,
		Model:      "gemini-test",
		MaxRetries: 0,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testRequest() llm.PageRequest {
	return llm.PageRequest{
		PageID:     "scan.pdf#1",
		SourceFile: "scan.pdf",
		PageNumber: 1,
		MimeType:   "image/jpeg",
		Image:      []byte{0xff, 0xd8, 0xff, 0xe0},
	}
}

func TestExtractPageSuccess(t *testing.T) {
	var payload map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &payload))

		content := "```json\n" + `{"isStartPage": true, "data": {"lastName": "Иванов", "snils": "123-456-789 01", "roomNo": 12, "votes": {"1": "ЗА", "2": "ОШИБКА"}}}` + "\n```"
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(chatResponse(content))
	})

	res, raw, err := client.ExtractPage(context.Background(), testRequest())
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	assert.True(t, res.IsStartPage)
	assert.Equal(t, "Иванов", res.Data.LastName)
	assert.Equal(t, "12345678901", res.Data.Snils)
	assert.Equal(t, "12", res.Data.RoomNo)
	assert.Equal(t, map[string]string{"1": "FOR"}, res.Data.Votes)

	assert.Equal(t, "gemini-test", payload["model"])
	messages, ok := payload["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	user, _ := messages[1].(map[string]any)
	parts, _ := user["content"].([]any)
	require.Len(t, parts, 2)
	image, _ := parts[1].(map[string]any)
	imageURL, _ := image["image_url"].(map[string]any)
	assert.True(t, strings.HasPrefix(imageURL["url"].(string), "data:image/jpeg;base64,"))
}

func TestExtractPageUnauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "API key expired", "type": "invalid_request_error"}}`))
	})

	_, _, err := client.ExtractPage(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrAuthorizationExpired))
}

func TestExtractPageRevokedKeyMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": {"message": "Requested entity was not found.", "code": 404}}`))
	})

	_, _, err := client.ExtractPage(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrAuthorizationExpired))
}

func TestExtractPageBadContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(chatResponse("I cannot read this page."))
	})

	_, _, err := client.ExtractPage(context.Background(), testRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrNoJSON)
	assert.False(t, errors.Is(err, common.ErrAuthorizationExpired))
}

func TestExtractPageServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, _, err := client.ExtractPage(context.Background(), testRequest())
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrAuthorizationExpired))
}
