package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/ballot-registry/internal/common"
	"github.com/joseph-ayodele/ballot-registry/internal/core/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		APIKey:     "or-key",
		BaseURL:    server.URL,
		Model:      "test/vision",
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeContent(w http.ResponseWriter, content string) {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]any{"content": content}}},
	})
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}

func testRequest() llm.PageRequest {
	return llm.PageRequest{PageID: "a.png#1", SourceFile: "a.png", PageNumber: 1, Image: []byte{0x89, 'P', 'N', 'G'}}
}

func TestExtractPageSuccess(t *testing.T) {
	var got chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer or-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeContent(w, `{"isStartPage": false, "data": {"questionTexts": {"3": "Утверждение сметы"}, "votes": {"3": "против"}, "comment": "x"}}`)
	})

	res, _, err := client.ExtractPage(context.Background(), testRequest())
	require.NoError(t, err)
	assert.False(t, res.IsStartPage)
	assert.Equal(t, "Утверждение сметы", res.Data.QuestionTexts["3"])
	assert.Equal(t, "AGAINST", res.Data.Votes["3"])

	assert.Equal(t, "test/vision", got.Model)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	require.Len(t, got.Messages, 2)
}

func TestExtractPageRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeContent(w, `{"isStartPage": true}`)
	})

	res, _, err := client.ExtractPage(context.Background(), testRequest())
	require.NoError(t, err)
	assert.True(t, res.IsStartPage)
	assert.Equal(t, int32(3), calls.Load())
}

func TestExtractPageUnauthorizedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "No auth credentials found", "code": 401}}`))
	})

	_, _, err := client.ExtractPage(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrAuthorizationExpired))
	assert.Equal(t, int32(1), calls.Load())
}

func TestExtractPageErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error": {"message": "model overloaded", "code": 503}}`))
	})

	_, _, err := client.ExtractPage(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
	assert.False(t, errors.Is(err, common.ErrAuthorizationExpired))
}
