package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrNoJSON is returned when a model answer contains no JSON object at all.
var ErrNoJSON = errors.New("no json object in model answer")

// ExtractJSONObject trims markdown fences and chatter around the first
// top-level JSON object in content.
func ExtractJSONObject(content string) ([]byte, error) {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return nil, ErrNoJSON
	}
	return []byte(s[start : end+1]), nil
}

// DecodePageResult turns raw model content into a PageResult: extract,
// sanitize, validate, unmarshal. The sanitized JSON is returned for logging
// even when a later step fails.
func DecodePageResult(content string, logger *slog.Logger) (PageResult, []byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	raw, err := ExtractJSONObject(content)
	if err != nil {
		return PageResult{}, nil, err
	}
	cleaned, _, err := NormalizeAndSanitizeJSON(raw, logger)
	if err != nil {
		return PageResult{}, raw, err
	}
	if err := ValidatePageJSON(cleaned); err != nil {
		return PageResult{}, cleaned, fmt.Errorf("schema validation failed: %w", err)
	}
	var out PageResult
	if err := json.Unmarshal(cleaned, &out); err != nil {
		return PageResult{}, cleaned, fmt.Errorf("unmarshal fields: %w", err)
	}
	return out, cleaned, nil
}
