package core

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/ballot-registry/internal/common"
	"github.com/joseph-ayodele/ballot-registry/internal/core/llm"
	"github.com/joseph-ayodele/ballot-registry/internal/core/llm/openai"
	"github.com/joseph-ayodele/ballot-registry/internal/core/llm/openrouter"
)

// NewOracle builds the field extraction oracle for the configured provider.
func NewOracle(cfg common.LLMConfig, logger *slog.Logger) (*llm.Oracle, error) {
	var extractor llm.PageExtractor
	switch cfg.Provider {
	case common.ProviderGoogle, common.ProviderOpenAI:
		extractor = openai.NewClient(openai.Config{
			Provider:    cfg.Provider,
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
			MaxRetries:  cfg.MaxRetries,
		}, logger)
	case common.ProviderOpenRouter:
		extractor = openrouter.NewClient(openrouter.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
			MaxRetries:  cfg.MaxRetries,
		}, logger)
	default:
		return nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown LLM provider %q", cfg.Provider), common.ErrInvalidInput)
	}
	return llm.NewOracle(extractor, cfg.Provider, logger), nil
}
