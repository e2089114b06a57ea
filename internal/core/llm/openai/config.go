package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/joseph-ayodele/ballot-registry/internal/common"
)

const (
	// GoogleBaseURL is Gemini's OpenAI-compatible endpoint.
	GoogleBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

	defaultOpenAIModel = "gpt-4o-mini"
	defaultGoogleModel = "gemini-2.5-flash"
)

// Config for the vision client.
type Config struct {
	Provider    string        // common.ProviderOpenAI (default) or common.ProviderGoogle
	APIKey      string        // if empty, falls back to OPENAI_API_KEY / GEMINI_API_KEY
	BaseURL     string        // default depends on Provider
	Model       string        // e.g., "gpt-4o-mini", "gemini-2.5-flash"
	Temperature float32       // 0 leaves the provider default
	Timeout     time.Duration // http client timeout
	MaxRetries  int           // SDK transport retries
	HTTPClient  *http.Client  // optional (tests)
}

type Client struct {
	cfg    Config
	api    openai.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Provider == "" {
		cfg.Provider = common.ProviderOpenAI
	}
	if cfg.APIKey == "" {
		if cfg.Provider == common.ProviderGoogle {
			cfg.APIKey = os.Getenv("GEMINI_API_KEY")
		} else {
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if cfg.BaseURL == "" && cfg.Provider == common.ProviderGoogle {
		cfg.BaseURL = GoogleBaseURL
	}
	if cfg.Model == "" {
		if cfg.Provider == common.ProviderGoogle {
			cfg.Model = defaultGoogleModel
		} else {
			cfg.Model = defaultOpenAIModel
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		cfg:    cfg,
		api:    openai.NewClient(opts...),
		logger: logger,
	}
}
