package common

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Pages    PagesConfig
	LLM      LLMConfig
	Watch    WatchConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string // postgres:// URL, or a SQLite file path
	DataDir          string // where the SQLite file lives when DSN is empty
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds daemon-related configuration
type ServerConfig struct {
	GRPCAddr string
	Workers  int
	Timeout  time.Duration // per batch
}

// PagesConfig holds rasterization configuration
type PagesConfig struct {
	Pdftoppm string
	DPI      int
	MaxPages int
}

// LLMConfig holds field extraction configuration
type LLMConfig struct {
	Provider    string // google | openai | openrouter
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
	MaxRetries  int
}

// WatchConfig holds the inbox watcher configuration
type WatchConfig struct {
	Dir      string
	Registry string
	Debounce time.Duration
}

const (
	ProviderGoogle     = "google"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
)

// env keys are the viper keys with dots replaced by underscores, e.g. llm.model -> LLM_MODEL.
func setDefaults(v *viper.Viper) {
	v.SetDefault("db.url", "")
	v.SetDefault("db.data_dir", "./data")
	v.SetDefault("db.max_conns", 10)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.max_conn_lifetime", 30*time.Minute)
	v.SetDefault("db.max_conn_idle_time", 5*time.Minute)
	v.SetDefault("db.dial_timeout", 3*time.Second)
	v.SetDefault("db.statement_timeout", time.Duration(0))

	v.SetDefault("grpc.addr", ":8080")
	v.SetDefault("server.workers", 1)
	v.SetDefault("server.timeout", 30*time.Minute)

	v.SetDefault("pages.pdftoppm", "pdftoppm")
	v.SetDefault("pages.dpi", 150)
	v.SetDefault("pages.max_pages", 0)

	v.SetDefault("llm.provider", ProviderGoogle)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.timeout", 90*time.Second)
	v.SetDefault("llm.max_retries", 2)

	v.SetDefault("watch.dir", "./inbox")
	v.SetDefault("watch.registry", "default")
	v.SetDefault("watch.debounce", 2*time.Second)
}

// LoadConfig loads configuration from defaults, an optional YAML file and the environment.
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("ballots")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.ballots")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			DSN:              v.GetString("db.url"),
			DataDir:          v.GetString("db.data_dir"),
			MaxConns:         v.GetInt32("db.max_conns"),
			MinConns:         v.GetInt32("db.min_conns"),
			MaxConnLifetime:  v.GetDuration("db.max_conn_lifetime"),
			MaxConnIdleTime:  v.GetDuration("db.max_conn_idle_time"),
			DialTimeout:      v.GetDuration("db.dial_timeout"),
			StatementTimeout: v.GetDuration("db.statement_timeout"),
		},
		Server: ServerConfig{
			GRPCAddr: v.GetString("grpc.addr"),
			Workers:  v.GetInt("server.workers"),
			Timeout:  v.GetDuration("server.timeout"),
		},
		Pages: PagesConfig{
			Pdftoppm: v.GetString("pages.pdftoppm"),
			DPI:      v.GetInt("pages.dpi"),
			MaxPages: v.GetInt("pages.max_pages"),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(strings.TrimSpace(v.GetString("llm.provider"))),
			Model:       v.GetString("llm.model"),
			APIKey:      v.GetString("llm.api_key"),
			BaseURL:     v.GetString("llm.base_url"),
			Temperature: float32(v.GetFloat64("llm.temperature")),
			Timeout:     v.GetDuration("llm.timeout"),
			MaxRetries:  v.GetInt("llm.max_retries"),
		},
		Watch: WatchConfig{
			Dir:      v.GetString("watch.dir"),
			Registry: v.GetString("watch.registry"),
			Debounce: v.GetDuration("watch.debounce"),
		},
	}

	// fall back to the provider's conventional key variable
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = providerKey(v, cfg.LLM.Provider)
	}
	return cfg, nil
}

func providerKey(v *viper.Viper, provider string) string {
	var key string
	switch provider {
	case ProviderGoogle:
		key = "GEMINI_API_KEY"
	case ProviderOpenAI:
		key = "OPENAI_API_KEY"
	case ProviderOpenRouter:
		key = "OPENROUTER_API_KEY"
	default:
		return ""
	}
	_ = v.BindEnv(key)
	return v.GetString(key)
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGoogle, ProviderOpenAI, ProviderOpenRouter:
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown LLM_PROVIDER %q", c.LLM.Provider), ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "an API key for provider "+c.LLM.Provider+" is required", ErrInvalidInput)
	}
	if c.Database.DSN == "" && c.Database.DataDir == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL or DB_DATA_DIR is required", ErrInvalidInput)
	}
	if c.Pages.DPI <= 0 {
		return NewAppError("CONFIG_ERROR", "PAGES_DPI must be positive", ErrInvalidInput)
	}
	return nil
}

// ValidateServer checks the extra settings the daemon needs.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	if c.Watch.Dir == "" {
		return NewAppError("CONFIG_ERROR", "WATCH_DIR is required", ErrInvalidInput)
	}
	return nil
}
