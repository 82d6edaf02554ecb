// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (./config.yaml or ~/.docschat/config.yaml)
//  3. Default values
//
// Error handling uses sentinel errors so callers can check with errors.Is();
// wrap with context using fmt.Errorf("%w: details", ErrXxx).
//
// Security: the database password is masked in MarshalJSON. The OpenAI API
// key is read directly by the Genkit plugin from OPENAI_API_KEY and never
// stored here; Validate only checks its presence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates OPENAI_API_KEY is not set.
	ErrMissingAPIKey = errors.New("missing OPENAI_API_KEY")

	// ErrInvalidModelName indicates the completion model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model name is empty.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidTemperature indicates the temperature is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is empty.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is empty.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidGradeConcurrency indicates the grading concurrency is out of range.
	ErrInvalidGradeConcurrency = errors.New("invalid grade concurrency")
)

// Defaults for the retrieval pipeline models.
const (
	// DefaultModelName is the completion model used when none is configured.
	DefaultModelName = "gpt-3.5-turbo"

	// DefaultEmbedderModel produces 1536-dimension vectors, matching the
	// vector(1536) column in db/migrations.
	DefaultEmbedderModel = "text-embedding-ada-002"
)

// Config stores application configuration.
// SENSITIVE fields (the database password) are masked in MarshalJSON; update
// it when adding new secrets.
type Config struct {
	// Completion model configuration
	ModelName   string  `mapstructure:"model_name" json:"model_name"`
	Temperature float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" json:"max_tokens"`

	// Retrieval configuration
	EmbedderModel    string `mapstructure:"embedder_model" json:"embedder_model"`
	KeywordSearch    bool   `mapstructure:"keyword_search" json:"keyword_search"`
	Grading          bool   `mapstructure:"grading" json:"grading"`
	GradeConcurrency int    `mapstructure:"grade_concurrency" json:"grade_concurrency"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Serve configuration
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"`
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"`

	// Observability (optional; empty endpoint disables tracing)
	OtelEndpoint    string `mapstructure:"otel_endpoint" json:"otel_endpoint"`
	OtelServiceName string `mapstructure:"otel_service_name" json:"otel_service_name"`

	// Ingestion configuration
	DocsBaseURL string `mapstructure:"docs_base_url" json:"docs_base_url"`
}

// MarshalJSON masks sensitive fields when the config is serialized, e.g. for
// debug logging.
func (c *Config) MarshalJSON() ([]byte, error) {
	type alias Config
	masked := *c
	if masked.PostgresPassword != "" {
		masked.PostgresPassword = "********"
	}
	b, err := json.Marshal((*alias)(&masked))
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return b, nil
}

// Load reads configuration from defaults, an optional config file, and
// environment variables, in increasing priority.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".docschat"))
	}

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// DATABASE_URL overrides the individual postgres_* settings.
	if err := cfg.parseDatabaseURL(os.Getenv("DATABASE_URL")); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("temperature", 0.1)
	v.SetDefault("max_tokens", 500)

	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("keyword_search", false)
	v.SetDefault("grading", true)
	v.SetDefault("grade_concurrency", 5)

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "docschat")
	v.SetDefault("postgres_password", "docschat_dev_password")
	v.SetDefault("postgres_db_name", "docschat")
	v.SetDefault("postgres_ssl_mode", "disable")

	v.SetDefault("otel_service_name", "docschat")

	v.SetDefault("docs_base_url", "https://docs.skatehive.app/docs/")
}

func bindEnvVariables(v *viper.Viper) {
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("model_name", "DOCSCHAT_MODEL_NAME")
	mustBind("embedder_model", "DOCSCHAT_EMBEDDER_MODEL")
	mustBind("keyword_search", "DOCSCHAT_KEYWORD_SEARCH")
	mustBind("grading", "DOCSCHAT_GRADING")

	mustBind("postgres_host", "DOCSCHAT_POSTGRES_HOST")
	mustBind("postgres_port", "DOCSCHAT_POSTGRES_PORT")
	mustBind("postgres_user", "DOCSCHAT_POSTGRES_USER")
	mustBind("postgres_password", "DOCSCHAT_POSTGRES_PASSWORD")
	mustBind("postgres_db_name", "DOCSCHAT_POSTGRES_DB")
	mustBind("postgres_ssl_mode", "DOCSCHAT_POSTGRES_SSL_MODE")

	mustBind("cors_origins", "DOCSCHAT_CORS_ORIGINS")
	mustBind("trust_proxy", "DOCSCHAT_TRUST_PROXY")
	mustBind("rate_burst", "DOCSCHAT_RATE_BURST")

	mustBind("otel_endpoint", "DOCSCHAT_OTEL_ENDPOINT")
	mustBind("otel_service_name", "DOCSCHAT_OTEL_SERVICE_NAME")

	mustBind("docs_base_url", "DOCSCHAT_DOCS_BASE_URL")

	// NOTE: OPENAI_API_KEY is read directly by the Genkit OpenAI plugin, not
	// via Viper. Validate() checks its presence.
	// NOTE: DATABASE_URL is parsed separately in Load().
}
