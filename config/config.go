package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server" validate:"required"`
	Generation GenerationConfig `yaml:"generation" validate:"required"`
	Pipeline   PipelineConfig   `yaml:"pipeline" validate:"required"`
}

type ServerConfig struct {
	Port            string        `yaml:"port" validate:"required,numeric"`
	RequestTimeout  time.Duration `yaml:"request_timeout" validate:"required,min=1s,max=30m"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"min=0,max=5m"`
	AllowedHeaders  []string      `yaml:"allowed_headers" validate:"required,min=1"`
}

type GenerationConfig struct {
	Provider          string        `yaml:"provider" validate:"required,oneof=chat openai gemini"`
	BaseURL           string        `yaml:"base_url" validate:"required_unless=Provider gemini,omitempty,url"`
	Model             string        `yaml:"model" validate:"required"`
	Temperature       float64       `yaml:"temperature" validate:"min=0,max=2"`
	CallTimeout       time.Duration `yaml:"call_timeout" validate:"required,min=1s,max=10m"`
	RequestsPerMinute int           `yaml:"requests_per_minute" validate:"min=0,max=10000"`
	Burst             int           `yaml:"burst" validate:"min=0,max=100"`

	// APIKey is only ever read from the environment.
	APIKey string `yaml:"-"`
}

type PipelineConfig struct {
	MaxArticleChars int    `yaml:"max_article_chars" validate:"required,min=1"`
	DefaultTone     string `yaml:"default_tone" validate:"required"`
	ParallelStages  bool   `yaml:"parallel_stages"`
}

// Default returns the configuration used when no config file is present
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			RequestTimeout:  3 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
			AllowedHeaders: []string{
				"authorization",
				"x-client-info",
				"apikey",
				"content-type",
				"x-supabase-client-platform",
				"x-supabase-client-platform-version",
				"x-supabase-client-runtime",
				"x-supabase-client-runtime-version",
			},
		},
		Generation: GenerationConfig{
			Provider:          "chat",
			BaseURL:           "https://ai.gateway.lovable.dev/v1",
			Model:             "google/gemini-3-flash-preview",
			Temperature:       0.7,
			CallTimeout:       60 * time.Second,
			RequestsPerMinute: 0,
			Burst:             4,
		},
		Pipeline: PipelineConfig{
			MaxArticleChars: 15000,
			DefaultTone:     "Neutral",
			ParallelStages:  true,
		},
	}
}

// Load reads the YAML config at path on top of Default, then applies env overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	// Load .env (local dev only)
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Generation.APIKey = os.Getenv("AI_API_KEY")
	c.Generation.Provider = getEnv("AI_PROVIDER", c.Generation.Provider)
	c.Generation.Model = getEnv("AI_MODEL", c.Generation.Model)
	c.Generation.BaseURL = getEnv("AI_BASE_URL", c.Generation.BaseURL)
	c.Server.Port = getEnv("PORT", c.Server.Port)
}

// Validate checks the struct tags. The API key is not checked here, a missing
// key surfaces per request as a configuration error.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
