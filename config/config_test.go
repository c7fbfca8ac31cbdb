package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
}

func TestDefaultDoesNotPaceCalls(t *testing.T) {
	if rpm := Default().Generation.RequestsPerMinute; rpm != 0 {
		t.Errorf("Default().Generation.RequestsPerMinute = %d, want 0", rpm)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Generation.Provider = "llama" },
			wantErr: true,
			errMsg:  "Provider",
		},
		{
			name:    "temperature too high",
			mutate:  func(c *Config) { c.Generation.Temperature = 3 },
			wantErr: true,
			errMsg:  "Temperature",
		},
		{
			name:    "invalid base URL",
			mutate:  func(c *Config) { c.Generation.BaseURL = "not-a-url" },
			wantErr: true,
			errMsg:  "BaseURL",
		},
		{
			name:    "chat provider needs base URL",
			mutate:  func(c *Config) { c.Generation.BaseURL = "" },
			wantErr: true,
			errMsg:  "BaseURL",
		},
		{
			name: "gemini provider without base URL",
			mutate: func(c *Config) {
				c.Generation.Provider = "gemini"
				c.Generation.BaseURL = ""
			},
		},
		{
			name:    "zero article limit",
			mutate:  func(c *Config) { c.Pipeline.MaxArticleChars = 0 },
			wantErr: true,
			errMsg:  "MaxArticleChars",
		},
		{
			name:    "call timeout too short",
			mutate:  func(c *Config) { c.Generation.CallTimeout = time.Millisecond },
			wantErr: true,
			errMsg:  "CallTimeout",
		},
		{
			name:    "non numeric port",
			mutate:  func(c *Config) { c.Server.Port = "http" },
			wantErr: true,
			errMsg:  "Port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.errMsg)
			}
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("AI_API_KEY", "")
	t.Setenv("PORT", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Pipeline.MaxArticleChars != 15000 {
		t.Errorf("MaxArticleChars = %d, want 15000", cfg.Pipeline.MaxArticleChars)
	}
	if cfg.Generation.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", cfg.Generation.Temperature)
	}
	if cfg.Generation.APIKey != "" {
		t.Errorf("APIKey = %q, want empty", cfg.Generation.APIKey)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlDoc := `
server:
  port: "9000"
  request_timeout: 90s
generation:
  model: test-model
  call_timeout: 30s
pipeline:
  parallel_stages: false
`
	if err := os.WriteFile(path, []byte(yamlDoc), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("AI_API_KEY", "secret-key")
	t.Setenv("PORT", "7070")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("Port = %q, want env override 7070", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout != 90*time.Second {
		t.Errorf("RequestTimeout = %v, want 90s", cfg.Server.RequestTimeout)
	}
	if cfg.Generation.Model != "test-model" {
		t.Errorf("Model = %q, want test-model", cfg.Generation.Model)
	}
	if cfg.Generation.CallTimeout != 30*time.Second {
		t.Errorf("CallTimeout = %v, want 30s", cfg.Generation.CallTimeout)
	}
	if cfg.Pipeline.ParallelStages {
		t.Error("ParallelStages = true, want false from file")
	}
	if cfg.Generation.APIKey != "secret-key" {
		t.Errorf("APIKey = %q, want secret-key", cfg.Generation.APIKey)
	}
	// Untouched keys keep their defaults.
	if cfg.Generation.Provider != "chat" {
		t.Errorf("Provider = %q, want chat", cfg.Generation.Provider)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil, want parse error")
	}
}
