package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ProviderMode != ModeFallback {
		t.Errorf("ProviderMode = %q, want fallback", cfg.ProviderMode)
	}
	if cfg.DeepSeek.BaseURL != "https://api.deepseek.com" {
		t.Errorf("DeepSeek.BaseURL = %q", cfg.DeepSeek.BaseURL)
	}
	if cfg.Gemini.BaseURL != "https://generativelanguage.googleapis.com" {
		t.Errorf("Gemini.BaseURL = %q", cfg.Gemini.BaseURL)
	}
	if cfg.RateLimitWindow != 60*time.Second {
		t.Errorf("RateLimitWindow = %v, want 60s", cfg.RateLimitWindow)
	}
	if cfg.RateLimitCapacity != 10 {
		t.Errorf("RateLimitCapacity = %d, want 10", cfg.RateLimitCapacity)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PROVIDER_MODE", ModeDeepSeek)
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("RATE_LIMIT_CAPACITY", "5")
	t.Setenv("PORT", "9000")

	cfg := Load()

	if cfg.ProviderMode != ModeDeepSeek {
		t.Errorf("ProviderMode = %q", cfg.ProviderMode)
	}
	if cfg.DeepSeek.APIKey != "sk-test" {
		t.Errorf("DeepSeek.APIKey = %q", cfg.DeepSeek.APIKey)
	}
	if cfg.RateLimitWindow != 30*time.Second {
		t.Errorf("RateLimitWindow = %v", cfg.RateLimitWindow)
	}
	if cfg.RateLimitCapacity != 5 {
		t.Errorf("RateLimitCapacity = %d", cfg.RateLimitCapacity)
	}
	if cfg.Port != 9000 {
		t.Errorf("Port = %d", cfg.Port)
	}
}

func TestLoadFileOverlay(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "provider_mode: gemini\ngemini:\n  api_key: from-file\nport: 9191\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.ProviderMode != ModeGemini {
		t.Errorf("ProviderMode = %q, want gemini", cfg.ProviderMode)
	}
	if cfg.Gemini.APIKey != "from-file" {
		t.Errorf("Gemini.APIKey = %q", cfg.Gemini.APIKey)
	}
	// Values the file omits keep their env/default values.
	if cfg.DeepSeek.APIKey != "from-env" {
		t.Errorf("DeepSeek.APIKey = %q", cfg.DeepSeek.APIKey)
	}
	if cfg.Port != 9191 {
		t.Errorf("Port = %d", cfg.Port)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	base := Load()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name: "deepseek mode with key",
			mutate: func(c *Config) {
				c.ProviderMode = ModeDeepSeek
				c.DeepSeek.APIKey = "k"
			},
		},
		{
			name: "deepseek mode without key",
			mutate: func(c *Config) {
				c.ProviderMode = ModeDeepSeek
				c.DeepSeek.APIKey = ""
			},
			wantErr: true,
		},
		{
			name: "fallback needs both keys",
			mutate: func(c *Config) {
				c.ProviderMode = ModeFallback
				c.DeepSeek.APIKey = "k"
				c.Gemini.APIKey = ""
			},
			wantErr: true,
		},
		{
			name: "unknown mode",
			mutate: func(c *Config) {
				c.ProviderMode = "openai"
			},
			wantErr: true,
		},
		{
			name: "zero capacity",
			mutate: func(c *Config) {
				c.ProviderMode = ModeGemini
				c.Gemini.APIKey = "k"
				c.RateLimitCapacity = 0
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
