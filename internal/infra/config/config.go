// Package config provides application-wide configuration loaded from env
// vars, optionally overridden by a YAML file. All fields have safe
// defaults so the binary runs locally without any env setup (provider
// calls will fail without API keys, but the server comes up).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider mode values. Fallback chains the primary (DeepSeek) with the
// secondary (Gemini).
const (
	ModeDeepSeek = "deepseek"
	ModeGemini   = "gemini"
	ModeFallback = "fallback"
)

// ProviderConfig holds per-backend credentials and overrides.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"` // empty uses the adapter default
}

// Config holds runtime configuration for the assistant backend.
type Config struct {
	ProviderMode string         `yaml:"provider_mode"` // PROVIDER_MODE — default "fallback"
	DeepSeek     ProviderConfig `yaml:"deepseek"`      // DEEPSEEK_API_KEY / DEEPSEEK_BASE_URL / DEEPSEEK_MODEL
	Gemini       ProviderConfig `yaml:"gemini"`        // GEMINI_API_KEY / GEMINI_BASE_URL / GEMINI_MODEL

	RateLimitWindow   time.Duration `yaml:"rate_limit_window"`   // RATE_LIMIT_WINDOW — default 60s
	RateLimitCapacity int           `yaml:"rate_limit_capacity"` // RATE_LIMIT_CAPACITY — default 10

	Host       string `yaml:"host"`        // HOST — default "0.0.0.0"
	Port       int    `yaml:"port"`        // PORT — default 8080
	SQLitePath string `yaml:"sqlite_path"` // SQLITE_PATH — default "pdfassistant.db"
}

const (
	envKeyProviderMode      = "PROVIDER_MODE"
	envKeyDeepSeekAPIKey    = "DEEPSEEK_API_KEY"
	envKeyDeepSeekBaseURL   = "DEEPSEEK_BASE_URL"
	envKeyDeepSeekModel     = "DEEPSEEK_MODEL"
	envKeyGeminiAPIKey      = "GEMINI_API_KEY"
	envKeyGeminiBaseURL     = "GEMINI_BASE_URL"
	envKeyGeminiModel       = "GEMINI_MODEL"
	envKeyRateLimitWindow   = "RATE_LIMIT_WINDOW"
	envKeyRateLimitCapacity = "RATE_LIMIT_CAPACITY"
	envKeyHost              = "HOST"
	envKeyPort              = "PORT"
	envKeySQLitePath        = "SQLITE_PATH"
)

// Load reads configuration from environment variables, applying defaults
// for missing values.
func Load() Config {
	return Config{
		ProviderMode: envOr(envKeyProviderMode, ModeFallback),
		DeepSeek: ProviderConfig{
			APIKey:  os.Getenv(envKeyDeepSeekAPIKey),
			BaseURL: envOr(envKeyDeepSeekBaseURL, "https://api.deepseek.com"),
			Model:   os.Getenv(envKeyDeepSeekModel),
		},
		Gemini: ProviderConfig{
			APIKey:  os.Getenv(envKeyGeminiAPIKey),
			BaseURL: envOr(envKeyGeminiBaseURL, "https://generativelanguage.googleapis.com"),
			Model:   os.Getenv(envKeyGeminiModel),
		},
		RateLimitWindow:   envDurationOr(envKeyRateLimitWindow, 60*time.Second),
		RateLimitCapacity: envIntOr(envKeyRateLimitCapacity, 10),
		Host:              envOr(envKeyHost, "0.0.0.0"),
		Port:              envIntOr(envKeyPort, 8080),
		SQLitePath:        envOr(envKeySQLitePath, "pdfassistant.db"),
	}
}

// LoadFile loads env config, then overlays non-zero values from the YAML
// file at path.
func LoadFile(path string) (Config, error) {
	cfg := Load()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %q: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
	}

	merge(&cfg, file)
	return cfg, nil
}

// Validate checks that the configured mode has the credentials it needs.
func (c Config) Validate() error {
	switch c.ProviderMode {
	case ModeDeepSeek:
		if c.DeepSeek.APIKey == "" {
			return fmt.Errorf("config: %s not set for provider mode %q", envKeyDeepSeekAPIKey, c.ProviderMode)
		}
	case ModeGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("config: %s not set for provider mode %q", envKeyGeminiAPIKey, c.ProviderMode)
		}
	case ModeFallback:
		if c.DeepSeek.APIKey == "" || c.Gemini.APIKey == "" {
			return fmt.Errorf("config: fallback mode requires both %s and %s", envKeyDeepSeekAPIKey, envKeyGeminiAPIKey)
		}
	default:
		return fmt.Errorf("config: unknown provider mode %q", c.ProviderMode)
	}
	if c.RateLimitCapacity <= 0 {
		return fmt.Errorf("config: rate limit capacity must be positive")
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("config: rate limit window must be positive")
	}
	return nil
}

func merge(dst *Config, src Config) {
	if src.ProviderMode != "" {
		dst.ProviderMode = src.ProviderMode
	}
	mergeProvider(&dst.DeepSeek, src.DeepSeek)
	mergeProvider(&dst.Gemini, src.Gemini)
	if src.RateLimitWindow != 0 {
		dst.RateLimitWindow = src.RateLimitWindow
	}
	if src.RateLimitCapacity != 0 {
		dst.RateLimitCapacity = src.RateLimitCapacity
	}
	if src.Host != "" {
		dst.Host = src.Host
	}
	if src.Port != 0 {
		dst.Port = src.Port
	}
	if src.SQLitePath != "" {
		dst.SQLitePath = src.SQLitePath
	}
}

func mergeProvider(dst *ProviderConfig, src ProviderConfig) {
	if src.APIKey != "" {
		dst.APIKey = src.APIKey
	}
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
}

// envOr returns the value of the environment variable key, or fallback if
// not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
