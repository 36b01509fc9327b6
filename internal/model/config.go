package model

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultAPIBaseURL  = "https://tracerx-backend.onrender.com/api"
	DefaultAuthBaseURL = "https://tracerx-backend.onrender.com/api/auth"
	DefaultAIModel     = "gemini-2.0-flash"
	DefaultAIBaseURL   = "https://generativelanguage.googleapis.com"
)

// APIConfig holds settings for the TracerX REST API.
type APIConfig struct {
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// Timeout returns the per-request timeout.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// AuthConfig holds settings for the authentication API.
type AuthConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// AIConfig holds settings for the Quotie assistant.
type AIConfig struct {
	Model            string  `mapstructure:"model" yaml:"model"`
	BaseURL          string  `mapstructure:"base_url" yaml:"base_url"`
	Temperature      float64 `mapstructure:"temperature" yaml:"temperature"`
	QuoteTemperature float64 `mapstructure:"quote_temperature" yaml:"quote_temperature"`
	TopP             float64 `mapstructure:"top_p" yaml:"top_p"`
	TopK             int     `mapstructure:"top_k" yaml:"top_k"`
	MaxOutputTokens  int     `mapstructure:"max_output_tokens" yaml:"max_output_tokens"`

	// APIKey is only ever read from the environment and is never saved.
	APIKey string `mapstructure:"api_key" yaml:"-"`
}

// DisplayConfig holds UI preferences.
type DisplayConfig struct {
	RefreshIntervalSec int `mapstructure:"refresh_interval_sec" yaml:"refresh_interval_sec"`
}

// LogConfig controls the file logger.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	Path  string `mapstructure:"path" yaml:"path"`
}

// StoreConfig controls the local quotation database.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// FinanceConfig controls how project finance is rolled up.
type FinanceConfig struct {
	// PaidStatuses are the transaction statuses counted as paid. Matching
	// is exact.
	PaidStatuses []string `mapstructure:"paid_statuses" yaml:"paid_statuses"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Auth    AuthConfig    `mapstructure:"auth" yaml:"auth"`
	AI      AIConfig      `mapstructure:"ai" yaml:"ai"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Finance FinanceConfig `mapstructure:"finance" yaml:"finance"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
}

// ConfigDir returns ~/.config/tracerx, the home of every file the client
// writes.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "tracerx")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/tracerx/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", DefaultAPIBaseURL)
	v.SetDefault("api.timeout_sec", 30)
	v.SetDefault("auth.base_url", DefaultAuthBaseURL)
	v.SetDefault("ai.model", DefaultAIModel)
	v.SetDefault("ai.base_url", DefaultAIBaseURL)
	v.SetDefault("ai.temperature", 0.9)
	v.SetDefault("ai.quote_temperature", 0.7)
	v.SetDefault("ai.top_p", 0.95)
	v.SetDefault("ai.top_k", 40)
	v.SetDefault("ai.max_output_tokens", 8192)
	v.SetDefault("display.refresh_interval_sec", 120)
	v.SetDefault("finance.paid_statuses", []string{"paid"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", filepath.Join(ConfigDir(), "tracerx.log"))
	v.SetDefault("store.path", filepath.Join(ConfigDir(), "tracerx.db"))
}

// bindEnv maps the environment variables the backend tooling already uses
// onto config keys. Environment values win over the file.
func bindEnv(v *viper.Viper) error {
	bindings := [][]string{
		{"api.base_url", "API_BASE_URL"},
		{"auth.base_url", "AUTH_API_BASE"},
		{"ai.api_key", "GEMINI_API_KEY", "apiKey"},
		{"log.level", "TRACERX_LOG_LEVEL"},
	}
	for _, b := range bindings {
		if err := v.BindEnv(b...); err != nil {
			return fmt.Errorf("binding env for %s: %w", b[0], err)
		}
	}
	return nil
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A missing file is not an error: defaults and environment still apply.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	cfg.Auth.BaseURL = strings.TrimRight(cfg.Auth.BaseURL, "/")
	cfg.AI.BaseURL = strings.TrimRight(cfg.AI.BaseURL, "/")

	return cfg, nil
}

// Validate checks that the endpoints are usable URLs.
func (c *AppConfig) Validate() error {
	var problems []string
	for name, raw := range map[string]string{
		"api.base_url":  c.API.BaseURL,
		"auth.base_url": c.Auth.BaseURL,
		"ai.base_url":   c.AI.BaseURL,
	} {
		u, err := url.Parse(raw)
		if raw == "" || err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, fmt.Sprintf("%s: invalid URL %q", name, raw))
		}
	}
	if c.AI.QuoteTemperature < 0 || c.AI.Temperature < 0 {
		problems = append(problems, "ai temperatures must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed. The AI key is never written.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("auth", cfg.Auth)
	v.Set("ai", map[string]interface{}{
		"model":             cfg.AI.Model,
		"base_url":          cfg.AI.BaseURL,
		"temperature":       cfg.AI.Temperature,
		"quote_temperature": cfg.AI.QuoteTemperature,
		"top_p":             cfg.AI.TopP,
		"top_k":             cfg.AI.TopK,
		"max_output_tokens": cfg.AI.MaxOutputTokens,
	})
	v.Set("display", cfg.Display)
	v.Set("finance", cfg.Finance)
	v.Set("log", cfg.Log)
	v.Set("store", cfg.Store)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
