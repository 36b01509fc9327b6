package model

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("AUTH_API_BASE", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.API.BaseURL != DefaultAPIBaseURL {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.AI.Model != DefaultAIModel {
		t.Errorf("AI.Model = %q", cfg.AI.Model)
	}
	if cfg.Display.RefreshIntervalSec != 120 {
		t.Errorf("RefreshIntervalSec = %d", cfg.Display.RefreshIntervalSec)
	}
	if len(cfg.Finance.PaidStatuses) != 1 || cfg.Finance.PaidStatuses[0] != "paid" {
		t.Errorf("PaidStatuses = %v", cfg.Finance.PaidStatuses)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `api:
  base_url: https://file.example.com/api/
  timeout_sec: 5
ai:
  model: gemini-test
finance:
  paid_statuses: [Paid, Completed]
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("API_BASE_URL", "")
	t.Setenv("AUTH_API_BASE", "https://env.example.com/auth")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.API.BaseURL != "https://file.example.com/api" {
		t.Errorf("trailing slash kept: %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout().Seconds() != 5 {
		t.Errorf("Timeout = %v", cfg.API.Timeout())
	}
	if cfg.Auth.BaseURL != "https://env.example.com/auth" {
		t.Errorf("env override lost: %q", cfg.Auth.BaseURL)
	}
	if cfg.AI.Model != "gemini-test" {
		t.Errorf("AI.Model = %q", cfg.AI.Model)
	}
	if got := cfg.Finance.PaidStatuses; len(got) != 2 || got[0] != "Paid" || got[1] != "Completed" {
		t.Errorf("PaidStatuses = %v", got)
	}
}

func TestValidateRejectsBadURL(t *testing.T) {
	cfg := &AppConfig{
		API:  APIConfig{BaseURL: "not a url"},
		Auth: AuthConfig{BaseURL: DefaultAuthBaseURL},
		AI:   AIConfig{BaseURL: DefaultAIBaseURL},
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "api.base_url") {
		t.Fatalf("Validate = %v", err)
	}
}

func TestSaveConfigOmitsAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_BASE_URL", "")
	t.Setenv("AUTH_API_BASE", "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	cfg.AI.APIKey = "secret-key"
	cfg.Display.RefreshIntervalSec = 30
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "secret-key") {
		t.Error("API key written to config file")
	}

	reloaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Display.RefreshIntervalSec != 30 {
		t.Errorf("RefreshIntervalSec = %d after reload", reloaded.Display.RefreshIntervalSec)
	}
	if reloaded.AI.APIKey != "" {
		t.Errorf("APIKey = %q after reload", reloaded.AI.APIKey)
	}
}

func TestTimeoutFallback(t *testing.T) {
	if got := (APIConfig{}).Timeout().Seconds(); got != 30 {
		t.Errorf("zero timeout = %vs, want 30s", got)
	}
}
