package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

const sampleConfig = `{
  "models": {
    "gemini_pro": {"model": "gemini-2.5-pro", "api_key_env": "GEMINI_API_KEY", "timeout": "120s"},
    "gemini_flash": {"model": "gemini-2.5-flash"}
  },
  "roles": {"planning": "gemini_pro", "implementation": "gemini_flash"},
  "knowledge": {"manifest": "knowledge.yaml", "top_k": 5, "min_score": 0.05},
  "budgets": {"max_retries": 3, "parallelism": 2},
  "self_tests": true
}`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("config", writeConfig(t, sampleConfig))

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig returned error: %v", err)
	}
	if cfg.Budgets.MaxRetries != 3 {
		t.Fatalf("max_retries = %d, want 3", cfg.Budgets.MaxRetries)
	}
	if !cfg.SelfTests {
		t.Fatal("self_tests = false, want true")
	}
	planning, implementation, err := cfg.ResolveRoles()
	if err != nil {
		t.Fatalf("ResolveRoles returned error: %v", err)
	}
	if planning.Model != "gemini-2.5-pro" {
		t.Fatalf("planning model = %q, want gemini-2.5-pro", planning.Model)
	}
	if implementation.Model != "gemini-2.5-flash" {
		t.Fatalf("implementation model = %q, want gemini-2.5-flash", implementation.Model)
	}
	if got := planning.Timeout.Seconds(); got != 120 {
		t.Fatalf("planning timeout = %vs, want 120s", got)
	}
}

func TestLoadConfigRejectsUndefinedRole(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("config", writeConfig(t, `{
  "models": {"gemini_pro": {"model": "gemini-2.5-pro"}},
  "roles": {"planning": "gemini_pro", "implementation": "missing"},
  "budgets": {"max_retries": 3}
}`))

	if _, err := loadConfig(""); err == nil {
		t.Fatal("loadConfig returned nil error, want error")
	}
}

func TestLoadConfigRejectsSchemaViolation(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("config", writeConfig(t, `{
  "models": {"gemini_pro": {"model": "gemini-2.5-pro"}},
  "roles": {"planning": "gemini_pro", "implementation": "gemini_pro"},
  "budgets": {"max_retries": 0}
}`))

	if _, err := loadConfig(""); err == nil {
		t.Fatal("loadConfig returned nil error, want error")
	}
}
