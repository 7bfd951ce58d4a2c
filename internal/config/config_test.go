package config

import (
	"os"
	"path/filepath"
	"testing"

	"doc-translator/internal/types"
)

func TestNewManagerWithPath(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")

	m, err := NewManager(configPath)
	if err != nil {
		t.Fatalf("NewManager() returned error: %v", err)
	}
	if m.GetConfigPath() != configPath {
		t.Errorf("config path = %q, want %q", m.GetConfigPath(), configPath)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "missing.json")

	m, _ := NewManager(configPath)
	if err := m.Load(); err != nil {
		t.Fatalf("Load() returned error for missing file: %v", err)
	}

	cfg := m.GetConfig()
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want default %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.Model != DefaultModel {
		t.Errorf("Model = %q, want default %q", cfg.Model, DefaultModel)
	}
	if cfg.Workers != DefaultWorkers {
		t.Errorf("Workers = %d, want default %d", cfg.Workers, DefaultWorkers)
	}
}

func TestLoadInvalidJSONUsesDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(configPath, []byte("{not json"), 0600)

	m, _ := NewManager(configPath)
	if err := m.Load(); err != nil {
		t.Fatalf("Load() returned error for invalid JSON: %v", err)
	}
	if m.GetConfig().Model != DefaultModel {
		t.Errorf("invalid config should fall back to defaults")
	}
}

func TestSaveAndReload(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")

	m, _ := NewManager(configPath)
	m.SetConfig(&types.Config{
		APIKey:         "sk-test",
		BaseURL:        "https://example.com/v1",
		Model:          "test-model",
		TargetLanguage: "fr",
		Workers:        2,
	})
	if err := m.Save(); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}

	m2, _ := NewManager(configPath)
	if err := m2.Load(); err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	cfg := m2.GetConfig()
	if cfg.APIKey != "sk-test" || cfg.BaseURL != "https://example.com/v1" {
		t.Errorf("round-trip lost values: %+v", cfg)
	}
	if cfg.TargetLanguage != "fr" {
		t.Errorf("TargetLanguage = %q, want %q", cfg.TargetLanguage, "fr")
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Workers)
	}
}

func TestGetModelPrefersCustomModel(t *testing.T) {
	m, _ := NewManager(filepath.Join(t.TempDir(), "c.json"))
	m.SetConfig(&types.Config{Model: "gpt-4o-mini", CustomModel: "my-finetune"})

	if got := m.GetModel(); got != "my-finetune" {
		t.Errorf("GetModel() = %q, want custom model", got)
	}
}

func TestGetAPIKeyEnvFallback(t *testing.T) {
	m, _ := NewManager(filepath.Join(t.TempDir(), "c.json"))
	m.SetConfig(&types.Config{})

	t.Setenv(EnvAPIKey, "env-key")
	if got := m.GetAPIKey(); got != "env-key" {
		t.Errorf("GetAPIKey() = %q, want env fallback", got)
	}

	m.SetConfig(&types.Config{APIKey: "file-key"})
	if got := m.GetAPIKey(); got != "file-key" {
		t.Errorf("GetAPIKey() = %q, config file value should win", got)
	}
}

func TestUpdateConfigPartial(t *testing.T) {
	m, _ := NewManager(filepath.Join(t.TempDir(), "c.json"))
	m.SetConfig(&types.Config{APIKey: "old", BaseURL: "https://a/v1", Model: "m1", Workers: 1})

	if err := m.UpdateConfig("", "", "m2", "", "zh", 0); err != nil {
		t.Fatalf("UpdateConfig() returned error: %v", err)
	}

	cfg := m.GetConfig()
	if cfg.APIKey != "old" {
		t.Errorf("empty apiKey should not overwrite, got %q", cfg.APIKey)
	}
	if cfg.Model != "m2" {
		t.Errorf("Model = %q, want %q", cfg.Model, "m2")
	}
	if cfg.TargetLanguage != "zh" {
		t.Errorf("TargetLanguage = %q, want %q", cfg.TargetLanguage, "zh")
	}
	if cfg.Workers != 1 {
		t.Errorf("non-positive workers should not overwrite, got %d", cfg.Workers)
	}
}
