package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}

	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}

	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}

	if cfg.Reader.Width != 0 || cfg.Reader.Height != 0 {
		t.Errorf("Default viewport should be autodetected, got %dx%d", cfg.Reader.Width, cfg.Reader.Height)
	}

	if !cfg.Reader.Justify {
		t.Error("Default config should enable justification")
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `version: 1
reader:
  width: 100
  height: 40
  justify: false
  images: false
logging:
  console:
    level: debug
  file:
    level: none
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfiguration(configPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if cfg.Reader.Width != 100 || cfg.Reader.Height != 40 {
		t.Errorf("Viewport = %dx%d, want 100x40", cfg.Reader.Width, cfg.Reader.Height)
	}

	if cfg.Reader.Justify {
		t.Error("Justify should be overridden to false")
	}

	if cfg.Logging.ConsoleLogger.Level != "debug" {
		t.Errorf("Console level = %q, want debug", cfg.Logging.ConsoleLogger.Level)
	}
}

func TestLoadConfiguration_UnknownField(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("version: 1\nnot_a_field: true\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := LoadConfiguration(configPath); err == nil {
		t.Fatal("LoadConfiguration() should reject unknown fields")
	}
}

func TestLoadConfiguration_InvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `version: 1
logging:
  console:
    level: shouting
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := LoadConfiguration(configPath)
	if err == nil {
		t.Fatal("LoadConfiguration() should reject bad console level")
	}
	if !strings.Contains(err.Error(), "Level") && !strings.Contains(err.Error(), "level") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if !strings.Contains(string(data), "reader:") {
		t.Error("Prepared config should contain reader section")
	}
}
