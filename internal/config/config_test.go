package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.ModuleStore != "/data/adb/modules" {
		t.Errorf("expected module_store=/data/adb/modules, got %s", cfg.ModuleStore)
	}
	if len(cfg.Partitions) != 3 {
		t.Errorf("expected 3 default partitions, got %v", cfg.Partitions)
	}
	if !cfg.StatCache {
		t.Error("expected stat_cache=true")
	}
	if cfg.InjectBinaries() {
		t.Error("default runtime dir should not inject binaries")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoad_WithoutEnv(t *testing.T) {
	t.Setenv(EnvVar, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.RuntimeDir != "/sbin" {
		t.Errorf("expected defaults, got runtime_dir=%s", cfg.RuntimeDir)
	}
}

func TestLoad_WithEnv(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "magicmount.yaml")
	content := `
runtime_dir: /dev/abcd
modules:
  - fonts
  - audio
log:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv(EnvVar, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.RuntimeDir != "/dev/abcd" {
		t.Errorf("expected runtime_dir=/dev/abcd, got %s", cfg.RuntimeDir)
	}
	if !cfg.InjectBinaries() {
		t.Error("expected binaries to be injected for a non-default runtime dir")
	}
	if len(cfg.Modules) != 2 || cfg.Modules[0] != "fonts" || cfg.Modules[1] != "audio" {
		t.Errorf("expected modules [fonts audio], got %v", cfg.Modules)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log.level=debug, got %s", cfg.Log.Level)
	}
	// Unset keys keep their defaults.
	if cfg.ModuleStore != "/data/adb/modules" {
		t.Errorf("expected default module_store, got %s", cfg.ModuleStore)
	}
	if cfg.Log.MaxSize != 128 {
		t.Errorf("expected default log.max_size=128, got %d", cfg.Log.MaxSize)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected a not-exist error, got %v", err)
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(configPath, []byte("partitions: [unterminated"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadFile(configPath); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.ModuleStore = "relative/modules"
	cfg.RuntimeDir = ""
	cfg.Partitions = []string{"/vendor", "/system/vendor"}
	cfg.Log.Level = "verbose"
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}

	msg := err.Error()
	for _, want := range []string{"module_store", "runtime_dir", "/system/vendor", "log.level", "log.format"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected error mentioning %q, got %q", want, msg)
		}
	}
	if strings.Contains(msg, "top-level directory: /vendor") {
		t.Errorf("/vendor should be a valid partition: %q", msg)
	}
}
