package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestFile(t *testing.T, name, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(name, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"--version"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "magicmount dev") {
		t.Errorf("version output = %q", out.String())
	}
}

func TestRunUnexpectedArgument(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"extra"}, &out); err == nil {
		t.Error("expected an error for a positional argument")
	}
}

func TestRunInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	writeTestFile(t, cfg, "runtime_dir: relative\n")

	var out bytes.Buffer
	err := run([]string{"--config", cfg}, &out)
	if err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("error = %v, want invalid config", err)
	}
}

func TestRunDryRun(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "system", "etc", "hosts"), "hosts")
	writeTestFile(t, filepath.Join(root, "dev", "tmp", ".magisk", "mirror", "system", "etc", "hosts"), "hosts")
	writeTestFile(t, filepath.Join(root, "data", "adb", "modules", "a", "system", "etc", "new.conf"), "new")

	cfg := filepath.Join(t.TempDir(), "config.yaml")
	writeTestFile(t, cfg, `module_store: /data/adb/modules
runtime_dir: /dev/tmp
default_bin_dir: /dev/tmp
log:
  level: error
`)

	var out bytes.Buffer
	if err := run([]string{"--config", cfg, "--dry-run", "--source-root", root}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	plan := out.String()
	for _, want := range []string{
		"tmpfs    /system/etc",
		"bind     /system/etc/hosts <- /dev/tmp/.magisk/mirror/system/etc/hosts",
		"bind     /system/etc/new.conf <- /dev/tmp/.magisk/modules/a/system/etc/new.conf",
	} {
		if !strings.Contains(plan, want) {
			t.Errorf("plan missing %q:\n%s", want, plan)
		}
	}
	if strings.Contains(plan, "magisk <-") {
		t.Errorf("binaries should not be injected:\n%s", plan)
	}
}

func TestRunMissingStore(t *testing.T) {
	root := t.TempDir()
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	writeTestFile(t, cfg, "log:\n  level: error\n")

	var out bytes.Buffer
	if err := run([]string{"--config", cfg, "--dry-run", "--source-root", root}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected an empty plan, got:\n%s", out.String())
	}
}
