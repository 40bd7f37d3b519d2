package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// chtmp switches to an empty temp directory so no config file is picked up,
// restoring the original working directory on cleanup.
func chtmp(t *testing.T) string {
	t.Helper()
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	dir := t.TempDir()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	return dir
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV_NAME", "PORT", "APP_VERSION", "LOG_LEVEL",
		"READY_DELAY", "SHUTDOWN_DELAY", "SHUTDOWN_TIMEOUT",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	chtmp(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.AppVersion != "unknown" {
		t.Errorf("AppVersion = %q, want unknown", cfg.AppVersion)
	}
	if cfg.ReadyDelay != 2*time.Second {
		t.Errorf("ReadyDelay = %v, want 2s", cfg.ReadyDelay)
	}
	if cfg.ShutdownDelay != 5*time.Second {
		t.Errorf("ShutdownDelay = %v, want 5s", cfg.ShutdownDelay)
	}
	if cfg.RateLimitRPS != 0 {
		t.Errorf("RateLimitRPS = %d, want 0 (disabled)", cfg.RateLimitRPS)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	chtmp(t)
	t.Setenv("PORT", "9090")
	t.Setenv("APP_VERSION", "1.2.3")
	t.Setenv("READY_DELAY", "0s")
	t.Setenv("SHUTDOWN_DELAY", "100ms")
	t.Setenv("RATE_LIMIT_RPS", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
	if cfg.AppVersion != "1.2.3" {
		t.Errorf("AppVersion = %q, want 1.2.3", cfg.AppVersion)
	}
	if cfg.ReadyDelay != 0 {
		t.Errorf("ReadyDelay = %v, want 0", cfg.ReadyDelay)
	}
	if cfg.ShutdownDelay != 100*time.Millisecond {
		t.Errorf("ShutdownDelay = %v, want 100ms", cfg.ShutdownDelay)
	}
	if cfg.RateLimitRPS != 50 {
		t.Errorf("RateLimitRPS = %d, want 50", cfg.RateLimitRPS)
	}
	if cfg.RateLimitBurst != 50 {
		t.Errorf("RateLimitBurst = %d, want 50 (defaults to RPS)", cfg.RateLimitBurst)
	}
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	clearEnv(t)
	dir := chtmp(t)
	writeConfigFile(t, dir, "dev", `
server:
  port: "9999"
lifecycle:
  ready_delay: 50ms
shutdown:
  delay: 1s
`)
	t.Setenv("PORT", "7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort != "7070" {
		t.Errorf("ServerPort = %q, want env value 7070 over file value 9999", cfg.ServerPort)
	}
	if cfg.ReadyDelay != 50*time.Millisecond {
		t.Errorf("ReadyDelay = %v, want file value 50ms", cfg.ReadyDelay)
	}
	if cfg.ShutdownDelay != time.Second {
		t.Errorf("ShutdownDelay = %v, want file value 1s", cfg.ShutdownDelay)
	}
}

func TestLoad_EnvNameSelectsFile(t *testing.T) {
	clearEnv(t)
	dir := chtmp(t)
	writeConfigFile(t, dir, "prod", "server:\n  port: \"8443\"\n")
	t.Setenv("ENV_NAME", "prod")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort != "8443" {
		t.Errorf("ServerPort = %q, want 8443 from prod config", cfg.ServerPort)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	chtmp(t)
	t.Setenv("ENV_NAME", "nonexistent")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for missing config file", err)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want default 8080", cfg.ServerPort)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	clearEnv(t)
	dir := chtmp(t)
	writeConfigFile(t, dir, "dev", "server: [not a mapping\n")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for malformed YAML, got nil")
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	clearEnv(t)
	chtmp(t)

	for _, port := range []string{"abc", "0", "70000", "-1"} {
		t.Setenv("PORT", port)
		_, err := Load()
		if err == nil {
			t.Errorf("Load() with PORT=%q expected error, got nil", port)
			continue
		}
		if !strings.Contains(err.Error(), "PORT") {
			t.Errorf("Load() with PORT=%q error = %v, want message naming PORT", port, err)
		}
	}
}

func TestLoad_InvalidDurationEnv(t *testing.T) {
	clearEnv(t)
	chtmp(t)
	t.Setenv("SHUTDOWN_DELAY", "not-a-duration")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for unparseable SHUTDOWN_DELAY, got nil")
	}
}

func writeConfigFile(t *testing.T, dir, envName, content string) {
	t.Helper()
	cfgDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, envName+".yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}
