package commands

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/qbotools/qboauth/internal/app"
)

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	environ := func() []string {
		return []string{
			"QBO_LOG_LEVEL=debug",
			"QBO_AUTH__STORAGE=keyring",
			"QBO_AUTH__KEYRING_USER=alice",
			"UNRELATED=ignored",
		}
	}

	cfg, err := loadConfig("", nil, environ)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("log level = %v, want debug", cfg.LogLevel)
	}
	if cfg.Auth.Storage != app.SecretStorageTypeKeyring {
		t.Errorf("storage = %q, want keyring", cfg.Auth.Storage)
	}
	if cfg.Auth.KeyringUser != "alice" {
		t.Errorf("keyring user = %q, want alice", cfg.Auth.KeyringUser)
	}
}

func TestLoadConfigEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	contents := `
log_format = "json"

[api]
environment = "production"
`
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	environ := func() []string {
		return []string{"QBO_API__ENVIRONMENT=sandbox"}
	}

	cfg, err := loadConfig(configPath, nil, environ)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.LogFormat != app.LogFormatJSON {
		t.Errorf("log format = %q, want json", cfg.LogFormat)
	}
	if cfg.API.Environment != app.EnvironmentSandbox {
		t.Errorf("environment = %q, want sandbox from environment variable", cfg.API.Environment)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := loadConfig("/nonexistent/config.toml", nil, func() []string { return nil }); err == nil {
		t.Error("expected error for missing config file")
	}
}
