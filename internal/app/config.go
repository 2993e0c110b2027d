package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/qbotools/qboauth/internal/qbo"
	"github.com/qbotools/qboauth/internal/qboauth"
	"github.com/qbotools/qboauth/internal/secretstore"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// SecretStorageType represents the storage backends supported for the
// encrypted credential bundle.
type SecretStorageType string

const (
	SecretStorageTypeFile    SecretStorageType = "file"
	SecretStorageTypeKeyring SecretStorageType = "keyring"
)

// Environment selects the QuickBooks API host.
type Environment string

const (
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentProduction Environment = "production"
)

// Default configuration values
const (
	DefaultConfigLogFormat    = LogFormatText
	DefaultConfigAuthStorage  = SecretStorageTypeFile
	DefaultConfigAuthTimeout  = 15 * time.Second
	DefaultConfigEnvironment  = EnvironmentSandbox
	DefaultConfigMinorVersion = qbo.DefaultMinorVersion
	DefaultConfigAPITimeout   = 30 * time.Second

	keyringService = "qboauth-credentials"
)

// AuthConfig describes where the encryption key and credential bundle live
// and how the interactive flow reaches Intuit.
type AuthConfig struct {
	// Storage selects the bundle backend; the key file is always on disk.
	Storage SecretStorageType `json:"storage" validate:"required,oneof=file keyring"`

	// Storage-specific settings (mutually exclusive based on Storage type)
	BundleFile  string `json:"bundle_file,omitempty"`  // For file storage: path to the encrypted bundle
	KeyringUser string `json:"keyring_user,omitempty"` // For keyring storage: user identifier

	// KeyFile holds the symmetric encryption key.
	KeyFile string `json:"key_file"`

	// RedirectURL must match a redirect URI registered on the Intuit app.
	RedirectURL string `json:"redirect_url" validate:"required,url"`

	// Timeout bounds every token endpoint round trip.
	Timeout time.Duration `json:"timeout"`
}

// NewBlobStore creates the bundle blob store from the authentication
// configuration.
func (a *AuthConfig) NewBlobStore() (secretstore.BlobStore, error) {
	switch a.Storage {
	case SecretStorageTypeFile:
		return secretstore.NewFileBlobStore(a.BundleFile)
	case SecretStorageTypeKeyring:
		return secretstore.NewKeyringBlobStore(keyringService, a.KeyringUser)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", a.Storage)
	}
}

// APIConfig holds QuickBooks query API configuration.
type APIConfig struct {
	Environment  Environment `json:"environment" validate:"required,oneof=sandbox production"`
	MinorVersion string      `json:"minor_version"`
	// Timeout bounds every query round trip.
	Timeout time.Duration `json:"timeout"`
}

// BaseURL returns the API host for the configured environment.
func (a *APIConfig) BaseURL() string {
	if a.Environment == EnvironmentProduction {
		return qbo.ProductionBaseURL
	}
	return qbo.SandboxBaseURL
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel  slog.Level `json:"log_level"`
	LogFormat LogFormat  `json:"log_format" validate:"oneof=text json"`
	Auth      AuthConfig `json:"auth"`
	API       APIConfig  `json:"api"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.Auth.Storage == "" {
		c.Auth.Storage = DefaultConfigAuthStorage
	}
	if c.Auth.RedirectURL == "" {
		c.Auth.RedirectURL = qboauth.DefaultRedirectURL
	}
	if c.Auth.Timeout == 0 {
		c.Auth.Timeout = DefaultConfigAuthTimeout
	}
	if c.API.Environment == "" {
		c.API.Environment = DefaultConfigEnvironment
	}
	if c.API.MinorVersion == "" {
		c.API.MinorVersion = DefaultConfigMinorVersion
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultConfigAPITimeout
	}

	if c.Auth.KeyFile == "" {
		path, err := defaultConfigPath("encrypt.key")
		if err != nil {
			return fmt.Errorf("auth.key_file required (auto-detect failed: %w)", err)
		}
		c.Auth.KeyFile = path
	}

	// Dynamic defaults based on storage type
	switch c.Auth.Storage {
	case SecretStorageTypeFile:
		if c.Auth.BundleFile == "" {
			path, err := defaultConfigPath("tokens.json")
			if err != nil {
				return fmt.Errorf("auth.bundle_file required (auto-detect failed: %w)", err)
			}
			c.Auth.BundleFile = path
		}
	case SecretStorageTypeKeyring:
		if c.Auth.KeyringUser == "" {
			currentUser, err := user.Current()
			if err != nil {
				return fmt.Errorf("auth.keyring_user required (auto-detect failed: %w)", err)
			}
			c.Auth.KeyringUser = currentUser.Username
		}
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Auth.KeyFile == "" {
		return errors.New("key_file required")
	}

	switch c.Auth.Storage {
	case SecretStorageTypeFile:
		if c.Auth.BundleFile == "" {
			return errors.New("bundle_file required for file storage")
		}
	case SecretStorageTypeKeyring:
		if c.Auth.KeyringUser == "" {
			return errors.New("keyring_user required for keyring storage")
		}
	}

	return nil
}

// defaultConfigPath places a file under the user's config directory.
func defaultConfigPath(name string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "qboauth", name), nil
}
