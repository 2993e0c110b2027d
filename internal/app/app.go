package app

import (
	"fmt"
	"net/http"

	"github.com/qbotools/qboauth/internal/qbo"
	"github.com/qbotools/qboauth/internal/qboauth"
	"github.com/qbotools/qboauth/internal/secretstore"
)

// App wires the secret store, token lifecycle manager, and query client from
// configuration. One App is constructed per process invocation and handed to
// the commands; no shared global state.
type App struct {
	cfg     *Config
	Manager *qboauth.Manager
	Client  *qbo.Client
}

// New creates a new App instance. The encryption key is loaded or generated
// here; everything else defers I/O until first use.
func New(cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cipher, err := secretstore.LoadOrCreateKey(cfg.Auth.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("preparing encryption key: %w", err)
	}

	blobs, err := cfg.Auth.NewBlobStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create bundle store: %w", err)
	}

	store, err := secretstore.New(blobs, cipher)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret store: %w", err)
	}

	manager, err := qboauth.NewManager(store, qboauth.NewTerminalInteractor(),
		qboauth.WithRedirectURL(cfg.Auth.RedirectURL),
		qboauth.WithHTTPClient(&http.Client{Timeout: cfg.Auth.Timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token manager: %w", err)
	}

	client, err := qbo.New(manager,
		qbo.WithBaseURL(cfg.API.BaseURL()),
		qbo.WithMinorVersion(cfg.API.MinorVersion),
		qbo.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create query client: %w", err)
	}

	return &App{
		cfg:     cfg,
		Manager: manager,
		Client:  client,
	}, nil
}
