package qboauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/qbotools/qboauth/internal/secretstore"
)

const (
	// expirySlack refreshes the in-process access token slightly before the
	// provider-reported expiry to absorb clock skew and request latency.
	expirySlack = 60 * time.Second

	// defaultHTTPTimeout bounds every token endpoint round trip.
	defaultHTTPTimeout = 15 * time.Second
)

// Option configures a Manager.
type Option func(*Manager)

// WithEndpoint overrides the OAuth2 endpoints (used by tests to point at a
// stub token server).
func WithEndpoint(endpoint oauth2.Endpoint) Option {
	return func(m *Manager) {
		m.endpoint = endpoint
	}
}

// WithRedirectURL overrides the registered redirect URI.
func WithRedirectURL(redirectURL string) Option {
	return func(m *Manager) {
		m.redirectURL = redirectURL
	}
}

// WithScopes overrides the requested authorization scopes.
func WithScopes(scopes ...string) Option {
	return func(m *Manager) {
		m.scopes = scopes
	}
}

// WithHTTPClient sets a custom HTTP client for token endpoint requests.
// If not provided, a client with a 15s timeout is used.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) {
		m.httpClient = client
	}
}

// session is the in-memory, process-lifetime state derived from the most
// recent token endpoint exchange. Never persisted.
type session struct {
	accessToken string
	expiry      time.Time
	realmID     string
}

// Manager produces currently valid access tokens and the associated company
// identifier, handling both interactive bootstrap and silent refresh.
// Construct one per process and pass it to every collaborator that needs a
// token.
type Manager struct {
	store       *secretstore.Store
	interactor  Interactor
	endpoint    oauth2.Endpoint
	redirectURL string
	scopes      []string
	httpClient  *http.Client
	now         func() time.Time

	mu      sync.Mutex
	session session
}

// NewManager creates a Manager over the given secret store and interaction
// port. No I/O is performed until the first Token or RealmID call.
func NewManager(store *secretstore.Store, interactor Interactor, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("missing secret store")
	}
	if interactor == nil {
		return nil, fmt.Errorf("missing interactor")
	}

	m := &Manager{
		store:       store,
		interactor:  interactor,
		endpoint:    Endpoint,
		redirectURL: DefaultRedirectURL,
		scopes:      []string{ScopeAccounting},
		httpClient:  &http.Client{Timeout: defaultHTTPTimeout},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Token returns a valid access token. An unexpired in-process token is reused;
// otherwise the stored bundle is exchanged via the refresh-token grant, falling
// back to the interactive flow exactly once when no bundle exists, the bundle
// is corrupt, or the provider rejects the refresh token.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sessionValidLocked() {
		return m.session.accessToken, nil
	}
	return m.mintLocked(ctx)
}

// RealmID returns the company identifier established during the most recent
// authorization. When nothing is stored yet it triggers the bootstrap flow
// rather than failing silently.
func (m *Manager) RealmID(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session.realmID != "" {
		return m.session.realmID, nil
	}

	bundle, err := m.store.Load(ctx)
	if err == nil {
		m.session.realmID = bundle.RealmID
		return bundle.RealmID, nil
	}

	var corrupt *secretstore.CorruptBundleError
	if !errors.Is(err, secretstore.ErrNoBundle) && !errors.As(err, &corrupt) {
		return "", fmt.Errorf("loading stored credentials: %w", err)
	}

	if _, err := m.mintLocked(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRealmUnavailable, err)
	}
	if m.session.realmID == "" {
		return "", ErrRealmUnavailable
	}
	return m.session.realmID, nil
}

// Login runs the interactive authorization flow unconditionally, prompting for
// fresh client credentials. Used to re-run first-time setup.
func (m *Manager) Login(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.loginLocked(ctx, "", "")
	return err
}

// Reset discards the persisted bundle and the in-process session.
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = session{}
	return m.store.Delete(ctx)
}

// NeedsInteractiveAuth reports whether the next Token call would require user
// interaction (no stored bundle, or a bundle that cannot be decrypted).
func (m *Manager) NeedsInteractiveAuth(ctx context.Context) (bool, error) {
	_, err := m.store.Load(ctx)
	var corrupt *secretstore.CorruptBundleError
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, secretstore.ErrNoBundle), errors.As(err, &corrupt):
		return true, nil
	default:
		return false, err
	}
}

// sessionValidLocked reports whether the in-process access token can be reused.
func (m *Manager) sessionValidLocked() bool {
	if m.session.accessToken == "" || m.session.expiry.IsZero() {
		return false
	}
	return m.now().Before(m.session.expiry.Add(-expirySlack))
}

// mintLocked derives a fresh access token: silent refresh when a bundle loads,
// interactive bootstrap otherwise. The interactive fallback runs at most once;
// its errors surface to the caller.
func (m *Manager) mintLocked(ctx context.Context) (string, error) {
	bundle, err := m.store.Load(ctx)
	var corrupt *secretstore.CorruptBundleError
	switch {
	case errors.Is(err, secretstore.ErrNoBundle):
		slog.InfoContext(ctx, "no stored credentials, starting interactive authorization")
		return m.loginLocked(ctx, "", "")
	case errors.As(err, &corrupt):
		slog.WarnContext(ctx, "discarding corrupt credential bundle", "error", err)
		if derr := m.store.Delete(ctx); derr != nil {
			return "", fmt.Errorf("removing corrupt bundle: %w", derr)
		}
		return m.loginLocked(ctx, "", "")
	case err != nil:
		return "", fmt.Errorf("loading stored credentials: %w", err)
	}

	token, err := m.refreshLocked(ctx, bundle)
	if errors.Is(err, errRefreshRejected) {
		// Stale bundle already discarded; the client credentials survive in
		// memory so the user only re-approves access.
		return m.loginLocked(ctx, bundle.ClientID, bundle.ClientSecret)
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// refreshLocked exchanges the stored refresh token for a new access token.
// A provider rejection discards the bundle and returns errRefreshRejected;
// transport errors propagate without touching stored state.
func (m *Manager) refreshLocked(ctx context.Context, bundle *secretstore.Bundle) (string, error) {
	cfg := m.oauthConfig(bundle.ClientID, bundle.ClientSecret)
	seed := &oauth2.Token{RefreshToken: bundle.RefreshToken}

	token, err := cfg.TokenSource(m.oauthContext(ctx), seed).Token()
	if err != nil {
		var retrieve *oauth2.RetrieveError
		if errors.As(err, &retrieve) {
			slog.WarnContext(ctx, "refresh token rejected, discarding stored credentials",
				"status", retrieve.Response.StatusCode)
			if derr := m.store.Delete(ctx); derr != nil {
				return "", fmt.Errorf("removing stale bundle: %w", derr)
			}
			return "", fmt.Errorf("%w: %w", errRefreshRejected, exchangeError(retrieve))
		}
		return "", fmt.Errorf("refreshing access token: %w", err)
	}

	// Persist only on actual rotation; the oauth2 package carries the old
	// refresh token forward when the response omits one.
	if token.RefreshToken != "" && token.RefreshToken != bundle.RefreshToken {
		rotated := *bundle
		rotated.RefreshToken = token.RefreshToken
		if err := m.store.Save(ctx, &rotated); err != nil {
			return "", fmt.Errorf("persisting rotated refresh token: %w", err)
		}
		slog.DebugContext(ctx, "refresh token rotated")
	}

	m.session = session{
		accessToken: token.AccessToken,
		expiry:      token.Expiry,
		realmID:     bundle.RealmID,
	}
	return token.AccessToken, nil
}

// loginLocked runs the interactive authorization-code flow. When knownID and
// knownSecret are set (refresh fallback) the credential prompt is skipped.
// An abandoned or failed attempt leaves the persisted state unchanged.
func (m *Manager) loginLocked(ctx context.Context, knownID, knownSecret string) (string, error) {
	clientID, clientSecret := knownID, knownSecret
	if clientID == "" || clientSecret == "" {
		var err error
		clientID, clientSecret, err = m.interactor.Credentials(ctx)
		if err != nil {
			return "", fmt.Errorf("reading client credentials: %w", err)
		}
		if clientID == "" || clientSecret == "" {
			return "", errors.New("client id and client secret are required")
		}
	}

	// Fresh anti-forgery state per attempt, validated against the redirect
	state := uuid.NewString()
	cfg := m.oauthConfig(clientID, clientSecret)

	if err := m.interactor.OpenURL(cfg.AuthCodeURL(state)); err != nil {
		slog.WarnContext(ctx, "could not launch browser, open the printed URL manually", "error", err)
	}

	raw, err := m.interactor.RedirectURL(ctx)
	if err != nil {
		return "", fmt.Errorf("reading redirect URL: %w", err)
	}

	code, realmID, err := parseRedirect(raw, state)
	if err != nil {
		return "", err
	}

	token, err := cfg.Exchange(m.oauthContext(ctx), code)
	if err != nil {
		var retrieve *oauth2.RetrieveError
		if errors.As(err, &retrieve) {
			return "", exchangeError(retrieve)
		}
		return "", fmt.Errorf("exchanging authorization code: %w", err)
	}
	if token.RefreshToken == "" {
		return "", errors.New("authorization response did not include a refresh token")
	}

	bundle := &secretstore.Bundle{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RealmID:      realmID,
		RefreshToken: token.RefreshToken,
	}
	if err := m.store.Save(ctx, bundle); err != nil {
		return "", fmt.Errorf("persisting credentials: %w", err)
	}

	m.session = session{
		accessToken: token.AccessToken,
		expiry:      token.Expiry,
		realmID:     realmID,
	}
	slog.InfoContext(ctx, "authorization complete", "realm_id", realmID)
	return token.AccessToken, nil
}

// oauthConfig builds the oauth2 configuration for a given client credential
// pair. Client credentials live in the bundle, not the Manager, so the config
// is assembled per call.
func (m *Manager) oauthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  m.redirectURL,
		Scopes:       m.scopes,
		Endpoint:     m.endpoint,
	}
}

// oauthContext injects the bounded-timeout HTTP client into the oauth2
// package via its documented context key.
func (m *Manager) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}

// parseRedirect extracts code and realmId from the pasted redirect URL and
// validates the echoed anti-forgery state.
func parseRedirect(raw, wantState string) (code, realmID string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("parsing redirect URL: %w", err)
	}

	query := u.Query()
	code = query.Get("code")
	if code == "" {
		return "", "", ErrMissingAuthCode
	}
	realmID = query.Get("realmId")
	if realmID == "" {
		return "", "", ErrMissingRealm
	}
	if got := query.Get("state"); got != wantState {
		return "", "", ErrStateMismatch
	}

	return code, realmID, nil
}

// exchangeError converts an oauth2 retrieval failure into a TokenExchangeError
// preserving the provider's payload verbatim.
func exchangeError(retrieve *oauth2.RetrieveError) *TokenExchangeError {
	statusCode := 0
	if retrieve.Response != nil {
		statusCode = retrieve.Response.StatusCode
	}
	return &TokenExchangeError{
		StatusCode: statusCode,
		Body:       retrieve.Body,
	}
}
