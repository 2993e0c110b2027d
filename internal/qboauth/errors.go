package qboauth

import (
	"errors"
	"fmt"
)

// ErrMissingAuthCode indicates a pasted redirect URL without a code parameter.
// Fatal for the attempt; the user must re-run the interactive flow.
var ErrMissingAuthCode = errors.New("redirect URL is missing the code parameter")

// ErrMissingRealm indicates a pasted redirect URL without a realmId parameter.
var ErrMissingRealm = errors.New("redirect URL is missing the realmId parameter")

// ErrStateMismatch indicates the redirect echoed a state value that does not
// match the one generated for this attempt.
var ErrStateMismatch = errors.New("redirect URL state does not match the authorization request")

// ErrRealmUnavailable indicates no authorization has ever completed against
// this store, so no company identifier is known.
var ErrRealmUnavailable = errors.New("realm id unavailable: no authorization has completed")

// errRefreshRejected signals internally that the provider rejected the stored
// refresh token and the bundle has been discarded.
var errRefreshRejected = errors.New("refresh token rejected by provider")

// TokenExchangeError reports a non-200 response from the token endpoint.
// Body carries the provider's error payload verbatim for diagnostics.
type TokenExchangeError struct {
	StatusCode int
	Body       []byte
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token endpoint returned %d: %s", e.StatusCode, e.Body)
}
