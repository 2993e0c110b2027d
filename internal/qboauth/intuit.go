package qboauth

import (
	"golang.org/x/oauth2"
)

// Endpoint defines the OAuth2 endpoints for Intuit's QuickBooks Online platform.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://appcenter.intuit.com/connect/oauth2",
	TokenURL:  "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer",
	AuthStyle: oauth2.AuthStyleInParams,
}

// ScopeAccounting grants read/write access to QuickBooks accounting data.
const ScopeAccounting = "com.intuit.quickbooks.accounting"

// DefaultRedirectURL must match a redirect URI registered on the Intuit
// developer app. The flow never serves this address; the user pastes the full
// redirect URL back by hand.
const DefaultRedirectURL = "https://localhost:8000/callback"
