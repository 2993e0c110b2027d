// Package qboauth turns a one-time interactive QuickBooks Online authorization
// into a durable, silently-renewing credential.
//
// The Manager is the single entry point: Token returns a currently valid
// access token and RealmID the company identifier the tokens are scoped to.
// On a cold start the Manager attempts a refresh-token grant against the
// stored, encrypted credential bundle; when no bundle exists, or the provider
// rejects the refresh token, it falls back to the interactive
// authorization-code flow exactly once.
//
// User interaction (credential prompts, browser launch, redirect paste-back)
// goes through the Interactor port so unattended tests can substitute a
// scripted responder.
package qboauth
