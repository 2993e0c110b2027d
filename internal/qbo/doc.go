// Package qbo is a thin client for the QuickBooks Online query endpoint.
//
// Every call issues a single plain-text query POST to
// /v3/company/{realm}/query, authenticated with a bearer token obtained from a
// CredentialSource. Entity coverage is limited to what the reporting commands
// need: inventory items, invoices, and sales receipts.
package qbo
