package qbo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// SandboxBaseURL is the QuickBooks Online sandbox API host.
	SandboxBaseURL = "https://sandbox-quickbooks.api.intuit.com"

	// ProductionBaseURL is the QuickBooks Online production API host.
	ProductionBaseURL = "https://quickbooks.api.intuit.com"

	// DefaultMinorVersion is the recommended API minor version.
	DefaultMinorVersion = "73"

	// MaxResults is the per-page result cap QuickBooks allows.
	MaxResults = 1000

	defaultHTTPTimeout = 30 * time.Second
)

// CredentialSource supplies a valid bearer token and the company identifier on
// demand. The token lifecycle manager satisfies this.
type CredentialSource interface {
	Token(ctx context.Context) (string, error)
	RealmID(ctx context.Context) (string, error)
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API host (sandbox, production, or a test stub).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithMinorVersion overrides the API minor version.
func WithMinorVersion(v string) Option {
	return func(c *Client) {
		c.minorVersion = v
	}
}

// WithHTTPClient sets a custom HTTP client for query requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// Client issues query calls against one QuickBooks company.
type Client struct {
	creds        CredentialSource
	baseURL      string
	minorVersion string
	httpClient   *http.Client
}

// New creates a Client over the given credential source, defaulting to the
// sandbox host.
func New(creds CredentialSource, opts ...Option) (*Client, error) {
	if creds == nil {
		return nil, fmt.Errorf("missing credential source")
	}

	c := &Client{
		creds:        creds,
		baseURL:      SandboxBaseURL,
		minorVersion: DefaultMinorVersion,
		httpClient:   &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Query POSTs a plain-text query and returns the decoded response. A non-200
// status or a Fault envelope yields an *APIError preserving the provider's
// error payload.
func (c *Client) Query(ctx context.Context, query string) (*QueryResponse, error) {
	token, err := c.creds.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("obtaining access token: %w", err)
	}
	realmID, err := c.creds.RealmID(ctx)
	if err != nil {
		return nil, fmt.Errorf("obtaining realm id: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v3/company/%s/query?minorversion=%s",
		c.baseURL, url.PathEscape(realmID), url.QueryEscape(c.minorVersion))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(query))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	// QuickBooks requires this exact content type for query bodies
	req.Header.Set("Content-Type", "application/text")

	slog.DebugContext(ctx, "querying quickbooks", "realm_id", realmID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying quickbooks: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading query response: %w", err)
	}

	var envelope struct {
		QueryResponse *QueryResponse `json:"QueryResponse"`
		Fault         *Fault         `json:"Fault"`
	}
	// Decode errors are ignored on failure statuses; the raw body still
	// reaches the caller inside APIError
	decodeErr := json.Unmarshal(body, &envelope)

	if resp.StatusCode != http.StatusOK || envelope.Fault != nil {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Fault:      envelope.Fault,
			Body:       body,
		}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decoding query response: %w", decodeErr)
	}
	if envelope.QueryResponse == nil {
		return &QueryResponse{}, nil
	}
	return envelope.QueryResponse, nil
}

// ActiveInventoryItems returns active inventory items with key fields
// populated, capped at one page.
func (c *Client) ActiveInventoryItems(ctx context.Context) ([]Item, error) {
	// SELECT * often returns sparse results; list the fields explicitly
	query := fmt.Sprintf(`SELECT Id, Name, Sku, Description, UnitPrice, QtyOnHand, Type, Active FROM Item WHERE Type = 'Inventory' AND Active = true ORDERBY Name ASC MAXRESULTS %d`, MaxResults)
	resp, err := c.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// AllInventoryItems returns every active inventory item, stepping
// STARTPOSITION until a short page signals the end.
func (c *Client) AllInventoryItems(ctx context.Context) ([]Item, error) {
	var all []Item
	for start := 1; ; start += MaxResults {
		query := fmt.Sprintf(`SELECT * FROM Item WHERE Type = 'Inventory' AND Active = true ORDERBY Name ASC STARTPOSITION %d MAXRESULTS %d`, start, MaxResults)
		resp, err := c.Query(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("fetching inventory page starting at %d: %w", start, err)
		}
		all = append(all, resp.Items...)
		if len(resp.Items) < MaxResults {
			return all, nil
		}
	}
}

// RecentInvoices returns invoices ordered by transaction date, newest first.
func (c *Client) RecentInvoices(ctx context.Context) ([]Invoice, error) {
	query := fmt.Sprintf(`SELECT Id, DocNumber, TxnDate, TotalAmt, CustomerRef FROM Invoice ORDERBY TxnDate DESC MAXRESULTS %d`, MaxResults)
	resp, err := c.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return resp.Invoices, nil
}

// RecentSalesReceipts returns sales receipts ordered by transaction date,
// newest first.
func (c *Client) RecentSalesReceipts(ctx context.Context) ([]SalesReceipt, error) {
	query := fmt.Sprintf(`SELECT Id, DocNumber, TxnDate, TotalAmt, CustomerRef, PaymentRefNum, DepositToAccountRef FROM SalesReceipt ORDERBY TxnDate DESC STARTPOSITION 1 MAXRESULTS %d`, MaxResults)
	resp, err := c.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return resp.SalesReceipts, nil
}
