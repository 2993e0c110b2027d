package qbo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// staticCreds satisfies CredentialSource with fixed values.
type staticCreds struct {
	token string
	realm string
}

func (s staticCreds) Token(ctx context.Context) (string, error)   { return s.token, nil }
func (s staticCreds) RealmID(ctx context.Context) (string, error) { return s.realm, nil }

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(staticCreds{token: "AT", realm: "123456789"}, WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestQueryRequestShape(t *testing.T) {
	var gotPath, gotQuery, gotAuth, gotContentType, gotBody string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("minorversion")
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		fmt.Fprint(w, `{"QueryResponse":{}}`)
	})

	if _, err := client.Query(context.Background(), "SELECT Id FROM Item"); err != nil {
		t.Fatalf("Query: %v", err)
	}

	if gotPath != "/v3/company/123456789/query" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != DefaultMinorVersion {
		t.Errorf("minorversion = %q, want %q", gotQuery, DefaultMinorVersion)
	}
	if gotAuth != "Bearer AT" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotContentType != "application/text" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if gotBody != "SELECT Id FROM Item" {
		t.Errorf("body = %q", gotBody)
	}
}

func TestQueryDecodesEntities(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"QueryResponse":{"Item":[
			{"Id":"1","Name":"Widget","Sku":"W-1","UnitPrice":9.5,"QtyOnHand":12,"Type":"Inventory","Active":true},
			{"Id":"2","Name":"Gadget","Sku":"G-2","UnitPrice":19.95,"QtyOnHand":3,"Type":"Inventory","Active":true}
		],"startPosition":1,"maxResults":2}}`)
	})

	items, err := client.ActiveInventoryItems(context.Background())
	if err != nil {
		t.Fatalf("ActiveInventoryItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Name != "Widget" || items[0].QtyOnHand != 12 || items[0].UnitPrice != 9.5 {
		t.Errorf("first item = %+v", items[0])
	}
}

func TestQueryFaultEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"Fault":{"Error":[{"Message":"Invalid query","Detail":"QueryParserError","code":"4000"}],"type":"ValidationFault"}}`)
	})

	_, err := client.Query(context.Background(), "SELEKT nonsense")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Query = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
	if apiErr.Fault == nil || len(apiErr.Fault.Errors) != 1 {
		t.Fatalf("Fault = %+v", apiErr.Fault)
	}
	if got := apiErr.Fault.Errors[0].Code; got != "4000" {
		t.Errorf("fault code = %q", got)
	}
	if !strings.Contains(apiErr.Error(), "4000") {
		t.Errorf("Error() = %q, should name the fault code", apiErr.Error())
	}
}

func TestQueryFaultOn200(t *testing.T) {
	// QuickBooks can return a Fault envelope with a 200 status
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Fault":{"Error":[{"Message":"Object Not Found","code":"610"}],"type":"ValidationFault"}}`)
	})

	_, err := client.Query(context.Background(), "SELECT Id FROM Item")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Query = %v, want *APIError", err)
	}
}

func TestQueryNonJSONErrorBodyPreserved(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream unavailable")
	})

	_, err := client.Query(context.Background(), "SELECT Id FROM Item")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Query = %v, want *APIError", err)
	}
	if string(apiErr.Body) != "upstream unavailable" {
		t.Errorf("Body = %q, want raw payload preserved", apiErr.Body)
	}
}

func TestAllInventoryItemsPaginates(t *testing.T) {
	var starts []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		query := string(body)

		// Record the STARTPOSITION of each page request
		fields := strings.Fields(query)
		for i, f := range fields {
			if f == "STARTPOSITION" && i+1 < len(fields) {
				starts = append(starts, fields[i+1])
			}
		}

		switch len(starts) {
		case 1:
			// Full first page forces a second fetch
			fmt.Fprintf(w, `{"QueryResponse":{"Item":[%s]}}`, fullPage(t, MaxResults))
		default:
			fmt.Fprint(w, `{"QueryResponse":{"Item":[{"Id":"last","Name":"Last","Sku":"L-1","QtyOnHand":1}]}}`)
		}
	})

	items, err := client.AllInventoryItems(context.Background())
	if err != nil {
		t.Fatalf("AllInventoryItems: %v", err)
	}
	if len(items) != MaxResults+1 {
		t.Errorf("got %d items, want %d", len(items), MaxResults+1)
	}
	if len(starts) != 2 || starts[0] != "1" || starts[1] != "1001" {
		t.Errorf("start positions = %v, want [1 1001]", starts)
	}
}

// fullPage builds a JSON array of n minimal items.
func fullPage(t *testing.T, n int) string {
	t.Helper()
	var sb strings.Builder
	for i := range n {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"Id":"%d","Name":"Item %d","Sku":"S-%d","QtyOnHand":1}`, i, i, i)
	}
	return sb.String()
}
