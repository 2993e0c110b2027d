package qbo

import "fmt"

// Fault is the QuickBooks error envelope.
type Fault struct {
	Errors []FaultError `json:"Error"`
	Type   string       `json:"type"`
}

// FaultError is a single error inside a Fault envelope.
type FaultError struct {
	Code    string `json:"code"`
	Message string `json:"Message"`
	Detail  string `json:"Detail"`
}

// APIError reports a failed query call. Fault carries the provider's error
// envelope when one was parseable; Body always holds the raw response payload.
type APIError struct {
	StatusCode int
	Fault      *Fault
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Fault != nil && len(e.Fault.Errors) > 0 {
		first := e.Fault.Errors[0]
		return fmt.Sprintf("quickbooks query failed (%d): %s: %s", e.StatusCode, first.Code, first.Message)
	}
	return fmt.Sprintf("quickbooks query failed (%d): %s", e.StatusCode, e.Body)
}
