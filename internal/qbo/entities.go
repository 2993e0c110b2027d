package qbo

// Ref is a QuickBooks entity reference (id plus display name).
type Ref struct {
	Value string `json:"value"`
	Name  string `json:"name"`
}

// Item is a QuickBooks product or service item.
type Item struct {
	ID          string  `json:"Id"`
	Name        string  `json:"Name"`
	Sku         string  `json:"Sku"`
	Description string  `json:"Description"`
	UnitPrice   float64 `json:"UnitPrice"`
	QtyOnHand   float64 `json:"QtyOnHand"`
	Type        string  `json:"Type"`
	Active      bool    `json:"Active"`
}

// Invoice is a QuickBooks invoice, limited to the queried fields.
type Invoice struct {
	ID          string  `json:"Id"`
	DocNumber   string  `json:"DocNumber"`
	TxnDate     string  `json:"TxnDate"`
	TotalAmt    float64 `json:"TotalAmt"`
	CustomerRef Ref     `json:"CustomerRef"`
}

// SalesReceipt is a QuickBooks sales receipt, limited to the queried fields.
type SalesReceipt struct {
	ID                  string  `json:"Id"`
	DocNumber           string  `json:"DocNumber"`
	TxnDate             string  `json:"TxnDate"`
	TotalAmt            float64 `json:"TotalAmt"`
	CustomerRef         Ref     `json:"CustomerRef"`
	PaymentRefNum       string  `json:"PaymentRefNum"`
	DepositToAccountRef Ref     `json:"DepositToAccountRef"`
}

// QueryResponse holds the entity lists of a query result. Only the list
// matching the queried entity is populated.
type QueryResponse struct {
	Items         []Item         `json:"Item"`
	Invoices      []Invoice      `json:"Invoice"`
	SalesReceipts []SalesReceipt `json:"SalesReceipt"`
	StartPosition int            `json:"startPosition"`
	MaxResults    int            `json:"maxResults"`
}
