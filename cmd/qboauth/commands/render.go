package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/qbotools/qboauth/internal/qbo"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	return t
}

func renderItems(items []qbo.Item) {
	t := newTable()
	t.AppendHeader(table.Row{"ID", "Name", "SKU", "Qty on hand", "Unit price", "Description"})
	for _, item := range items {
		t.AppendRow(table.Row{
			item.ID,
			item.Name,
			item.Sku,
			item.QtyOnHand,
			fmt.Sprintf("$%.2f", item.UnitPrice),
			item.Description,
		})
	}
	t.Render()
}

func renderInvoices(invoices []qbo.Invoice) {
	t := newTable()
	t.AppendHeader(table.Row{"ID", "Doc number", "Date", "Customer", "Total"})
	for _, inv := range invoices {
		t.AppendRow(table.Row{
			inv.ID,
			inv.DocNumber,
			inv.TxnDate,
			inv.CustomerRef.Name,
			fmt.Sprintf("$%.2f", inv.TotalAmt),
		})
	}
	t.Render()
}

func renderSalesReceipts(receipts []qbo.SalesReceipt) {
	t := newTable()
	t.AppendHeader(table.Row{"ID", "Doc number", "Date", "Customer", "Total", "Payment ref", "Deposited to"})
	for _, sr := range receipts {
		deposit := sr.DepositToAccountRef.Name
		if deposit == "" {
			deposit = "Undeposited Funds"
		}
		t.AppendRow(table.Row{
			sr.ID,
			sr.DocNumber,
			sr.TxnDate,
			sr.CustomerRef.Name,
			fmt.Sprintf("$%.2f", sr.TotalAmt),
			sr.PaymentRefNum,
			deposit,
		})
	}
	t.Render()
}
