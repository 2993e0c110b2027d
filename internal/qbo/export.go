package qbo

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteSkuQuantityCSV writes a SKU,QuantityOnHand row for every item with a
// non-empty SKU and returns the number of rows written (header excluded).
func WriteSkuQuantityCSV(w io.Writer, items []Item) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"SKU", "QuantityOnHand"}); err != nil {
		return 0, fmt.Errorf("writing csv header: %w", err)
	}

	rows := 0
	for _, item := range items {
		sku := strings.TrimSpace(item.Sku)
		if sku == "" {
			continue
		}
		qty := strconv.FormatFloat(item.QtyOnHand, 'f', -1, 64)
		if err := cw.Write([]string{sku, qty}); err != nil {
			return rows, fmt.Errorf("writing csv row for sku %s: %w", sku, err)
		}
		rows++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("flushing csv: %w", err)
	}
	return rows, nil
}
