package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// ParseInvoiceLines reads invoice lines in the InvoiceLineHeader layout. An
// empty discount_percent means no discount.
func ParseInvoiceLines(r io.Reader) ([]model.InvoiceLine, error) {
	cols, rows, err := readTable(r, strings.Split(InvoiceLineHeader, ","))
	if err != nil {
		return nil, fmt.Errorf("invoice lines: %w", err)
	}

	lines := make([]model.InvoiceLine, 0, len(rows))
	for i, rec := range rows {
		l, err := parseLine(cols, rec)
		if err != nil {
			return nil, fmt.Errorf("invoice lines row %d: %w", i+2, err)
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func parseLine(cols columns, rec []string) (model.InvoiceLine, error) {
	qty, err := strconv.Atoi(cols.get(rec, "quantity"))
	if err != nil {
		return model.InvoiceLine{}, fmt.Errorf("parsing quantity %q: %w", cols.get(rec, "quantity"), err)
	}
	price, err := decimal.NewFromString(cols.get(rec, "unit_price"))
	if err != nil {
		return model.InvoiceLine{}, fmt.Errorf("parsing unit_price %q: %w", cols.get(rec, "unit_price"), err)
	}

	line := model.InvoiceLine{
		ItemName:  cols.get(rec, "item_name"),
		Quantity:  qty,
		UnitPrice: price,
		VatCode:   cols.get(rec, "vat_code"),
	}
	if raw := strings.TrimSuffix(cols.get(rec, "discount_percent"), "%"); raw != "" {
		pct, err := decimal.NewFromString(raw)
		if err != nil {
			return model.InvoiceLine{}, fmt.Errorf("parsing discount_percent %q: %w", raw, err)
		}
		line.DiscountPercent = &pct
	}
	return line, nil
}
