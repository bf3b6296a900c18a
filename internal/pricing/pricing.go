// Package pricing computes invoice line amounts and invoice totals.
//
// Subtotals and totals are exact. Only the discount and VAT amounts are rounded,
// half-up to two decimals.
package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
)

// VatResolver resolves a VAT code to its rate.
type VatResolver interface {
	Resolve(ctx context.Context, code string) (model.VatCode, error)
}

// CalculateLineAmounts fills in the derived amounts of line. It reads only the
// input fields, so calling it twice gives the same result.
func CalculateLineAmounts(ctx context.Context, line *model.InvoiceLine, resolver VatResolver) error {
	subTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))

	discountAmount := decimal.Zero
	if line.DiscountPercent != nil {
		discountAmount = money.Percent(subTotal, *line.DiscountPercent)
	}
	discounted := subTotal.Sub(discountAmount)

	vc, err := resolver.Resolve(ctx, line.VatCode)
	if err != nil {
		return fmt.Errorf("line %q: %w", line.ItemName, err)
	}
	vatAmount := money.Percent(discounted, vc.Rate)

	line.SubTotal = subTotal
	line.DiscountAmount = discountAmount
	line.VatRate = vc.Rate
	line.VatAmount = vatAmount
	line.TotalAmount = discounted.Add(vatAmount)
	return nil
}

// Totals are the invoice-level sums over priced lines.
type Totals struct {
	SubTotal           decimal.Decimal
	DiscountAmount     decimal.Decimal
	DiscountedSubTotal decimal.Decimal
	VatAmount          decimal.Decimal
	TotalAmount        decimal.Decimal
}

// ComputeTotals sums already priced lines. Nothing is rounded here.
func ComputeTotals(lines []model.InvoiceLine) Totals {
	var t Totals
	for _, l := range lines {
		t.SubTotal = t.SubTotal.Add(l.SubTotal)
		t.DiscountAmount = t.DiscountAmount.Add(l.DiscountAmount)
		t.DiscountedSubTotal = t.DiscountedSubTotal.Add(l.DiscountedSubTotal())
		t.VatAmount = t.VatAmount.Add(l.VatAmount)
		t.TotalAmount = t.TotalAmount.Add(l.TotalAmount)
	}
	return t
}

// ComputeInvoiceTotals prices every line of inv and stores the totals on it.
// The first line that fails to price aborts the calculation.
func ComputeInvoiceTotals(ctx context.Context, inv *model.Invoice, resolver VatResolver) (Totals, error) {
	for i := range inv.Lines {
		if err := CalculateLineAmounts(ctx, &inv.Lines[i], resolver); err != nil {
			return Totals{}, fmt.Errorf("pricing invoice line %d: %w", i+1, err)
		}
	}
	t := ComputeTotals(inv.Lines)
	inv.TotalAmount = t.TotalAmount
	inv.DiscountedSubTotal = t.DiscountedSubTotal
	return t, nil
}
