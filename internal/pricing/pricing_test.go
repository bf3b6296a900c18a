package pricing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
	"github.com/cleared-dev/tally/internal/vat"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func pct(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func resolver() *vat.Resolver {
	codes := append(vat.DefaultCodes(), model.VatCode{Code: "25", Rate: d("25"), Active: true})
	return vat.NewResolver(vat.NewTable(codes))
}

func assertDec(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func TestCalculateLineAmounts_DiscountAndVAT(t *testing.T) {
	line := model.InvoiceLine{ItemName: "Widget", Quantity: 3, UnitPrice: d("100.00"), DiscountPercent: pct("10"), VatCode: "3"}
	require.NoError(t, CalculateLineAmounts(context.Background(), &line, resolver()))

	assertDec(t, "300.00", line.SubTotal, "subTotal")
	assertDec(t, "30.00", line.DiscountAmount, "discount")
	assertDec(t, "270.00", line.DiscountedSubTotal(), "discounted")
	assertDec(t, "25", line.VatRate, "rate")
	assertDec(t, "67.50", line.VatAmount, "vat")
	assertDec(t, "337.50", line.TotalAmount, "total")
}

func TestCalculateLineAmounts_TotalNotRounded(t *testing.T) {
	line := model.InvoiceLine{ItemName: "Odd", Quantity: 1, UnitPrice: d("99.995"), VatCode: "31"}
	require.NoError(t, CalculateLineAmounts(context.Background(), &line, resolver()))

	assertDec(t, "99.995", line.SubTotal, "subTotal")
	assertDec(t, "0", line.DiscountAmount, "discount")
	assertDec(t, "15.00", line.VatAmount, "vat")
	assertDec(t, "114.995", line.TotalAmount, "total")
}

func TestCalculateLineAmounts_Cases(t *testing.T) {
	tests := []struct {
		name     string
		line     model.InvoiceLine
		discount string
		vat      string
		total    string
	}{
		{"zero quantity", model.InvoiceLine{Quantity: 0, UnitPrice: d("50"), VatCode: "3"}, "0", "0", "0"},
		{"zero rate", model.InvoiceLine{Quantity: 2, UnitPrice: d("10.50"), VatCode: "5"}, "0", "0", "21.00"},
		{"full discount", model.InvoiceLine{Quantity: 1, UnitPrice: d("80"), DiscountPercent: pct("100"), VatCode: "3"}, "80", "0", "0"},
		{"zero discount", model.InvoiceLine{Quantity: 1, UnitPrice: d("80"), DiscountPercent: pct("0"), VatCode: "3"}, "0", "20", "100"},
		{"half cent rounds up", model.InvoiceLine{Quantity: 1, UnitPrice: d("0.10"), VatCode: "3"}, "0", "0.03", "0.13"},
		{"discount rounds half up", model.InvoiceLine{Quantity: 1, UnitPrice: d("0.05"), DiscountPercent: pct("50"), VatCode: "5"}, "0.03", "0", "0.02"},
		{"low rate", model.InvoiceLine{Quantity: 7, UnitPrice: d("13.37"), VatCode: "33"}, "0", "11.23", "104.82"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := tt.line
			line.ItemName = "x"
			require.NoError(t, CalculateLineAmounts(context.Background(), &line, resolver()))
			assertDec(t, tt.discount, line.DiscountAmount, "discount")
			assertDec(t, tt.vat, line.VatAmount, "vat")
			assertDec(t, tt.total, line.TotalAmount, "total")
		})
	}
}

func TestCalculateLineAmounts_Identity(t *testing.T) {
	prices := []string{"0.01", "1.005", "9.99", "99.995", "123.456", "1000"}
	discounts := []string{"", "0", "3.5", "12.5", "33", "100"}
	codes := []string{"3", "31", "33", "5"}
	for _, p := range prices {
		for _, disc := range discounts {
			for _, code := range codes {
				for qty := 0; qty <= 3; qty++ {
					line := model.InvoiceLine{ItemName: "x", Quantity: qty, UnitPrice: d(p), VatCode: code}
					if disc != "" {
						line.DiscountPercent = pct(disc)
					}
					require.NoError(t, CalculateLineAmounts(context.Background(), &line, resolver()))

					assert.True(t, line.SubTotal.Equal(line.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))))
					assert.True(t, line.TotalAmount.Equal(line.SubTotal.Sub(line.DiscountAmount).Add(line.VatAmount)),
						"identity for %s x %d disc=%s code=%s", p, qty, disc, code)
					assert.True(t, money.HasAtMostPlaces(line.DiscountAmount, 2))
					assert.True(t, money.HasAtMostPlaces(line.VatAmount, 2))
				}
			}
		}
	}
}

func TestCalculateLineAmounts_Idempotent(t *testing.T) {
	line := model.InvoiceLine{ItemName: "Widget", Quantity: 3, UnitPrice: d("19.99"), DiscountPercent: pct("7.5"), VatCode: "31"}
	require.NoError(t, CalculateLineAmounts(context.Background(), &line, resolver()))
	first := line
	require.NoError(t, CalculateLineAmounts(context.Background(), &line, resolver()))
	assert.Equal(t, first, line)
}

func TestCalculateLineAmounts_UnknownVat(t *testing.T) {
	line := model.InvoiceLine{ItemName: "Widget", Quantity: 1, UnitPrice: d("10"), VatCode: "XX"}
	err := CalculateLineAmounts(context.Background(), &line, resolver())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.True(t, line.TotalAmount.IsZero(), "line left untouched on failure")
}

func TestComputeInvoiceTotals(t *testing.T) {
	inv := model.Invoice{Lines: []model.InvoiceLine{
		{ItemName: "Widget", Quantity: 3, UnitPrice: d("100.00"), DiscountPercent: pct("10"), VatCode: "3"},
		{ItemName: "Odd", Quantity: 1, UnitPrice: d("99.995"), VatCode: "31"},
		{ItemName: "Exempt", Quantity: 2, UnitPrice: d("5"), VatCode: "6"},
	}}
	totals, err := ComputeInvoiceTotals(context.Background(), &inv, resolver())
	require.NoError(t, err)

	assertDec(t, "409.995", totals.SubTotal, "subTotal")
	assertDec(t, "30.00", totals.DiscountAmount, "discount")
	assertDec(t, "379.995", totals.DiscountedSubTotal, "discounted")
	assertDec(t, "82.50", totals.VatAmount, "vat")
	assertDec(t, "462.495", totals.TotalAmount, "total")
	assert.True(t, totals.TotalAmount.Equal(inv.TotalAmount))
	assert.True(t, totals.DiscountedSubTotal.Equal(inv.DiscountedSubTotal))
}

func TestComputeInvoiceTotals_AbortsOnUnknownVat(t *testing.T) {
	inv := model.Invoice{Lines: []model.InvoiceLine{
		{ItemName: "Widget", Quantity: 1, UnitPrice: d("10"), VatCode: "3"},
		{ItemName: "Bad", Quantity: 1, UnitPrice: d("10"), VatCode: "XX"},
	}}
	_, err := ComputeInvoiceTotals(context.Background(), &inv, resolver())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorContains(t, err, "line 2")
	assert.True(t, inv.TotalAmount.IsZero())
}

func TestComputeTotals_Empty(t *testing.T) {
	totals := ComputeTotals(nil)
	assert.True(t, totals.TotalAmount.IsZero())
	assert.True(t, totals.DiscountedSubTotal.IsZero())
}
