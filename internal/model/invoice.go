package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TenantID identifies an isolated customer organization. It is passed explicitly
// on every call and never changes after a row is created.
type TenantID int64

// VatCode is a row of the VAT code table. Rate is a percentage: 25 means 25%.
type VatCode struct {
	Code        string
	Rate        decimal.Decimal
	Description string
	Active      bool
}

// Customer is the billing party of an invoice.
type Customer struct {
	ID       int64
	TenantID TenantID
	Name     string
}

// InvoiceLine is one priced row of an invoice. The derived fields are filled in
// by pricing.CalculateLineAmounts and are never persisted.
type InvoiceLine struct {
	ID              int64
	ItemName        string `validate:"required,max=25"`
	Quantity        int    `validate:"gte=0"`
	UnitPrice       decimal.Decimal
	DiscountPercent *decimal.Decimal // nil = no discount
	VatCode         string           `validate:"required,max=10"`

	SubTotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	VatRate        decimal.Decimal
	VatAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
}

// DiscountedSubTotal returns SubTotal - DiscountAmount.
func (l InvoiceLine) DiscountedSubTotal() decimal.Decimal {
	return l.SubTotal.Sub(l.DiscountAmount)
}

// Invoice is a customer invoice with its ordered lines.
type Invoice struct {
	ID           int64
	TenantID     TenantID
	Number       string // "{year}-{sequence}"
	IssueDate    time.Time
	DueDate      *time.Time
	CurrencyCode string
	CustomerID   int64
	Lines        []InvoiceLine

	// Derived on every read; see pricing.ComputeInvoiceTotals.
	TotalAmount        decimal.Decimal
	DiscountedSubTotal decimal.Decimal
	CreatedAt          time.Time
}
