package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Posting is a single signed ledger row. Positive amounts are debits, negative
// amounts are credits.
type Posting struct {
	AccountNumber    string
	Amount           decimal.Decimal
	Currency         string
	OriginalAmount   decimal.Decimal
	OriginalCurrency string
	PostingDate      time.Time
	Description      string
	VatCode          string // empty when not a VAT posting
	RowNumber        int
}

// IsDebit reports whether p is on the debit side.
func (p Posting) IsDebit() bool { return p.Amount.IsPositive() }

// Voucher is a balanced set of postings for one business transaction.
type Voucher struct {
	ID          string
	TenantID    TenantID
	Description string
	Date        time.Time
	Postings    []Posting
	CreatedAt   time.Time
}

// Sum returns the signed sum of all posting amounts.
func (v Voucher) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, p := range v.Postings {
		total = total.Add(p.Amount)
	}
	return total
}

// Debits returns the sum of positive amounts.
func (v Voucher) Debits() decimal.Decimal {
	total := decimal.Zero
	for _, p := range v.Postings {
		if p.Amount.IsPositive() {
			total = total.Add(p.Amount)
		}
	}
	return total
}
