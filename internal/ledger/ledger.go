// Package ledger builds balanced vouchers from invoices and expenses.
//
// The builder never recomputes amounts. It trusts the totals the caller has
// already priced and only decides which accounts the money moves between.
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/model"
)

// Accounts holds the account numbers the builder posts against.
type Accounts struct {
	Receivable      string
	Revenue         string
	OutputVAT       string
	Bank            string
	FallbackExpense string
}

// DefaultAccounts returns the standard account numbers.
func DefaultAccounts() Accounts {
	return Accounts{
		Receivable:      accounts.Receivable,
		Revenue:         accounts.Revenue,
		OutputVAT:       accounts.OutputVAT,
		Bank:            accounts.Bank,
		FallbackExpense: accounts.FallbackExpense,
	}
}

// CategoryAccounts maps expense category names to account numbers.
type CategoryAccounts map[string]string

// DefaultCategoryAccounts returns the standard category mapping.
func DefaultCategoryAccounts() CategoryAccounts {
	return CategoryAccounts{
		"Travel":                "7140",
		"Meals & Entertainment": "7350",
		"Office Supplies":       "6560",
		"Marketing":             "7320",
		"Professional Services": "6720",
		"Utilities":             "6200",
	}
}

// AccountLookup reports whether an account number exists in the chart.
type AccountLookup interface {
	Exists(number string) bool
}

// Builder turns invoices and expenses into vouchers.
type Builder struct {
	Accounts   Accounts
	Categories CategoryAccounts
	Chart      AccountLookup

	// Currency is used for expenses that carry no costs.
	Currency string
}

// NewBuilder creates a Builder with the default accounts and category mapping.
func NewBuilder(chart AccountLookup) *Builder {
	return &Builder{
		Accounts:   DefaultAccounts(),
		Categories: DefaultCategoryAccounts(),
		Chart:      chart,
		Currency:   "NOK",
	}
}

// ExpenseAccount returns the account an expense in category is booked to.
// Unmapped categories, and mappings to accounts missing from the chart, use the
// fallback expense account.
func (b *Builder) ExpenseAccount(category string) string {
	number, ok := b.Categories[category]
	if !ok || number == "" {
		return b.Accounts.FallbackExpense
	}
	if b.Chart != nil && !b.Chart.Exists(number) {
		return b.Accounts.FallbackExpense
	}
	return number
}

// BuildInvoiceVoucher builds the sales voucher for a priced invoice.
//
// Row 0 debits receivable with the total, row 1 credits revenue with the
// discounted subtotal, and every line with a nonzero VAT rate adds an output VAT
// credit tagged with its code.
func (b *Builder) BuildInvoiceVoucher(inv model.Invoice, customerName string) model.Voucher {
	v := newVoucher(inv.TenantID, fmt.Sprintf("Invoice number %s to %s", inv.Number, customerName), inv.IssueDate, inv.CurrencyCode)

	v.add(b.Accounts.Receivable, inv.TotalAmount, v.Description, "")
	v.add(b.Accounts.Revenue, inv.DiscountedSubTotal.Neg(), v.Description, "")
	for _, l := range inv.Lines {
		if l.VatRate.IsZero() {
			continue
		}
		v.add(b.Accounts.OutputVAT, l.VatAmount.Neg(), v.Description, l.VatCode)
	}
	return v.Voucher
}

// BuildExpenseVoucher builds the payment voucher for an expense. Row 0 debits
// the expense account and row 1 credits the bank with the same amount.
func (b *Builder) BuildExpenseVoucher(exp model.Expense) model.Voucher {
	account := exp.AccountNumber
	if account == "" {
		account = b.Accounts.FallbackExpense
	}
	currency := b.Currency
	if len(exp.Costs) > 0 {
		currency = exp.Costs[0].Currency
	}

	v := newVoucher(exp.TenantID, "Expense: "+exp.Title, exp.ExpenseDate, currency)
	desc := exp.Description
	if desc == "" {
		desc = v.Description
	}
	v.add(account, exp.Amount, desc, "")
	v.add(b.Accounts.Bank, exp.Amount.Neg(), "Payment: "+exp.Title, "")
	return v.Voucher
}

type voucherBuilder struct {
	model.Voucher
	currency string
}

func newVoucher(tenant model.TenantID, desc string, date time.Time, currency string) *voucherBuilder {
	return &voucherBuilder{
		Voucher:  model.Voucher{TenantID: tenant, Description: desc, Date: date},
		currency: currency,
	}
}

func (vb *voucherBuilder) add(account string, amount decimal.Decimal, desc, vatCode string) {
	vb.Postings = append(vb.Postings, model.Posting{
		AccountNumber:    account,
		Amount:           amount,
		Currency:         vb.currency,
		OriginalAmount:   amount,
		OriginalCurrency: vb.currency,
		PostingDate:      vb.Date,
		Description:      desc,
		VatCode:          vatCode,
		RowNumber:        len(vb.Postings),
	})
}
