package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseStatus is the lifecycle state of an expense. Transitions only move forward.
type ExpenseStatus string

const (
	ExpenseStatusOpen      ExpenseStatus = "open"
	ExpenseStatusDelivered ExpenseStatus = "delivered"
	ExpenseStatusApproved  ExpenseStatus = "approved"
)

// Next returns the single forward successor of s. ok is false for the terminal
// state and for unknown values.
func (s ExpenseStatus) Next() (next ExpenseStatus, ok bool) {
	switch s {
	case ExpenseStatusOpen:
		return ExpenseStatusDelivered, true
	case ExpenseStatusDelivered:
		return ExpenseStatusApproved, true
	default:
		return s, false
	}
}

// CanTransitionTo reports whether to is exactly one step forward from s.
func (s ExpenseStatus) CanTransitionTo(to ExpenseStatus) bool {
	next, ok := s.Next()
	return ok && next == to
}

// ParseExpenseStatus parses a status name, case-insensitively.
func ParseExpenseStatus(v string) (ExpenseStatus, error) {
	switch s := ExpenseStatus(strings.ToLower(strings.TrimSpace(v))); s {
	case ExpenseStatusOpen, ExpenseStatusDelivered, ExpenseStatusApproved:
		return s, nil
	}
	return "", fmt.Errorf("unknown expense status %q", v)
}

// PaymentType is how a cost was paid.
type PaymentType string

const (
	PaymentPersonalOutlay PaymentType = "personal-outlay"
	PaymentReimbursement  PaymentType = "reimbursement"
	PaymentCompanyOutlay  PaymentType = "company-outlay"
	PaymentCash           PaymentType = "cash-payment"
	PaymentInvoice        PaymentType = "invoice-payment"
)

// PaymentTypes lists every accepted payment type.
var PaymentTypes = []PaymentType{
	PaymentPersonalOutlay,
	PaymentReimbursement,
	PaymentCompanyOutlay,
	PaymentCash,
	PaymentInvoice,
}

// ParsePaymentType parses a payment type name.
func ParsePaymentType(v string) (PaymentType, error) {
	p := PaymentType(strings.ToLower(strings.TrimSpace(v)))
	for _, known := range PaymentTypes {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown payment type %q", v)
}

// Cost is one expense line.
type Cost struct {
	ID          int64
	Title       string    `validate:"required,max=255"`
	Date        time.Time `validate:"required"`
	Amount      decimal.Decimal
	VatPercent  int         `validate:"gte=0,lte=100"`
	Currency    string      `validate:"required,iso4217"`
	PaymentType PaymentType `validate:"required,oneof=personal-outlay reimbursement company-outlay cash-payment invoice-payment"`
	Chargeable  bool
}

// Attachment is a document stored with an expense.
type Attachment struct {
	ID        int64
	Filename  string
	MimeType  string
	Data      []byte
	CreatedAt time.Time
}

// ExpenseCategory groups expenses and selects the posting account.
type ExpenseCategory struct {
	ID          int64
	Name        string
	Description string
	Active      bool
}

// Expense is a set of costs booked against one category.
type Expense struct {
	ID            int64
	TenantID      TenantID
	Title         string
	Description   string
	ExpenseDate   time.Time
	CategoryID    int64
	Status        ExpenseStatus
	Costs         []Cost
	Amount        decimal.Decimal // sum of cost amounts
	AccountNumber string
	ReceiptPath   string
	CreatedBy     string
	Attachments   []Attachment
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SumCosts returns the sum of cost amounts.
func SumCosts(costs []Cost) decimal.Decimal {
	total := decimal.Zero
	for _, c := range costs {
		total = total.Add(c.Amount)
	}
	return total
}
