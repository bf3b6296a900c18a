package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpenseStatusNext(t *testing.T) {
	tests := []struct {
		from   ExpenseStatus
		want   ExpenseStatus
		wantOK bool
	}{
		{ExpenseStatusOpen, ExpenseStatusDelivered, true},
		{ExpenseStatusDelivered, ExpenseStatusApproved, true},
		{ExpenseStatusApproved, ExpenseStatusApproved, false},
		{ExpenseStatus("bogus"), ExpenseStatus("bogus"), false},
	}
	for _, tt := range tests {
		got, ok := tt.from.Next()
		assert.Equal(t, tt.want, got, "Next(%s)", tt.from)
		assert.Equal(t, tt.wantOK, ok, "Next(%s) ok", tt.from)
	}
}

func TestExpenseStatusCanTransitionTo(t *testing.T) {
	assert.True(t, ExpenseStatusOpen.CanTransitionTo(ExpenseStatusDelivered))
	assert.False(t, ExpenseStatusOpen.CanTransitionTo(ExpenseStatusApproved), "no skipping")
	assert.False(t, ExpenseStatusApproved.CanTransitionTo(ExpenseStatusOpen), "no going back")
	assert.False(t, ExpenseStatusDelivered.CanTransitionTo(ExpenseStatusOpen))
}

func TestParseExpenseStatus(t *testing.T) {
	s, err := ParseExpenseStatus(" Delivered ")
	require.NoError(t, err)
	assert.Equal(t, ExpenseStatusDelivered, s)

	_, err = ParseExpenseStatus("rejected")
	assert.Error(t, err)
}

func TestParsePaymentType(t *testing.T) {
	for _, p := range PaymentTypes {
		got, err := ParsePaymentType(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePaymentType("crypto")
	assert.Error(t, err)
}

func TestVoucherSums(t *testing.T) {
	v := Voucher{Postings: []Posting{
		{Amount: decimal.RequireFromString("337.50")},
		{Amount: decimal.RequireFromString("-270.00")},
		{Amount: decimal.RequireFromString("-67.50")},
	}}
	assert.True(t, v.Sum().IsZero())
	assert.True(t, decimal.RequireFromString("337.50").Equal(v.Debits()))
	assert.True(t, v.Postings[0].IsDebit())
	assert.False(t, v.Postings[1].IsDebit())
}

func TestInvoiceLineDiscountedSubTotal(t *testing.T) {
	l := InvoiceLine{SubTotal: decimal.NewFromInt(300), DiscountAmount: decimal.NewFromInt(30)}
	assert.True(t, decimal.NewFromInt(270).Equal(l.DiscountedSubTotal()))
}

func TestSumCosts(t *testing.T) {
	costs := []Cost{
		{Amount: decimal.RequireFromString("80.00")},
		{Amount: decimal.RequireFromString("20.00")},
	}
	assert.True(t, decimal.RequireFromString("100.00").Equal(SumCosts(costs)))
	assert.True(t, SumCosts(nil).IsZero())
}
