package expense_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/expense"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
	"github.com/cleared-dev/tally/internal/store/storetest"
	"github.com/cleared-dev/tally/internal/voucher"
)

const tenant model.TenantID = 1

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, dd int) time.Time {
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	svc        *expense.Service
	vouchers   *voucher.Service
	categories map[string]int64
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := storetest.New(t)
	ctx := context.Background()

	cats := map[string]int64{}
	for _, c := range []model.ExpenseCategory{
		{Name: "Travel", Active: true},
		{Name: "Snacks", Active: true},
		{Name: "Retired", Active: false},
	} {
		saved, err := db.SaveCategory(ctx, c)
		require.NoError(t, err)
		cats[c.Name] = saved.ID
	}

	chart := accounts.NewService(accounts.DefaultChart("limited_company"))
	vouchers := voucher.NewService(db, chart)
	svc := expense.NewService(db, ledger.NewBuilder(chart), vouchers)
	return fixture{svc: svc, vouchers: vouchers, categories: cats}
}

func trip(categoryID int64) expense.NewExpense {
	return expense.NewExpense{
		Title:       "Oslo trip",
		Description: "Customer visit",
		ExpenseDate: day(2026, 5, 2),
		CategoryID:  categoryID,
		CreatedBy:   "kari",
		Costs: []model.Cost{
			{Title: "Train", Date: day(2026, 5, 2), Amount: d("80.00"), VatPercent: 12, Currency: "NOK", PaymentType: model.PaymentCompanyOutlay, Chargeable: true},
			{Title: "Taxi", Date: day(2026, 5, 2), Amount: d("20.00"), Currency: "nok", PaymentType: model.PaymentCash},
		},
	}
}

func TestCreate_PostsBalancedVoucher(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	exp, voucherID, err := f.svc.Create(ctx, tenant, trip(f.categories["Travel"]))
	require.NoError(t, err)
	assert.True(t, d("100.00").Equal(exp.Amount))
	assert.Equal(t, "7140", exp.AccountNumber)
	assert.Equal(t, model.ExpenseStatusOpen, exp.Status)
	assert.Equal(t, "NOK", exp.Costs[1].Currency)

	v, err := f.vouchers.Get(ctx, tenant, voucherID)
	require.NoError(t, err)
	assert.Equal(t, "Expense: Oslo trip", v.Description)
	require.Len(t, v.Postings, 2)
	assert.Equal(t, "7140", v.Postings[0].AccountNumber)
	assert.True(t, d("100").Equal(v.Postings[0].Amount))
	assert.Equal(t, accounts.Bank, v.Postings[1].AccountNumber)
	assert.True(t, d("-100").Equal(v.Postings[1].Amount))
	assert.True(t, v.Sum().IsZero())
}

func TestCreate_UnmappedCategoryUsesFallback(t *testing.T) {
	f := setup(t)
	exp, _, err := f.svc.Create(context.Background(), tenant, trip(f.categories["Snacks"]))
	require.NoError(t, err)
	assert.Equal(t, accounts.FallbackExpense, exp.AccountNumber)
}

func TestCreate_Rejects(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*expense.NewExpense)
		target error
	}{
		{"no costs", func(in *expense.NewExpense) { in.Costs = nil }, apperr.ErrValidation},
		{"no title", func(in *expense.NewExpense) { in.Title = "" }, apperr.ErrValidation},
		{"mixed currency", func(in *expense.NewExpense) { in.Costs[1].Currency = "EUR" }, apperr.ErrValidation},
		{"negative cost", func(in *expense.NewExpense) { in.Costs[0].Amount = d("-1") }, apperr.ErrValidation},
		{"cost past 4 decimals", func(in *expense.NewExpense) { in.Costs[0].Amount = d("12.34567") }, apperr.ErrValidation},
		{"bad payment type", func(in *expense.NewExpense) { in.Costs[0].PaymentType = "barter" }, apperr.ErrValidation},
		{"vat over 100", func(in *expense.NewExpense) { in.Costs[0].VatPercent = 101 }, apperr.ErrValidation},
		{"unnamed attachment", func(in *expense.NewExpense) {
			in.Attachments = []model.Attachment{{Data: []byte("x")}}
		}, apperr.ErrValidation},
		{"unknown category", func(in *expense.NewExpense) { in.CategoryID = 999 }, apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := trip(f.categories["Travel"])
			tt.mutate(&in)
			_, _, err := f.svc.Create(ctx, tenant, in)
			assert.ErrorIs(t, err, tt.target)
		})
	}

	list, err := f.svc.List(ctx, tenant, store.ExpenseFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAdvance(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	exp, _, err := f.svc.Create(ctx, tenant, trip(f.categories["Travel"]))
	require.NoError(t, err)

	exp, err = f.svc.Advance(ctx, tenant, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ExpenseStatusDelivered, exp.Status)

	exp, err = f.svc.Advance(ctx, tenant, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ExpenseStatusApproved, exp.Status)

	_, err = f.svc.Advance(ctx, tenant, exp.ID)
	assert.ErrorIs(t, err, expense.ErrInvalidTransition)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.TransitionTo(ctx, tenant, exp.ID, model.ExpenseStatusOpen)
	assert.ErrorIs(t, err, expense.ErrInvalidTransition)

	got, err := f.svc.Get(ctx, tenant, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ExpenseStatusApproved, got.Status, "rejected transitions change nothing")

	_, err = f.svc.Advance(ctx, 2, exp.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTransitionTo_NoSkipping(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	exp, _, err := f.svc.Create(ctx, tenant, trip(f.categories["Travel"]))
	require.NoError(t, err)

	_, err = f.svc.TransitionTo(ctx, tenant, exp.ID, model.ExpenseStatusApproved)
	assert.ErrorIs(t, err, expense.ErrInvalidTransition)

	exp, err = f.svc.TransitionTo(ctx, tenant, exp.ID, model.ExpenseStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, model.ExpenseStatusDelivered, exp.Status)
}

func TestUpdate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	exp, _, err := f.svc.Create(ctx, tenant, trip(f.categories["Travel"]))
	require.NoError(t, err)

	in := trip(f.categories["Snacks"])
	in.Title = "Snack run"
	in.Costs = in.Costs[1:]
	updated, err := f.svc.Update(ctx, tenant, exp.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Snack run", updated.Title)
	assert.True(t, d("20.00").Equal(updated.Amount))
	assert.Equal(t, accounts.FallbackExpense, updated.AccountNumber)

	got, err := f.svc.Get(ctx, tenant, exp.ID)
	require.NoError(t, err)
	assert.Len(t, got.Costs, 1)
	assert.Equal(t, "Taxi", got.Costs[0].Title)

	vouchers, err := f.vouchers.List(ctx, tenant)
	require.NoError(t, err)
	assert.Len(t, vouchers, 1, "update posts no new voucher")

	_, err = f.svc.Update(ctx, tenant, 999, in)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAttachments(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	in := trip(f.categories["Travel"])
	in.Attachments = []model.Attachment{{Filename: "ticket.pdf", Data: []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")}}
	exp, _, err := f.svc.Create(ctx, tenant, in)
	require.NoError(t, err)
	require.Len(t, exp.Attachments, 1)
	assert.Equal(t, "application/pdf", exp.Attachments[0].MimeType)

	saved, err := f.svc.AddAttachments(ctx, tenant, exp.ID, []model.Attachment{
		{Filename: "note.txt", Data: []byte("taxi receipt lost")},
		{Filename: "scan.bin", MimeType: "image/png", Data: []byte{0x00}},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Contains(t, saved[0].MimeType, "text/plain")
	assert.Equal(t, "image/png", saved[1].MimeType, "given type is kept")

	got, err := f.svc.Get(ctx, tenant, exp.ID)
	require.NoError(t, err)
	assert.Len(t, got.Attachments, 3)

	_, err = f.svc.AddAttachments(ctx, tenant, 999, []model.Attachment{{Filename: "a.txt"}})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListTotalDelete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, _, err := f.svc.Create(ctx, tenant, trip(f.categories["Travel"]))
	require.NoError(t, err)
	later := trip(f.categories["Travel"])
	later.ExpenseDate = day(2026, 6, 20)
	_, _, err = f.svc.Create(ctx, tenant, later)
	require.NoError(t, err)

	from, to := day(2026, 6, 1), day(2026, 6, 30)
	june, err := f.svc.List(ctx, tenant, store.ExpenseFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, june, 1)

	_, err = f.svc.List(ctx, tenant, store.ExpenseFilter{From: &to, To: &from})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	total, err := f.svc.Total(ctx, tenant)
	require.NoError(t, err)
	assert.True(t, d("200.00").Equal(total))

	require.NoError(t, f.svc.Delete(ctx, tenant, first.ID))
	total, err = f.svc.Total(ctx, tenant)
	require.NoError(t, err)
	assert.True(t, d("100.00").Equal(total))
	assert.ErrorIs(t, f.svc.Delete(ctx, tenant, first.ID), apperr.ErrNotFound)

	cats, err := f.svc.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 2, "retired category hidden")
}
