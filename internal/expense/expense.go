// Package expense records expenses, posts their payment vouchers and moves
// them through the open, delivered and approved states.
package expense

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/logger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
	"github.com/cleared-dev/tally/internal/store"
	"github.com/cleared-dev/tally/internal/validate"
	"github.com/cleared-dev/tally/internal/voucher"
)

// ErrInvalidTransition is returned, alongside apperr.ErrValidation, when a
// status change is not exactly one step forward.
var ErrInvalidTransition = errors.New("invalid status transition")

// NewExpense is the payload for Create and Update.
type NewExpense struct {
	Title       string `validate:"required,max=255"`
	Description string
	ExpenseDate time.Time    `validate:"required"`
	CategoryID  int64        `validate:"gt=0"`
	Costs       []model.Cost `validate:"min=1,dive"`
	ReceiptPath string
	CreatedBy   string
	Attachments []model.Attachment
}

// Service provides business logic for expenses.
type Service struct {
	db       *store.Store
	builder  *ledger.Builder
	vouchers *voucher.Service
	log      zerolog.Logger
}

// NewService creates an expense Service.
func NewService(db *store.Store, builder *ledger.Builder, vouchers *voucher.Service) *Service {
	return &Service{db: db, builder: builder, vouchers: vouchers, log: logger.WithComponent("expense")}
}

// Validate checks a payload. All costs must share one currency.
func Validate(in NewExpense) error {
	in.Costs = normalizeCosts(in.Costs)

	var vs validate.Violations
	vs.Struct(in)

	for i, c := range in.Costs {
		if c.Amount.IsNegative() {
			vs.Add(fmt.Sprintf("Costs[%d].Amount", i), "must be >= 0, got %s", c.Amount)
		}
		if !money.HasAtMostPlaces(c.Amount, money.StoredPlaces) {
			vs.Add(fmt.Sprintf("Costs[%d].Amount", i), "at most %d decimal places, got %s", money.StoredPlaces, c.Amount)
		}
		if i > 0 && c.Currency != in.Costs[0].Currency {
			vs.Add(fmt.Sprintf("Costs[%d].Currency", i), "%s differs from %s; one expense is paid in one currency", c.Currency, in.Costs[0].Currency)
		}
	}
	return vs.Err()
}

func normalizeCosts(costs []model.Cost) []model.Cost {
	out := make([]model.Cost, len(costs))
	for i, c := range costs {
		c.Currency = strings.ToUpper(c.Currency)
		out[i] = c
	}
	return out
}

func (s *Service) accountFor(ctx context.Context, categoryID int64) (string, error) {
	cat, err := s.db.FindCategory(ctx, categoryID)
	if err != nil {
		return "", err
	}
	return s.builder.ExpenseAccount(cat.Name), nil
}

// Create stores a new open expense and posts its payment voucher in one
// transaction. It returns the stored expense and the voucher ID.
func (s *Service) Create(ctx context.Context, tenant model.TenantID, in NewExpense) (model.Expense, string, error) {
	if err := Validate(in); err != nil {
		return model.Expense{}, "", err
	}
	account, err := s.accountFor(ctx, in.CategoryID)
	if err != nil {
		return model.Expense{}, "", fmt.Errorf("resolving category: %w", err)
	}
	attachments, err := prepareAttachments(in.Attachments)
	if err != nil {
		return model.Expense{}, "", err
	}

	costs := normalizeCosts(in.Costs)
	exp := model.Expense{
		TenantID:      tenant,
		Title:         in.Title,
		Description:   in.Description,
		ExpenseDate:   in.ExpenseDate,
		CategoryID:    in.CategoryID,
		Status:        model.ExpenseStatusOpen,
		Costs:         costs,
		Amount:        model.SumCosts(costs),
		AccountNumber: account,
		ReceiptPath:   in.ReceiptPath,
		CreatedBy:     in.CreatedBy,
		Attachments:   attachments,
	}

	var voucherID string
	err = s.db.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.CreateExpense(ctx, &exp); err != nil {
			return err
		}
		v := s.builder.BuildExpenseVoucher(exp)
		voucherID, err = s.vouchers.WithStore(tx).Create(ctx, tenant, v)
		if err != nil {
			s.log.Error().Err(err).
				Int64("tenant", int64(tenant)).
				Str("expense", exp.Title).
				Msg("payment voucher rejected, rolling back expense")
			return apperr.Consistency("create expense", fmt.Sprintf("posting voucher for expense %q", exp.Title), err)
		}
		return nil
	})
	if err != nil {
		return model.Expense{}, "", fmt.Errorf("creating expense: %w", err)
	}

	s.log.Info().
		Int64("tenant", int64(tenant)).
		Int64("expense_id", exp.ID).
		Str("account", exp.AccountNumber).
		Str("amount", exp.Amount.String()).
		Str("voucher_id", voucherID).
		Msg("expense created")
	return exp, voucherID, nil
}

// Update replaces an expense's fields and costs and recomputes its amount and
// account. The voucher posted at creation is not touched.
func (s *Service) Update(ctx context.Context, tenant model.TenantID, expenseID int64, in NewExpense) (model.Expense, error) {
	if err := Validate(in); err != nil {
		return model.Expense{}, err
	}
	exp, err := s.db.FindExpense(ctx, tenant, expenseID)
	if err != nil {
		return model.Expense{}, err
	}
	account, err := s.accountFor(ctx, in.CategoryID)
	if err != nil {
		return model.Expense{}, fmt.Errorf("resolving category: %w", err)
	}

	exp.Title = in.Title
	exp.Description = in.Description
	exp.ExpenseDate = in.ExpenseDate
	exp.CategoryID = in.CategoryID
	exp.Costs = normalizeCosts(in.Costs)
	exp.Amount = model.SumCosts(exp.Costs)
	exp.AccountNumber = account
	if in.ReceiptPath != "" {
		exp.ReceiptPath = in.ReceiptPath
	}

	if err := s.db.UpdateExpense(ctx, &exp); err != nil {
		return model.Expense{}, err
	}
	s.log.Info().Int64("tenant", int64(tenant)).Int64("expense_id", exp.ID).Str("amount", exp.Amount.String()).Msg("expense updated")
	return exp, nil
}

// Advance moves an expense exactly one status forward.
func (s *Service) Advance(ctx context.Context, tenant model.TenantID, expenseID int64) (model.Expense, error) {
	var exp model.Expense
	err := s.db.Transaction(ctx, func(tx *store.Store) error {
		var err error
		exp, err = tx.FindExpense(ctx, tenant, expenseID)
		if err != nil {
			return err
		}
		next, ok := exp.Status.Next()
		if !ok {
			return fmt.Errorf("%w: %w", apperr.Validation("status", "expense %d is %s and cannot advance", expenseID, exp.Status), ErrInvalidTransition)
		}
		return s.transition(ctx, tx, &exp, next)
	})
	return exp, err
}

// TransitionTo moves an expense to status to, which must be the single next
// state.
func (s *Service) TransitionTo(ctx context.Context, tenant model.TenantID, expenseID int64, to model.ExpenseStatus) (model.Expense, error) {
	var exp model.Expense
	err := s.db.Transaction(ctx, func(tx *store.Store) error {
		var err error
		exp, err = tx.FindExpense(ctx, tenant, expenseID)
		if err != nil {
			return err
		}
		return s.transition(ctx, tx, &exp, to)
	})
	return exp, err
}

func (s *Service) transition(ctx context.Context, tx *store.Store, exp *model.Expense, to model.ExpenseStatus) error {
	if !exp.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %w", apperr.Validation("status", "expense %d cannot move from %s to %s", exp.ID, exp.Status, to), ErrInvalidTransition)
	}
	if err := tx.UpdateExpenseStatus(ctx, exp.TenantID, exp.ID, to); err != nil {
		return err
	}
	s.log.Info().Int64("tenant", int64(exp.TenantID)).Int64("expense_id", exp.ID).
		Str("from", string(exp.Status)).Str("to", string(to)).Msg("expense status changed")
	exp.Status = to
	return nil
}

// AddAttachments stores documents on an expense. A missing MIME type is
// detected from the content.
func (s *Service) AddAttachments(ctx context.Context, tenant model.TenantID, expenseID int64, atts []model.Attachment) ([]model.Attachment, error) {
	prepared, err := prepareAttachments(atts)
	if err != nil {
		return nil, err
	}
	return s.db.AddAttachments(ctx, tenant, expenseID, prepared)
}

func prepareAttachments(atts []model.Attachment) ([]model.Attachment, error) {
	var vs validate.Violations
	out := make([]model.Attachment, len(atts))
	for i, a := range atts {
		if a.Filename == "" {
			vs.Add(fmt.Sprintf("Attachments[%d].Filename", i), "is required")
		}
		if a.MimeType == "" {
			a.MimeType = mimetype.Detect(a.Data).String()
		}
		out[i] = a
	}
	return out, vs.Err()
}

// Delete removes an expense with its costs and attachments.
func (s *Service) Delete(ctx context.Context, tenant model.TenantID, expenseID int64) error {
	if err := s.db.DeleteExpense(ctx, tenant, expenseID); err != nil {
		return err
	}
	s.log.Info().Int64("tenant", int64(tenant)).Int64("expense_id", expenseID).Msg("expense deleted")
	return nil
}

// Get returns one expense with costs and attachments.
func (s *Service) Get(ctx context.Context, tenant model.TenantID, expenseID int64) (model.Expense, error) {
	return s.db.FindExpense(ctx, tenant, expenseID)
}

// List returns the tenant's expenses matching f.
func (s *Service) List(ctx context.Context, tenant model.TenantID, f store.ExpenseFilter) ([]model.Expense, error) {
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, apperr.Validation("to", "end date %s is before start date %s", f.To.Format(time.DateOnly), f.From.Format(time.DateOnly))
	}
	return s.db.ListExpenses(ctx, tenant, f)
}

// Total returns the sum of all the tenant's expense amounts.
func (s *Service) Total(ctx context.Context, tenant model.TenantID) (decimal.Decimal, error) {
	return s.db.TotalExpenses(ctx, tenant)
}

// Categories returns the active expense categories.
func (s *Service) Categories(ctx context.Context) ([]model.ExpenseCategory, error) {
	return s.db.ListCategories(ctx, true)
}
