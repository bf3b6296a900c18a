package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
)

// ExpenseFilter narrows ListExpenses. Zero values match everything.
type ExpenseFilter struct {
	From   *time.Time
	To     *time.Time
	Status model.ExpenseStatus
}

// CreateExpense inserts an expense with its costs and attachments and sets the
// generated IDs.
func (s *Store) CreateExpense(ctx context.Context, exp *model.Expense) error {
	rec := newExpenseRecord(exp)
	rec.Costs = newCostRecords(0, exp.Costs)
	for _, a := range exp.Attachments {
		rec.Attachments = append(rec.Attachments, attachmentRecord{Filename: a.Filename, MimeType: a.MimeType, Data: a.Data})
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("creating expense %q: %w", exp.Title, err)
	}
	exp.ID = rec.ID
	exp.CreatedAt = rec.CreatedAt
	exp.UpdatedAt = rec.UpdatedAt
	for i := range exp.Costs {
		exp.Costs[i].ID = rec.Costs[i].ID
	}
	for i := range exp.Attachments {
		exp.Attachments[i].ID = rec.Attachments[i].ID
		exp.Attachments[i].CreatedAt = rec.Attachments[i].CreatedAt
	}
	return nil
}

// UpdateExpense overwrites an expense's fields and replaces its costs.
// Attachments are left alone.
func (s *Store) UpdateExpense(ctx context.Context, exp *model.Expense) error {
	return s.Transaction(ctx, func(tx *Store) error {
		rec := newExpenseRecord(exp)
		rec.UpdatedAt = time.Now()
		res := tx.tenant(ctx, int64(exp.TenantID)).Model(&expenseRecord{ID: exp.ID}).Select(
			"title", "description", "expense_date", "category_id", "amount", "account_number", "receipt_path", "updated_at",
		).Updates(&rec)
		if res.Error != nil {
			return fmt.Errorf("updating expense %d: %w", exp.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("expense", exp.ID)
		}

		if err := tx.db.WithContext(ctx).Where("expense_id = ?", exp.ID).Delete(&costRecord{}).Error; err != nil {
			return fmt.Errorf("clearing costs of expense %d: %w", exp.ID, err)
		}
		costs := newCostRecords(exp.ID, exp.Costs)
		if len(costs) > 0 {
			if err := tx.db.WithContext(ctx).Create(&costs).Error; err != nil {
				return fmt.Errorf("saving costs of expense %d: %w", exp.ID, err)
			}
		}
		for i := range exp.Costs {
			exp.Costs[i].ID = costs[i].ID
		}
		exp.UpdatedAt = rec.UpdatedAt
		return nil
	})
}

// UpdateExpenseStatus sets the status of a tenant's expense.
func (s *Store) UpdateExpenseStatus(ctx context.Context, tenant model.TenantID, id int64, status model.ExpenseStatus) error {
	res := s.tenant(ctx, int64(tenant)).Model(&expenseRecord{ID: id}).Updates(map[string]any{
		"status":     string(status),
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return fmt.Errorf("updating status of expense %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("expense", id)
	}
	return nil
}

// AddAttachments stores attachments on a tenant's expense.
func (s *Store) AddAttachments(ctx context.Context, tenant model.TenantID, expenseID int64, atts []model.Attachment) ([]model.Attachment, error) {
	var count int64
	if err := s.tenant(ctx, int64(tenant)).Model(&expenseRecord{}).Where("id = ?", expenseID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("checking expense %d: %w", expenseID, err)
	}
	if count == 0 {
		return nil, apperr.NotFound("expense", expenseID)
	}
	if len(atts) == 0 {
		return nil, nil
	}

	recs := make([]attachmentRecord, 0, len(atts))
	for _, a := range atts {
		recs = append(recs, attachmentRecord{ExpenseID: expenseID, Filename: a.Filename, MimeType: a.MimeType, Data: a.Data})
	}
	if err := s.db.WithContext(ctx).Create(&recs).Error; err != nil {
		return nil, fmt.Errorf("saving attachments of expense %d: %w", expenseID, err)
	}
	saved := make([]model.Attachment, 0, len(recs))
	for _, r := range recs {
		saved = append(saved, r.toModel())
	}
	return saved, nil
}

// FindExpense returns a tenant's expense with costs and attachments.
func (s *Store) FindExpense(ctx context.Context, tenant model.TenantID, id int64) (model.Expense, error) {
	var rec expenseRecord
	err := s.tenant(ctx, int64(tenant)).
		Preload("Costs", orderByPosition).
		Preload("Attachments").
		First(&rec, id).Error
	if err != nil {
		return model.Expense{}, notFound(err, "expense", id)
	}
	return rec.toModel(), nil
}

// ListExpenses returns a tenant's expenses with costs, ordered by date.
func (s *Store) ListExpenses(ctx context.Context, tenant model.TenantID, f ExpenseFilter) ([]model.Expense, error) {
	q := s.tenant(ctx, int64(tenant)).Preload("Costs", orderByPosition).Order("expense_date, id")
	if f.From != nil {
		q = q.Where("expense_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("expense_date <= ?", *f.To)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}

	var recs []expenseRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	expenses := make([]model.Expense, 0, len(recs))
	for _, r := range recs {
		expenses = append(expenses, r.toModel())
	}
	return expenses, nil
}

// DeleteExpense removes a tenant's expense with its costs and attachments.
func (s *Store) DeleteExpense(ctx context.Context, tenant model.TenantID, id int64) error {
	return s.Transaction(ctx, func(tx *Store) error {
		res := tx.tenant(ctx, int64(tenant)).Delete(&expenseRecord{}, id)
		if res.Error != nil {
			return fmt.Errorf("deleting expense %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("expense", id)
		}
		if err := tx.db.WithContext(ctx).Where("expense_id = ?", id).Delete(&costRecord{}).Error; err != nil {
			return fmt.Errorf("deleting costs of expense %d: %w", id, err)
		}
		if err := tx.db.WithContext(ctx).Where("expense_id = ?", id).Delete(&attachmentRecord{}).Error; err != nil {
			return fmt.Errorf("deleting attachments of expense %d: %w", id, err)
		}
		return nil
	})
}

// TotalExpenses returns the sum of all expense amounts for a tenant.
func (s *Store) TotalExpenses(ctx context.Context, tenant model.TenantID) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	if err := s.tenant(ctx, int64(tenant)).Model(&expenseRecord{}).Pluck("amount", &amounts).Error; err != nil {
		return decimal.Zero, fmt.Errorf("summing expenses: %w", err)
	}
	return money.Sum(amounts...), nil
}
