package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/model"
)

// FindVatCode returns the VAT code, or nil when it does not exist.
func (s *Store) FindVatCode(ctx context.Context, code string) (*model.VatCode, error) {
	var rec vatCodeRecord
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading vat code %q: %w", code, err)
	}
	vc := rec.toModel()
	return &vc, nil
}

// ListVatCodes returns every VAT code, active or not.
func (s *Store) ListVatCodes(ctx context.Context) ([]model.VatCode, error) {
	var recs []vatCodeRecord
	if err := s.db.WithContext(ctx).Order("code").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("listing vat codes: %w", err)
	}
	codes := make([]model.VatCode, 0, len(recs))
	for _, r := range recs {
		codes = append(codes, r.toModel())
	}
	return codes, nil
}

// SaveVatCode inserts or replaces a VAT code.
func (s *Store) SaveVatCode(ctx context.Context, vc model.VatCode) error {
	rec := vatCodeRecord{Code: vc.Code, Rate: amount{vc.Rate}, Description: vc.Description, Active: vc.Active}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("saving vat code %q: %w", vc.Code, err)
	}
	return nil
}

// SaveCategory inserts a category or updates the one with the same name, and
// returns it with its ID.
func (s *Store) SaveCategory(ctx context.Context, cat model.ExpenseCategory) (model.ExpenseCategory, error) {
	rec := expenseCategoryRecord{Name: cat.Name, Description: cat.Description, Active: cat.Active}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"description", "active"}),
	}).Create(&rec).Error
	if err != nil {
		return model.ExpenseCategory{}, fmt.Errorf("saving category %q: %w", cat.Name, err)
	}

	var saved expenseCategoryRecord
	if err := s.db.WithContext(ctx).Where("name = ?", cat.Name).First(&saved).Error; err != nil {
		return model.ExpenseCategory{}, notFound(err, "expense category", cat.Name)
	}
	return saved.toModel(), nil
}

// FindCategory returns a category by ID.
func (s *Store) FindCategory(ctx context.Context, id int64) (model.ExpenseCategory, error) {
	var rec expenseCategoryRecord
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return model.ExpenseCategory{}, notFound(err, "expense category", id)
	}
	return rec.toModel(), nil
}

// FindCategoryByName returns a category by name.
func (s *Store) FindCategoryByName(ctx context.Context, name string) (model.ExpenseCategory, error) {
	var rec expenseCategoryRecord
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&rec).Error; err != nil {
		return model.ExpenseCategory{}, notFound(err, "expense category", name)
	}
	return rec.toModel(), nil
}

// ListCategories returns categories ordered by name, optionally only the active ones.
func (s *Store) ListCategories(ctx context.Context, activeOnly bool) ([]model.ExpenseCategory, error) {
	q := s.db.WithContext(ctx).Order("name")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var recs []expenseCategoryRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	cats := make([]model.ExpenseCategory, 0, len(recs))
	for _, r := range recs {
		cats = append(cats, r.toModel())
	}
	return cats, nil
}

// CreateCustomer inserts a customer and sets its ID.
func (s *Store) CreateCustomer(ctx context.Context, c *model.Customer) error {
	if c.Name == "" {
		return apperr.Validation("name", "customer name is required")
	}
	rec := customerRecord{TenantID: int64(c.TenantID), Name: c.Name}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("creating customer %q: %w", c.Name, err)
	}
	c.ID = rec.ID
	return nil
}

// FindCustomer returns a tenant's customer by ID.
func (s *Store) FindCustomer(ctx context.Context, tenant model.TenantID, id int64) (model.Customer, error) {
	var rec customerRecord
	if err := s.tenant(ctx, int64(tenant)).First(&rec, id).Error; err != nil {
		return model.Customer{}, notFound(err, "customer", id)
	}
	return model.Customer{ID: rec.ID, TenantID: model.TenantID(rec.TenantID), Name: rec.Name}, nil
}

// CustomerName returns the name of a tenant's customer.
func (s *Store) CustomerName(ctx context.Context, tenant model.TenantID, id int64) (string, error) {
	c, err := s.FindCustomer(ctx, tenant, id)
	if err != nil {
		return "", err
	}
	return c.Name, nil
}

// ListCustomers returns a tenant's customers ordered by name.
func (s *Store) ListCustomers(ctx context.Context, tenant model.TenantID) ([]model.Customer, error) {
	var recs []customerRecord
	if err := s.tenant(ctx, int64(tenant)).Order("name").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	customers := make([]model.Customer, 0, len(recs))
	for _, r := range recs {
		customers = append(customers, model.Customer{ID: r.ID, TenantID: model.TenantID(r.TenantID), Name: r.Name})
	}
	return customers, nil
}
