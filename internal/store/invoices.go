package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/model"
)

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

// CreateInvoice inserts an invoice with its lines and sets the generated IDs.
func (s *Store) CreateInvoice(ctx context.Context, inv *model.Invoice) error {
	rec := newInvoiceRecord(inv)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("creating invoice %s: %w", inv.Number, err)
	}
	inv.ID = rec.ID
	inv.CreatedAt = rec.CreatedAt
	for i := range inv.Lines {
		inv.Lines[i].ID = rec.Lines[i].ID
	}
	return nil
}

// FindInvoice returns a tenant's invoice with its lines in order.
func (s *Store) FindInvoice(ctx context.Context, tenant model.TenantID, id int64) (model.Invoice, error) {
	var rec invoiceRecord
	err := s.tenant(ctx, int64(tenant)).Preload("Lines", orderByPosition).First(&rec, id).Error
	if err != nil {
		return model.Invoice{}, notFound(err, "invoice", id)
	}
	return rec.toModel(), nil
}

// FindInvoiceByNumber returns a tenant's invoice by its number, like "2026-3".
func (s *Store) FindInvoiceByNumber(ctx context.Context, tenant model.TenantID, number string) (model.Invoice, error) {
	var rec invoiceRecord
	err := s.tenant(ctx, int64(tenant)).Preload("Lines", orderByPosition).Where("number = ?", number).First(&rec).Error
	if err != nil {
		return model.Invoice{}, notFound(err, "invoice", number)
	}
	return rec.toModel(), nil
}

// ListInvoices returns a tenant's invoices with lines, oldest first.
func (s *Store) ListInvoices(ctx context.Context, tenant model.TenantID) ([]model.Invoice, error) {
	var recs []invoiceRecord
	err := s.tenant(ctx, int64(tenant)).Preload("Lines", orderByPosition).Order("issue_date, id").Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	invoices := make([]model.Invoice, 0, len(recs))
	for _, r := range recs {
		invoices = append(invoices, r.toModel())
	}
	return invoices, nil
}

// DeleteInvoice removes a tenant's invoice and its lines.
func (s *Store) DeleteInvoice(ctx context.Context, tenant model.TenantID, id int64) error {
	return s.Transaction(ctx, func(tx *Store) error {
		res := tx.tenant(ctx, int64(tenant)).Delete(&invoiceRecord{}, id)
		if res.Error != nil {
			return fmt.Errorf("deleting invoice %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("invoice", id)
		}
		if err := tx.db.WithContext(ctx).Where("invoice_id = ?", id).Delete(&invoiceLineRecord{}).Error; err != nil {
			return fmt.Errorf("deleting lines of invoice %d: %w", id, err)
		}
		return nil
	})
}
