package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/cleared-dev/tally/internal/model"
)

func orderByRow(db *gorm.DB) *gorm.DB {
	return db.Order("row_no")
}

// SaveVoucher inserts a voucher with its postings.
func (s *Store) SaveVoucher(ctx context.Context, v *model.Voucher) error {
	rec := newVoucherRecord(v)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("saving voucher %s: %w", v.ID, err)
	}
	v.CreatedAt = rec.CreatedAt
	return nil
}

// FindVoucher returns a tenant's voucher with postings in row order.
func (s *Store) FindVoucher(ctx context.Context, tenant model.TenantID, id string) (model.Voucher, error) {
	var rec voucherRecord
	err := s.tenant(ctx, int64(tenant)).Preload("Postings", orderByRow).Where("id = ?", id).First(&rec).Error
	if err != nil {
		return model.Voucher{}, notFound(err, "voucher", id)
	}
	return rec.toModel(), nil
}

// ListVouchers returns a tenant's vouchers ordered by date.
func (s *Store) ListVouchers(ctx context.Context, tenant model.TenantID) ([]model.Voucher, error) {
	var recs []voucherRecord
	err := s.tenant(ctx, int64(tenant)).Preload("Postings", orderByRow).Order("date, created_at").Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("listing vouchers: %w", err)
	}
	vouchers := make([]model.Voucher, 0, len(recs))
	for _, r := range recs {
		vouchers = append(vouchers, r.toModel())
	}
	return vouchers, nil
}
