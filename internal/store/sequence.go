package store

import (
	"context"
	"fmt"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/model"
)

const nextSequenceSQL = `INSERT INTO invoice_sequences (tenant_id, year, last_value) VALUES (?, ?, 1)
ON CONFLICT (tenant_id, year) DO UPDATE SET last_value = invoice_sequences.last_value + 1
RETURNING last_value`

// NextInvoiceSequence atomically increments and returns the invoice counter for
// tenant and year. The first call for a year returns 1. Inside a transaction the
// increment is rolled back with everything else.
func (s *Store) NextInvoiceSequence(ctx context.Context, tenant model.TenantID, year int) (int64, error) {
	var next int64
	res := s.db.WithContext(ctx).Raw(nextSequenceSQL, int64(tenant), year).Scan(&next)
	if res.Error != nil {
		return 0, fmt.Errorf("incrementing invoice sequence %d/%d: %w", tenant, year, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("incrementing invoice sequence %d/%d: %w", tenant, year, apperr.ErrConcurrency)
	}
	return next, nil
}
