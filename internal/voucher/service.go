// Package voucher validates and stores balanced vouchers.
package voucher

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/logger"
	"github.com/cleared-dev/tally/internal/model"
)

// Persistence stores vouchers. *store.Store implements it.
type Persistence interface {
	SaveVoucher(ctx context.Context, v *model.Voucher) error
	FindVoucher(ctx context.Context, tenant model.TenantID, id string) (model.Voucher, error)
	ListVouchers(ctx context.Context, tenant model.TenantID) ([]model.Voucher, error)
}

// Service provides business logic for vouchers.
type Service struct {
	db       Persistence
	accounts AccountChecker
	log      zerolog.Logger
}

// NewService creates a voucher Service.
func NewService(db Persistence, accounts AccountChecker) *Service {
	return &Service{db: db, accounts: accounts, log: logger.WithComponent("voucher")}
}

// WithStore returns a copy of s that persists through db, typically an open
// transaction.
func (s *Service) WithStore(db Persistence) *Service {
	c := *s
	c.db = db
	return &c
}

// Create validates v, assigns an ID when it has none, stores it for tenant and
// returns the ID.
func (s *Service) Create(ctx context.Context, tenant model.TenantID, v model.Voucher) (string, error) {
	v.TenantID = tenant
	if v.ID == "" {
		v.ID = uuid.NewString()
	}

	if errs := Validate(v, s.accounts); len(errs) > 0 {
		err := errors.Join(errs...)
		if errors.Is(err, apperr.ErrConsistency) {
			s.log.Error().Err(err).Int64("tenant", int64(tenant)).Str("voucher", v.Description).Msg("refusing unbalanced voucher")
		}
		return "", fmt.Errorf("validating voucher: %w", err)
	}

	if err := s.db.SaveVoucher(ctx, &v); err != nil {
		return "", err
	}

	s.log.Info().
		Int64("tenant", int64(tenant)).
		Str("voucher_id", v.ID).
		Str("description", v.Description).
		Str("amount", v.Debits().String()).
		Int("postings", len(v.Postings)).
		Msg("voucher posted")
	return v.ID, nil
}

// Get returns one of tenant's vouchers.
func (s *Service) Get(ctx context.Context, tenant model.TenantID, id string) (model.Voucher, error) {
	return s.db.FindVoucher(ctx, tenant, id)
}

// List returns tenant's vouchers ordered by date.
func (s *Service) List(ctx context.Context, tenant model.TenantID) ([]model.Voucher, error) {
	return s.db.ListVouchers(ctx, tenant)
}

// Export writes every voucher of tenant as CSV.
func (s *Service) Export(ctx context.Context, tenant model.TenantID, w io.Writer) error {
	vouchers, err := s.List(ctx, tenant)
	if err != nil {
		return err
	}
	if err := WriteVouchers(w, vouchers); err != nil {
		return fmt.Errorf("exporting vouchers: %w", err)
	}
	return nil
}
