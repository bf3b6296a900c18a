// Package invoice creates, prices and posts customer invoices.
package invoice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/logger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
	"github.com/cleared-dev/tally/internal/pricing"
	"github.com/cleared-dev/tally/internal/store"
	"github.com/cleared-dev/tally/internal/validate"
	"github.com/cleared-dev/tally/internal/voucher"
)

// CustomerLookup resolves the name printed on the sales voucher.
type CustomerLookup interface {
	CustomerName(ctx context.Context, tenant model.TenantID, id int64) (string, error)
}

// NewInvoice is the payload for Create.
type NewInvoice struct {
	IssueDate    time.Time `validate:"required"`
	DueDate      *time.Time
	CurrencyCode string              `validate:"required,iso4217"`
	CustomerID   int64               `validate:"gt=0"`
	Lines        []model.InvoiceLine `validate:"min=1,dive"`
}

// Service provides business logic for invoices.
type Service struct {
	db        *store.Store
	vat       pricing.VatResolver
	customers CustomerLookup
	builder   *ledger.Builder
	vouchers  *voucher.Service
	log       zerolog.Logger
}

// NewService creates an invoice Service.
func NewService(db *store.Store, vat pricing.VatResolver, customers CustomerLookup, builder *ledger.Builder, vouchers *voucher.Service) *Service {
	return &Service{
		db:        db,
		vat:       vat,
		customers: customers,
		builder:   builder,
		vouchers:  vouchers,
		log:       logger.WithComponent("invoice"),
	}
}

// Validate checks a payload before anything is priced or written.
func Validate(in NewInvoice) error {
	in.CurrencyCode = strings.ToUpper(in.CurrencyCode)

	var vs validate.Violations
	vs.Struct(in)

	if in.DueDate != nil && in.DueDate.Before(in.IssueDate) {
		vs.Add("DueDate", "due date %s is before issue date %s", in.DueDate.Format(time.DateOnly), in.IssueDate.Format(time.DateOnly))
	}
	hundred := decimal.NewFromInt(100)
	for i, l := range in.Lines {
		if l.UnitPrice.IsNegative() {
			vs.Add(fmt.Sprintf("Lines[%d].UnitPrice", i), "must be >= 0, got %s", l.UnitPrice)
		}
		if !money.HasAtMostPlaces(l.UnitPrice, money.StoredPlaces) {
			vs.Add(fmt.Sprintf("Lines[%d].UnitPrice", i), "at most %d decimal places, got %s", money.StoredPlaces, l.UnitPrice)
		}
		if l.DiscountPercent == nil {
			continue
		}
		if l.DiscountPercent.IsNegative() || l.DiscountPercent.GreaterThan(hundred) {
			vs.Add(fmt.Sprintf("Lines[%d].DiscountPercent", i), "must be between 0 and 100, got %s", *l.DiscountPercent)
		}
		if !money.HasAtMostPlaces(*l.DiscountPercent, money.StoredPlaces) {
			vs.Add(fmt.Sprintf("Lines[%d].DiscountPercent", i), "at most %d decimal places, got %s", money.StoredPlaces, *l.DiscountPercent)
		}
	}
	return vs.Err()
}

// Create validates and prices in, then in a single transaction takes the next
// invoice number, stores the invoice and posts its sales voucher. Nothing is
// written when any step fails, including the number increment.
func (s *Service) Create(ctx context.Context, tenant model.TenantID, in NewInvoice) (model.Invoice, string, error) {
	if err := Validate(in); err != nil {
		return model.Invoice{}, "", err
	}

	inv := model.Invoice{
		TenantID:     tenant,
		IssueDate:    in.IssueDate,
		DueDate:      in.DueDate,
		CurrencyCode: strings.ToUpper(in.CurrencyCode),
		CustomerID:   in.CustomerID,
		Lines:        append([]model.InvoiceLine(nil), in.Lines...),
	}

	customer, err := s.customers.CustomerName(ctx, tenant, in.CustomerID)
	if err != nil {
		return model.Invoice{}, "", fmt.Errorf("resolving customer: %w", err)
	}
	if _, err := pricing.ComputeInvoiceTotals(ctx, &inv, s.vat); err != nil {
		return model.Invoice{}, "", err
	}

	var voucherID string
	err = s.db.Transaction(ctx, func(tx *store.Store) error {
		year := inv.IssueDate.Year()
		seq, err := tx.NextInvoiceSequence(ctx, tenant, year)
		if err != nil {
			return err
		}
		inv.Number = id.FormatInvoiceNumber(year, seq)

		if err := tx.CreateInvoice(ctx, &inv); err != nil {
			return err
		}

		v := s.builder.BuildInvoiceVoucher(inv, customer)
		voucherID, err = s.vouchers.WithStore(tx).Create(ctx, tenant, v)
		if err != nil {
			s.log.Error().Err(err).
				Int64("tenant", int64(tenant)).
				Str("invoice", inv.Number).
				Msg("sales voucher rejected, rolling back invoice")
			return apperr.Consistency("create invoice", "posting voucher for invoice "+inv.Number, err)
		}
		return nil
	})
	if err != nil {
		return model.Invoice{}, "", fmt.Errorf("creating invoice: %w", err)
	}

	s.log.Info().
		Int64("tenant", int64(tenant)).
		Str("invoice", inv.Number).
		Str("total", inv.TotalAmount.String()).
		Str("voucher_id", voucherID).
		Msg("invoice created")
	return inv, voucherID, nil
}

// Get returns one of tenant's invoices with amounts recomputed.
func (s *Service) Get(ctx context.Context, tenant model.TenantID, invoiceID int64) (model.Invoice, error) {
	inv, err := s.db.FindInvoice(ctx, tenant, invoiceID)
	if err != nil {
		return model.Invoice{}, err
	}
	if _, err := pricing.ComputeInvoiceTotals(ctx, &inv, s.vat); err != nil {
		return model.Invoice{}, err
	}
	return inv, nil
}

// List returns tenant's invoices with amounts recomputed.
func (s *Service) List(ctx context.Context, tenant model.TenantID) ([]model.Invoice, error) {
	invoices, err := s.db.ListInvoices(ctx, tenant)
	if err != nil {
		return nil, err
	}
	for i := range invoices {
		if _, err := pricing.ComputeInvoiceTotals(ctx, &invoices[i], s.vat); err != nil {
			return nil, fmt.Errorf("invoice %s: %w", invoices[i].Number, err)
		}
	}
	return invoices, nil
}

// Delete removes one of tenant's invoices. Its posted voucher stays in the ledger.
func (s *Service) Delete(ctx context.Context, tenant model.TenantID, invoiceID int64) error {
	if err := s.db.DeleteInvoice(ctx, tenant, invoiceID); err != nil {
		return err
	}
	s.log.Info().Int64("tenant", int64(tenant)).Int64("invoice_id", invoiceID).Msg("invoice deleted")
	return nil
}
