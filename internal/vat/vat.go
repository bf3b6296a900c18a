// Package vat resolves VAT codes to rates.
package vat

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/model"
)

// Lookup finds a VAT code by its identifier. It returns nil, nil when the code
// does not exist.
type Lookup interface {
	FindVatCode(ctx context.Context, code string) (*model.VatCode, error)
}

// Lister is implemented by lookups that can enumerate their codes.
type Lister interface {
	ListVatCodes(ctx context.Context) ([]model.VatCode, error)
}

// Resolver turns VAT codes into active rates.
type Resolver struct {
	lookup Lookup
}

// NewResolver creates a Resolver over lookup.
func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve returns the VAT code, failing with a NotFoundError when the code is
// unknown or inactive.
func (r *Resolver) Resolve(ctx context.Context, code string) (model.VatCode, error) {
	vc, err := r.lookup.FindVatCode(ctx, code)
	if err != nil {
		return model.VatCode{}, fmt.Errorf("looking up vat code %q: %w", code, err)
	}
	if vc == nil || !vc.Active {
		return model.VatCode{}, apperr.NotFound("vat code", code)
	}
	return *vc, nil
}

// List returns every code known to the lookup, ordered by code.
func (r *Resolver) List(ctx context.Context) ([]model.VatCode, error) {
	l, ok := r.lookup.(Lister)
	if !ok {
		return nil, fmt.Errorf("vat lookup %T cannot list codes", r.lookup)
	}
	codes, err := l.ListVatCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing vat codes: %w", err)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i].Code < codes[j].Code })
	return codes, nil
}

// Table is an in-memory Lookup.
type Table map[string]model.VatCode

// NewTable builds a Table from codes.
func NewTable(codes []model.VatCode) Table {
	t := make(Table, len(codes))
	for _, c := range codes {
		t[c.Code] = c
	}
	return t
}

func (t Table) FindVatCode(_ context.Context, code string) (*model.VatCode, error) {
	vc, ok := t[code]
	if !ok {
		return nil, nil
	}
	return &vc, nil
}

func (t Table) ListVatCodes(_ context.Context) ([]model.VatCode, error) {
	codes := make([]model.VatCode, 0, len(t))
	for _, vc := range t {
		codes = append(codes, vc)
	}
	return codes, nil
}

// DefaultCodes returns the standard output VAT codes.
func DefaultCodes() []model.VatCode {
	return []model.VatCode{
		{Code: "3", Rate: decimal.NewFromInt(25), Description: "Output VAT, high rate", Active: true},
		{Code: "31", Rate: decimal.NewFromInt(15), Description: "Output VAT, medium rate", Active: true},
		{Code: "33", Rate: decimal.NewFromInt(12), Description: "Output VAT, low rate", Active: true},
		{Code: "5", Rate: decimal.Zero, Description: "No output VAT, within the VAT act", Active: true},
		{Code: "6", Rate: decimal.Zero, Description: "No output VAT, outside the VAT act", Active: true},
	}
}
