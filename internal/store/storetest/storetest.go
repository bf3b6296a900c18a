// Package storetest opens migrated sqlite stores for tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/store"
	"github.com/cleared-dev/tally/internal/vat"
)

// New returns a migrated store backed by a sqlite file in t.TempDir(). The pool
// holds a single connection so concurrent callers queue on sqlite's one writer.
func New(t testing.TB) *store.Store {
	t.Helper()

	s, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "tally.db"), false)
	require.NoError(t, err)

	sqlDB, err := s.DB().DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

// Seeded returns New with the default VAT codes loaded.
func Seeded(t testing.TB) *store.Store {
	t.Helper()

	s := New(t)
	for _, vc := range vat.DefaultCodes() {
		require.NoError(t, s.SaveVatCode(context.Background(), vc))
	}
	return s
}
