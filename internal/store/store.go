// Package store persists tally data with gorm on sqlite or postgres.
//
// Every tenant-scoped query filters on tenant_id. VAT codes and expense
// categories are shared reference data.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cleared-dev/tally/internal/apperr"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store wraps a gorm handle. Inside Transaction the handle is the open
// transaction.
type Store struct {
	db *gorm.DB
}

// New wraps an existing gorm handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Open connects to the database named by driver and dsn. gorm's own logging is
// silent unless debug is set.
func Open(driver, dsn string, debug bool) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite, "":
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	level := logger.Silent
	if debug {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(level)})
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	return &Store{db: db}, nil
}

// DB returns the underlying gorm handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates or updates every table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(
		&invoiceSequenceRecord{},
		&vatCodeRecord{},
		&customerRecord{},
		&invoiceRecord{},
		&invoiceLineRecord{},
		&expenseCategoryRecord{},
		&expenseRecord{},
		&costRecord{},
		&attachmentRecord{},
		&voucherRecord{},
		&postingRecord{},
	); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// Transaction runs fn in a database transaction. fn receives a Store bound to
// the transaction; returning an error rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) tenant(ctx context.Context, tenant int64) *gorm.DB {
	return s.db.WithContext(ctx).Where("tenant_id = ?", tenant)
}

func notFound(err error, entity string, key any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entity, key)
	}
	return fmt.Errorf("loading %s %v: %w", entity, key, err)
}
