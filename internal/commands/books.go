package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/auditlog"
	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/expense"
	"github.com/cleared-dev/tally/internal/gitops"
	"github.com/cleared-dev/tally/internal/invoice"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/logger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
	"github.com/cleared-dev/tally/internal/vat"
	"github.com/cleared-dev/tally/internal/voucher"
)

// books is an opened books directory with its services wired up.
type books struct {
	root   string
	actor  string
	cfg    *config.Config
	tenant model.TenantID
	db     *store.Store
	vat    *vat.Resolver
	chart  *accounts.Service

	invoices *invoice.Service
	expenses *expense.Service
	vouchers *voucher.Service
}

// openBooks loads tally.yaml and the chart under g.repo, sets up logging and
// connects to the configured database.
func openBooks(ctx context.Context, g *globalFlags) (*books, error) {
	root, err := filepath.Abs(g.repo)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.Load(config.Path(root))
	if err != nil {
		return nil, err
	}
	if err := logger.Setup(cfg.LoggerConfig()); err != nil {
		return nil, err
	}

	chart, err := accounts.Load(root)
	if err != nil {
		return nil, err
	}

	db, err := store.Open(cfg.Database.Driver, cfg.DatabaseDSN(root), cfg.Database.Debug)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	builder := ledger.NewBuilder(chart)
	builder.Accounts = cfg.LedgerAccounts()
	builder.Categories = cfg.CategoryAccounts()
	if cfg.Currency != "" {
		builder.Currency = cfg.Currency
	}

	resolver := vat.NewResolver(db)
	vouchers := voucher.NewService(db, chart)

	return &books{
		root:     root,
		actor:    g.actor,
		cfg:      cfg,
		tenant:   cfg.Tenant(),
		db:       db,
		vat:      resolver,
		chart:    chart,
		invoices: invoice.NewService(db, resolver, db, builder, vouchers),
		expenses: expense.NewService(db, builder, vouchers),
		vouchers: vouchers,
	}, nil
}

func (b *books) Close() error {
	return b.db.Close()
}

// audit appends one entry for the current tenant and actor, then commits the
// books directory when git is enabled.
func (b *books) audit(ctx context.Context, action, details, entityRef, voucherID string) error {
	err := auditlog.Append(b.root, auditlog.Entry{
		Timestamp: time.Now(),
		Tenant:    b.tenant,
		Actor:     b.actor,
		Action:    action,
		Details:   details,
		EntityRef: entityRef,
		VoucherID: voucherID,
	})
	if err != nil || !b.cfg.Git.Enabled || !gitops.IsRepo(b.root) {
		return err
	}

	msg := action + ": " + details
	if _, err := gitops.CommitAll(ctx, b.root, msg, gitops.Author{Name: b.actor, Email: b.cfg.Git.AuthorEmail}); err != nil {
		return fmt.Errorf("committing books: %w", err)
	}
	return nil
}

// withBooks opens the books for the duration of fn.
func withBooks(ctx context.Context, g *globalFlags, fn func(b *books) error) error {
	b, err := openBooks(ctx, g)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(b)
}
