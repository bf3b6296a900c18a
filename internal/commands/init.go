package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/auditlog"
	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/gitops"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

type initOptions struct {
	name       string
	entityType string
	tenant     int64
	currency   string
	driver     string
	dsn        string
	git        bool
}

func newInitCommand(g *globalFlags) *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new books directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := g.repo
			if len(args) > 0 {
				dir = args[0]
			}
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			if err := runInit(cmd.Context(), absDir, g.actor, opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized books for %s (tenant %d) at %s\n", opts.name, opts.tenant, absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&opts.entityType, "entity-type", "limited_company", "entity type")
	cmd.Flags().Int64Var(&opts.tenant, "tenant", 1, "tenant id")
	cmd.Flags().StringVar(&opts.currency, "currency", "NOK", "default currency")
	cmd.Flags().StringVar(&opts.driver, "db-driver", store.DriverSQLite, "database driver (sqlite or postgres)")
	cmd.Flags().StringVar(&opts.dsn, "dsn", "", "database DSN (default tally.db for sqlite)")
	cmd.Flags().BoolVar(&opts.git, "git", false, "commit the books directory after every audited change")

	return cmd
}

func runInit(ctx context.Context, dir, actor string, opts initOptions) error {
	if opts.tenant < 1 {
		return fmt.Errorf("--tenant must be positive, got %d", opts.tenant)
	}
	if _, err := os.Stat(config.Path(dir)); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	for _, d := range []string{"accounts", "logs", "import", filepath.Join("import", "processed")} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default(opts.name, model.TenantID(opts.tenant), opts.currency)
	cfg.Business.EntityType = opts.entityType
	cfg.Database.Driver = opts.driver
	cfg.Git.Enabled = opts.git
	if opts.dsn != "" {
		cfg.Database.DSN = opts.dsn
	} else if opts.driver != store.DriverSQLite {
		return fmt.Errorf("--dsn is required for driver %q", opts.driver)
	}
	if err := config.Save(config.Path(dir), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := accounts.NewService(accounts.DefaultChart(opts.entityType)).Save(dir); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}

	gitignore := "tally.db\ntally.db-*\n.env\nimport/processed/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	db, err := store.Open(cfg.Database.Driver, cfg.DatabaseDSN(dir), cfg.Database.Debug)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return err
	}
	if err := seedReference(ctx, db, cfg); err != nil {
		return err
	}

	err = auditlog.Append(dir, auditlog.Entry{
		Tenant:  cfg.Tenant(),
		Actor:   actor,
		Action:  "init",
		Details: "Initialized books for " + opts.name,
	})
	if err != nil || !opts.git {
		return err
	}

	if err := gitops.Init(ctx, dir); err != nil {
		return err
	}
	_, err = gitops.CommitAll(ctx, dir, "init: Initialize "+opts.name, gitops.Author{Name: actor, Email: cfg.Git.AuthorEmail})
	return err
}

// seedReference stores the configured VAT codes and expense categories.
func seedReference(ctx context.Context, db *store.Store, cfg *config.Config) error {
	codes, err := cfg.VatCodeList()
	if err != nil {
		return err
	}
	for _, vc := range codes {
		if err := db.SaveVatCode(ctx, vc); err != nil {
			return err
		}
	}
	for _, c := range cfg.ExpenseCategories {
		if _, err := db.SaveCategory(ctx, model.ExpenseCategory{Name: c.Name, Description: c.Description, Active: true}); err != nil {
			return err
		}
	}
	return nil
}
