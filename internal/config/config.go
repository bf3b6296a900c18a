package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/logger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
	"github.com/cleared-dev/tally/internal/store"
	"github.com/cleared-dev/tally/internal/vat"
)

// FileName is the configuration file at the root of a books directory.
const FileName = "tally.yaml"

// Environment overrides, also read from a .env file next to tally.yaml.
const (
	EnvDatabaseDSN    = "TALLY_DATABASE_DSN"
	EnvDatabaseDriver = "TALLY_DATABASE_DRIVER"
	EnvLogLevel       = "TALLY_LOG_LEVEL"
)

// Config represents the top-level tally.yaml configuration.
type Config struct {
	Business          BusinessConfig   `yaml:"business"`
	Currency          string           `yaml:"currency"`
	Database          DatabaseConfig   `yaml:"database"`
	Accounts          AccountsConfig   `yaml:"accounts"`
	ExpenseCategories []CategoryConfig `yaml:"expense_categories"`
	VatCodes          []VatCodeConfig  `yaml:"vat_codes"`
	Log               LogConfig        `yaml:"log"`
	Git               GitConfig        `yaml:"git"`
}

// BusinessConfig identifies the business entity and its tenant.
type BusinessConfig struct {
	Name       string `yaml:"name"`
	EntityType string `yaml:"entity_type"`
	TenantID   int64  `yaml:"tenant_id"`
}

// DatabaseConfig selects the store backend. A relative sqlite DSN is resolved
// against the books directory.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Debug  bool   `yaml:"debug,omitempty"`
}

// AccountsConfig names the accounts vouchers are posted against.
type AccountsConfig struct {
	Receivable      string `yaml:"receivable"`
	Revenue         string `yaml:"revenue"`
	OutputVAT       string `yaml:"output_vat"`
	Bank            string `yaml:"bank"`
	FallbackExpense string `yaml:"fallback_expense"`
}

// CategoryConfig maps an expense category to its account.
type CategoryConfig struct {
	Name        string `yaml:"name"`
	Account     string `yaml:"account"`
	Description string `yaml:"description,omitempty"`
}

// VatCodeConfig is one row of the VAT table. Rate is a percentage string.
type VatCodeConfig struct {
	Code        string `yaml:"code"`
	Rate        string `yaml:"rate"`
	Description string `yaml:"description"`
	Active      bool   `yaml:"active"`
}

// LogConfig controls the zerolog setup.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output,omitempty"`
}

// GitConfig controls committing the books directory after each audited change.
type GitConfig struct {
	Enabled     bool   `yaml:"enabled"`
	AuthorEmail string `yaml:"author_email"`
}

// Path returns the tally.yaml location in a books directory.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, FileName)
}

// Load reads a tally.yaml file from disk, then applies any .env file in the same
// directory and the TALLY_* environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	envFile := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}
	cfg.ApplyEnv()
	return &cfg, nil
}

// ApplyEnv overlays the TALLY_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvDatabaseDSN); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(EnvDatabaseDriver); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new set of books.
func Default(businessName string, tenant model.TenantID, currency string) *Config {
	accts := ledger.DefaultAccounts()
	cfg := &Config{
		Business: BusinessConfig{
			Name:       businessName,
			EntityType: "limited_company",
			TenantID:   int64(tenant),
		},
		Currency: currency,
		Database: DatabaseConfig{
			Driver: store.DriverSQLite,
			DSN:    "tally.db",
		},
		Accounts: AccountsConfig{
			Receivable:      accts.Receivable,
			Revenue:         accts.Revenue,
			OutputVAT:       accts.OutputVAT,
			Bank:            accts.Bank,
			FallbackExpense: accts.FallbackExpense,
		},
		Log: LogConfig{Level: "warn", Format: "console"},
		Git: GitConfig{AuthorEmail: "books@tally.local"},
	}

	for _, name := range []string{"Travel", "Meals & Entertainment", "Office Supplies", "Marketing", "Professional Services", "Utilities"} {
		cfg.ExpenseCategories = append(cfg.ExpenseCategories, CategoryConfig{Name: name, Account: ledger.DefaultCategoryAccounts()[name]})
	}
	for _, vc := range vat.DefaultCodes() {
		cfg.VatCodes = append(cfg.VatCodes, VatCodeConfig{
			Code:        vc.Code,
			Rate:        vc.Rate.String(),
			Description: vc.Description,
			Active:      vc.Active,
		})
	}
	return cfg
}

// Tenant returns the configured tenant.
func (c *Config) Tenant() model.TenantID {
	return model.TenantID(c.Business.TenantID)
}

// DatabaseDSN returns the DSN with a relative sqlite path resolved against repoRoot.
func (c *Config) DatabaseDSN(repoRoot string) string {
	dsn := c.Database.DSN
	if c.Database.Driver != store.DriverSQLite && c.Database.Driver != "" {
		return dsn
	}
	if dsn == "" || filepath.IsAbs(dsn) || strings.HasPrefix(dsn, ":") || strings.HasPrefix(dsn, "file:") {
		return dsn
	}
	return filepath.Join(repoRoot, dsn)
}

// LedgerAccounts returns the configured posting accounts, with defaults for
// anything left blank.
func (c *Config) LedgerAccounts() ledger.Accounts {
	a := ledger.DefaultAccounts()
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&a.Receivable, c.Accounts.Receivable)
	set(&a.Revenue, c.Accounts.Revenue)
	set(&a.OutputVAT, c.Accounts.OutputVAT)
	set(&a.Bank, c.Accounts.Bank)
	set(&a.FallbackExpense, c.Accounts.FallbackExpense)
	return a
}

// CategoryAccounts returns the category mapping, or the default mapping when
// none is configured.
func (c *Config) CategoryAccounts() ledger.CategoryAccounts {
	if len(c.ExpenseCategories) == 0 {
		return ledger.DefaultCategoryAccounts()
	}
	m := make(ledger.CategoryAccounts, len(c.ExpenseCategories))
	for _, cat := range c.ExpenseCategories {
		m[cat.Name] = cat.Account
	}
	return m
}

// VatCodeList parses the configured VAT table.
func (c *Config) VatCodeList() ([]model.VatCode, error) {
	codes := make([]model.VatCode, 0, len(c.VatCodes))
	for i, vc := range c.VatCodes {
		rate, err := decimal.NewFromString(vc.Rate)
		if err != nil {
			return nil, fmt.Errorf("vat_codes[%d] %q: parsing rate %q: %w", i, vc.Code, vc.Rate, err)
		}
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) || !money.HasAtMostPlaces(rate, money.StoredPlaces) {
			return nil, fmt.Errorf("vat_codes[%d] %q: rate %s must be between 0 and 100 with at most %d decimal places", i, vc.Code, vc.Rate, money.StoredPlaces)
		}
		codes = append(codes, model.VatCode{Code: vc.Code, Rate: rate, Description: vc.Description, Active: vc.Active})
	}
	return codes, nil
}

// LoggerConfig converts the log section for logger.Setup.
func (c *Config) LoggerConfig() logger.LogConfig {
	lc := logger.DefaultConfig()
	if c.Log.Level != "" {
		lc.Level = c.Log.Level
	}
	if c.Log.Format != "" {
		lc.Format = c.Log.Format
	}
	if c.Log.Output != "" {
		lc.Output = c.Log.Output
	}
	return lc
}
