package commands_test

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/auditlog"
	"github.com/cleared-dev/tally/internal/commands"
	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/store"
	"github.com/cleared-dev/tally/internal/vat"
)

func runTally(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := commands.NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// initBooks creates a books directory and returns a function that runs tally
// against it.
func initBooks(t *testing.T) (string, func(args ...string) string) {
	t.Helper()
	dir := t.TempDir()
	_, err := runTally(t, "init", dir, "--name", "Fjord AS", "--actor", "kari")
	require.NoError(t, err)

	return dir, func(args ...string) string {
		t.Helper()
		out, err := runTally(t, append(args, "--repo", dir, "--actor", "kari")...)
		require.NoError(t, err, out)
		return out
	}
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func TestInitCreatesBooks(t *testing.T) {
	dir := t.TempDir()
	out, err := runTally(t, "init", dir, "--name", "Fjord AS", "--tenant", "4", "--actor", "kari")
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized books for Fjord AS (tenant 4)")

	for _, d := range []string{"accounts", "logs", "import", filepath.Join("import", "processed")} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir())
	}

	cfg, err := config.Load(config.Path(dir))
	require.NoError(t, err)
	assert.Equal(t, "Fjord AS", cfg.Business.Name)
	assert.EqualValues(t, 4, cfg.Tenant())
	assert.Equal(t, "NOK", cfg.Currency)

	chart, err := accounts.Load(dir)
	require.NoError(t, err)
	assert.True(t, chart.Exists(accounts.Receivable))
	assert.True(t, chart.Exists(accounts.OutputVAT))

	_, err = os.Stat(filepath.Join(dir, "tally.db"))
	assert.NoError(t, err)

	entries, err := auditlog.Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "init", entries[0].Action)
	assert.Equal(t, "kari", entries[0].Actor)
	assert.EqualValues(t, 4, entries[0].Tenant)
}

func TestInitRefusesExistingBooks(t *testing.T) {
	dir := t.TempDir()
	_, err := runTally(t, "init", dir, "--name", "Fjord AS")
	require.NoError(t, err)

	_, err = runTally(t, "init", dir, "--name", "Again")
	assert.ErrorContains(t, err, "already exists")
}

func TestInitRequiresName(t *testing.T) {
	_, err := runTally(t, "init", t.TempDir())
	assert.Error(t, err)
}

func TestCommandsNeedBooks(t *testing.T) {
	_, err := runTally(t, "customer", "list", "--repo", t.TempDir())
	assert.ErrorContains(t, err, "reading config")
}

func TestInvoiceFlow(t *testing.T) {
	dir, tally := initBooks(t)

	out := tally("customer", "add", "--name", "Acme AS")
	assert.Contains(t, out, "Added customer 1: Acme AS")
	assert.Contains(t, tally("customer", "list"), "Acme AS")

	writeFile(t, filepath.Join(dir, "import", "lines.csv"),
		"item_name,quantity,unit_price,discount_percent,vat_code\nConsulting,3,100.00,10,3\n")
	assert.Contains(t, tally("import", "list"), "invoice-lines")

	out = tally("invoice", "create", "--customer", "1", "--issue-date", "2026-03-01", "--lines", "lines.csv")
	assert.Contains(t, out, "Created invoice 2026-1, total 337.5 NOK")

	_, err := os.Stat(filepath.Join(dir, "import", "processed", "lines.csv"))
	assert.NoError(t, err, "inbox file should be moved to processed")

	assert.Contains(t, tally("invoice", "list"), "2026-1")
	show := tally("invoice", "show", "1")
	assert.Contains(t, show, "Consulting")
	assert.Contains(t, show, "Total:    337.5")

	export := tally("voucher", "export")
	assert.True(t, strings.HasPrefix(export, "voucher_id,date,row,account"))
	assert.Contains(t, export, ",1500,")
	assert.Contains(t, export, ",2700,")
	assert.Contains(t, tally("voucher", "list"), "Invoice number 2026-1 to Acme AS")

	entries, err := auditlog.Read(dir)
	require.NoError(t, err)
	last := entries[len(entries)-1]
	assert.Equal(t, "invoice.create", last.Action)
	assert.Equal(t, "2026-1", last.EntityRef)
	assert.NotEmpty(t, last.VoucherID)

	assert.Contains(t, tally("invoice", "delete", "1"), "Deleted invoice 2026-1")
	assert.Contains(t, tally("voucher", "list"), "Invoice number 2026-1", "voucher outlives its invoice")

	out = tally("invoice", "create", "--customer", "1", "--issue-date", "2026-03-02",
		"--lines", filepath.Join(dir, "import", "processed", "lines.csv"))
	assert.Contains(t, out, "Created invoice 2026-2")
}

func TestInvoiceShowAndDeleteByNumber(t *testing.T) {
	dir, tally := initBooks(t)
	tally("customer", "add", "--name", "Acme AS")
	lines := filepath.Join(t.TempDir(), "lines.csv")
	writeFile(t, lines, "item_name,quantity,unit_price,discount_percent,vat_code\nWidget,2,50,,3\n")
	tally("invoice", "create", "--customer", "1", "--issue-date", "2026-03-01", "--lines", lines)

	assert.Contains(t, tally("invoice", "show", "2026-1"), "Widget")
	assert.Contains(t, tally("invoice", "show", "2026-01"), "Invoice 2026-1")

	_, err := runTally(t, "invoice", "show", "2026-9", "--repo", dir)
	assert.ErrorContains(t, err, "not found")
	_, err = runTally(t, "invoice", "show", "first", "--repo", dir)
	assert.ErrorContains(t, err, "invalid invoice id")

	assert.Contains(t, tally("invoice", "delete", "2026-1"), "Deleted invoice 2026-1")
}

func TestInvoiceDeleteAfterVatCodeRetired(t *testing.T) {
	dir, tally := initBooks(t)
	tally("customer", "add", "--name", "Acme AS")
	lines := filepath.Join(t.TempDir(), "lines.csv")
	writeFile(t, lines, "item_name,quantity,unit_price,discount_percent,vat_code\nWidget,1,10,,33\n")
	tally("invoice", "create", "--customer", "1", "--issue-date", "2026-03-01", "--lines", lines)

	cfg, err := config.Load(config.Path(dir))
	require.NoError(t, err)
	db, err := store.Open(cfg.Database.Driver, cfg.DatabaseDSN(dir), false)
	require.NoError(t, err)
	for _, vc := range vat.DefaultCodes() {
		if vc.Code == "33" {
			vc.Active = false
			require.NoError(t, db.SaveVatCode(context.Background(), vc))
		}
	}
	require.NoError(t, db.Close())

	_, err = runTally(t, "invoice", "show", "1", "--repo", dir)
	require.Error(t, err, "pricing needs an active VAT code")

	assert.Contains(t, tally("invoice", "delete", "1"), "Deleted invoice 2026-1")
	assert.NotContains(t, tally("invoice", "list"), "2026-1")

	entries, err := auditlog.Read(dir)
	require.NoError(t, err)
	last := entries[len(entries)-1]
	assert.Equal(t, "invoice.delete", last.Action)
	assert.Equal(t, "2026-1", last.EntityRef)
}

func TestInvoiceCreateRejectsUnknownVatCode(t *testing.T) {
	dir, tally := initBooks(t)
	tally("customer", "add", "--name", "Acme AS")

	lines := filepath.Join(t.TempDir(), "lines.csv")
	writeFile(t, lines, "item_name,quantity,unit_price,discount_percent,vat_code\nWidget,1,10,,99\n")

	_, err := runTally(t, "invoice", "create", "--customer", "1", "--lines", lines, "--repo", dir)
	require.Error(t, err)

	_, err = os.Stat(lines)
	assert.NoError(t, err, "files outside the inbox are left in place")
	assert.NotContains(t, tally("invoice", "list"), "-1")
}

func TestExpenseFlow(t *testing.T) {
	dir, tally := initBooks(t)

	writeFile(t, filepath.Join(dir, "import", "trip.csv"),
		"title,date,amount,vat_percent,currency,payment_type,chargeable\n"+
			"Taxi,2026-02-01,80.00,12,NOK,cash-payment,false\n"+
			"Parking,2026-02-01,20.00,25,NOK,personal-outlay,true\n")

	out := tally("expense", "create", "--title", "Trip", "--category", "Travel", "--costs", "trip.csv", "--date", "2026-02-01")
	assert.Contains(t, out, "Created expense EXP-1 (Trip), amount 100 on account 7140")

	export := tally("voucher", "export")
	assert.Contains(t, export, ",7140,")
	assert.Contains(t, export, ",1920,")

	assert.Contains(t, tally("expense", "advance", "1"), "now delivered")
	assert.Contains(t, tally("expense", "advance", "1", "--to", "approved"), "now approved")
	_, err := runTally(t, "expense", "advance", "1", "--repo", dir)
	assert.ErrorContains(t, err, "cannot advance")

	list := tally("expense", "list", "--status", "approved", "--from", "2026-01-01", "--to", "2026-12-31")
	assert.Contains(t, list, "EXP-1")
	assert.Contains(t, list, "100.00")
	assert.NotContains(t, tally("expense", "list", "--status", "open"), "EXP-1")
	assert.Equal(t, "100.00\n", tally("expense", "total"))

	assert.Contains(t, tally("expense", "update", "1", "--title", "Trip to Bergen"), "Updated expense EXP-1")
	assert.Contains(t, tally("expense", "list"), "Trip to Bergen")

	receipt := filepath.Join(t.TempDir(), "receipt.pdf")
	writeFile(t, receipt, "%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")
	assert.Contains(t, tally("expense", "attach", "1", receipt), "Attached receipt.pdf (application/pdf")

	assert.Contains(t, tally("expense", "delete", "1"), "Deleted expense EXP-1")
	assert.Equal(t, "0.00\n", tally("expense", "total"))

	entries, err := auditlog.Read(dir)
	require.NoError(t, err)
	var actions []string
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{
		"init", "expense.create", "expense.advance", "expense.advance",
		"expense.update", "expense.attach", "expense.delete",
	}, actions)
}

func TestExpenseCreateUnknownCategory(t *testing.T) {
	dir, _ := initBooks(t)
	costs := filepath.Join(t.TempDir(), "costs.csv")
	writeFile(t, costs, "title,date,amount,vat_percent,currency,payment_type,chargeable\nPen,2026-02-01,5,25,NOK,cash-payment,\n")

	_, err := runTally(t, "expense", "create", "--title", "Pens", "--category", "Gardening", "--costs", costs, "--repo", dir)
	assert.ErrorContains(t, err, "not found")
}

func TestReferenceLists(t *testing.T) {
	_, tally := initBooks(t)

	vat := tally("vat", "list")
	assert.Contains(t, vat, "25%")
	assert.Contains(t, vat, "15%")

	cats := tally("category", "list")
	assert.Contains(t, cats, "Travel")
	assert.Contains(t, cats, "7140")
	assert.Contains(t, cats, "Utilities")
}

func TestAccountList(t *testing.T) {
	dir, tally := initBooks(t)

	all := tally("account", "list")
	assert.Contains(t, all, "1500")
	assert.Contains(t, all, "7140")

	assets := tally("account", "list", "--type", "Asset")
	assert.Contains(t, assets, "1500")
	assert.NotContains(t, assets, "7140")

	_, err := runTally(t, "account", "list", "--type", "income", "--repo", dir)
	assert.ErrorContains(t, err, "unknown account type")
}

func TestVoucherExportToFile(t *testing.T) {
	_, tally := initBooks(t)
	out := filepath.Join(t.TempDir(), "ledger.csv")
	tally("voucher", "export", "--out", out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "voucher_id,date,row,account,description,debit,credit,currency,original_amount,original_currency,vat_code\n", string(data))
}

func TestVersion(t *testing.T) {
	out, err := runTally(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev (commit: none")
}

func TestGitEnabledBooksCommitAuditedChanges(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	_, err := runTally(t, "init", dir, "--name", "Fjord AS", "--git", "--actor", "kari")
	require.NoError(t, err)
	_, err = runTally(t, "customer", "add", "--name", "Acme AS", "--repo", dir, "--actor", "kari")
	require.NoError(t, err)

	cmd := exec.Command("git", "log", "--format=%an|%s")
	cmd.Dir = dir
	out, err := cmd.Output()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"kari|customer.add: Added customer Acme AS",
		"kari|init: Initialize Fjord AS",
	}, strings.Split(strings.TrimSpace(string(out)), "\n"))
}
