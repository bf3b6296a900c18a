package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/importer"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
)

func newVoucherCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voucher",
		Short: "Inspect and export the ledger",
	}
	cmd.AddCommand(newVoucherListCommand(g), newVoucherExportCommand(g))
	return cmd
}

func newVoucherListCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List vouchers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBooks(cmd.Context(), g, func(b *books) error {
				vouchers, err := b.vouchers.List(cmd.Context(), b.tenant)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout(), "ID", "DATE", "DESCRIPTION", "POSTINGS", "AMOUNT")
				for _, v := range vouchers {
					row(tw, v.ID, v.Date.Format(importer.DateFormat), v.Description,
						fmt.Sprint(len(v.Postings)), money.Format(v.Debits()))
				}
				return tw.Flush()
			})
		},
	}
}

func newVoucherExportCommand(g *globalFlags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every posting as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBooks(cmd.Context(), g, func(b *books) error {
				var w io.Writer = cmd.OutOrStdout()
				if out != "" && out != "-" {
					f, err := os.Create(out)
					if err != nil {
						return fmt.Errorf("creating export: %w", err)
					}
					defer f.Close()
					w = f
				}
				if err := b.vouchers.Export(cmd.Context(), b.tenant, w); err != nil {
					return err
				}
				if out != "" && out != "-" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Exported vouchers to %s\n", out)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output file (default stdout)")
	return cmd
}

func newVatCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vat",
		Short: "VAT codes",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List VAT codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBooks(cmd.Context(), g, func(b *books) error {
				codes, err := b.vat.List(cmd.Context())
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout(), "CODE", "RATE", "ACTIVE", "DESCRIPTION")
				for _, c := range codes {
					row(tw, c.Code, c.Rate.String()+"%", fmt.Sprint(c.Active), c.Description)
				}
				return tw.Flush()
			})
		},
	})
	return cmd
}

func newCategoryCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Expense categories",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List active expense categories and their accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBooks(cmd.Context(), g, func(b *books) error {
				cats, err := b.expenses.Categories(cmd.Context())
				if err != nil {
					return err
				}
				mapping := b.cfg.CategoryAccounts()
				tw := newTable(cmd.OutOrStdout(), "ID", "NAME", "ACCOUNT")
				for _, c := range cats {
					account := mapping[c.Name]
					if account == "" {
						account = b.cfg.LedgerAccounts().FallbackExpense + " (fallback)"
					}
					row(tw, fmt.Sprint(c.ID), c.Name, account)
				}
				return tw.Flush()
			})
		},
	})
	return cmd
}

func newAccountCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Chart of accounts",
	}
	var accountType string
	list := &cobra.Command{
		Use:   "list",
		Short: "List the chart of accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBooks(cmd.Context(), g, func(b *books) error {
				chart := b.chart.All()
				if accountType != "" {
					t := model.AccountType(strings.ToLower(accountType))
					switch t {
					case model.AccountTypeAsset, model.AccountTypeLiability, model.AccountTypeEquity,
						model.AccountTypeRevenue, model.AccountTypeExpense:
					default:
						return fmt.Errorf("unknown account type %q", accountType)
					}
					chart = b.chart.ByType(t)
				}
				tw := newTable(cmd.OutOrStdout(), "NUMBER", "NAME", "TYPE", "PARENT", "VAT")
				for _, a := range chart {
					row(tw, a.Number, a.Name, string(a.Type), a.ParentNumber, a.VatCode)
				}
				return tw.Flush()
			})
		},
	}
	list.Flags().StringVar(&accountType, "type", "", "only accounts of this type (asset, liability, equity, revenue, expense)")
	cmd.AddCommand(list)
	return cmd
}

func newImportCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Files waiting in the import inbox",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List CSV files in import/ and what they contain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := importer.Scan(g.repo)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout(), "FILE", "KIND", "SIZE")
			for _, f := range files {
				row(tw, f.Name, string(f.Kind), fmt.Sprint(f.Size))
			}
			return tw.Flush()
		},
	})
	return cmd
}
