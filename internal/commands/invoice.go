package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/importer"
	"github.com/cleared-dev/tally/internal/invoice"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
	"github.com/cleared-dev/tally/internal/pricing"
)

func newInvoiceCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Create and inspect invoices",
	}
	cmd.AddCommand(
		newInvoiceCreateCommand(g),
		newInvoiceShowCommand(g),
		newInvoiceListCommand(g),
		newInvoiceDeleteCommand(g),
	)
	return cmd
}

func newInvoiceCreateCommand(g *globalFlags) *cobra.Command {
	var (
		customerID int64
		issueDate  string
		dueDate    string
		currency   string
		linesFile  string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an invoice from a CSV of lines and post its voucher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBooks(cmd.Context(), g, func(b *books) error {
				in := invoice.NewInvoice{CustomerID: customerID, CurrencyCode: currency}
				if in.CurrencyCode == "" {
					in.CurrencyCode = b.cfg.Currency
				}

				issue := time.Now().UTC().Truncate(24 * time.Hour)
				if issueDate != "" {
					var err error
					if issue, err = parseDate("issue-date", issueDate); err != nil {
						return err
					}
				}
				in.IssueDate = issue
				if dueDate != "" {
					due, err := parseDate("due-date", dueDate)
					if err != nil {
						return err
					}
					in.DueDate = &due
				}

				path, inInbox, err := importer.Resolve(b.root, linesFile)
				if err != nil {
					return err
				}
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("opening lines: %w", err)
				}
				lines, err := importer.ParseInvoiceLines(f)
				f.Close()
				if err != nil {
					return err
				}
				in.Lines = lines

				inv, voucherID, err := b.invoices.Create(cmd.Context(), b.tenant, in)
				if err != nil {
					return err
				}
				if inInbox {
					if err := importer.MarkProcessed(b.root, filepath.Base(path)); err != nil {
						return err
					}
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Created invoice %s, total %s %s, voucher %s\n",
					inv.Number, inv.TotalAmount.String(), inv.CurrencyCode, voucherID)
				details := fmt.Sprintf("Invoice %s to customer %d, total %s", inv.Number, inv.CustomerID, inv.TotalAmount.String())
				return b.audit(cmd.Context(), "invoice.create", details, inv.Number, voucherID)
			})
		},
	}

	cmd.Flags().Int64Var(&customerID, "customer", 0, "customer id (required)")
	cmd.Flags().StringVar(&issueDate, "issue-date", "", "issue date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&dueDate, "due-date", "", "due date YYYY-MM-DD")
	cmd.Flags().StringVar(&currency, "currency", "", "ISO 4217 currency (default from tally.yaml)")
	cmd.Flags().StringVar(&linesFile, "lines", "", "invoice lines CSV, a path or a file in import/ (required)")
	_ = cmd.MarkFlagRequired("customer")
	_ = cmd.MarkFlagRequired("lines")
	return cmd
}

func newInvoiceShowCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|number>",
		Short: "Show an invoice with its priced lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBooks(cmd.Context(), g, func(b *books) error {
				found, err := b.findInvoice(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				inv, err := b.invoices.Get(cmd.Context(), b.tenant, found.ID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Invoice %s\n", inv.Number)
				fmt.Fprintf(out, "Customer: %d\nIssued:   %s\nDue:      %s\nCurrency: %s\n\n",
					inv.CustomerID, inv.IssueDate.Format(importer.DateFormat), formatDate(inv.DueDate), inv.CurrencyCode)

				tw := newTable(out, "ITEM", "QTY", "PRICE", "DISCOUNT", "VAT", "NET", "VAT AMOUNT", "TOTAL")
				for _, l := range inv.Lines {
					row(tw, l.ItemName, strconv.Itoa(l.Quantity), l.UnitPrice.String(), l.DiscountAmount.String(),
						l.VatCode, l.DiscountedSubTotal().String(), l.VatAmount.String(), l.TotalAmount.String())
				}
				if err := tw.Flush(); err != nil {
					return err
				}

				t := pricing.ComputeTotals(inv.Lines)
				fmt.Fprintf(out, "\nSubtotal: %s\nDiscount: %s\nNet:      %s\nVAT:      %s\nTotal:    %s\n",
					t.SubTotal, t.DiscountAmount, t.DiscountedSubTotal, money.Format(t.VatAmount), t.TotalAmount)
				return nil
			})
		},
	}
}

func newInvoiceListCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List invoices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBooks(cmd.Context(), g, func(b *books) error {
				invoices, err := b.invoices.List(cmd.Context(), b.tenant)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout(), "ID", "NUMBER", "ISSUED", "DUE", "CUSTOMER", "CURRENCY", "TOTAL")
				for _, inv := range invoices {
					row(tw, strconv.FormatInt(inv.ID, 10), inv.Number, inv.IssueDate.Format(importer.DateFormat),
						formatDate(inv.DueDate), strconv.FormatInt(inv.CustomerID, 10), inv.CurrencyCode, inv.TotalAmount.String())
				}
				return tw.Flush()
			})
		},
	}
}

func newInvoiceDeleteCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|number>",
		Short: "Delete an invoice; its voucher stays in the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBooks(cmd.Context(), g, func(b *books) error {
				// Stored rows only. Pricing would fail once a line's VAT code is retired.
				inv, err := b.findInvoice(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := b.invoices.Delete(cmd.Context(), b.tenant, inv.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted invoice %s\n", inv.Number)
				return b.audit(cmd.Context(), "invoice.delete", "Deleted invoice "+inv.Number, inv.Number, "")
			})
		},
	}
}

// findInvoice loads the stored invoice named by ref, either a number like
// "2026-3" or a numeric ID.
func (b *books) findInvoice(ctx context.Context, ref string) (model.Invoice, error) {
	if year, seq, err := id.ParseInvoiceNumber(ref); err == nil {
		return b.db.FindInvoiceByNumber(ctx, b.tenant, id.FormatInvoiceNumber(year, seq))
	}
	invoiceID, err := parseID("invoice", ref)
	if err != nil {
		return model.Invoice{}, err
	}
	return b.db.FindInvoice(ctx, b.tenant, invoiceID)
}
