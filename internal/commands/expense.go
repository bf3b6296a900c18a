package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/expense"
	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/importer"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
	"github.com/cleared-dev/tally/internal/store"
)

func newExpenseCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expense",
		Short: "Record and approve expenses",
	}
	cmd.AddCommand(
		newExpenseCreateCommand(g),
		newExpenseUpdateCommand(g),
		newExpenseAdvanceCommand(g),
		newExpenseAttachCommand(g),
		newExpenseListCommand(g),
		newExpenseDeleteCommand(g),
		newExpenseTotalCommand(g),
	)
	return cmd
}

// expenseFlags are shared by create and update.
type expenseFlags struct {
	title       string
	description string
	date        string
	category    string
	costsFile   string
	createdBy   string
	receipt     string
	attach      []string
}

func (f *expenseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "expense title")
	cmd.Flags().StringVar(&f.description, "description", "", "expense description")
	cmd.Flags().StringVar(&f.date, "date", "", "expense date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&f.category, "category", "", "category name or id")
	cmd.Flags().StringVar(&f.costsFile, "costs", "", "expense costs CSV, a path or a file in import/")
	cmd.Flags().StringVar(&f.receipt, "receipt", "", "path or URL of the receipt")
}

// apply fills in from the flags the user set. The second result is the costs
// file when it lives in the import inbox.
func (f *expenseFlags) apply(ctx context.Context, cmd *cobra.Command, b *books, in *expense.NewExpense) (string, error) {
	changed := cmd.Flags().Changed
	if changed("title") {
		in.Title = f.title
	}
	if changed("description") {
		in.Description = f.description
	}
	if changed("date") {
		d, err := parseDate("date", f.date)
		if err != nil {
			return "", err
		}
		in.ExpenseDate = d
	}
	if changed("category") {
		catID, err := resolveCategory(ctx, b.db, f.category)
		if err != nil {
			return "", err
		}
		in.CategoryID = catID
	}
	if changed("receipt") {
		in.ReceiptPath = f.receipt
	}

	var processed string
	if changed("costs") {
		path, inInbox, err := importer.Resolve(b.root, f.costsFile)
		if err != nil {
			return "", err
		}
		file, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("opening costs: %w", err)
		}
		costs, err := importer.ParseCosts(file)
		file.Close()
		if err != nil {
			return "", err
		}
		in.Costs = costs
		if inInbox {
			processed = filepath.Base(path)
		}
	}
	return processed, nil
}

func resolveCategory(ctx context.Context, db *store.Store, v string) (int64, error) {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		cat, err := db.FindCategory(ctx, n)
		if err != nil {
			return 0, err
		}
		return cat.ID, nil
	}
	cat, err := db.FindCategoryByName(ctx, v)
	if err != nil {
		return 0, err
	}
	return cat.ID, nil
}

func readAttachments(paths []string) ([]model.Attachment, error) {
	atts := make([]model.Attachment, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading attachment: %w", err)
		}
		atts = append(atts, model.Attachment{Filename: filepath.Base(p), Data: data})
	}
	return atts, nil
}

func newExpenseCreateCommand(g *globalFlags) *cobra.Command {
	var f expenseFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Record an expense and post its voucher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBooks(cmd.Context(), g, func(b *books) error {
				in := expense.NewExpense{
					ExpenseDate: time.Now().UTC().Truncate(24 * time.Hour),
					CreatedBy:   f.createdBy,
				}
				if in.CreatedBy == "" {
					in.CreatedBy = b.actor
				}
				processed, err := f.apply(cmd.Context(), cmd, b, &in)
				if err != nil {
					return err
				}
				if in.Attachments, err = readAttachments(f.attach); err != nil {
					return err
				}

				exp, voucherID, err := b.expenses.Create(cmd.Context(), b.tenant, in)
				if err != nil {
					return err
				}
				if processed != "" {
					if err := importer.MarkProcessed(b.root, processed); err != nil {
						return err
					}
				}

				ref := id.FormatExpenseRef(exp.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "Created expense %s (%s), amount %s on account %s, voucher %s\n",
					ref, exp.Title, exp.Amount.String(), exp.AccountNumber, voucherID)
				details := fmt.Sprintf("Expense %q, amount %s on account %s", exp.Title, exp.Amount.String(), exp.AccountNumber)
				return b.audit(cmd.Context(), "expense.create", details, ref, voucherID)
			})
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&f.createdBy, "created-by", "", "who paid (default --actor)")
	cmd.Flags().StringSliceVar(&f.attach, "attach", nil, "files to attach")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("costs")
	return cmd
}

func newExpenseUpdateCommand(g *globalFlags) *cobra.Command {
	var f expenseFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change an expense; flags left out keep their current values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expenseID, err := parseID("expense", args[0])
			if err != nil {
				return err
			}
			return withBooks(cmd.Context(), g, func(b *books) error {
				cur, err := b.expenses.Get(cmd.Context(), b.tenant, expenseID)
				if err != nil {
					return err
				}
				in := expense.NewExpense{
					Title:       cur.Title,
					Description: cur.Description,
					ExpenseDate: cur.ExpenseDate,
					CategoryID:  cur.CategoryID,
					Costs:       cur.Costs,
					ReceiptPath: cur.ReceiptPath,
					CreatedBy:   cur.CreatedBy,
				}
				processed, err := f.apply(cmd.Context(), cmd, b, &in)
				if err != nil {
					return err
				}

				exp, err := b.expenses.Update(cmd.Context(), b.tenant, expenseID, in)
				if err != nil {
					return err
				}
				if processed != "" {
					if err := importer.MarkProcessed(b.root, processed); err != nil {
						return err
					}
				}

				ref := id.FormatExpenseRef(exp.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "Updated expense %s, amount %s on account %s\n", ref, exp.Amount.String(), exp.AccountNumber)
				return b.audit(cmd.Context(), "expense.update", fmt.Sprintf("Expense %q, amount %s", exp.Title, exp.Amount.String()), ref, "")
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newExpenseAdvanceCommand(g *globalFlags) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "advance <id>",
		Short: "Move an expense to its next status (open, delivered, approved)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expenseID, err := parseID("expense", args[0])
			if err != nil {
				return err
			}
			return withBooks(cmd.Context(), g, func(b *books) error {
				var exp model.Expense
				if to == "" {
					exp, err = b.expenses.Advance(cmd.Context(), b.tenant, expenseID)
				} else {
					status, perr := model.ParseExpenseStatus(to)
					if perr != nil {
						return apperr.Validation("to", "%v", perr)
					}
					exp, err = b.expenses.TransitionTo(cmd.Context(), b.tenant, expenseID, status)
				}
				if errors.Is(err, expense.ErrInvalidTransition) {
					return fmt.Errorf("cannot advance expense %d: %w", expenseID, err)
				}
				if err != nil {
					return err
				}

				ref := id.FormatExpenseRef(exp.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "Expense %s is now %s\n", ref, exp.Status)
				return b.audit(cmd.Context(), "expense.advance", "Status "+string(exp.Status), ref, "")
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "target status, which must be the next one")
	return cmd
}

func newExpenseAttachCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <id> <file>...",
		Short: "Attach documents to an expense",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			expenseID, err := parseID("expense", args[0])
			if err != nil {
				return err
			}
			atts, err := readAttachments(args[1:])
			if err != nil {
				return err
			}
			return withBooks(cmd.Context(), g, func(b *books) error {
				saved, err := b.expenses.AddAttachments(cmd.Context(), b.tenant, expenseID, atts)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, a := range saved {
					fmt.Fprintf(out, "Attached %s (%s, %d bytes)\n", a.Filename, a.MimeType, len(a.Data))
				}
				return b.audit(cmd.Context(), "expense.attach", fmt.Sprintf("Attached %d file(s)", len(saved)), id.FormatExpenseRef(expenseID), "")
			})
		},
	}
}

func newExpenseListCommand(g *globalFlags) *cobra.Command {
	var from, to, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter store.ExpenseFilter
			if from != "" {
				d, err := parseDate("from", from)
				if err != nil {
					return err
				}
				filter.From = &d
			}
			if to != "" {
				d, err := parseDate("to", to)
				if err != nil {
					return err
				}
				filter.To = &d
			}
			if status != "" {
				s, err := model.ParseExpenseStatus(status)
				if err != nil {
					return apperr.Validation("status", "%v", err)
				}
				filter.Status = s
			}

			return withBooks(cmd.Context(), g, func(b *books) error {
				expenses, err := b.expenses.List(cmd.Context(), b.tenant, filter)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout(), "REF", "DATE", "TITLE", "STATUS", "ACCOUNT", "AMOUNT")
				for _, e := range expenses {
					row(tw, id.FormatExpenseRef(e.ID), e.ExpenseDate.Format(importer.DateFormat), e.Title,
						string(e.Status), e.AccountNumber, money.Format(e.Amount))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first expense date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last expense date YYYY-MM-DD")
	cmd.Flags().StringVar(&status, "status", "", "only expenses in this status")
	return cmd
}

func newExpenseDeleteCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an expense; its voucher stays in the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expenseID, err := parseID("expense", args[0])
			if err != nil {
				return err
			}
			return withBooks(cmd.Context(), g, func(b *books) error {
				if err := b.expenses.Delete(cmd.Context(), b.tenant, expenseID); err != nil {
					return err
				}
				ref := id.FormatExpenseRef(expenseID)
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted expense %s\n", ref)
				return b.audit(cmd.Context(), "expense.delete", "Deleted expense "+ref, ref, "")
			})
		},
	}
}

func newExpenseTotalCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "total",
		Short: "Print the sum of all expense amounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBooks(cmd.Context(), g, func(b *books) error {
				total, err := b.expenses.Total(cmd.Context(), b.tenant)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), money.Format(total))
				return nil
			})
		},
	}
}
