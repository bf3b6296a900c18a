package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/buildinfo"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	repo  string
	actor string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "tally",
		Short:   "Multi-tenant invoicing and expense bookkeeping",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.repo, "repo", ".", "books directory")
	rootCmd.PersistentFlags().StringVar(&g.actor, "actor", defaultActor(), "name recorded in the audit log")

	rootCmd.AddCommand(
		newInitCommand(g),
		newCustomerCommand(g),
		newInvoiceCommand(g),
		newExpenseCommand(g),
		newVoucherCommand(g),
		newVatCommand(g),
		newCategoryCommand(g),
		newAccountCommand(g),
		newImportCommand(g),
	)

	return rootCmd
}

func defaultActor() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "cli"
}
