package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/model"
)

func newCustomerCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customer",
		Short: "Manage customers",
	}
	cmd.AddCommand(newCustomerAddCommand(g), newCustomerListCommand(g))
	return cmd
}

func newCustomerAddCommand(g *globalFlags) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a customer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBooks(cmd.Context(), g, func(b *books) error {
				c := model.Customer{TenantID: b.tenant, Name: name}
				if err := b.db.CreateCustomer(cmd.Context(), &c); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added customer %d: %s\n", c.ID, c.Name)
				return b.audit(cmd.Context(), "customer.add", "Added customer "+c.Name, strconv.FormatInt(c.ID, 10), "")
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "customer name (required)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newCustomerListCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBooks(cmd.Context(), g, func(b *books) error {
				customers, err := b.db.ListCustomers(cmd.Context(), b.tenant)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout(), "ID", "NAME")
				for _, c := range customers {
					row(tw, strconv.FormatInt(c.ID, 10), c.Name)
				}
				return tw.Flush()
			})
		},
	}
}
