package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/splitflow/internal/cli"
	"github.com/Veraticus/splitflow/internal/ledger"
	"github.com/Veraticus/splitflow/internal/model"
	"github.com/spf13/cobra"
)

func expensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "Add, edit, and delete group expenses",
		Long: `Manage the expenses of a group. Every expense is split equally between
all current members of the group.`,
	}

	cmd.AddCommand(expensesAddCmd())
	cmd.AddCommand(expensesEditCmd())
	cmd.AddCommand(expensesDeleteCmd())

	return cmd
}

func addExpenseFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("description", "d", "", "what was paid for")
	cmd.Flags().StringP("amount", "a", "", "amount paid, e.g. 12.50")
	cmd.Flags().StringP("category", "c", "", "food, accommodation, transport, entertainment, utilities, or other")
	cmd.Flags().StringP("paid-by", "p", "", "member id, email, or name of the payer (default: you)")
}

// applyExpenseFlags overrides form fields with the flags the user set.
func applyExpenseFlags(cmd *cobra.Command, form ledger.ExpenseForm, group model.Group) (ledger.ExpenseForm, error) {
	flags := cmd.Flags()
	if flags.Changed("description") {
		form.Description, _ = flags.GetString("description")
	}
	if flags.Changed("amount") {
		form.Amount, _ = flags.GetString("amount")
	}
	if flags.Changed("category") {
		category, _ := flags.GetString("category")
		form.Category = model.ExpenseCategory(strings.ToLower(category))
	}
	if flags.Changed("paid-by") {
		who, _ := flags.GetString("paid-by")
		id, ok := resolveMember(group, who)
		if !ok {
			return form, fmt.Errorf("%q is not a member of %s", who, group.Name)
		}
		form.PaidBy = id
	}
	return form, nil
}

// resolveMember finds a member by id, email, or name.
func resolveMember(group model.Group, who string) (string, bool) {
	who = strings.TrimSpace(who)
	for _, m := range group.Members {
		u := m.User
		if u.ID == who || strings.EqualFold(u.Email, who) || strings.EqualFold(u.Name, who) {
			return u.ID, true
		}
	}
	return "", false
}

func expensesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <group-id>",
		Short: "Record an expense",
		Long: `Record an expense split equally between every member of the group.

Example:
  splitflow expenses add 64f0c2 -d "Dinner" -a 45.80 -c food`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, args[0], func(ctx context.Context, c *ledger.Controller, _ model.User) error {
				c.BeginCreate()
				form, _ := c.Form()
				form, err := applyExpenseFlags(cmd, form, c.View().Snapshot.Group)
				if err != nil {
					return err
				}
				return c.SubmitExpense(ctx, form)
			})
		},
	}

	addExpenseFlags(cmd)
	return cmd
}

func expensesEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <group-id> <expense-id>",
		Short: "Replace fields of an existing expense",
		Long: `Edit an expense. Fields not given keep their current values; the split
is recalculated over the current members.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, args[0], func(ctx context.Context, c *ledger.Controller, _ model.User) error {
				if err := c.BeginEdit(args[1]); err != nil {
					return err
				}
				form, _ := c.Form()
				form, err := applyExpenseFlags(cmd, form, c.View().Snapshot.Group)
				if err != nil {
					return err
				}
				return c.SubmitExpense(ctx, form)
			})
		},
	}

	addExpenseFlags(cmd)
	return cmd
}

func expensesDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <group-id> <expense-id>",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")

			return withLedger(cmd, args[0], func(ctx context.Context, c *ledger.Controller, _ model.User) error {
				e, ok := c.View().Snapshot.Expense(args[1])
				if !ok {
					return fmt.Errorf("expense %s not found in this group", args[1])
				}

				if !yes {
					prompter := cli.NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
					confirmed, err := prompter.Confirm(ctx, fmt.Sprintf("Delete %q?", e.Description))
					if err != nil {
						return err
					}
					if !confirmed {
						fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Canceled")) //nolint:forbidigo // User-facing output
						return nil
					}
				}
				return c.DeleteExpense(ctx, e.ID)
			})
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	return cmd
}
