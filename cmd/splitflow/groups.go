package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/splitflow/internal/cli"
	"github.com/Veraticus/splitflow/internal/dashboard"
	"github.com/Veraticus/splitflow/internal/ledger"
	"github.com/Veraticus/splitflow/internal/model"
	"github.com/spf13/cobra"
)

func groupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List and create groups",
	}

	cmd.AddCommand(groupsListCmd())
	cmd.AddCommand(groupsCreateCmd())

	return cmd
}

func newDirectory(a *app) *dashboard.Directory {
	return dashboard.New(a.client,
		dashboard.WithNotifier(a.notifier),
		dashboard.WithInvalidator(a.session),
	)
}

func groupsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the groups you belong to",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withUser(cmd, func(ctx context.Context, a *app, _ model.User) error {
				dir := newDirectory(a)
				defer dir.Close()

				if err := dir.Refresh(ctx); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				groups := dir.View().Groups
				if len(groups) == 0 {
					fmt.Fprintln(out, cli.FormatInfo("No groups yet. Use 'splitflow groups create' to start one.")) //nolint:forbidigo // User-facing output
					return nil
				}

				fmt.Fprintln(out, cli.FormatTitle(cli.GroupIcon+" My Groups")) //nolint:forbidigo // User-facing output
				for _, g := range groups {
					fmt.Fprintln(out, cli.GroupCard(g)) //nolint:forbidigo // User-facing output
				}
				return nil
			})
		},
	}
}

func groupsCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a group",
		Long: `Create a group. Categories are trip, household, event, and other.

Example:
  splitflow groups create "Lisbon Trip" --category trip --description "Spring break"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description, _ := cmd.Flags().GetString("description")
			category, _ := cmd.Flags().GetString("category")

			return withUser(cmd, func(ctx context.Context, a *app, _ model.User) error {
				dir := newDirectory(a)
				defer dir.Close()

				group, err := dir.Create(ctx, dashboard.GroupForm{
					Name:        args[0],
					Description: description,
					Category:    model.GroupCategory(strings.ToLower(category)),
				})
				if err != nil {
					return err
				}
				if group.ID != "" {
					fmt.Fprintln(cmd.OutOrStdout(), cli.GroupCard(group)) //nolint:forbidigo // User-facing output
				}
				return nil
			})
		},
	}

	cmd.Flags().StringP("description", "d", "", "what the group is for")
	cmd.Flags().StringP("category", "c", string(model.GroupCategoryOther), "trip, household, event, or other")

	return cmd
}

func groupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Inspect a group",
	}
	cmd.AddCommand(groupShowCmd())
	return cmd
}

// withLedger checks the session and loads groupID into a controller.
func withLedger(cmd *cobra.Command, groupID string, fn func(ctx context.Context, c *ledger.Controller, user model.User) error) error {
	return withUser(cmd, func(ctx context.Context, a *app, user model.User) error {
		c := ledger.New(groupID, a.client,
			ledger.WithNotifier(a.notifier),
			ledger.WithInvalidator(a.session),
			ledger.WithPayer(user.ID),
		)
		defer c.Close()

		if err := c.Refresh(ctx); err != nil {
			return err
		}
		return fn(ctx, c, user)
	})
}

func groupShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <group-id>",
		Short: "Show a group's summary, expenses, settlements, and members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, args[0], func(_ context.Context, c *ledger.Controller, _ model.User) error {
				snap := c.View().Snapshot
				out := cmd.OutOrStdout()

				g := snap.Group
				fmt.Fprintln(out, cli.FormatTitle(g.Name)) //nolint:forbidigo // User-facing output
				if g.Description != "" {
					fmt.Fprintln(out, cli.SubtleStyle.Render(g.Description)) //nolint:forbidigo // User-facing output
				}
				fmt.Fprintln(out, cli.SummaryCards(snap.Summary)) //nolint:forbidigo // User-facing output

				fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Expenses (%d)", len(snap.Expenses)))) //nolint:forbidigo // User-facing output
				if len(snap.Expenses) == 0 {
					fmt.Fprintln(out, cli.SubtleStyle.Render("No expenses yet")) //nolint:forbidigo // User-facing output
				}
				for _, e := range snap.Expenses {
					fmt.Fprintln(out, cli.ExpenseItem(e)) //nolint:forbidigo // User-facing output
				}

				fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Settlements (%d)", len(snap.Settlements)))) //nolint:forbidigo // User-facing output
				if len(snap.Settlements) == 0 {
					fmt.Fprintln(out, cli.SubtleStyle.Render("All settled up!")) //nolint:forbidigo // User-facing output
				}
				for _, s := range snap.Settlements {
					fmt.Fprintln(out, cli.SettlementCard(s)) //nolint:forbidigo // User-facing output
				}

				fmt.Fprintln(out, cli.FormatTitle(cli.MemberCount(len(g.Members)))) //nolint:forbidigo // User-facing output
				for _, m := range g.Members {
					fmt.Fprintln(out, "  "+cli.MemberItem(m)) //nolint:forbidigo // User-facing output
				}
				return nil
			})
		},
	}
}

func membersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "Manage group members",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <group-id> <email>",
		Short: "Add a registered user to a group by email",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, args[0], func(ctx context.Context, c *ledger.Controller, _ model.User) error {
				return c.AddMember(ctx, args[1])
			})
		},
	})

	return cmd
}

func settleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settle <group-id> <settlement-id>",
		Short: "Mark a settlement as paid",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, args[0], func(ctx context.Context, c *ledger.Controller, _ model.User) error {
				return c.Settle(ctx, args[1])
			})
		},
	}
}
