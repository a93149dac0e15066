package cli

import (
	"fmt"
	"strings"

	"github.com/Veraticus/splitflow/internal/format"
	"github.com/Veraticus/splitflow/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// GroupCard renders a group summary for lists.
func GroupCard(g model.Group) string {
	description := g.Description
	if strings.TrimSpace(description) == "" {
		description = "No description"
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		BoldStyle.Render(g.Name), " ", BadgeStyle.Render(categoryLabel(string(g.Category))))

	lines := []string{
		header,
		SubtleStyle.Render(description),
		fmt.Sprintf("%s %s", GroupIcon, MemberCount(len(g.Members))),
	}
	if created := format.Date(g.CreatedAt); created != "" {
		lines = append(lines, SubtleStyle.Render("Created "+created))
	}
	lines = append(lines, SubtleStyle.Render("id: "+g.ID))
	return BoxStyle.Render(strings.Join(lines, "\n"))
}

// MemberCount renders "1 member" or "N members".
func MemberCount(n int) string {
	if n == 1 {
		return "1 member"
	}
	return fmt.Sprintf("%d members", n)
}

// ExpenseItem renders one expense row.
func ExpenseItem(e model.Expense) string {
	left := []string{BoldStyle.Render(e.Description)}

	meta := []string{}
	if date := format.Date(e.Date); date != "" {
		meta = append(meta, date)
	}
	meta = append(meta, categoryLabel(string(e.Category)))
	left = append(left, SubtleStyle.Render(strings.Join(meta, " • ")))

	right := []string{
		AmountStyle.Render(format.Currency(e.Amount)),
		SubtleStyle.Render("Paid by: " + e.PaidBy.DisplayName()),
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(40).Render(strings.Join(left, "\n")),
		lipgloss.NewStyle().Align(lipgloss.Right).Render(strings.Join(right, "\n")),
	) + SubtleStyle.Render("  ["+e.ID+"]")
}

// SettlementCard renders who owes whom.
func SettlementCard(s model.Settlement) string {
	line := fmt.Sprintf("%s → owes → %s  %s",
		BoldStyle.Render(s.From.DisplayName()),
		BoldStyle.Render(s.To.DisplayName()),
		AmountStyle.Render(format.Currency(s.Amount)))

	if s.Settled {
		line += " " + SuccessStyle.Render(SuccessIcon+" settled")
	}
	return line + SubtleStyle.Render("  ["+s.ID+"]")
}

// SummaryCards renders the group totals side by side.
func SummaryCards(s *model.Summary) string {
	if s == nil {
		return SubtleStyle.Render("No summary available")
	}

	card := func(label, value string) string {
		return BoxStyle.Render(SubtleStyle.Render(label) + "\n" + AmountStyle.Render(value))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total Expenses", format.Currency(s.TotalExpenses)),
		card("Unsettled", format.Currency(s.TotalUnsettled)),
		card("Pending Settlements", fmt.Sprintf("%d", s.PendingSettlements)),
	)
}

// MemberItem renders one group member.
func MemberItem(m model.Member) string {
	if m.User.Email == "" {
		return BoldStyle.Render(m.User.DisplayName())
	}
	return BoldStyle.Render(m.User.DisplayName()) + " " + SubtleStyle.Render(m.User.Email)
}

func categoryLabel(c string) string {
	if c == "" {
		return "other"
	}
	return c
}
