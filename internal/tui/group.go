package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/splitflow/internal/cli"
	"github.com/Veraticus/splitflow/internal/common"
	"github.com/Veraticus/splitflow/internal/format"
	"github.com/Veraticus/splitflow/internal/guard"
	"github.com/Veraticus/splitflow/internal/ledger"
	"github.com/Veraticus/splitflow/internal/model"
	"github.com/Veraticus/splitflow/internal/notify"
	"github.com/Veraticus/splitflow/internal/tui/themes"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

type groupTab int

const (
	tabExpenses groupTab = iota
	tabSettlements
	tabMembers
	tabCount
)

func (t groupTab) String() string {
	switch t {
	case tabSettlements:
		return "Settlements"
	case tabMembers:
		return "Members"
	default:
		return "Expenses"
	}
}

type groupMode int

const (
	modeBrowse groupMode = iota
	modeExpenseForm
	modeMemberForm
	modeConfirmDelete
)

const (
	expenseFieldDescription = iota
	expenseFieldAmount
	expenseFieldCategory
	expenseFieldPayer
	expenseFieldCount
)

// groupScreen shows one group's ledger and drives its controller.
type groupScreen struct {
	ctrl        *ledger.Controller
	inputs      []textinput.Model
	memberInput textinput.Model
	current     ledger.View
	paidBy      string
	deleteID    string
	exported    string
	cursors     [tabCount]int
	tab         groupTab
	mode        groupMode
	focus       int
	category    int
}

func newGroupScreen(m Model, groupID, payer string) (groupScreen, tea.Cmd) {
	s := groupScreen{
		ctrl: ledger.New(groupID, m.config.Backend,
			ledger.WithNotifier(m.bridge),
			ledger.WithInvalidator(m.config.Session),
			ledger.WithPayer(payer),
		),
	}

	desc := newTextInput(m, 200)
	desc.Placeholder = "Dinner, taxi, groceries..."

	amount := newTextInput(m, 12)
	amount.Placeholder = "0.00"
	amount.Prompt = "$ "

	email := newTextInput(m, 128)
	email.Placeholder = "friend@example.com"

	s.inputs = []textinput.Model{desc, amount}
	s.memberInput = email
	s.current = s.ctrl.View()
	return s, s.run(m, opRefresh, s.ctrl.Refresh)
}

// run performs a controller call in the background and reports it as op.
func (s groupScreen) run(m Model, op ledgerOp, fn func(ctx context.Context) error) tea.Cmd {
	ctx, epoch := m.ctx, m.epoch
	return func() tea.Msg {
		return ledgerMsg{epoch: epoch, op: op, err: fn(ctx)}
	}
}

func (s groupScreen) typing() bool {
	switch s.mode {
	case modeMemberForm:
		return true
	case modeExpenseForm:
		return s.focus == expenseFieldDescription || s.focus == expenseFieldAmount
	default:
		return false
	}
}

func (s *groupScreen) close() {
	if s.ctrl != nil {
		s.ctrl.Close()
	}
}

func (s groupScreen) members() []model.Member {
	if s.current.Snapshot == nil {
		return nil
	}
	return s.current.Snapshot.Group.Members
}

func (s groupScreen) listLen(tab groupTab) int {
	snap := s.current.Snapshot
	if snap == nil {
		return 0
	}
	switch tab {
	case tabSettlements:
		return len(snap.Settlements)
	case tabMembers:
		return len(snap.Group.Members)
	default:
		return len(snap.Expenses)
	}
}

func (s groupScreen) selectedExpense() (model.Expense, bool) {
	if s.current.Snapshot == nil || s.cursors[tabExpenses] >= len(s.current.Snapshot.Expenses) {
		return model.Expense{}, false
	}
	return s.current.Snapshot.Expenses[s.cursors[tabExpenses]], true
}

func (s groupScreen) selectedSettlement() (model.Settlement, bool) {
	if s.current.Snapshot == nil || s.cursors[tabSettlements] >= len(s.current.Snapshot.Settlements) {
		return model.Settlement{}, false
	}
	return s.current.Snapshot.Settlements[s.cursors[tabSettlements]], true
}

func (s groupScreen) handleKey(m Model, msg tea.KeyMsg) (groupScreen, tea.Cmd) {
	if s.ctrl == nil {
		return s, nil
	}

	switch s.mode {
	case modeExpenseForm:
		return s.handleExpenseKey(m, msg)
	case modeMemberForm:
		return s.handleMemberKey(m, msg)
	case modeConfirmDelete:
		return s.handleConfirmKey(m, msg)
	}

	switch {
	case key.Matches(msg, m.keymap.Back):
		return s, navigateTo(guard.HomeRoute)
	case key.Matches(msg, m.keymap.NextTab):
		s.tab = (s.tab + 1) % tabCount
	case key.Matches(msg, m.keymap.PrevTab):
		s.tab = (s.tab + tabCount - 1) % tabCount
	case key.Matches(msg, m.keymap.Up):
		if s.cursors[s.tab] > 0 {
			s.cursors[s.tab]--
		}
	case key.Matches(msg, m.keymap.Down):
		if s.cursors[s.tab] < s.listLen(s.tab)-1 {
			s.cursors[s.tab]++
		}
	case key.Matches(msg, m.keymap.Refresh):
		return s, s.run(m, opRefresh, s.ctrl.Refresh)
	case key.Matches(msg, m.keymap.AddExpense):
		s.ctrl.BeginCreate()
		return s.openExpenseForm(), textinput.Blink
	case key.Matches(msg, m.keymap.EditExpense) && s.tab == tabExpenses:
		e, ok := s.selectedExpense()
		if !ok {
			return s, nil
		}
		if err := s.ctrl.BeginEdit(e.ID); err != nil {
			return s, toastCmd(notify.Failure, "Expense no longer exists")
		}
		return s.openExpenseForm(), textinput.Blink
	case key.Matches(msg, m.keymap.Delete) && s.tab == tabExpenses:
		if e, ok := s.selectedExpense(); ok {
			s.mode = modeConfirmDelete
			s.deleteID = e.ID
		}
	case key.Matches(msg, m.keymap.Settle) && s.tab == tabSettlements:
		st, ok := s.selectedSettlement()
		if !ok || st.Settled {
			return s, nil
		}
		id := st.ID
		return s, s.run(m, opSettle, func(ctx context.Context) error { return s.ctrl.Settle(ctx, id) })
	case key.Matches(msg, m.keymap.AddMember):
		s.mode = modeMemberForm
		s.memberInput.Reset()
		s.memberInput.Focus()
		return s, textinput.Blink
	case key.Matches(msg, m.keymap.Export):
		return s, s.export(m)
	}
	return s, nil
}

func (s groupScreen) openExpenseForm() groupScreen {
	form, _ := s.ctrl.Form()
	s.current = s.ctrl.View()
	s.mode = modeExpenseForm
	s.focus = expenseFieldDescription
	s.inputs[expenseFieldDescription].SetValue(form.Description)
	s.inputs[expenseFieldAmount].SetValue(form.Amount)
	s.paidBy = form.PaidBy
	s.category = 0
	for i, c := range model.ExpenseCategories() {
		if c == form.Category {
			s.category = i
		}
	}
	return s.focusInputs()
}

func (s groupScreen) focusInputs() groupScreen {
	for i := range s.inputs {
		if i == s.focus {
			s.inputs[i].Focus()
		} else {
			s.inputs[i].Blur()
		}
	}
	return s
}

func (s groupScreen) form() ledger.ExpenseForm {
	return ledger.ExpenseForm{
		Description: s.inputs[expenseFieldDescription].Value(),
		Amount:      s.inputs[expenseFieldAmount].Value(),
		Category:    model.ExpenseCategories()[s.category],
		PaidBy:      s.paidBy,
	}
}

// cyclePayer moves the payer selection through the member list.
func (s groupScreen) cyclePayer(delta int) groupScreen {
	members := s.members()
	if len(members) == 0 {
		return s
	}
	pos := -1
	for i, mem := range members {
		if mem.User.ID == s.paidBy {
			pos = i
		}
	}
	if pos < 0 {
		pos = 0
	} else {
		pos = (pos + delta + len(members)) % len(members)
	}
	s.paidBy = members[pos].User.ID
	return s
}

func (s groupScreen) handleExpenseKey(m Model, msg tea.KeyMsg) (groupScreen, tea.Cmd) {
	categories := model.ExpenseCategories()

	switch {
	case key.Matches(msg, m.keymap.Back):
		s.ctrl.CancelForm()
		s.mode = modeBrowse
		s.current = s.ctrl.View()
		return s, nil
	case key.Matches(msg, m.keymap.Next):
		s.focus = (s.focus + 1) % expenseFieldCount
		return s.focusInputs(), nil
	case key.Matches(msg, m.keymap.Prev):
		s.focus = (s.focus + expenseFieldCount - 1) % expenseFieldCount
		return s.focusInputs(), nil
	case s.focus == expenseFieldCategory && key.Matches(msg, m.keymap.Left):
		s.category = (s.category + len(categories) - 1) % len(categories)
		return s, nil
	case s.focus == expenseFieldCategory && key.Matches(msg, m.keymap.Right):
		s.category = (s.category + 1) % len(categories)
		return s, nil
	case s.focus == expenseFieldPayer && key.Matches(msg, m.keymap.Left):
		return s.cyclePayer(-1), nil
	case s.focus == expenseFieldPayer && key.Matches(msg, m.keymap.Right):
		return s.cyclePayer(1), nil
	case key.Matches(msg, m.keymap.Select):
		form := s.form()
		return s, s.run(m, opSubmitExpense, func(ctx context.Context) error { return s.ctrl.SubmitExpense(ctx, form) })
	}

	if s.focus > expenseFieldAmount {
		return s, nil
	}
	var cmd tea.Cmd
	s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
	return s, cmd
}

func (s groupScreen) handleMemberKey(m Model, msg tea.KeyMsg) (groupScreen, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Back):
		s.mode = modeBrowse
		s.memberInput.Blur()
		return s, nil
	case key.Matches(msg, m.keymap.Select):
		email := s.memberInput.Value()
		return s, s.run(m, opAddMember, func(ctx context.Context) error { return s.ctrl.AddMember(ctx, email) })
	}
	var cmd tea.Cmd
	s.memberInput, cmd = s.memberInput.Update(msg)
	return s, cmd
}

func (s groupScreen) handleConfirmKey(m Model, msg tea.KeyMsg) (groupScreen, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Confirm):
		id := s.deleteID
		s.mode = modeBrowse
		s.deleteID = ""
		return s, s.run(m, opDeleteExpense, func(ctx context.Context) error { return s.ctrl.DeleteExpense(ctx, id) })
	case key.Matches(msg, m.keymap.Deny):
		s.mode = modeBrowse
		s.deleteID = ""
	}
	return s, nil
}

// export downloads the report and saves it under the report directory.
func (s groupScreen) export(m Model) tea.Cmd {
	ctrl, ctx, epoch, dir, notifier := s.ctrl, m.ctx, m.epoch, m.config.ReportDir, m.bridge
	return func() tea.Msg {
		report, err := ctrl.ExportReport(ctx)
		if err != nil {
			return exportMsg{epoch: epoch, err: err}
		}
		path, err := saveReport(dir, report)
		if err != nil {
			notifier.Notify(notify.Toast{Level: notify.Failure, Message: errorMessage(err, ledger.MsgExportFailed)})
			return exportMsg{epoch: epoch, err: err}
		}
		return exportMsg{epoch: epoch, path: path}
	}
}

func saveReport(dir string, report ledger.Report) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", common.NewUserError("Could not create "+dir, err)
	}
	path := filepath.Join(dir, report.Filename)
	if err := os.WriteFile(path, report.Data, 0o600); err != nil {
		return "", common.NewUserError("Could not write "+path, err)
	}
	return path, nil
}

func (s groupScreen) handleResult(m Model, msg tea.Msg) (groupScreen, tea.Cmd) {
	if s.ctrl == nil {
		return s, nil
	}

	switch msg := msg.(type) {
	case ledgerMsg:
		if msg.epoch != m.epoch {
			return s, nil
		}
		switch {
		case msg.op == opSubmitExpense && msg.err == nil:
			s.mode = modeBrowse
			s = s.focusInputs()
		case msg.op == opAddMember && msg.err == nil:
			s.mode = modeBrowse
			s.memberInput.Reset()
			s.memberInput.Blur()
		}
	case exportMsg:
		if msg.epoch != m.epoch {
			return s, nil
		}
		if msg.err == nil {
			s.exported = msg.path
		}
	}

	s.current = s.ctrl.View()
	for tab := tabExpenses; tab < tabCount; tab++ {
		if s.cursors[tab] >= s.listLen(tab) {
			s.cursors[tab] = max(s.listLen(tab)-1, 0)
		}
	}
	return s, nil
}

func toastCmd(level notify.Level, message string) tea.Cmd {
	t := notify.Toast{Level: level, Message: message}
	return func() tea.Msg { return toastMsg{toast: t} }
}

func (s groupScreen) view(m Model) string {
	snap := s.current.Snapshot
	if snap == nil {
		if s.current.Status == ledger.StatusError {
			return lipgloss.JoinVertical(lipgloss.Left,
				m.theme.StatusError.Render(ledger.MsgLoadFailed),
				m.theme.Help.Render(helpLine(m.keymap.Refresh, m.keymap.Back)))
		}
		return m.spinner.View() + " Loading group..."
	}

	switch s.mode {
	case modeExpenseForm:
		return s.expenseFormView(m)
	case modeMemberForm:
		return m.theme.Card.Render(lipgloss.JoinVertical(lipgloss.Left,
			m.theme.Title.Render("Add Member"),
			m.theme.Subtitle.Render("Email"),
			s.memberInput.View(),
			"",
			m.theme.Help.Render("Enter add • Esc cancel")))
	}

	g := snap.Group
	header := []string{
		m.theme.Title.Render(themes.GetCategoryIcon(string(g.Category)) + " " + g.Name),
	}
	if g.Description != "" {
		header = append(header, m.theme.Subtitle.Render(g.Description))
	}
	header = append(header, m.theme.Help.Render(cli.MemberCount(len(g.Members))))

	var tabs []string
	for tab := tabExpenses; tab < tabCount; tab++ {
		label := fmt.Sprintf("%s (%d)", tab, s.listLen(tab))
		if tab == s.tab {
			tabs = append(tabs, m.theme.TabActive.Render(label))
		} else {
			tabs = append(tabs, m.theme.TabInactive.Render(label))
		}
	}

	sections := []string{
		strings.Join(header, "\n"),
		cli.SummaryCards(snap.Summary),
		strings.Join(tabs, " "),
		s.listView(m),
	}
	if s.mode == modeConfirmDelete {
		sections = append(sections, m.theme.StatusError.Render("Delete this expense? (y/n)"))
	}
	if s.exported != "" {
		sections = append(sections, m.theme.Help.Render("Last report: "+s.exported))
	}
	sections = append(sections, m.theme.Help.Render(s.helpView(m)))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (s groupScreen) listView(m Model) string {
	snap := s.current.Snapshot
	cursor := s.cursors[s.tab]
	mark := func(i int, row string) string {
		if i == cursor {
			return m.theme.Selected.Render("▸ ") + row
		}
		return "  " + row
	}

	var rows []string
	switch s.tab {
	case tabExpenses:
		if len(snap.Expenses) == 0 {
			return m.theme.Subtitle.Render("No expenses yet")
		}
		for i, e := range snap.Expenses {
			rows = append(rows, mark(i, themes.GetCategoryIcon(string(e.Category))+" "+cli.ExpenseItem(e)))
		}
	case tabSettlements:
		if len(snap.Settlements) == 0 {
			return m.theme.Subtitle.Render("All settled up!")
		}
		for i, st := range snap.Settlements {
			rows = append(rows, mark(i, cli.SettlementCard(st)))
		}
	case tabMembers:
		for i, mem := range snap.Group.Members {
			rows = append(rows, mark(i, cli.MemberItem(mem)))
		}
	}
	return strings.Join(rows, "\n")
}

func (s groupScreen) helpView(m Model) string {
	k := m.keymap
	switch s.tab {
	case tabExpenses:
		return helpLine(k.AddExpense, k.EditExpense, k.Delete, k.NextTab, k.Export, k.Back)
	case tabSettlements:
		return helpLine(k.Settle, k.AddExpense, k.NextTab, k.Export, k.Back)
	default:
		return helpLine(k.AddMember, k.AddExpense, k.NextTab, k.Export, k.Back)
	}
}

func (s groupScreen) expenseFormView(m Model) string {
	label := func(field int, text string) string {
		if field == s.focus {
			return m.theme.Selected.Render(text)
		}
		return m.theme.Subtitle.Render(text)
	}

	var categories []string
	for i, c := range model.ExpenseCategories() {
		text := themes.GetCategoryIcon(string(c)) + " " + string(c)
		if i == s.category {
			categories = append(categories, m.theme.TabActive.Render(text))
		} else {
			categories = append(categories, m.theme.TabInactive.Render(text))
		}
	}

	payer := "Select who paid"
	for _, mem := range s.members() {
		if mem.User.ID == s.paidBy {
			payer = mem.User.DisplayName()
		}
	}

	title := "Add Expense"
	if s.current.Editing() {
		title = "Edit Expense"
	}

	rows := []string{
		m.theme.Title.Render(title),
		label(expenseFieldDescription, "Description"),
		s.inputs[expenseFieldDescription].View(),
		label(expenseFieldAmount, "Amount"),
		s.inputs[expenseFieldAmount].View(),
		label(expenseFieldCategory, "Category"),
		strings.Join(categories, " "),
		label(expenseFieldPayer, "Paid by"),
		"◂ " + payer + " ▸",
		"",
		m.theme.Help.Render(fmt.Sprintf("Split equally between %d members", len(s.members()))),
	}
	if amount, err := s.form().Validate(); err == nil && len(s.members()) > 0 {
		share := amount.DivRound(decimal.NewFromInt(int64(len(s.members()))), 2)
		rows = append(rows, m.theme.Help.Render("Each pays about "+format.Currency(share)))
	}
	rows = append(rows, "", m.theme.Help.Render("Tab next field • ←/→ choose • Enter save • Esc cancel"))
	return m.theme.Card.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
