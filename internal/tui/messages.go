package tui

import (
	"github.com/Veraticus/splitflow/internal/guard"
	"github.com/Veraticus/splitflow/internal/model"
	"github.com/Veraticus/splitflow/internal/notify"
	tea "github.com/charmbracelet/bubbletea"
)

// Bus and toast bridge messages.
type authChangedMsg struct{}

type toastMsg struct {
	toast notify.Toast
}

type clearToastMsg struct {
	id int
}

// Every async result below carries the route epoch it was started under.
// Results from an earlier route are dropped.
type guardCheckedMsg struct {
	epoch uint64
	state guard.State
}

type whoamiMsg struct {
	user *model.User
	seq  uint64
}

type authResultMsg struct {
	err      error
	epoch    uint64
	register bool
}

type directoryMsg struct {
	err   error
	epoch uint64
}

type groupCreatedMsg struct {
	err   error
	epoch uint64
}

// ledgerOp names the group action a ledgerMsg reports on.
type ledgerOp int

const (
	opRefresh ledgerOp = iota
	opSubmitExpense
	opDeleteExpense
	opAddMember
	opSettle
)

type ledgerMsg struct {
	err   error
	epoch uint64
	op    ledgerOp
}

type exportMsg struct {
	err   error
	path  string
	epoch uint64
}

// navigateMsg asks the model to leave the current route for path.
type navigateMsg struct {
	path string
}

func navigateTo(path string) tea.Cmd {
	return func() tea.Msg { return navigateMsg{path: path} }
}
