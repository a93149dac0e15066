// Package testing provides test utilities for TUI models.
package testing

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Driver feeds messages to a model and runs the commands it returns
// synchronously, feeding their results back until nothing is left.
// Models under test must not return commands that block.
type Driver struct {
	Model tea.Model

	// Pump, when set, is called after every update and may return
	// messages produced outside of commands, such as bus notifications.
	Pump func() []tea.Msg

	// Messages contains every message delivered to the model.
	Messages []tea.Msg

	// Quit is set once the model returned tea.Quit.
	Quit bool
}

// NewDriver wraps model and runs its Init command.
func NewDriver(model tea.Model, pump func() []tea.Msg) *Driver {
	d := &Driver{Model: model, Pump: pump}
	d.run(model.Init())
	d.drainPump()
	return d
}

// Send delivers msgs in order, settling after each one.
func (d *Driver) Send(msgs ...tea.Msg) *Driver {
	for _, msg := range msgs {
		d.deliver(msg)
	}
	return d
}

// View returns the model's current view.
func (d *Driver) View() string {
	return d.Model.View()
}

// PlainView returns the view without ANSI codes.
func (d *Driver) PlainView() string {
	return StripANSI(d.Model.View())
}

func (d *Driver) deliver(msg tea.Msg) {
	if d.Quit {
		return
	}
	if _, ok := msg.(tea.QuitMsg); ok {
		d.Quit = true
		return
	}

	d.Messages = append(d.Messages, msg)
	var cmd tea.Cmd
	d.Model, cmd = d.Model.Update(msg)
	d.run(cmd)
	d.drainPump()
}

func (d *Driver) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			d.run(c)
		}
		return
	}
	if msg != nil {
		d.deliver(msg)
	}
}

func (d *Driver) drainPump() {
	if d.Pump == nil {
		return
	}
	for _, msg := range d.Pump() {
		d.deliver(msg)
	}
}
