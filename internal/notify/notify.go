// Package notify carries short user-facing status messages from controllers
// to whatever surface displays them.
package notify

import "sync"

// Level distinguishes success toasts from failures.
type Level int

// Toast levels.
const (
	Success Level = iota
	Failure
)

func (l Level) String() string {
	if l == Failure {
		return "error"
	}
	return "success"
}

// Toast is one transient message.
type Toast struct {
	Message string
	Level   Level
}

// Notifier displays toasts.
type Notifier interface {
	Notify(Toast)
}

// Func adapts a function to Notifier.
type Func func(Toast)

// Notify calls f.
func (f Func) Notify(t Toast) {
	f(t)
}

// Discard drops every toast.
var Discard Notifier = Func(func(Toast) {})

// Recorder keeps every toast it receives. It is meant for tests.
type Recorder struct {
	toasts []Toast
	mu     sync.Mutex
}

// Notify records t.
func (r *Recorder) Notify(t Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, t)
}

// Toasts returns a copy of the recorded toasts.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.toasts...)
}

// Messages returns the recorded messages in order.
func (r *Recorder) Messages() []string {
	toasts := r.Toasts()
	out := make([]string, 0, len(toasts))
	for _, t := range toasts {
		out = append(out, t.Message)
	}
	return out
}
