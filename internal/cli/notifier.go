package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/Veraticus/splitflow/internal/notify"
)

// ConsoleNotifier prints toasts as styled lines.
type ConsoleNotifier struct {
	out io.Writer
	mu  sync.Mutex
}

// NewConsoleNotifier writes toasts to out, or stderr when out is nil.
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	if out == nil {
		out = os.Stderr
	}
	return &ConsoleNotifier{out: out}
}

// Notify prints t.
func (n *ConsoleNotifier) Notify(t notify.Toast) {
	line := FormatSuccess(t.Message)
	if t.Level == notify.Failure {
		line = FormatError(t.Message)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintln(n.out, line)
}
