package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// Prompter asks questions on a terminal. Reads honor context cancellation.
type Prompter struct {
	reader *bufio.Reader
	writer io.Writer
	secret func() ([]byte, error)
	readMu sync.Mutex
}

// NewPrompter creates a prompter over in and out. When in is a terminal,
// secrets are read without echo.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}

	p := &Prompter{
		reader: bufio.NewReader(in),
		writer: out,
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		p.secret = func() ([]byte, error) { return term.ReadPassword(fd) }
	}
	return p
}

// Ask prints label and returns the trimmed answer.
func (p *Prompter) Ask(ctx context.Context, label string) (string, error) {
	if _, err := fmt.Fprint(p.writer, FormatPrompt(label)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	return p.readLine(ctx)
}

// AskSecret is Ask without echo on a terminal.
func (p *Prompter) AskSecret(ctx context.Context, label string) (string, error) {
	if p.secret == nil {
		return p.Ask(ctx, label)
	}
	if _, err := fmt.Fprint(p.writer, FormatPrompt(label)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	value, err := p.read(ctx, func() (string, error) {
		b, err := p.secret()
		return string(b), err
	})
	_, _ = fmt.Fprintln(p.writer)
	return strings.TrimSpace(value), err
}

// Confirm asks a yes/no question. Anything but y or yes is no.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	answer, err := p.Ask(ctx, question+" [y/N]")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (p *Prompter) readLine(ctx context.Context) (string, error) {
	line, err := p.read(ctx, func() (string, error) {
		return p.reader.ReadString('\n')
	})
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// read runs fn in a goroutine so a canceled context returns immediately.
// The goroutine finishes whenever the underlying read does.
func (p *Prompter) read(ctx context.Context, fn func() (string, error)) (string, error) {
	if ctx.Err() != nil {
		return "", ErrInputCancelled
	}

	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		p.readMu.Lock()
		defer p.readMu.Unlock()

		value, err := fn()
		resultCh <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-resultCh:
		return res.value, res.err
	}
}
