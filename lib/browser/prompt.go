package browser

import (
	"context"
	"io"

	input "github.com/tcnksm/go-input"
)

// Prompter asks the person in front of the browser for a value.
type Prompter interface {
	Prompt(ctx context.Context, query string, secret bool) (string, error)
}

type TerminalPrompter struct {
	ui *input.UI
}

func NewTerminalPrompter(in io.Reader, out io.Writer) TerminalPrompter {
	return TerminalPrompter{ui: &input.UI{Reader: in, Writer: out}}
}

func (p TerminalPrompter) Prompt(ctx context.Context, query string, secret bool) (string, error) {
	type answer struct {
		value string
		err   error
	}
	done := make(chan answer, 1)
	go func() {
		value, err := p.ui.Ask(query, &input.Options{
			Required:  true,
			Loop:      true,
			Mask:      secret,
			HideOrder: true,
		})
		done <- answer{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case a := <-done:
		return a.value, a.err
	}
}
