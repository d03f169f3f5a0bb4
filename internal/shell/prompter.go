package shell

import (
	"errors"

	"github.com/ergochat/readline"
)

// Prompter reads one line of input after showing a single line label.
// It returns io.EOF when input is exhausted.
type Prompter interface {
	Prompt(label string) (string, error)
}

// ReadlinePrompter reads from the terminal with line editing and history.
type ReadlinePrompter struct {
	rl *readline.Instance
}

// NewReadlinePrompter creates a terminal prompter (historyFile may be empty).
func NewReadlinePrompter(historyFile string) (*ReadlinePrompter, error) {
	rl, err := readline.NewFromConfig(&readline.Config{
		Prompt:      "> ",
		HistoryFile: historyFile,
	})
	if err != nil {
		return nil, err
	}
	return &ReadlinePrompter{rl: rl}, nil
}

// Prompt shows label and reads a line. Ctrl-C yields an empty line, which cancels the current step.
func (p *ReadlinePrompter) Prompt(label string) (string, error) {
	p.rl.SetPrompt(label)
	line, err := p.rl.ReadLine()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", nil
	}
	return line, err
}

// Close restores the terminal.
func (p *ReadlinePrompter) Close() error {
	return p.rl.Close()
}
