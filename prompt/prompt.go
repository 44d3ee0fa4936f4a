// Package prompt asks the user yes/no questions on the terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Confirmer asks a yes/no question, defaulting to no.
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// Terminal reads answers from In and writes questions to Out.
type Terminal struct {
	In  io.Reader
	Out io.Writer

	// Echo writes the answer after reading it. Useful when In is not a
	// terminal, where the user's typing would not appear in the transcript.
	Echo bool

	r *bufio.Reader
}

// NewTerminal returns a Terminal on the process' stdin and stdout.
func NewTerminal() *Terminal {
	return &Terminal{
		In:   os.Stdin,
		Out:  os.Stdout,
		Echo: !term.IsTerminal(int(os.Stdin.Fd())),
	}
}

// Confirm prints question followed by " (y/N): " and reads one line. Only
// "y" or "Y" is a yes. End of input is a no.
func (t *Terminal) Confirm(question string) (bool, error) {
	if t.r == nil {
		t.r = bufio.NewReader(t.In)
	}

	if _, err := fmt.Fprintf(t.Out, "%s (y/N): ", question); err != nil {
		return false, err
	}

	line, err := t.r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading answer: %w", err)
	}

	answer := strings.TrimSpace(line)
	if t.Echo || errors.Is(err, io.EOF) {
		fmt.Fprintln(t.Out, answer) //nolint:errcheck // cosmetic
	}

	return IsYes(answer), nil
}

// IsYes reports whether answer is a "y", ignoring case and surrounding space.
func IsYes(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), "y")
}

// Answers is a Confirmer that replays canned answers, for tests and
// non-interactive use. Questions are recorded. Once the answers run out,
// every further question is answered no.
type Answers struct {
	Replies   []bool
	Questions []string
}

func (a *Answers) Confirm(question string) (bool, error) {
	a.Questions = append(a.Questions, question)
	if len(a.Replies) == 0 {
		return false, nil
	}
	reply := a.Replies[0]
	a.Replies = a.Replies[1:]
	return reply, nil
}
