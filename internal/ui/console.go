// Package ui holds the terminal side of modelpub: prompts, the operator
// console that answers publish questions, and table rendering.
package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"github.com/kamusis/modelpub/internal/publish"
)

// ErrNotInteractive is returned by a prompt when no operator can answer.
var ErrNotInteractive = errors.New("not an interactive terminal")

// LineReader reads one answer for a prompt.
type LineReader func(prompt string) (string, error)

// Console reports publish feedback on a writer and asks the operator yes/no
// questions. It implements publish.Notifier and publish.OverwriteDecider.
type Console struct {
	out       io.Writer
	read      LineReader
	assumeYes bool
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithAssumeYes answers every question with yes without prompting.
func WithAssumeYes(yes bool) ConsoleOption {
	return func(c *Console) {
		c.assumeYes = yes
	}
}

// WithInput reads answers line by line from r instead of the terminal.
func WithInput(r io.Reader) ConsoleOption {
	return func(c *Console) {
		c.read = readerLines(r)
	}
}

// NewConsole creates a console writing to out. Without WithInput, answers
// come from the terminal, and questions are declined when stdin is not one.
func NewConsole(out io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{out: out, read: terminalLines}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Notify prints fb and, for questions, returns the operator's answer.
func (c *Console) Notify(fb publish.Feedback) bool {
	prefix := ""
	if fb.Severity == publish.SeverityError {
		prefix = "error: "
	}
	if fb.Title != "" {
		fmt.Fprintf(c.out, "[%s] %s%s\n", fb.Title, prefix, fb.Message)
	} else {
		fmt.Fprintf(c.out, "%s%s\n", prefix, fb.Message)
	}
	if !fb.Question {
		return false
	}
	return c.confirm()
}

// ConfirmOverwrite asks whether the existing file name may be replaced.
func (c *Console) ConfirmOverwrite(name string) bool {
	fmt.Fprintf(c.out, "%s already exists on the server. Overwrite it?\n", name)
	return c.confirm()
}

func (c *Console) confirm() bool {
	if c.assumeYes {
		fmt.Fprintln(c.out, "[y/N] y (assumed)")
		return true
	}
	answer, err := c.read("[y/N] ")
	if err != nil {
		if errors.Is(err, ErrNotInteractive) {
			fmt.Fprintln(c.out, "[y/N] n (no terminal, use --yes to accept)")
		}
		return false
	}
	return IsYes(answer)
}

// IsYes reports whether answer is an affirmative reply.
func IsYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func readerLines(r io.Reader) LineReader {
	br := bufio.NewReader(r)
	return func(prompt string) (string, error) {
		line, err := br.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
}

func terminalLines(prompt string) (string, error) {
	if !StdinIsTerminal() {
		return "", ErrNotInteractive
	}
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	answer, err := line.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", nil
		}
		return "", err
	}
	return answer, nil
}

// StdinIsTerminal reports whether an operator can type answers.
func StdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

var (
	_ publish.Notifier         = (*Console)(nil)
	_ publish.OverwriteDecider = (*Console)(nil)
)
