package settings

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Console is the line-based interactive surface the resolution engine and
// hooks talk to. Prompt blocks until a full line of input is available.
// The colored diagnostic methods are presentation only; implementations may
// ignore the distinction.
type Console interface {
	// Prompt writes text and reads one line of input, with the trailing
	// newline removed. It returns ErrInterrupted when the input stream ends.
	Prompt(text string) (string, error)
	// Notice reports a recoverable problem to the operator.
	Notice(format string, args ...any)
	// Success reports a completed side effect.
	Success(format string, args ...any)
	// Info reports neutral progress or context.
	Info(format string, args ...any)
}

// TermConsole implements Console over an arbitrary reader/writer pair,
// normally stdin/stdout.
type TermConsole struct {
	in  *bufio.Reader
	out io.Writer

	notice  *color.Color
	success *color.Color
	info    *color.Color
}

// NewTermConsole creates a Console reading lines from in and writing
// prompts and diagnostics to out.
func NewTermConsole(in io.Reader, out io.Writer) *TermConsole {
	return &TermConsole{
		in:      bufio.NewReader(in),
		out:     out,
		notice:  color.New(color.FgRed),
		success: color.New(color.FgGreen, color.Bold),
		info:    color.New(color.FgCyan),
	}
}

// Prompt implements Console.
func (c *TermConsole) Prompt(text string) (string, error) {
	if _, err := io.WriteString(c.out, text); err != nil {
		return "", err
	}
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line == "" {
			return "", ErrInterrupted
		}
		if !errors.Is(err, io.EOF) {
			return "", err
		}
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Notice implements Console.
func (c *TermConsole) Notice(format string, args ...any) {
	_, _ = c.notice.Fprintf(c.out, format+"\n", args...)
}

// Success implements Console.
func (c *TermConsole) Success(format string, args ...any) {
	_, _ = c.success.Fprintf(c.out, format+"\n", args...)
}

// Info implements Console.
func (c *TermConsole) Info(format string, args ...any) {
	_, _ = c.info.Fprintf(c.out, format+"\n", args...)
}

// NopConsole is a Console for strictly non-interactive runs. Prompting is a
// caller error surfaced as ErrInterrupted; diagnostics are dropped.
type NopConsole struct{}

// Prompt implements Console.
func (NopConsole) Prompt(text string) (string, error) { return "", ErrInterrupted }

// Notice implements Console.
func (NopConsole) Notice(format string, args ...any) {}

// Success implements Console.
func (NopConsole) Success(format string, args ...any) {}

// Info implements Console.
func (NopConsole) Info(format string, args ...any) {}
