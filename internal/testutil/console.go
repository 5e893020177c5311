package testutil

import (
	"fmt"
	"strings"

	"github.com/adscale/bq-bootstrap/pkg/settings"
)

// ScriptConsole is a settings.Console fed from a queue of canned inputs,
// recording everything written to it. Exhausting the queue reports
// settings.ErrInterrupted, matching a closed terminal.
type ScriptConsole struct {
	Inputs []string

	Prompts   []string
	Notices   []string
	Successes []string
	Infos     []string
}

var _ settings.Console = (*ScriptConsole)(nil)

// Prompt records the prompt text and dequeues the next canned input.
func (c *ScriptConsole) Prompt(text string) (string, error) {
	c.Prompts = append(c.Prompts, text)
	if len(c.Inputs) == 0 {
		return "", settings.ErrInterrupted
	}
	line := c.Inputs[0]
	c.Inputs = c.Inputs[1:]
	return line, nil
}

// Notice records a diagnostic.
func (c *ScriptConsole) Notice(format string, args ...any) {
	c.Notices = append(c.Notices, fmt.Sprintf(format, args...))
}

// Success records a confirmation.
func (c *ScriptConsole) Success(format string, args ...any) {
	c.Successes = append(c.Successes, fmt.Sprintf(format, args...))
}

// Info records informational output.
func (c *ScriptConsole) Info(format string, args ...any) {
	c.Infos = append(c.Infos, fmt.Sprintf(format, args...))
}

// Noticed reports whether any recorded diagnostic contains substr.
func (c *ScriptConsole) Noticed(substr string) bool {
	for _, n := range c.Notices {
		if strings.Contains(n, substr) {
			return true
		}
	}
	return false
}
