// Package logging builds the process logger and the colored console used for
// human-readable progress lines.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// New returns a slog logger writing text or JSON records at level.
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format: %s", format)
	}
}

// Console prints progress and status lines for a person watching the run.
// It is safe for concurrent use.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	info    *color.Color
	warn    *color.Color
	success *color.Color
}

func NewConsole(out io.Writer, noColor bool) *Console {
	c := &Console{
		out:     out,
		info:    color.New(color.FgCyan),
		warn:    color.New(color.FgYellow, color.Bold),
		success: color.New(color.FgGreen, color.Bold),
	}
	if noColor {
		c.info.DisableColor()
		c.warn.DisableColor()
		c.success.DisableColor()
	}
	return c
}

func (c *Console) Progress(format string, args ...any) { c.print(c.info, format, args) }

func (c *Console) Warn(format string, args ...any) { c.print(c.warn, format, args) }

func (c *Console) Success(format string, args ...any) { c.print(c.success, format, args) }

func (c *Console) print(col *color.Color, format string, args []any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = col.Fprintln(c.out, fmt.Sprintf(format, args...))
}
