package source

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Logger writes warnings and, when verbose, debug lines to a diagnostic
// stream kept separate from the table output.
type Logger struct {
	w       io.Writer
	verbose bool
	warn    *color.Color
	debug   *color.Color
}

// NewLogger creates a Logger writing to w.
func NewLogger(w io.Writer, verbose bool) *Logger {
	return &Logger{
		w:       w,
		verbose: verbose,
		warn:    color.New(color.FgYellow),
		debug:   color.New(color.Faint),
	}
}

// SetColor forces colored output on or off.
func (l *Logger) SetColor(enabled bool) {
	for _, c := range []*color.Color{l.warn, l.debug} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
}

// Verbose reports whether debug lines are written.
func (l *Logger) Verbose() bool {
	return l.verbose
}

// Warnf writes a warning line.
func (l *Logger) Warnf(format string, args ...any) {
	l.write(l.warn, "warning: ", format, args...)
}

// Debugf writes a debug line when verbose output is enabled.
func (l *Logger) Debugf(format string, args ...any) {
	if !l.verbose {
		return
	}
	l.write(l.debug, "debug: ", format, args...)
}

func (l *Logger) write(c *color.Color, prefix, format string, args ...any) {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	c.Fprintln(l.w, prefix+msg)
}
