package pages

import (
	"errors"
	"fmt"
)

// ErrNoTableFound is matched by every NoTableFoundError.
var ErrNoTableFound = errors.New("no bipartition table found")

// StructuralParseError reports a line that violates the table grammar for
// the parser's current state.
type StructuralParseError struct {
	Line int    // 1-based input line number
	Msg  string // what was expected
	Text string // offending line, empty at end of input
}

func (e *StructuralParseError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Msg, e.Text)
}

// NoTableFoundError reports a source that produced no table. Source is
// empty for standard input.
type NoTableFoundError struct {
	Source string
}

func (e *NoTableFoundError) Error() string {
	if e.Source == "" {
		return ErrNoTableFound.Error()
	}
	return fmt.Sprintf("%s in %s", ErrNoTableFound, e.Source)
}

// Is makes errors.Is(err, ErrNoTableFound) true.
func (e *NoTableFoundError) Is(target error) bool {
	return target == ErrNoTableFound
}
