// Package source feeds input files or standard input through the page
// reassembly parser and writes the reassembled tables to an output stream.
package source

import (
	"fmt"
	"io"
	"os"
)

// SourceOpenError reports a named input that could not be opened.
type SourceOpenError struct {
	Source string
	Err    error
}

func (e *SourceOpenError) Error() string {
	return fmt.Sprintf("cannot open %s: %v", e.Source, e.Err)
}

func (e *SourceOpenError) Unwrap() error {
	return e.Err
}

// Input is one opened source. Name is empty for standard input.
type Input struct {
	Name   string
	r      io.Reader
	closer io.Closer
}

// DisplayName returns the name used in diagnostics.
func (in *Input) DisplayName() string {
	if in.Name == "" {
		return "<stdin>"
	}
	return in.Name
}

// Named reports whether the input is a named file.
func (in *Input) Named() bool {
	return in.Name != ""
}

// Close closes the underlying file, if any.
func (in *Input) Close() error {
	if in.closer == nil {
		return nil
	}
	return in.closer.Close()
}

// OpenAll opens every named source before any of them is read. With no
// names, stdin is the single source. On failure every file opened so far
// is closed and a *SourceOpenError is returned.
func OpenAll(names []string, stdin io.Reader) ([]*Input, error) {
	if len(names) == 0 {
		return []*Input{{r: stdin}}, nil
	}

	inputs := make([]*Input, 0, len(names))
	for _, name := range names {
		f, err := os.Open(name)
		if err != nil {
			CloseAll(inputs)
			return nil, &SourceOpenError{Source: name, Err: err}
		}
		inputs = append(inputs, &Input{Name: name, r: f, closer: f})
	}
	return inputs, nil
}

// CloseAll closes every input, ignoring errors.
func CloseAll(inputs []*Input) {
	for _, in := range inputs {
		_ = in.Close()
	}
}
