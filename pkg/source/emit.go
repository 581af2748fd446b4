package source

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/coolbeans/bipart/pkg/pages"
)

// Format selects how tables are written.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
}

// Emitter writes the tables of one source. Emit is called once per source,
// in source order.
type Emitter interface {
	Emit(tables []*pages.Table) error
	Close() error
}

// NewEmitter creates an Emitter for format writing to w. withHeader adds the
// reassembled header and separator to text output.
func NewEmitter(format Format, w io.Writer, withHeader bool) (Emitter, error) {
	switch format {
	case FormatText, "":
		return &textEmitter{w: bufio.NewWriter(w), withHeader: withHeader}, nil
	case FormatJSON:
		return &jsonEmitter{enc: json.NewEncoder(w)}, nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		return &yamlEmitter{enc: enc}, nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

// textEmitter writes each row on its own line, one blank line after every
// table.
type textEmitter struct {
	w          *bufio.Writer
	withHeader bool
}

func (e *textEmitter) Emit(tables []*pages.Table) error {
	for _, t := range tables {
		if e.withHeader {
			for _, line := range t.Header {
				fmt.Fprintln(e.w, line)
			}
			fmt.Fprintln(e.w, t.Separator)
		}
		for _, row := range t.Rows {
			fmt.Fprintln(e.w, row)
		}
		fmt.Fprintln(e.w)
	}
	return e.w.Flush()
}

func (e *textEmitter) Close() error {
	return e.w.Flush()
}

// jsonEmitter writes one JSON object per table.
type jsonEmitter struct {
	enc *json.Encoder
}

func (e *jsonEmitter) Emit(tables []*pages.Table) error {
	for _, t := range tables {
		if err := e.enc.Encode(t); err != nil {
			return fmt.Errorf("encoding table: %w", err)
		}
	}
	return nil
}

func (e *jsonEmitter) Close() error {
	return nil
}

// yamlEmitter writes one YAML document per table.
type yamlEmitter struct {
	enc *yaml.Encoder
}

func (e *yamlEmitter) Emit(tables []*pages.Table) error {
	for _, t := range tables {
		if err := e.enc.Encode(t); err != nil {
			return fmt.Errorf("encoding table: %w", err)
		}
	}
	return nil
}

func (e *yamlEmitter) Close() error {
	return e.enc.Close()
}
