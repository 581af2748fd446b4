// Package pages reassembles bipartition tables that a phylogenetic program
// split across several horizontally paginated blocks.
//
// Each page repeats the table's rows with the next slice of columns. A page
// is a run of header lines closed by a dashed separator, followed by one row
// fragment per table row and a blank line. The last page is recognized by
// the "Freq %" label in its header; its rows also carry the count and
// percentage columns.
package pages

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/coolbeans/bipart/pkg/pattern"
)

// State is a state of the page reassembly machine.
type State int

const (
	StateIdle State = iota
	StateReadingHeader
	StateReadingTable
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReadingHeader:
		return "reading-header"
	case StateReadingTable:
		return "reading-table"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// maxLineSize bounds a single input line; paginated tables are wide.
const maxLineSize = 16 * 1024 * 1024

// Logger receives diagnostics from the parser.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}

// Options configures a Parser.
type Options struct {
	// Patterns classifies input lines. Nil selects pattern.Default().
	Patterns *pattern.Set

	// LenientEOF seals a table whose last page is still open when input
	// ends, even if that page never carried the final-page label, and
	// drops a table cut off inside a header with a warning. Without it
	// both situations are structural errors.
	LenientEOF bool

	// Logger receives debug and warning lines. Nil discards them.
	Logger Logger
}

// Parser extracts bipartition tables from a line stream.
type Parser struct {
	patterns   *pattern.Set
	lenientEOF bool
	log        Logger
}

// NewParser creates a Parser from opts.
func NewParser(opts Options) *Parser {
	p := &Parser{
		patterns:   opts.Patterns,
		lenientEOF: opts.LenientEOF,
		log:        opts.Logger,
	}
	if p.patterns == nil {
		p.patterns = pattern.Default()
	}
	if p.log == nil {
		p.log = nopLogger{}
	}
	return p
}

// Result is the outcome of parsing one source.
type Result struct {
	Tables []*Table

	// Found is set once a start-of-table marker was seen, even if no
	// table was completed.
	Found bool
}

// Parse reads r to the end and returns every table it contains. source
// names the input in diagnostics and in the returned tables. Any
// structural error aborts the whole source and no tables are returned.
func (p *Parser) Parse(r io.Reader, source string) (*Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	m := newMachine(p, source)
	for scanner.Scan() {
		if err := m.feed(strings.TrimRight(scanner.Text(), "\r")); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", displayName(source), err)
	}
	if err := m.finish(); err != nil {
		return nil, err
	}

	return &Result{Tables: m.tables, Found: m.found}, nil
}

// machine holds the per-source state of one Parse call.
type machine struct {
	p      *Parser
	source string

	state  State
	lineNo int
	found  bool
	tables []*Table

	// current table
	startLine int
	pages     int
	header    []string
	rows      []string

	// current page
	cur page
}

func newMachine(p *Parser, source string) *machine {
	return &machine{p: p, source: source, state: StateIdle}
}

func (m *machine) errorf(text, format string, args ...any) error {
	return &StructuralParseError{Line: m.lineNo, Msg: fmt.Sprintf(format, args...), Text: text}
}

func (m *machine) feed(line string) error {
	m.lineNo++
	ps := m.p.patterns

	switch m.state {
	case StateIdle:
		if ps.IsStart(line) {
			m.p.log.Debugf("%s:%d: bipartition table starts", displayName(m.source), m.lineNo)
			m.found = true
			m.startLine = m.lineNo
			m.pages = 0
			m.header = nil
			m.rows = nil
			m.cur = page{}
			m.state = StateReadingHeader
		}

	case StateReadingHeader:
		if pattern.IsBlank(line) {
			return nil
		}
		if frag, final, ok := ps.MatchHeader(line); ok {
			m.cur.header = append(m.cur.header, frag)
			if final {
				m.cur.final = true
			}
			return nil
		}
		if ps.IsSeparator(line) {
			m.header = mergeHeader(m.header, m.cur.header)
			m.state = StateReadingTable
			return nil
		}
		return m.errorf(line, "expected a header row or separator")

	case StateReadingTable:
		if pattern.IsBlank(line) {
			return m.closePage()
		}
		frag, ok := ps.MatchRow(line, m.cur.final)
		if !ok {
			if m.cur.final {
				return m.errorf(line, "expected a table row with frequency columns")
			}
			return m.errorf(line, "expected a table row")
		}
		m.cur.rows = append(m.cur.rows, frag)
	}

	return nil
}

// closePage joins the rows of the current page into the table and either
// seals it or waits for the next page.
func (m *machine) closePage() error {
	if m.pages > 0 {
		if len(m.cur.rows) != len(m.rows) {
			return m.errorf("", "number of rows differs from previous pages (%d, want %d)",
				len(m.cur.rows), len(m.rows))
		}
		for i, frag := range m.cur.rows {
			m.rows[i] += frag
		}
	} else {
		m.rows = m.cur.rows
	}
	m.pages++

	m.p.log.Debugf("%s:%d: page %d closed with %d rows (final=%t)",
		displayName(m.source), m.lineNo, m.pages, len(m.cur.rows), m.cur.final)

	if m.cur.final {
		m.seal()
		m.state = StateIdle
		return nil
	}

	m.cur = page{}
	m.state = StateReadingHeader
	return nil
}

func (m *machine) seal() {
	t := &Table{
		Source:    m.source,
		StartLine: m.startLine,
		Pages:     m.pages,
		Header:    m.header,
		Separator: strings.Repeat("-", headerWidth(m.header)),
		Rows:      m.rows,
	}
	if t.Rows == nil {
		t.Rows = []string{}
	}
	m.tables = append(m.tables, t)
	m.header, m.rows, m.cur = nil, nil, page{}
}

// finish handles end of input.
func (m *machine) finish() error {
	switch m.state {
	case StateReadingTable:
		if !m.cur.final {
			if !m.p.lenientEOF {
				return m.errorf("", "input ended before the final page")
			}
			m.p.log.Warnf("%s: table at line %d ended without a final page; sealing it",
				displayName(m.source), m.startLine)
			m.cur.final = true
		}
		return m.closePage()

	case StateReadingHeader:
		if !m.p.lenientEOF {
			if m.pages > 0 && len(m.cur.header) == 0 {
				return m.errorf("", "input ended before the final page")
			}
			return m.errorf("", "input ended inside a table header")
		}
		m.p.log.Warnf("%s: table at line %d ended inside a header; dropping it",
			displayName(m.source), m.startLine)
		m.state = StateIdle
	}
	return nil
}

func displayName(source string) string {
	if source == "" {
		return "<stdin>"
	}
	return source
}
