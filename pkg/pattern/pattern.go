// Package pattern provides the line classifiers used to recognize paginated
// bipartition tables inside free-form program output.
package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind is the classification of a single input line.
type Kind int

const (
	KindOther Kind = iota
	KindBlank
	KindStart
	KindHeader
	KindFinalHeader
	KindSeparator
	KindPartialRow
	KindFullRow
)

var kindNames = map[Kind]string{
	KindOther:       "other",
	KindBlank:       "blank",
	KindStart:       "start",
	KindHeader:      "header",
	KindFinalHeader: "final-header",
	KindSeparator:   "separator",
	KindPartialRow:  "partial-row",
	KindFullRow:     "full-row",
}

// String returns the kind name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// FinalGroup is the named capture group of the header pattern that carries
// the final-page label.
const FinalGroup = "final"

// Default regular expressions for the PAUP-style "Bipartitions found" report.
const (
	DefaultStart      = `^Bipartitions found`
	DefaultHeader     = `^([\d ]*\d)?(?P<final>\s*Freq\s+%)?\s*$`
	DefaultSeparator  = `^\s*-+\s*$`
	DefaultPartialRow = `^\s*([.*]+)\s*$`
	DefaultFullRow    = `^\s*([.*]+\s+\d+\s+\d+\.\d+%?)\s*$`
)

// Set defines the patterns for every line kind of a bipartition report.
type Set struct {
	Name       string `yaml:"name" json:"name"`
	Start      string `yaml:"start" json:"start"`
	Header     string `yaml:"header" json:"header"`
	Separator  string `yaml:"separator" json:"separator"`
	PartialRow string `yaml:"partial_row" json:"partial_row"`
	FullRow    string `yaml:"full_row" json:"full_row"`

	// Compiled patterns (populated by Compile)
	compiled *CompiledSet
}

// CompiledSet holds the compiled regular expressions of a Set.
type CompiledSet struct {
	Start      *regexp.Regexp
	Header     *regexp.Regexp
	Separator  *regexp.Regexp
	PartialRow *regexp.Regexp
	FullRow    *regexp.Regexp

	finalIndex int
}

// Default returns a compiled copy of the built-in pattern set.
func Default() *Set {
	s := &Set{
		Name:       "paup",
		Start:      DefaultStart,
		Header:     DefaultHeader,
		Separator:  DefaultSeparator,
		PartialRow: DefaultPartialRow,
		FullRow:    DefaultFullRow,
	}
	if err := s.Compile(); err != nil {
		panic(fmt.Sprintf("compiling default patterns: %v", err))
	}
	return s
}

// fillDefaults replaces empty fields with the built-in patterns.
func (s *Set) fillDefaults() {
	if s.Name == "" {
		s.Name = "custom"
	}
	if s.Start == "" {
		s.Start = DefaultStart
	}
	if s.Header == "" {
		s.Header = DefaultHeader
	}
	if s.Separator == "" {
		s.Separator = DefaultSeparator
	}
	if s.PartialRow == "" {
		s.PartialRow = DefaultPartialRow
	}
	if s.FullRow == "" {
		s.FullRow = DefaultFullRow
	}
}

// Compile compiles every pattern in the set.
// Returns an error if any pattern fails to compile or lacks a required group.
func (s *Set) Compile() error {
	compiled := &CompiledSet{}

	fields := []struct {
		name    string
		pattern string
		dst     **regexp.Regexp
	}{
		{"start", s.Start, &compiled.Start},
		{"header", s.Header, &compiled.Header},
		{"separator", s.Separator, &compiled.Separator},
		{"partial_row", s.PartialRow, &compiled.PartialRow},
		{"full_row", s.FullRow, &compiled.FullRow},
	}
	for _, f := range fields {
		re, err := regexp.Compile(f.pattern)
		if err != nil {
			return fmt.Errorf("compiling %s pattern %q: %w", f.name, f.pattern, err)
		}
		*f.dst = re
	}

	compiled.finalIndex = compiled.Header.SubexpIndex(FinalGroup)
	if compiled.finalIndex < 0 {
		return fmt.Errorf("header pattern %q has no (?P<%s>...) group", s.Header, FinalGroup)
	}
	if compiled.PartialRow.NumSubexp() < 1 {
		return fmt.Errorf("partial_row pattern %q needs a capture group", s.PartialRow)
	}
	if compiled.FullRow.NumSubexp() < 1 {
		return fmt.Errorf("full_row pattern %q needs a capture group", s.FullRow)
	}

	s.compiled = compiled
	return nil
}

// IsCompiled returns true if the set has been compiled.
func (s *Set) IsCompiled() bool {
	return s.compiled != nil
}

// Compiled returns the compiled patterns, or nil before Compile.
func (s *Set) Compiled() *CompiledSet {
	return s.compiled
}

// Validate checks that the set has all required fields.
func (s *Set) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("pattern set name is required")
	}
	for name, p := range map[string]string{
		"start":       s.Start,
		"header":      s.Header,
		"separator":   s.Separator,
		"partial_row": s.PartialRow,
		"full_row":    s.FullRow,
	} {
		if p == "" {
			return fmt.Errorf("pattern %s is required", name)
		}
	}
	return nil
}

// IsBlank reports whether the line holds only whitespace.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// IsStart reports whether the line opens a bipartition report.
func (s *Set) IsStart(line string) bool {
	return s.compiled.Start.MatchString(line)
}

// IsSeparator reports whether the line ends a page header.
func (s *Set) IsSeparator(line string) bool {
	return s.compiled.Separator.MatchString(line)
}

// MatchHeader matches a header line. The fragment is the line with trailing
// whitespace removed; final is set when the final-page label is present.
func (s *Set) MatchHeader(line string) (fragment string, final bool, ok bool) {
	m := s.compiled.Header.FindStringSubmatch(line)
	if m == nil {
		return "", false, false
	}
	return strings.TrimRight(line, " \t"), m[s.compiled.finalIndex] != "", true
}

// MatchRow matches a table row using the full row pattern on a final page
// and the partial row pattern otherwise. The fragment is the first group.
func (s *Set) MatchRow(line string, final bool) (fragment string, ok bool) {
	re := s.compiled.PartialRow
	if final {
		re = s.compiled.FullRow
	}
	m := re.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Classify returns the kind of a line. Row kinds are tested after the header
// and separator kinds, so a line of dashes is always a separator.
func (s *Set) Classify(line string) Kind {
	switch {
	case IsBlank(line):
		return KindBlank
	case s.IsStart(line):
		return KindStart
	case s.IsSeparator(line):
		return KindSeparator
	}
	if _, final, ok := s.MatchHeader(line); ok {
		if final {
			return KindFinalHeader
		}
		return KindHeader
	}
	if _, ok := s.MatchRow(line, true); ok {
		return KindFullRow
	}
	if _, ok := s.MatchRow(line, false); ok {
		return KindPartialRow
	}
	return KindOther
}
