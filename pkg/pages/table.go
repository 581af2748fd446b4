package pages

import "strings"

// Table is a bipartition table reassembled from one or more pages.
type Table struct {
	Source    string   `json:"source,omitempty" yaml:"source,omitempty"`
	StartLine int      `json:"start_line" yaml:"start_line"`
	Pages     int      `json:"pages" yaml:"pages"`
	Header    []string `json:"header" yaml:"header"`
	Separator string   `json:"separator" yaml:"separator"`
	Rows      []string `json:"rows" yaml:"rows"`
}

// page collects the fragments of a single pagination block.
type page struct {
	header []string
	rows   []string
	final  bool
}

// mergeHeader appends the fragments of a new page to the accumulated header.
// Fragments are aligned from the bottom: the last fragment of the page
// extends the last accumulated line. Extra leading fragments become new top
// lines, indented to the width the accumulated header already spans.
func mergeHeader(acc, frags []string) []string {
	if len(acc) == 0 {
		return append([]string(nil), frags...)
	}

	width := headerWidth(acc)
	offset := len(frags) - len(acc)
	if offset > 0 {
		extra := make([]string, offset)
		for i := range extra {
			extra[i] = strings.Repeat(" ", width) + frags[i]
		}
		acc = append(extra, acc...)
		frags = frags[offset:]
		offset = -offset
	}

	// Shorter lines are padded so every page's columns start at the same
	// position regardless of how far the previous fragment reached.
	for i := range acc {
		line := acc[i]
		if pad := width - len(line); pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		if j := i + offset; j >= 0 {
			line += frags[j]
		}
		acc[i] = line
	}
	return acc
}

// headerWidth returns the length of the widest header line.
func headerWidth(header []string) int {
	width := 0
	for _, line := range header {
		if len(line) > width {
			width = len(line)
		}
	}
	return width
}
