package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/coolbeans/bipart/pkg/pages"
)

const singleTable = `Bipartitions found
1  2    Freq   %
----
**   5   50.0%
.*   3   30.0%

`

const twoPageTable = `unrelated preamble
Bipartitions found in one or more trees and frequency of occurrence:
123
---
.**
..*

4  Freq  %
----------
*   9   90.0%
.   4   40.0%

`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func newTestExtractor(t *testing.T, out *bytes.Buffer, diag *bytes.Buffer, allowEmpty bool, stdin string) *Extractor {
	t.Helper()
	emitter, err := NewEmitter(FormatText, out, false)
	if err != nil {
		t.Fatalf("NewEmitter() error = %v", err)
	}
	log := NewLogger(diag, false)
	log.SetColor(false)
	return NewExtractor(Config{
		Parser:     pages.NewParser(pages.Options{Logger: log}),
		Emitter:    emitter,
		Logger:     log,
		Stdin:      strings.NewReader(stdin),
		AllowEmpty: allowEmpty,
	})
}

func TestRunStdin(t *testing.T) {
	var out, diag bytes.Buffer
	e := newTestExtractor(t, &out, &diag, false, singleTable)

	n, err := e.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Run() = %d tables, want 1", n)
	}
	if want := "**   5   50.0%\n.*   3   30.0%\n\n"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestRunStdinNoTable(t *testing.T) {
	var out, diag bytes.Buffer
	e := newTestExtractor(t, &out, &diag, false, "no tables\nin here\n")

	_, err := e.Run(context.Background(), nil)
	var nerr *pages.NoTableFoundError
	if !errors.As(err, &nerr) {
		t.Fatalf("Run() error = %v, want *NoTableFoundError", err)
	}
	if nerr.Source != "" {
		t.Errorf("Source = %q, want empty for stdin", nerr.Source)
	}
	if out.Len() != 0 {
		t.Errorf("output = %q, want none", out.String())
	}
}

func TestRunMultipleFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.log", singleTable)
	b := writeFile(t, dir, "b.log", twoPageTable+singleTable)

	var out, diag bytes.Buffer
	e := newTestExtractor(t, &out, &diag, false, "")

	n, err := e.Run(context.Background(), []string{b, a})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Run() = %d tables, want 3", n)
	}

	want := strings.Join([]string{
		".***   9   90.0%",
		"..*.   4   40.0%",
		"",
		"**   5   50.0%",
		".*   3   30.0%",
		"",
		"**   5   50.0%",
		".*   3   30.0%",
		"",
	}, "\n") + "\n"
	if out.String() != want {
		t.Errorf("output =\n%s\nwant\n%s", out.String(), want)
	}
}

func TestRunNamedSourceWithoutTable(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.log", singleTable)
	empty := writeFile(t, dir, "empty.log", "nothing\n")

	var out, diag bytes.Buffer
	e := newTestExtractor(t, &out, &diag, false, "")

	_, err := e.Run(context.Background(), []string{good, empty})
	if !errors.Is(err, pages.ErrNoTableFound) {
		t.Fatalf("Run() error = %v, want ErrNoTableFound", err)
	}
	if !strings.Contains(err.Error(), "empty.log") {
		t.Errorf("error %q does not name the source", err)
	}
	if !strings.HasPrefix(out.String(), "**   5   50.0%") {
		t.Errorf("tables of earlier sources must stay written, got %q", out.String())
	}
}

func TestRunAllowEmpty(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.log", singleTable)
	empty := writeFile(t, dir, "empty.log", "nothing\n")

	var out, diag bytes.Buffer
	e := newTestExtractor(t, &out, &diag, true, "")

	n, err := e.Run(context.Background(), []string{empty, good})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Run() = %d, want 1", n)
	}
	if !strings.Contains(diag.String(), "warning: no bipartition table found in "+empty) {
		t.Errorf("diagnostics = %q, want a warning naming %s", diag.String(), empty)
	}
}

func TestRunAllowEmptyStillFailsForSoleSource(t *testing.T) {
	dir := t.TempDir()
	empty := writeFile(t, dir, "empty.log", "nothing\n")

	var out, diag bytes.Buffer
	e := newTestExtractor(t, &out, &diag, true, "")

	if _, err := e.Run(context.Background(), []string{empty}); !errors.Is(err, pages.ErrNoTableFound) {
		t.Errorf("Run() error = %v, want ErrNoTableFound", err)
	}
}

func TestRunAllowEmptyNothingFound(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.log", "nothing\n")
	b := writeFile(t, dir, "b.log", "still nothing\n")

	var out, diag bytes.Buffer
	e := newTestExtractor(t, &out, &diag, true, "")

	_, err := e.Run(context.Background(), []string{a, b})
	var nerr *pages.NoTableFoundError
	if !errors.As(err, &nerr) || nerr.Source != "" {
		t.Errorf("Run() error = %v, want generic NoTableFoundError", err)
	}
}

func TestRunOpenErrorBeforeParsing(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.log", singleTable)
	missing := filepath.Join(dir, "missing.log")

	var out, diag bytes.Buffer
	e := newTestExtractor(t, &out, &diag, false, "")

	_, err := e.Run(context.Background(), []string{good, missing})
	var oerr *SourceOpenError
	if !errors.As(err, &oerr) {
		t.Fatalf("Run() error = %v, want *SourceOpenError", err)
	}
	if oerr.Source != missing {
		t.Errorf("Source = %q, want %q", oerr.Source, missing)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("errors.Is(err, os.ErrNotExist) = false for %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("output = %q, want nothing before all sources are open", out.String())
	}
}

func TestRunStructuralErrorNamesSourceAndLine(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.log", "Bipartitions found\n12\n--\n**\n.*\n\n3 Freq %\n-\n*   1   10.0%\n\n")

	var out, diag bytes.Buffer
	e := newTestExtractor(t, &out, &diag, false, "")

	_, err := e.Run(context.Background(), []string{bad})
	var perr *pages.StructuralParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Run() error = %v, want *StructuralParseError", err)
	}
	if perr.Line != 10 {
		t.Errorf("Line = %d, want 10", perr.Line)
	}
	if !strings.HasPrefix(err.Error(), bad+": line 10") {
		t.Errorf("Error() = %q", err.Error())
	}
	if out.Len() != 0 {
		t.Errorf("output = %q, want none", out.String())
	}
}

func TestRunCanceled(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.log", singleTable)

	var out, diag bytes.Buffer
	e := newTestExtractor(t, &out, &diag, false, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Run(ctx, []string{a}); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestExtractFile(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.log", twoPageTable)

	var out, diag bytes.Buffer
	e := newTestExtractor(t, &out, &diag, false, "")

	n, err := e.ExtractFile(a)
	if err != nil || n != 1 {
		t.Fatalf("ExtractFile() = (%d, %v), want (1, nil)", n, err)
	}
	if !strings.HasPrefix(out.String(), ".***   9   90.0%\n") {
		t.Errorf("output = %q", out.String())
	}
}

func TestTextEmitterWithHeader(t *testing.T) {
	var out bytes.Buffer
	emitter, err := NewEmitter(FormatText, &out, true)
	if err != nil {
		t.Fatalf("NewEmitter() error = %v", err)
	}

	table := &pages.Table{
		Header:    []string{"12 Freq %"},
		Separator: "---------",
		Rows:      []string{"**   1   10.0%"},
	}
	if err := emitter.Emit([]*pages.Table{table}); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if err := emitter.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if want := "12 Freq %\n---------\n**   1   10.0%\n\n"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestJSONEmitter(t *testing.T) {
	var out bytes.Buffer
	emitter, err := NewEmitter(FormatJSON, &out, false)
	if err != nil {
		t.Fatalf("NewEmitter() error = %v", err)
	}

	tables := []*pages.Table{
		{Source: "a.log", StartLine: 3, Pages: 2, Header: []string{"1"}, Separator: "-", Rows: []string{"*"}},
		{Source: "a.log", StartLine: 9, Pages: 1, Header: []string{"2"}, Separator: "-", Rows: []string{"."}},
	}
	if err := emitter.Emit(tables); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d JSON lines, want 2", len(lines))
	}
	var got pages.Table
	if err := json.Unmarshal([]byte(lines[1]), &got); err != nil {
		t.Fatalf("decoding JSON: %v", err)
	}
	if got.StartLine != 9 || got.Rows[0] != "." {
		t.Errorf("decoded table = %+v", got)
	}
}

func TestYAMLEmitter(t *testing.T) {
	var out bytes.Buffer
	emitter, err := NewEmitter(FormatYAML, &out, false)
	if err != nil {
		t.Fatalf("NewEmitter() error = %v", err)
	}

	table := &pages.Table{Source: "a.log", StartLine: 1, Pages: 1, Header: []string{"1 Freq %"}, Separator: "--------", Rows: []string{"*   1   10.0%"}}
	if err := emitter.Emit([]*pages.Table{table}); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if err := emitter.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	var got pages.Table
	if err := yaml.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decoding YAML: %v", err)
	}
	if got.Rows[0] != "*   1   10.0%" || got.Source != "a.log" {
		t.Errorf("decoded table = %+v", got)
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"text", "json", "yaml"} {
		if _, err := ParseFormat(name); err != nil {
			t.Errorf("ParseFormat(%q) error = %v", name, err)
		}
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Error("ParseFormat(\"csv\") should return error")
	}
}

func TestLogger(t *testing.T) {
	var diag bytes.Buffer
	log := NewLogger(&diag, false)
	log.SetColor(false)

	log.Debugf("hidden %d", 1)
	log.Warnf("careful %s", "now")
	if diag.String() != "warning: careful now\n" {
		t.Errorf("diagnostics = %q", diag.String())
	}

	diag.Reset()
	verbose := NewLogger(&diag, true)
	verbose.SetColor(false)
	verbose.Debugf("shown %d\n", 2)
	if diag.String() != "debug: shown 2\n" {
		t.Errorf("diagnostics = %q", diag.String())
	}
	if !verbose.Verbose() || log.Verbose() {
		t.Error("Verbose() does not reflect configuration")
	}
}
