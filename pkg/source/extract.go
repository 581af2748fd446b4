package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/coolbeans/bipart/pkg/pages"
)

// Config configures an Extractor.
type Config struct {
	Parser  *pages.Parser
	Emitter Emitter
	Logger  *Logger

	// Stdin is read when no source is named. Nil selects os.Stdin.
	Stdin io.Reader

	// AllowEmpty downgrades "no table found" to a warning when more than one
	// source is given. A run that finds no table at all still fails.
	AllowEmpty bool
}

// Extractor runs sources through the parser and emits their tables.
type Extractor struct {
	parser     *pages.Parser
	emitter    Emitter
	log        *Logger
	stdin      io.Reader
	allowEmpty bool
}

// NewExtractor creates an Extractor from cfg.
func NewExtractor(cfg Config) *Extractor {
	e := &Extractor{
		parser:     cfg.Parser,
		emitter:    cfg.Emitter,
		log:        cfg.Logger,
		stdin:      cfg.Stdin,
		allowEmpty: cfg.AllowEmpty,
	}
	if e.log == nil {
		e.log = NewLogger(io.Discard, false)
	}
	if e.parser == nil {
		e.parser = pages.NewParser(pages.Options{Logger: e.log})
	}
	if e.stdin == nil {
		e.stdin = os.Stdin
	}
	return e
}

// Run opens every source, then parses and emits them in order. It stops at
// the first fatal error; tables already emitted for earlier sources stay
// written. It returns the number of tables emitted.
func (e *Extractor) Run(ctx context.Context, names []string) (int, error) {
	inputs, err := OpenAll(names, e.stdin)
	if err != nil {
		return 0, err
	}
	defer CloseAll(inputs)

	total := 0
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		n, err := e.extract(in)
		if err != nil {
			if len(inputs) > 1 && e.allowEmpty && isNoTable(err) {
				e.log.Warnf("%v", err)
				continue
			}
			return total, err
		}
		total += n
	}

	if total == 0 {
		return 0, &pages.NoTableFoundError{}
	}
	return total, nil
}

// ExtractFile parses and emits a single named file.
func (e *Extractor) ExtractFile(path string) (int, error) {
	inputs, err := OpenAll([]string{path}, nil)
	if err != nil {
		return 0, err
	}
	defer CloseAll(inputs)
	return e.extract(inputs[0])
}

func (e *Extractor) extract(in *Input) (int, error) {
	e.log.Debugf("reading %s", in.DisplayName())

	res, err := e.parser.Parse(in.r, in.Name)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", in.DisplayName(), err)
	}

	if len(res.Tables) == 0 {
		if res.Found {
			e.log.Debugf("%s: a table was started but never completed", in.DisplayName())
		}
		return 0, &pages.NoTableFoundError{Source: in.Name}
	}

	if err := e.emitter.Emit(res.Tables); err != nil {
		return 0, fmt.Errorf("writing tables from %s: %w", in.DisplayName(), err)
	}
	e.log.Debugf("%s: %d tables written", in.DisplayName(), len(res.Tables))
	return len(res.Tables), nil
}

func isNoTable(err error) bool {
	return errors.Is(err, pages.ErrNoTableFound)
}
