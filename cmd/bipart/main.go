package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coolbeans/bipart/pkg/pages"
	"github.com/coolbeans/bipart/pkg/pattern"
	"github.com/coolbeans/bipart/pkg/source"
	"github.com/coolbeans/bipart/pkg/watch"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "bipart:", err)
		os.Exit(1)
	}
}

// options holds the flag values of the root command.
type options struct {
	verbose    bool
	lenientEOF bool
	allowEmpty bool
	withHeader bool
	format     string
	output     string
	patterns   string
	watch      bool
	noColor    bool
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "bipart [file...]",
		Short: "Reassemble paginated bipartition tables",
		Long: `bipart extracts "Bipartitions found" tables from phylogenetic program
output. Wide tables are printed in several horizontal pages; bipart joins
the pages back into complete rows and prints every row on one line,
with a blank line after each table.

Standard input is read when no file is given.

Example:
  bipart run1.log run2.log
  paup -n batch.nex | bipart --header
  bipart --format json --output splits.jsonl run.log
  bipart --watch run.log`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.Context(), opts, args, stdin, stdout, stderr)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Write debug lines to stderr")
	cmd.Flags().BoolVar(&opts.lenientEOF, "lenient-eof", false, "Seal a table whose last page is cut off by end of input")
	cmd.Flags().BoolVar(&opts.allowEmpty, "allow-empty", false, "Only warn about files without a table when several files are given")
	cmd.Flags().BoolVar(&opts.withHeader, "header", false, "Print the reassembled header and separator before the rows")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format (text, json, yaml)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVarP(&opts.patterns, "patterns", "p", "", "YAML file overriding the line patterns")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Re-extract files whenever they change")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored diagnostics")

	cmd.AddCommand(patternsCmd(stdout))
	return cmd
}

func patternsCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "patterns [file]",
		Short: "Print the effective line patterns as YAML",
		Long: `Print the line patterns used to recognize tables. With a file argument
the patterns are loaded from that YAML file, with missing keys taken from
the built-in set. The output can be edited and passed to --patterns.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			set, err := pattern.Load(path)
			if err != nil {
				return fmt.Errorf("loading patterns: %w", err)
			}
			data, err := set.ToYAML()
			if err != nil {
				return fmt.Errorf("encoding patterns: %w", err)
			}
			_, err = stdout.Write(data)
			return err
		},
	}
}

func runExtract(ctx context.Context, opts *options, args []string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	log := source.NewLogger(stderr, opts.verbose)
	if opts.noColor {
		log.SetColor(false)
	}

	if opts.watch && len(args) == 0 {
		return fmt.Errorf("--watch needs at least one file")
	}

	format, err := source.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	out := stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	emitter, err := source.NewEmitter(format, out, opts.withHeader)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := emitter.Close(); err == nil {
			err = cerr
		}
	}()

	newExtractor := func() (*source.Extractor, error) {
		set, err := pattern.Load(opts.patterns)
		if err != nil {
			return nil, fmt.Errorf("loading patterns: %w", err)
		}
		parser := pages.NewParser(pages.Options{
			Patterns:   set,
			LenientEOF: opts.lenientEOF,
			Logger:     log,
		})
		return source.NewExtractor(source.Config{
			Parser:     parser,
			Emitter:    emitter,
			Logger:     log,
			Stdin:      stdin,
			AllowEmpty: opts.allowEmpty,
		}), nil
	}

	extractor, err := newExtractor()
	if err != nil {
		return err
	}

	n, err := extractor.Run(ctx, args)
	if !opts.watch {
		if err != nil {
			return err
		}
		log.Debugf("%d tables written", n)
		return nil
	}
	if err != nil {
		log.Warnf("%v", err)
	}

	return watchSources(ctx, opts, args, log, extractor, newExtractor)
}

// watchSources re-extracts every changed file until ctx is canceled. A
// change to the patterns file reloads the patterns and re-extracts all files.
func watchSources(ctx context.Context, opts *options, files []string, log *source.Logger,
	extractor *source.Extractor, newExtractor func() (*source.Extractor, error)) error {

	paths := append([]string(nil), files...)
	if opts.patterns != "" {
		paths = append(paths, opts.patterns)
	}

	w, err := watch.New(watch.Config{
		Paths: paths,
		OnChange: func(path string) {
			if path == opts.patterns {
				next, err := newExtractor()
				if err != nil {
					log.Warnf("%v", err)
					return
				}
				extractor = next
				log.Debugf("patterns reloaded from %s", path)
				for _, f := range files {
					if _, err := extractor.ExtractFile(f); err != nil {
						log.Warnf("%v", err)
					}
				}
				return
			}
			if _, err := extractor.ExtractFile(path); err != nil {
				log.Warnf("%v", err)
			}
		},
		OnError: func(err error) {
			log.Warnf("watch: %v", err)
		},
	})
	if err != nil {
		return err
	}

	log.Debugf("watching %d files", len(paths))
	if err := w.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
