package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/ontology/internal/ontology"
	"github.com/roach88/ontology/internal/record"
	"github.com/roach88/ontology/internal/validator"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Concurrency int
}

// FileReport is the validation outcome of one record file.
type FileReport struct {
	File       string                `json:"file"`
	Valid      bool                  `json:"valid"`
	Violations []validator.Violation `json:"violations"`
	Error      string                `json:"error,omitempty"`
}

// ValidationReport holds the outcome of a validate run.
type ValidationReport struct {
	Files      []FileReport `json:"files"`
	Valid      int          `json:"valid"`
	Invalid    int          `json:"invalid"`
	Unreadable int          `json:"unreadable"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <record.json|record.yaml>...",
		Short: "Validate records against the cached vocabulary",
		Long: `Check every vocabulary-controlled field of each record against the cached
vocabulary and list the values that are not allowed.

Validation fails open: when no vocabulary is cached and no snapshot is
available every record is reported valid and a warning is logged.

Exit codes:
  0 - All records valid
  1 - One or more records have violations
  2 - A record could not be read or parsed`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 4, "files validated in parallel")

	return cmd
}

func runValidate(opts *ValidateOptions, files []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	env, err := opts.env(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	report := validateFiles(cmd, env.Engine, files, opts.Concurrency)
	for _, f := range report.Files {
		formatter.VerboseLog("%s: %d violations", f.File, len(f.Violations))
	}

	var exitErr *ExitError
	switch {
	case report.Unreadable > 0:
		exitErr = reportedError(ExitCommandError, fmt.Sprintf("%d file(s) could not be read", report.Unreadable), nil)
	case report.Invalid > 0:
		exitErr = reportedError(ExitFailure, fmt.Sprintf("%d file(s) have violations", report.Invalid), nil)
	}

	switch {
	case opts.Format != "json":
		writeValidationText(cmd.OutOrStdout(), report)
	case exitErr != nil:
		if err := formatter.Error(ErrCodeViolations, exitErr.Message, report); err != nil {
			return err
		}
	default:
		if err := formatter.Success(report); err != nil {
			return err
		}
	}
	if exitErr != nil {
		return exitErr
	}
	return nil
}

// validateFiles validates files concurrently. Reports keep argument order.
func validateFiles(cmd *cobra.Command, engine *ontology.Engine, files []string, concurrency int) ValidationReport {
	reports := make([]FileReport, len(files))

	g, ctx := errgroup.WithContext(cmd.Context())
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			rep := FileReport{File: file, Violations: []validator.Violation{}}
			rec, err := readRecord(file)
			if err != nil {
				rep.Error = err.Error()
			} else {
				rep.Violations = engine.ValidateRecord(ctx, rec)
				rep.Valid = len(rep.Violations) == 0
			}
			reports[i] = rep
			return nil
		})
	}
	_ = g.Wait() // workers report per-file errors in their FileReport

	out := ValidationReport{Files: reports}
	for _, r := range reports {
		switch {
		case r.Error != "":
			out.Unreadable++
		case r.Valid:
			out.Valid++
		default:
			out.Invalid++
		}
	}
	return out
}

// readRecord parses a record file as YAML for .yaml/.yml and JSON otherwise.
func readRecord(path string) (record.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return record.ParseYAML(data)
	default:
		return record.ParseJSON(data)
	}
}

func writeValidationText(w io.Writer, report ValidationReport) {
	for _, f := range report.Files {
		switch {
		case f.Error != "":
			fmt.Fprintf(w, "✗ %s\n  %s\n", f.File, f.Error)
		case f.Valid:
			fmt.Fprintf(w, "✓ %s\n", f.File)
		default:
			fmt.Fprintf(w, "✗ %s\n", f.File)
			for _, v := range f.Violations {
				fmt.Fprintf(w, "  %s: %s\n", v.Path, v.Message)
			}
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Validation Summary: %d valid, %d invalid, %d unreadable\n", report.Valid, report.Invalid, report.Unreadable)
}
