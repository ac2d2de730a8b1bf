package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/ontology/internal/ontology"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	IfStale bool
	MaxAge  time.Duration
	As      string
}

// syncReport is the JSON payload of the sync command.
type syncReport struct {
	ontology.Result
	Ran bool `json:"ran"`
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Rebuild the vocabulary cache from the wiki",
		Long: `Clone the wiki, parse the vocabulary block on every configured page and
replace the cached vocabulary.

Pages that are missing or carry no readable block are skipped and keep their
cached categories. When no page yields vocabulary the cache is left alone.

Examples:
  ontology sync
  ontology sync --if-stale
  ontology sync --if-stale --max-age 1h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.IfStale, "if-stale", false, "only sync when the last successful sync is older than --max-age")
	cmd.Flags().DurationVar(&opts.MaxAge, "max-age", 0, "staleness window (default sync.max_age from config)")
	cmd.Flags().StringVar(&opts.As, "as", "cli", "initiator recorded in the sync log")

	return cmd
}

func runSync(opts *SyncOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	env, err := opts.env(cmd)
	if err != nil {
		return err
	}
	defer env.Close()
	ctx := cmd.Context()

	report := syncReport{Ran: true}
	if opts.IfStale {
		maxAge := opts.MaxAge
		if maxAge == 0 {
			if maxAge, err = env.Config.MaxAge(); err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
			}
		}
		report.Result, report.Ran, err = env.Engine.SyncIfStale(ctx, opts.As, maxAge)
	} else {
		report.Result, err = env.Engine.SyncFromWiki(ctx, opts.As)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSync, err)
	}

	if !report.OK {
		return formatter.Outcome(false, ErrCodeSync, report.Message, nil)
	}
	return formatter.Report(report, func(w io.Writer) {
		fmt.Fprintln(w, report.Message)
	})
}
