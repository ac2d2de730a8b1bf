package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/ontology/internal/ontology"
	"github.com/roach88/ontology/internal/vocab"
)

// NewSnapshotCommand creates the snapshot command group.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	var as string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export, seed or publish the vocabulary snapshot",
		Long: `The snapshot is a JSON copy of the vocabulary kept in the configured blob
store (filesystem or S3). It seeds fresh deployments and backs validation
when the cache is empty.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Write the cached vocabulary to the snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(rootOpts, cmd, func(env *Env) (ontology.Result, error) {
				return env.Engine.ExportSnapshot(cmd.Context())
			})
		},
	})

	seed := &cobra.Command{
		Use:   "seed",
		Short: "Replace the cached vocabulary with the snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(rootOpts, cmd, func(env *Env) (ontology.Result, error) {
				return env.Engine.SeedFromSnapshot(cmd.Context(), as)
			})
		},
	}
	seed.Flags().StringVar(&as, "as", "cli", "initiator recorded in the sync log")
	cmd.AddCommand(seed)

	cmd.AddCommand(&cobra.Command{
		Use:   "publish",
		Short: "Write the snapshot into the wiki pages' vocabulary blocks",
		Long: `Replace the Controlled Vocabulary block of every mapped wiki page with the
snapshot's categories and push the changed pages in one commit. Used once to
seed a wiki that has no vocabulary blocks yet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(rootOpts, cmd, func(env *Env) (ontology.Result, error) {
				return env.Engine.PublishSnapshot(cmd.Context())
			})
		},
	})

	return cmd
}

func runSnapshot(opts *RootOptions, cmd *cobra.Command, op func(*Env) (ontology.Result, error)) error {
	formatter := opts.formatter(cmd)
	env, err := opts.env(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	res, err := op(env)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSnapshot, err)
	}
	return formatter.Outcome(res.OK, ErrCodeSnapshot, res.Message, res)
}

// NewLastSyncCommand creates the last-sync command.
func NewLastSyncCommand(rootOpts *RootOptions) *cobra.Command {
	var history int

	cmd := &cobra.Command{
		Use:   "last-sync",
		Short: "Show the most recent sync log entries",
		Long: `Show the newest sync log entry, successful or not. With --history N the
N newest entries are listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLastSync(rootOpts, history, cmd)
		},
	}
	cmd.Flags().IntVar(&history, "history", 0, "list this many entries instead of only the newest")

	return cmd
}

func runLastSync(opts *RootOptions, history int, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	env, err := opts.env(cmd)
	if err != nil {
		return err
	}
	defer env.Close()
	ctx := cmd.Context()

	if history > 0 {
		entries, err := env.Engine.SyncHistory(ctx, history)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
		}
		if entries == nil {
			entries = []vocab.SyncLogEntry{}
		}
		return formatter.Report(entries, func(w io.Writer) { writeSyncEntries(w, entries) })
	}

	last, err := env.Engine.LastSync(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}
	if last == nil {
		return formatter.Report(nil, func(w io.Writer) { fmt.Fprintln(w, "No sync recorded.") })
	}
	return formatter.Report(last, func(w io.Writer) { writeSyncEntries(w, []vocab.SyncLogEntry{*last}) })
}

func writeSyncEntries(w io.Writer, entries []vocab.SyncLogEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No sync recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SYNCED AT\tTRIGGER\tBY\tSTATUS\tSECTIONS\tCATEGORIES\tERROR")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.SyncedAt.UTC().Format(time.RFC3339), e.Trigger, e.SyncedBy, e.Status,
			strconv.Itoa(e.Sections), strconv.Itoa(e.Categories), e.Error)
	}
	tw.Flush()
}
