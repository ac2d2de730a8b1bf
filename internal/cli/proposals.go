package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/ontology/internal/vocab"
)

// ProposalsOptions holds flags for the proposals list command.
type ProposalsOptions struct {
	*RootOptions
	Status string
	By     string
}

// NewProposalsCommand creates the proposals command group.
func NewProposalsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProposalsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "proposals",
		Short: "Inspect proposals",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List proposals, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProposalsList(opts, cmd)
		},
	}
	list.Flags().StringVar(&opts.Status, "status", "", "filter by status (pending|approved|rejected)")
	list.Flags().StringVar(&opts.By, "by", "", "filter by proposer")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProposalsShow(rootOpts, args[0], cmd)
		},
	})

	return cmd
}

func runProposalsList(opts *ProposalsOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	status := vocab.ProposalStatus(opts.Status)
	if status != "" && !status.Valid() {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Errorf("invalid status %q", opts.Status))
	}

	env, err := opts.env(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	proposals, err := env.Engine.ListProposals(cmd.Context(), vocab.ProposalFilter{Status: status, ProposedBy: opts.By})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}
	if proposals == nil {
		proposals = []vocab.Proposal{}
	}

	return formatter.Report(proposals, func(w io.Writer) {
		if len(proposals) == 0 {
			fmt.Fprintln(w, "No proposals found.")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTYPE\tSECTION\tCATEGORY\tTERM\tSTATUS\tBY")
		for _, p := range proposals {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.Type, p.Section, p.Category, p.Term, p.Status, p.ProposedBy)
		}
		tw.Flush()
	})
}

func runProposalsShow(opts *RootOptions, arg string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	id, err := parseProposalID(arg)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}

	env, err := opts.env(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	p, err := env.Engine.GetProposal(cmd.Context(), id)
	if errors.Is(err, vocab.ErrProposalNotFound) {
		return formatter.Outcome(false, ErrCodeNotFound, fmt.Sprintf("Proposal %d not found", id), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}

	return formatter.Report(p, func(w io.Writer) {
		fmt.Fprintln(w, p.Label())
		fmt.Fprintf(w, "  section:     %s\n", p.Section)
		fmt.Fprintf(w, "  description: %s\n", p.Description)
		fmt.Fprintf(w, "  status:      %s\n", p.Status)
		fmt.Fprintf(w, "  proposed:    %s by %s\n", p.ProposedAt.Format("2006-01-02 15:04"), p.ProposedBy)
		if p.ReviewedAt != nil {
			fmt.Fprintf(w, "  reviewed:    %s by %s\n", p.ReviewedAt.Format("2006-01-02 15:04"), p.ReviewedBy)
		}
		if p.ReviewComment != "" {
			fmt.Fprintf(w, "  comment:     %s\n", p.ReviewComment)
		}
	})
}

func parseProposalID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid proposal id %q", s)
	}
	return id, nil
}
