package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/ontology/internal/vocab"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	As    string
	Prose string
	Draft bool
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <id>",
		Short: "Apply an approved proposal to the cache and the wiki",
		Long: `Apply an approved proposal: update the cached vocabulary, then rewrite the
section's wiki page and push it.

A failed push leaves the cache updated and is reported as a warning.

Examples:
  ontology apply 3 --as alice
  ontology apply 3 --as alice --prose "Combines measurement and simulation."
  ontology apply 3 --as alice --draft`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.As, "as", "", "admin username")
	cmd.Flags().StringVar(&opts.Prose, "prose", "", "wiki prose to insert")
	cmd.Flags().BoolVar(&opts.Draft, "draft", false, "generate the prose with the configured LLM")
	cmd.MarkFlagsMutuallyExclusive("prose", "draft")

	return cmd
}

func runApply(opts *ApplyOptions, idArg string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	id, err := parseProposalID(idArg)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}

	env, err := opts.env(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := checkAdmin(formatter, env, opts.As); err != nil {
		return err
	}

	ctx := cmd.Context()
	prose := opts.Prose
	if opts.Draft {
		p, err := env.Engine.GetProposal(ctx, id)
		if errors.Is(err, vocab.ErrProposalNotFound) {
			return formatter.Outcome(false, ErrCodeNotFound, fmt.Sprintf("Proposal %d not found", id), nil)
		}
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
		}
		d := env.Engine.DraftWikiText(ctx, p)
		if !d.OK {
			env.Logger.Warn("applying without generated prose", "proposal", id, "error", d.Error)
		}
		prose = d.Prose
	}

	res, err := env.Engine.ApplyProposal(ctx, id, prose)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}
	return reportApply(formatter, res)
}

// NewDraftCommand creates the draft command.
func NewDraftCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "draft <id>",
		Short: "Generate a description and wiki prose for a proposal",
		Long: `Ask the configured LLM for a one-line description and wiki prose for a
proposal. Nothing is stored. When generation fails the proposal's own
description is returned and the command still succeeds.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDraft(rootOpts, args[0], cmd)
		},
	}
}

func runDraft(opts *RootOptions, idArg string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	id, err := parseProposalID(idArg)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}

	env, err := opts.env(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()
	p, err := env.Engine.GetProposal(ctx, id)
	if errors.Is(err, vocab.ErrProposalNotFound) {
		return formatter.Outcome(false, ErrCodeNotFound, fmt.Sprintf("Proposal %d not found", id), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}

	d := env.Engine.DraftWikiText(ctx, p)
	return formatter.Report(d, func(w io.Writer) {
		fmt.Fprintf(w, "description: %s\n", d.Description)
		if d.Prose != "" {
			fmt.Fprintf(w, "\n%s\n", d.Prose)
		}
		if !d.OK {
			fmt.Fprintf(w, "\nwarning: generation failed: %s\n", d.Error)
		}
	})
}
