package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/ontology/internal/ontology"
	"github.com/roach88/ontology/internal/vocab"
)

// ReviewOptions holds flags for the review command.
type ReviewOptions struct {
	*RootOptions
	As          string
	Comment     string
	Apply       bool
	Description string
	Prose       string
}

// NewReviewCommand creates the review command.
func NewReviewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReviewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "review <id> approve|reject",
		Short: "Approve or reject a pending proposal",
		Long: `Record a review decision. A proposal can be reviewed once.

When admins are configured only they may review. With --apply an approval is
applied immediately; the approval stands even when applying fails.

Examples:
  ontology review 3 approve --as alice
  ontology review 3 approve --as alice --apply --prose "Combines measurement and simulation."
  ontology review 4 reject --as alice --comment "Use system.method instead"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReview(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.As, "as", "", "reviewer username")
	cmd.Flags().StringVar(&opts.Comment, "comment", "", "review comment")
	cmd.Flags().BoolVar(&opts.Apply, "apply", false, "apply the proposal after approving it")
	cmd.Flags().StringVar(&opts.Description, "description", "", "replace the description before applying (with --apply)")
	cmd.Flags().StringVar(&opts.Prose, "prose", "", "wiki prose to insert (with --apply)")

	return cmd
}

func runReview(opts *ReviewOptions, idArg, decisionArg string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	id, err := parseProposalID(idArg)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}
	decision, err := vocab.ParseDecision(decisionArg)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}
	if opts.Apply && decision != vocab.StatusApproved {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Errorf("--apply requires approve"))
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
	if opts.Apply {
		edit := ontology.Edit{Prose: opts.Prose}
		if cmd.Flags().Changed("description") {
			edit.Description = &opts.Description
		}
		res, err := env.Engine.ApproveAndApply(ctx, id, opts.As, opts.Comment, edit)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
		}
		return reportApply(formatter, res)
	}

	res, err := env.Engine.ReviewProposal(ctx, id, decision, opts.As, opts.Comment)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}
	return formatter.Outcome(res.OK, ErrCodeRule, res.Message, res)
}

// checkAdmin enforces the admin list when one is configured.
func checkAdmin(formatter *OutputFormatter, env *Env, user string) error {
	if len(env.Config.Admins) == 0 || env.Engine.IsAdmin(user) {
		return nil
	}
	msg := fmt.Sprintf("User '%s' is not an admin", user)
	if err := formatter.Error(ErrCodeForbidden, msg, nil); err != nil {
		return err
	}
	return reportedError(ExitFailure, msg, nil)
}

// reportApply prints an apply outcome. A cache update whose wiki push failed
// is a success with a warning.
func reportApply(formatter *OutputFormatter, res ontology.ApplyResult) error {
	if !res.OK {
		return formatter.Outcome(false, ErrCodeRule, res.Message, res)
	}
	return formatter.Report(res, func(w io.Writer) {
		fmt.Fprintln(w, res.Message)
		if !res.Published {
			fmt.Fprintln(w, "warning: the wiki page was not updated")
		}
	})
}
