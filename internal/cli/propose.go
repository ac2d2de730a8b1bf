package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/ontology/internal/vocab"
)

// ProposeOptions holds flags for the propose commands.
type ProposeOptions struct {
	*RootOptions
	Section     string
	Category    string
	Term        string
	Description string
	As          string
}

// NewProposeCommand creates the propose command group.
func NewProposeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "propose",
		Short: "Submit a vocabulary change for review",
		Long: `Submit a new term or category. Proposals start pending and change nothing
until an admin approves and applies them.

Examples:
  ontology propose term --section System --category system.domain --term hybrid --as carol
  ontology propose category --section Context --category context.transport.viscosity \
      --description "Viscosity regime" --as carol`,
	}

	cmd.AddCommand(newProposeSubcommand(rootOpts, "term", vocab.AddTerm, "Propose a new term for an existing category"))
	cmd.AddCommand(newProposeSubcommand(rootOpts, "category", vocab.AddCategory, "Propose a new category"))

	return cmd
}

func newProposeSubcommand(rootOpts *RootOptions, use string, typ vocab.ProposalType, short string) *cobra.Command {
	opts := &ProposeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPropose(opts, typ, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Section, "section", "", "section the category belongs to")
	cmd.Flags().StringVar(&opts.Category, "category", "", "dotted category key")
	cmd.Flags().StringVar(&opts.Description, "description", "", "description or rationale")
	cmd.Flags().StringVar(&opts.As, "as", "", "proposer username")
	if typ == vocab.AddTerm {
		cmd.Flags().StringVar(&opts.Term, "term", "", "term to add")
	}

	return cmd
}

func runPropose(opts *ProposeOptions, typ vocab.ProposalType, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	env, err := opts.env(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	p, err := env.Engine.CreateProposal(cmd.Context(), vocab.NewProposal{
		Type:        typ,
		Section:     opts.Section,
		Category:    opts.Category,
		Term:        opts.Term,
		Description: opts.Description,
		ProposedBy:  opts.As,
	})
	if vocab.IsRuleViolation(err) {
		return formatter.Outcome(false, ErrCodeRule, err.Error(), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}

	return formatter.Report(p, func(w io.Writer) {
		fmt.Fprintf(w, "Created proposal %s (pending)\n", p.Label())
	})
}
