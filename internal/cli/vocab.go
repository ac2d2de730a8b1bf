package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ontology/internal/markdown"
	"github.com/roach88/ontology/internal/vocab"
)

// categoryView is the JSON shape of one category.
type categoryView struct {
	Key         string   `json:"key"`
	Description string   `json:"description"`
	Values      []string `json:"values"`
}

// sectionView is the JSON shape of one section.
type sectionView struct {
	Name       string         `json:"name"`
	Categories []categoryView `json:"categories"`
}

func viewCategories(cats []vocab.Category) []categoryView {
	out := make([]categoryView, len(cats))
	for i, c := range cats {
		values := c.Values
		if values == nil {
			values = []string{}
		}
		out[i] = categoryView{Key: c.Key, Description: c.Description, Values: values}
	}
	return out
}

// NewVocabCommand creates the vocab command group.
func NewVocabCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Inspect the cached vocabulary",
		Long: `Read the cached vocabulary. When the cache is empty the configured snapshot
is used instead.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "sections",
		Short: "List sections in layout order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVocabSections(rootOpts, cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "categories <section>",
		Short: "List the categories of one section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVocabCategories(rootOpts, args[0], cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the whole vocabulary",
		Long:  "Print the whole vocabulary. Text output uses the wiki block format.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVocabShow(rootOpts, cmd)
		},
	})

	return cmd
}

func runVocabSections(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	env, err := opts.env(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	sections, err := env.Engine.Sections(cmd.Context())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}
	return formatter.Report(sections, func(w io.Writer) {
		for _, s := range sections {
			fmt.Fprintln(w, s)
		}
	})
}

func runVocabCategories(opts *RootOptions, section string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	env, err := opts.env(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	cats, err := env.Engine.Categories(cmd.Context(), section)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}
	view := viewCategories(cats)
	return formatter.Report(view, func(w io.Writer) {
		for _, c := range view {
			fmt.Fprintf(w, "%s: %s\n", c.Key, strings.Join(c.Values, ", "))
		}
	})
}

func runVocabShow(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	env, err := opts.env(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	v, err := env.Engine.LoadVocabulary(cmd.Context())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}
	view := make([]sectionView, len(v.Sections))
	for i, sec := range v.Sections {
		view[i] = sectionView{Name: sec.Name, Categories: viewCategories(sec.Categories)}
	}
	return formatter.Report(view, func(w io.Writer) {
		for i, sec := range v.Sections {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "# %s\n\n", sec.Name)
			fmt.Fprintln(w, markdown.Render(sec.Categories))
		}
	})
}
