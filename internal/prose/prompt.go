package prose

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/roach88/ontology/internal/vocab"
)

const missingPage = "(Wiki page not available; generate in a generic scientific style.)"

const preamble = `You are editing the ISAAC AI-Ready Record wiki, a rigorous scientific metadata standard.

Below is the FULL content of the wiki page for the "{{.Section}}" section. `

var termPrompt = template.Must(template.New("add_term").Parse(preamble +
	"Study its tone, structure, and the way existing enum values are defined (terse, precise, one-line definitions using the pattern `*   \\`value\\`: Definition.`)." + `

---
{{.Page}}
---

A new term ` + "`{{.Term}}`" + ` is being added to the enum ` + "`{{.Category}}`" + `.

The proposer described this term as:
"{{.Description}}"

Use this description as the basis for the definition, but rewrite it to match the wiki's terse, normative style.

Generate TWO things:

1. **yaml_description**: If the existing YAML description for this category is adequate, return it unchanged. Only update it if the new term changes the scope.

2. **wiki_prose**: A single bullet-point definition for ` + "`{{.Term}}`" + ` matching the EXACT style of the existing bullet points for this enum. Format: ` + "`*   \\`{{.Term}}\\`: <terse definition>.`" + `

Return ONLY valid JSON (no markdown fencing):
{"yaml_description": "...", "wiki_prose": "..."}`))

var categoryPrompt = template.Must(template.New("add_category").Parse(preamble +
	`Study its tone, structure, and the way subsections are written.

---
{{.Page}}
---

A new category ` + "`{{.Category}}`" + ` is being added to this section.

The proposer described this category as:
"{{.Description}}"

Use this description as the basis, but rewrite to match the wiki's terse, normative style.

Generate TWO things:

1. **yaml_description**: A terse one-line description for this category (matching the style of existing YAML descriptions).

2. **wiki_prose**: A new subsection for this category matching the wiki's style. Include a heading (### level), type, description, and any relevant constraints. Keep it concise and normative.

Return ONLY valid JSON (no markdown fencing):
{"yaml_description": "...", "wiki_prose": "..."}`))

type promptData struct {
	Section     string
	Category    string
	Term        string
	Description string
	Page        string
}

// Prompt renders the generation prompt for req.
func Prompt(req Request) (string, error) {
	data := promptData{
		Section:     req.Section,
		Category:    req.Category,
		Term:        req.Term,
		Description: req.Description,
		Page:        req.PageContent,
	}
	if strings.TrimSpace(data.Page) == "" {
		data.Page = missingPage
	}

	var tmpl *template.Template
	switch req.Type {
	case vocab.AddTerm:
		tmpl = termPrompt
	case vocab.AddCategory:
		tmpl = categoryPrompt
		if data.Description == "" {
			data.Description = req.Term
		}
	default:
		return "", fmt.Errorf("unknown proposal type: %s", req.Type)
	}
	if data.Description == "" {
		data.Description = "(no description provided)"
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", req.Type, err)
	}
	return b.String(), nil
}
