package markdown

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/roach88/ontology/internal/vocab"
)

// plainScalar matches values that read back as the same string when written
// unquoted inside a flow sequence.
var plainScalar = regexp.MustCompile(`^[A-Za-z_](?:[A-Za-z0-9_.\-/ ]*[A-Za-z0-9_.\-/])?$`)

var yamlKeywords = map[string]bool{
	"true": true, "false": true, "yes": true, "no": true, "on": true, "off": true,
	"y": true, "n": true, "null": true,
}

// Render serializes categories as the body of a vocabulary block, ordered by
// key. Unchanged input always renders to identical bytes.
//
//	key:
//	  description: "..."
//	  values: [a, b]
func Render(cats []vocab.Category) string {
	sorted := slices.Clone(cats)
	slices.SortFunc(sorted, func(a, b vocab.Category) int { return strings.Compare(a.Key, b.Key) })

	lines := make([]string, 0, len(sorted)*3)
	for _, c := range sorted {
		values := make([]string, len(c.Values))
		for i, v := range c.Values {
			values[i] = scalar(v)
		}
		lines = append(lines,
			scalar(c.Key)+":",
			"  description: "+strconv.Quote(c.Description),
			"  values: ["+strings.Join(values, ", ")+"]",
		)
	}
	return strings.Join(lines, "\n")
}

// RenderBlock wraps Render in a ```yaml fence.
func RenderBlock(cats []vocab.Category) string {
	return "```yaml\n" + Render(cats) + "\n```"
}

func scalar(s string) string {
	if plainScalar.MatchString(s) && !yamlKeywords[strings.ToLower(s)] {
		return s
	}
	return strconv.Quote(s)
}

// ReplaceBlock returns page with its vocabulary block replaced by cats.
//
// The heading is kept as written (ATX or Setext). A heading without a block
// gets one inserted below it; a page without a heading gets
// "## Controlled Vocabulary" and the block appended.
func ReplaceBlock(page string, cats []vocab.Category) string {
	block := RenderBlock(cats)
	headings := locate(page)

	for _, h := range headings {
		if h.block != nil && h.block.terminated {
			return page[:h.block.start] + block + page[h.block.end:]
		}
	}

	if len(headings) > 0 {
		h := headings[0]
		out := page[:h.end] + "\n\n" + block + "\n"
		if rest := strings.TrimLeft(page[h.end:], "\n"); rest != "" {
			out += "\n" + rest
		}
		return out
	}

	return appendParagraph(page, "## "+HeadingText+"\n\n"+block+"\n")
}

// appendParagraph appends text after page separated by one blank line.
func appendParagraph(page, text string) string {
	trimmed := strings.TrimRightFunc(page, unicode.IsSpace)
	if trimmed == "" {
		return text
	}
	return trimmed + "\n\n" + text
}
