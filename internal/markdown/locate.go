// Package markdown reads and writes the controlled-vocabulary block embedded
// in wiki pages.
//
// A page carries its vocabulary under a "Controlled Vocabulary" heading
// (ATX "## Controlled Vocabulary" or Setext "Controlled Vocabulary\n----")
// followed by a fenced ```yaml block:
//
//	## Controlled Vocabulary
//
//	```yaml
//	system.domain:
//	  description: "Scientific domain"
//	  values: [computational, experimental]
//	```
//
// The surrounding prose is never interpreted, only preserved.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// HeadingText is the heading that introduces a vocabulary block.
const HeadingText = "Controlled Vocabulary"

var md = goldmark.New()

// vocabHeading is one "Controlled Vocabulary" heading found in a page.
type vocabHeading struct {
	start int // first byte of the heading line
	end   int // end of the heading (after a Setext underline), excluding the newline
	block *fence
}

// fence is the ```yaml block directly following a vocabulary heading.
type fence struct {
	start      int // first byte of the opening fence line
	end        int // end of the closing fence line, excluding the newline
	terminated bool
	body       string
}

// locate returns every level >= 2 vocabulary heading in document order.
func locate(page string) []vocabHeading {
	src := []byte(page)
	doc := md.Parser().Parse(text.NewReader(src))

	var found []vocabHeading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if h.Level < 2 || h.Lines().Len() == 0 || !isVocabHeading(src, h) {
			return ast.WalkSkipChildren, nil
		}
		vh := vocabHeading{
			start: lineStart(page, h.Lines().At(0).Start),
			end:   headingEnd(page, h),
		}
		if fcb, ok := h.NextSibling().(*ast.FencedCodeBlock); ok {
			vh.block = yamlFence(page, src, fcb)
		}
		found = append(found, vh)
		return ast.WalkSkipChildren, nil
	})
	return found
}

func isVocabHeading(src []byte, h *ast.Heading) bool {
	var parts []string
	lines := h.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		parts = append(parts, string(seg.Value(src)))
	}
	got := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	return strings.EqualFold(got, HeadingText)
}

// headingEnd returns the end of the heading's last line, extended over the
// underline for Setext headings.
func headingEnd(page string, h *ast.Heading) int {
	last := h.Lines().At(h.Lines().Len() - 1)
	end := lineEnd(page, last.Start)

	first := h.Lines().At(0)
	if strings.HasPrefix(strings.TrimLeft(page[lineStart(page, first.Start):], " "), "#") {
		return end
	}
	if end >= len(page) {
		return end
	}
	next := lineEnd(page, end+1)
	underline := strings.TrimSpace(page[end+1 : next])
	if underline != "" && (strings.Trim(underline, "-") == "" || strings.Trim(underline, "=") == "") {
		return next
	}
	return end
}

// yamlFence describes fcb when it is a backtick-fenced yaml block.
func yamlFence(page string, src []byte, fcb *ast.FencedCodeBlock) *fence {
	if fcb.Info == nil || !strings.EqualFold(string(fcb.Language(src)), "yaml") {
		return nil
	}
	open := lineStart(page, fcb.Info.Segment.Start)
	if !strings.HasPrefix(strings.TrimLeft(page[open:], " "), "```") {
		return nil
	}

	var body strings.Builder
	lines := fcb.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		body.Write(seg.Value(src))
	}
	f := &fence{start: open, body: body.String()}

	pos := lineEnd(page, open)
	for pos < len(page) {
		next := lineEnd(page, pos+1)
		line := strings.TrimRight(page[pos+1:next], " \t\r")
		trimmed := strings.TrimLeft(line, " ")
		if len(trimmed) >= 3 && strings.Trim(trimmed, "`") == "" {
			f.end = pos + 1 + len(line)
			f.terminated = true
			break
		}
		pos = next
	}
	return f
}

func lineStart(page string, at int) int {
	return strings.LastIndexByte(page[:at], '\n') + 1
}

func lineEnd(page string, at int) int {
	if at >= len(page) {
		return len(page)
	}
	if i := strings.IndexByte(page[at:], '\n'); i >= 0 {
		return at + i
	}
	return len(page)
}
