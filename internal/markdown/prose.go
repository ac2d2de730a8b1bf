package markdown

import (
	"regexp"
	"strings"

	"github.com/roach88/ontology/internal/vocab"
)

var (
	nextSubsection = regexp.MustCompile(`\n#{2,3}\s`)
	valueBullet    = regexp.MustCompile("(?m)^    \\*\\s+`[^`]+`\\s*:.*$")
)

// Anchor says where prose for a proposal belongs.
type Anchor struct {
	Type     vocab.ProposalType
	Category string
}

// InsertProse places prose on the page.
//
// For add_term with a category, the prose becomes a new value bullet after the
// last "    *   `value`: ..." bullet of the category's ### subsection, past any
// "        *" continuation lines. Otherwise, or when that subsection or its
// bullets cannot be found, the prose goes immediately before the vocabulary
// heading; with no heading at all, the prose and a new heading are appended.
// Blank prose leaves the page unchanged.
func InsertProse(page string, anchor Anchor, prose string) string {
	prose = strings.TrimSpace(prose)
	if prose == "" {
		return page
	}

	if anchor.Type == vocab.AddTerm && anchor.Category != "" {
		if out, ok := insertValueBullet(page, anchor.Category, prose); ok {
			return out
		}
	}

	if headings := locate(page); len(headings) > 0 {
		at := headings[0].start
		return page[:at] + prose + "\n\n" + page[at:]
	}
	return appendParagraph(page, prose+"\n\n## "+HeadingText+"\n")
}

func insertValueBullet(page, category, prose string) (string, bool) {
	heading := regexp.MustCompile("###[^`\n]*`" + regexp.QuoteMeta(category) + "`")
	loc := heading.FindStringIndex(page)
	if loc == nil {
		return page, false
	}

	subStart, subEnd := loc[0], len(page)
	if m := nextSubsection.FindStringIndex(page[subStart+1:]); m != nil {
		subEnd = subStart + 1 + m[0]
	}

	bullets := valueBullet.FindAllStringIndex(page[subStart:subEnd], -1)
	if len(bullets) == 0 {
		return page, false
	}

	insertAt := subStart + bullets[len(bullets)-1][1]
	for scan := insertAt; scan < subEnd; {
		end := lineEnd(page, scan+1)
		if end > subEnd {
			end = subEnd
		}
		line := page[scan+1 : end]
		if strings.HasPrefix(line, "        *") {
			insertAt = end
		} else if strings.TrimSpace(line) != "" {
			break
		}
		scan = end
	}

	return page[:insertAt] + "\n" + indentBullet(prose) + page[insertAt:], true
}

// indentBullet indents every non-empty line of prose to the value-bullet level.
func indentBullet(prose string) string {
	lines := strings.Split(prose, "\n")
	for i, l := range lines {
		if l != "" && !strings.HasPrefix(l, "    ") {
			lines[i] = "    " + l
		}
	}
	return strings.Join(lines, "\n")
}
