// Package wiki is the version-control source of vocabulary pages.
//
// Pages are markdown files at the root of a git repository (a GitHub wiki in
// production). Every operation works on a private scratch checkout that is
// removed when the operation returns.
package wiki

// Page binds one wiki page to the vocabulary section it defines.
type Page struct {
	Page    string `yaml:"page" json:"page"`
	Section string `yaml:"section" json:"section"`
}

// Layout is the ordered page to section mapping. Order is the display order
// of sections.
type Layout []Page

// DefaultLayout returns the standard record pages.
func DefaultLayout() Layout {
	return Layout{
		{Page: "Record-Overview", Section: "Record Info"},
		{Page: "Sample", Section: "Sample"},
		{Page: "Context", Section: "Context"},
		{Page: "System", Section: "System"},
		{Page: "Measurement", Section: "Measurement"},
		{Page: "Assets", Section: "Assets"},
		{Page: "Links", Section: "Links"},
		{Page: "Descriptors", Section: "Descriptors"},
	}
}

// SectionFor returns the section a page defines.
func (l Layout) SectionFor(page string) (string, bool) {
	for _, p := range l {
		if p.Page == page {
			return p.Section, true
		}
	}
	return "", false
}

// PageFor returns the page that defines section.
func (l Layout) PageFor(section string) (string, bool) {
	for _, p := range l {
		if p.Section == section {
			return p.Page, true
		}
	}
	return "", false
}

// Sections returns section names in layout order.
func (l Layout) Sections() []string {
	out := make([]string, len(l))
	for i, p := range l {
		out[i] = p.Section
	}
	return out
}

// FileName is the file holding page inside a checkout.
func FileName(page string) string {
	return page + ".md"
}
