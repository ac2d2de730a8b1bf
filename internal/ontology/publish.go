package ontology

import (
	"context"
	"fmt"

	"github.com/roach88/ontology/internal/markdown"
	"github.com/roach88/ontology/internal/vocab"
	"github.com/roach88/ontology/internal/wiki"
)

// publish writes sec back to its wiki page with proseText inserted and pushes
// when the page changed. OK is false when nothing reached the remote.
func (e *Engine) publish(ctx context.Context, sec vocab.Section, p vocab.Proposal, proseText string) Result {
	page, ok := e.layout.PageFor(sec.Name)
	if !ok {
		return Result{OK: false, Message: fmt.Sprintf("No wiki page mapping for section '%s'", sec.Name)}
	}

	var res Result
	err := e.source.WithCheckout(ctx, func(co wiki.Checkout) error {
		text, ok, err := co.ReadPage(page)
		if err != nil {
			return err
		}
		if !ok {
			res = Result{OK: false, Message: fmt.Sprintf("Wiki page %s not found", wiki.FileName(page))}
			return nil
		}

		updated := markdown.InsertProse(text, markdown.Anchor{Type: p.Type, Category: p.Category}, proseText)
		updated = markdown.ReplaceBlock(updated, sec.Categories)
		if updated == text {
			res = Result{OK: true, Message: "No changes to push"}
			return nil
		}
		if err := co.WritePage(page, updated); err != nil {
			return err
		}

		pushed, err := co.CommitAndPush(ctx, []string{page}, "Update vocabulary for "+sec.Name)
		if err != nil {
			return err
		}
		if !pushed {
			res = Result{OK: true, Message: "No changes to push"}
			return nil
		}
		res = Result{OK: true, Message: fmt.Sprintf("Pushed vocabulary update for %s to wiki", sec.Name)}
		return nil
	})
	if err != nil {
		return Result{OK: false, Message: fmt.Sprintf("Wiki push failed: %v", err)}
	}
	return res
}

// pageContent returns the current text of section's page, or "" when it
// cannot be read.
func (e *Engine) pageContent(ctx context.Context, section string) string {
	page, ok := e.layout.PageFor(section)
	if !ok {
		return ""
	}
	var text string
	err := e.source.WithCheckout(ctx, func(co wiki.Checkout) error {
		t, _, err := co.ReadPage(page)
		text = t
		return err
	})
	if err != nil {
		e.logger.Debug("page context unavailable", "page", page, "error", err)
		return ""
	}
	return text
}
