// Package prose drafts wiki text for vocabulary proposals.
//
// A Generator turns a proposal plus the current page content into a one-line
// category description and a markdown prose block. Client implements it over
// an OpenAI-compatible chat-completions endpoint. Callers treat the output as
// opaque text and must degrade gracefully when generation fails.
package prose

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/ontology/internal/vocab"
)

// ErrNotConfigured is returned when no API key is available.
var ErrNotConfigured = errors.New("ISAAC_LLM_API_KEY not configured")

// Request is the context for one generation call.
type Request struct {
	Type        vocab.ProposalType
	Section     string
	Category    string
	Term        string
	Description string
	// PageContent is the section's current wiki page, used for tone. May be empty.
	PageContent string
}

// Text is generated wiki text.
type Text struct {
	// Description is the one-line description for the vocabulary block.
	Description string `json:"yaml_description"`
	// Prose is a markdown bullet (add_term) or subsection (add_category).
	Prose string `json:"wiki_prose"`
}

// Generator produces wiki text for a proposal.
type Generator interface {
	Generate(ctx context.Context, req Request) (Text, error)
}

// APIError is a non-200 response from the completions endpoint.
type APIError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("LLM API returned %d: %s", e.Status, e.Body)
}

// Transient reports whether retrying may succeed.
func (e *APIError) Transient() bool {
	return e.Status == 429 || e.Status >= 500
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (Text, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (Text, error) {
	return f(ctx, req)
}
