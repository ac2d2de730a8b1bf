package config

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/ontology/internal/wiki"
)

//go:embed schema.cue
var schemaSource string

// ValidationError lists every schema violation with its field path.
type ValidationError struct {
	Problems []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "invalid config: " + strings.Join(e.Problems, "; ")
}

// Validate checks c against the embedded CUE schema. Nil lists are treated
// as empty.
func (c *Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	norm := *c
	if norm.Admins == nil {
		norm.Admins = []string{}
	}
	if norm.Validation.SkipCategories == nil {
		norm.Validation.SkipCategories = []string{}
	}
	if norm.Wiki.Pages == nil {
		norm.Wiki.Pages = wiki.Layout{}
	}
	val := ctx.Encode(norm)
	if err := val.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	err := def.Unify(val).Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}
	var problems []string
	for _, e := range cueerrors.Errors(err) {
		path := strings.Join(e.Path(), ".")
		format, args := e.Msg()
		problems = append(problems, fmt.Sprintf("%s: %s", path, fmt.Sprintf(format, args...)))
	}
	return &ValidationError{Problems: problems}
}
