package harness

import "github.com/roach88/ontology/internal/validator"

// TraceEvent records the outcome of one flow step.
type TraceEvent struct {
	Step       int                   `json:"step"`
	Op         string                `json:"op"`
	OK         bool                  `json:"ok"`
	Message    string                `json:"message"`
	ProposalID int64                 `json:"proposal_id,omitempty"`
	Published  bool                  `json:"published,omitempty"`
	Violations []validator.Violation `json:"violations,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step outcome to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
