package vocab

import (
	"errors"
	"fmt"
)

var (
	// ErrProposalNotFound is returned when a proposal id is unknown.
	ErrProposalNotFound = errors.New("proposal not found")

	// ErrAlreadyReviewed is returned when reviewing a proposal that is not pending.
	ErrAlreadyReviewed = errors.New("proposal already reviewed")
)

// SourceUnavailableError reports that the version-control remote could not be
// reached (network or authentication failure). Callers keep the cached
// vocabulary when they see it.
type SourceUnavailableError struct {
	// Op is the failed operation ("clone", "pull", "push").
	Op  string
	Err error
}

// Error implements the error interface.
func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source unavailable (%s): %v", e.Op, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// IsSourceUnavailable returns true if err is or wraps a SourceUnavailableError.
func IsSourceUnavailable(err error) bool {
	var se *SourceUnavailableError
	return errors.As(err, &se)
}

// RuleViolation is a business-rule rejection (duplicate term, unknown
// category, ...). Its message is surfaced verbatim to the caller.
type RuleViolation struct {
	Reason string
}

// Error implements the error interface.
func (e *RuleViolation) Error() string {
	return e.Reason
}

// Rulef builds a RuleViolation with a formatted reason.
func Rulef(format string, args ...any) *RuleViolation {
	return &RuleViolation{Reason: fmt.Sprintf(format, args...)}
}

// IsRuleViolation returns true if err is or wraps a RuleViolation.
func IsRuleViolation(err error) bool {
	var rv *RuleViolation
	return errors.As(err, &rv)
}
