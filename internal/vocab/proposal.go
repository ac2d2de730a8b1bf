package vocab

import (
	"fmt"
	"time"
)

// ProposalType identifies what a proposal asks to change.
type ProposalType string

const (
	// AddTerm appends a term to an existing category's allowed values.
	AddTerm ProposalType = "add_term"

	// AddCategory inserts a new category with no allowed values.
	AddCategory ProposalType = "add_category"
)

// Valid reports whether t is a known proposal type.
func (t ProposalType) Valid() bool {
	return t == AddTerm || t == AddCategory
}

// ProposalStatus is the lifecycle state of a proposal.
//
//	pending --review--> approved | rejected   (both terminal)
type ProposalStatus string

const (
	StatusPending  ProposalStatus = "pending"
	StatusApproved ProposalStatus = "approved"
	StatusRejected ProposalStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s ProposalStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsDecision reports whether s is a valid review outcome.
func (s ProposalStatus) IsDecision() bool {
	return s == StatusApproved || s == StatusRejected
}

// ParseDecision maps user input ("approve", "approved", "reject", ...) to a decision.
func ParseDecision(s string) (ProposalStatus, error) {
	switch s {
	case "approve", "approved":
		return StatusApproved, nil
	case "reject", "rejected":
		return StatusRejected, nil
	}
	return "", fmt.Errorf("invalid decision %q: must be approve or reject", s)
}

// Proposal is a user-submitted request to add a term or a category.
//
// For AddCategory, Category holds the key of the new category and Term is empty.
type Proposal struct {
	ID            int64          `json:"id"`
	Type          ProposalType   `json:"proposal_type"`
	Section       string         `json:"section"`
	Category      string         `json:"category,omitempty"`
	Term          string         `json:"term,omitempty"`
	Description   string         `json:"description"`
	ProposedBy    string         `json:"proposed_by"`
	ProposedAt    time.Time      `json:"proposed_at"`
	Status        ProposalStatus `json:"status"`
	ReviewedBy    string         `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time     `json:"reviewed_at,omitempty"`
	ReviewComment string         `json:"review_comment,omitempty"`
}

// Label renders a short one-line summary, e.g. "#3 add_term: system.domain hybrid".
func (p Proposal) Label() string {
	if p.Term != "" {
		return fmt.Sprintf("#%d %s: %s %s", p.ID, p.Type, p.Category, p.Term)
	}
	return fmt.Sprintf("#%d %s: %s", p.ID, p.Type, p.Category)
}

// NewProposal carries the caller-supplied fields of a proposal.
type NewProposal struct {
	Type        ProposalType
	Section     string
	Category    string
	Term        string
	Description string
	ProposedBy  string
}

// ProposalFilter narrows ListProposals. Zero fields match everything.
type ProposalFilter struct {
	Status     ProposalStatus
	ProposedBy string
}

// Matches reports whether p satisfies the filter.
func (f ProposalFilter) Matches(p Proposal) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.ProposedBy != "" && p.ProposedBy != f.ProposedBy {
		return false
	}
	return true
}

// Review is a single review decision applied to a pending proposal.
type Review struct {
	Decision ProposalStatus
	Reviewer string
	Comment  string
	At       time.Time
}
