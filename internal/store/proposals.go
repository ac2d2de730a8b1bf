package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/ontology/internal/vocab"
)

const proposalColumns = `id, proposal_type, section, category, term, description,
	proposed_by, proposed_at, status, reviewed_by, reviewed_at, review_comment`

// CreateProposal inserts a pending proposal and returns it with its assigned id.
// No vocabulary checks happen here; they run when the proposal is applied.
func (s *Store) CreateProposal(ctx context.Context, np vocab.NewProposal, at time.Time) (vocab.Proposal, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO proposals
		(proposal_type, section, category, term, description, proposed_by, proposed_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`),
		string(np.Type),
		np.Section,
		np.Category,
		np.Term,
		np.Description,
		np.ProposedBy,
		formatTime(at),
		string(vocab.StatusPending),
	).Scan(&id)
	if err != nil {
		return vocab.Proposal{}, fmt.Errorf("write proposal: %w", err)
	}

	return vocab.Proposal{
		ID:          id,
		Type:        np.Type,
		Section:     np.Section,
		Category:    np.Category,
		Term:        np.Term,
		Description: np.Description,
		ProposedBy:  np.ProposedBy,
		ProposedAt:  at.UTC(),
		Status:      vocab.StatusPending,
	}, nil
}

// GetProposal returns the proposal with the given id or vocab.ErrProposalNotFound.
func (s *Store) GetProposal(ctx context.Context, id int64) (vocab.Proposal, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+proposalColumns+` FROM proposals WHERE id = ?`), id)
	p, err := scanProposal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return vocab.Proposal{}, fmt.Errorf("proposal %d: %w", id, vocab.ErrProposalNotFound)
	}
	if err != nil {
		return vocab.Proposal{}, err
	}
	return p, nil
}

// ListProposals returns proposals matching filter, newest first.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) ListProposals(ctx context.Context, filter vocab.ProposalFilter) ([]vocab.Proposal, error) {
	var where []string
	var args []any
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.ProposedBy != "" {
		where = append(where, "proposed_by = ?")
		args = append(args, filter.ProposedBy)
	}

	query := `SELECT ` + proposalColumns + ` FROM proposals`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query proposals: %w", err)
	}
	defer rows.Close()

	proposals := []vocab.Proposal{}
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proposals: %w", err)
	}
	return proposals, nil
}

// ReviewProposal moves a pending proposal to r.Decision.
//
// The update is conditional on status = 'pending', so a second review never
// touches the first reviewer's fields. It fails with vocab.ErrProposalNotFound
// or vocab.ErrAlreadyReviewed.
func (s *Store) ReviewProposal(ctx context.Context, id int64, r vocab.Review) (vocab.Proposal, error) {
	if !r.Decision.IsDecision() {
		return vocab.Proposal{}, fmt.Errorf("review proposal %d: invalid decision %q", id, r.Decision)
	}

	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE proposals
		SET status = ?, reviewed_by = ?, reviewed_at = ?, review_comment = ?
		WHERE id = ? AND status = ?
	`),
		string(r.Decision),
		r.Reviewer,
		formatTime(r.At),
		r.Comment,
		id,
		string(vocab.StatusPending),
	)
	if err != nil {
		return vocab.Proposal{}, fmt.Errorf("review proposal %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return vocab.Proposal{}, fmt.Errorf("review proposal %d: %w", id, err)
	}

	p, err := s.GetProposal(ctx, id)
	if err != nil {
		return vocab.Proposal{}, err
	}
	if n == 0 {
		return p, fmt.Errorf("proposal %d is %s: %w", id, p.Status, vocab.ErrAlreadyReviewed)
	}
	return p, nil
}

// UpdateProposalDescription replaces the description of any proposal.
func (s *Store) UpdateProposalDescription(ctx context.Context, id int64, description string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE proposals SET description = ? WHERE id = ?`), description, id)
	if err != nil {
		return fmt.Errorf("update proposal %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update proposal %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("proposal %d: %w", id, vocab.ErrProposalNotFound)
	}
	return nil
}

func scanProposal(row scanner) (vocab.Proposal, error) {
	var p vocab.Proposal
	var ptype, proposedAt, status string
	var reviewedAt sql.NullString
	err := row.Scan(
		&p.ID, &ptype, &p.Section, &p.Category, &p.Term, &p.Description,
		&p.ProposedBy, &proposedAt, &status, &p.ReviewedBy, &reviewedAt, &p.ReviewComment,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("scan proposal: %w", err)
	}
	p.Type = vocab.ProposalType(ptype)
	p.Status = vocab.ProposalStatus(status)
	if p.ProposedAt, err = parseTime(proposedAt); err != nil {
		return p, err
	}
	if p.ReviewedAt, err = parseNullTime(reviewedAt); err != nil {
		return p, err
	}
	return p, nil
}
