package postgres

import (
	"context"
	"encoding/json"

	"github.com/fluent-freelance/messaging-service/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ProposalRepository is the best-effort bridge into the marketplace's
// proposals table: interview handlers mirror the scheduling payload onto the
// proposal when a proposalId is supplied.
type ProposalRepository struct {
	db *pgxpool.Pool
}

func NewProposalRepository(db *pgxpool.Pool) *ProposalRepository {
	return &ProposalRepository{db: db}
}

func (r *ProposalRepository) UpdateInterview(ctx context.Context, proposalID string, details *domain.InterviewDetails) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx,
		`UPDATE proposals SET interview_details=$2::jsonb, updated_at=now() WHERE id=$1`,
		proposalID, payload)
	return err
}
