package postgres

import (
	"context"
	"errors"

	"github.com/fluent-freelance/messaging-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConversationRepository struct {
	db *pgxpool.Pool
}

func NewConversationRepository(db *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) Get(ctx context.Context, id string) (*domain.Conversation, error) {
	var c domain.Conversation
	query := `SELECT id, participants, last_message_id, created_at, updated_at FROM conversations WHERE id=$1`
	err := r.db.QueryRow(ctx, query, id).
		Scan(&c.ID, &c.Participants, &c.LastMessageID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	return &c, nil
}

// SetLastMessage moves the conversation's last-message pointer and bumps
// updated_at.
func (r *ConversationRepository) SetLastMessage(ctx context.Context, conversationID, messageID string) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE conversations SET last_message_id=$2, updated_at=now() WHERE id=$1`,
		conversationID, messageID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}
