package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fluent-freelance/messaging-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Save(ctx context.Context, m *domain.Message) (*domain.Message, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO messages (conversation_id, sender_email, receiver_email, content, type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, conversation_id, sender_email, receiver_email, content, type, is_read, created_at, updated_at
	`, m.ConversationID, m.SenderEmail, m.ReceiverEmail, m.Content, m.Type)

	var out domain.Message
	if err := scanMessage(row, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *MessageRepository) Get(ctx context.Context, id string) (*domain.Message, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, conversation_id, sender_email, receiver_email, content, type, is_read, created_at, updated_at
		FROM messages WHERE id=$1
	`, id)

	var m domain.Message
	if err := scanMessage(row, &m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return &m, nil
}

// UpdateContent rewrites a message's content and bumps updated_at. Used for
// the mutable interview message.
func (r *MessageRepository) UpdateContent(ctx context.Context, id, content string) (*domain.Message, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE messages SET content=$2, updated_at=now() WHERE id=$1
		RETURNING id, conversation_id, sender_email, receiver_email, content, type, is_read, created_at, updated_at
	`, id, content)

	var m domain.Message
	if err := scanMessage(row, &m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return &m, nil
}

// FindInterview returns the single interview-typed message of a
// conversation, domain.ErrMessageNotFound when none exists yet.
func (r *MessageRepository) FindInterview(ctx context.Context, conversationID string) (*domain.Message, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, conversation_id, sender_email, receiver_email, content, type, is_read, created_at, updated_at
		FROM messages
		WHERE conversation_id=$1 AND type='interview'
		ORDER BY created_at DESC
		LIMIT 1
	`, conversationID)

	var m domain.Message
	if err := scanMessage(row, &m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return &m, nil
}

// MarkRead flags every unread message addressed to reader in the
// conversation. Returns the number of rows touched.
func (r *MessageRepository) MarkRead(ctx context.Context, conversationID, readerEmail string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `
		UPDATE messages SET is_read=true, updated_at=now()
		WHERE conversation_id=$1 AND receiver_email=$2 AND is_read=false
	`, conversationID, readerEmail)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// History returns messages newest-first with keyset pagination
// (created_at,id DESC), same cursor scheme as the REST layer exposes.
func (r *MessageRepository) History(ctx context.Context, conversationID, after string, limit int) ([]domain.Message, string, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	cur, err := DecodeCursor(after)
	if err != nil {
		return nil, "", fmt.Errorf("decode cursor: %w", err)
	}

	const baseQuery = `
		SELECT id, conversation_id, sender_email, receiver_email, content, type, is_read, created_at, updated_at
		FROM messages
		WHERE conversation_id = $1
		  AND (
		    $2::timestamptz IS NULL
		    OR created_at < $2
		    OR (created_at = $2 AND id < $3)
		  )
		ORDER BY created_at DESC, id DESC
		LIMIT $4
	`

	var createdAt any
	var id any
	if cur != nil {
		createdAt = cur.CreatedAt
		id = cur.ID
	}

	rows, err := r.db.Query(ctx, baseQuery, conversationID, createdAt, id, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := scanMessage(rows, &m); err != nil {
			return nil, "", err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var next string
	if len(out) == limit {
		last := out[len(out)-1]
		if c, e := EncodeCursor(Cursor{CreatedAt: last.CreatedAt, ID: last.ID}); e == nil {
			next = c
		}
	}
	return out, next, nil
}

func scanMessage(row pgx.Row, m *domain.Message) error {
	return row.Scan(
		&m.ID,
		&m.ConversationID,
		&m.SenderEmail,
		&m.ReceiverEmail,
		&m.Content,
		&m.Type,
		&m.IsRead,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
}
