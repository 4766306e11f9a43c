package domain

import "time"

type MessageType string

const (
	MessageText      MessageType = "text"
	MessageFile      MessageType = "file"
	MessageImage     MessageType = "image"
	MessageInterview MessageType = "interview"
)

// Message is one persisted chat unit. For MessageInterview the Content holds
// the JSON-encoded InterviewDetails payload.
type Message struct {
	ID             string      `db:"id"`
	ConversationID string      `db:"conversation_id"`
	SenderEmail    string      `db:"sender_email"`
	ReceiverEmail  string      `db:"receiver_email"`
	Content        string      `db:"content"`
	Type           MessageType `db:"type"`
	IsRead         bool        `db:"is_read"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}
