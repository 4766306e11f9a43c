package domain

import "time"

// Conversation links exactly two participants, addressed by email.
type Conversation struct {
	ID            string    `db:"id"`
	Participants  []string  `db:"participants"`
	LastMessageID *string   `db:"last_message_id"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// HasParticipant reports whether email is one of the two participants.
func (c *Conversation) HasParticipant(email string) bool {
	for _, p := range c.Participants {
		if p == email {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not email. Empty string
// when email itself is not a participant.
func (c *Conversation) OtherParticipant(email string) string {
	for _, p := range c.Participants {
		if p != email {
			return p
		}
	}
	return ""
}
