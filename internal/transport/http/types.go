package http

import (
	"time"

	"github.com/fluent-freelance/messaging-service/internal/domain"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type ConversationResponse struct {
	ID            string    `json:"id"`
	Participants  []string  `json:"participants"`
	LastMessageID *string   `json:"lastMessageId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type ChatMessageItem struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderEmail    string    `json:"senderEmail"`
	ReceiverEmail  string    `json:"receiverEmail"`
	Content        string    `json:"content"`
	Type           string    `json:"type"`
	IsRead         bool      `json:"isRead"`
	IsOwn          bool      `json:"isOwn"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type MessagesResponse struct {
	Items      []ChatMessageItem `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

type ScheduleInterviewRequest struct {
	Interview  domain.InterviewSchedule `json:"interviewData"`
	ProposalID string                   `json:"proposalId,omitempty"`
}

type PresenceResponse struct {
	Users []PresenceUser `json:"users"`
}

type PresenceUser struct {
	UserEmail string `json:"userEmail"`
	UserName  string `json:"userName"`
}
