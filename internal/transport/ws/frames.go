package ws

import (
	"encoding/json"
	"time"

	"github.com/fluent-freelance/messaging-service/internal/domain"
)

// Frame types received from clients.
const (
	TypeAuthenticate           = "authenticate"
	TypeJoinConversation       = "join_conversation"
	TypeSendMessage            = "send_message"
	TypeTyping                 = "typing"
	TypeStopTyping             = "stop_typing"
	TypeInterviewScheduled     = "interview_scheduled"
	TypeInterviewStatusUpdated = "interview_status_updated"
	TypeInterviewRescheduled   = "interview_rescheduled"
)

// Frame types sent to clients. The three interview types above go both ways.
const (
	TypeConnectionEstablished = "connection_established"
	TypeAuthenticationSuccess = "authentication_success"
	TypeOnlineUsersList       = "online_users_list"
	TypeUserOnline            = "user_online"
	TypeUserOffline           = "user_offline"
	TypeUserJoined            = "user_joined"
	TypeUserLeft              = "user_left"
	TypeUserTyping            = "user_typing"
	TypeUserStopTyping        = "user_stop_typing"
	TypeMessagesLoaded        = "messages_loaded"
	TypeNewMessage            = "new_message"
	TypeMessageSent           = "message_sent"
	TypeError                 = "error"
)

// Error codes carried in error frames.
const (
	CodeGeneric          = 4000
	CodeAuthRequired     = 4001
	CodeAccessDenied     = 4003
	CodeNotFound         = 4004
	CodeWrongMessageType = 4005
	CodeUnknownFrameType = 4006
	CodeMalformedFrame   = 4007

	CodeInternalAuth      = 4500
	CodeInternalJoin      = 4501
	CodeInternalMessaging = 4502
)

// Frame is the JSON envelope exchanged in both directions.
type Frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// inboundFrame defers payload decoding until the type is known.
type inboundFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	return json.Unmarshal(raw, dst)
}

func errorFrame(msg string, code int) Frame {
	return Frame{Type: TypeError, Payload: ErrorPayload{Message: msg, Code: code}}
}

// --- inbound payloads ---

type AuthenticatePayload struct {
	UserEmail      string `json:"userEmail"`
	UserName       string `json:"userName"`
	ConversationID string `json:"conversationId,omitempty"`
}

type JoinConversationPayload struct {
	ConversationID string `json:"conversationId"`
}

type SendMessagePayload struct {
	ConversationID string `json:"conversationId"`
	Content        string `json:"content"`
	Type           string `json:"type,omitempty"`
}

type TypingPayload struct {
	ConversationID string `json:"conversationId"`
}

type InterviewScheduledPayload struct {
	ConversationID string                   `json:"conversationId"`
	Interview      domain.InterviewSchedule `json:"interviewData"`
	ProposalID     string                   `json:"proposalId,omitempty"`
}

type InterviewStatusPayload struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

type InterviewReschedulePayload struct {
	MessageID  string                   `json:"messageId"`
	Interview  domain.InterviewSchedule `json:"interviewData"`
	ProposalID string                   `json:"proposalId,omitempty"`
}

// --- outbound payloads ---

type ErrorPayload struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type AuthSuccessPayload struct {
	UserEmail string `json:"userEmail"`
	UserName  string `json:"userName"`
}

type OnlineUser struct {
	UserEmail string `json:"userEmail"`
	UserName  string `json:"userName"`
}

type OnlineUsersPayload struct {
	Users []OnlineUser `json:"users"`
}

type PresencePayload struct {
	UserEmail      string `json:"userEmail"`
	UserName       string `json:"userName,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
}

type TypingEventPayload struct {
	ConversationID string `json:"conversationId"`
	UserEmail      string `json:"userEmail"`
}

// MessageItem is the wire form of a persisted message. IsOwn depends on the
// recipient, so the same message serializes differently for the sender.
type MessageItem struct {
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

func toMessageItem(m *domain.Message, isOwn bool) MessageItem {
	return MessageItem{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderEmail:    m.SenderEmail,
		ReceiverEmail:  m.ReceiverEmail,
		Content:        m.Content,
		Type:           string(m.Type),
		IsRead:         m.IsRead,
		IsOwn:          isOwn,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

type MessagesLoadedPayload struct {
	ConversationID string        `json:"conversationId"`
	Messages       []MessageItem `json:"messages"`
}
