package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/fluent-freelance/messaging-service/internal/domain"
)

// Workflow is the slice of the messaging service the session handlers need.
type Workflow interface {
	VerifyUser(ctx context.Context, email string) (*domain.User, error)
	Conversation(ctx context.Context, id string) (*domain.Conversation, error)
	Authorize(ctx context.Context, conversationID, email string) (*domain.Conversation, error)
	SendMessage(ctx context.Context, conversationID, sender, content string, typ domain.MessageType) (*domain.Message, error)
	History(ctx context.Context, conversationID, requester, after string, limit int) ([]domain.Message, string, error)
	MarkRead(ctx context.Context, conversationID, reader string) (int64, error)
	ScheduleInterview(ctx context.Context, conversationID, sender string, sched domain.InterviewSchedule, proposalID string) (*domain.Message, error)
	UpdateInterviewStatus(ctx context.Context, messageID, caller string, status domain.InterviewStatus, reason string) (*domain.Message, error)
	RescheduleInterview(ctx context.Context, messageID, caller string, sched domain.InterviewSchedule, proposalID string) (*domain.Message, error)
}

// session is the per-connection protocol state machine:
// unauthenticated -> authenticated, with room membership as a sub-state the
// connection can change freely once authenticated. All fields besides the
// shared registry/rooms/engine are owned by this connection's read loop and
// need no locking.
type session struct {
	conn     *wsConn
	svc      Workflow
	registry *Registry
	rooms    *Rooms
	engine   *Engine

	authenticated bool
	email         string
	name          string
	room          string // current conversation id, empty when not joined
}

func newSession(conn *wsConn, svc Workflow, registry *Registry, rooms *Rooms, engine *Engine) *session {
	return &session{
		conn:     conn,
		svc:      svc,
		registry: registry,
		rooms:    rooms,
		engine:   engine,
	}
}

// handle processes one inbound frame. Errors never escape: every failure
// turns into an error frame back to this connection only.
func (s *session) handle(ctx context.Context, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("ws handler panic", "user", s.email, slog.Any("panic", r))
			s.sendError("internal error", CodeGeneric)
		}
	}()

	var f inboundFrame
	if err := json.Unmarshal(data, &f); err != nil {
		s.sendError("malformed frame", CodeMalformedFrame)
		return
	}

	if !s.authenticated && f.Type != TypeAuthenticate {
		s.sendError("authentication required", CodeAuthRequired)
		return
	}

	switch f.Type {
	case TypeAuthenticate:
		s.handleAuthenticate(ctx, f.Payload)
	case TypeJoinConversation:
		s.handleJoinConversation(ctx, f.Payload)
	case TypeSendMessage:
		s.handleSendMessage(ctx, f.Payload)
	case TypeTyping:
		s.handleTyping(f.Payload, TypeUserTyping)
	case TypeStopTyping:
		s.handleTyping(f.Payload, TypeUserStopTyping)
	case TypeInterviewScheduled:
		s.handleInterviewScheduled(ctx, f.Payload)
	case TypeInterviewStatusUpdated:
		s.handleInterviewStatusUpdated(ctx, f.Payload)
	case TypeInterviewRescheduled:
		s.handleInterviewRescheduled(ctx, f.Payload)
	default:
		s.sendError("unknown message type: "+f.Type, CodeUnknownFrameType)
	}
}

func (s *session) handleAuthenticate(ctx context.Context, raw json.RawMessage) {
	if s.authenticated {
		s.sendError("already authenticated", CodeGeneric)
		return
	}
	var p AuthenticatePayload
	if err := decodePayload(raw, &p); err != nil || p.UserEmail == "" {
		s.sendError("invalid authenticate payload", CodeMalformedFrame)
		return
	}

	user, err := s.svc.VerifyUser(ctx, p.UserEmail)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.sendError("user not found", CodeNotFound)
			return
		}
		slog.Error("session.authenticate:", "user", p.UserEmail, slog.Any("err", err))
		s.sendError("authentication failed", CodeInternalAuth)
		return
	}

	s.authenticated = true
	s.email = user.Email
	s.name = p.UserName
	if s.name == "" {
		s.name = user.DisplayName()
	}
	s.conn.setIdentity(s.email, s.name)

	s.registry.Register(s.conn)

	s.send(Frame{Type: TypeOnlineUsersList, Payload: OnlineUsersPayload{Users: s.registry.Snapshot()}})
	s.engine.Broadcast(
		Frame{Type: TypeUserOnline, Payload: PresencePayload{UserEmail: s.email, UserName: s.name}},
		GlobalScope(s.email),
	)

	if p.ConversationID != "" {
		if _, err := s.svc.Conversation(ctx, p.ConversationID); err != nil {
			if errors.Is(err, domain.ErrConversationNotFound) {
				s.sendError("conversation not found", CodeNotFound)
			} else {
				slog.Warn("session.authenticate conversation check:", "conversation", p.ConversationID, slog.Any("err", err))
			}
		}
	}

	s.send(Frame{Type: TypeAuthenticationSuccess, Payload: AuthSuccessPayload{UserEmail: s.email, UserName: s.name}})
}

func (s *session) handleJoinConversation(ctx context.Context, raw json.RawMessage) {
	var p JoinConversationPayload
	if err := decodePayload(raw, &p); err != nil || p.ConversationID == "" {
		s.sendError("invalid join payload", CodeMalformedFrame)
		return
	}

	if _, err := s.svc.Authorize(ctx, p.ConversationID, s.email); err != nil {
		s.sendWorkflowError("join conversation", err, CodeInternalJoin)
		return
	}

	// Joining a new room leaves the previous one first.
	if s.room != "" && s.room != p.ConversationID {
		s.rooms.Leave(s.room, s.email)
		s.engine.Broadcast(
			Frame{Type: TypeUserLeft, Payload: PresencePayload{UserEmail: s.email, UserName: s.name, ConversationID: s.room}},
			RoomScope(s.room, s.email),
		)
	}
	s.rooms.Join(p.ConversationID, s.email)
	s.room = p.ConversationID

	history, _, err := s.svc.History(ctx, p.ConversationID, s.email, "", 100)
	if err != nil {
		slog.Error("session.joinConversation history:", "conversation", p.ConversationID, slog.Any("err", err))
		s.sendError("failed to load messages", CodeInternalJoin)
		return
	}
	// History comes newest-first; clients want chronological order.
	items := make([]MessageItem, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		m := history[i]
		items = append(items, toMessageItem(&m, m.SenderEmail == s.email))
	}
	s.send(Frame{Type: TypeMessagesLoaded, Payload: MessagesLoadedPayload{ConversationID: p.ConversationID, Messages: items}})

	if _, err := s.svc.MarkRead(ctx, p.ConversationID, s.email); err != nil {
		slog.Warn("session.joinConversation markRead:", "conversation", p.ConversationID, slog.Any("err", err))
	}

	s.engine.Broadcast(
		Frame{Type: TypeUserJoined, Payload: PresencePayload{UserEmail: s.email, UserName: s.name, ConversationID: p.ConversationID}},
		RoomScope(p.ConversationID, s.email),
	)
}

func (s *session) handleSendMessage(ctx context.Context, raw json.RawMessage) {
	var p SendMessagePayload
	if err := decodePayload(raw, &p); err != nil || p.ConversationID == "" {
		s.sendError("invalid message payload", CodeMalformedFrame)
		return
	}

	msg, err := s.svc.SendMessage(ctx, p.ConversationID, s.email, p.Content, domain.MessageType(p.Type))
	if err != nil {
		s.sendWorkflowError("send message", err, CodeInternalMessaging)
		return
	}

	s.engine.NotifyMessage(TypeNewMessage, TypeMessageSent, msg)
}

// handleTyping relays an ephemeral typing notification to the room. Nothing
// is persisted.
func (s *session) handleTyping(raw json.RawMessage, outType string) {
	var p TypingPayload
	if err := decodePayload(raw, &p); err != nil || p.ConversationID == "" {
		s.sendError("invalid typing payload", CodeMalformedFrame)
		return
	}
	s.engine.Broadcast(
		Frame{Type: outType, Payload: TypingEventPayload{ConversationID: p.ConversationID, UserEmail: s.email}},
		RoomScope(p.ConversationID, s.email),
	)
}

func (s *session) handleInterviewScheduled(ctx context.Context, raw json.RawMessage) {
	var p InterviewScheduledPayload
	if err := decodePayload(raw, &p); err != nil || p.ConversationID == "" {
		s.sendError("invalid interview payload", CodeMalformedFrame)
		return
	}

	msg, err := s.svc.ScheduleInterview(ctx, p.ConversationID, s.email, p.Interview, p.ProposalID)
	if err != nil {
		s.sendWorkflowError("schedule interview", err, CodeInternalMessaging)
		return
	}

	s.engine.NotifyMessage(TypeInterviewScheduled, TypeInterviewScheduled, msg)
}

func (s *session) handleInterviewStatusUpdated(ctx context.Context, raw json.RawMessage) {
	var p InterviewStatusPayload
	if err := decodePayload(raw, &p); err != nil || p.MessageID == "" || p.Status == "" {
		s.sendError("invalid interview status payload", CodeMalformedFrame)
		return
	}

	msg, err := s.svc.UpdateInterviewStatus(ctx, p.MessageID, s.email, domain.InterviewStatus(p.Status), p.Reason)
	if err != nil {
		s.sendWorkflowError("update interview status", err, CodeInternalMessaging)
		return
	}

	s.engine.NotifyMessage(TypeInterviewStatusUpdated, TypeInterviewStatusUpdated, msg)
}

func (s *session) handleInterviewRescheduled(ctx context.Context, raw json.RawMessage) {
	var p InterviewReschedulePayload
	if err := decodePayload(raw, &p); err != nil || p.MessageID == "" {
		s.sendError("invalid interview reschedule payload", CodeMalformedFrame)
		return
	}

	msg, err := s.svc.RescheduleInterview(ctx, p.MessageID, s.email, p.Interview, p.ProposalID)
	if err != nil {
		s.sendWorkflowError("reschedule interview", err, CodeInternalMessaging)
		return
	}

	s.engine.NotifyMessage(TypeInterviewRescheduled, TypeInterviewRescheduled, msg)
}

// cleanup runs when the transport closes, in any state. Every step executes
// regardless of the others: leave the current room and tell it, drop the
// registry entry, announce the user offline. Safe to call for a connection
// that never authenticated.
//
// A socket superseded by a re-authentication no longer owns the identity's
// shared state: its late close must not evict the live connection's room
// membership or announce the user offline.
func (s *session) cleanup() {
	if !s.authenticated {
		return
	}
	if cur, ok := s.registry.Lookup(s.email); !ok || cur != Conn(s.conn) {
		return
	}
	if s.room != "" {
		s.rooms.Leave(s.room, s.email)
		s.engine.Broadcast(
			Frame{Type: TypeUserLeft, Payload: PresencePayload{UserEmail: s.email, UserName: s.name, ConversationID: s.room}},
			RoomScope(s.room, s.email),
		)
		s.room = ""
	}
	s.registry.Unregister(s.conn)
	s.engine.Broadcast(
		Frame{Type: TypeUserOffline, Payload: PresencePayload{UserEmail: s.email, UserName: s.name}},
		GlobalScope(s.email),
	)
}

func (s *session) send(f Frame) {
	if err := s.conn.Send(f); err != nil {
		slog.Debug("ws send to self failed", "user", s.email, "type", f.Type, "err", err)
	}
}

func (s *session) sendError(msg string, code int) {
	s.send(errorFrame(msg, code))
}

// sendWorkflowError maps workflow errors onto the protocol's error codes;
// anything unrecognized is an internal failure under internalCode.
func (s *session) sendWorkflowError(op string, err error, internalCode int) {
	switch {
	case errors.Is(err, domain.ErrConversationNotFound),
		errors.Is(err, domain.ErrMessageNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		s.sendError(err.Error(), CodeNotFound)
	case errors.Is(err, domain.ErrNotParticipant):
		s.sendError("access denied", CodeAccessDenied)
	case errors.Is(err, domain.ErrNotInterviewMessage):
		s.sendError(err.Error(), CodeWrongMessageType)
	case errors.Is(err, domain.ErrEmptyContent):
		s.sendError(err.Error(), CodeGeneric)
	default:
		slog.Error("session."+op+":", "user", s.email, slog.Any("err", err))
		s.sendError("failed to "+op, internalCode)
	}
}
