package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fluent-freelance/messaging-service/internal/domain"
)

// Stores consumed by the workflow. The postgres package provides the real
// implementations; tests inject fakes.

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

type ConversationStore interface {
	Get(ctx context.Context, id string) (*domain.Conversation, error)
	SetLastMessage(ctx context.Context, conversationID, messageID string) error
}

type MessageStore interface {
	Save(ctx context.Context, m *domain.Message) (*domain.Message, error)
	Get(ctx context.Context, id string) (*domain.Message, error)
	UpdateContent(ctx context.Context, id, content string) (*domain.Message, error)
	FindInterview(ctx context.Context, conversationID string) (*domain.Message, error)
	MarkRead(ctx context.Context, conversationID, readerEmail string) (int64, error)
	History(ctx context.Context, conversationID, after string, limit int) ([]domain.Message, string, error)
}

type ProposalStore interface {
	UpdateInterview(ctx context.Context, proposalID string, details *domain.InterviewDetails) error
}

// MessagingService carries the conversation and interview workflow shared by
// the websocket session handlers and the REST interview endpoint: both paths
// go through here so they produce identical persisted state.
type MessagingService struct {
	users     UserStore
	convs     ConversationStore
	msgs      MessageStore
	proposals ProposalStore

	maxContentLen int
}

func NewMessagingService(users UserStore, convs ConversationStore, msgs MessageStore, proposals ProposalStore) *MessagingService {
	return &MessagingService{
		users:     users,
		convs:     convs,
		msgs:      msgs,
		proposals: proposals,
		// todo: move the content cap into config
		maxContentLen: 4000,
	}
}

// VerifyUser resolves an identity against the user store.
func (s *MessagingService) VerifyUser(ctx context.Context, email string) (*domain.User, error) {
	return s.users.FindByEmail(ctx, email)
}

func (s *MessagingService) Conversation(ctx context.Context, id string) (*domain.Conversation, error) {
	return s.convs.Get(ctx, id)
}

// Authorize loads the conversation and checks that email is a participant.
func (s *MessagingService) Authorize(ctx context.Context, conversationID, email string) (*domain.Conversation, error) {
	conv, err := s.convs.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(email) {
		return nil, domain.ErrNotParticipant
	}
	return conv, nil
}

// SendMessage persists a chat message from sender and moves the
// conversation's last-message pointer. The receiver is the other
// participant.
func (s *MessagingService) SendMessage(ctx context.Context, conversationID, sender, content string, typ domain.MessageType) (*domain.Message, error) {
	conv, err := s.Authorize(ctx, conversationID, sender)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.ErrEmptyContent
	}
	if typ == domain.MessageText && len(content) > s.maxContentLen {
		return nil, fmt.Errorf("message too long (max %d)", s.maxContentLen)
	}
	if typ == "" {
		typ = domain.MessageText
	}

	msg, err := s.msgs.Save(ctx, &domain.Message{
		ConversationID: conversationID,
		SenderEmail:    sender,
		ReceiverEmail:  conv.OtherParticipant(sender),
		Content:        content,
		Type:           typ,
	})
	if err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}

	if err := s.convs.SetLastMessage(ctx, conversationID, msg.ID); err != nil {
		return nil, fmt.Errorf("update conversation: %w", err)
	}
	return msg, nil
}

// History returns the requester's view of the conversation, newest first.
func (s *MessagingService) History(ctx context.Context, conversationID, requester, after string, limit int) ([]domain.Message, string, error) {
	if _, err := s.Authorize(ctx, conversationID, requester); err != nil {
		return nil, "", err
	}
	return s.msgs.History(ctx, conversationID, after, limit)
}

// MarkRead flags unread messages addressed to reader.
func (s *MessagingService) MarkRead(ctx context.Context, conversationID, reader string) (int64, error) {
	return s.msgs.MarkRead(ctx, conversationID, reader)
}

// ScheduleInterview creates the conversation's interview message or, when
// one already exists, rewrites its payload in place. A conversation never
// carries more than one interview message.
func (s *MessagingService) ScheduleInterview(ctx context.Context, conversationID, sender string, sched domain.InterviewSchedule, proposalID string) (*domain.Message, error) {
	conv, err := s.Authorize(ctx, conversationID, sender)
	if err != nil {
		return nil, err
	}

	details := &domain.InterviewDetails{
		InterviewSchedule: sched,
		Status:            domain.InterviewPending,
		ProposalID:        proposalID,
	}
	content, err := details.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode interview: %w", err)
	}

	var msg *domain.Message
	existing, err := s.msgs.FindInterview(ctx, conversationID)
	switch {
	case err == nil:
		msg, err = s.msgs.UpdateContent(ctx, existing.ID, content)
		if err != nil {
			return nil, fmt.Errorf("update interview message: %w", err)
		}
	case errors.Is(err, domain.ErrMessageNotFound):
		msg, err = s.msgs.Save(ctx, &domain.Message{
			ConversationID: conversationID,
			SenderEmail:    sender,
			ReceiverEmail:  conv.OtherParticipant(sender),
			Content:        content,
			Type:           domain.MessageInterview,
		})
		if err != nil {
			return nil, fmt.Errorf("save interview message: %w", err)
		}
	default:
		return nil, err
	}

	if err := s.convs.SetLastMessage(ctx, conversationID, msg.ID); err != nil {
		return nil, fmt.Errorf("update conversation: %w", err)
	}

	s.syncProposal(ctx, proposalID, details)
	return msg, nil
}

// UpdateInterviewStatus merges a status change into the interview payload.
// A withdrawal additionally records who/why/when and snapshots the schedule
// for a later reschedule.
func (s *MessagingService) UpdateInterviewStatus(ctx context.Context, messageID, caller string, status domain.InterviewStatus, reason string) (*domain.Message, error) {
	details, msg, err := s.loadInterview(ctx, messageID, caller)
	if err != nil {
		return nil, err
	}

	if status == domain.InterviewWithdrawn {
		details.Withdraw(caller, reason, time.Now().UTC())
	} else {
		details.Status = status
	}

	content, err := details.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode interview: %w", err)
	}
	updated, err := s.msgs.UpdateContent(ctx, msg.ID, content)
	if err != nil {
		return nil, fmt.Errorf("update interview message: %w", err)
	}
	return updated, nil
}

// RescheduleInterview merges a new schedule over the stored payload, resets
// the status to pending and clears withdrawal metadata.
func (s *MessagingService) RescheduleInterview(ctx context.Context, messageID, caller string, sched domain.InterviewSchedule, proposalID string) (*domain.Message, error) {
	details, msg, err := s.loadInterview(ctx, messageID, caller)
	if err != nil {
		return nil, err
	}

	details.Reschedule(sched)
	if proposalID != "" {
		details.ProposalID = proposalID
	}

	content, err := details.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode interview: %w", err)
	}
	updated, err := s.msgs.UpdateContent(ctx, msg.ID, content)
	if err != nil {
		return nil, fmt.Errorf("update interview message: %w", err)
	}

	s.syncProposal(ctx, details.ProposalID, details)
	return updated, nil
}

func (s *MessagingService) loadInterview(ctx context.Context, messageID, caller string) (*domain.InterviewDetails, *domain.Message, error) {
	msg, err := s.msgs.Get(ctx, messageID)
	if err != nil {
		return nil, nil, err
	}
	if msg.Type != domain.MessageInterview {
		return nil, nil, domain.ErrNotInterviewMessage
	}
	if _, err := s.Authorize(ctx, msg.ConversationID, caller); err != nil {
		return nil, nil, err
	}
	details, err := domain.DecodeInterview(msg.Content)
	if err != nil {
		return nil, nil, fmt.Errorf("decode interview: %w", err)
	}
	return details, msg, nil
}

// syncProposal mirrors the interview payload onto the proposal record.
// Best-effort: runs detached from the caller's lifetime and failures only
// get logged.
func (s *MessagingService) syncProposal(ctx context.Context, proposalID string, details *domain.InterviewDetails) {
	if proposalID == "" || s.proposals == nil {
		return
	}
	snapshot := *details
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.proposals.UpdateInterview(ctx, proposalID, &snapshot); err != nil {
			slog.Warn("messaging.syncProposal:", "proposal", proposalID, slog.Any("err", err))
		}
	}()
}
