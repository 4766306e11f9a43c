package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fluent-freelance/messaging-service/internal/domain"
	"github.com/fluent-freelance/messaging-service/internal/service"
)

// --- in-memory stores -------------------------------------------------------

type fakeUsers struct {
	users map[string]*domain.User
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

type fakeConvs struct {
	mu    sync.Mutex
	convs map[string]*domain.Conversation
}

func (f *fakeConvs) Get(_ context.Context, id string) (*domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.convs[id]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeConvs) SetLastMessage(_ context.Context, conversationID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.convs[conversationID]
	if !ok {
		return domain.ErrConversationNotFound
	}
	c.LastMessageID = &messageID
	c.UpdatedAt = time.Now()
	return nil
}

type fakeMsgs struct {
	mu   sync.Mutex
	byID map[string]*domain.Message
	seq  int
}

func newFakeMsgs() *fakeMsgs {
	return &fakeMsgs{byID: make(map[string]*domain.Message)}
}

func (f *fakeMsgs) Save(_ context.Context, m *domain.Message) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	cp := *m
	cp.ID = fmt.Sprintf("msg-%d", f.seq)
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeMsgs) Get(_ context.Context, id string) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMsgs) UpdateContent(_ context.Context, id, content string) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	m.Content = content
	m.UpdatedAt = time.Now()
	cp := *m
	return &cp, nil
}

func (f *fakeMsgs) FindInterview(_ context.Context, conversationID string) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.byID {
		if m.ConversationID == conversationID && m.Type == domain.MessageInterview {
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrMessageNotFound
}

func (f *fakeMsgs) MarkRead(_ context.Context, conversationID, readerEmail string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.byID {
		if m.ConversationID == conversationID && m.ReceiverEmail == readerEmail && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (f *fakeMsgs) History(_ context.Context, conversationID, _ string, limit int) ([]domain.Message, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Message
	for _, m := range f.byID {
		if m.ConversationID == conversationID {
			out = append(out, *m)
		}
	}
	return out, "", nil
}

func (f *fakeMsgs) interviewCount(conversationID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.byID {
		if m.ConversationID == conversationID && m.Type == domain.MessageInterview {
			n++
		}
	}
	return n
}

type fakeProposals struct {
	mu      sync.Mutex
	updates map[string]*domain.InterviewDetails
	synced  chan struct{}
}

func newFakeProposals() *fakeProposals {
	return &fakeProposals{
		updates: make(map[string]*domain.InterviewDetails),
		synced:  make(chan struct{}, 16),
	}
}

func (f *fakeProposals) UpdateInterview(_ context.Context, proposalID string, details *domain.InterviewDetails) error {
	f.mu.Lock()
	f.updates[proposalID] = details
	f.mu.Unlock()
	f.synced <- struct{}{}
	return nil
}

// --- fixture ----------------------------------------------------------------

const (
	userA = "alice@example.com"
	userB = "bob@example.com"
	convC = "conv-1"
)

func newService(t *testing.T) (*service.MessagingService, *fakeConvs, *fakeMsgs, *fakeProposals) {
	t.Helper()
	users := &fakeUsers{users: map[string]*domain.User{
		userA: {ID: "u1", Email: userA, FirstName: "Alice"},
		userB: {ID: "u2", Email: userB, FirstName: "Bob"},
	}}
	convs := &fakeConvs{convs: map[string]*domain.Conversation{
		convC: {ID: convC, Participants: []string{userA, userB}},
	}}
	msgs := newFakeMsgs()
	proposals := newFakeProposals()
	return service.NewMessagingService(users, convs, msgs, proposals), convs, msgs, proposals
}

// --- tests ------------------------------------------------------------------

func TestSendMessageResolvesReceiverAndMovesPointer(t *testing.T) {
	svc, convs, _, _ := newService(t)

	msg, err := svc.SendMessage(context.Background(), convC, userA, "hello", domain.MessageText)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.ReceiverEmail != userB {
		t.Errorf("receiver: got %q, want %q", msg.ReceiverEmail, userB)
	}
	if msg.Type != domain.MessageText {
		t.Errorf("type: got %q", msg.Type)
	}

	conv, _ := convs.Get(context.Background(), convC)
	if conv.LastMessageID == nil || *conv.LastMessageID != msg.ID {
		t.Errorf("lastMessageId: got %v, want %q", conv.LastMessageID, msg.ID)
	}
}

func TestSendMessageRejectsNonParticipant(t *testing.T) {
	svc, _, msgs, _ := newService(t)

	_, err := svc.SendMessage(context.Background(), convC, "mallory@example.com", "hi", domain.MessageText)
	if !errors.Is(err, domain.ErrNotParticipant) {
		t.Fatalf("err: got %v, want ErrNotParticipant", err)
	}
	if len(msgs.byID) != 0 {
		t.Error("message was persisted despite authorization failure")
	}
}

func TestSendMessageRejectsEmptyAndOversized(t *testing.T) {
	svc, _, _, _ := newService(t)

	if _, err := svc.SendMessage(context.Background(), convC, userA, "   ", domain.MessageText); !errors.Is(err, domain.ErrEmptyContent) {
		t.Errorf("empty: got %v", err)
	}
	if _, err := svc.SendMessage(context.Background(), convC, userA, strings.Repeat("x", 4001), domain.MessageText); err == nil {
		t.Error("oversized message accepted")
	}
}

func TestScheduleInterviewTwiceKeepsSingleMessage(t *testing.T) {
	svc, _, msgs, _ := newService(t)
	ctx := context.Background()

	first, err := svc.ScheduleInterview(ctx, convC, userA,
		domain.InterviewSchedule{Date: "2026-09-01", Time: "10:00"}, "")
	if err != nil {
		t.Fatalf("first schedule: %v", err)
	}

	second, err := svc.ScheduleInterview(ctx, convC, userA,
		domain.InterviewSchedule{Date: "2026-09-03", Time: "15:00"}, "")
	if err != nil {
		t.Fatalf("second schedule: %v", err)
	}

	if msgs.interviewCount(convC) != 1 {
		t.Fatalf("interview messages: got %d, want 1", msgs.interviewCount(convC))
	}
	if second.ID != first.ID {
		t.Errorf("second call created a new message: %q vs %q", second.ID, first.ID)
	}

	details, err := domain.DecodeInterview(second.Content)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if details.Date != "2026-09-03" || details.Time != "15:00" {
		t.Errorf("content not replaced: %+v", details.InterviewSchedule)
	}
	if details.Status != domain.InterviewPending {
		t.Errorf("status: got %s", details.Status)
	}
}

func TestScheduleInterviewSyncsProposalBestEffort(t *testing.T) {
	svc, _, _, proposals := newService(t)

	_, err := svc.ScheduleInterview(context.Background(), convC, userA,
		domain.InterviewSchedule{Date: "2026-09-01"}, "prop-7")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	select {
	case <-proposals.synced:
	case <-time.After(2 * time.Second):
		t.Fatal("proposal sync never happened")
	}
	proposals.mu.Lock()
	defer proposals.mu.Unlock()
	if d := proposals.updates["prop-7"]; d == nil || d.Date != "2026-09-01" {
		t.Errorf("proposal update: %+v", proposals.updates)
	}
}

func TestUpdateInterviewStatusWithdrawRecordsMetadata(t *testing.T) {
	svc, _, _, _ := newService(t)
	ctx := context.Background()

	msg, err := svc.ScheduleInterview(ctx, convC, userA,
		domain.InterviewSchedule{Date: "2026-09-01", Time: "10:00"}, "")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	updated, err := svc.UpdateInterviewStatus(ctx, msg.ID, userB, domain.InterviewWithdrawn, "found another candidate")
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	details, _ := domain.DecodeInterview(updated.Content)
	if details.Status != domain.InterviewWithdrawn {
		t.Errorf("status: got %s", details.Status)
	}
	if details.WithdrawnBy != userB || details.WithdrawnReason != "found another candidate" || details.WithdrawnAt == nil {
		t.Errorf("withdrawal metadata: %+v", details)
	}
	if details.OriginalData == nil || details.OriginalData.Date != "2026-09-01" {
		t.Errorf("originalData: %+v", details.OriginalData)
	}
}

func TestWithdrawThenRescheduleRestoresPending(t *testing.T) {
	svc, _, _, _ := newService(t)
	ctx := context.Background()

	msg, err := svc.ScheduleInterview(ctx, convC, userA,
		domain.InterviewSchedule{Date: "2026-09-01", Time: "10:00", Duration: "30m"}, "")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if _, err := svc.UpdateInterviewStatus(ctx, msg.ID, userB, domain.InterviewWithdrawn, "conflict"); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	updated, err := svc.RescheduleInterview(ctx, msg.ID, userA,
		domain.InterviewSchedule{Date: "2026-09-10", Time: "16:00"}, "")
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	details, _ := domain.DecodeInterview(updated.Content)
	if details.Status != domain.InterviewPending {
		t.Errorf("status: got %s, want pending", details.Status)
	}
	if details.WithdrawnBy != "" || details.WithdrawnAt != nil {
		t.Errorf("withdrawal metadata survived reschedule: %+v", details)
	}
	// the snapshot matches the schedule as it was before the withdrawal
	if details.OriginalData == nil || details.OriginalData.Date != "2026-09-01" ||
		details.OriginalData.Time != "10:00" || details.OriginalData.Duration != "30m" {
		t.Errorf("originalData: %+v", details.OriginalData)
	}
	if details.Date != "2026-09-10" || details.Time != "16:00" {
		t.Errorf("schedule: %+v", details.InterviewSchedule)
	}
}

func TestUpdateInterviewStatusOnChatMessage(t *testing.T) {
	svc, _, _, _ := newService(t)
	ctx := context.Background()

	msg, err := svc.SendMessage(ctx, convC, userA, "hello", domain.MessageText)
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	_, err = svc.UpdateInterviewStatus(ctx, msg.ID, userA, domain.InterviewConfirmed, "")
	if !errors.Is(err, domain.ErrNotInterviewMessage) {
		t.Fatalf("err: got %v, want ErrNotInterviewMessage", err)
	}
}

func TestInterviewHandlersRejectNonParticipant(t *testing.T) {
	svc, _, _, _ := newService(t)
	ctx := context.Background()

	msg, err := svc.ScheduleInterview(ctx, convC, userA, domain.InterviewSchedule{Date: "2026-09-01"}, "")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	if _, err := svc.UpdateInterviewStatus(ctx, msg.ID, "mallory@example.com", domain.InterviewConfirmed, ""); !errors.Is(err, domain.ErrNotParticipant) {
		t.Errorf("status update: got %v", err)
	}
	if _, err := svc.RescheduleInterview(ctx, msg.ID, "mallory@example.com", domain.InterviewSchedule{Date: "2026-10-01"}, ""); !errors.Is(err, domain.ErrNotParticipant) {
		t.Errorf("reschedule: got %v", err)
	}
}

func TestVerifyUserUnknownIdentity(t *testing.T) {
	svc, _, _, _ := newService(t)

	_, err := svc.VerifyUser(context.Background(), "ghost@example.com")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("err: got %v", err)
	}
}
