package domain_test

import (
	"testing"
	"time"

	"github.com/fluent-freelance/messaging-service/internal/domain"
)

func TestWithdrawSnapshotsOriginalSchedule(t *testing.T) {
	d := &domain.InterviewDetails{
		InterviewSchedule: domain.InterviewSchedule{
			Date:     "2026-09-01",
			Time:     "10:00",
			Duration: "45m",
		},
		Status: domain.InterviewConfirmed,
	}

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	d.Withdraw("client@example.com", "conflict", at)

	if d.Status != domain.InterviewWithdrawn {
		t.Fatalf("status: got %s, want withdrawn", d.Status)
	}
	if d.WithdrawnBy != "client@example.com" || d.WithdrawnReason != "conflict" {
		t.Errorf("withdrawal metadata: got by=%q reason=%q", d.WithdrawnBy, d.WithdrawnReason)
	}
	if d.WithdrawnAt == nil || !d.WithdrawnAt.Equal(at) {
		t.Errorf("withdrawnAt: got %v, want %v", d.WithdrawnAt, at)
	}
	if d.OriginalData == nil {
		t.Fatal("originalData: missing")
	}
	if d.OriginalData.Date != "2026-09-01" || d.OriginalData.Time != "10:00" {
		t.Errorf("originalData: got %+v", d.OriginalData)
	}
}

func TestWithdrawTwiceKeepsFirstSnapshot(t *testing.T) {
	d := &domain.InterviewDetails{
		InterviewSchedule: domain.InterviewSchedule{Date: "2026-09-01"},
		Status:            domain.InterviewPending,
	}
	d.Withdraw("a@x.com", "r1", time.Now())

	d.Date = "2026-09-15"
	d.Withdraw("b@x.com", "r2", time.Now())

	if d.OriginalData.Date != "2026-09-01" {
		t.Errorf("originalData overwritten: got %q", d.OriginalData.Date)
	}
}

func TestRescheduleResetsStatusAndClearsWithdrawal(t *testing.T) {
	d := &domain.InterviewDetails{
		InterviewSchedule: domain.InterviewSchedule{
			Date: "2026-09-01",
			Time: "10:00",
		},
		Status: domain.InterviewPending,
	}
	d.Withdraw("client@example.com", "conflict", time.Now())

	d.Reschedule(domain.InterviewSchedule{Date: "2026-09-10", Time: "14:00"})

	if d.Status != domain.InterviewPending {
		t.Errorf("status: got %s, want pending", d.Status)
	}
	if d.WithdrawnBy != "" || d.WithdrawnReason != "" || d.WithdrawnAt != nil {
		t.Errorf("withdrawal metadata not cleared: %+v", d)
	}
	if d.Date != "2026-09-10" || d.Time != "14:00" {
		t.Errorf("schedule not merged: %+v", d.InterviewSchedule)
	}
	// the snapshot from before the withdrawal survives the reschedule
	if d.OriginalData == nil || d.OriginalData.Date != "2026-09-01" || d.OriginalData.Time != "10:00" {
		t.Errorf("originalData: got %+v", d.OriginalData)
	}
}

func TestRescheduleMergesOverExistingFields(t *testing.T) {
	d := &domain.InterviewDetails{
		InterviewSchedule: domain.InterviewSchedule{
			Date:        "2026-09-01",
			Notes:       "bring portfolio",
			MeetingLink: "https://meet.example.com/abc",
		},
	}

	d.Reschedule(domain.InterviewSchedule{Date: "2026-09-05"})

	if d.Date != "2026-09-05" {
		t.Errorf("date: got %q", d.Date)
	}
	if d.Notes != "bring portfolio" || d.MeetingLink == "" {
		t.Errorf("untouched fields lost: %+v", d.InterviewSchedule)
	}
}

func TestInterviewEncodeDecodeRoundTrip(t *testing.T) {
	d := &domain.InterviewDetails{
		InterviewSchedule: domain.InterviewSchedule{Date: "2026-09-01", Duration: "30m"},
		Status:            domain.InterviewConfirmed,
		ProposalID:        "prop-1",
	}

	content, err := d.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := domain.DecodeInterview(content)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Date != d.Date || got.Status != d.Status || got.ProposalID != d.ProposalID {
		t.Errorf("round trip mismatch: got %+v", got)
	}
}

func TestConversationParticipants(t *testing.T) {
	c := &domain.Conversation{Participants: []string{"a@x.com", "b@x.com"}}

	if !c.HasParticipant("a@x.com") || c.HasParticipant("c@x.com") {
		t.Error("HasParticipant wrong")
	}
	if got := c.OtherParticipant("a@x.com"); got != "b@x.com" {
		t.Errorf("OtherParticipant: got %q", got)
	}
}
