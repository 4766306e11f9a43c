package domain

import (
	"encoding/json"
	"time"
)

type InterviewStatus string

const (
	InterviewPending   InterviewStatus = "pending"
	InterviewConfirmed InterviewStatus = "confirmed"
	InterviewDeclined  InterviewStatus = "declined"
	InterviewWithdrawn InterviewStatus = "withdrawn"
	InterviewCompleted InterviewStatus = "completed"
	InterviewCancelled InterviewStatus = "cancelled"
)

// InterviewSchedule holds the mutable scheduling fields of an interview.
type InterviewSchedule struct {
	Date        string `json:"date,omitempty"`
	Time        string `json:"time,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Notes       string `json:"notes,omitempty"`
	MeetingLink string `json:"meetingLink,omitempty"`
}

// InterviewDetails is the structured payload stored in an interview
// message's content. There is at most one interview message per
// conversation; scheduling again rewrites this payload in place.
type InterviewDetails struct {
	InterviewSchedule

	Status     InterviewStatus `json:"status"`
	ProposalID string          `json:"proposalId,omitempty"`

	// Withdrawal metadata, set only while Status == withdrawn.
	WithdrawnBy     string     `json:"withdrawnBy,omitempty"`
	WithdrawnReason string     `json:"withdrawnReason,omitempty"`
	WithdrawnAt     *time.Time `json:"withdrawnAt,omitempty"`

	// OriginalData preserves the schedule as it looked before the first
	// withdrawal so a later reschedule can offer it back.
	OriginalData *InterviewSchedule `json:"originalData,omitempty"`
}

// Withdraw records who/why/when and snapshots the current schedule into
// OriginalData unless an earlier withdrawal already did.
func (d *InterviewDetails) Withdraw(by, reason string, at time.Time) {
	if d.OriginalData == nil {
		snap := d.InterviewSchedule
		d.OriginalData = &snap
	}
	d.Status = InterviewWithdrawn
	d.WithdrawnBy = by
	d.WithdrawnReason = reason
	d.WithdrawnAt = &at
}

// Reschedule merges the new schedule over the current one, forces the status
// back to pending and clears withdrawal metadata. OriginalData is preserved
// when already present, otherwise snapshotted from the pre-merge schedule.
func (d *InterviewDetails) Reschedule(next InterviewSchedule) {
	if d.OriginalData == nil {
		snap := d.InterviewSchedule
		d.OriginalData = &snap
	}
	mergeSchedule(&d.InterviewSchedule, next)
	d.Status = InterviewPending
	d.WithdrawnBy = ""
	d.WithdrawnReason = ""
	d.WithdrawnAt = nil
}

func mergeSchedule(dst *InterviewSchedule, src InterviewSchedule) {
	if src.Date != "" {
		dst.Date = src.Date
	}
	if src.Time != "" {
		dst.Time = src.Time
	}
	if src.Duration != "" {
		dst.Duration = src.Duration
	}
	if src.Notes != "" {
		dst.Notes = src.Notes
	}
	if src.MeetingLink != "" {
		dst.MeetingLink = src.MeetingLink
	}
}

// DecodeInterview parses an interview message's content.
func DecodeInterview(content string) (*InterviewDetails, error) {
	var d InterviewDetails
	if err := json.Unmarshal([]byte(content), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Encode serializes the payload back into message content form.
func (d *InterviewDetails) Encode() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
