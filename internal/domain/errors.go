package domain

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrNotParticipant       = errors.New("user is not a participant of the conversation")
	ErrNotInterviewMessage  = errors.New("message is not an interview message")
	ErrEmptyContent         = errors.New("empty message content")
)
