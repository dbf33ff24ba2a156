package services

import "errors"

var (
	// ErrForbidden is returned as a value, never panicked, so callers can
	// render an ownership violation distinctly from a not-found.
	ErrForbidden = errors.New("forbidden")

	// ErrNotParticipant signals an operation by a user outside the chat pair.
	ErrNotParticipant = errors.New("user is not a chat participant")

	// ErrSelfChat rejects a chat between a user and themselves.
	ErrSelfChat = errors.New("cannot create chat with self")

	// ErrInvalidMessage rejects drafts whose type and ref id disagree.
	ErrInvalidMessage = errors.New("invalid message draft")
)
