package entity

import "errors"

// Domain errors
var (
	// State errors
	ErrStateNotFound = errors.New("conversation state not found")
	ErrCorruptState  = errors.New("conversation state is corrupt")

	// Submission errors
	ErrMissingVideo  = errors.New("video reference is missing")
	ErrIncompleteSet = errors.New("submission fields are incomplete")

	// Collaborator errors
	ErrIdentityUnavailable = errors.New("bot identity unavailable")
)
