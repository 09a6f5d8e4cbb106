package state

import (
	"context"
	"time"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/entity"
)

// Step is a position in the private-chat wizard
type Step string

const (
	StepAwaitingVideo       Step = "awaiting_video"
	StepAwaitingTitle       Step = "awaiting_title"
	StepAwaitingDescription Step = "awaiting_description"
	StepAwaitingTags        Step = "awaiting_tags"
	StepAwaitingConfirm     Step = "awaiting_confirm"
)

// stepOrder is the only order in which a wizard may advance
var stepOrder = []Step{
	StepAwaitingVideo,
	StepAwaitingTitle,
	StepAwaitingDescription,
	StepAwaitingTags,
	StepAwaitingConfirm,
}

// Valid reports whether s is one of the known wizard steps
func (s Step) Valid() bool {
	for _, step := range stepOrder {
		if step == s {
			return true
		}
	}
	return false
}

// Next returns the step after s. The last step and unknown steps have no successor.
func (s Step) Next() (Step, bool) {
	for i, step := range stepOrder {
		if step == s && i+1 < len(stepOrder) {
			return stepOrder[i+1], true
		}
	}
	return "", false
}

// ConversationState is the wizard progress of one private conversation
type ConversationState struct {
	ConversationID int64     `json:"conversation_id"`
	Step           Step      `json:"step"`
	VideoRef       string    `json:"video_ref,omitempty"`
	Title          string    `json:"title,omitempty"`
	Description    string    `json:"description,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Video keeps the attachment details captured with VideoRef
	Video *entity.VideoRef `json:"video,omitempty"`
}

// Advance moves the state one step forward. It returns false when the state is already at its last step.
func (s *ConversationState) Advance() bool {
	next, ok := s.Step.Next()
	if !ok {
		return false
	}
	s.Step = next
	return true
}

// Complete reports whether every field needed for a submission is present
func (s *ConversationState) Complete() bool {
	return s.VideoRef != "" && s.Title != "" && s.Description != "" && len(s.Tags) > 0
}

// Record is the persisted form of a ConversationState
type Record struct {
	ConversationID int64
	Data           []byte
	UpdatedAt      time.Time
}

// Storage defines the interface for conversation state persistence.
// Implementations apply their own retention window: expired records are reported as not found.
type Storage interface {
	// Get retrieves the record for a conversation, entity.ErrStateNotFound when absent or expired
	Get(ctx context.Context, conversationID int64) (*Record, error)

	// Set creates or replaces the record for a conversation
	Set(ctx context.Context, record *Record) error

	// Delete removes the record for a conversation; deleting a missing record is not an error
	Delete(ctx context.Context, conversationID int64) error
}

// Purger is implemented by storages that need expired records removed explicitly
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}
