package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Manager manages wizard conversation states
type Manager struct {
	storage Storage
	now     func() time.Time
}

// NewManager creates a new state manager
func NewManager(storage Storage) *Manager {
	return &Manager{
		storage: storage,
		now:     time.Now,
	}
}

// Get loads the state of a conversation.
// A missing, expired or undecodable record yields (nil, nil): there is no active wizard.
func (m *Manager) Get(ctx context.Context, conversationID int64) (*ConversationState, error) {
	record, err := m.storage.Get(ctx, conversationID)
	if err != nil {
		if errors.Is(err, entity.ErrStateNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get conversation state from storage: %w", err)
	}

	var st ConversationState
	if err := json.Unmarshal(record.Data, &st); err != nil {
		ctxzap.Warn(ctx, "dropping undecodable conversation state",
			zap.Error(err),
			zap.Int64("conversation_id", conversationID),
		)
		if delErr := m.storage.Delete(ctx, conversationID); delErr != nil {
			ctxzap.Error(ctx, "failed to delete undecodable conversation state",
				zap.Error(delErr),
				zap.Int64("conversation_id", conversationID),
			)
		}
		return nil, nil
	}

	st.ConversationID = conversationID
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = record.UpdatedAt
	}

	return &st, nil
}

// Save persists the state and stamps UpdatedAt
func (m *Manager) Save(ctx context.Context, st *ConversationState) error {
	st.UpdatedAt = m.now().UTC()

	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal conversation state: %w", err)
	}

	record := &Record{
		ConversationID: st.ConversationID,
		Data:           data,
		UpdatedAt:      st.UpdatedAt,
	}

	if err := m.storage.Set(ctx, record); err != nil {
		return fmt.Errorf("save conversation state to storage: %w", err)
	}

	return nil
}

// Delete removes the state of a conversation
func (m *Manager) Delete(ctx context.Context, conversationID int64) error {
	if err := m.storage.Delete(ctx, conversationID); err != nil {
		return fmt.Errorf("delete conversation state from storage: %w", err)
	}

	return nil
}

// Start discards any existing state and saves a fresh one at the given step
func (m *Manager) Start(ctx context.Context, conversationID int64, step Step) (*ConversationState, error) {
	if err := m.Delete(ctx, conversationID); err != nil {
		return nil, err
	}

	st := &ConversationState{
		ConversationID: conversationID,
		Step:           step,
	}

	if err := m.Save(ctx, st); err != nil {
		return nil, err
	}

	return st, nil
}
