package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/entity"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/state"
	"github.com/patrickmn/go-cache"
)

// StateMemory keeps conversation states in process memory with a fixed retention window.
// States do not survive a restart.
type StateMemory struct {
	cache *cache.Cache
}

// NewStateMemory creates an in-memory state store; entries expire ttl after their last write
func NewStateMemory(ttl time.Duration) *StateMemory {
	cleanup := ttl / 2
	if cleanup < time.Minute {
		cleanup = time.Minute
	}

	return &StateMemory{
		cache: cache.New(ttl, cleanup),
	}
}

func memoryKey(conversationID int64) string {
	return strconv.FormatInt(conversationID, 10)
}

// Get retrieves the record for a conversation
func (s *StateMemory) Get(_ context.Context, conversationID int64) (*state.Record, error) {
	v, ok := s.cache.Get(memoryKey(conversationID))
	if !ok {
		return nil, entity.ErrStateNotFound
	}

	record, ok := v.(state.Record)
	if !ok {
		return nil, entity.ErrStateNotFound
	}

	// Callers may mutate the returned slice
	record.Data = append([]byte(nil), record.Data...)
	return &record, nil
}

// Set creates or replaces the record for a conversation, restarting its retention window
func (s *StateMemory) Set(_ context.Context, record *state.Record) error {
	stored := *record
	stored.Data = append([]byte(nil), record.Data...)
	s.cache.SetDefault(memoryKey(record.ConversationID), stored)
	return nil
}

// Delete removes the record for a conversation
func (s *StateMemory) Delete(_ context.Context, conversationID int64) error {
	s.cache.Delete(memoryKey(conversationID))
	return nil
}
