package repository

import (
	"context"
	"testing"
	"time"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/entity"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/state"
	"github.com/stretchr/testify/require"
)

func TestStateMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewStateMemory(time.Hour)

	_, err := s.Get(ctx, 1)
	require.ErrorIs(t, err, entity.ErrStateNotFound)

	now := time.Now().UTC()
	require.NoError(t, s.Set(ctx, &state.Record{ConversationID: 1, Data: []byte(`{"step":"awaiting_video"}`), UpdatedAt: now}))

	got, err := s.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), got.ConversationID)
	require.JSONEq(t, `{"step":"awaiting_video"}`, string(got.Data))
	require.Equal(t, now, got.UpdatedAt)

	require.NoError(t, s.Delete(ctx, 1))
	_, err = s.Get(ctx, 1)
	require.ErrorIs(t, err, entity.ErrStateNotFound)

	// deleting twice is fine
	require.NoError(t, s.Delete(ctx, 1))
}

func TestStateMemory_ReturnedDataIsACopy(t *testing.T) {
	ctx := context.Background()
	s := NewStateMemory(time.Hour)

	data := []byte(`{"a":1}`)
	require.NoError(t, s.Set(ctx, &state.Record{ConversationID: 7, Data: data}))
	data[2] = 'X'

	got, err := s.Get(ctx, 7)
	require.NoError(t, err)
	got.Data[2] = 'Y'

	again, err := s.Get(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, `{"a":1}`, string(again.Data))
}

func TestStateMemory_Expires(t *testing.T) {
	ctx := context.Background()
	s := NewStateMemory(20 * time.Millisecond)

	require.NoError(t, s.Set(ctx, &state.Record{ConversationID: 3, Data: []byte(`{}`)}))
	time.Sleep(60 * time.Millisecond)

	_, err := s.Get(ctx, 3)
	require.ErrorIs(t, err, entity.ErrStateNotFound)
}
