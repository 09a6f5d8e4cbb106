package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/entity"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/state"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	queryGetState = `
SELECT conversation_id, state_data, updated_at
FROM conversation_states
WHERE conversation_id = $1 AND updated_at > $2`

	queryUpsertState = `
INSERT INTO conversation_states (conversation_id, state_data, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (conversation_id) DO UPDATE
SET state_data = EXCLUDED.state_data, updated_at = EXCLUDED.updated_at`

	queryDeleteState = `DELETE FROM conversation_states WHERE conversation_id = $1`

	queryPurgeStates = `DELETE FROM conversation_states WHERE updated_at <= $1`
)

// pgxAPI is the subset of *pgxpool.Pool used by StatePostgres
type pgxAPI interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// StatePostgres handles conversation state persistence in Postgres
type StatePostgres struct {
	db  pgxAPI
	ttl time.Duration
	now func() time.Time
}

// NewStatePostgres creates a new postgres state store; rows older than ttl are treated as absent
func NewStatePostgres(db *pgxpool.Pool, ttl time.Duration) *StatePostgres {
	return &StatePostgres{
		db:  db,
		ttl: ttl,
		now: time.Now,
	}
}

func (r *StatePostgres) cutoff() time.Time {
	return r.now().UTC().Add(-r.ttl)
}

// Get retrieves the record for a conversation
func (r *StatePostgres) Get(ctx context.Context, conversationID int64) (*state.Record, error) {
	var record state.Record
	err := r.db.QueryRow(ctx, queryGetState, conversationID, r.cutoff()).
		Scan(&record.ConversationID, &record.Data, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrStateNotFound
		}
		return nil, fmt.Errorf("query conversation state: %w", err)
	}

	return &record, nil
}

// Set saves the record for a conversation
func (r *StatePostgres) Set(ctx context.Context, record *state.Record) error {
	data := record.Data
	if len(data) == 0 {
		data = []byte("{}")
	}

	if _, err := r.db.Exec(ctx, queryUpsertState, record.ConversationID, data, record.UpdatedAt); err != nil {
		return fmt.Errorf("upsert conversation state: %w", err)
	}

	return nil
}

// Delete removes the record for a conversation
func (r *StatePostgres) Delete(ctx context.Context, conversationID int64) error {
	if _, err := r.db.Exec(ctx, queryDeleteState, conversationID); err != nil {
		return fmt.Errorf("delete conversation state: %w", err)
	}

	return nil
}

// PurgeExpired removes rows that fell out of the retention window
func (r *StatePostgres) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, queryPurgeStates, r.cutoff())
	if err != nil {
		return 0, fmt.Errorf("purge conversation states: %w", err)
	}

	return tag.RowsAffected(), nil
}
