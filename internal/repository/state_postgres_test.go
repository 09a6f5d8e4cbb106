package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/entity"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/state"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

type execCall struct {
	sql  string
	args []any
}

type fakePgx struct {
	row       fakeRow
	queryArgs []any
	execs     []execCall
	execTag   pgconn.CommandTag
	execErr   error
}

func (f *fakePgx) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	f.queryArgs = args
	return f.row
}

func (f *fakePgx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return f.execTag, f.execErr
}

func newTestStatePostgres(db *fakePgx) *StatePostgres {
	return &StatePostgres{db: db, ttl: time.Hour, now: func() time.Time { return fixedNow }}
}

func TestStatePostgres_Get_FiltersByRetentionWindow(t *testing.T) {
	db := &fakePgx{row: fakeRow{scan: func(dest ...any) error {
		*dest[0].(*int64) = 5
		*dest[1].(*[]byte) = []byte(`{"step":"awaiting_video"}`)
		*dest[2].(*time.Time) = fixedNow
		return nil
	}}}
	r := newTestStatePostgres(db)

	rec, err := r.Get(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, int64(5), rec.ConversationID)
	require.Equal(t, `{"step":"awaiting_video"}`, string(rec.Data))
	require.Equal(t, []any{int64(5), fixedNow.Add(-time.Hour)}, db.queryArgs)
}

func TestStatePostgres_Get_NoRows(t *testing.T) {
	db := &fakePgx{row: fakeRow{scan: func(...any) error { return pgx.ErrNoRows }}}
	r := newTestStatePostgres(db)

	_, err := r.Get(context.Background(), 5)
	require.ErrorIs(t, err, entity.ErrStateNotFound)
}

func TestStatePostgres_SetDeletePurge(t *testing.T) {
	db := &fakePgx{execTag: pgconn.NewCommandTag("DELETE 3")}
	r := newTestStatePostgres(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, &state.Record{ConversationID: 9, UpdatedAt: fixedNow}))
	require.Equal(t, []any{int64(9), []byte("{}"), fixedNow}, db.execs[0].args)

	require.NoError(t, r.Delete(ctx, 9))
	require.Equal(t, []any{int64(9)}, db.execs[1].args)

	n, err := r.PurgeExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
	require.Equal(t, []any{fixedNow.Add(-time.Hour)}, db.execs[2].args)
}

func TestStatePostgres_ExecError(t *testing.T) {
	boom := errors.New("boom")
	r := newTestStatePostgres(&fakePgx{execErr: boom})

	require.ErrorIs(t, r.Set(context.Background(), &state.Record{ConversationID: 1}), boom)
	require.ErrorIs(t, r.Delete(context.Background(), 1), boom)
}
