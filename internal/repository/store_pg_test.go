package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPGStore(t *testing.T) {
	pool := &pgxpool.Pool{}
	store := NewPGStore(pool)
	assert.NotNil(t, store)
}

func TestMapPGError(t *testing.T) {
	assert.NoError(t, mapPGError(nil))
	assert.ErrorIs(t, mapPGError(pgx.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, mapPGError(fmt.Errorf("scan: %w", pgx.ErrNoRows)), ErrNotFound)

	lock := &pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"}
	assert.ErrorIs(t, mapPGError(lock), ErrLockTimeout)

	dup := &pgconn.PgError{Code: "23505", ConstraintName: "bookings_seat_id_key"}
	err := mapPGError(dup)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), "bookings_seat_id_key")

	other := errors.New("connection reset")
	assert.Equal(t, other, mapPGError(other))
}

func TestNullString(t *testing.T) {
	assert.Nil(t, nullString(""))
	assert.Equal(t, "user-1", *nullString("user-1"))
}

func TestPGSchemaEmbedded(t *testing.T) {
	for _, table := range []string{"actors", "seats", "bookings", "idempotency_keys"} {
		assert.Contains(t, pgSchema, "CREATE TABLE IF NOT EXISTS "+table)
	}
}

type recordingTx struct {
	pgx.Tx
	sql  []string
	args [][]any
}

func (r *recordingTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.sql = append(r.sql, sql)
	r.args = append(r.args, args)
	return pgconn.NewCommandTag("SELECT 1"), nil
}

func TestAdvisoryLockKey(t *testing.T) {
	testCases := []struct {
		actor string
		key   string
	}{
		{actor: "user-1", key: "k1"},
		{actor: "a:b", key: "c"},
		{actor: "a", key: "b:c"},
		{actor: "", key: "1:x"},
		{actor: "1", key: "x"},
	}

	seen := make(map[string]string)
	for _, tc := range testCases {
		k := advisoryLockKey(tc.actor, tc.key)
		assert.NotContains(t, k, "\x00")
		assert.True(t, utf8.ValidString(k))
		if prev, ok := seen[k]; ok {
			t.Fatalf("key %q produced by both %s and %s/%s", k, prev, tc.actor, tc.key)
		}
		seen[k] = tc.actor + "/" + tc.key
	}
}

func TestPGTx_LockIdempotencyKey(t *testing.T) {
	rec := &recordingTx{}
	tx := &pgTx{tx: rec}

	require.NoError(t, tx.LockIdempotencyKey(context.Background(), "user-1", "k1", 2*time.Second))

	require.Len(t, rec.sql, 2)
	assert.Contains(t, rec.sql[0], "set_config('lock_timeout'")
	assert.Equal(t, []any{"2000ms"}, rec.args[0])
	assert.Contains(t, rec.sql[1], "pg_advisory_xact_lock")
	require.Len(t, rec.args[1], 1)
	arg := rec.args[1][0].(string)
	assert.Equal(t, "6:user-1:k1", arg)
	assert.False(t, strings.ContainsRune(arg, 0))
}
