package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	calls []string
	args  [][]any
	err   error
}

func (f *fakeExec) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, sql)
	f.args = append(f.args, args)
	return pgconn.NewCommandTag("DELETE 2"), f.err
}

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, IsUniqueViolation(fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "23505"})))
	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	require.False(t, IsUniqueViolation(errors.New("plain")))
}

func TestIdempotencyConflict(t *testing.T) {
	exec := &fakeExec{err: &pgconn.PgError{Code: "23505"}}
	store := NewIdempotencyStore(exec)
	err := store.CheckAndInsert(context.Background(), "abc", "sales")
	require.ErrorIs(t, err, ErrIdempotencyConflict)
	require.Equal(t, "sales:abc", exec.args[0][0])
}

func TestIdempotencyRequiresKey(t *testing.T) {
	store := NewIdempotencyStore(&fakeExec{})
	require.Error(t, store.CheckAndInsert(context.Background(), "", "sales"))
	require.Error(t, store.CheckAndInsert(context.Background(), "k", ""))
}

func TestIdempotencyCleanupReturnsRows(t *testing.T) {
	store := NewIdempotencyStore(&fakeExec{})
	n, err := store.Cleanup(context.Background(), 0)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}

func TestAuditRecordValidates(t *testing.T) {
	exec := &fakeExec{}
	logger := NewAuditLogger(exec)
	require.Error(t, logger.Record(context.Background(), AuditLog{Action: "sale.create"}))
	require.NoError(t, logger.Record(context.Background(), AuditLog{
		Action: "sale.create", Entity: "sale", EntityID: "7", Meta: map[string]any{"quantity": 2},
	}))
	require.Len(t, exec.calls, 1)
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	require.False(t, ok)
	ctx := ContextWithPrincipal(context.Background(), Principal{UserID: 3, Username: "asha"})
	p, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "asha", p.Username)
}
