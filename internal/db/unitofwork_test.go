package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/redtimer/internal/db"
)

func newUoW(t *testing.T) *db.SQLiteUnitOfWork {
	t.Helper()
	database, err := db.OpenDB(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return db.NewSQLiteUnitOfWork(database)
}

func putSetting(ctx context.Context, tx db.DBTX, key, value string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, '')`, key, value)
	return err
}

func setting(t *testing.T, uow *db.SQLiteUnitOfWork, key string) (string, bool) {
	t.Helper()
	var val string
	var found bool
	_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := tx.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&val); err == nil {
			found = true
		}
		return nil
	})
	return val, found
}

func TestWithinTx_CommitOnSuccess(t *testing.T) {
	uow := newUoW(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		return putSetting(ctx, tx, "last_issue_id", "42")
	})
	require.NoError(t, err)

	val, found := setting(t, uow, "last_issue_id")
	assert.True(t, found)
	assert.Equal(t, "42", val)
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	uow := newUoW(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := putSetting(ctx, tx, "last_issue_id", "42"); err != nil {
			return err
		}
		return errors.New("deliberate failure")
	})
	assert.ErrorContains(t, err, "deliberate failure")

	_, found := setting(t, uow, "last_issue_id")
	assert.False(t, found)
}

func TestWithinTx_RollbackOnPanic(t *testing.T) {
	uow := newUoW(t)

	assert.Panics(t, func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_ = putSetting(ctx, tx, "last_activity_id", "9")
			panic("boom")
		})
	})

	_, found := setting(t, uow, "last_activity_id")
	assert.False(t, found)
}
