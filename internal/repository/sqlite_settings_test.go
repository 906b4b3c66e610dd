package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/redtimer/internal/testutil"
)

func TestSettingsRepo_GetMissing(t *testing.T) {
	repo := NewSQLiteSettingsRepo(testutil.NewTestDB(t))

	_, err := repo.Get(context.Background(), KeyLastIssueID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSettingsRepo_SetOverwrites(t *testing.T) {
	repo := NewSQLiteSettingsRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.SetInt(ctx, KeyLastIssueID, 42))
	require.NoError(t, repo.SetInt(ctx, KeyLastIssueID, 43))

	got, err := repo.GetInt(ctx, KeyLastIssueID)
	require.NoError(t, err)
	assert.Equal(t, 43, got)
}

func TestSettingsRepo_GetIntRejectsText(t *testing.T) {
	repo := NewSQLiteSettingsRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, KeyLastActivityID, "design"))
	_, err := repo.GetInt(ctx, KeyLastActivityID)
	assert.ErrorContains(t, err, "not a number")
}
