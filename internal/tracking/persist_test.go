package tracking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/redtimer/internal/domain"
	"github.com/alexanderramin/redtimer/internal/repository"
	"github.com/alexanderramin/redtimer/internal/testutil"
)

type stores struct {
	recent   *repository.SQLiteRecentIssueRepo
	settings *repository.SQLiteSettingsRepo
	journal  *repository.SQLiteJournalRepo
}

func withStores(t *testing.T) (*stores, func(*Deps)) {
	t.Helper()
	database := testutil.NewTestDB(t)
	st := &stores{
		recent:   repository.NewSQLiteRecentIssueRepo(database),
		settings: repository.NewSQLiteSettingsRepo(database),
		journal:  repository.NewSQLiteJournalRepo(database),
	}
	return st, func(d *Deps) {
		d.Recent = st.recent
		d.Settings = st.settings
		d.Journal = st.journal
	}
}

func TestRestore_ReopensLastIssue(t *testing.T) {
	st, wire := withStores(t)
	ctx := context.Background()
	require.NoError(t, st.recent.Replace(ctx, []domain.Issue{testutil.NewTestIssue(2), testutil.NewTestIssue(1)}))
	require.NoError(t, st.settings.SetInt(ctx, repository.KeyLastIssueID, 42))
	require.NoError(t, st.settings.SetInt(ctx, repository.KeyLastActivityID, 10))

	h := newHarness(t, wire, func(d *Deps) { d.Options.RestoreLastIssue = true })
	h.s.Restore(ctx)
	h.loop.Flush()

	issue, ok := h.s.Issue()
	require.True(t, ok)
	assert.Equal(t, 42, issue.ID)
	assert.False(t, h.s.Running(), "restoring never starts the timer")
	assert.Equal(t, 10, h.s.ActivityID())

	ids := func(list []domain.Issue) []int {
		out := make([]int, len(list))
		for i, is := range list {
			out[i] = is.ID
		}
		return out
	}
	assert.Equal(t, []int{42, 2, 1}, ids(h.s.RecentIssues()))
	stored, err := st.recent.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{42, 2, 1}, ids(stored))
}

func TestRestore_WithoutLastIssueRefreshesLists(t *testing.T) {
	_, wire := withStores(t)
	h := newHarness(t, wire, func(d *Deps) { d.Options.RestoreLastIssue = true })

	h.s.Restore(context.Background())
	h.loop.Flush()

	_, ok := h.s.Issue()
	assert.False(t, ok)
	assert.Equal(t, 0, h.remote.CallCount(testutil.OpIssue))
	assert.Len(t, h.s.Activities(), 3)
	assert.Len(t, h.s.IssueStatuses(), 4)
	assert.Equal(t, 9, h.s.ActivityID())
}

func TestSave_WritesJournalAndLastIssue(t *testing.T) {
	st, wire := withStores(t)
	ctx := context.Background()
	h := newHarness(t, wire)
	h.load(42, true)
	h.tick(60)

	h.s.Stop(false, true)
	h.loop.Flush()

	entries, err := st.journal.ListRecent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, 42, e.IssueID)
	assert.Equal(t, "Fix login", e.IssueSubject)
	assert.Equal(t, "Development", e.ActivityName)
	assert.Equal(t, 60, e.Seconds)
	assert.NotZero(t, e.RemoteID)
	assert.True(t, testNow.Equal(e.SavedAt))

	total, err := st.journal.SecondsSince(ctx, testNow.Add(-1))
	require.NoError(t, err)
	assert.Equal(t, 60, total)

	last, err := st.settings.GetInt(ctx, repository.KeyLastIssueID)
	require.NoError(t, err)
	assert.Equal(t, 42, last)
}

func TestFailedSave_WritesNoJournal(t *testing.T) {
	st, wire := withStores(t)
	h := newHarness(t, wire)
	h.load(42, true)
	h.tick(60)
	h.remote.SetError(testutil.OpSaveTimeEntry, errOffline)

	h.s.Stop(false, true)
	h.loop.Flush()

	entries, err := st.journal.ListRecent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestActivitySelection_Persisted(t *testing.T) {
	st, wire := withStores(t)
	h := newHarness(t, wire)
	h.load(42, false)

	h.s.ActivitySelected(0)

	id, err := st.settings.GetInt(context.Background(), repository.KeyLastActivityID)
	require.NoError(t, err)
	assert.Equal(t, 8, id)
}
