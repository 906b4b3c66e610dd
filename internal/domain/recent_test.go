package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(issues []Issue) []int {
	out := make([]int, len(issues))
	for i, is := range issues {
		out[i] = is.ID
	}
	return out
}

func TestRecentIssues_NewestFirst(t *testing.T) {
	r := &RecentIssues{}
	r.Add(Issue{ID: 1})
	r.Add(Issue{ID: 2})
	r.Add(Issue{ID: 3})

	assert.Equal(t, []int{3, 2, 1}, ids(r.Items()))
}

func TestRecentIssues_ReAddMovesToFront(t *testing.T) {
	r := &RecentIssues{}
	r.Add(Issue{ID: 1, Subject: "old"})
	r.Add(Issue{ID: 2})
	r.Add(Issue{ID: 1, Subject: "new"})

	items := r.Items()
	assert.Equal(t, []int{1, 2}, ids(items))
	assert.Equal(t, "new", items[0].Subject, "re-added issue replaces the stale copy")
}

func TestRecentIssues_CapacityDropsOldest(t *testing.T) {
	r := &RecentIssues{}
	for id := 1; id <= 15; id++ {
		r.Add(Issue{ID: id})
	}

	require.Equal(t, RecentIssueCapacity, r.Len())
	items := r.Items()
	assert.Equal(t, 15, items[0].ID)
	assert.Equal(t, 6, items[len(items)-1].ID)
}

func TestRecentIssues_NeverDuplicatesUnderChurn(t *testing.T) {
	r := &RecentIssues{}
	seq := []int{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5, 8, 9, 7, 9, 3, 2, 3, 8, 4, 6, 2, 6, 4, 3, 3, 8, 3, 2, 7, 9, 5}
	for _, id := range seq {
		r.Add(Issue{ID: id})
		seen := map[int]bool{}
		for _, is := range r.Items() {
			assert.False(t, seen[is.ID], "duplicate id %d", is.ID)
			seen[is.ID] = true
		}
		assert.LessOrEqual(t, r.Len(), RecentIssueCapacity)
		assert.Equal(t, id, r.Items()[0].ID)
	}
}

func TestRecentIssues_IgnoresNullID(t *testing.T) {
	r := &RecentIssues{}
	r.Add(Issue{ID: NullID})
	assert.Equal(t, 0, r.Len())
}

func TestNewRecentIssues_PreservesStoredOrderAndDedups(t *testing.T) {
	r := NewRecentIssues([]Issue{{ID: 5}, {ID: 4}, {ID: 5}, {ID: 3}})

	assert.Equal(t, []int{5, 4, 3}, ids(r.Items()))
}

func TestRecentIssues_At(t *testing.T) {
	r := NewRecentIssues([]Issue{{ID: 8}, {ID: 9}})

	is, ok := r.At(1)
	require.True(t, ok)
	assert.Equal(t, 9, is.ID)

	_, ok = r.At(2)
	assert.False(t, ok)
	_, ok = r.At(-1)
	assert.False(t, ok)
}
