package domain

// RecentIssueCapacity bounds the recent-issues list.
const RecentIssueCapacity = 10

// RecentIssues is the most-recently-opened issue list: newest first,
// at most RecentIssueCapacity entries, no issue id twice.
type RecentIssues struct {
	items []Issue
}

// NewRecentIssues builds the list from a stored order, enforcing the
// capacity and duplicate invariants on the way in.
func NewRecentIssues(issues []Issue) *RecentIssues {
	r := &RecentIssues{}
	for i := len(issues) - 1; i >= 0; i-- {
		r.Add(issues[i])
	}
	return r
}

// Add puts issue at the front. An entry with the same id moves instead of
// being duplicated; the oldest entry is dropped past capacity.
func (r *RecentIssues) Add(issue Issue) {
	if issue.ID == NullID {
		return
	}
	out := make([]Issue, 0, RecentIssueCapacity)
	out = append(out, issue)
	for _, existing := range r.items {
		if existing.ID == issue.ID {
			continue
		}
		if len(out) == RecentIssueCapacity {
			break
		}
		out = append(out, existing)
	}
	r.items = out
}

// Items returns a copy, newest first.
func (r *RecentIssues) Items() []Issue {
	return append([]Issue(nil), r.items...)
}

func (r *RecentIssues) Len() int { return len(r.items) }

// At returns the issue at index, or false when index is out of range.
func (r *RecentIssues) At(index int) (Issue, bool) {
	if index < 0 || index >= len(r.items) {
		return Issue{}, false
	}
	return r.items[index], true
}
