package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/alexanderramin/redtimer/internal/apperr"
	"github.com/alexanderramin/redtimer/internal/domain"
	"github.com/alexanderramin/redtimer/internal/redmine"
)

// FakeBaseURL is what FakeRemote.BaseURL reports.
const FakeBaseURL = "https://redmine.test"

// Operation names accepted by FakeRemote.SetError.
const (
	OpIssue             = "Issue"
	OpActivities        = "Activities"
	OpIssueStatuses     = "IssueStatuses"
	OpLatestActivity    = "LatestActivity"
	OpSaveTimeEntry     = "SaveTimeEntry"
	OpUpdateIssueStatus = "UpdateIssueStatus"
	OpReconnect         = "Reconnect"
	OpIssues            = "Issues"
	OpCreateIssue       = "CreateIssue"
	OpCurrentUser       = "CurrentUser"
)

// StatusUpdate records one UpdateIssueStatus call.
type StatusUpdate struct {
	IssueID  int
	StatusID int
}

// FakeRemote is an in-memory Redmine. Unknown issue ids return NotFound.
type FakeRemote struct {
	mu sync.Mutex

	issues     map[int]domain.Issue
	activities []domain.Activity
	statuses   []domain.IssueStatus
	latest     map[int]domain.Activity
	errs       map[string]error

	calls         []string
	saved         []domain.TimeEntry
	statusUpdates []StatusUpdate
	nextEntryID   int
}

// NewFakeRemote seeds the fake with TestActivities and TestStatuses.
func NewFakeRemote(issues ...domain.Issue) *FakeRemote {
	f := &FakeRemote{
		issues:      make(map[int]domain.Issue),
		activities:  TestActivities(),
		statuses:    TestStatuses(),
		latest:      make(map[int]domain.Activity),
		errs:        make(map[string]error),
		nextEntryID: 1000,
	}
	for _, is := range issues {
		f.issues[is.ID] = is
	}
	return f
}

func (f *FakeRemote) AddIssue(is domain.Issue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issues[is.ID] = is
}

func (f *FakeRemote) SetActivities(a []domain.Activity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activities = append([]domain.Activity(nil), a...)
}

func (f *FakeRemote) SetStatuses(s []domain.IssueStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append([]domain.IssueStatus(nil), s...)
}

// SetLatestActivity sets what LatestActivity returns for the issue.
func (f *FakeRemote) SetLatestActivity(issueID int, a domain.Activity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest[issueID] = a
}

// SetError makes op fail with err until cleared with a nil err.
func (f *FakeRemote) SetError(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, op)
		return
	}
	f.errs[op] = err
}

// Calls returns the operation names in call order.
func (f *FakeRemote) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount counts calls of one operation.
func (f *FakeRemote) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

// Saved returns the time entries accepted so far.
func (f *FakeRemote) Saved() []domain.TimeEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.TimeEntry(nil), f.saved...)
}

func (f *FakeRemote) StatusUpdates() []StatusUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]StatusUpdate(nil), f.statusUpdates...)
}

func (f *FakeRemote) record(op string) error {
	f.calls = append(f.calls, op)
	return f.errs[op]
}

func (f *FakeRemote) Issue(_ context.Context, id int) (*domain.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpIssue); err != nil {
		return nil, err
	}
	is, ok := f.issues[id]
	if !ok {
		return nil, apperr.NewNotFound("fetch_issue", "issue", id)
	}
	return &is, nil
}

func (f *FakeRemote) Activities(context.Context) ([]domain.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpActivities); err != nil {
		return nil, err
	}
	return append([]domain.Activity(nil), f.activities...), nil
}

func (f *FakeRemote) IssueStatuses(context.Context) ([]domain.IssueStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpIssueStatuses); err != nil {
		return nil, err
	}
	return append([]domain.IssueStatus(nil), f.statuses...), nil
}

func (f *FakeRemote) LatestActivity(_ context.Context, issueID int) (*domain.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpLatestActivity); err != nil {
		return nil, err
	}
	a, ok := f.latest[issueID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (f *FakeRemote) SaveTimeEntry(_ context.Context, e domain.TimeEntry) (*domain.TimeEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpSaveTimeEntry); err != nil {
		return nil, err
	}
	if _, ok := f.issues[e.IssueID]; !ok {
		return nil, apperr.NewNotFound("create_time_entry", "issue", e.IssueID)
	}
	if e.ID == 0 {
		f.nextEntryID++
		e.ID = f.nextEntryID
	}
	f.saved = append(f.saved, e)
	return &e, nil
}

func (f *FakeRemote) UpdateIssueStatus(_ context.Context, issueID, statusID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpUpdateIssueStatus); err != nil {
		return err
	}
	is, ok := f.issues[issueID]
	if !ok {
		return apperr.NewNotFound("update_issue_status", "issue", issueID)
	}
	for _, s := range f.statuses {
		if s.ID == statusID {
			is.Status = domain.Ref{ID: s.ID, Name: s.Name}
		}
	}
	f.issues[issueID] = is
	f.statusUpdates = append(f.statusUpdates, StatusUpdate{IssueID: issueID, StatusID: statusID})
	return nil
}

func (f *FakeRemote) Reconnect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record(OpReconnect)
}

// Issues lists issues newest id first. OpenOnly drops issues whose status
// is closed in the status list; AssignedToMe is ignored.
func (f *FakeRemote) Issues(_ context.Context, q redmine.IssueQuery) ([]domain.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpIssues); err != nil {
		return nil, err
	}
	closed := make(map[int]bool)
	for _, s := range f.statuses {
		closed[s.ID] = s.IsClosed
	}
	var out []domain.Issue
	for _, is := range f.issues {
		if q.OpenOnly && closed[is.Status.ID] {
			continue
		}
		if q.ProjectID != "" && !strings.EqualFold(q.ProjectID, is.Project.Name) {
			continue
		}
		out = append(out, is)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// CreateIssue stores a new issue with the next free id in status New.
func (f *FakeRemote) CreateIssue(_ context.Context, in redmine.NewIssue) (*domain.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpCreateIssue); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Subject) == "" || in.ProjectID == "" {
		return nil, apperr.NewPrecondition("create_issue", "project and subject are required")
	}
	next := 1
	for id := range f.issues {
		if id >= next {
			next = id + 1
		}
	}
	is := domain.Issue{
		ID:          next,
		Subject:     in.Subject,
		Description: in.Description,
		Project:     domain.Ref{ID: 1, Name: in.ProjectID},
		Tracker:     domain.Ref{ID: in.TrackerID, Name: "Bug"},
		Status:      domain.Ref{ID: 1, Name: "New"},
	}
	f.issues[is.ID] = is
	return &is, nil
}

func (f *FakeRemote) CurrentUser(context.Context) (*redmine.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpCurrentUser); err != nil {
		return nil, err
	}
	return &redmine.User{ID: 7, Login: "jdoe", Name: "Jane Doe"}, nil
}

func (f *FakeRemote) BaseURL() string { return FakeBaseURL }
