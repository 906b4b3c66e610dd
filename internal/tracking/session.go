// Package tracking holds the time tracking session: the counter bound to a
// Redmine issue, the activity/status/recent caches, and the save, load and
// exit sequences that keep them consistent with the server.
//
// A Session is not safe for concurrent use. Every method, and every
// continuation it schedules, runs on the control thread provided by Loop.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/redtimer/internal/apperr"
	"github.com/alexanderramin/redtimer/internal/clock"
	"github.com/alexanderramin/redtimer/internal/domain"
	"github.com/alexanderramin/redtimer/internal/repository"
)

// Options are the user preferences the session applies when it decides
// on the caller's behalf.
type Options struct {
	StartTimerAfterLoad bool
	SaveCurrentFirst    bool
	RestoreLastIssue    bool
	MessageTimeout      time.Duration
}

// Deps wires a Session. Remote, Shell and Loop are required. Nil
// repositories disable the matching persistence.
type Deps struct {
	Remote   Remote
	Shell    Shell
	Loop     Loop
	Clock    clock.Clock
	Recent   repository.RecentIssueRepo
	Settings repository.SettingsRepo
	Journal  repository.JournalRepo
	Observer Observer
	Options  Options
}

// pendingSave is what a failed or abandoned save must restore. An
// abandoned save always keeps the counted time.
type pendingSave struct {
	wasRunning bool
}

// ticket identifies an outgoing request so its completion can be checked
// against the session state at the time it arrives.
type ticket struct {
	op          string
	requestID   string
	epoch       int
	issueGen    int
	seq         int
	lww         bool // a newer request of the same op supersedes this one
	issueScoped bool // loading another issue supersedes this one
}

type Session struct {
	remote   Remote
	shell    Shell
	loop     Loop
	clock    clock.Clock
	recentDB repository.RecentIssueRepo
	settings repository.SettingsRepo
	journal  repository.JournalRepo
	observer Observer
	opts     Options

	counter *Counter
	issue   *domain.Issue
	// tracked is the issue the counter's time belongs to. It differs from
	// issue after a load that did not save the running time first.
	tracked *domain.Issue

	activities domain.EntityList[domain.Activity]
	statuses   domain.EntityList[domain.IssueStatus]
	recent     *domain.RecentIssues
	activityID int
	statusID   int
	// preselect is an activity from the issue's history that the cache
	// did not know yet. NullID when there is none.
	preselect int

	saving      bool
	pending     *pendingSave
	exitPending bool

	epoch    int
	ctx      context.Context
	cancel   context.CancelFunc
	issueGen int
	seq      int
	latest   map[string]int
}

func New(deps Deps) *Session {
	s := &Session{
		remote:   deps.Remote,
		shell:    deps.Shell,
		loop:     deps.Loop,
		clock:    deps.Clock,
		recentDB: deps.Recent,
		settings: deps.Settings,
		journal:  deps.Journal,
		observer: deps.Observer,
		opts:     deps.Options,
		recent:   domain.NewRecentIssues(nil),
		latest:   make(map[string]int),
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.observer == nil {
		s.observer = NoopObserver{}
	}
	if s.opts.MessageTimeout <= 0 {
		s.opts.MessageTimeout = DefaultMessageTimeout
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.counter = NewCounter(deps.Loop, func(seconds int) { s.shell.RefreshCounter(seconds) })
	return s
}

// Close abandons in-flight requests.
func (s *Session) Close() { s.cancel() }

// Restore loads the persisted recent list and activity, then reopens the
// last issue when RestoreLastIssue is set.
func (s *Session) Restore(ctx context.Context) {
	if s.recentDB != nil {
		stored, err := s.recentDB.List(ctx)
		if err != nil {
			s.warn(fmt.Sprintf("Could not read recent issues: %v", err))
		} else {
			s.recent = domain.NewRecentIssues(stored)
		}
	}
	lastIssue := domain.NullID
	if s.settings != nil {
		if id, err := s.settings.GetInt(ctx, repository.KeyLastActivityID); err == nil {
			s.activityID = id
		}
		if id, err := s.settings.GetInt(ctx, repository.KeyLastIssueID); err == nil {
			lastIssue = id
		}
	}
	s.pushLists()
	s.refreshControls()

	if s.opts.RestoreLastIssue && lastIssue > domain.NullID {
		s.LoadIssue(lastIssue, false, false)
		return
	}
	s.LoadActivities()
	s.LoadIssueStatuses()
}

// OpenIssue loads an issue with the configured start and save preferences.
func (s *Session) OpenIssue(issueID int) {
	s.LoadIssue(issueID, s.opts.StartTimerAfterLoad, s.opts.SaveCurrentFirst)
}

// LoadRecentIssue opens the issue at index of the recent list.
func (s *Session) LoadRecentIssue(index int) {
	is, ok := s.recent.At(index)
	if !ok {
		s.fail(apperr.NewPrecondition("load_recent_issue", fmt.Sprintf("no recent issue at position %d", index+1)))
		return
	}
	s.OpenIssue(is.ID)
}

// LoadIssue fetches an issue and makes it current. When the counter runs
// and saveCurrentFirst is set, the running time is saved before the fetch
// is sent; a failed save cancels the load.
func (s *Session) LoadIssue(issueID int, startTimerAfter, saveCurrentFirst bool) {
	const op = "load_issue"
	if issueID < 1 {
		s.fail(apperr.NewPrecondition(op, "issue id must be a positive number"))
		return
	}
	if s.saving {
		s.fail(apperr.NewPrecondition(op, "wait for the current save to finish"))
		return
	}
	switchingAway := s.tracked == nil || s.tracked.ID != issueID
	if s.counter.Running() && saveCurrentFirst && switchingAway {
		s.stop(op, false, true, func() { s.fetchIssue(issueID, startTimerAfter) })
		return
	}
	s.fetchIssue(issueID, startTimerAfter)
}

func (s *Session) fetchIssue(issueID int, startTimerAfter bool) {
	t := s.newTicket("fetch_issue", true, false)
	var issue *domain.Issue
	s.run(t, func(ctx context.Context) error {
		var err error
		issue, err = s.remote.Issue(ctx, issueID)
		return err
	}, func(err error) {
		if err != nil {
			s.fail(err)
			return
		}
		s.setIssue(*issue)
		s.LoadIssueStatuses()
		s.LoadLatestActivity()
		if startTimerAfter {
			s.Start()
		}
	})
}

func (s *Session) setIssue(issue domain.Issue) {
	s.issue = &issue
	s.issueGen++
	s.preselect = domain.NullID
	s.statusID = issue.Status.ID
	s.recent.Add(issue)

	ctx := s.ctx
	if s.recentDB != nil {
		if err := s.recentDB.Replace(ctx, s.recent.Items()); err != nil {
			s.warn(fmt.Sprintf("Could not store recent issues: %v", err))
		}
	}
	if s.settings != nil {
		if err := s.settings.SetInt(ctx, repository.KeyLastIssueID, issue.ID); err != nil {
			s.warn(fmt.Sprintf("Could not store last issue: %v", err))
		}
	}

	s.shell.RefreshIssue(issue)
	s.pushLists()
	s.refreshControls()
}

// Start runs the counter for the current issue. When it is already
// running for another issue, that time is saved first and the counter
// restarts from zero.
func (s *Session) Start() {
	const op = "start"
	if s.issue == nil {
		s.fail(apperr.NewPrecondition(op, "load an issue before starting the timer"))
		return
	}
	if s.saving {
		s.fail(apperr.NewPrecondition(op, "wait for the current save to finish"))
		return
	}
	sameIssue := s.tracked != nil && s.tracked.ID == s.issue.ID
	if s.counter.Running() && sameIssue {
		return
	}
	if !sameIssue && (s.counter.Running() || s.counter.Value() > 0) {
		// Saving with stopAfter=false restarts the counter for s.issue.
		s.stop(op, false, false, nil)
		return
	}
	s.track()
}

func (s *Session) track() {
	current := *s.issue
	s.tracked = &current
	s.counter.Start()
	s.refreshControls()
}

// StartStop stops a running counter and starts a stopped one.
func (s *Session) StartStop() {
	if s.counter.Running() {
		s.Stop(false, true)
		return
	}
	s.Start()
}

// Stop saves the counted time as a time entry. On success the counter is
// zeroed and, unless stopTimerAfterSaving, keeps running for the current
// issue. On failure the time is kept (or dropped with resetTimerOnError)
// and a running counter resumes.
func (s *Session) Stop(resetTimerOnError, stopTimerAfterSaving bool) {
	s.stop("stop", resetTimerOnError, stopTimerAfterSaving, nil)
}

// stop is Stop with a continuation run after a successful save.
func (s *Session) stop(op string, resetOnError, stopAfter bool, then func()) {
	if s.saving {
		s.fail(apperr.NewPrecondition(op, "a save is already in progress"))
		return
	}
	target := s.tracked
	if target == nil {
		target = s.issue
	}
	if target == nil {
		s.fail(apperr.NewPrecondition(op, "no issue is loaded"))
		return
	}

	if s.counter.Value() == 0 {
		s.counter.Stop()
		if !stopAfter && s.issue != nil {
			s.track()
		}
		s.refreshControls()
		if then != nil {
			then()
			return
		}
		s.info("Nothing to save yet")
		return
	}

	if s.activityID == domain.NullID {
		s.fail(apperr.NewPrecondition(op, "select an activity before saving time"))
		return
	}

	wasRunning := s.counter.Running()
	s.counter.Stop()
	issue := *target
	entry := domain.TimeEntry{
		IssueID:    issue.ID,
		ActivityID: s.activityID,
		Seconds:    s.counter.Value(),
		SpentOn:    s.clock.Now(),
	}
	s.saving = true
	s.pending = &pendingSave{wasRunning: wasRunning}
	s.refreshControls()

	t := s.newTicket("save_time_entry", false, false)
	var saved *domain.TimeEntry
	s.run(t, func(ctx context.Context) error {
		var err error
		saved, err = s.remote.SaveTimeEntry(ctx, entry)
		return err
	}, func(err error) {
		s.saving = false
		s.pending = nil
		if err != nil {
			s.saveFailed(err, wasRunning, resetOnError)
			return
		}
		if saved == nil {
			saved = &entry
		}
		s.saveSucceeded(issue, *saved, entry.Seconds, stopAfter)
		if then != nil {
			then()
		}
	})
}

func (s *Session) saveFailed(err error, wasRunning, resetOnError bool) {
	s.fail(err)
	if resetOnError {
		s.counter.Reset()
		s.shell.RefreshCounter(0)
	} else if wasRunning {
		s.counter.Start()
	}
	s.refreshControls()
}

func (s *Session) saveSucceeded(issue domain.Issue, saved domain.TimeEntry, seconds int, stopAfter bool) {
	s.counter.Reset()
	s.shell.RefreshCounter(0)
	s.tracked = nil

	activityName := ""
	if a, ok := s.activities.Get(saved.ActivityID); ok {
		activityName = a.Name
	}
	if s.journal != nil {
		err := s.journal.Append(s.ctx, &domain.JournalEntry{
			RemoteID:     saved.ID,
			IssueID:      issue.ID,
			IssueSubject: issue.Subject,
			ActivityID:   saved.ActivityID,
			ActivityName: activityName,
			Seconds:      seconds,
			Comment:      saved.Comment,
			SpentOn:      saved.SpentOn,
			SavedAt:      s.clock.Now(),
		})
		if err != nil {
			s.warn(fmt.Sprintf("Saved to Redmine, but the local journal failed: %v", err))
		}
	}

	s.shell.TimeEntrySaved(saved)
	s.info(savedMessage(issue, seconds, activityName))
	s.LoadActivities()
	s.LoadIssueStatuses()
	s.pushLists()

	if !stopAfter && s.issue != nil {
		s.track()
		return
	}
	s.refreshControls()
}

// LoadActivities replaces the activity cache. On failure the old cache stays.
func (s *Session) LoadActivities() {
	t := s.newTicket("fetch_activities", true, false)
	var list []domain.Activity
	s.run(t, func(ctx context.Context) error {
		var err error
		list, err = s.remote.Activities(ctx)
		return err
	}, func(err error) {
		if err != nil {
			s.fail(err)
			return
		}
		s.activities.Replace(list)
		switch {
		case s.preselect != domain.NullID && s.activities.Contains(s.preselect):
			s.setActivity(s.preselect)
		case !s.activities.Contains(s.activityID):
			s.setActivity(s.defaultActivityID())
		}
		s.preselect = domain.NullID
		s.pushLists()
	})
}

func (s *Session) defaultActivityID() int {
	for _, a := range s.activities.Items() {
		if a.IsDefault {
			return a.ID
		}
	}
	return domain.NullID
}

// LoadIssueStatuses replaces the status cache. On failure the old cache stays.
func (s *Session) LoadIssueStatuses() {
	t := s.newTicket("fetch_issue_statuses", true, false)
	var list []domain.IssueStatus
	s.run(t, func(ctx context.Context) error {
		var err error
		list, err = s.remote.IssueStatuses(ctx)
		return err
	}, func(err error) {
		if err != nil {
			s.fail(err)
			return
		}
		s.statuses.Replace(list)
		s.pushLists()
	})
}

// LoadLatestActivity refreshes activities and preselects the activity of
// the newest time entry on the current issue. When the cache does not know
// that activity yet, whichever activity refresh lands next applies it.
func (s *Session) LoadLatestActivity() {
	if s.issue == nil {
		s.fail(apperr.NewPrecondition("load_latest_activity", "no issue is loaded"))
		return
	}
	issueID := s.issue.ID
	s.LoadActivities()

	t := s.newTicket("fetch_latest_activity", true, true)
	var latest *domain.Activity
	s.run(t, func(ctx context.Context) error {
		var err error
		latest, err = s.remote.LatestActivity(ctx, issueID)
		return err
	}, func(err error) {
		if err != nil {
			s.fail(err)
			return
		}
		if latest == nil {
			return
		}
		if !s.activities.Contains(latest.ID) {
			s.preselect = latest.ID
			return
		}
		s.setActivity(latest.ID)
		s.pushLists()
	})
}

// ActivitySelected selects the activity at index of the cache.
func (s *Session) ActivitySelected(index int) {
	a, ok := s.activities.At(index)
	if !ok {
		s.fail(apperr.NewPrecondition("select_activity", fmt.Sprintf("no activity at position %d", index+1)))
		return
	}
	s.preselect = domain.NullID
	s.setActivity(a.ID)
	s.pushLists()
}

func (s *Session) setActivity(id int) {
	if s.activityID == id {
		return
	}
	s.activityID = id
	if s.settings != nil && id != domain.NullID {
		if err := s.settings.SetInt(s.ctx, repository.KeyLastActivityID, id); err != nil {
			s.warn(fmt.Sprintf("Could not store activity: %v", err))
		}
	}
}

// IssueStatusSelected selects the status at index of the cache locally.
func (s *Session) IssueStatusSelected(index int) {
	st, ok := s.statuses.At(index)
	if !ok {
		s.fail(apperr.NewPrecondition("select_issue_status", fmt.Sprintf("no status at position %d", index+1)))
		return
	}
	s.statusID = st.ID
	s.pushLists()
}

// UpdateIssueStatus selects statusID and sends it to Redmine for the
// current issue. The local selection stands whatever Redmine answers.
func (s *Session) UpdateIssueStatus(statusID int) {
	const op = "update_issue_status"
	if s.issue == nil {
		s.fail(apperr.NewPrecondition(op, "no issue is loaded"))
		return
	}
	if statusID < 1 {
		s.fail(apperr.NewPrecondition(op, "select a status first"))
		return
	}
	s.statusID = statusID
	s.pushLists()

	issueID := s.issue.ID
	t := s.newTicket(op, false, false)
	s.run(t, func(ctx context.Context) error {
		return s.remote.UpdateIssueStatus(ctx, issueID, statusID)
	}, func(err error) {
		if err != nil {
			s.fail(err)
			return
		}
		name := fmt.Sprintf("status %d", statusID)
		if st, ok := s.statuses.Get(statusID); ok {
			name = st.Name
		}
		if s.issue != nil && s.issue.ID == issueID {
			s.issue.Status = domain.Ref{ID: statusID, Name: name}
			s.shell.RefreshIssue(*s.issue)
		}
		s.info(fmt.Sprintf("Issue #%d is now %s", issueID, name))
	})
}

// Reconnect abandons every in-flight request and re-establishes the
// Redmine connection. An interrupted save is rolled back as failed, so the
// counted time is kept for a retry.
func (s *Session) Reconnect() {
	s.epoch++
	s.cancel()
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if s.saving {
		p := s.pending
		s.saving = false
		s.pending = nil
		err := apperr.NewConnection("save_time_entry", errors.New("save interrupted by reconnect, the time was kept"))
		s.saveFailed(err, p.wasRunning, false)
	}

	t := s.newTicket("reconnect", false, false)
	s.run(t, s.remote.Reconnect, func(err error) {
		if err != nil {
			s.fail(err)
			return
		}
		s.info("Reconnected to Redmine")
		s.LoadActivities()
		s.LoadIssueStatuses()
	})
}

// Exit quits at once when no time is at stake. Otherwise it asks the shell
// for an ExitChoice and waits for ResolveExit.
func (s *Session) Exit() {
	if s.saving {
		s.fail(apperr.NewPrecondition("exit", "a save is in progress, try again when it finishes"))
		return
	}
	if s.counter.Running() || s.counter.Value() > 0 {
		s.exitPending = true
		s.refreshControls()
		s.shell.PromptExitChoice()
		return
	}
	s.shell.Quit()
}

// ResolveExit applies the user's answer to PromptExitChoice.
func (s *Session) ResolveExit(choice ExitChoice) {
	if !s.exitPending {
		return
	}
	s.exitPending = false
	switch choice {
	case ExitSave:
		s.refreshControls()
		s.stop("exit", false, true, s.shell.Quit)
	case ExitDiscard:
		s.counter.Stop()
		s.counter.Reset()
		s.tracked = nil
		s.shell.RefreshCounter(0)
		s.refreshControls()
		s.shell.Quit()
	default:
		s.refreshControls()
	}
}

// Accessors for the shell. Returned values are copies.

func (s *Session) Issue() (domain.Issue, bool) {
	if s.issue == nil {
		return domain.Issue{}, false
	}
	return *s.issue, true
}

func (s *Session) TrackedIssue() (domain.Issue, bool) {
	if s.tracked == nil {
		return domain.Issue{}, false
	}
	return *s.tracked, true
}

func (s *Session) Seconds() int      { return s.counter.Value() }
func (s *Session) Running() bool     { return s.counter.Running() }
func (s *Session) Saving() bool      { return s.saving }
func (s *Session) ExitPending() bool { return s.exitPending }
func (s *Session) ActivityID() int   { return s.activityID }
func (s *Session) StatusID() int     { return s.statusID }

func (s *Session) Activities() []domain.Activity       { return s.activities.Items() }
func (s *Session) IssueStatuses() []domain.IssueStatus { return s.statuses.Items() }
func (s *Session) RecentIssues() []domain.Issue        { return s.recent.Items() }

func (s *Session) Options() Options { return s.opts }

// --- plumbing ---

func (s *Session) newTicket(op string, lww, issueScoped bool) ticket {
	s.seq++
	if lww {
		s.latest[op] = s.seq
	}
	return ticket{
		op:          op,
		requestID:   uuid.NewString(),
		epoch:       s.epoch,
		issueGen:    s.issueGen,
		seq:         s.seq,
		lww:         lww,
		issueScoped: issueScoped,
	}
}

// current reports whether a completion for t still applies.
func (s *Session) current(t ticket) bool {
	if t.epoch != s.epoch {
		return false
	}
	if t.issueScoped && t.issueGen != s.issueGen {
		return false
	}
	if t.lww && s.latest[t.op] != t.seq {
		return false
	}
	return true
}

// run calls fn off the control thread and hands its error to done on the
// control thread, unless the session moved on in between.
func (s *Session) run(t ticket, fn func(ctx context.Context) error, done func(err error)) {
	ctx := s.ctx
	s.loop.Go(func() func() {
		started := time.Now()
		err := fn(ctx)
		elapsed := time.Since(started)
		return func() {
			stale := !s.current(t)
			s.observe(t, elapsed, err, stale)
			if stale {
				return
			}
			done(err)
		}
	})
}

func (s *Session) observe(t ticket, d time.Duration, err error, stale bool) {
	s.observer.ObserveCall(s.ctx, CallEvent{
		Op:        t.op,
		RequestID: t.requestID,
		Epoch:     t.epoch,
		Duration:  d,
		Success:   err == nil,
		Stale:     stale,
		Err:       err,
	})
}

func (s *Session) fail(err error) {
	text, sev := describe(err)
	s.shell.Message(text, sev, s.opts.MessageTimeout)
}

func (s *Session) warn(text string) {
	s.shell.Message(text, SeverityWarning, s.opts.MessageTimeout)
}

func (s *Session) info(text string) {
	s.shell.Message(text, SeverityInfo, s.opts.MessageTimeout)
}

func (s *Session) pushLists() {
	s.shell.RefreshEntityLists(EntityLists{
		Activities:         s.activities.Items(),
		SelectedActivityID: s.activityID,
		Statuses:           s.statuses.Items(),
		SelectedStatusID:   s.statusID,
		Recent:             s.recent.Items(),
	})
}

func (s *Session) refreshControls() {
	s.shell.RefreshControls(Controls{
		IssueLoaded: s.issue != nil,
		Running:     s.counter.Running(),
		Saving:      s.saving,
		ExitPending: s.exitPending,
	})
}
