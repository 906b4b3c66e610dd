package tracking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/redtimer/internal/clock"
	"github.com/alexanderramin/redtimer/internal/domain"
	"github.com/alexanderramin/redtimer/internal/testutil"
)

var testNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

type shellMessage struct {
	text     string
	severity Severity
	timeout  time.Duration
}

// recordingShell captures everything the session tells the shell.
type recordingShell struct {
	messages []shellMessage
	counter  []int
	issues   []domain.Issue
	lists    []EntityLists
	controls []Controls
	saved    []domain.TimeEntry
	prompts  int
	quits    int
}

func (r *recordingShell) Message(text string, severity Severity, timeout time.Duration) {
	r.messages = append(r.messages, shellMessage{text, severity, timeout})
}
func (r *recordingShell) RefreshCounter(seconds int)        { r.counter = append(r.counter, seconds) }
func (r *recordingShell) RefreshIssue(issue domain.Issue)   { r.issues = append(r.issues, issue) }
func (r *recordingShell) RefreshEntityLists(l EntityLists)  { r.lists = append(r.lists, l) }
func (r *recordingShell) RefreshControls(c Controls)        { r.controls = append(r.controls, c) }
func (r *recordingShell) TimeEntrySaved(e domain.TimeEntry) { r.saved = append(r.saved, e) }
func (r *recordingShell) PromptExitChoice()                 { r.prompts++ }
func (r *recordingShell) Quit()                             { r.quits++ }

func (r *recordingShell) messagesOf(sev Severity) []shellMessage {
	var out []shellMessage
	for _, m := range r.messages {
		if m.severity == sev {
			out = append(out, m)
		}
	}
	return out
}

func (r *recordingShell) lastLists() EntityLists {
	if len(r.lists) == 0 {
		return EntityLists{}
	}
	return r.lists[len(r.lists)-1]
}

// recordingObserver keeps call events for stale-completion assertions.
type recordingObserver struct {
	mu     sync.Mutex
	events []CallEvent
}

func (o *recordingObserver) ObserveCall(_ context.Context, e CallEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) stale(op string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, e := range o.events {
		if e.Op == op && e.Stale {
			n++
		}
	}
	return n
}

type harness struct {
	s        *Session
	loop     *testutil.ManualLoop
	remote   *testutil.FakeRemote
	shell    *recordingShell
	observer *recordingObserver
	clock    *clock.FakeClock
}

func newHarness(t *testing.T, configure ...func(*Deps)) *harness {
	t.Helper()
	h := &harness{
		loop: testutil.NewManualLoop(),
		remote: testutil.NewFakeRemote(
			testutil.NewTestIssue(1),
			testutil.NewTestIssue(2),
			testutil.NewTestIssue(42, testutil.WithSubject("Fix login")),
		),
		shell:    &recordingShell{},
		observer: &recordingObserver{},
		clock:    clock.Fake(testNow),
	}
	deps := Deps{
		Remote:   h.remote,
		Shell:    h.shell,
		Loop:     h.loop,
		Clock:    h.clock,
		Observer: h.observer,
		Options: Options{
			StartTimerAfterLoad: true,
			SaveCurrentFirst:    true,
			MessageTimeout:      DefaultMessageTimeout,
		},
	}
	for _, fn := range configure {
		fn(&deps)
	}
	h.s = New(deps)
	t.Cleanup(h.s.Close)
	return h
}

// load opens an issue and delivers every continuation.
func (h *harness) load(id int, start bool) {
	h.s.LoadIssue(id, start, true)
	h.loop.Flush()
}

func (h *harness) tick(n int) { h.loop.Tick(n) }
