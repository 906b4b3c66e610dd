package cli

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexanderramin/redtimer/internal/domain"
	"github.com/alexanderramin/redtimer/internal/tracking"
)

type statusMessage struct {
	id       int
	text     string
	severity tracking.Severity
}

// SharedState is the TUI's copy of what the session last reported, plus
// Cmds queued while handling the current message.
type SharedState struct {
	App     *App
	Session *tracking.Session

	Issue        *domain.Issue
	Seconds      int
	Lists        tracking.EntityLists
	Controls     tracking.Controls
	Message      statusMessage
	LastSaved    *domain.TimeEntry
	TodaySeconds int

	Width  int
	Height int

	pending    []tea.Cmd
	promptExit bool
	quit       bool
	messageSeq int
}

func (s *SharedState) queue(cmd tea.Cmd) {
	if cmd != nil {
		s.pending = append(s.pending, cmd)
	}
}

// takePending hands the queued Cmds to bubbletea.
func (s *SharedState) takePending() tea.Cmd {
	if len(s.pending) == 0 {
		return nil
	}
	cmds := s.pending
	s.pending = nil
	return tea.Batch(cmds...)
}

// ContentWidth is the usable width, with a floor for tiny terminals.
func (s *SharedState) ContentWidth() int {
	if s.Width < 40 {
		return 40
	}
	return s.Width
}

// clearMessageMsg expires the message with the same id.
type clearMessageMsg struct{ id int }

// todayMsg carries the seconds saved since midnight.
type todayMsg struct {
	seconds int
	err     error
}

// teaShell is the session's view of the TUI. The session calls it from
// Update, so it only records state and queues Cmds.
type teaShell struct {
	state *SharedState
}

func (sh teaShell) Message(text string, severity tracking.Severity, timeout time.Duration) {
	s := sh.state
	s.messageSeq++
	id := s.messageSeq
	s.Message = statusMessage{id: id, text: text, severity: severity}
	if timeout > 0 {
		s.queue(tea.Tick(timeout, func(time.Time) tea.Msg { return clearMessageMsg{id: id} }))
	}
}

func (sh teaShell) RefreshCounter(seconds int) { sh.state.Seconds = seconds }

func (sh teaShell) RefreshIssue(issue domain.Issue) { sh.state.Issue = &issue }

func (sh teaShell) RefreshEntityLists(lists tracking.EntityLists) { sh.state.Lists = lists }

func (sh teaShell) RefreshControls(c tracking.Controls) { sh.state.Controls = c }

func (sh teaShell) TimeEntrySaved(entry domain.TimeEntry) {
	sh.state.LastSaved = &entry
	sh.state.queue(loadToday(sh.state.App))
}

func (sh teaShell) PromptExitChoice() { sh.state.promptExit = true }

func (sh teaShell) Quit() { sh.state.quit = true }

// loadToday sums the journal since local midnight.
func loadToday(app *App) tea.Cmd {
	if app.Journal == nil {
		return nil
	}
	return func() tea.Msg {
		n, err := app.Journal.SecondsSince(context.Background(), startOfDay(app.now()))
		return todayMsg{seconds: n, err: err}
	}
}
