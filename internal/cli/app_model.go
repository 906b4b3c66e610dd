package cli

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/alexanderramin/redtimer/internal/domain"
	"github.com/alexanderramin/redtimer/internal/tracking"
)

type pane int

const (
	paneRecent pane = iota
	paneActivities
	paneStatuses
	paneCount
)

func (p pane) title() string {
	switch p {
	case paneActivities:
		return "Activity"
	case paneStatuses:
		return "Status"
	default:
		return "Recent"
	}
}

type mode int

const (
	modeMain mode = iota
	modeOpenIssue
	modeExitPrompt
)

// appModel is the root bubbletea model. It forwards key presses to the
// session and renders whatever the session last reported through teaShell.
type appModel struct {
	state *SharedState
	loop  *teaLoop
	keys  keyMap
	help  help.Model

	focus  pane
	cursor [paneCount]int

	mode       mode
	form       *huh.Form
	issueInput *string
	exitChoice *tracking.ExitChoice

	preload  int
	quitting bool
}

// newAppModel wires a Session to the TUI. preload opens that issue after
// the persisted state is restored.
func newAppModel(app *App, preload int) appModel {
	state := &SharedState{App: app}
	loop := newTeaLoop(state.queue)
	state.Session = tracking.New(tracking.Deps{
		Remote:   app.Redmine,
		Shell:    teaShell{state: state},
		Loop:     loop,
		Clock:    app.Clock,
		Recent:   app.Recent,
		Settings: app.Settings,
		Journal:  app.Journal,
		Observer: app.Observer,
		Options:  app.sessionOptions(),
	})
	return appModel{
		state:   state,
		loop:    loop,
		keys:    newKeyMap(),
		help:    help.New(),
		preload: preload,
	}
}

// ── bubbletea interface ──────────────────────────────────────────────────────

func (m appModel) Init() tea.Cmd {
	session := m.state.Session
	preload := m.preload
	restore := func() tea.Msg {
		return runMsg{fn: func() {
			session.Restore(context.Background())
			if preload > 0 {
				session.OpenIssue(preload)
			}
		}}
	}
	return tea.Batch(restore, loadToday(m.state.App))
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.state.Width = msg.Width
		m.state.Height = msg.Height
		m.help.Width = msg.Width

	case runMsg:
		if msg.fn != nil {
			msg.fn()
		}

	case timerMsg:
		m.loop.fire(msg)

	case exitRequestMsg:
		if m.mode != modeExitPrompt {
			m.state.Session.Exit()
		}

	case clearMessageMsg:
		if m.state.Message.id == msg.id {
			m.state.Message = statusMessage{}
		}

	case todayMsg:
		if msg.err == nil {
			m.state.TodaySeconds = msg.seconds
		}

	case tea.KeyMsg:
		if m.form != nil {
			cmd = m.updateForm(msg)
		} else {
			cmd = m.handleKey(msg)
		}

	default:
		if m.form != nil {
			cmd = m.updateForm(msg)
		}
	}

	return m.settle(cmd)
}

// settle collects Cmds the session queued and reacts to exit requests.
func (m appModel) settle(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{cmd, m.state.takePending()}
	if m.state.promptExit {
		m.state.promptExit = false
		cmds = append(cmds, m.openExitPrompt())
	}
	if m.state.quit && !m.quitting {
		m.quitting = true
		m.state.Session.Close()
		cmds = append(cmds, tea.Quit)
	}
	return m, tea.Batch(cmds...)
}

func (m *appModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	s := m.state.Session

	switch {
	case key.Matches(msg, m.keys.Quit):
		s.Exit()
	case key.Matches(msg, m.keys.StartStop):
		s.StartStop()
	case key.Matches(msg, m.keys.Open):
		return m.openIssuePrompt()
	case key.Matches(msg, m.keys.NextPane):
		m.focus = (m.focus + 1) % paneCount
	case key.Matches(msg, m.keys.PrevPane):
		m.focus = (m.focus + paneCount - 1) % paneCount
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Select):
		m.selectAtCursor()
	case key.Matches(msg, m.keys.Push):
		s.UpdateIssueStatus(m.state.Lists.SelectedStatusID)
	case key.Matches(msg, m.keys.Latest):
		s.LoadLatestActivity()
	case key.Matches(msg, m.keys.Reconnect):
		s.Reconnect()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

func (m *appModel) paneLen(p pane) int {
	switch p {
	case paneActivities:
		return len(m.state.Lists.Activities)
	case paneStatuses:
		return len(m.state.Lists.Statuses)
	default:
		return len(m.state.Lists.Recent)
	}
}

// cursorAt clamps the stored cursor to the current list length.
func (m *appModel) cursorAt(p pane) int {
	n := m.paneLen(p)
	c := m.cursor[p]
	if c >= n {
		c = n - 1
	}
	if c < 0 {
		c = 0
	}
	return c
}

func (m *appModel) moveCursor(delta int) {
	n := m.paneLen(m.focus)
	if n == 0 {
		return
	}
	c := m.cursorAt(m.focus) + delta
	if c < 0 {
		c = 0
	}
	if c >= n {
		c = n - 1
	}
	m.cursor[m.focus] = c
}

func (m *appModel) selectAtCursor() {
	s := m.state.Session
	i := m.cursorAt(m.focus)
	switch m.focus {
	case paneActivities:
		s.ActivitySelected(i)
	case paneStatuses:
		s.IssueStatusSelected(i)
	default:
		s.LoadRecentIssue(i)
	}
}

// ── forms ────────────────────────────────────────────────────────────────────

func (m *appModel) openIssuePrompt() tea.Cmd {
	m.issueInput = new(string)
	m.form = issueIDForm(m.issueInput)
	m.mode = modeOpenIssue
	return m.form.Init()
}

func (m *appModel) openExitPrompt() tea.Cmd {
	var shown *domain.Issue
	if issue, ok := m.state.Session.TrackedIssue(); ok {
		shown = &issue
	} else if issue, ok := m.state.Session.Issue(); ok {
		shown = &issue
	}
	m.exitChoice = new(tracking.ExitChoice)
	m.form = exitChoiceForm(shown, m.state.Seconds, m.exitChoice)
	m.mode = modeExitPrompt
	return m.form.Init()
}

func (m *appModel) updateForm(msg tea.Msg) tea.Cmd {
	if k, ok := msg.(tea.KeyMsg); ok && (k.Type == tea.KeyEsc || k.Type == tea.KeyCtrlC) {
		m.cancelForm()
		return nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.completeForm()
	case huh.StateAborted:
		m.cancelForm()
	}
	return cmd
}

func (m *appModel) completeForm() {
	switch m.mode {
	case modeOpenIssue:
		m.submitIssueID(*m.issueInput)
	case modeExitPrompt:
		m.resolveExit(*m.exitChoice)
	}
}

func (m *appModel) cancelForm() {
	if m.mode == modeExitPrompt {
		m.resolveExit(tracking.ExitAbort)
		return
	}
	m.closeForm()
}

func (m *appModel) closeForm() {
	m.form = nil
	m.issueInput = nil
	m.exitChoice = nil
	m.mode = modeMain
}

// submitIssueID opens the typed issue. A bad id still goes to the session
// so the rejection shows up as a message.
func (m *appModel) submitIssueID(raw string) {
	m.closeForm()
	id, err := parseIssueID(raw)
	if err != nil {
		id = 0
	}
	m.state.Session.OpenIssue(id)
}

func (m *appModel) resolveExit(choice tracking.ExitChoice) {
	m.closeForm()
	m.state.Session.ResolveExit(choice)
}
