package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// exitRequestMsg asks the session to exit as if the user pressed quit.
type exitRequestMsg struct{}

// runTUI runs the interactive timer until the session quits. SIGTERM,
// SIGINT and ctx cancellation go through the same exit prompt as the quit
// key.
func runTUI(ctx context.Context, app *App, issueID int) error {
	m := newAppModel(app, issueID)
	defer m.state.Session.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithFilter(exitGuard))
	stop := context.AfterFunc(ctx, func() { p.Send(exitRequestMsg{}) })
	defer stop()

	_, err := p.Run()
	return err
}

// exitGuard turns a quit or interrupt that did not come from the session
// into an exit request while time is still counted.
func exitGuard(model tea.Model, msg tea.Msg) tea.Msg {
	switch msg.(type) {
	case tea.QuitMsg, tea.InterruptMsg:
	default:
		return msg
	}
	m, ok := model.(appModel)
	if !ok || m.state.quit {
		return msg
	}
	s := m.state.Session
	if !s.Running() && s.Seconds() == 0 {
		return msg
	}
	return exitRequestMsg{}
}
