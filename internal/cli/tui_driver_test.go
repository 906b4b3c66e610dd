package cli

import (
	"testing"

	"github.com/alexanderramin/redtimer/internal/teatest"
)

// TestDriver wraps teatest.Driver with access to appModel internals.
type TestDriver struct {
	*teatest.Driver
}

// NewTestDriver builds the TUI for env, sizes it and drains Init, which
// restores the session against the fake Redmine.
func NewTestDriver(t *testing.T, env *testEnv, preload int) *TestDriver {
	t.Helper()
	m := newAppModel(env.app, preload)
	t.Cleanup(m.state.Session.Close)
	d := teatest.New(t, m, teatest.WithSize(120, 40))
	d.DrainInit()
	return &TestDriver{Driver: d}
}

func (d *TestDriver) appModel() appModel {
	return d.Model.(appModel)
}

func (d *TestDriver) State() *SharedState {
	return d.appModel().state
}

func (d *TestDriver) Mode() mode {
	return d.appModel().mode
}

// Tick delivers n ticks to every running timer.
func (d *TestDriver) Tick(n int) {
	d.T.Helper()
	for i := 0; i < n; i++ {
		for _, id := range d.appModel().loop.active() {
			d.Send(timerMsg{id: id})
		}
	}
}

// PlainView is View without styling.
func (d *TestDriver) PlainView() string {
	return stripANSI(d.View())
}
