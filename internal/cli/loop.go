package cli

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// runMsg carries a continuation back to Update, the control thread.
type runMsg struct{ fn func() }

// timerMsg fires one tick of a timer started by teaLoop.Every.
type timerMsg struct{ id int }

type loopTimer struct {
	interval time.Duration
	fn       func()
}

// teaLoop implements tracking.Loop on top of bubbletea. Remote work runs
// inside a Cmd, which bubbletea executes off the Update goroutine, and the
// continuation comes back as a runMsg. Timers are chains of tea.Tick.
// All methods are called from Update.
type teaLoop struct {
	queue  func(tea.Cmd)
	nextID int
	timers map[int]loopTimer
}

func newTeaLoop(queue func(tea.Cmd)) *teaLoop {
	return &teaLoop{queue: queue, timers: make(map[int]loopTimer)}
}

func (l *teaLoop) Go(work func() func()) {
	l.queue(func() tea.Msg {
		return runMsg{fn: work()}
	})
}

func (l *teaLoop) Every(interval time.Duration, fn func()) func() {
	l.nextID++
	id := l.nextID
	l.timers[id] = loopTimer{interval: interval, fn: fn}
	l.queue(tick(id, interval))
	return func() { delete(l.timers, id) }
}

// fire runs a timer callback and schedules its next tick. Ticks of
// stopped timers are dropped.
func (l *teaLoop) fire(msg timerMsg) {
	t, ok := l.timers[msg.id]
	if !ok {
		return
	}
	l.queue(tick(msg.id, t.interval))
	t.fn()
}

// active returns the ids of running timers.
func (l *teaLoop) active() []int {
	ids := make([]int, 0, len(l.timers))
	for id := range l.timers {
		ids = append(ids, id)
	}
	return ids
}

func tick(id int, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg { return timerMsg{id: id} })
}
