package cli

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectLoop() (*teaLoop, *[]tea.Cmd) {
	var cmds []tea.Cmd
	return newTeaLoop(func(c tea.Cmd) { cmds = append(cmds, c) }), &cmds
}

func TestTeaLoop_GoRunsWorkInsideCmd(t *testing.T) {
	loop, cmds := collectLoop()
	worked, continued := false, false

	loop.Go(func() func() {
		worked = true
		return func() { continued = true }
	})
	require.Len(t, *cmds, 1)
	assert.False(t, worked, "work waits for bubbletea to run the Cmd")

	msg, ok := (*cmds)[0]().(runMsg)
	require.True(t, ok)
	assert.True(t, worked)
	assert.False(t, continued)

	msg.fn()
	assert.True(t, continued)
}

func TestTeaLoop_EveryRequeuesUntilStopped(t *testing.T) {
	loop, cmds := collectLoop()
	n := 0

	stop := loop.Every(time.Second, func() { n++ })
	require.Len(t, *cmds, 1)
	assert.Len(t, loop.active(), 1)

	id := loop.active()[0]
	loop.fire(timerMsg{id: id})
	loop.fire(timerMsg{id: id})
	assert.Equal(t, 2, n)
	assert.Len(t, *cmds, 3, "each fire schedules the next tick")

	stop()
	loop.fire(timerMsg{id: id})
	assert.Equal(t, 2, n)
	assert.Len(t, *cmds, 3)
	assert.Empty(t, loop.active())
}

func TestTeaLoop_TimersGetDistinctIDs(t *testing.T) {
	loop, _ := collectLoop()
	var a, b int

	stopA := loop.Every(time.Second, func() { a++ })
	loop.Every(time.Second, func() { b++ })
	stopA()

	// The first timer's id is never reused by later timers.
	loop.fire(timerMsg{id: 1})
	loop.fire(timerMsg{id: 2})
	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)
}
