package teatest

import (
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

type pingMsg struct{}
type pongMsg struct{}

// probe counts what reaches Update.
type probe struct {
	width   int
	keys    string
	pings   int
	pongs   int
	initRan bool
}

func (p probe) Init() tea.Cmd {
	return func() tea.Msg { return pingMsg{} }
}

func (p probe) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
	case pingMsg:
		p.pings++
		p.initRan = true
		return p, tea.Batch(
			func() tea.Msg { return pongMsg{} },
			tea.Tick(time.Hour, func(time.Time) tea.Msg { return pingMsg{} }),
		)
	case pongMsg:
		p.pongs++
	case tea.KeyMsg:
		if msg.String() == "q" {
			return p, tea.Quit
		}
		p.keys += msg.String()
	}
	return p, nil
}

func (p probe) View() string { return fmt.Sprintf("pings=%d pongs=%d", p.pings, p.pongs) }

func TestDriver_DrainsInitAndBatches(t *testing.T) {
	d := New(t, probe{}, WithSize(80, 24))
	d.DrainInit()

	p := d.Model.(probe)
	assert.Equal(t, 80, p.width)
	assert.True(t, p.initRan)
	assert.Equal(t, 1, p.pings, "the hour-long tick is abandoned")
	assert.Equal(t, 1, p.pongs)
	assert.Equal(t, 1, d.Skipped)
	assert.Equal(t, "pings=1 pongs=1", d.View())
}

func TestDriver_TypeAndQuit(t *testing.T) {
	d := New(t, probe{})
	d.Type("ab")
	assert.Equal(t, "ab", d.Model.(probe).keys)

	d.PressKey('q')
	assert.True(t, d.Quitting)

	d.PressKey('c')
	assert.Equal(t, "ab", d.Model.(probe).keys, "input after quit is ignored")
}
