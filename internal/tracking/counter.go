package tracking

import "time"

// TickInterval is the counter resolution.
const TickInterval = time.Second

// Counter counts elapsed seconds while running. It is driven by Loop.Every
// and, like the session, only touched on the control thread.
type Counter struct {
	loop   Loop
	onTick func(seconds int)

	value   int
	running bool
	gen     int
	stop    func()
}

func NewCounter(loop Loop, onTick func(seconds int)) *Counter {
	return &Counter{loop: loop, onTick: onTick}
}

// Start begins ticking. Starting a running counter does nothing.
func (c *Counter) Start() {
	if c.running {
		return
	}
	c.running = true
	c.gen++
	gen := c.gen
	c.stop = c.loop.Every(TickInterval, func() {
		// A tick queued before Stop, or from an earlier run, is ignored.
		if !c.running || gen != c.gen {
			return
		}
		c.value++
		if c.onTick != nil {
			c.onTick(c.value)
		}
	})
}

// Stop halts ticking and keeps the value. Stopping a stopped counter does nothing.
func (c *Counter) Stop() {
	if !c.running {
		return
	}
	c.running = false
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
}

func (c *Counter) Reset() { c.value = 0 }

func (c *Counter) Value() int { return c.value }

func (c *Counter) Running() bool { return c.running }
