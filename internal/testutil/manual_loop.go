package testutil

import (
	"sort"
	"sync"
	"time"
)

// ManualLoop is a deterministic event loop for tests. Work passed to Go
// runs immediately on the caller; its continuation is queued until the
// test delivers it with RunNext or Flush. Every registrations fire only
// on Tick.
type ManualLoop struct {
	mu      sync.Mutex
	pending []func()
	timers  map[int]func()
	nextID  int
}

func NewManualLoop() *ManualLoop {
	return &ManualLoop{timers: make(map[int]func())}
}

func (l *ManualLoop) Go(work func() func()) {
	k := work()
	if k == nil {
		return
	}
	l.mu.Lock()
	l.pending = append(l.pending, k)
	l.mu.Unlock()
}

func (l *ManualLoop) Every(_ time.Duration, fn func()) func() {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.timers[id] = fn
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		delete(l.timers, id)
		l.mu.Unlock()
	}
}

// Pending reports queued continuations.
func (l *ManualLoop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// RunNext delivers the oldest continuation. It reports false when none.
func (l *ManualLoop) RunNext() bool {
	l.mu.Lock()
	if len(l.pending) == 0 {
		l.mu.Unlock()
		return false
	}
	k := l.pending[0]
	l.pending = l.pending[1:]
	l.mu.Unlock()
	k()
	return true
}

// RunLast delivers the newest continuation, for out-of-order completions.
func (l *ManualLoop) RunLast() bool {
	l.mu.Lock()
	n := len(l.pending)
	if n == 0 {
		l.mu.Unlock()
		return false
	}
	k := l.pending[n-1]
	l.pending = l.pending[:n-1]
	l.mu.Unlock()
	k()
	return true
}

// Flush delivers continuations, including ones queued while flushing,
// until none remain. It returns how many ran.
func (l *ManualLoop) Flush() int {
	n := 0
	for l.RunNext() {
		n++
	}
	return n
}

// Tick fires every active timer n times, in registration order.
func (l *ManualLoop) Tick(n int) {
	for i := 0; i < n; i++ {
		l.mu.Lock()
		ids := make([]int, 0, len(l.timers))
		for id := range l.timers {
			ids = append(ids, id)
		}
		l.mu.Unlock()
		sort.Ints(ids)
		for _, id := range ids {
			l.mu.Lock()
			fn, ok := l.timers[id]
			l.mu.Unlock()
			if ok {
				fn()
			}
		}
	}
}

// ActiveTimers reports registered, unstopped timers.
func (l *ManualLoop) ActiveTimers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}
