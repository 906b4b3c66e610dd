// Package clock abstracts wall time so saved entries and the "today"
// total can be pinned in tests.
package clock

import "time"

// Clock is the subset of the time package the tracker uses.
type Clock interface {
	Now() time.Time
}

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
