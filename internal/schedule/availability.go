// Package schedule holds the per-session reservation state used by the
// order allocator: when each connection is next free, and which movements
// are due on which day.
package schedule

// Availability maps a connection id to the first day it may carry a new
// shipment. A connection is available on day d iff d >= next[id].
// Unknown connections are available from day 0.
type Availability struct {
	next map[string]int
}

func NewAvailability() *Availability {
	return &Availability{next: map[string]int{}}
}

// Init registers a connection as available from day 0.
func (a *Availability) Init(connectionID string) {
	a.next[connectionID] = 0
}

// IsAvailable reports whether the connection may be reserved on day.
func (a *Availability) IsAvailable(connectionID string, day int) bool {
	return day >= a.next[connectionID]
}

// Reserve blocks the connection until untilDay. Last writer wins; callers
// only reserve connections they have checked with IsAvailable, which keeps
// the value moving forward.
func (a *Availability) Reserve(connectionID string, untilDay int) {
	a.next[connectionID] = untilDay
}

// NextAvailableDay returns the first day the connection is free.
func (a *Availability) NextAvailableDay(connectionID string) int {
	return a.next[connectionID]
}
