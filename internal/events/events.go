// Package events fans round results out to subscribers, in process or over
// Redis Pub/Sub.
package events

import (
	"sync"
	"time"

	"supply-rounds/internal/model"
)

// RoundEvent is published after every submitted round.
type RoundEvent struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	Day       int       `json:"day"`
	Movements int       `json:"movements"`
	Penalties int       `json:"penalties"`
	Delta     model.KPI `json:"delta"`
	Total     model.KPI `json:"total"`
	At        time.Time `json:"at"`
}

const (
	TypeRoundPlayed   = "round.played"
	TypeSessionEnded  = "session.ended"
	TypeSessionFailed = "session.failed"
)

// Broker delivers events for a session id to its subscribers.
type Broker interface {
	Subscribe(sessionID string) chan RoundEvent
	Unsubscribe(sessionID string, ch chan RoundEvent)
	Publish(sessionID string, evt RoundEvent)
}

// MemoryBroker is the in-process Broker. Slow subscribers drop events.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[string]map[chan RoundEvent]struct{} // session id -> set of channels
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: map[string]map[chan RoundEvent]struct{}{}}
}

func (b *MemoryBroker) Subscribe(sessionID string) chan RoundEvent {
	ch := make(chan RoundEvent, 64)
	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = map[chan RoundEvent]struct{}{}
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *MemoryBroker) Unsubscribe(sessionID string, ch chan RoundEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.subs[sessionID]
	if _, ok := m[ch]; !ok {
		return
	}
	delete(m, ch)
	if len(m) == 0 {
		delete(b.subs, sessionID)
	}
	close(ch)
}

func (b *MemoryBroker) Publish(sessionID string, evt RoundEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[sessionID] {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) Subscribe(string) chan RoundEvent         { return make(chan RoundEvent) }
func (Nop) Unsubscribe(_ string, ch chan RoundEvent) { close(ch) }
func (Nop) Publish(string, RoundEvent)               {}
