package events

import (
	"testing"
	"time"
)

func TestMemoryBroker_PublishSubscribe(t *testing.T) {
	b := NewMemoryBroker()
	ch := b.Subscribe("s1")
	other := b.Subscribe("s2")

	b.Publish("s1", RoundEvent{Type: TypeRoundPlayed, Day: 4, Movements: 7})

	select {
	case got := <-ch:
		if got.Day != 4 || got.Movements != 7 {
			t.Fatalf("unexpected event %+v", got)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}
	select {
	case got := <-other:
		t.Fatalf("s2 must not receive s1 events, got %+v", got)
	default:
	}

	b.Unsubscribe("s1", ch)
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after unsubscribe")
	}
	// second unsubscribe is a no-op
	b.Unsubscribe("s1", ch)
	b.Publish("s1", RoundEvent{Type: TypeRoundPlayed})
}

func TestMemoryBroker_DropsWhenFull(t *testing.T) {
	b := NewMemoryBroker()
	ch := b.Subscribe("s")
	for i := 0; i < 100; i++ {
		b.Publish("s", RoundEvent{Day: i})
	}
	if len(ch) != cap(ch) {
		t.Fatalf("len = %d, want %d", len(ch), cap(ch))
	}
}

func TestNewRedisBroker_BadURL(t *testing.T) {
	if _, err := NewRedisBroker("not-a-url", ""); err == nil {
		t.Fatal("expected parse error")
	}
	b, err := NewRedisBroker("redis://localhost:6379/0", "")
	if err != nil {
		t.Fatalf("NewRedisBroker: %v", err)
	}
	defer b.Close()
	if got := b.chanName("abc"); got != "rounds:abc" {
		t.Fatalf("chanName = %q", got)
	}
}
