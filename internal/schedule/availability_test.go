package schedule

import "testing"

func TestAvailability_UnreservedIsAlwaysAvailable(t *testing.T) {
	a := NewAvailability()
	a.Init("c1")
	for d := 0; d < 50; d++ {
		if !a.IsAvailable("c1", d) {
			t.Fatalf("registered connection unavailable on day %d", d)
		}
		if !a.IsAvailable("never-registered", d) {
			t.Fatalf("unknown connection unavailable on day %d", d)
		}
	}
}

func TestAvailability_ReserveBlocksUntilDay(t *testing.T) {
	a := NewAvailability()
	a.Init("c1")
	a.Reserve("c1", 5)

	if a.IsAvailable("c1", 4) {
		t.Fatalf("day 4 should be blocked after Reserve(5)")
	}
	if !a.IsAvailable("c1", 5) {
		t.Fatalf("day 5 should be available after Reserve(5)")
	}
	if got := a.NextAvailableDay("c1"); got != 5 {
		t.Fatalf("NextAvailableDay = %d, want 5", got)
	}
}

func TestAvailability_ReserveIsLastWriterWins(t *testing.T) {
	a := NewAvailability()
	a.Reserve("c1", 9)
	a.Reserve("c1", 3)
	if !a.IsAvailable("c1", 3) {
		t.Fatalf("second Reserve should overwrite the first")
	}
}

func TestAvailability_InitResets(t *testing.T) {
	a := NewAvailability()
	a.Reserve("c1", 7)
	a.Init("c1")
	if !a.IsAvailable("c1", 0) {
		t.Fatalf("Init should make the connection available from day 0")
	}
}
