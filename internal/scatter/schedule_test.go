package scatter

import (
	"testing"
	"time"
)

func TestDebouncer_laterArmSupersedes(t *testing.T) {
	var d Debouncer
	a := d.Arm()
	b := d.Arm()
	if a.Live() {
		t.Fatalf("expected first ticket to be superseded")
	}
	if !b.Live() {
		t.Fatalf("expected latest ticket to be live")
	}
	d.Cancel()
	if b.Live() {
		t.Fatalf("expected cancel to invalidate the ticket")
	}
	if (Ticket{}).Live() {
		t.Fatalf("expected zero ticket to be dead")
	}
}

func TestManualScheduler_runsInDueOrder(t *testing.T) {
	var s ManualScheduler
	var got []int
	s.Schedule(30*time.Millisecond, func() { got = append(got, 3) })
	s.Schedule(10*time.Millisecond, func() { got = append(got, 1) })
	s.Schedule(10*time.Millisecond, func() {
		got = append(got, 2)
		s.Schedule(0, func() { got = append(got, 4) })
	})

	s.Advance(5 * time.Millisecond)
	if len(got) != 0 {
		t.Fatalf("expected nothing due yet, got %v", got)
	}
	s.Advance(10 * time.Millisecond)
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 4 {
		t.Fatalf("expected [1 2 4], got %v", got)
	}
	if s.Pending() != 1 {
		t.Fatalf("expected 1 pending, got %d", s.Pending())
	}
	s.Advance(time.Second)
	if len(got) != 4 || got[3] != 3 {
		t.Fatalf("expected 3 last, got %v", got)
	}
}
