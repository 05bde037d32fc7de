package scatter

import (
	"sort"
	"time"
)

// Scheduler runs fn after delay on the engine's goroutine. Hosts adapt
// their event loop to it; nothing in the engine starts goroutines.
type Scheduler interface {
	Schedule(delay time.Duration, fn func())
}

// Debouncer hands out tickets. Arming a new ticket or cancelling
// invalidates every earlier one, so a superseded callback becomes a no-op.
type Debouncer struct {
	gen uint64
}

// Ticket identifies one armed debounce.
type Ticket struct {
	gen   uint64
	owner *Debouncer
}

// Arm invalidates outstanding tickets and returns a new one.
func (d *Debouncer) Arm() Ticket {
	d.gen++
	return Ticket{gen: d.gen, owner: d}
}

// Cancel invalidates outstanding tickets.
func (d *Debouncer) Cancel() { d.gen++ }

// Live reports whether no later Arm or Cancel has happened.
func (t Ticket) Live() bool { return t.owner != nil && t.owner.gen == t.gen }

// ManualScheduler queues callbacks against a virtual clock advanced by the
// caller. Headless hosts and tests drive it explicitly.
type ManualScheduler struct {
	now     time.Duration
	seq     int
	pending []scheduled
}

type scheduled struct {
	due time.Duration
	seq int
	fn  func()
}

func (m *ManualScheduler) Schedule(delay time.Duration, fn func()) {
	if delay < 0 {
		delay = 0
	}
	m.seq++
	m.pending = append(m.pending, scheduled{due: m.now + delay, seq: m.seq, fn: fn})
}

// Pending is the number of callbacks not yet run.
func (m *ManualScheduler) Pending() int { return len(m.pending) }

// Advance moves the clock forward by d and runs every callback that became
// due, in due order.
func (m *ManualScheduler) Advance(d time.Duration) {
	m.now += d
	for {
		sort.SliceStable(m.pending, func(i, j int) bool {
			if m.pending[i].due == m.pending[j].due {
				return m.pending[i].seq < m.pending[j].seq
			}
			return m.pending[i].due < m.pending[j].due
		})
		if len(m.pending) == 0 || m.pending[0].due > m.now {
			return
		}
		next := m.pending[0]
		m.pending = m.pending[1:]
		next.fn()
	}
}
