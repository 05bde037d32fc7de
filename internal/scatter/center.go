package scatter

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CenterTracker publishes the rows nearest the viewport center once the
// view has been quiet for the debounce delay.
type CenterTracker struct {
	deb     Debouncer
	delay   time.Duration
	count   int
	sched   Scheduler
	picker  *Picker
	current func() (*PointSet, Domain, bool)
	publish func([]int)

	log     zerolog.Logger
	metrics *Metrics
}

// NewCenterTracker wires a tracker. current reports the live point set and
// visible domain at fire time.
func NewCenterTracker(cfg Config, sched Scheduler, picker *Picker, current func() (*PointSet, Domain, bool), publish func([]int), log zerolog.Logger, m *Metrics) *CenterTracker {
	cfg = cfg.withDefaults()
	return &CenterTracker{
		delay:   cfg.CenterDebounce,
		count:   cfg.CenterCount,
		sched:   sched,
		picker:  picker,
		current: current,
		publish: publish,
		log:     log,
		metrics: m,
	}
}

// Notify records view activity. Each call restarts the quiet period.
func (c *CenterTracker) Notify() {
	if c.sched == nil || c.publish == nil {
		return
	}
	set, _, _ := c.current()
	ticket := c.deb.Arm()
	id := set.ID()
	c.sched.Schedule(c.delay, func() { c.fire(ticket, id) })
}

// Cancel drops any pending query.
func (c *CenterTracker) Cancel() { c.deb.Cancel() }

func (c *CenterTracker) fire(t Ticket, id uuid.UUID) {
	if !t.Live() {
		return
	}
	set, d, ok := c.current()
	if set.ID() != id {
		c.metrics.IncStaleDiscard("center")
		c.log.Debug().Str("set", id.String()).Msg("discarding stale center query")
		return
	}
	if !ok || set.Len() == 0 {
		return
	}
	x, y := d.Center()
	indices := c.picker.NearestN(x, y, c.count)
	c.metrics.IncCenterQuery()
	c.publish(indices)
}
