package clock

import "time"

// DefaultTickDuration is the length of one simulation tick.
const DefaultTickDuration = time.Hour

// View is the read-only side of a Clock handed to subsystems.
type View interface {
	CurTick() int
	CurTime() time.Time
	SchedulingHour() int
}

// Clock tracks the simulated time and tick index.
type Clock struct {
	cur             time.Time
	tick            int
	schedulingHour  int
	replacementHour int
	tickDuration    time.Duration
}

func New(start time.Time, startTick, schedulingHour, replacementHour int) *Clock {
	return &Clock{
		cur:             start,
		tick:            startTick,
		schedulingHour:  schedulingHour,
		replacementHour: replacementHour,
		tickDuration:    DefaultTickDuration,
	}
}

// Tick advances the clock by one tick duration.
func (c *Clock) Tick() {
	c.tick++
	c.cur = c.cur.Add(c.tickDuration)
}

func (c *Clock) IsSchedulingHour() bool        { return c.cur.Hour() == c.schedulingHour }
func (c *Clock) IsActionReplacementHour() bool { return c.cur.Hour() == c.replacementHour }
func (c *Clock) CurTick() int                  { return c.tick }
func (c *Clock) CurTime() time.Time            { return c.cur }
func (c *Clock) SchedulingHour() int           { return c.schedulingHour }
func (c *Clock) ActionReplacementHour() int    { return c.replacementHour }
func (c *Clock) TickDuration() time.Duration   { return c.tickDuration }

// Set moves the clock to an explicit position. Used by reset and by dry runs
// that need to rewind.
func (c *Clock) Set(t time.Time, tick int) {
	c.cur = t
	c.tick = tick
}

// View returns a read-only accessor backed by this clock.
func (c *Clock) View() View { return view{c} }

type view struct{ c *Clock }

func (v view) CurTick() int        { return v.c.tick }
func (v view) CurTime() time.Time  { return v.c.cur }
func (v view) SchedulingHour() int { return v.c.schedulingHour }

// Static is a fixed View, used when replaying saved history without a live clock.
type Static struct {
	Tick  int
	Time  time.Time
	Sched int
}

func (s Static) CurTick() int        { return s.Tick }
func (s Static) CurTime() time.Time  { return s.Time }
func (s Static) SchedulingHour() int { return s.Sched }
