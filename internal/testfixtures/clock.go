package testfixtures

import (
	"sync"
	"time"

	"github.com/example/coworkspace/internal/calendar"
)

var (
	// ReferenceDay is the booking day fixtures default to: a Wednesday in
	// mid-March, away from month and year edges.
	ReferenceDay = calendar.NewDate(2025, time.March, 12)

	// DoorsOpen is the time of day a fresh Clock starts at.
	DoorsOpen = calendar.MustTimeOfDay("09:30")

	referenceTime = At(ReferenceDay, DoorsOpen)
)

// At returns the UTC instant of tod on day.
func At(day calendar.Date, tod calendar.TimeOfDay) time.Time {
	return time.Date(day.Year, day.Month, day.Day, tod.Hour(), tod.Minute(), 0, 0, time.UTC)
}

// Clock is the workspace time source in tests. It only moves when told to, so
// auto-confirmation jobs fire exactly when a test advances past their delay.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at start, or at DoorsOpen on ReferenceDay when start
// is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = referenceTime
	}
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Today is the booking day the clock is on.
func (c *Clock) Today() calendar.Date {
	return calendar.DateOf(c.Now())
}

// Advance moves the clock forward by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// NextDay moves the clock to DoorsOpen on the following day.
func (c *Clock) NextDay() calendar.Date {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := calendar.DateOf(c.now).AddDays(1)
	c.now = At(next, DoorsOpen)
	return next
}
