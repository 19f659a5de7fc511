// Package countdown answers "how much time remains" and "has the round ended" against a
// round deadline, using a fixed timezone correction so every client agrees on the time
// no matter which zone its host runs in.
package countdown

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	// EndedText is shown in place of the countdown once the deadline has passed
	EndedText = "ROUND ENDED"
	// EventOffset is the fixed UTC+5:30 offset the event runs on
	EventOffset = 5*time.Hour + 30*time.Minute
)

// Remaining is the time left until a deadline, split for display.
// Hours is the total number of whole hours, so it may exceed 23.
type Remaining struct {
	Hours   int
	Minutes int
	Seconds int
	Ended   bool
}

// Clock reads the current event wall time from an underlying clock.
// The zero value is not usable, use NewClock.
type Clock struct {
	base   clockwork.Clock
	offset time.Duration
	skew   time.Duration
}

// NewClock returns a Clock shifting UTC now by offset. A nil base uses the real clock.
func NewClock(base clockwork.Clock, offset time.Duration) *Clock {
	if base == nil {
		base = clockwork.NewRealClock()
	}
	return &Clock{
		base:   base,
		offset: offset,
	}
}

// WithSkew returns a copy of the clock that corrects the underlying clock by skew,
// as reported by QueryOffset.
func (c *Clock) WithSkew(skew time.Duration) *Clock {
	cp := *c
	cp.skew = skew
	return &cp
}

// Base returns the unshifted clock, for timers and tickers
func (c *Clock) Base() clockwork.Clock {
	return c.base
}

// Offset returns the fixed offset applied to UTC
func (c *Clock) Offset() time.Duration {
	return c.offset
}

// Now returns UTC now shifted by the event offset. The shift is applied unconditionally:
// the returned time is in UTC, and its fields read as event wall time.
func (c *Clock) Now() time.Time {
	return c.base.Now().UTC().Add(c.skew).Add(c.offset)
}

// Remaining returns the time left until deadline. The deadline must be event wall time
// expressed in UTC, as returned by ParseDeadline.
func (c *Clock) Remaining(deadline time.Time) Remaining {
	return RemainingFor(deadline.Sub(c.Now()))
}

// Ended reports whether deadline has been reached
func (c *Clock) Ended(deadline time.Time) bool {
	return c.Remaining(deadline).Ended
}

// Format renders the time left until deadline for display
func (c *Clock) Format(deadline time.Time) string {
	return c.Remaining(deadline).String()
}

// RemainingFor splits a distance to the deadline. Zero or negative distance means ended.
func RemainingFor(distance time.Duration) Remaining {
	if distance <= 0 {
		return Remaining{Ended: true}
	}
	return Remaining{
		Hours:   int(distance / time.Hour),
		Minutes: int(distance % time.Hour / time.Minute),
		Seconds: int(distance % time.Minute / time.Second),
	}
}

func (r Remaining) String() string {
	if r.Ended {
		return EndedText
	}
	var sb strings.Builder
	if r.Hours > 0 {
		fmt.Fprintf(&sb, "%dh ", r.Hours)
	}
	fmt.Fprintf(&sb, "%02dm %02ds", r.Minutes, r.Seconds)
	return sb.String()
}
