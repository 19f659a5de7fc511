package countdown

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layouts accepted by ParseDeadline, tried in order. The first one is the format the
// event organisers publish deadlines in.
const (
	LayoutEvent = "01/02/2006 15:04:05"
	LayoutISO   = "2006-01-02 15:04:05"
)

var ErrEmptyDeadline = errors.New("deadline is empty")

// ParseDeadline parses value as event wall time and returns it expressed in UTC, so it
// can be compared with Clock.Now. Values without a zone are taken as event wall time
// as they are. RFC 3339 values carry their own zone and are converted to the wall time
// of the zone at offset first.
func ParseDeadline(value string, offset time.Duration) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrEmptyDeadline
	}

	for _, layout := range []string{LayoutEvent, LayoutISO} {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized deadline %q: %w", value, err)
	}
	return WallTime(t, offset), nil
}

// WallTime returns the wall time of t in the zone at offset, with the location replaced
// by UTC
func WallTime(t time.Time, offset time.Duration) time.Time {
	w := t.In(time.FixedZone("event", int(offset/time.Second)))
	return time.Date(
		w.Year(),
		w.Month(),
		w.Day(),
		w.Hour(),
		w.Minute(),
		w.Second(),
		w.Nanosecond(),
		time.UTC,
	)
}
