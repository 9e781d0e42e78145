package service

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTimeInput marks a date or time value the normalizer could not
// interpret.
var ErrInvalidTimeInput = errors.New("unrecognized date or time value")

// dateTimeLayouts are tried in order for full date or date-time values.
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006",
}

// clockLayouts are tried for bare time-of-day values.
var clockLayouts = []string{
	"15:04:05",
	"15:04",
}

// TimeNormalizer converts the loosely formatted date and time strings the API
// accepts into absolute instants. Every wall-clock value is interpreted in one
// fixed business timezone; values carrying their own offset are converted into
// it. Normalizing an already normalized value is a no-op.
type TimeNormalizer struct {
	loc *time.Location
}

// NewTimeNormalizer builds a normalizer anchored to the business timezone.
func NewTimeNormalizer(loc *time.Location) *TimeNormalizer {
	return &TimeNormalizer{loc: loc}
}

// Location exposes the business timezone.
func (n *TimeNormalizer) Location() *time.Location { return n.loc }

// ParseDate interprets a date-like string and returns midnight of that day in
// the business timezone. A date-time input is truncated to its day.
func (n *TimeNormalizer) ParseDate(s string) (time.Time, error) {
	t, err := n.parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return n.StartOfDay(t), nil
}

// StartOfDay returns midnight of t's calendar day in the business timezone.
func (n *TimeNormalizer) StartOfDay(t time.Time) time.Time {
	t = t.In(n.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, n.loc)
}

// Window normalizes a shift window: the date string anchors the day, the start
// and end strings supply wall-clock times (bare "HH:MM" or full date-times,
// whose clock component is re-anchored to the shift date). An end clock at or
// before the start clock means the shift runs past midnight and the end moves
// exactly one day forward.
func (n *TimeNormalizer) Window(dateStr, startStr, endStr string) (date, start, end time.Time, err error) {
	date, err = n.ParseDate(dateStr)
	if err != nil {
		return time.Time{}, time.Time{}, time.Time{}, err
	}
	startClock, err := n.parseClock(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, time.Time{}, err
	}
	endClock, err := n.parseClock(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, time.Time{}, err
	}
	start, end = n.anchor(date, startClock, endClock)
	return date, start, end, nil
}

// Rebase re-anchors an existing normalized window onto another day, keeping
// the wall-clock times and the overnight rule. Used when editing a slot's date
// and when copying schedules across days.
func (n *TimeNormalizer) Rebase(date, start, end time.Time) (time.Time, time.Time, time.Time) {
	day := n.StartOfDay(date)
	s, e := n.anchor(day, start.In(n.loc), end.In(n.loc))
	return day, s, e
}

// anchor attaches the clock components of startClock/endClock to the given
// day and applies the overnight rule once.
func (n *TimeNormalizer) anchor(day, startClock, endClock time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(),
		startClock.Hour(), startClock.Minute(), startClock.Second(), 0, n.loc)
	end := time.Date(day.Year(), day.Month(), day.Day(),
		endClock.Hour(), endClock.Minute(), endClock.Second(), 0, n.loc)
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end
}

// parse tries the date-time layouts; zone-less layouts are read in the
// business timezone.
func (n *TimeNormalizer) parse(s string) (time.Time, error) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, n.loc); err == nil {
			return t.In(n.loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimeInput, s)
}

// parseClock accepts a bare time-of-day or any full date-time layout.
func (n *TimeNormalizer) parseClock(s string) (time.Time, error) {
	for _, layout := range clockLayouts {
		if t, err := time.ParseInLocation(layout, s, n.loc); err == nil {
			return t, nil
		}
	}
	return n.parse(s)
}

// DateRangeOfMonth returns the inclusive [first day, last day] midnight pair
// for a month of the given year.
func (n *TimeNormalizer) DateRangeOfMonth(year, month int) (time.Time, time.Time) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, n.loc)
	last := first.AddDate(0, 1, -1)
	return first, last
}

// DateRangeOfISOWeek returns the inclusive [Monday, Sunday] midnight pair for
// an ISO 8601 week of the given year.
func (n *TimeNormalizer) DateRangeOfISOWeek(year, week int) (time.Time, time.Time) {
	// January 4th always falls in week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, n.loc)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	monday := jan4.AddDate(0, 0, 1-weekday).AddDate(0, 0, (week-1)*7)
	return monday, monday.AddDate(0, 0, 6)
}
