package recurrence

import (
	"fmt"
	"time"
)

// MonthPolicy describes how a calendar month overrides a club's pattern.
type MonthPolicy int

const (
	// PolicyPattern selects the dates whose ordinal appears in the pattern.
	PolicyPattern MonthPolicy = iota
	// PolicyFirstOnly selects only the first matching weekday of the month.
	PolicyFirstOnly
	// PolicyNone selects no dates at all.
	PolicyNone
)

// String returns a stable label for logs and reports.
func (p MonthPolicy) String() string {
	switch p {
	case PolicyFirstOnly:
		return "first_only"
	case PolicyNone:
		return "none"
	default:
		return "pattern"
	}
}

// PolicyFor returns the policy for the month. December has no meetings;
// January and November run a single meeting.
func PolicyFor(month time.Month) MonthPolicy {
	switch month {
	case time.December:
		return PolicyNone
	case time.January, time.November:
		return PolicyFirstOnly
	default:
		return PolicyPattern
	}
}

// Resolver turns a club's weekday and pattern into concrete meeting dates.
type Resolver struct {
	location *time.Location
}

// NewResolver constructs a Resolver whose notion of "current month" follows loc.
// If loc is nil, UTC is used.
func NewResolver(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{location: loc}
}

// Location returns the zone used by MonthOf.
func (r *Resolver) Location() *time.Location {
	if r == nil || r.location == nil {
		return time.UTC
	}
	return r.location
}

// MonthOf returns the calendar year and month that now falls in, in the resolver's zone.
func (r *Resolver) MonthOf(now time.Time) (int, time.Month) {
	y, m, _ := now.In(r.Location()).Date()
	return y, m
}

// Resolve returns the dates in the month that satisfy the pattern, in ascending order.
//
// The weekday and pattern are validated before the month policy applies, so a
// malformed pattern is reported even in months that ignore it. Dates are
// midnight UTC of the calendar day. Ordinals beyond the number of matching
// weekdays in the month are dropped.
func (r *Resolver) Resolve(year int, month time.Month, weekday time.Weekday, pattern Pattern) ([]time.Time, error) {
	if !ValidWeekday(weekday) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWeekday, int(weekday))
	}
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("recurrence: invalid month %d", int(month))
	}
	if err := pattern.Validate(); err != nil {
		return nil, err
	}

	candidates := WeekdaysInMonth(year, month, weekday)

	switch PolicyFor(month) {
	case PolicyNone:
		return nil, nil
	case PolicyFirstOnly:
		return candidates[:1], nil
	}

	dates := make([]time.Time, 0, len(pattern))
	for i, date := range candidates {
		if pattern.Contains(i + 1) {
			dates = append(dates, date)
		}
	}
	return dates, nil
}

// WeekdaysInMonth lists every date in the month falling on weekday, in order.
// The result always has four or five entries.
func WeekdaysInMonth(year int, month time.Month, weekday time.Weekday) []time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7

	dates := make([]time.Time, 0, MaxOrdinal)
	for day := first.AddDate(0, 0, offset); day.Month() == month; day = day.AddDate(0, 0, 7) {
		dates = append(dates, day)
	}
	return dates
}
