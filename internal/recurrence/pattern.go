package recurrence

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// MaxOrdinal is the largest "Nth weekday of the month" a pattern may name.
const MaxOrdinal = 5

// ErrInvalidPattern indicates a recurrence pattern is empty or names an ordinal outside [1,5].
var ErrInvalidPattern = errors.New("recurrence: invalid pattern")

// ErrInvalidWeekday indicates the weekday is not one of the seven days of the week.
var ErrInvalidWeekday = errors.New("recurrence: invalid weekday")

// Pattern lists the weekday ordinals a club meets on, e.g. {1,3} for the first
// and third occurrence of the weekday within a month.
type Pattern []int

// ParsePattern parses the comma separated ordinal list stored with a club ("1,3").
// Whitespace is ignored, duplicates are collapsed and the result is sorted.
func ParsePattern(raw string) (Pattern, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPattern)
	}

	parts := strings.Split(raw, ",")
	pattern := make(Pattern, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidPattern, part)
		}
		pattern = append(pattern, n)
	}

	pattern = pattern.Normalize()
	if err := pattern.Validate(); err != nil {
		return nil, err
	}
	return pattern, nil
}

// Validate reports whether the pattern is non-empty with every ordinal in [1,5].
func (p Pattern) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidPattern)
	}
	for _, n := range p {
		if n < 1 || n > MaxOrdinal {
			return fmt.Errorf("%w: ordinal %d outside 1-%d", ErrInvalidPattern, n, MaxOrdinal)
		}
	}
	return nil
}

// Normalize returns a sorted copy of the pattern without duplicates.
func (p Pattern) Normalize() Pattern {
	if len(p) == 0 {
		return nil
	}
	out := make(Pattern, len(p))
	copy(out, p)
	sort.Ints(out)

	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}

// Contains reports whether the ordinal is part of the pattern.
func (p Pattern) Contains(ordinal int) bool {
	for _, n := range p {
		if n == ordinal {
			return true
		}
	}
	return false
}

// String renders the pattern in its stored form.
func (p Pattern) String() string {
	parts := make([]string, len(p))
	for i, n := range p {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// ParseWeekday converts an English weekday name (full or three letter) into a time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sunday", "sun":
		return time.Sunday, nil
	case "monday", "mon":
		return time.Monday, nil
	case "tuesday", "tue", "tues":
		return time.Tuesday, nil
	case "wednesday", "wed":
		return time.Wednesday, nil
	case "thursday", "thu", "thur", "thurs":
		return time.Thursday, nil
	case "friday", "fri":
		return time.Friday, nil
	case "saturday", "sat":
		return time.Saturday, nil
	}
	return time.Sunday, fmt.Errorf("%w: %q", ErrInvalidWeekday, name)
}

// ValidWeekday reports whether day is one of time.Sunday..time.Saturday.
func ValidWeekday(day time.Weekday) bool {
	return day >= time.Sunday && day <= time.Saturday
}
