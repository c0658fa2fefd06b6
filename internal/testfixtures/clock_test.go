package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
}

func TestClockAdvanceAndSet(t *testing.T) {
	start := time.Date(2024, time.October, 1, 6, 0, 0, 0, time.UTC)
	clock := NewClock(start)

	if got := clock.Advance(24 * time.Hour); !got.Equal(start.AddDate(0, 0, 1)) {
		t.Fatalf("advance returned %v", got)
	}

	clock.Set(start)
	if got := clock.NowFunc()(); !got.Equal(start) {
		t.Fatalf("expected %v, got %v", start, got)
	}
}

func TestClockNextMonth(t *testing.T) {
	clock := NewClock(time.Date(2024, time.December, 17, 6, 0, 0, 0, time.UTC))

	got := clock.NextMonth()
	want := time.Date(2025, time.January, 1, 6, 0, 0, 0, time.UTC)
	if !got.Equal(want) || !clock.Now().Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
