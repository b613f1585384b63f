package engine

import (
	"testing"
	"time"
)

func TestNextReset_WrapsToNextDay(t *testing.T) {
	e := newTestEngine(t)
	now := time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC)

	got := e.NextReset(now, nil, "UTC")
	want := time.Date(2024, 1, 2, 4, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NextReset() = %v, want %v", got, want)
	}
}

func TestNextReset_ExactBoundaryIsItsOwnReset(t *testing.T) {
	e := newTestEngine(t)
	now := time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC)

	got := e.NextReset(now, nil, "UTC")
	if !got.Equal(now) {
		t.Errorf("NextReset() on boundary = %v, want %v", got, now)
	}
}

func TestNextReset_MinutePastBoundaryMovesOn(t *testing.T) {
	e := newTestEngine(t)
	now := time.Date(2024, 1, 1, 14, 1, 0, 0, time.UTC)

	got := e.NextReset(now, nil, "UTC")
	want := time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NextReset() = %v, want %v", got, want)
	}
}

func TestNextReset_ScheduleScan(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			"early morning",
			time.Date(2024, 1, 1, 1, 15, 0, 0, time.UTC),
			time.Date(2024, 1, 1, 4, 0, 0, 0, time.UTC),
		},
		{
			"mid morning",
			time.Date(2024, 1, 1, 7, 0, 1, 0, time.UTC),
			time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			"afternoon",
			time.Date(2024, 1, 1, 16, 45, 0, 0, time.UTC),
			time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC),
		},
		{
			"evening",
			time.Date(2024, 1, 1, 22, 0, 30, 0, time.UTC),
			time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.NextReset(tt.now, nil, "UTC"); !got.Equal(tt.want) {
				t.Errorf("NextReset(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestNextReset_CustomHour(t *testing.T) {
	e := newTestEngine(t)
	hour := 6

	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	got := e.NextReset(now, &hour, "UTC")
	want := time.Date(2024, 1, 2, 6, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NextReset(custom=6) = %v, want %v", got, want)
	}

	now = time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)
	got = e.NextReset(now, &hour, "UTC")
	want = time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NextReset(custom=6) = %v, want %v", got, want)
	}
}

func TestNextReset_TimezoneConversion(t *testing.T) {
	e := newTestEngine(t)

	// 13:30 UTC is 14:30 in Warsaw (winter, UTC+1): next Warsaw reset is
	// 18:00 local, i.e. 17:00 UTC.
	now := time.Date(2024, 1, 1, 13, 30, 0, 0, time.UTC)
	got := e.NextReset(now, nil, "Europe/Warsaw")
	want := time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NextReset() = %v, want %v", got, want)
	}
	if got.Location() != now.Location() {
		t.Errorf("NextReset() location = %v, want caller's %v", got.Location(), now.Location())
	}
}

func TestNextReset_UnknownTimezoneFallsBack(t *testing.T) {
	e := newTestEngine(t)
	now := time.Date(2024, 1, 1, 13, 30, 0, 0, time.UTC)

	got := e.NextReset(now, nil, "Not/AZone")
	want := e.NextReset(now, nil, DefaultTimezone)
	if !got.Equal(want) {
		t.Errorf("NextReset(unknown tz) = %v, want default-zone result %v", got, want)
	}
}

func TestNextReset_AlwaysFutureOrBoundary(t *testing.T) {
	e := newTestEngine(t)

	for hour := 0; hour < 24; hour++ {
		now := time.Date(2024, 1, 1, hour, 30, 0, 0, time.UTC)
		got := e.NextReset(now, nil, "UTC")
		if got.Before(now) {
			t.Errorf("NextReset(%v) = %v is in the past", now, got)
		}
	}
}
