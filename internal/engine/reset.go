package engine

import (
	"fmt"
	"time"
)

// DefaultTimezone is the reference timezone when none is configured or the
// configured identifier is unknown.
const DefaultTimezone = "Europe/Warsaw"

// defaultSchedule is the fixed multi-point daily reset schedule, hours in
// the target timezone, ascending.
var defaultSchedule = [...]int{4, 9, 14, 18, 23}

// resetTTL memoizes the computed boundary; it only moves about once per
// scheduled hour.
const resetTTL = 5 * time.Minute

// NextReset returns the next quota reset instant. A customHour replaces the
// whole schedule with a single daily reset. The instant is computed in the
// named timezone (falling back to DefaultTimezone on an unrecognized
// identifier) and converted back to now's location. An input exactly on a
// boundary (matching hour, minute zero) counts as its own reset.
func (e *Engine) NextReset(now time.Time, customHour *int, timezone string) time.Time {
	key := fmt.Sprintf("reset_%d_%s_%s", now.Hour(), timezone, hourKey(customHour))
	if at, ok := e.resets.Get(key, resetTTL); ok {
		return at
	}

	loc := e.Location(timezone)
	local := now.In(loc)

	hours := defaultSchedule[:]
	if customHour != nil {
		hours = []int{*customHour}
	}

	currentHour, currentMinute := local.Hour(), local.Minute()

	nextHour := -1
	for _, h := range hours {
		if currentHour < h || (currentHour == h && currentMinute == 0) {
			nextHour = h
			break
		}
	}

	day := local
	if nextHour < 0 {
		// Past the last scheduled hour today; wrap to tomorrow's first.
		nextHour = hours[0]
		day = local.AddDate(0, 0, 1)
	}

	reset := time.Date(day.Year(), day.Month(), day.Day(), nextHour, 0, 0, 0, loc)
	result := reset.In(now.Location())

	e.resets.Set(key, result)
	return result
}

// Location resolves a timezone identifier, caching the result and falling
// back to the default on failure rather than propagating the error.
func (e *Engine) Location(name string) *time.Location {
	key := "tz_" + name
	if loc, ok := e.zones.Get(key, 0); ok {
		return loc
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		e.logger.Warn().Str("timezone", name).Msg("Unknown timezone, using default")
		loc, err = time.LoadLocation(e.defaultZone)
		if err != nil {
			loc = time.UTC
		}
	}

	e.zones.Set(key, loc)
	return loc
}

func hourKey(h *int) string {
	if h == nil {
		return "default"
	}
	return fmt.Sprintf("%d", *h)
}
