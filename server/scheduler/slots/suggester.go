// Package slots scans business hours for free meeting slots.
package slots

import (
	"context"
	"time"

	"github.com/tailortalk/tailortalk/server/calendar"
)

// Business hours: hourly starts from BusinessStartHour up to and including
// the last start that fits a default-length meeting before BusinessEndHour.
const (
	BusinessStartHour = 9
	BusinessEndHour   = 18

	DefaultDuration = 30 * time.Minute
)

// Suggest scans hourly starting points on the given date, querying the
// oracle for each [start, start+duration) window, and returns the free
// starts in ascending order. Results are recomputed on every call; nothing
// is cached. A zero duration falls back to DefaultDuration.
func Suggest(ctx context.Context, oracle calendar.Oracle, date time.Time, duration time.Duration) ([]time.Time, error) {
	if duration <= 0 {
		duration = DefaultDuration
	}

	var free []time.Time
	for hour := BusinessStartHour; hour < BusinessEndHour; hour++ {
		start := time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, date.Location())
		end := start.Add(duration)
		if end.Hour() > BusinessEndHour || (end.Hour() == BusinessEndHour && end.Minute() > 0) {
			break
		}

		ok, err := oracle.IsFree(ctx, start, end)
		if err != nil {
			return nil, err
		}
		if ok {
			free = append(free, start)
		}
	}
	return free, nil
}
