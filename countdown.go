package arrivals

import (
	"fmt"
	"time"
)

// DepartingLabel is shown once an arrival's countdown reaches zero.
const DepartingLabel = "departing"

// Remaining returns the time left until target, floored at zero.
func Remaining(target, now time.Time) time.Duration {
	d := target.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// FormatRemaining renders a countdown as H:MM:SS. A zero remainder means
// the vehicle is due and renders as the departing label instead of
// 0:00:00.
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return DepartingLabel
	}
	total := int(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// Countdown combines Remaining and FormatRemaining for a single arrival.
func Countdown(target, now time.Time) string {
	return FormatRemaining(Remaining(target, now))
}
