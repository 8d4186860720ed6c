package hubclient

import (
	"fmt"
	"time"
)

// FormatDate renders a timestamp as a relative day label. The difference
// is taken between local calendar days, so 23:59 yesterday is still
// "Yesterday" at 00:01 today.
func FormatDate(t *time.Time) string {
	if t == nil {
		return "Unknown"
	}
	days := daysBetween(t.Local(), time.Now())
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	default:
		return fmt.Sprintf("%d days ago", days)
	}
}

// daysBetween counts calendar days from a to b. Both calendar dates are
// re-anchored in UTC before subtracting, so a DST transition between them
// (a 23- or 25-hour local day) cannot skew the count.
func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}
