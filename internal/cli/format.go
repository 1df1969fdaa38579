package cli

import "time"

// formatSessionDate renders a session's creation time relative to now:
// clock time for today, "Yesterday", then a short date.
func formatSessionDate(ts time.Time, now time.Time) string {
	local := ts.Local()
	today := now.Local()

	sameDay := func(a, b time.Time) bool {
		return a.Year() == b.Year() && a.YearDay() == b.YearDay()
	}

	switch {
	case sameDay(local, today):
		return local.Format("3:04 PM")
	case sameDay(local, today.AddDate(0, 0, -1)):
		return "Yesterday"
	default:
		return local.Format("Jan 2")
	}
}
