package domain

import "time"

// DateLayout is the local calendar-date format used for idempotency keys
// and history ledger keys.
const DateLayout = "2006-01-02"

// DateString formats an instant as a local YYYY-MM-DD date.
func DateString(t time.Time) string {
	return t.Local().Format(DateLayout)
}

// CalendarDaysBetween returns the number of whole calendar days from the
// earlier instant's date to the later instant's date, in local time.
// Midnights are compared in UTC so a DST shift cannot skew the count.
func CalendarDaysBetween(from, to time.Time) int {
	from = from.Local()
	to = to.Local()
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
