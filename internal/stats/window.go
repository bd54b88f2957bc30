package stats

import "time"

// Window is a trailing time range ending at "now". A window with no
// days, months or years is unbounded.
type Window struct {
	Name   string `koanf:"name" validate:"required"`
	Days   int    `koanf:"days" validate:"gte=0"`
	Months int    `koanf:"months" validate:"gte=0"`
	Years  int    `koanf:"years" validate:"gte=0"`
}

// Bounded reports whether w has a start.
func (w Window) Bounded() bool { return w.Days != 0 || w.Months != 0 || w.Years != 0 }

// Since returns the inclusive start of w relative to now. Months and years
// are calendar offsets that clamp to the end of a shorter target month
// (six months before Aug 31 is Feb 29), then Days are subtracted.
func (w Window) Since(now time.Time) time.Time {
	first := time.Date(now.Year(), now.Month(), 1, now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), now.Location())
	target := first.AddDate(-w.Years, -w.Months, 0)
	day := min(now.Day(), daysIn(target.Year(), target.Month()))
	return target.AddDate(0, 0, day-1-w.Days)
}

func daysIn(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DefaultWindows returns the standard reporting windows, narrowest first.
func DefaultWindows() []Window {
	return []Window{
		{Name: "Last 30 Days", Days: 30},
		{Name: "Last 6 Months", Months: 6},
		{Name: "Last 1 Year", Years: 1},
		{Name: "All Time"},
	}
}
