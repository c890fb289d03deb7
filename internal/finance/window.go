package finance

import "time"

// Window is an inclusive time range.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// MonthWindow returns the month-to-date window ending at now and the full
// previous calendar month, 00:00:00 on the 1st through 23:59:59 on its last
// day. Both are computed in now's location.
func MonthWindow(now time.Time) (thisMonth Window, lastMonth Window) {
	loc := now.Location()
	thisStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	lastStart := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, loc)
	lastEnd := time.Date(now.Year(), now.Month(), 0, 23, 59, 59, 0, loc)

	return Window{Start: thisStart, End: now}, Window{Start: lastStart, End: lastEnd}
}

// DayWindow spans from 00:00 on start's day to the last nanosecond of end's
// day, both in loc.
func DayWindow(start, end time.Time, loc *time.Location) Window {
	s := start.In(loc)
	e := end.In(loc)
	return Window{
		Start: time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, loc),
		End:   time.Date(e.Year(), e.Month(), e.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), loc),
	}
}
