package series

import "time"

// DaysInMonth returns the Gregorian day count of the given month, including
// leap-year February.
func DaysInMonth(year int, month time.Month) int {
	// Day zero of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthEnd returns the last calendar day of t's month.
func MonthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), DaysInMonth(t.Year(), t.Month()), 0, 0, 0, 0, t.Location())
}

// Quarter returns the calendar quarter (1-4) of t.
func Quarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// quarterStartMonth returns the first month of t's quarter.
func quarterStartMonth(t time.Time) time.Month {
	return time.Month((Quarter(t)-1)*3 + 1)
}

// DaysInQuarter returns the total number of days in t's calendar quarter.
func DaysInQuarter(t time.Time) int {
	start := quarterStartMonth(t)
	days := 0
	for m := start; m < start+3; m++ {
		days += DaysInMonth(t.Year(), m)
	}
	return days
}

// ElapsedInQuarter returns the number of days elapsed in t's quarter up to
// and including t.
func ElapsedInQuarter(t time.Time) int {
	days := t.Day()
	for m := quarterStartMonth(t); m < t.Month(); m++ {
		days += DaysInMonth(t.Year(), m)
	}
	return days
}

// NextQuarterEnd returns the last day of the quarter following t's.
func NextQuarterEnd(t time.Time) time.Time {
	end := t.AddDate(0, 0, DaysInQuarter(t)-ElapsedInQuarter(t))
	next := end.AddDate(0, 0, 1)
	return next.AddDate(0, 0, DaysInQuarter(next)-1)
}
