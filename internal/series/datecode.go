package series

import (
	"fmt"
	"time"
)

// Derived column names written by the date coder and accrual calculator.
const (
	ColDay         = "day"
	ColMonth       = "month"
	ColYear        = "year"
	ColMonthYear   = "month_year"
	ColDaysInMonth = "days_in_month"
)

// CodeDate appends calendar-derived columns to every row: month and year as
// numeric columns, the textual "MM-YYYY" code, and the day of month when
// includeDay is true.
//
// A row without a date is accepted in the alternate input shape where month
// and year columns are already present; the code is then derived from those.
// A row with neither fails with ErrInvalidDateFormat.
func CodeDate(t *Table, includeDay bool) error {
	for i := 0; i < t.Len(); i++ {
		r := t.At(i)
		switch {
		case !r.Date.IsZero():
			if includeDay {
				r.Values[ColDay] = float64(r.Date.Day())
			}
			r.Values[ColMonth] = float64(int(r.Date.Month()))
			r.Values[ColYear] = float64(r.Date.Year())
			r.Labels[ColMonthYear] = monthYearCode(int(r.Date.Month()), r.Date.Year())
		default:
			m, okM := r.Values[ColMonth]
			y, okY := r.Values[ColYear]
			if !okM || !okY || m < 1 || m > 12 {
				return &ErrInvalidDateFormat{Input: fmt.Sprintf("row %d: no date and no month/year columns", i)}
			}
			r.Labels[ColMonthYear] = monthYearCode(int(m), int(y))
		}
	}
	return nil
}

// CodePeriod parses "YYYYMM" period codes from the named textual column,
// sets each row's date to the last calendar day of that month, and appends
// the month and year columns.
func CodePeriod(t *Table, periodColumn string) error {
	if !t.HasLabelColumn(periodColumn) {
		return &ErrMissingColumn{Column: periodColumn}
	}
	for i := 0; i < t.Len(); i++ {
		r := t.At(i)
		end, err := ParsePeriod(r.Labels[periodColumn])
		if err != nil {
			return err
		}
		r.Date = end
		r.Values[ColMonth] = float64(int(end.Month()))
		r.Values[ColYear] = float64(end.Year())
	}
	return nil
}

// ParsePeriod parses a compact "YYYYMM" period code into the last calendar
// day of that month.
func ParsePeriod(code string) (time.Time, error) {
	if len(code) != 6 {
		return time.Time{}, &ErrInvalidDateFormat{Input: code}
	}
	t, err := time.Parse("200601", code)
	if err != nil {
		return time.Time{}, &ErrInvalidDateFormat{Input: code}
	}
	return MonthEnd(t), nil
}

func monthYearCode(month, year int) string {
	return fmt.Sprintf("%02d-%04d", month, year)
}
