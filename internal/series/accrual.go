package series

import (
	"math"
	"time"
)

// Columns written by ComputeAccrual.
const (
	ColUpdateFactor         = "update_factor"
	ColCapitalizationFactor = "capitalization_factor"
)

// ComputeAccrual derives daily update and capitalization factors from a
// price-index table, in place:
//
//  1. The index is rebased by the monthly inflation rate
//     (index / (1 + inflation)) and normalized so the first row equals 1.
//  2. update_factor = index * (1 + inflation)^(day / daysInMonth), the
//     monthly rate interpolated over the elapsed fraction of the month.
//  3. capitalization_factor = 1 / update_factor, normalized so the last
//     row equals exactly 1.
//
// A missing (NaN) inflation, as in a series' first month with no prior
// period, leaves the index unchanged in the rebase and yields a missing
// update factor for that row only.
func ComputeAccrual(t *Table, indexCol, inflationCol, dayCol, daysCol string) error {
	if t.Len() == 0 {
		return &ErrEmptyTable{Op: "accrual"}
	}
	for _, col := range []string{indexCol, inflationCol, dayCol, daysCol} {
		if !t.HasValueColumn(col) {
			return &ErrMissingColumn{Column: col}
		}
	}

	for i := 0; i < t.Len(); i++ {
		r := t.At(i)
		div := 1 + r.Values[inflationCol]
		if math.IsNaN(r.Values[inflationCol]) {
			div = 1
		}
		r.Values[indexCol] /= div
	}
	base := t.First().Values[indexCol]
	for i := 0; i < t.Len(); i++ {
		t.At(i).Values[indexCol] /= base
	}

	for i := 0; i < t.Len(); i++ {
		r := t.At(i)
		frac := r.Values[dayCol] / r.Values[daysCol]
		r.Values[ColUpdateFactor] = r.Values[indexCol] * math.Pow(1+r.Values[inflationCol], frac)
	}

	lastInv := 1 / t.Last().Values[ColUpdateFactor]
	for i := 0; i < t.Len(); i++ {
		r := t.At(i)
		r.Values[ColCapitalizationFactor] = (1 / r.Values[ColUpdateFactor]) / lastInv
	}
	return nil
}

// ExpandDaily expands a monthly index table to daily resolution: one row per
// calendar day of each month, carrying the month's index and inflation values
// plus the day and days_in_month columns ComputeAccrual needs.
func ExpandDaily(monthly *Table, indexCol, inflationCol string) (*Table, error) {
	if monthly.Len() == 0 {
		return nil, &ErrEmptyTable{Op: "expand daily"}
	}
	for _, col := range []string{indexCol, inflationCol} {
		if !monthly.HasValueColumn(col) {
			return nil, &ErrMissingColumn{Column: col}
		}
	}

	daily := NewTable()
	for i := 0; i < monthly.Len(); i++ {
		m := monthly.At(i)
		if m.Date.IsZero() {
			return nil, &ErrInvalidDateFormat{Input: "monthly row without date"}
		}
		days := DaysInMonth(m.Date.Year(), m.Date.Month())
		for d := 1; d <= days; d++ {
			r := NewRow(time.Date(m.Date.Year(), m.Date.Month(), d, 0, 0, 0, 0, time.UTC))
			r.Values[indexCol] = m.Values[indexCol]
			r.Values[inflationCol] = m.Values[inflationCol]
			r.Values[ColDay] = float64(d)
			r.Values[ColDaysInMonth] = float64(days)
			daily.Append(r)
		}
	}
	return daily, nil
}
