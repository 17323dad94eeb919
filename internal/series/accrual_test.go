package series

import (
	"errors"
	"math"
	"testing"
	"time"
)

func indexRow(d time.Time, index, inflation, day, days float64) Row {
	r := NewRow(d)
	r.Values["index"] = index
	r.Values["inflation"] = inflation
	r.Values[ColDay] = day
	r.Values[ColDaysInMonth] = days
	return r
}

func computeAccrual(t *testing.T, tab *Table) {
	t.Helper()
	if err := ComputeAccrual(tab, "index", "inflation", ColDay, ColDaysInMonth); err != nil {
		t.Fatalf("ComputeAccrual: %v", err)
	}
}

func TestComputeAccrualEmptyTable(t *testing.T) {
	err := ComputeAccrual(NewTable(), "index", "inflation", ColDay, ColDaysInMonth)
	var empty *ErrEmptyTable
	if !errors.As(err, &empty) {
		t.Fatalf("expected ErrEmptyTable, got %v", err)
	}
}

func TestComputeAccrualMissingColumn(t *testing.T) {
	tab := NewTable()
	r := NewRow(date(2024, time.January, 31))
	r.Values["index"] = 100
	tab.Append(r)

	err := ComputeAccrual(tab, "index", "inflation", ColDay, ColDaysInMonth)
	var missing *ErrMissingColumn
	if !errors.As(err, &missing) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	if missing.Column != "inflation" {
		t.Errorf("column = %q, want inflation", missing.Column)
	}
}

func TestComputeAccrualSingleRowZeroInflation(t *testing.T) {
	tab := NewTable()
	tab.Append(indexRow(date(2024, time.January, 31), 100, 0, 31, 31))
	computeAccrual(t, tab)

	r := tab.First()
	if r.Values["index"] != 1 {
		t.Errorf("rebased index = %v, want 1", r.Values["index"])
	}
	if r.Values[ColUpdateFactor] != r.Values["index"] {
		t.Errorf("update factor = %v, want index %v", r.Values[ColUpdateFactor], r.Values["index"])
	}
	if r.Values[ColCapitalizationFactor] != 1 {
		t.Errorf("capitalization factor = %v, want exactly 1", r.Values[ColCapitalizationFactor])
	}
}

func TestComputeAccrualMissingFirstInflation(t *testing.T) {
	// First month of a series has no prior period: inflation is NaN.
	tab := NewTable()
	tab.Append(indexRow(date(2024, time.January, 31), 100, math.NaN(), 31, 31))
	tab.Append(indexRow(date(2024, time.February, 29), 104, 0.04, 29, 29))
	computeAccrual(t, tab)

	for i := 0; i < tab.Len(); i++ {
		if got := tab.At(i).Values["index"]; math.Abs(got-1) > 1e-12 {
			t.Errorf("row %d: rebased index = %v, want 1", i, got)
		}
	}
	if !math.IsNaN(tab.First().Values[ColUpdateFactor]) {
		t.Errorf("first-row update factor = %v, want NaN", tab.First().Values[ColUpdateFactor])
	}
	if !math.IsNaN(tab.First().Values[ColCapitalizationFactor]) {
		t.Errorf("first-row capitalization factor = %v, want NaN", tab.First().Values[ColCapitalizationFactor])
	}
	if got := tab.Last().Values[ColCapitalizationFactor]; got != 1 {
		t.Errorf("last capitalization factor = %v, want exactly 1", got)
	}
	if got, want := tab.Last().Values[ColUpdateFactor], 1.04; math.Abs(got-want) > 1e-12 {
		t.Errorf("last update factor = %v, want %v", got, want)
	}
}

func TestComputeAccrualUpdateFactorMonotone(t *testing.T) {
	// Strictly positive inflation every period: the update factor never
	// decreases across later rows.
	tab := NewTable()
	index := 100.0
	months := []time.Month{time.January, time.February, time.March, time.April}
	inflations := []float64{0.02, 0.03, 0.05, 0.041}
	for i, m := range months {
		index *= 1 + inflations[i]
		days := DaysInMonth(2023, m)
		tab.Append(indexRow(date(2023, m, days), index, inflations[i], float64(days), float64(days)))
	}
	computeAccrual(t, tab)

	prev := math.Inf(-1)
	for i := 0; i < tab.Len(); i++ {
		uf := tab.At(i).Values[ColUpdateFactor]
		if uf < prev {
			t.Errorf("update factor decreased at row %d: %v < %v", i, uf, prev)
		}
		prev = uf
	}
}

func TestComputeAccrualIntramonthInterpolation(t *testing.T) {
	// Mid-month the update factor accrues (1+i)^(day/days).
	tab := NewTable()
	tab.Append(indexRow(date(2024, time.March, 1), 100, 0, 1, 31))
	tab.Append(indexRow(date(2024, time.March, 15), 100, 0.031, 15, 31))
	computeAccrual(t, tab)

	// Rebased row 2 is (100/1.031)/100 after normalizing to row 1.
	want := (1.0 / 1.031) * math.Pow(1.031, 15.0/31.0)
	if got := tab.Last().Values[ColUpdateFactor]; math.Abs(got-want) > 1e-12 {
		t.Errorf("update factor = %v, want %v", got, want)
	}
}

func TestExpandDaily(t *testing.T) {
	monthly := NewTable()
	r := NewRow(date(2024, time.February, 29))
	r.Values["index"] = 104
	r.Values["inflation"] = 0.04
	monthly.Append(r)

	daily, err := ExpandDaily(monthly, "index", "inflation")
	if err != nil {
		t.Fatalf("ExpandDaily: %v", err)
	}
	if daily.Len() != 29 {
		t.Fatalf("expanded rows = %d, want 29", daily.Len())
	}
	first, last := daily.First(), daily.Last()
	if first.Values[ColDay] != 1 || last.Values[ColDay] != 29 {
		t.Errorf("day bounds = %v..%v, want 1..29", first.Values[ColDay], last.Values[ColDay])
	}
	if last.Values[ColDaysInMonth] != 29 {
		t.Errorf("days_in_month = %v, want 29", last.Values[ColDaysInMonth])
	}
	if last.Values["index"] != 104 || last.Values["inflation"] != 0.04 {
		t.Error("index/inflation not carried into daily rows")
	}
	if !last.Date.Equal(date(2024, time.February, 29)) {
		t.Errorf("last date = %v, want 2024-02-29", last.Date)
	}
}

func TestExpandDailyErrors(t *testing.T) {
	if _, err := ExpandDaily(NewTable(), "index", "inflation"); err == nil {
		t.Error("expected error for empty table")
	}

	monthly := NewTable()
	monthly.Append(NewRow(date(2024, time.January, 31)))
	_, err := ExpandDaily(monthly, "index", "inflation")
	var missing *ErrMissingColumn
	if !errors.As(err, &missing) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestAccrualOverExpandedMonths(t *testing.T) {
	// End-to-end: two monthly observations expanded to daily resolution.
	monthly := NewTable()
	jan := NewRow(date(2024, time.January, 31))
	jan.Values["index"] = 100
	jan.Values["inflation"] = math.NaN()
	monthly.Append(jan)
	feb := NewRow(date(2024, time.February, 29))
	feb.Values["index"] = 104
	feb.Values["inflation"] = 0.04
	monthly.Append(feb)

	daily, err := ExpandDaily(monthly, "index", "inflation")
	if err != nil {
		t.Fatalf("ExpandDaily: %v", err)
	}
	if daily.Len() != 31+29 {
		t.Fatalf("daily rows = %d, want 60", daily.Len())
	}
	computeAccrual(t, daily)

	if got := daily.Last().Values[ColCapitalizationFactor]; got != 1 {
		t.Errorf("last capitalization factor = %v, want exactly 1", got)
	}
	// Feb 29 accrues the full month: update factor = 1.04 over the rebased base.
	if got, want := daily.Last().Values[ColUpdateFactor], 1.04; math.Abs(got-want) > 1e-12 {
		t.Errorf("last update factor = %v, want %v", got, want)
	}
}
