// Package series implements the small tabular core shared by every data
// source: a date-indexed table, calendar/date-code utilities, and the
// index-accrual calculations used to update and capitalize nominal amounts.
package series

import (
	"sort"
	"time"
)

// Row is a single dated observation with named numeric and textual columns.
// Missing numeric values are represented as NaN, never by an absent key.
type Row struct {
	Date   time.Time
	Values map[string]float64
	Labels map[string]string
}

// NewRow creates a row for the given date with empty column maps.
func NewRow(date time.Time) Row {
	return Row{
		Date:   date,
		Values: make(map[string]float64),
		Labels: make(map[string]string),
	}
}

// Table is an ordered sequence of dated rows. After SortByDate the date
// column is monotonically non-decreasing; duplicate dates are kept as-is
// (deduplication is the caller's responsibility).
type Table struct {
	rows []Row
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

// Append adds a row to the end of the table. Nil column maps are initialized
// so later operations can write derived columns unconditionally.
func (t *Table) Append(r Row) {
	if r.Values == nil {
		r.Values = make(map[string]float64)
	}
	if r.Labels == nil {
		r.Labels = make(map[string]string)
	}
	t.rows = append(t.rows, r)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// At returns a pointer to the i-th row.
func (t *Table) At(i int) *Row { return &t.rows[i] }

// First returns the first row, or nil for an empty table.
func (t *Table) First() *Row {
	if len(t.rows) == 0 {
		return nil
	}
	return &t.rows[0]
}

// Last returns the last row, or nil for an empty table.
func (t *Table) Last() *Row {
	if len(t.rows) == 0 {
		return nil
	}
	return &t.rows[len(t.rows)-1]
}

// SortByDate sorts rows by date, stable, ascending.
func (t *Table) SortByDate() {
	sort.SliceStable(t.rows, func(i, j int) bool {
		return t.rows[i].Date.Before(t.rows[j].Date)
	})
}

// HasValueColumn reports whether every row carries the named numeric column.
// A NaN value still counts as present.
func (t *Table) HasValueColumn(name string) bool {
	for i := range t.rows {
		if _, ok := t.rows[i].Values[name]; !ok {
			return false
		}
	}
	return true
}

// HasLabelColumn reports whether every row carries the named textual column.
func (t *Table) HasLabelColumn(name string) bool {
	for i := range t.rows {
		if _, ok := t.rows[i].Labels[name]; !ok {
			return false
		}
	}
	return true
}
