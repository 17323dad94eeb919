package series

import "fmt"

// ErrInvalidDateFormat is returned when a date or period value cannot be
// parsed into a calendar date.
type ErrInvalidDateFormat struct {
	Input string
}

func (e *ErrInvalidDateFormat) Error() string {
	return fmt.Sprintf("invalid date format %q", e.Input)
}

// ErrEmptyTable is returned when an operation needs at least one row.
type ErrEmptyTable struct {
	Op string
}

func (e *ErrEmptyTable) Error() string {
	return fmt.Sprintf("%s: empty table", e.Op)
}

// ErrMissingColumn is returned when a required column is absent from a table.
type ErrMissingColumn struct {
	Column string
}

func (e *ErrMissingColumn) Error() string {
	return fmt.Sprintf("missing column %q", e.Column)
}
