package ingest

import (
	"errors"
	"fmt"
)

// ErrEmptyDataset is returned when normalization yields zero valid records.
var ErrEmptyDataset = errors.New("no usable records after normalization")

// SchemaError reports a missing required column. It is fatal: the run
// aborts before any computation.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("required column %q not found in export", e.Column)
}

// RowError reports one row that failed validation. Row errors are
// accumulated, never fatal; the row is skipped and counted.
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d, column %q: %v", e.Row, e.Column, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// Report summarizes one normalization pass over an export file.
type Report struct {
	Rows           int        `json:"rows"`
	Valid          int        `json:"valid"`
	Skipped        int        `json:"skipped"`
	MissingColumns []string   `json:"missing_columns,omitempty"`
	Errors         []RowError `json:"-"`
}

// ErrorSummaries returns the row errors as strings for the output bundle.
func (r Report) ErrorSummaries() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Error())
	}
	return out
}
