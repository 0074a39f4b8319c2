// Package retention contains the domain model for second-level school
// retention statistics. This is the core of the pipeline - no external
// dependencies here.
package retention

import "strings"

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// SchoolID identifies a second-level school in the source dataset.
type SchoolID string

// IsValid reports whether the school identifier is usable.
func (s SchoolID) IsValid() bool {
	return strings.TrimSpace(string(s)) != ""
}

// String returns the string representation of the school ID.
func (s SchoolID) String() string {
	return string(s)
}

// Year is the academic year a record refers to.
type Year int

// IsValid reports whether the year is usable.
func (y Year) IsValid() bool {
	return y > 0
}

// Key is the grouping key for retention aggregation.
type Key struct {
	SchoolID SchoolID
	Year     Year
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// RawRecord is a single record from the source API after schema resolution.
// Counts stay as pointers until aggregation validates them, because the API
// may return null or omit them entirely.
type RawRecord struct {
	SchoolID SchoolID
	Year     Year
	Enrolled *int64
	Retained *int64
}

// Row is one derived retention-rate row. Rate is nil when the enrolled
// count for the group is zero.
type Row struct {
	SchoolID SchoolID
	Year     Year
	Rate     *float64
}

// Equal reports whether two rows carry the same logical values.
func (r Row) Equal(other Row) bool {
	if r.SchoolID != other.SchoolID || r.Year != other.Year {
		return false
	}
	if (r.Rate == nil) != (other.Rate == nil) {
		return false
	}
	return r.Rate == nil || *r.Rate == *other.Rate
}

// Dataset is the ordered, finalized collection of retention rows.
// It is never mutated after aggregation; both output formats serialize it
// verbatim.
type Dataset struct {
	rows []Row
}

// NewDataset wraps rows into a Dataset. The caller must not hold on to the
// slice afterwards.
func NewDataset(rows []Row) *Dataset {
	return &Dataset{rows: rows}
}

// Rows returns the rows in output order.
func (d *Dataset) Rows() []Row {
	return d.rows
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Equal reports whether two datasets carry the same logical rows in the
// same order. Used by the post-write verification step and round-trip tests.
func (d *Dataset) Equal(other *Dataset) bool {
	if d.Len() != other.Len() {
		return false
	}
	for i := range d.rows {
		if !d.rows[i].Equal(other.rows[i]) {
			return false
		}
	}
	return true
}
