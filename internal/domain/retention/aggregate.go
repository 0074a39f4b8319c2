package retention

import (
	"fmt"

	"github.com/edustats/retention-pipeline/internal/domain/shared"
)

// groupTotals accumulates the summed counts for one (school, year) group.
type groupTotals struct {
	enrolled int64
	retained int64
}

// Aggregate groups records by (school, year) and computes the retention
// rate per group as retained / enrolled.
//
// The output order is deterministic: groups appear in the order their key
// first occurs in the input. A group whose summed enrolled count is zero
// gets a nil rate rather than an error. Rates outside [0,1] are passed
// through unchanged; the source data is not corrected here.
//
// A record missing any required field fails the whole run with a
// validation error naming the record and the field.
func Aggregate(records []RawRecord) (*Dataset, error) {
	totals := make(map[Key]*groupTotals, len(records))
	order := make([]Key, 0, len(records))

	for i, rec := range records {
		if err := validateRecord(i, rec); err != nil {
			return nil, err
		}

		key := Key{SchoolID: rec.SchoolID, Year: rec.Year}
		group, ok := totals[key]
		if !ok {
			group = &groupTotals{}
			totals[key] = group
			order = append(order, key)
		}
		group.enrolled += *rec.Enrolled
		group.retained += *rec.Retained
	}

	rows := make([]Row, 0, len(order))
	for _, key := range order {
		group := totals[key]
		row := Row{SchoolID: key.SchoolID, Year: key.Year}
		if group.enrolled != 0 {
			rate := float64(group.retained) / float64(group.enrolled)
			row.Rate = &rate
		}
		rows = append(rows, row)
	}

	return NewDataset(rows), nil
}

// validateRecord checks that all fields used in rate computation are
// present and usable. Only these four fields are required; anything else
// the API returns is ignored upstream.
func validateRecord(index int, rec RawRecord) error {
	missing := ""
	switch {
	case !rec.SchoolID.IsValid():
		missing = "school_id"
	case !rec.Year.IsValid():
		missing = "year"
	case rec.Enrolled == nil:
		missing = "enrolled"
	case rec.Retained == nil:
		missing = "retained"
	}
	if missing == "" {
		if *rec.Enrolled < 0 || *rec.Retained < 0 {
			return shared.NewPipelineError("aggregate", "Validate", shared.ErrValidation,
				fmt.Sprintf("record %d (school %q, year %d): negative count", index, rec.SchoolID, rec.Year))
		}
		return nil
	}
	return shared.NewPipelineError("aggregate", "Validate", shared.ErrValidation,
		fmt.Sprintf("record %d: missing required field %q", index, missing))
}
