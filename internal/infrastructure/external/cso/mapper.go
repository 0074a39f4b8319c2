package cso

import (
	"fmt"

	"github.com/edustats/retention-pipeline/internal/domain/retention"
	"github.com/edustats/retention-pipeline/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAPPER - DTO to domain record transformations
// ══════════════════════════════════════════════════════════════════════════════

// Mapper resolves configured field names against raw API records and builds
// domain RawRecords. This is the anti-corruption layer between the external
// dataset schema and the pipeline: duck-typed field access stops here.
type Mapper struct {
	fields FieldMap
}

// NewMapper creates a Mapper for the given field names.
func NewMapper(fields FieldMap) *Mapper {
	return &Mapper{fields: fields}
}

// MapRecords converts raw DTOs into domain records.
//
// Fields that are absent or null come out as zero values / nil pointers;
// presence is enforced later by the aggregation so the error can name the
// record. A field that is present but not convertible (a non-numeric count,
// a structured school id) is a validation failure right here.
func (m *Mapper) MapRecords(dtos []RecordDTO) ([]retention.RawRecord, error) {
	records := make([]retention.RawRecord, 0, len(dtos))

	for i, dto := range dtos {
		rec, err := m.mapRecord(dto)
		if err != nil {
			return nil, shared.WrapError("fetch", "MapRecords", shared.ErrValidation,
				fmt.Sprintf("record %d", i), err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func (m *Mapper) mapRecord(dto RecordDTO) (retention.RawRecord, error) {
	var rec retention.RawRecord

	if raw, ok := dto[m.fields.SchoolID]; ok {
		id, err := stringValue(raw)
		if err != nil {
			return rec, fmt.Errorf("field %q: %w", m.fields.SchoolID, err)
		}
		rec.SchoolID = retention.SchoolID(id)
	}

	if raw, ok := dto[m.fields.Year]; ok && !isNull(raw) {
		year, err := intValue(raw)
		if err != nil {
			return rec, fmt.Errorf("field %q: %w", m.fields.Year, err)
		}
		rec.Year = retention.Year(year)
	}

	enrolled, err := m.optionalCount(dto, m.fields.Enrolled)
	if err != nil {
		return rec, err
	}
	rec.Enrolled = enrolled

	retained, err := m.optionalCount(dto, m.fields.Retained)
	if err != nil {
		return rec, err
	}
	rec.Retained = retained

	return rec, nil
}

// optionalCount reads a count field, treating absent and null as missing
// rather than as an error.
func (m *Mapper) optionalCount(dto RecordDTO, field string) (*int64, error) {
	raw, ok := dto[field]
	if !ok || isNull(raw) {
		return nil, nil
	}
	v, err := intValue(raw)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", field, err)
	}
	return &v, nil
}
