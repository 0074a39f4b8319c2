// Package cso implements the client for the public education statistics API
// (CSO PxStat by default). This package handles fetching the student dataset
// and converting raw JSON records into domain records at the boundary.
package cso

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RecordDTO is one raw object from the API response array. The API's field
// names vary per dataset, so records stay loosely typed until the Mapper
// resolves the configured names.
type RecordDTO map[string]json.RawMessage

// FieldMap names the JSON fields holding the four values the pipeline needs.
type FieldMap struct {
	SchoolID string
	Year     string
	Enrolled string
	Retained string
}

// DefaultFieldMap returns the field names used when none are configured.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		SchoolID: "school_id",
		Year:     "year",
		Enrolled: "enrolled",
		Retained: "retained",
	}
}

// stringValue extracts a JSON string or scalar as a Go string.
// Numbers are accepted because some datasets encode identifiers numerically.
func stringValue(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("value %s is not a string", string(raw))
}

// intValue extracts a JSON number or numeric string as an int64.
// The API serves counts both ways depending on the export format.
func intValue(raw json.RawMessage) (int64, error) {
	if isNull(raw) {
		return 0, fmt.Errorf("value is null")
	}

	text := string(bytes.TrimSpace(raw))
	if s, err := strconv.Unquote(text); err == nil {
		text = strings.TrimSpace(s)
	}
	if text == "" {
		return 0, fmt.Errorf("value is empty")
	}

	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i, nil
	}

	// Some exports serve whole counts as floats ("75.0")
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("value %s is not numeric", string(raw))
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("value %s is not a whole number", string(raw))
	}
	return int64(f), nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}
