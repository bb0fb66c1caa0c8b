// Package catalog defines the canonical product record shared by every
// reader, the fingerprint used as its uniqueness key, and the header-alias
// table that maps supplier column names onto canonical fields.
package catalog

import (
	"fmt"
	"strings"
)

// Canonical field names, in fingerprint order.
const (
	FieldMake      = "make"
	FieldModel     = "model"
	FieldColour    = "colour"
	FieldCapacity  = "capacity"
	FieldNetwork   = "network"
	FieldGrade     = "grade"
	FieldCondition = "condition"
)

// FieldNames lists the canonical fields in their fixed order. The order is
// load-bearing: fingerprints and exports both depend on it.
var FieldNames = []string{
	FieldMake, FieldModel, FieldColour, FieldCapacity,
	FieldNetwork, FieldGrade, FieldCondition,
}

// Record is an immutable canonical product record. Make and Model are always
// non-empty after construction; the optional fields use the empty string for
// "absent".
type Record struct {
	Make      string
	Model     string
	Colour    string
	Capacity  string
	Network   string
	Grade     string
	Condition string
}

// ValidationError reports a record missing a required field. Readers fill in
// the 1-based row (or element index) of the offending record before
// propagating it.
type ValidationError struct {
	Row   int // 1-based source row or element index, 0 if unknown
	Field string
}

func (e *ValidationError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: missing required field %q", e.Row, e.Field)
	}
	return fmt.Sprintf("missing required field %q", e.Field)
}

// NewRecord builds a Record from canonical field values. All values are
// trimmed; optional fields that are empty after trimming become absent.
// Returns a *ValidationError when make or model is missing or blank.
func NewRecord(fields map[string]string) (*Record, error) {
	get := func(name string) string {
		return strings.TrimSpace(fields[name])
	}

	r := &Record{
		Make:      get(FieldMake),
		Model:     get(FieldModel),
		Colour:    get(FieldColour),
		Capacity:  get(FieldCapacity),
		Network:   get(FieldNetwork),
		Grade:     get(FieldGrade),
		Condition: get(FieldCondition),
	}

	if r.Make == "" {
		return nil, &ValidationError{Field: FieldMake}
	}
	if r.Model == "" {
		return nil, &ValidationError{Field: FieldModel}
	}

	return r, nil
}

// Values returns the field values in fingerprint order.
func (r *Record) Values() [7]string {
	return [7]string{
		r.Make, r.Model, r.Colour, r.Capacity,
		r.Network, r.Grade, r.Condition,
	}
}

// Field returns the value of the named canonical field, or "" for an unknown
// name.
func (r *Record) Field(name string) string {
	switch name {
	case FieldMake:
		return r.Make
	case FieldModel:
		return r.Model
	case FieldColour:
		return r.Colour
	case FieldCapacity:
		return r.Capacity
	case FieldNetwork:
		return r.Network
	case FieldGrade:
		return r.Grade
	case FieldCondition:
		return r.Condition
	default:
		return ""
	}
}

// Clone returns a copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	return &c
}
