package model

import "fmt"

// Record is the attribute store shared by every backend.
// It tracks which columns were written since construction or the last save.
type Record struct {
	schema  *Schema
	values  Values
	changed []string
	errors  Errors
}

// NewRecord creates an empty record for schema.
func NewRecord(schema *Schema) *Record {
	return &Record{
		schema: schema,
		values: make(Values),
	}
}

// Base returns the record itself so that *Record satisfies Entity.
func (r *Record) Base() *Record {
	return r
}

// Schema returns the record's schema.
func (r *Record) Schema() *Schema {
	return r.schema
}

// Get returns the value of key. Declared columns that were never set
// report (nil, true); unknown keys report (nil, false).
func (r *Record) Get(key string) (any, bool) {
	if v, ok := r.values[key]; ok {
		return v, true
	}
	return nil, r.schema.Has(key)
}

// Set records key as changed and stores value.
func (r *Record) Set(key string, value any) error {
	if !r.schema.Has(key) {
		return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, r.schema.Name, key)
	}
	r.Touch(key)
	r.values[key] = value
	return nil
}

// Store writes a value without change tracking.
// Used for internal population (lookups, server responses, caches).
func (r *Record) Store(key string, value any) {
	r.values[key] = value
}

// Touch marks key as changed without writing a value.
func (r *Record) Touch(key string) {
	for _, c := range r.changed {
		if c == key {
			return
		}
	}
	r.changed = append(r.changed, key)
}

// Values returns a copy of every stored value.
func (r *Record) Values() Values {
	out := make(Values, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Replace swaps the stored values wholesale and clears the change set.
func (r *Record) Replace(values Values) {
	r.values = make(Values, len(values))
	for k, v := range values {
		if r.schema.Has(k) {
			r.values[k] = v
		}
	}
	r.ClearChanges()
}

// Changed returns the columns written since the last save, in write order.
func (r *Record) Changed() []string {
	out := make([]string, len(r.changed))
	copy(out, r.changed)
	return out
}

// IsChanged reports whether col was written since the last save.
func (r *Record) IsChanged(col string) bool {
	for _, c := range r.changed {
		if c == col {
			return true
		}
	}
	return false
}

// ClearChanges empties the change set.
func (r *Record) ClearChanges() {
	r.changed = nil
}

// PK returns the primary key value, or nil if it is unset.
func (r *Record) PK() any {
	return r.values[r.schema.PrimaryKey]
}

// IsNew reports whether the record has not been persisted yet.
func (r *Record) IsNew() bool {
	return isBlank(r.PK())
}

// Errors returns the validation errors collected by the last validation run.
func (r *Record) Errors() *Errors {
	return &r.errors
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	default:
		return false
	}
}
