// Package model provides the backend-independent model core: schemas,
// attribute storage with change tracking, validation errors and filtering.
// This package has NO dependencies on I/O.
package model

import (
	"sort"
)

// DefaultPrimaryKey is the primary key column used when a schema names none.
const DefaultPrimaryKey = "id"

// Values maps column names to attribute values.
type Values map[string]any

// Filters maps column names to the exact values a record must hold.
type Filters map[string]any

// Schema declares the columns of one model type.
// It replaces per-class accessor generation: backends build a Schema once
// and every record of that type shares it.
type Schema struct {
	// Name is the model name (e.g. "Post"). Used for resource keys and errors.
	Name string

	// PrimaryKey is the identity column.
	PrimaryKey string

	columns []string
	index   map[string]struct{}
}

// NewSchema creates a schema. The primary key is always part of the columns,
// and duplicate column names are dropped.
func NewSchema(name, primaryKey string, columns ...string) *Schema {
	if primaryKey == "" {
		primaryKey = DefaultPrimaryKey
	}

	s := &Schema{
		Name:       name,
		PrimaryKey: primaryKey,
		index:      make(map[string]struct{}, len(columns)+1),
	}
	s.add(primaryKey)
	for _, c := range columns {
		s.add(c)
	}
	return s
}

func (s *Schema) add(col string) {
	if col == "" {
		return
	}
	if _, ok := s.index[col]; ok {
		return
	}
	s.index[col] = struct{}{}
	s.columns = append(s.columns, col)
}

// Columns returns the declared columns in declaration order.
func (s *Schema) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// Has reports whether col is a declared column.
func (s *Schema) Has(col string) bool {
	_, ok := s.index[col]
	return ok
}

// Entity is anything the model lifecycle can operate on.
// Backends embed *Record and override Get/Set to expose or guard
// their own attributes (file metadata, parsed content).
type Entity interface {
	Base() *Record
	Get(key string) (any, bool)
	Set(key string, value any) error
}

// Invalidator is implemented by entities that cache derived state
// (file content, parsed documents) which must be dropped on refresh.
type Invalidator interface {
	Invalidate()
}

// Assign applies values through the entity's Set path.
// Keys outside the schema are silently skipped. The primary key is applied
// first, the rest in key order. An empty input is a no-op.
func Assign(e Entity, values Values) error {
	if len(values) == 0 {
		return nil
	}

	schema := e.Base().Schema()
	for _, k := range orderedKeys(schema, values) {
		if !schema.Has(k) {
			continue
		}
		if err := e.Set(k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

// Attributes returns every declared column read through the entity's Get path.
func Attributes(e Entity) Values {
	cols := e.Base().Schema().Columns()
	out := make(Values, len(cols))
	for _, c := range cols {
		v, _ := e.Get(c)
		out[c] = v
	}
	return out
}

// Pick returns the subset of Attributes named by cols.
func Pick(e Entity, cols []string) Values {
	out := make(Values, len(cols))
	for _, c := range cols {
		if !e.Base().Schema().Has(c) {
			continue
		}
		v, _ := e.Get(c)
		out[c] = v
	}
	return out
}

func orderedKeys(schema *Schema, values Values) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k != schema.PrimaryKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	if _, ok := values[schema.PrimaryKey]; ok {
		keys = append([]string{schema.PrimaryKey}, keys...)
	}
	return keys
}
