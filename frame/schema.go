package frame

import (
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// Field is a named, typed column slot in a Schema.
type Field struct {
	Name string
	Type arrow.DataType
}

// Schema is an ordered mapping from column name to dtype. Insertion order is
// significant: it defines output column ordering.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema creates a Schema from fields, preserving order.
func NewSchema(fields ...Field) *Schema {
	s := &Schema{fields: fields, index: make(map[string]int, len(fields))}
	for i, f := range fields {
		s.index[f.Name] = i
	}
	return s
}

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// Field returns the i-th field.
func (s *Schema) Field(i int) Field { return s.fields[i] }

// Names returns the field names in schema order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Get returns the dtype for name, and whether the field exists.
func (s *Schema) Get(name string) (arrow.DataType, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.fields[i].Type, true
}

// Equal reports whether two schemas have the same fields in the same order.
func (s *Schema) Equal(other *Schema) bool {
	if len(s.fields) != len(other.fields) {
		return false
	}
	for i, f := range s.fields {
		o := other.fields[i]
		if f.Name != o.Name || !arrow.TypeEqual(f.Type, o.Type) {
			return false
		}
	}
	return true
}

func (s *Schema) String() string {
	var b strings.Builder
	b.WriteString("Schema[")
	for i, f := range s.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(f.Type.String())
	}
	b.WriteString("]")
	return b.String()
}
