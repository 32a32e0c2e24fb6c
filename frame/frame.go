// Package frame implements an immutable columnar dataframe backed by Apache
// Arrow arrays, with right-outer-join semantics and a minimal lazy plan layer.
package frame

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"framelake/domain"
)

// Frame is an ordered collection of equal-length named typed columns.
// Frames are immutable value objects: every operation produces a new Frame
// and never mutates its inputs.
type Frame struct {
	cols   []*Series
	byName map[string]int
	height int
}

// NewFrame creates a Frame from columns. Column names must be unique and all
// columns must have equal length.
func NewFrame(cols ...*Series) (*Frame, error) {
	f := &Frame{cols: cols, byName: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := f.byName[c.Name()]; dup {
			return nil, domain.ErrConflict("column %q appears more than once in the frame", c.Name())
		}
		f.byName[c.Name()] = i
		if i == 0 {
			f.height = c.Len()
		} else if c.Len() != f.height {
			return nil, domain.ErrValidation(
				"column %q has length %d, expected %d", c.Name(), c.Len(), f.height)
		}
	}
	return f, nil
}

// FromRecord creates a Frame from an arrow record batch. Column storage is
// shared, not copied.
func FromRecord(rec arrow.Record) (*Frame, error) {
	cols := make([]*Series, rec.NumCols())
	for i := range cols {
		cols[i] = NewSeriesFromArray(rec.ColumnName(i), rec.Column(i))
	}
	return NewFrame(cols...)
}

// Height returns the number of rows.
func (f *Frame) Height() int { return f.height }

// Width returns the number of columns.
func (f *Frame) Width() int { return len(f.cols) }

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.Name()
	}
	return names
}

// Column returns the named column, or an error if it does not exist.
func (f *Frame) Column(name string) (*Series, error) {
	i, ok := f.byName[name]
	if !ok {
		return nil, domain.ErrNotFound("column %q not found in frame", name)
	}
	return f.cols[i], nil
}

// ColumnAt returns the i-th column.
func (f *Frame) ColumnAt(i int) *Series { return f.cols[i] }

// HasColumn reports whether the frame has the given column.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.byName[name]
	return ok
}

// Schema returns the frame's schema in column order.
func (f *Frame) Schema() *Schema {
	fields := make([]Field, len(f.cols))
	for i, c := range f.cols {
		fields[i] = Field{Name: c.Name(), Type: c.DataType()}
	}
	return NewSchema(fields...)
}

// Slice returns a new Frame with rows [i, j). Storage is shared.
func (f *Frame) Slice(i, j int) (*Frame, error) {
	if i < 0 || j < i || j > f.height {
		return nil, domain.ErrValidation("slice bounds [%d, %d) out of range for height %d", i, j, f.height)
	}
	cols := make([]*Series, len(f.cols))
	for k, c := range f.cols {
		sliced := array.NewSlice(c.arr, int64(i), int64(j))
		cols[k] = &Series{name: c.name, arr: sliced}
	}
	out, err := NewFrame(cols...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Vstack concatenates other below this frame. Schemas must have the same
// column names in the same order; dtypes must match.
func (f *Frame) Vstack(other *Frame) (*Frame, error) {
	if f.Width() != other.Width() {
		return nil, domain.ErrValidation(
			"cannot vstack frames of width %d and %d", f.Width(), other.Width())
	}
	cols := make([]*Series, len(f.cols))
	for i, c := range f.cols {
		oc := other.cols[i]
		if c.Name() != oc.Name() {
			return nil, domain.ErrValidation(
				"cannot vstack: column %d is %q on one side and %q on the other", i, c.Name(), oc.Name())
		}
		if !arrow.TypeEqual(c.DataType(), oc.DataType()) {
			return nil, domain.ErrValidation(
				"cannot vstack: column %q has dtype %s on one side and %s on the other",
				c.Name(), c.DataType(), oc.DataType())
		}
		merged, err := concatArrays(c.arr, oc.arr)
		if err != nil {
			return nil, fmt.Errorf("vstack column %q: %w", c.Name(), err)
		}
		cols[i] = &Series{name: c.name, arr: merged}
	}
	return NewFrame(cols...)
}

// Equal reports whether two frames have identical schemas and cell values.
func (f *Frame) Equal(other *Frame) bool {
	if f.height != other.height || len(f.cols) != len(other.cols) {
		return false
	}
	if !f.Schema().Equal(other.Schema()) {
		return false
	}
	for i := range f.cols {
		a, b := f.cols[i].arr, other.cols[i].arr
		for row := 0; row < f.height; row++ {
			if a.IsNull(row) != b.IsNull(row) {
				return false
			}
			if !a.IsNull(row) && arrayValue(a, row) != arrayValue(b, row) {
				return false
			}
		}
	}
	return true
}

// Release releases the underlying arrow storage of every column.
func (f *Frame) Release() {
	for _, c := range f.cols {
		c.Release()
	}
}

func (f *Frame) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Frame[%dx%d]{", f.height, len(f.cols))
	for i, c := range f.cols {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", c.Name(), c.DataType())
	}
	b.WriteString("}")
	return b.String()
}
