package frame

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

var alloc = memory.DefaultAllocator

// SeriesValue is the set of Go element types a Series can be built from
// directly. Other dtypes (dates, unsigned widths) are reached through
// NewSeriesValues with an explicit arrow dtype.
type SeriesValue interface {
	~int64 | ~int32 | ~float64 | ~float32 | ~string | ~bool
}

// Series is a named, immutable, typed column backed by an arrow array.
type Series struct {
	name string
	arr  arrow.Array
}

// NewSeries creates a Series from a slice of non-null values.
func NewSeries[T SeriesValue](name string, values []T) *Series {
	switch vs := any(values).(type) {
	case []int64:
		b := array.NewInt64Builder(alloc)
		defer b.Release()
		b.AppendValues(vs, nil)
		return &Series{name: name, arr: b.NewArray()}
	case []int32:
		b := array.NewInt32Builder(alloc)
		defer b.Release()
		b.AppendValues(vs, nil)
		return &Series{name: name, arr: b.NewArray()}
	case []float64:
		b := array.NewFloat64Builder(alloc)
		defer b.Release()
		b.AppendValues(vs, nil)
		return &Series{name: name, arr: b.NewArray()}
	case []float32:
		b := array.NewFloat32Builder(alloc)
		defer b.Release()
		b.AppendValues(vs, nil)
		return &Series{name: name, arr: b.NewArray()}
	case []string:
		b := array.NewStringBuilder(alloc)
		defer b.Release()
		b.AppendValues(vs, nil)
		return &Series{name: name, arr: b.NewArray()}
	case []bool:
		b := array.NewBooleanBuilder(alloc)
		defer b.Release()
		b.AppendValues(vs, nil)
		return &Series{name: name, arr: b.NewArray()}
	default:
		panic(fmt.Sprintf("frame: unsupported series element type %T", values))
	}
}

// NewSeriesNullable creates a Series from pointers; nil entries become nulls.
func NewSeriesNullable[T SeriesValue](name string, values []*T) *Series {
	var zero T
	dt := dtypeForValue(zero)
	b := array.NewBuilder(alloc, dt)
	defer b.Release()
	for _, v := range values {
		if v == nil {
			b.AppendNull()
			continue
		}
		// element types in SeriesValue always append cleanly to their builder
		if err := appendValue(b, any(*v)); err != nil {
			panic(fmt.Sprintf("frame: %v", err))
		}
	}
	return &Series{name: name, arr: b.NewArray()}
}

// NewSeriesValues builds a Series of an explicit arrow dtype from generic
// values, casting each entry as needed. Nil entries become nulls.
func NewSeriesValues(name string, dt arrow.DataType, values []any) (*Series, error) {
	arr, err := BuildArray(dt, values)
	if err != nil {
		return nil, fmt.Errorf("build series %q: %w", name, err)
	}
	return &Series{name: name, arr: arr}, nil
}

// NewSeriesFromArray wraps an existing arrow array without copying. The
// Series takes its own reference.
func NewSeriesFromArray(name string, arr arrow.Array) *Series {
	arr.Retain()
	return &Series{name: name, arr: arr}
}

// Name returns the column name.
func (s *Series) Name() string { return s.name }

// Len returns the number of elements.
func (s *Series) Len() int { return s.arr.Len() }

// DataType returns the arrow dtype.
func (s *Series) DataType() arrow.DataType { return s.arr.DataType() }

// Array returns the underlying arrow array.
func (s *Series) Array() arrow.Array { return s.arr }

// IsNull reports whether the value at i is null.
func (s *Series) IsNull(i int) bool { return s.arr.IsNull(i) }

// Value returns the element at i as a normalized Go value (int64 for signed
// ints, uint64 for unsigned, float64 for floats, string, bool, time.Time for
// dates and timestamps) or nil for null.
func (s *Series) Value(i int) any { return arrayValue(s.arr, i) }

// Values returns all elements as normalized Go values, nil for nulls.
func (s *Series) Values() []any {
	out := make([]any, s.arr.Len())
	for i := range out {
		out[i] = arrayValue(s.arr, i)
	}
	return out
}

// Cast returns a Series of dtype dt, converting each element. Nulls are
// preserved. Returns the receiver when the dtype already matches.
func (s *Series) Cast(dt arrow.DataType) (*Series, error) {
	if arrow.TypeEqual(s.arr.DataType(), dt) {
		return s, nil
	}
	arr, err := BuildArray(dt, s.Values())
	if err != nil {
		return nil, fmt.Errorf("cast %q to %s: %w", s.name, dt, err)
	}
	return &Series{name: s.name, arr: arr}, nil
}

// Rename returns a Series sharing this one's storage under a new name.
func (s *Series) Rename(name string) *Series {
	s.arr.Retain()
	return &Series{name: name, arr: s.arr}
}

// Release releases the underlying arrow storage.
func (s *Series) Release() { s.arr.Release() }

func (s *Series) String() string {
	return fmt.Sprintf("Series[%s: %s, len=%d]", s.name, s.arr.DataType(), s.arr.Len())
}

func dtypeForValue(v any) arrow.DataType {
	switch v.(type) {
	case int64:
		return arrow.PrimitiveTypes.Int64
	case int32:
		return arrow.PrimitiveTypes.Int32
	case float64:
		return arrow.PrimitiveTypes.Float64
	case float32:
		return arrow.PrimitiveTypes.Float32
	case string:
		return arrow.BinaryTypes.String
	case bool:
		return arrow.FixedWidthTypes.Boolean
	default:
		panic(fmt.Sprintf("frame: unsupported series element type %T", v))
	}
}
