package frame

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// arrayValue extracts the element at i as a normalized Go value: int64 for
// signed ints, uint64 for unsigned, float64 for floats, string, bool,
// time.Time for date/timestamp. Returns nil for null.
func arrayValue(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.Int8:
		return int64(a.Value(i))
	case *array.Int16:
		return int64(a.Value(i))
	case *array.Int32:
		return int64(a.Value(i))
	case *array.Int64:
		return a.Value(i)
	case *array.Uint8:
		return uint64(a.Value(i))
	case *array.Uint16:
		return uint64(a.Value(i))
	case *array.Uint32:
		return uint64(a.Value(i))
	case *array.Uint64:
		return a.Value(i)
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Float64:
		return a.Value(i)
	case *array.String:
		return a.Value(i)
	case *array.Boolean:
		return a.Value(i)
	case *array.Date32:
		return a.Value(i).ToTime()
	case *array.Timestamp:
		return a.Value(i).ToTime(a.DataType().(*arrow.TimestampType).Unit)
	case *array.Null:
		return nil
	default:
		panic(fmt.Sprintf("frame: unsupported arrow array type %T", arr))
	}
}

// BuildArray builds an arrow array of dtype dt from generic values, casting
// entries as needed. Nil entries become nulls.
func BuildArray(dt arrow.DataType, values []any) (arrow.Array, error) {
	b := array.NewBuilder(alloc, dt)
	defer b.Release()
	for i, v := range values {
		if v == nil {
			b.AppendNull()
			continue
		}
		if err := appendValue(b, v); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return b.NewArray(), nil
}

// appendValue casts v into the builder's dtype and appends it.
func appendValue(b array.Builder, v any) error {
	switch bb := b.(type) {
	case *array.Int8Builder:
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		bb.Append(int8(n))
	case *array.Int16Builder:
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		bb.Append(int16(n))
	case *array.Int32Builder:
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		bb.Append(int32(n))
	case *array.Int64Builder:
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		bb.Append(n)
	case *array.Uint8Builder:
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		bb.Append(uint8(n))
	case *array.Uint16Builder:
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		bb.Append(uint16(n))
	case *array.Uint32Builder:
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		bb.Append(uint32(n))
	case *array.Uint64Builder:
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		bb.Append(uint64(n))
	case *array.Float32Builder:
		f, err := toFloat64(v)
		if err != nil {
			return err
		}
		bb.Append(float32(f))
	case *array.Float64Builder:
		f, err := toFloat64(v)
		if err != nil {
			return err
		}
		bb.Append(f)
	case *array.StringBuilder:
		s, err := toString(v)
		if err != nil {
			return err
		}
		bb.Append(s)
	case *array.BooleanBuilder:
		t, ok := v.(bool)
		if !ok {
			return fmt.Errorf("cannot cast %T to bool", v)
		}
		bb.Append(t)
	case *array.Date32Builder:
		d, err := toDate32(v)
		if err != nil {
			return err
		}
		bb.Append(d)
	case *array.TimestampBuilder:
		t, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("cannot cast %T to timestamp", v)
		}
		ts, err := arrow.TimestampFromTime(t, b.Type().(*arrow.TimestampType).Unit)
		if err != nil {
			return err
		}
		bb.Append(ts)
	default:
		return fmt.Errorf("unsupported target dtype %s", b.Type())
	}
	return nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("cannot cast %T to integer", v)
	}
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		i, err := toInt64(v)
		if err != nil {
			return 0, fmt.Errorf("cannot cast %T to float", v)
		}
		return float64(i), nil
	}
}

func toString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case time.Time:
		if s.Hour() == 0 && s.Minute() == 0 && s.Second() == 0 && s.Nanosecond() == 0 {
			return s.Format("2006-01-02"), nil
		}
		return s.Format("2006-01-02 15:04:05"), nil
	default:
		return "", fmt.Errorf("cannot cast %T to string", v)
	}
}

func toDate32(v any) (arrow.Date32, error) {
	switch d := v.(type) {
	case arrow.Date32:
		return d, nil
	case time.Time:
		return arrow.Date32FromTime(d), nil
	case string:
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			return 0, fmt.Errorf("cannot cast %q to date", d)
		}
		return arrow.Date32FromTime(t), nil
	case int32:
		return arrow.Date32(d), nil
	case int64:
		return arrow.Date32(d), nil
	default:
		return 0, fmt.Errorf("cannot cast %T to date", v)
	}
}

// takeArray gathers rows of arr by index; index -1 emits a null.
func takeArray(arr arrow.Array, idxs []int) arrow.Array {
	b := array.NewBuilder(alloc, arr.DataType())
	defer b.Release()
	b.Reserve(len(idxs))
	for _, idx := range idxs {
		if idx < 0 || arr.IsNull(idx) {
			b.AppendNull()
			continue
		}
		appendFromArray(b, arr, idx)
	}
	return b.NewArray()
}

// appendFromArray copies the non-null element at idx into a builder of the
// same dtype.
func appendFromArray(b array.Builder, arr arrow.Array, idx int) {
	switch a := arr.(type) {
	case *array.Int8:
		b.(*array.Int8Builder).Append(a.Value(idx))
	case *array.Int16:
		b.(*array.Int16Builder).Append(a.Value(idx))
	case *array.Int32:
		b.(*array.Int32Builder).Append(a.Value(idx))
	case *array.Int64:
		b.(*array.Int64Builder).Append(a.Value(idx))
	case *array.Uint8:
		b.(*array.Uint8Builder).Append(a.Value(idx))
	case *array.Uint16:
		b.(*array.Uint16Builder).Append(a.Value(idx))
	case *array.Uint32:
		b.(*array.Uint32Builder).Append(a.Value(idx))
	case *array.Uint64:
		b.(*array.Uint64Builder).Append(a.Value(idx))
	case *array.Float32:
		b.(*array.Float32Builder).Append(a.Value(idx))
	case *array.Float64:
		b.(*array.Float64Builder).Append(a.Value(idx))
	case *array.String:
		b.(*array.StringBuilder).Append(a.Value(idx))
	case *array.Boolean:
		b.(*array.BooleanBuilder).Append(a.Value(idx))
	case *array.Date32:
		b.(*array.Date32Builder).Append(a.Value(idx))
	case *array.Timestamp:
		b.(*array.TimestampBuilder).Append(a.Value(idx))
	default:
		panic(fmt.Sprintf("frame: unsupported arrow array type %T", arr))
	}
}

// concatArrays concatenates same-dtype arrays into one.
func concatArrays(arrs ...arrow.Array) (arrow.Array, error) {
	return array.Concatenate(arrs, alloc)
}

// appendRowKey appends a type-tagged encoding of the element at row to buf.
// Returns ok=false when the element is null: null keys never participate in
// join matching.
func appendRowKey(buf []byte, arr arrow.Array, row int) ([]byte, bool) {
	v := arrayValue(arr, row)
	if v == nil {
		return buf, false
	}
	switch x := v.(type) {
	case int64:
		buf = append(buf, 'i')
		buf = binary.BigEndian.AppendUint64(buf, uint64(x))
	case uint64:
		buf = append(buf, 'u')
		buf = binary.BigEndian.AppendUint64(buf, x)
	case float64:
		buf = append(buf, 'f')
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(x))
	case string:
		buf = append(buf, 's')
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(x)))
		buf = append(buf, x...)
	case bool:
		if x {
			buf = append(buf, 'b', 1)
		} else {
			buf = append(buf, 'b', 0)
		}
	case time.Time:
		buf = append(buf, 't')
		buf = binary.BigEndian.AppendUint64(buf, uint64(x.UnixNano()))
	default:
		panic(fmt.Sprintf("frame: unsupported key value type %T", v))
	}
	return buf, true
}
