package frame

import (
	"slices"

	"github.com/apache/arrow-go/v18/arrow"

	"framelake/domain"
)

// suffixRight is appended to a colliding column name from the side whose
// names lose the collision. A single collision per name pair is assumed;
// repeated suffixing is not performed.
const suffixRight = "_right"

// reconciledColumn describes one output slot of a right join: which side it
// is gathered from, the source column index, and its final name and dtype.
type reconciledColumn struct {
	FromRight bool
	Src       int
	Name      string
	Type      arrow.DataType
	IsKey     bool
}

// reconcileRightJoin computes the output column plan for a right join.
//
// With coalescing, each join key collapses into a single column carrying the
// right frame's name and values. Output order is: left columns minus the left
// keys (in left order), then every right column (in right order), with right
// non-key names that collide against a kept left name suffixed "_right".
//
// Without coalescing, every column from both sides is retained: all left
// columns first, then all right columns, suffixing any right name (keys
// included) that collides with a left name.
func reconcileRightJoin(left, right *Schema, leftKeys, rightKeys []string, coalesce bool) ([]reconciledColumn, error) {
	if err := validateKeys(left, leftKeys, right, rightKeys); err != nil {
		return nil, err
	}

	var out []reconciledColumn
	kept := make(map[string]bool)

	for i := 0; i < left.Len(); i++ {
		f := left.Field(i)
		if coalesce && slices.Contains(leftKeys, f.Name) {
			continue
		}
		out = append(out, reconciledColumn{Src: i, Name: f.Name, Type: f.Type})
		kept[f.Name] = true
	}

	for i := 0; i < right.Len(); i++ {
		f := right.Field(i)
		isKey := slices.Contains(rightKeys, f.Name)
		name := f.Name
		if kept[name] && !(coalesce && isKey) {
			name += suffixRight
		}
		out = append(out, reconciledColumn{FromRight: true, Src: i, Name: name, Type: f.Type, IsKey: isKey})
		kept[name] = true
	}

	seen := make(map[string]bool, len(out))
	for _, c := range out {
		if seen[c.Name] {
			return nil, domain.ErrConflict("column %q appears more than once in the join output", c.Name)
		}
		seen[c.Name] = true
	}
	return out, nil
}

// validateKeys checks existence and comparability of every key pair.
func validateKeys(left *Schema, leftKeys []string, right *Schema, rightKeys []string) error {
	if len(leftKeys) == 0 {
		return domain.ErrValidation("join requires at least one key column")
	}
	if len(leftKeys) != len(rightKeys) {
		return domain.ErrValidation(
			"join key count mismatch: %d left keys, %d right keys", len(leftKeys), len(rightKeys))
	}
	for i := range leftKeys {
		lt, ok := left.Get(leftKeys[i])
		if !ok {
			return domain.ErrNotFound("join key %q not found in left frame", leftKeys[i])
		}
		rt, ok := right.Get(rightKeys[i])
		if !ok {
			return domain.ErrNotFound("join key %q not found in right frame", rightKeys[i])
		}
		if keyClass(lt) == classUnsupported {
			return domain.ErrValidation("join key %q has non-comparable dtype %s", leftKeys[i], lt)
		}
		if keyClass(lt) != keyClass(rt) {
			return domain.ErrValidation(
				"join keys %q and %q are not comparable: %s vs %s", leftKeys[i], rightKeys[i], lt, rt)
		}
	}
	return nil
}

type dtypeClass int

const (
	classUnsupported dtypeClass = iota
	classSignedInt
	classUnsignedInt
	classFloat
	classString
	classBool
	classTemporal
)

func keyClass(dt arrow.DataType) dtypeClass {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64:
		return classSignedInt
	case arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return classUnsignedInt
	case arrow.FLOAT32, arrow.FLOAT64:
		return classFloat
	case arrow.STRING:
		return classString
	case arrow.BOOL:
		return classBool
	case arrow.DATE32, arrow.TIMESTAMP:
		return classTemporal
	default:
		return classUnsupported
	}
}
