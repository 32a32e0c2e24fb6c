package frame

import (
	"sort"

	"github.com/apache/arrow-go/v18/arrow"

	"framelake/domain"
)

// JoinKind selects the relational join flavour.
type JoinKind string

// Join kinds. Only right-outer joins are implemented; the other kinds are
// named so callers route through the same option surface.
const (
	JoinInner JoinKind = "inner"
	JoinLeft  JoinKind = "left"
	JoinRight JoinKind = "right"
	JoinFull  JoinKind = "full"
)

// OrderPolicy controls whether output row order mirrors an input side or is
// left unconstrained for the engine to choose.
type OrderPolicy string

// Order policies. OrderNone fixes only the multiset of output rows, not
// their sequence.
const (
	OrderNone      OrderPolicy = "none"
	OrderLeft      OrderPolicy = "left"
	OrderRight     OrderPolicy = "right"
	OrderLeftRight OrderPolicy = "left_right"
	OrderRightLeft OrderPolicy = "right_left"
)

// JoinOptions configures a join. Set either On, or both LeftOn and RightOn
// with equal lengths. Coalesce defaults to true for every kind except full.
type JoinOptions struct {
	On            []string
	LeftOn        []string
	RightOn       []string
	How           JoinKind
	Coalesce      *bool
	MaintainOrder OrderPolicy
}

func (o JoinOptions) resolveKeys() (leftKeys, rightKeys []string, err error) {
	switch {
	case len(o.On) > 0:
		if len(o.LeftOn) > 0 || len(o.RightOn) > 0 {
			return nil, nil, domain.ErrValidation("cannot set both 'on' and 'left_on'/'right_on'")
		}
		return o.On, o.On, nil
	case len(o.LeftOn) > 0 || len(o.RightOn) > 0:
		if len(o.LeftOn) != len(o.RightOn) {
			return nil, nil, domain.ErrValidation(
				"join key count mismatch: %d left keys, %d right keys", len(o.LeftOn), len(o.RightOn))
		}
		return o.LeftOn, o.RightOn, nil
	default:
		return nil, nil, domain.ErrValidation("join requires at least one key column")
	}
}

func (o JoinOptions) coalesce() bool {
	if o.Coalesce != nil {
		return *o.Coalesce
	}
	return o.How != JoinFull
}

func (o JoinOptions) order() (OrderPolicy, error) {
	switch o.MaintainOrder {
	case "":
		return OrderNone, nil
	case OrderNone, OrderLeft, OrderRight, OrderLeftRight, OrderRightLeft:
		return o.MaintainOrder, nil
	default:
		return "", domain.ErrValidation(
			"maintain_order must be one of {'none', 'left', 'right', 'left_right', 'right_left'}, got '%s'",
			o.MaintainOrder)
	}
}

// Join joins this frame (left side) with other (right side).
func (f *Frame) Join(other *Frame, opts JoinOptions) (*Frame, error) {
	leftKeys, rightKeys, err := opts.resolveKeys()
	if err != nil {
		return nil, err
	}
	order, err := opts.order()
	if err != nil {
		return nil, err
	}
	if opts.How != JoinRight {
		return nil, domain.ErrValidation("join kind '%s' is not implemented; only 'right' joins are supported", opts.How)
	}
	return rightJoin(f, other, leftKeys, rightKeys, opts.coalesce(), order)
}

// joinPair is one output row: a left row index (-1 when the right row is
// unmatched and the left side is null-padded) and a right row index.
type joinPair struct {
	l, r int
}

// rightJoin computes the right-outer join: one output row per (right row,
// matching left row) pair, with unmatched right rows padded by nulls on the
// left side. Null key values never match.
func rightJoin(left, right *Frame, leftKeys, rightKeys []string, coalesce bool, order OrderPolicy) (*Frame, error) {
	plan, err := reconcileRightJoin(left.Schema(), right.Schema(), leftKeys, rightKeys, coalesce)
	if err != nil {
		return nil, err
	}

	leftKeyCols := keyArrays(left, leftKeys)
	rightKeyCols := keyArrays(right, rightKeys)

	// Build phase: hash every left row on its composite key.
	table := make(map[string][]int, left.Height())
	var buf []byte
	for row := 0; row < left.Height(); row++ {
		key, ok := encodeKey(buf[:0], leftKeyCols, row)
		if !ok {
			continue
		}
		table[string(key)] = append(table[string(key)], row)
	}

	// Probe phase: every right row appears at least once.
	pairs := make([]joinPair, 0, right.Height())
	for row := 0; row < right.Height(); row++ {
		key, ok := encodeKey(buf[:0], rightKeyCols, row)
		if ok {
			if matches := table[string(key)]; len(matches) > 0 {
				for _, l := range matches {
					pairs = append(pairs, joinPair{l: l, r: row})
				}
				continue
			}
		}
		pairs = append(pairs, joinPair{l: -1, r: row})
	}

	orderPairs(pairs, order)

	leftIdx := make([]int, len(pairs))
	rightIdx := make([]int, len(pairs))
	for i, p := range pairs {
		leftIdx[i] = p.l
		rightIdx[i] = p.r
	}

	cols := make([]*Series, len(plan))
	for i, c := range plan {
		src, idxs := left, leftIdx
		if c.FromRight {
			src, idxs = right, rightIdx
		}
		cols[i] = &Series{name: c.Name, arr: takeArray(src.ColumnAt(c.Src).Array(), idxs)}
	}
	return NewFrame(cols...)
}

// orderPairs arranges output rows per the maintain_order policy. The probe
// loop emits pairs in right-major order with ties in left order, which
// already satisfies OrderRight and OrderRightLeft. OrderNone keeps that
// order too, without making it contractual.
func orderPairs(pairs []joinPair, order OrderPolicy) {
	switch order {
	case OrderLeft, OrderLeftRight:
		// Unmatched right rows (l == -1) sort last.
		sort.SliceStable(pairs, func(i, j int) bool {
			li, lj := pairs[i].l, pairs[j].l
			switch {
			case li == lj:
				return pairs[i].r < pairs[j].r
			case li == -1:
				return false
			case lj == -1:
				return true
			default:
				return li < lj
			}
		})
	}
}

func keyArrays(f *Frame, keys []string) []arrow.Array {
	arrs := make([]arrow.Array, len(keys))
	for i, k := range keys {
		col, _ := f.Column(k) // existence checked during reconciliation
		arrs[i] = col.Array()
	}
	return arrs
}

// encodeKey builds the composite key for a row; ok=false if any key value is
// null.
func encodeKey(buf []byte, cols []arrow.Array, row int) ([]byte, bool) {
	var ok bool
	for _, col := range cols {
		buf, ok = appendRowKey(buf, col, row)
		if !ok {
			return nil, false
		}
	}
	return buf, true
}
