package frame

import "framelake/domain"

// planNode is a node in a lazy query plan. Schema resolution never executes
// the plan, so CollectSchema on a join matches the eager output exactly.
type planNode interface {
	schema() (*Schema, error)
	collect() (*Frame, error)
}

// LazyFrame defers computation: operations build a plan that only runs when
// Collect is called.
type LazyFrame struct {
	plan planNode
}

// Lazy wraps the frame in a lazy plan.
func (f *Frame) Lazy() *LazyFrame {
	return &LazyFrame{plan: &scanNode{f: f}}
}

// Join adds a join node to the plan.
func (lf *LazyFrame) Join(other *LazyFrame, opts JoinOptions) *LazyFrame {
	return &LazyFrame{plan: &joinNode{left: lf.plan, right: other.plan, opts: opts}}
}

// CollectSchema resolves the plan's output schema without executing it.
func (lf *LazyFrame) CollectSchema() (*Schema, error) {
	return lf.plan.schema()
}

// Collect executes the plan and returns the resulting frame.
func (lf *LazyFrame) Collect() (*Frame, error) {
	return lf.plan.collect()
}

type scanNode struct {
	f *Frame
}

func (n *scanNode) schema() (*Schema, error) { return n.f.Schema(), nil }
func (n *scanNode) collect() (*Frame, error) { return n.f, nil }

type joinNode struct {
	left, right planNode
	opts        JoinOptions
}

func (n *joinNode) schema() (*Schema, error) {
	if n.opts.How != JoinRight {
		return nil, domain.ErrValidation("join kind '%s' is not implemented; only 'right' joins are supported", n.opts.How)
	}
	leftKeys, rightKeys, err := n.opts.resolveKeys()
	if err != nil {
		return nil, err
	}
	ls, err := n.left.schema()
	if err != nil {
		return nil, err
	}
	rs, err := n.right.schema()
	if err != nil {
		return nil, err
	}
	plan, err := reconcileRightJoin(ls, rs, leftKeys, rightKeys, n.opts.coalesce())
	if err != nil {
		return nil, err
	}
	fields := make([]Field, len(plan))
	for i, c := range plan {
		fields[i] = Field{Name: c.Name, Type: c.Type}
	}
	return NewSchema(fields...), nil
}

func (n *joinNode) collect() (*Frame, error) {
	left, err := n.left.collect()
	if err != nil {
		return nil, err
	}
	right, err := n.right.collect()
	if err != nil {
		return nil, err
	}
	return left.Join(right, n.opts)
}
