package btree

import (
	"fmt"

	"github.com/swim-go/swim/item"
)

// InvariantViolation reports a malformed tree. It is always a defect.
type InvariantViolation struct {
	Msg string
}

func (e *InvariantViolation) Error() string {
	return "btree: " + e.Msg
}

func (e *InvariantViolation) Unwrap() error {
	return item.ErrInvariant
}

func violation(format string, args ...any) *InvariantViolation {
	return &InvariantViolation{Msg: fmt.Sprintf(format, args...)}
}

// Check verifies the structure of t: keys strictly increase, leaves share
// one depth, branch keys and sizes agree with their children, and every
// page respects the context's split and merge policy.
func (t Tree[K, V]) Check() error {
	if t.arena == nil || t.root == none {
		return nil
	}
	c := checker[K, V]{t: t, depth: -1}
	return c.check(t.root, 0, true)
}

type checker[K, V any] struct {
	t     Tree[K, V]
	depth int
	prev  K
	seen  bool
}

func (c *checker[K, V]) check(i int32, depth int, root bool) error {
	p := c.t.page(i)
	ctx := c.t.ctx
	if ctx.ShouldSplit(p.arity()) {
		return violation("page %d of arity %d should have split", i, p.arity())
	}
	if !root && ctx.ShouldMerge(p.arity()) {
		return violation("page %d of arity %d should have merged", i, p.arity())
	}
	if p.leaf() {
		if c.depth >= 0 && c.depth != depth {
			return violation("leaf %d at depth %d, others at %d", i, depth, c.depth)
		}
		c.depth = depth
		if len(p.keys) != len(p.vals) || len(p.keys) != p.size {
			return violation("leaf %d has %d keys, %d values, size %d", i, len(p.keys), len(p.vals), p.size)
		}
		for _, k := range p.keys {
			if c.seen && ctx.Compare(c.prev, k) >= 0 {
				return violation("keys out of order in leaf %d", i)
			}
			c.prev, c.seen = k, true
		}
		return nil
	}
	if len(p.keys) != len(p.kids) {
		return violation("branch %d has %d keys for %d children", i, len(p.keys), len(p.kids))
	}
	size := 0
	for j, kid := range p.kids {
		kp := c.t.page(kid)
		if kp.size == 0 {
			return violation("branch %d has an empty child", i)
		}
		if ctx.Compare(p.keys[j], kp.keys[0]) != 0 {
			return violation("branch %d key %d is not the least key of its child", i, j)
		}
		if err := c.check(kid, depth+1, false); err != nil {
			return err
		}
		size += kp.size
	}
	if size != p.size {
		return violation("branch %d has size %d, children hold %d", i, p.size, size)
	}
	return nil
}
