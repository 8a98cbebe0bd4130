package operation

import (
	"github.com/notargets/weakform/types"
)

// Simplify returns an equivalent expression specialized to the given regions:
// parameters constant on all of them become constants, constants are folded,
// nested sums and products are flattened. The receiver is never modified and
// unchanged subtrees are shared with it.
func (op Operation) Simplify(regions []types.DisjointRegion) Operation {
	var (
		a = op.arena
	)
	return Operation{arena: a, id: a.simplify(op.id, types.SortRegions(regions))}
}

func (a *Arena) simplify(id NodeID, regions []types.DisjointRegion) NodeID {
	var (
		n = a.node(id)
	)
	switch n.kind {
	case KindConstant, KindField, KindDof, KindTf:
		return id
	case KindParameter:
		if val, ok := n.param.ConstantValue(regions, n.row, n.col); ok {
			return a.constantLike(n, val)
		}
		return id
	case KindSum:
		return a.fold(id, n, regions, 0, func(x, y float64) float64 { return x + y })
	case KindProduct:
		return a.fold(id, n, regions, 1, func(x, y float64) float64 { return x * y })
	case KindFunction:
		child := a.simplify(n.children[0], regions)
		if val, ok := a.constantOf(child); ok {
			return a.constantLike(n, scalarFunction(n.fn, n.value)(val))
		}
		return a.withChildren(id, n, []NodeID{child})
	case KindDerivative:
		child := a.simplify(n.children[0], regions)
		if _, ok := a.constantOf(child); ok {
			return a.constantLike(n, 0)
		}
		return a.withChildren(id, n, []NodeID{child})
	case KindHarmonic:
		child := a.simplify(n.children[0], regions)
		if val, ok := a.constantOf(child); ok {
			if n.harmonic != 1 {
				val = 0
			}
			return a.constantLike(n, val)
		}
		return a.withChildren(id, n, []NodeID{child})
	}
	return id
}

func (a *Arena) constantOf(id NodeID) (val float64, ok bool) {
	n := a.node(id)
	return n.value, n.kind == KindConstant
}

// constantLike creates a constant keeping the component address and reuse
// flag of the node it replaces.
func (a *Arena) constantLike(n node, val float64) NodeID {
	return a.add(node{kind: KindConstant, value: val, row: n.row, col: n.col, reuse: n.reuse}).id
}

// withChildren returns id itself when the children did not change.
func (a *Arena) withChildren(id NodeID, n node, children []NodeID) NodeID {
	if len(children) == len(n.children) {
		same := true
		for i := range children {
			if children[i] != n.children[i] {
				same = false
				break
			}
		}
		if same {
			return id
		}
	}
	c := n
	c.children = children
	return a.add(c).id
}

// flatten simplifies the children and inlines the ones of the same kind.
func (a *Arena) flatten(n node, regions []types.DisjointRegion) (children []NodeID) {
	for _, child := range n.children {
		s := a.simplify(child, regions)
		if sn := a.node(s); sn.kind == n.kind && !sn.reuse {
			children = append(children, sn.children...)
			continue
		}
		children = append(children, s)
	}
	return
}

// fold merges the constant children of a sum or a product into one constant
// placed first. A lone constant child is kept as is.
func (a *Arena) fold(id NodeID, n node, regions []types.DisjointRegion,
	neutral float64, combine func(x, y float64) float64) NodeID {
	var (
		acc       = neutral
		nconst    int
		lastConst NodeID
		children  []NodeID
	)
	for _, child := range a.flatten(n, regions) {
		if val, ok := a.constantOf(child); ok {
			acc = combine(acc, val)
			nconst++
			lastConst = child
			continue
		}
		children = append(children, child)
	}
	if len(children) == 0 || (n.kind == KindProduct && acc == 0) {
		return a.constantLike(n, acc)
	}
	if acc != neutral {
		c := lastConst
		if nconst > 1 {
			c = a.constantLike(node{}, acc)
		}
		children = append([]NodeID{c}, children...)
	}
	if len(children) == 1 {
		return children[0]
	}
	return a.withChildren(id, n, children)
}
