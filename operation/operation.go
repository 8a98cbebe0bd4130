package operation

import (
	"fmt"
	"strings"

	"github.com/notargets/weakform/multiharmonic"
	"github.com/notargets/weakform/parameter"
	"github.com/notargets/weakform/selector"
	"github.com/notargets/weakform/types"
	"github.com/notargets/weakform/utils"
)

// Operation is a handle on a node of an arena. It is a small value, copying
// it does not copy the expression, use Copy for that.
type Operation struct {
	arena *Arena
	id    NodeID
}

func (op Operation) ID() NodeID     { return op.id }
func (op Operation) Arena() *Arena  { return op.arena }
func (op Operation) Kind() Kind     { return op.arena.node(op.id).kind }
func (op Operation) Row() int       { return op.arena.node(op.id).row }
func (op Operation) Column() int    { return op.arena.node(op.id).col }
func (op Operation) IsReused() bool { return op.arena.node(op.id).reuse }
func (op Operation) IsZero() bool   { return op.isConstant(0) }
func (op Operation) IsValid() bool  { return op.arena != nil }
func (op Operation) CountArgs() int { return len(op.arena.node(op.id).children) }
func (op Operation) Arg(i int) Operation {
	return Operation{arena: op.arena, id: op.arena.node(op.id).children[i]}
}

func (op Operation) isConstant(val float64) bool {
	n := op.arena.node(op.id)
	return n.kind == KindConstant && n.value == val
}

// ConstantValue returns the value of a constant node.
func (op Operation) ConstantValue() (val float64, ok bool) {
	n := op.arena.node(op.id)
	return n.value, n.kind == KindConstant
}

// GetParameterPointer returns the raw parameter of a parameter node, nil for
// any other node.
func (op Operation) GetParameterPointer() *parameter.RawParameter {
	return op.arena.node(op.id).param
}

// ReuseIt turns caching of the node's values on or off. Cached values live
// until Arena.ResetCache.
func (op Operation) ReuseIt(reuse bool) Operation {
	op.arena.mu.Lock()
	op.arena.nodes[op.id].reuse = reuse
	op.arena.mu.Unlock()
	return op
}

// IsHarmonicOne reports whether, on the given regions, the value is constant
// in time.
func (op Operation) IsHarmonicOne(regions []types.DisjointRegion) bool {
	n := op.arena.node(op.id)
	switch n.kind {
	case KindConstant:
		return true
	case KindParameter:
		return n.param.IsHarmonicOne(regions)
	case KindField:
		return n.field.IsHarmonicOne()
	case KindHarmonic:
		return true
	default:
		for i := range n.children {
			if !op.Arg(i).IsHarmonicOne(regions) {
				return false
			}
		}
		return true
	}
}

// IsValueOrientationDependent reports whether the value depends on the local
// element orientation, which calls for sign corrections across faces.
func (op Operation) IsValueOrientationDependent(regions []types.DisjointRegion) bool {
	n := op.arena.node(op.id)
	switch n.kind {
	case KindConstant, KindParameter:
		return false
	case KindField:
		return n.field.OrientationDependent
	default:
		for i := range n.children {
			if op.Arg(i).IsValueOrientationDependent(regions) {
				return true
			}
		}
		return false
	}
}

// Copy duplicates the whole subtree, keeping reuse flags and component
// addresses. Parameters and fields are shared.
func (op Operation) Copy() Operation {
	n := op.arena.node(op.id)
	c := n
	c.children = make([]NodeID, len(n.children))
	for i := range n.children {
		c.children[i] = op.Arg(i).Copy().id
	}
	return op.arena.add(c)
}

// Interpolate evaluates all harmonics of the node on the batch the selector
// is positioned on, or only harmonic s.Harmonic() when it is set. Every
// harmonic is an (elements x points) matrix.
func (op Operation) Interpolate(s *selector.ElementSelector, refCoords []float64, deform Deformation) (H multiharmonic.Harmonics, err error) {
	var c *evalContext
	if c, err = newEvalContext(op.arena, s, refCoords, deform); err != nil {
		return
	}
	if H, err = op.arena.eval(op.id, c); err != nil {
		return
	}
	if h := s.Harmonic(); h > 0 {
		R := multiharmonic.NewHarmonics(h)
		if H.Has(h) {
			R[h] = H[h]
		}
		H = R
	}
	return
}

// MultiharmonicInterpolate returns the (numTimeEvals x elements*points) time
// samples of the value over one period.
func (op Operation) MultiharmonicInterpolate(numTimeEvals int, s *selector.ElementSelector, refCoords []float64, deform Deformation) (S utils.Matrix, err error) {
	var (
		H  multiharmonic.Harmonics
		np int
	)
	if np, err = countPoints(refCoords); err != nil {
		return
	}
	if H, err = op.Interpolate(s, refCoords, deform); err != nil {
		return
	}
	return multiharmonic.TimeDomain(H, numTimeEvals, s.CountElements(), np)
}

// InterpolateBatch makes an undeformed Operation a multiharmonic.Interpolator.
func (op Operation) InterpolateBatch(s *selector.ElementSelector, refCoords []float64) (multiharmonic.Harmonics, error) {
	return op.Interpolate(s, refCoords, nil)
}

type deformed struct {
	op     Operation
	deform Deformation
}

func (d deformed) InterpolateBatch(s *selector.ElementSelector, refCoords []float64) (multiharmonic.Harmonics, error) {
	return d.op.Interpolate(s, refCoords, d.deform)
}

// On returns an Interpolator evaluating op on the deformed mesh.
func (op Operation) On(deform Deformation) multiharmonic.Interpolator {
	return deformed{op: op, deform: deform}
}

func (op Operation) String() string {
	var (
		n = op.arena.node(op.id)
	)
	args := func(sep string) string {
		s := make([]string, len(n.children))
		for i := range n.children {
			s[i] = op.Arg(i).String()
		}
		return strings.Join(s, sep)
	}
	switch n.kind {
	case KindConstant:
		return fmt.Sprintf("%g", n.value)
	case KindParameter:
		if n.param.CountRows()*n.param.CountColumns() == 1 {
			return n.param.Name
		}
		return fmt.Sprintf("%s(%d,%d)", n.param.Name, n.row, n.col)
	case KindField:
		if n.field.Components == 1 {
			return n.field.Name
		}
		return fmt.Sprintf("%s%d", n.field.Name, n.row)
	case KindDerivative:
		return fmt.Sprintf("d%s(%s)", n.dir, args(""))
	case KindSum:
		return "(" + args(" + ") + ")"
	case KindProduct:
		return args("*")
	case KindFunction:
		if n.fn == FuncPow {
			return fmt.Sprintf("pow(%s,%g)", args(""), n.value)
		}
		return fmt.Sprintf("%s(%s)", n.fn, args(""))
	case KindHarmonic:
		return fmt.Sprintf("%s.harmonic(%d)", args(""), n.harmonic)
	case KindDof, KindTf:
		return fmt.Sprintf("%s(%s)", n.kind, args(""))
	}
	return "?"
}
