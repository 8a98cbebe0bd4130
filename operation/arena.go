package operation

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/notargets/weakform/field"
	"github.com/notargets/weakform/parameter"
	"github.com/notargets/weakform/types"
)

type Kind uint8

const (
	KindConstant Kind = iota
	KindParameter
	KindField
	KindDerivative
	KindSum
	KindProduct
	KindFunction
	KindHarmonic
	KindDof
	KindTf
)

func (k Kind) String() string {
	return [...]string{"constant", "parameter", "field", "derivative", "sum", "product",
		"function", "harmonic", "dof", "tf"}[k]
}

type Function uint8

const (
	FuncSqrt Function = iota
	FuncAbs
	FuncSin
	FuncCos
	FuncExp
	FuncLog
	FuncInverse
	FuncPow
)

func (f Function) String() string {
	return [...]string{"sqrt", "abs", "sin", "cos", "exp", "log", "inv", "pow"}[f]
}

// NodeID is the stable index of a node in its arena.
type NodeID int

type node struct {
	kind     Kind
	row, col int
	reuse    bool
	value    float64 // constant value or exponent of FuncPow
	param    *parameter.RawParameter
	field    *field.Field
	dir      types.Direction
	fn       Function
	harmonic int
	children []NodeID
}

/*
Arena owns every node of the expressions of a formulation. Nodes are never
modified once created, except for their reuse flag; simplify and copy append
new nodes and share the unchanged ones.
*/
type Arena struct {
	// Frequency is the fundamental frequency f0 of the harmonics, used by
	// time derivatives.
	Frequency float64
	// FFTTimeEvals is the number of time samples used to apply a nonlinear
	// function to a multiharmonic quantity, 0 forbids it.
	FFTTimeEvals int
	// MaxHarmonic truncates the result of nonlinear functions. With 0 the
	// highest harmonic of the argument is kept.
	MaxHarmonic int
	mu          sync.RWMutex
	nodes       []node
	cache       *Cache
	logger      *slog.Logger
}

func NewArena() (a *Arena) {
	return &Arena{
		cache:  NewCache(),
		logger: slog.Default().With(slog.String("component", "operation")),
	}
}

func (a *Arena) add(n node) Operation {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nodes = append(a.nodes, n)
	return Operation{arena: a, id: NodeID(len(a.nodes) - 1)}
}

func (a *Arena) node(id NodeID) node {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.nodes[id]
}

func (a *Arena) CountNodes() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.nodes)
}

// ResetCache drops every reused value. It is called at the start of each
// assembly pass and whenever a parameter or field value changes.
func (a *Arena) ResetCache() {
	a.logger.Debug("cache reset", slog.Int("entries", a.cache.Len()))
	a.cache.Reset()
}

// CacheLen is the number of reused values currently cached.
func (a *Arena) CacheLen() int { return a.cache.Len() }

func (a *Arena) Constant(val float64) Operation {
	return a.add(node{kind: KindConstant, value: val})
}

// Parameter references component (row, col) of a raw parameter.
func (a *Arena) Parameter(p *parameter.RawParameter, row, col int) Operation {
	if row < 0 || row >= p.CountRows() || col < 0 || col >= p.CountColumns() {
		panic(fmt.Errorf("parameter %q is %dx%d, no component (%d,%d)",
			p.Name, p.CountRows(), p.CountColumns(), row, col))
	}
	return a.add(node{kind: KindParameter, param: p, row: row, col: col})
}

// Field references one component of a field.
func (a *Arena) Field(f *field.Field, component int) Operation {
	if component < 0 || component >= f.Components {
		panic(fmt.Errorf("field %q has %d components, no component %d", f.Name, f.Components, component))
	}
	return a.add(node{kind: KindField, field: f, row: component})
}

func sameArena(ops []Operation) (a *Arena) {
	if len(ops) == 0 {
		panic("an operation needs at least one argument")
	}
	a = ops[0].arena
	for _, op := range ops[1:] {
		if op.arena != a {
			panic("operations from different arenas cannot be combined")
		}
	}
	return
}

func ids(ops []Operation) (children []NodeID) {
	children = make([]NodeID, len(ops))
	for i, op := range ops {
		children[i] = op.id
	}
	return
}

func Sum(ops ...Operation) Operation {
	a := sameArena(ops)
	return a.add(node{kind: KindSum, children: ids(ops)})
}

func Product(ops ...Operation) Operation {
	a := sameArena(ops)
	return a.add(node{kind: KindProduct, children: ids(ops)})
}

func Negate(op Operation) Operation {
	return Product(op.arena.Constant(-1), op)
}

func Subtract(x, y Operation) Operation {
	return Sum(x, Negate(y))
}

func Divide(x, y Operation) Operation {
	return Product(x, Inverse(y))
}

func apply(fn Function, op Operation, exponent float64) Operation {
	return op.arena.add(node{kind: KindFunction, fn: fn, value: exponent, children: []NodeID{op.id}})
}

func Sqrt(op Operation) Operation    { return apply(FuncSqrt, op, 0) }
func Abs(op Operation) Operation     { return apply(FuncAbs, op, 0) }
func Sin(op Operation) Operation     { return apply(FuncSin, op, 0) }
func Cos(op Operation) Operation     { return apply(FuncCos, op, 0) }
func Exp(op Operation) Operation     { return apply(FuncExp, op, 0) }
func Log(op Operation) Operation     { return apply(FuncLog, op, 0) }
func Inverse(op Operation) Operation { return apply(FuncInverse, op, 0) }

func Pow(op Operation, exponent float64) Operation { return apply(FuncPow, op, exponent) }

// Norm is the euclidean norm sqrt(op1^2 + op2^2 + ...).
func Norm(ops ...Operation) Operation {
	squares := make([]Operation, len(ops))
	for i, op := range ops {
		squares[i] = Product(op, op)
	}
	return Sqrt(Sum(squares...))
}

func derivative(dir types.Direction, op Operation) Operation {
	return op.arena.add(node{kind: KindDerivative, dir: dir, children: []NodeID{op.id}})
}

func Dx(op Operation) Operation   { return derivative(types.DirX, op) }
func Dy(op Operation) Operation   { return derivative(types.DirY, op) }
func Dz(op Operation) Operation   { return derivative(types.DirZ, op) }
func Dt(op Operation) Operation   { return derivative(types.DirT, op) }
func Dtdt(op Operation) Operation { return Dt(Dt(op)) }

// Harmonic extracts harmonic h of op as a constant in time quantity.
func Harmonic(op Operation, h int) Operation {
	if h < 1 {
		panic(fmt.Errorf("harmonic numbers start at 1, have %d", h))
	}
	return op.arena.add(node{kind: KindHarmonic, harmonic: h, children: []NodeID{op.id}})
}

func tag(kind Kind, op Operation) Operation {
	n := op.arena.node(op.id)
	if n.kind != KindField && !(n.kind == KindDerivative && op.arena.node(n.children[0]).kind == KindField) {
		panic(fmt.Errorf("%s can only wrap a field or a field derivative, have a %s", kind, n.kind))
	}
	return op.arena.add(node{kind: kind, row: n.row, children: []NodeID{op.id}})
}

// Dof marks a field as the unknown of a formulation term.
func Dof(op Operation) Operation { return tag(KindDof, op) }

// Tf marks a field as the test function of a formulation term.
func Tf(op Operation) Operation { return tag(KindTf, op) }
