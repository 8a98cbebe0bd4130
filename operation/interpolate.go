package operation

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/weakform/field"
	"github.com/notargets/weakform/geometry"
	"github.com/notargets/weakform/multiharmonic"
	"github.com/notargets/weakform/parameter"
	"github.com/notargets/weakform/selector"
	"github.com/notargets/weakform/types"
	"github.com/notargets/weakform/utils"
)

// Deformation displaces the mesh by the value of one operation per direction
// x, y and z. Missing directions are not displaced. The displacement must be
// constant in time.
type Deformation []Operation

func (d Deformation) key() string {
	if len(d) == 0 {
		return ""
	}
	keys := make([]string, len(d))
	for i, op := range d {
		keys[i] = strconv.Itoa(int(op.id))
	}
	return strings.Join(keys, ",")
}

func countPoints(refCoords []float64) (np int, err error) {
	return geometry.CountPoints(refCoords)
}

func hashCoordinates(refCoords []float64) uint64 {
	var (
		d   = xxhash.New()
		buf [8]byte
	)
	for _, x := range refCoords {
		b := math.Float64bits(x)
		for i := range buf {
			buf[i] = byte(b >> (8 * i))
		}
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

// evalContext is the state of one interpolation call on one batch. Geometry
// is computed on first use and shared by all nodes of the call.
type evalContext struct {
	s         *selector.ElementSelector
	refCoords []float64
	ne, np    int
	deform    Deformation
	coordsKey uint64
	deformKey string
	N         utils.Matrix // shape functions, np x nv
	V         *[3]utils.Matrix
	X         *[3]utils.Matrix
}

func newEvalContext(a *Arena, s *selector.ElementSelector, refCoords []float64, deform Deformation) (c *evalContext, err error) {
	var np int
	if np, err = countPoints(refCoords); err != nil {
		return
	}
	for _, op := range deform {
		if op.arena != a {
			panic("the deformation must belong to the arena of the operation")
		}
	}
	if len(deform) > 3 {
		err = fmt.Errorf("a deformation has at most 3 directions, have %d: %w", len(deform), utils.ErrDimensionMismatch)
		return
	}
	c = &evalContext{
		s:         s,
		refCoords: refCoords,
		ne:        s.CountElements(),
		np:        np,
		deform:    deform,
		coordsKey: hashCoordinates(refCoords),
		deformKey: deform.key(),
	}
	if c.N, err = geometry.ShapeFunctions(s.ElementType(), refCoords); err != nil {
		return
	}
	return
}

func (c *evalContext) key(id NodeID) cacheKey {
	return cacheKey{
		node:   id,
		region: c.s.Region(),
		batch:  c.s.BatchID(),
		coords: c.coordsKey,
		deform: c.deformKey,
	}
}

// vertices returns the (elements x vertices) coordinates of the batch, with
// the deformation evaluated at the element vertices added.
func (c *evalContext) vertices(a *Arena) (V [3]utils.Matrix, err error) {
	if c.V != nil {
		return *c.V, nil
	}
	var (
		disp [3]utils.Matrix
		et   = c.s.ElementType()
	)
	if len(c.deform) > 0 {
		var vc *evalContext
		if vc, err = newEvalContext(a, c.s, geometry.ReferenceVertices(et), nil); err != nil {
			return
		}
		for d, op := range c.deform {
			var H multiharmonic.Harmonics
			if H, err = a.eval(op.id, vc); err != nil {
				err = fmt.Errorf("mesh deformation in direction %s: %w", types.Direction(d), err)
				return
			}
			if H.IsZero() {
				continue
			}
			if !H.IsHarmonicOne() {
				err = fmt.Errorf("mesh deformation in direction %s has harmonics %v: %w",
					types.Direction(d), H.Numbers(), utils.ErrUnevaluable)
				return
			}
			disp[d] = H.Get(1)
		}
	}
	if V, err = c.s.Mesh().VertexCoordinates(c.s.Region(), c.s.Elements(), disp); err != nil {
		return
	}
	c.V = &V
	return
}

// coordinates returns the physical (elements x points) x, y and z.
func (c *evalContext) coordinates(a *Arena) (X [3]utils.Matrix, err error) {
	if c.X != nil {
		return *c.X, nil
	}
	var V [3]utils.Matrix
	if V, err = c.vertices(a); err != nil {
		return
	}
	if X, err = geometry.PhysicalCoordinates(c.s.ElementType(), V, c.refCoords); err != nil {
		return
	}
	c.X = &X
	return
}

func (c *evalContext) zero() multiharmonic.Harmonics {
	return multiharmonic.NewHarmonics(0)
}

func unevaluable(err error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w: %w", fmt.Sprintf(format, args...), utils.ErrUnevaluable, err)
}

func (a *Arena) eval(id NodeID, c *evalContext) (H multiharmonic.Harmonics, err error) {
	var (
		n = a.node(id)
	)
	if n.reuse {
		key := c.key(id)
		var ok bool
		if H, ok = a.cache.get(key); ok {
			cacheHits.Inc()
			return
		}
		cacheMisses.Inc()
		defer func() {
			if err == nil {
				a.cache.put(key, H.SetReadOnly(fmt.Sprintf("cached node %d", id)))
			}
		}()
	}
	evaluations.WithLabelValues(n.kind.String()).Inc()
	switch n.kind {
	case KindConstant:
		H = multiharmonic.Constant(c.ne, c.np, n.value)
	case KindParameter:
		H, err = c.parameter(a, n.param, n.row, n.col)
	case KindField:
		H, err = c.field(n.field, n.row)
	case KindDerivative:
		if n.dir == types.DirT {
			H, err = a.timeDerivative(n.children[0], c)
		} else {
			H, err = a.spatialDerivative(n.children[0], n.dir, c)
		}
	case KindSum:
		H = c.zero()
		for _, child := range n.children {
			var C multiharmonic.Harmonics
			if C, err = a.eval(child, c); err != nil {
				return
			}
			if H, err = multiharmonic.Add(H, C); err != nil {
				return
			}
		}
	case KindProduct:
		for i, child := range n.children {
			var C multiharmonic.Harmonics
			if C, err = a.eval(child, c); err != nil {
				return
			}
			if i == 0 {
				H = C
				if len(n.children) == 1 {
					// A lone factor must not hand out the child's cached value
					H = C.Copy()
				}
				continue
			}
			if H, err = multiharmonic.Multiply(H, C); err != nil {
				return
			}
		}
	case KindFunction:
		H, err = a.function(n, c)
	case KindHarmonic:
		var C multiharmonic.Harmonics
		if C, err = a.eval(n.children[0], c); err != nil {
			return
		}
		H = c.zero()
		if C.Has(n.harmonic) {
			H.Set(1, C.Get(n.harmonic))
		}
	case KindDof, KindTf:
		err = fmt.Errorf("%s(%s) only has a meaning inside an integral: %w",
			n.kind, Operation{a, n.children[0]}, utils.ErrUnevaluable)
	default:
		panic(fmt.Errorf("unknown operation kind %d", n.kind))
	}
	return
}

func missingParameter(p *parameter.RawParameter, region types.DisjointRegion) error {
	return unevaluable(fmt.Errorf("parameter %q is not defined on region %d: %w",
		p.Name, region, utils.ErrMissingCoefficient), "parameter %q", p.Name)
}

func (c *evalContext) parameter(a *Arena, p *parameter.RawParameter, row, col int) (H multiharmonic.Harmonics, err error) {
	var (
		region = c.s.Region()
		harms  = p.Harmonics(region)
	)
	if len(harms) == 0 {
		err = missingParameter(p, region)
		return
	}
	H = multiharmonic.NewHarmonics(harms[len(harms)-1])
	coords := func() ([3]utils.Matrix, error) { return c.coordinates(a) }
	for _, h := range harms {
		var M utils.Matrix
		if M, err = p.Evaluate(region, h, row, col, c.ne, c.np, coords); err != nil {
			err = unevaluable(err, "parameter %q", p.Name)
			return
		}
		H.Set(h, M)
	}
	return
}

// elementValues gathers the (elements x vertices) nodal values of one field
// component and harmonic on the batch.
func (c *evalContext) elementValues(f *field.Field, comp, h int) (E utils.Matrix, err error) {
	var (
		NV    utils.Matrix
		eb    *geometry.ElementBlock
		mesh  = c.s.Mesh()
		elems = c.s.Elements().Values()
	)
	if NV, err = f.NodalValues(h); err != nil {
		err = unevaluable(err, "field %q", f.Name)
		return
	}
	if nr, _ := NV.Dims(); nr != mesh.CountNodes() {
		err = fmt.Errorf("field %q has values on %d nodes, the mesh has %d: %w",
			f.Name, nr, mesh.CountNodes(), utils.ErrDimensionMismatch)
		return
	}
	if eb, err = mesh.Block(c.s.Region()); err != nil {
		return
	}
	nv := eb.Type.CountVertices()
	E = utils.NewMatrix(len(elems), nv)
	data := E.Data()
	for i, k := range elems {
		for v, node := range eb.Connectivity.Row(k) {
			data[i*nv+v] = NV.At(node, comp)
		}
	}
	return
}

func (c *evalContext) field(f *field.Field, comp int) (H multiharmonic.Harmonics, err error) {
	H = c.zero()
	for _, h := range f.Harmonics() {
		var E utils.Matrix
		if E, err = c.elementValues(f, comp, h); err != nil {
			return
		}
		R := utils.NewMatrix(c.ne, c.np)
		if c.ne*c.np != 0 {
			R.M.Mul(E.M, c.N.M.T())
		}
		H.Set(h, R)
	}
	return
}

// fieldDerivative is the derivative of a linear field, constant on each
// element: du/dx_i = sum_v u_v sum_d dN_v/dki_d Jinv(d, i).
func (c *evalContext) fieldDerivative(a *Arena, f *field.Field, comp int, dir types.Direction) (H multiharmonic.Harmonics, err error) {
	var (
		mesh = c.s.Mesh()
		et   = c.s.ElementType()
		i    = int(dir)
		V    [3]utils.Matrix
		Jinv []*mat.Dense
	)
	H = c.zero()
	if i >= mesh.Dim {
		return
	}
	if V, err = c.vertices(a); err != nil {
		return
	}
	if Jinv, err = geometry.InverseJacobians(et, mesh.Dim, V); err != nil {
		err = unevaluable(err, "d%s(%s)", dir, f.Name)
		return
	}
	var (
		dN = geometry.ShapeGradients(et)
		nv = et.CountVertices()
		// dNdx[k*nv+v] is dN_v/dx_i on element k
		dNdx = make([]float64, c.ne*nv)
	)
	for k := 0; k < c.ne; k++ {
		for v := 0; v < nv; v++ {
			var g float64
			for d := 0; d < mesh.Dim; d++ {
				g += dN.At(v, d) * Jinv[k].At(d, i)
			}
			dNdx[k*nv+v] = g
		}
	}
	for _, h := range f.Harmonics() {
		var E utils.Matrix
		if E, err = c.elementValues(f, comp, h); err != nil {
			return
		}
		R := utils.NewMatrix(c.ne, c.np)
		for k := 0; k < c.ne; k++ {
			var g float64
			for v := 0; v < nv; v++ {
				g += E.At(k, v) * dNdx[k*nv+v]
			}
			for p := 0; p < c.np; p++ {
				R.Set(k, p, g)
			}
		}
		H.Set(h, R)
	}
	return
}

func (a *Arena) omega(H multiharmonic.Harmonics) (w float64, err error) {
	if H.Max() > 1 && a.Frequency <= 0 {
		err = fmt.Errorf("time derivative of harmonics %v without a fundamental frequency: %w",
			H.Numbers(), utils.ErrUnevaluable)
		return
	}
	return 2 * math.Pi * a.Frequency, nil
}

func (a *Arena) timeDerivative(child NodeID, c *evalContext) (H multiharmonic.Harmonics, err error) {
	var (
		C multiharmonic.Harmonics
		w float64
	)
	if C, err = a.eval(child, c); err != nil {
		return
	}
	if w, err = a.omega(C); err != nil {
		return
	}
	return multiharmonic.TimeDerivative(C, w), nil
}

// spatialDerivative differentiates the subtree rooted at id. Linear fields
// have a constant gradient per element so that their second derivatives
// vanish, sums and products follow the usual rules.
func (a *Arena) spatialDerivative(id NodeID, dir types.Direction, c *evalContext) (H multiharmonic.Harmonics, err error) {
	var (
		n = a.node(id)
	)
	switch n.kind {
	case KindConstant:
		H = c.zero()
	case KindParameter:
		region := c.s.Region()
		harms := n.param.Harmonics(region)
		if len(harms) == 0 {
			err = missingParameter(n.param, region)
			return
		}
		for _, h := range harms {
			if isConst, _ := n.param.IsConstant(region, h); !isConst {
				err = fmt.Errorf("d%s of space varying parameter %q: %w", dir, n.param.Name, utils.ErrUnevaluable)
				return
			}
		}
		H = c.zero()
	case KindField:
		H, err = c.fieldDerivative(a, n.field, n.row, dir)
	case KindSum:
		H = c.zero()
		for _, child := range n.children {
			var D multiharmonic.Harmonics
			if D, err = a.spatialDerivative(child, dir, c); err != nil {
				return
			}
			if H, err = multiharmonic.Add(H, D); err != nil {
				return
			}
		}
	case KindProduct:
		H, err = a.productRule(n.children, dir, c)
	case KindHarmonic:
		var D multiharmonic.Harmonics
		if D, err = a.spatialDerivative(n.children[0], dir, c); err != nil {
			return
		}
		H = c.zero()
		if D.Has(n.harmonic) {
			H.Set(1, D.Get(n.harmonic))
		}
	case KindDerivative:
		inner := a.node(n.children[0])
		switch {
		case n.dir == types.DirT:
			var D multiharmonic.Harmonics
			if D, err = a.spatialDerivative(n.children[0], dir, c); err != nil {
				return
			}
			var w float64
			if w, err = a.omega(D); err != nil {
				return
			}
			H = multiharmonic.TimeDerivative(D, w)
		case inner.kind == KindField || inner.kind == KindConstant:
			H = c.zero()
		default:
			err = fmt.Errorf("second derivative of %s: %w", Operation{a, n.children[0]}, utils.ErrUnevaluable)
		}
	default:
		err = fmt.Errorf("d%s of %s: %w", dir, Operation{a, id}, utils.ErrUnevaluable)
	}
	return
}

// productRule: d(f1*f2*...) = df1*f2*... + f1*df2*... + ...
func (a *Arena) productRule(children []NodeID, dir types.Direction, c *evalContext) (H multiharmonic.Harmonics, err error) {
	var (
		values = make([]multiharmonic.Harmonics, len(children))
	)
	for i, child := range children {
		if values[i], err = a.eval(child, c); err != nil {
			return
		}
	}
	H = c.zero()
	for i, child := range children {
		var term multiharmonic.Harmonics
		if term, err = a.spatialDerivative(child, dir, c); err != nil {
			return
		}
		for j := range children {
			if j == i || term.IsZero() {
				continue
			}
			if term, err = multiharmonic.Multiply(term, values[j]); err != nil {
				return
			}
		}
		if H, err = multiharmonic.Add(H, term); err != nil {
			return
		}
	}
	return
}

func scalarFunction(fn Function, p float64) func(float64) float64 {
	switch fn {
	case FuncSqrt:
		return math.Sqrt
	case FuncAbs:
		return math.Abs
	case FuncSin:
		return math.Sin
	case FuncCos:
		return math.Cos
	case FuncExp:
		return math.Exp
	case FuncLog:
		return math.Log
	case FuncInverse:
		return func(x float64) float64 { return 1. / x }
	case FuncPow:
		if utils.IsInteger(p) {
			return func(x float64) float64 { return utils.POW(x, int(p)) }
		}
		return func(x float64) float64 { return math.Pow(x, p) }
	}
	panic(fmt.Errorf("unknown function %d", fn))
}

func (a *Arena) function(n node, c *evalContext) (H multiharmonic.Harmonics, err error) {
	var (
		C multiharmonic.Harmonics
	)
	if C, err = a.eval(n.children[0], c); err != nil {
		return
	}
	maxHarmonic := a.MaxHarmonic
	if maxHarmonic == 0 {
		maxHarmonic = C.Max()
	}
	H, err = multiharmonic.Nonlinear(C, scalarFunction(n.fn, n.value), a.FFTTimeEvals, maxHarmonic, c.ne, c.np)
	if err != nil {
		err = fmt.Errorf("%s: %w", Operation{a, n.children[0]}, err)
		return
	}
	for _, h := range H.Numbers() {
		if utils.IsNan(H[h]) {
			a.logger.Warn("function out of its domain", slog.String("function", n.fn.String()),
				slog.String("argument", Operation{a, n.children[0]}.String()), slog.Int("harmonic", h))
			break
		}
	}
	return
}
