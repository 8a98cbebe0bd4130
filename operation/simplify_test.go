package operation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/weakform/parameter"
	"github.com/notargets/weakform/types"
)

func TestSimplifyFoldsConstants(t *testing.T) {
	fx := newFixture(t)
	a := fx.arena
	var (
		E   = a.Parameter(fx.E, 0, 0)
		rho = a.Parameter(fx.rho, 0, 0)
		u   = a.Field(fx.u, 0)
		nu  = parameter.NewRawParameter("nu", 1, 1)
	)
	require.NoError(t, nu.SetConstant(7, 1, 0.22))
	op := Sum(
		Product(E, a.Constant(2)),
		Product(a.Constant(3), rho, Product(u, a.Parameter(nu, 0, 0))),
		Sum(a.Constant(1), a.Constant(-1)),
		Dx(rho),
		Sqrt(Product(a.Constant(4), a.Constant(4))),
	)
	before := op.String()
	s := op.Simplify(fx.regions)
	assert.Equal(t, before, op.String())
	assert.Equal(t, KindSum, s.Kind())
	assert.Equal(t, 2, s.CountArgs())
	c, ok := s.Arg(0).ConstantValue()
	require.True(t, ok)
	assert.Equal(t, 320e9+4, c)
	p := s.Arg(1)
	assert.Equal(t, KindProduct, p.Kind())
	assert.Equal(t, 2, p.CountArgs())
	c, ok = p.Arg(0).ConstantValue()
	require.True(t, ok)
	assert.InDelta(t, 3*2320*0.22, c, 1e-9)
	assert.Equal(t, u.ID(), p.Arg(1).ID())

	// Same values, within floating point tolerance
	assertHarmonics(t, fx.interpolate(t, op, nil), fx.interpolate(t, s, nil), 1e-3)
}

func TestSimplifyKeepsRegionDependentParameters(t *testing.T) {
	fx := newFixture(t)
	a := fx.arena
	rho := a.Parameter(fx.rho, 0, 0)
	// 2320 on region 7, 1000 on region 8
	assert.Equal(t, KindConstant, rho.Simplify([]types.DisjointRegion{7}).Kind())
	assert.Equal(t, rho.ID(), rho.Simplify([]types.DisjointRegion{7, 8}).ID())
	// Space varying
	f := a.Parameter(fx.f, 0, 0)
	assert.Equal(t, f.ID(), f.Simplify(fx.regions).ID())
	// Not constant in time
	h := parameter.NewRawParameter("h", 1, 1)
	require.NoError(t, h.SetConstant(7, 1, 1))
	require.NoError(t, h.SetConstant(7, 2, 1))
	assert.Equal(t, KindParameter, a.Parameter(h, 0, 0).Simplify(fx.regions).Kind())
}

func TestSimplifySharesUnchangedSubtrees(t *testing.T) {
	fx := newFixture(t)
	a := fx.arena
	var (
		u = a.Field(fx.u, 0)
		f = a.Parameter(fx.f, 0, 0)
	)
	op := Product(a.Constant(2), u, Dx(u))
	nodes := a.CountNodes()
	assert.Equal(t, op.ID(), op.Simplify(fx.regions).ID())
	assert.Equal(t, nodes, a.CountNodes())

	// Only the changed branch is rebuilt
	inner := Sum(f, u)
	op = Product(inner, Sum(a.Parameter(fx.E, 0, 0), u))
	s := op.Simplify(fx.regions)
	assert.NotEqual(t, op.ID(), s.ID())
	assert.Equal(t, inner.ID(), s.Arg(0).ID())
}

func TestSimplifyZeroAndHarmonics(t *testing.T) {
	fx := newFixture(t)
	a := fx.arena
	u := a.Field(fx.u, 0)
	{
		s := Product(u, a.Constant(0), Dt(u)).Simplify(fx.regions)
		v, ok := s.ConstantValue()
		assert.True(t, ok)
		assert.Equal(t, 0., v)
		assert.True(t, s.IsZero())
	}
	{
		s := Harmonic(a.Parameter(fx.E, 0, 0), 3).Simplify(fx.regions)
		assert.True(t, s.IsZero())
		s = Harmonic(a.Parameter(fx.E, 0, 0), 1).Simplify(fx.regions)
		v, _ := s.ConstantValue()
		assert.Equal(t, 160e9, v)
	}
	{
		// Flattening nested sums
		s := Sum(u, Sum(Dx(u), Sum(Dy(u), a.Constant(1)))).Simplify(fx.regions)
		assert.Equal(t, 4, s.CountArgs())
		assertHarmonics(t, fx.interpolate(t, Sum(u, Dx(u), Dy(u), a.Constant(1)), nil),
			fx.interpolate(t, s, nil), 1e-14)
	}
	{
		// A reused node keeps its identity
		r := Sum(Dx(u), a.Constant(1)).ReuseIt(true)
		s := Sum(u, r).Simplify(fx.regions)
		assert.Equal(t, 2, s.CountArgs())
		assert.True(t, s.Arg(1).IsReused())
	}
}
