package geometry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/weakform/types"
	"github.com/notargets/weakform/utils"
)

// Two triangles covering the rectangle [0,2]x[0,1], plus its bottom edge.
func newTestMesh(t *testing.T) (m *Mesh) {
	nodes := utils.NewMatrix(4, 3, []float64{
		0, 0, 0,
		2, 0, 0,
		2, 1, 0,
		0, 1, 0,
	})
	m, err := NewMesh(2, nodes)
	require.NoError(t, err)
	require.NoError(t, m.AddRegion(7, types.Triangle, utils.NewIndexMatFrom(2, 3, []int{
		0, 1, 2,
		0, 2, 3,
	})))
	require.NoError(t, m.AddRegion(8, types.Line, utils.NewIndexMatFrom(1, 2, []int{0, 1})))
	return
}

func TestMeshConstruction(t *testing.T) {
	m := newTestMesh(t)
	assert.Equal(t, []types.DisjointRegion{7, 8}, m.Regions())
	_, err := m.Block(3)
	assert.True(t, errors.Is(err, utils.ErrUnresolvedReference))
	err = m.AddRegion(9, types.Triangle, utils.NewIndexMatFrom(1, 2, []int{0, 1}))
	assert.True(t, errors.Is(err, utils.ErrDimensionMismatch))
	err = m.AddRegion(9, types.Line, utils.NewIndexMatFrom(1, 2, []int{0, 4}))
	assert.Error(t, err)
	_, err = NewMesh(2, utils.NewMatrix(2, 2))
	assert.True(t, errors.Is(err, utils.ErrDimensionMismatch))
}

func TestShapeFunctions(t *testing.T) {
	for _, et := range []types.ElementType{types.Point, types.Line, types.Triangle, types.Tetrahedron} {
		coords, _, err := GaussPoints(et, 3)
		require.NoError(t, err)
		N, err := ShapeFunctions(et, coords)
		require.NoError(t, err)
		np, nv := N.Dims()
		assert.Equal(t, et.CountVertices(), nv)
		for p := 0; p < np; p++ {
			var sum float64
			for v := 0; v < nv; v++ {
				sum += N.At(p, v)
			}
			assert.InDelta(t, 1., sum, utils.NODETOL)
		}
		// Interpolation property at the vertices
		Nv, err := ShapeFunctions(et, ReferenceVertices(et))
		require.NoError(t, err)
		for i := 0; i < nv; i++ {
			for j := 0; j < nv; j++ {
				want := 0.
				if i == j {
					want = 1
				}
				assert.InDelta(t, want, Nv.At(i, j), utils.NODETOL)
			}
		}
	}
	_, err := ShapeFunctions(types.Line, []float64{0, 0})
	assert.True(t, errors.Is(err, utils.ErrDimensionMismatch))
}

func TestGaussPoints(t *testing.T) {
	sum := func(w []float64) (s float64) {
		for _, v := range w {
			s += v
		}
		return
	}
	{
		_, w, err := GaussPoints(types.Line, 2)
		require.NoError(t, err)
		assert.InDelta(t, 2., sum(w), 1e-12)
	}
	{
		c, w, err := GaussPoints(types.Triangle, 2)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, sum(w), 1e-12)
		// Integral of ki*eta over the reference triangle is 1/24
		var s float64
		for i := range w {
			s += w[i] * c[3*i] * c[3*i+1]
		}
		assert.InDelta(t, 1./24, s, 1e-12)
	}
	{
		c, w, err := GaussPoints(types.Tetrahedron, 1)
		require.NoError(t, err)
		assert.InDelta(t, 1./6, sum(w), 1e-12)
		// Integral of phi over the reference tetrahedron is 1/24
		var s float64
		for i := range w {
			s += w[i] * c[3*i+2]
		}
		assert.InDelta(t, 1./24, s, 1e-12)
	}
	_, _, err := GaussPoints(types.Line, -1)
	assert.Error(t, err)
}

func TestPhysicalCoordinates(t *testing.T) {
	m := newTestMesh(t)
	elems := utils.NewIndexMatFrom(2, 1, []int{1, 0})
	V, err := m.VertexCoordinates(7, elems, [3]utils.Matrix{})
	require.NoError(t, err)
	// Centroids
	X, err := PhysicalCoordinates(types.Triangle, V, []float64{1. / 3, 1. / 3, 0})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2. / 3, 4. / 3}, X[0].Data(), 1e-12)
	assert.InDeltaSlice(t, []float64{2. / 3, 1. / 3}, X[1].Data(), 1e-12)

	// Deformed: shift every vertex of element 1 by +1 in x
	disp := [3]utils.Matrix{utils.NewMatrix(2, 3, []float64{1, 1, 1, 0, 0, 0})}
	V, err = m.VertexCoordinates(7, elems, disp)
	require.NoError(t, err)
	X, err = PhysicalCoordinates(types.Triangle, V, []float64{1. / 3, 1. / 3, 0})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{5. / 3, 4. / 3}, X[0].Data(), 1e-12)

	_, err = m.VertexCoordinates(7, elems, [3]utils.Matrix{utils.NewMatrix(1, 3)})
	assert.True(t, errors.Is(err, utils.ErrDimensionMismatch))
	_, err = m.VertexCoordinates(7, utils.NewIndexMatFrom(1, 1, []int{5}), [3]utils.Matrix{})
	assert.Error(t, err)
}

func TestInverseJacobians(t *testing.T) {
	m := newTestMesh(t)
	V, err := m.VertexCoordinates(7, utils.NewIndexMatFrom(1, 1, []int{0}), [3]utils.Matrix{})
	require.NoError(t, err)
	Jinv, err := InverseJacobians(types.Triangle, 2, V)
	require.NoError(t, err)
	require.Len(t, Jinv, 1)
	// Element 0 maps ki -> (2,0), eta -> (2,1): J = [2 2; 0 1]
	assert.InDelta(t, 0.5, Jinv[0].At(0, 0), 1e-12)
	assert.InDelta(t, -1., Jinv[0].At(0, 1), 1e-12)
	assert.InDelta(t, 0., Jinv[0].At(1, 0), 1e-12)
	assert.InDelta(t, 1., Jinv[0].At(1, 1), 1e-12)

	Vl, err := m.VertexCoordinates(8, utils.NewIndexMatFrom(1, 1, []int{0}), [3]utils.Matrix{})
	require.NoError(t, err)
	_, err = InverseJacobians(types.Line, 2, Vl)
	assert.True(t, errors.Is(err, utils.ErrDimensionMismatch))
}
