package parameter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/weakform/types"
	"github.com/notargets/weakform/utils"
)

func TestRawParameterStore(t *testing.T) {
	E := NewRawParameter("E", 1, 1)
	require.NoError(t, E.SetConstant(1, 1, 160e9))
	require.NoError(t, E.SetConstant(2, 1, 160e9))
	require.NoError(t, E.SetConstant(3, 1, 150e9))

	c, err := E.Coefficient(1, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{160e9}, c.Values)
	_, err = E.Coefficient(1, 2)
	assert.True(t, errors.Is(err, utils.ErrMissingCoefficient))
	_, err = E.Coefficient(9, 1)
	assert.True(t, errors.Is(err, utils.ErrMissingCoefficient))

	assert.True(t, E.IsHarmonicOne([]types.DisjointRegion{1, 2, 3}))
	assert.False(t, E.IsHarmonicOne([]types.DisjointRegion{1, 9}))
	v, ok := E.ConstantValue([]types.DisjointRegion{1, 2}, 0, 0)
	assert.True(t, ok)
	assert.Equal(t, 160e9, v)
	_, ok = E.ConstantValue([]types.DisjointRegion{1, 3}, 0, 0)
	assert.False(t, ok)
	assert.Equal(t, []types.DisjointRegion{1, 2, 3}, E.Regions())

	assert.Error(t, E.SetConstant(1, 1, 1, 2))
	assert.Error(t, E.SetConstant(1, 0, 1))
}

func TestRawParameterHarmonics(t *testing.T) {
	p := NewRawParameter("p", 1, 1)
	require.NoError(t, p.SetConstant(4, 3, 2))
	require.NoError(t, p.SetConstant(4, 2, 1))
	assert.Equal(t, []int{2, 3}, p.Harmonics(4))
	assert.Nil(t, p.Harmonics(5))
	assert.False(t, p.IsHarmonicOne([]types.DisjointRegion{4}))
	assert.True(t, p.DefinedOn(4))
	assert.False(t, p.DefinedOn(5))
	_, ok := p.ConstantValue([]types.DisjointRegion{4}, 0, 0)
	assert.False(t, ok)
}

func TestRawParameterEvaluate(t *testing.T) {
	K := NewRawParameter("K", 2, 2)
	require.NoError(t, K.SetConstant(1, 1, 1, 2, 3, 4))
	require.NoError(t, K.SetFunction(1, 1, 1, 0, func(x, y, z float64) float64 { return x + 10*y }))

	isConst, err := K.IsConstant(1, 1)
	require.NoError(t, err)
	assert.False(t, isConst)
	_, ok := K.ConstantValue([]types.DisjointRegion{1}, 1, 0)
	assert.False(t, ok)
	v, ok := K.ConstantValue([]types.DisjointRegion{1}, 0, 1)
	assert.True(t, ok)
	assert.Equal(t, 2., v)

	var calls int
	coords := func() ([3]utils.Matrix, error) {
		calls++
		return [3]utils.Matrix{
			utils.NewMatrix(2, 1, []float64{1, 2}),
			utils.NewMatrix(2, 1, []float64{3, 4}),
			utils.NewMatrix(2, 1),
		}, nil
	}
	R, err := K.Evaluate(1, 1, 0, 1, 2, 1, coords)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2}, R.Data())
	assert.Equal(t, 0, calls)

	R, err = K.Evaluate(1, 1, 1, 0, 2, 1, coords)
	require.NoError(t, err)
	assert.Equal(t, []float64{31, 42}, R.Data())
	assert.Equal(t, 1, calls)

	_, err = K.Evaluate(1, 1, 2, 0, 2, 1, coords)
	assert.True(t, errors.Is(err, utils.ErrDimensionMismatch))
	_, err = K.Evaluate(1, 1, 1, 0, 3, 1, coords)
	assert.True(t, errors.Is(err, utils.ErrDimensionMismatch))
	_, err = K.Evaluate(2, 1, 0, 0, 2, 1, coords)
	assert.True(t, errors.Is(err, utils.ErrMissingCoefficient))

	// A constant overwrite removes space dependence
	require.NoError(t, K.SetConstant(1, 1, 1, 2, 3, 4))
	isConst, err = K.IsConstant(1, 1)
	require.NoError(t, err)
	assert.True(t, isConst)
	assert.Error(t, K.SetFunction(1, 1, 0, 0, nil))
	assert.Panics(t, func() { NewRawParameter("bad", 0, 1) })
}
