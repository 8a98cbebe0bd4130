package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrix(t *testing.T) {
	// Transpose
	{
		M := NewMatrix(2, 3, []float64{
			1, 2, 3,
			4, 5, 6,
		})
		mNr, mNc := M.Dims()
		A := M.Transpose()
		aNr, aNc := A.Dims()
		assert.Equal(t, aNc, mNr)
		assert.Equal(t, aNr, mNc)
		assert.Equal(t, A.RawMatrix().Data, []float64{1, 4, 2, 5, 3, 6})
	}
	// SliceRows
	{
		M := NewMatrix(2, 3, []float64{
			1, 2, 3,
			4, 5, 6,
		})
		A := M.SliceRows([]int{1, 0})
		assert.Equal(t, []float64{4, 5, 6, 1, 2, 3}, A.Data())
	}
	// SliceCols
	{
		M := NewMatrix(2, 3, []float64{
			1, 2, 3,
			4, 5, 6,
		})
		A := M.SliceCols([]int{1, 0})
		assert.Equal(t, []float64{2, 1, 5, 4}, A.Data())
	}
	// Arithmetic changes receiver
	{
		M := NewMatrix(1, 3, []float64{1, 2, 3})
		A := NewMatrixConst(1, 3, 2)
		M.Copy().Add(A)
		assert.Equal(t, []float64{1, 2, 3}, M.Data())
		M.ElMul(A).AddScalar(1).Scale(0.5)
		assert.Equal(t, []float64{1.5, 2.5, 3.5}, M.Data())
		assert.Panics(t, func() { M.Add(NewMatrix(3, 1)) })
	}
}

func TestMatrixReshapeAndCopy(t *testing.T) {
	M := NewMatrix(2, 3, []float64{1, 2, 3, 4, 5, 6})
	R, err := M.Reshape(3, 2)
	require.NoError(t, err)
	R.Set(2, 1, 60)
	assert.Equal(t, 60., M.At(1, 2))
	_, err = M.Reshape(5, 1)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	C := M.Copy()
	C.Set(0, 0, -1)
	assert.Equal(t, 1., M.At(0, 0))
}

func TestMatrixReadOnlyAndEmpty(t *testing.T) {
	M := NewMatrixConst(2, 2, 3)
	M.SetReadOnly("cached")
	assert.Panics(t, func() { M.Scale(2) })
	assert.Equal(t, 3., M.At(1, 1))
	W := M.Copy()
	assert.False(t, W.IsReadOnly())

	E := NewMatrix(0, 4)
	assert.True(t, E.IsEmpty())
	_, err := E.Sum()
	assert.True(t, errors.Is(err, ErrEmptyContainer))
	_, err = E.Max()
	assert.True(t, errors.Is(err, ErrEmptyContainer))
	_, err = E.Min()
	assert.True(t, errors.Is(err, ErrEmptyContainer))

	sum, err := M.Sum()
	require.NoError(t, err)
	assert.Equal(t, 12., sum)
}
