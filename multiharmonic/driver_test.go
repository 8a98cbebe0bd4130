package multiharmonic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/weakform/geometry"
	"github.com/notargets/weakform/selector"
	"github.com/notargets/weakform/types"
	"github.com/notargets/weakform/utils"
)

// elementNumber evaluates to 10*region + element on harmonic 1 and to the
// element number on harmonic 2.
type elementNumber struct {
	failOn types.DisjointRegion
}

func (q elementNumber) InterpolateBatch(s *selector.ElementSelector, refCoords []float64) (H Harmonics, err error) {
	if s.Region() == q.failOn {
		err = utils.ErrMissingCoefficient
		return
	}
	var (
		np    = len(refCoords) / 3
		elems = s.Elements().Values()
		dc    = utils.NewMatrix(len(elems), np)
		sn    = utils.NewMatrix(len(elems), np)
	)
	for i, k := range elems {
		for p := 0; p < np; p++ {
			dc.Set(i, p, float64(10*int(s.Region())+k))
			sn.Set(i, p, float64(k))
		}
	}
	H = NewHarmonics(2)
	H.Set(1, dc)
	H.Set(2, sn)
	return
}

func newDriverMesh(t *testing.T) (m *geometry.Mesh) {
	nodes := utils.NewMatrix(8, 3)
	for i := 0; i < 8; i++ {
		nodes.Set(i, 0, float64(i))
	}
	m, err := geometry.NewMesh(1, nodes)
	require.NoError(t, err)
	require.NoError(t, m.AddRegion(1, types.Line, utils.NewIndexMatFrom(5, 2, []int{
		0, 1, 1, 2, 2, 3, 3, 4, 4, 5,
	})))
	require.NoError(t, m.AddRegion(2, types.Line, utils.NewIndexMatFrom(2, 2, []int{5, 6, 6, 7})))
	return
}

func TestDriverInterpolateAll(t *testing.T) {
	var (
		m         = newDriverMesh(t)
		refCoords = []float64{-0.5, 0, 0, 0.5, 0, 0}
	)
	s, err := selector.NewElementSelector(m, []types.DisjointRegion{1, 2}, 2)
	require.NoError(t, err)
	d := NewDriver(3)
	res, err := d.InterpolateAll(elementNumber{failOn: -1}, s, refCoords)
	require.NoError(t, err)
	assert.Equal(t, 2, res.NumPoints)
	require.Len(t, res.Batches, s.CountBatches())
	assert.Equal(t, []int{1, 2}, res.Harmonics())
	// Batch order is the selector's
	for i, b := range s.Batches() {
		assert.Equal(t, b.ID, res.Batches[i].BatchID)
		assert.Equal(t, b.Elements.Values(), res.Batches[i].Elements.Values())
	}

	C, err := res.Collect(1, 1, 5)
	require.NoError(t, err)
	nr, nc := C.Dims()
	assert.Equal(t, 5, nr)
	assert.Equal(t, 2, nc)
	for k := 0; k < 5; k++ {
		assert.Equal(t, float64(10+k), C.At(k, 0))
		assert.Equal(t, float64(10+k), C.At(k, 1))
	}
	C, err = res.Collect(2, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 0., C.At(0, 0))
	assert.Equal(t, 1., C.At(1, 1))
	assert.Equal(t, 2, C.NNZ())

	_, err = res.Collect(1, 1, 3)
	assert.True(t, errors.Is(err, utils.ErrDimensionMismatch))
}

func TestDriverPropagatesErrors(t *testing.T) {
	m := newDriverMesh(t)
	s, err := selector.NewElementSelector(m, []types.DisjointRegion{1, 2}, 0)
	require.NoError(t, err)
	res, err := NewDriver(0).InterpolateAll(elementNumber{failOn: 2}, s, []float64{0, 0, 0})
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, utils.ErrMissingCoefficient))

	_, err = NewDriver(1).InterpolateAll(elementNumber{}, s, []float64{0, 0})
	assert.True(t, errors.Is(err, utils.ErrDimensionMismatch))
}

func TestDriverTimeSamples(t *testing.T) {
	m := newDriverMesh(t)
	s, err := selector.NewElementSelector(m, []types.DisjointRegion{2}, 0)
	require.NoError(t, err)
	samples, res, err := NewDriver(2).TimeSamples(elementNumber{failOn: -1}, s, []float64{0, 0, 0}, 4)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	require.Len(t, res.Batches, 1)
	// Element 1 of region 2: 21 + 1*sin(2*pi*i/4)
	assert.Equal(t, []float64{20, 21}, samples[0].RawMatrix().Data[0:2])
	assert.InDelta(t, 22., samples[0].At(1, 1), 1e-12)
	assert.InDelta(t, 20., samples[0].At(3, 1), 1e-12)
}
