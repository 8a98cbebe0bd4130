package InputParameters

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/weakform/types"
	"github.com/notargets/weakform/utils"
)

var problem = []byte(`
Title: Plate
Frequency: 1000
FFTTimeEvals: 16
MaxHarmonic: 3
Nodes:
  - [0, 0]
  - [2, 0]
  - [2, 1]
  - [0, 1]
Regions:
  7:
    Type: triangle
    Elements: [[0, 1, 2], [0, 2, 3]]
  8:
    Type: line
    Elements: [[0, 1]]
Parameters:
  rho:
    7:
      1: 2320
    8:
      1: 1000
      2: 10
Fields:
  u:
    1: [1, 3, 3, 1]
    3: [0, 2, 1, -1]
Expression: "rho u *"
Evaluate: [8, 7, 8]
`)

func TestParse(t *testing.T) {
	var ip InputParameters
	require.NoError(t, ip.Parse(problem))
	ip.Print()
	assert.Equal(t, "Plate", ip.Title)
	assert.Equal(t, 2, ip.Dimension)
	assert.Equal(t, 2, ip.QuadratureOrder)
	assert.Equal(t, 1000., ip.Frequency)
	assert.Equal(t, 16, ip.FFTTimeEvals)
	assert.Equal(t, 3, ip.MaxHarmonic)
	assert.Equal(t, "triangle", ip.Regions[7].Type)
	assert.Equal(t, []int{0, 2, 3}, ip.Regions[7].Elements[1])
	assert.Equal(t, 10., ip.Parameters["rho"][8][2])
	assert.Equal(t, []float64{0, 2, 1, -1}, ip.Fields["u"][3])
	assert.Empty(t, ip.MeshFile)

	var empty InputParameters
	assert.Error(t, empty.Parse([]byte("Title: nothing\n")))
}

func TestBuild(t *testing.T) {
	var ip InputParameters
	require.NoError(t, ip.Parse(problem))

	m, err := ip.Mesh()
	require.NoError(t, err)
	assert.Equal(t, 4, m.CountNodes())
	assert.Equal(t, []types.DisjointRegion{7, 8}, m.Regions())
	eb, err := m.Block(7)
	require.NoError(t, err)
	assert.Equal(t, types.Triangle, eb.Type)
	assert.Equal(t, 2, eb.CountElements())
	assert.Equal(t, []types.DisjointRegion{7, 8}, ip.EvaluationRegions(m))
	ip.Evaluate = nil
	assert.Equal(t, []types.DisjointRegion{7, 8}, ip.EvaluationRegions(m))

	params, err := ip.RawParameters()
	require.NoError(t, err)
	rho := params["rho"]
	require.NotNil(t, rho)
	assert.Equal(t, []int{1, 2}, rho.Harmonics(8))
	assert.True(t, rho.IsHarmonicOne([]types.DisjointRegion{7}))
	assert.False(t, rho.IsHarmonicOne([]types.DisjointRegion{7, 8}))

	fields, err := ip.FieldValues(m.CountNodes())
	require.NoError(t, err)
	u := fields["u"]
	assert.Equal(t, []int{1, 3}, u.Harmonics())
	vals, err := u.NodalValues(3)
	require.NoError(t, err)
	assert.Equal(t, 2., vals.At(1, 0))

	ip.Fields["u"][1] = []float64{1, 2}
	_, err = ip.FieldValues(m.CountNodes())
	assert.True(t, errors.Is(err, utils.ErrDimensionMismatch))
	delete(ip.Fields["u"], 1)
	for _, h := range []int{0, -2} {
		ip.Fields["u"][h] = []float64{0, 0, 0, 0}
		assert.NotPanics(t, func() {
			_, err = ip.FieldValues(m.CountNodes())
		})
		assert.Error(t, err)
		delete(ip.Fields["u"], h)
	}

	ip.Regions[9] = RegionInput{Type: "hexahedron", Elements: [][]int{{0, 1}}}
	_, err = ip.Mesh()
	assert.Error(t, err)
	ip.Regions[9] = RegionInput{Type: "line", Elements: [][]int{{0, 1, 2}}}
	_, err = ip.Mesh()
	assert.True(t, errors.Is(err, utils.ErrDimensionMismatch))

	ip.MeshFile = "does-not-exist.su2"
	_, err = ip.Mesh()
	assert.Error(t, err)
}
