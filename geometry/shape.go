package geometry

import (
	"fmt"

	"github.com/notargets/weakform/types"
	"github.com/notargets/weakform/utils"
)

/*
Reference elements, coordinates are (ki, eta, phi):

	line        : [-1, 1]
	triangle    : (0,0), (1,0), (0,1)
	tetrahedron : (0,0,0), (1,0,0), (0,1,0), (0,0,1)

Evaluation coordinates are passed flat, three per point:
[ki1 eta1 phi1 ki2 eta2 phi2 ...].
*/

func ReferenceVertices(et types.ElementType) (coords []float64) {
	switch et {
	case types.Point:
		return []float64{0, 0, 0}
	case types.Line:
		return []float64{-1, 0, 0, 1, 0, 0}
	case types.Triangle:
		return []float64{0, 0, 0, 1, 0, 0, 0, 1, 0}
	case types.Tetrahedron:
		return []float64{0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1}
	}
	panic(fmt.Errorf("unsupported element type %v", et))
}

// CountPoints checks the flat evaluation coordinates and returns the number of points.
func CountPoints(refCoords []float64) (np int, err error) {
	if len(refCoords)%3 != 0 {
		err = fmt.Errorf("evaluation coordinates must come in triplets, have %d values: %w",
			len(refCoords), utils.ErrDimensionMismatch)
		return
	}
	return len(refCoords) / 3, nil
}

// ShapeFunctions evaluates the linear Lagrange shape functions, returned as
// (points x vertices).
func ShapeFunctions(et types.ElementType, refCoords []float64) (N utils.Matrix, err error) {
	var (
		np int
		nv = et.CountVertices()
	)
	if np, err = CountPoints(refCoords); err != nil {
		return
	}
	N = utils.NewMatrix(np, nv)
	data := N.Data()
	for p := 0; p < np; p++ {
		ki, eta, phi := refCoords[3*p], refCoords[3*p+1], refCoords[3*p+2]
		row := data[p*nv : (p+1)*nv]
		switch et {
		case types.Point:
			row[0] = 1
		case types.Line:
			row[0] = 0.5 * (1 - ki)
			row[1] = 0.5 * (1 + ki)
		case types.Triangle:
			row[0] = 1 - ki - eta
			row[1] = ki
			row[2] = eta
		case types.Tetrahedron:
			row[0] = 1 - ki - eta - phi
			row[1] = ki
			row[2] = eta
			row[3] = phi
		}
	}
	return
}

// ShapeGradients returns the constant reference gradients (vertices x dim).
func ShapeGradients(et types.ElementType) (dN utils.Matrix) {
	switch et {
	case types.Point:
		return utils.NewMatrix(1, 0)
	case types.Line:
		return utils.NewMatrix(2, 1, []float64{-0.5, 0.5})
	case types.Triangle:
		return utils.NewMatrix(3, 2, []float64{
			-1, -1,
			1, 0,
			0, 1,
		})
	case types.Tetrahedron:
		return utils.NewMatrix(4, 3, []float64{
			-1, -1, -1,
			1, 0, 0,
			0, 1, 0,
			0, 0, 1,
		})
	}
	panic(fmt.Errorf("unsupported element type %v", et))
}
