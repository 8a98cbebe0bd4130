package geometry

import (
	"fmt"

	"gonum.org/v1/gonum/integrate/quad"

	"github.com/notargets/weakform/types"
)

func legendre(n int, min, max float64) (x, w []float64) {
	x, w = make([]float64, n), make([]float64, n)
	quad.Legendre{}.FixedLocations(x, w, min, max)
	return
}

// GaussPoints returns flat reference coordinates and weights of a rule that
// integrates polynomials of the given order exactly. Simplices use the
// collapsed (Duffy) product of Gauss-Legendre rules.
func GaussPoints(et types.ElementType, order int) (coords, weights []float64, err error) {
	if order < 0 {
		err = fmt.Errorf("integration order must be positive, have %d", order)
		return
	}
	switch et {
	case types.Point:
		return []float64{0, 0, 0}, []float64{1}, nil
	case types.Line:
		x, w := legendre(order/2+1, -1, 1)
		for i := range x {
			coords = append(coords, x[i], 0, 0)
		}
		weights = w
	case types.Triangle:
		u, wu := legendre((order+1)/2+1, 0, 1)
		v, wv := legendre(order/2+1, 0, 1)
		for i := range u {
			for j := range v {
				coords = append(coords, u[i], v[j]*(1-u[i]), 0)
				weights = append(weights, wu[i]*wv[j]*(1-u[i]))
			}
		}
	case types.Tetrahedron:
		u, wu := legendre((order+2)/2+1, 0, 1)
		v, wv := legendre((order+1)/2+1, 0, 1)
		s, ws := legendre(order/2+1, 0, 1)
		for i := range u {
			for j := range v {
				for k := range s {
					coords = append(coords,
						u[i],
						v[j]*(1-u[i]),
						s[k]*(1-u[i])*(1-v[j]))
					weights = append(weights, wu[i]*wv[j]*ws[k]*(1-u[i])*(1-u[i])*(1-v[j]))
				}
			}
		}
	default:
		err = fmt.Errorf("unsupported element type %v", et)
	}
	return
}
