package utils

import (
	"math"
)

const (
	NODETOL = 1.e-12
)

// POW avoids math.Pow for the small integer exponents of polynomial terms.
func POW(x float64, pp int) (y float64) {
	var (
		p       = pp
		flipped bool
	)
	if pp > 8 || pp < -8 {
		return math.Pow(x, float64(pp))
	}
	if p < 0 {
		p = -pp
		flipped = true
	}
	switch p {
	case 0:
		y = 1
	case 1:
		y = x
	case 2:
		y = x * x
	case 3:
		y = x * x * x
	case 4:
		y = x * x
		y = y * y
	default:
		y = x * x
		y = y * y
		for i := 4; i < p; i++ {
			y *= x
		}
	}
	if flipped {
		y = 1. / y
	}
	return
}

// IsInteger reports whether f is a small whole number usable by POW.
func IsInteger(f float64) bool {
	return f == math.Trunc(f) && math.Abs(f) <= 1<<20
}
