package multiharmonic

import (
	"fmt"

	"github.com/notargets/weakform/types"
	"github.com/notargets/weakform/utils"
)

/*
Harmonics is the frequency domain value of a quantity on one batch. The outer
index is the harmonic number (index 0 is never used), the inner slice is empty
when the harmonic is zero and otherwise holds one (elements x points) matrix:

	H[1] = [DC]   H[2] = [sin(wt)]   H[3] = [cos(wt)]   H[4] = []   ...

A quantity with no harmonic at all is identically zero.
*/
type Harmonics [][]utils.Matrix

func NewHarmonics(maxHarmonic int) (H Harmonics) {
	if maxHarmonic < 0 {
		maxHarmonic = 0
	}
	return make(Harmonics, maxHarmonic+1)
}

// Constant builds harmonic 1 only, (ne x np) filled with val.
func Constant(ne, np int, val float64) (H Harmonics) {
	H = NewHarmonics(1)
	H[1] = []utils.Matrix{utils.NewMatrixConst(ne, np, val)}
	return
}

func (H Harmonics) Has(h int) bool {
	return h > 0 && h < len(H) && len(H[h]) != 0
}

// Get returns harmonic h, an empty Matrix when it is zero.
func (H Harmonics) Get(h int) utils.Matrix {
	if !H.Has(h) {
		return utils.Matrix{}
	}
	return H[h][0]
}

// Set stores m as harmonic h, growing the container when needed.
func (H *Harmonics) Set(h int, m utils.Matrix) {
	if h < 1 {
		panic(fmt.Errorf("harmonic numbers start at 1, have %d", h))
	}
	for len(*H) <= h {
		*H = append(*H, nil)
	}
	(*H)[h] = []utils.Matrix{m}
}

// Max is the largest non zero harmonic, 0 when the quantity is zero.
func (H Harmonics) Max() int {
	for h := len(H) - 1; h > 0; h-- {
		if len(H[h]) != 0 {
			return h
		}
	}
	return 0
}

// Numbers lists the non zero harmonics in increasing order.
func (H Harmonics) Numbers() (harms []int) {
	for h := 1; h < len(H); h++ {
		if len(H[h]) != 0 {
			harms = append(harms, h)
		}
	}
	return
}

func (H Harmonics) IsZero() bool { return H.Max() == 0 }

// IsHarmonicOne reports whether only the constant harmonic is non zero.
func (H Harmonics) IsHarmonicOne() bool {
	harms := H.Numbers()
	return len(harms) == 1 && harms[0] == 1
}

// Shape returns the common (elements x points) shape of the harmonics.
func (H Harmonics) Shape() (ne, np int, err error) {
	var first = true
	for _, h := range H.Numbers() {
		r, c := H[h][0].Dims()
		if first {
			ne, np, first = r, c, false
			continue
		}
		if r != ne || c != np {
			err = fmt.Errorf("harmonic %d is %dx%d, expected %dx%d: %w", h, r, c, ne, np, utils.ErrDimensionMismatch)
			return
		}
	}
	if first {
		err = fmt.Errorf("shape of a zero quantity: %w", utils.ErrEmptyContainer)
	}
	return
}

// Copy is deep, the matrices are duplicated.
func (H Harmonics) Copy() (R Harmonics) {
	R = NewHarmonics(len(H) - 1)
	for _, h := range H.Numbers() {
		R[h] = []utils.Matrix{H[h][0].Copy()}
	}
	return
}

// SetReadOnly protects every harmonic against accidental writes, used on
// values shared through the evaluation cache.
func (H Harmonics) SetReadOnly(name string) Harmonics {
	for _, h := range H.Numbers() {
		H[h][0].SetReadOnly(name)
	}
	return H
}

func (H Harmonics) String() string {
	var s string
	for _, h := range H.Numbers() {
		s += fmt.Sprintf("harmonic %d:\n%v\n", h, H[h][0])
	}
	if s == "" {
		return "zero\n"
	}
	return s
}

// Add returns A + B harmonic by harmonic, a harmonic missing on one side
// counting as zero. The inputs are not modified.
func Add(A, B Harmonics) (R Harmonics, err error) {
	var (
		n = len(A)
	)
	if len(B) > n {
		n = len(B)
	}
	R = NewHarmonics(n - 1)
	for h := 1; h < n; h++ {
		switch {
		case A.Has(h) && B.Has(h):
			if err = utils.SameShape(A.Get(h), B.Get(h)); err != nil {
				err = fmt.Errorf("harmonic %d: %w", h, err)
				return
			}
			R[h] = []utils.Matrix{A.Get(h).Copy().Add(B.Get(h))}
		case A.Has(h):
			R[h] = []utils.Matrix{A.Get(h).Copy()}
		case B.Has(h):
			R[h] = []utils.Matrix{B.Get(h).Copy()}
		}
	}
	return
}

// Scale returns a*H.
func Scale(H Harmonics, a float64) (R Harmonics) {
	R = H.Copy()
	for _, h := range R.Numbers() {
		R[h][0].Scale(a)
	}
	return
}

// Multiply returns the product of two time periodic quantities. With the DC
// term seen as cos(0), every pair of harmonics of frequencies m and n
// contributes to frequencies |m-n| and m+n:
//
//	sin(m)sin(n) = (cos(m-n) - cos(m+n))/2
//	cos(m)cos(n) = (cos(m-n) + cos(m+n))/2
//	sin(m)cos(n) = (sin(m+n) + sin(m-n))/2
//	cos(m)sin(n) = (sin(m+n) - sin(m-n))/2
func Multiply(A, B Harmonics) (R Harmonics, err error) {
	R = NewHarmonics(0)
	for _, a := range A.Numbers() {
		for _, b := range B.Numbers() {
			var (
				Ma, Mb = A.Get(a), B.Get(b)
				m, n   = types.HarmonicFrequency(a), types.HarmonicFrequency(b)
				sa, sb = types.IsSine(a), types.IsSine(b)
			)
			if err = utils.SameShape(Ma, Mb); err != nil {
				err = fmt.Errorf("product of harmonics %d and %d: %w", a, b, err)
				return
			}
			prod := Ma.Copy().ElMul(Mb)
			switch {
			case !sa && !sb:
				R.accumulate(m-n, false, 0.5, prod)
				R.accumulate(m+n, false, 0.5, prod)
			case sa && sb:
				R.accumulate(m-n, false, 0.5, prod)
				R.accumulate(m+n, false, -0.5, prod)
			case sa && !sb:
				R.accumulate(m+n, true, 0.5, prod)
				R.accumulate(m-n, true, 0.5, prod)
			default:
				R.accumulate(m+n, true, 0.5, prod)
				R.accumulate(m-n, true, -0.5, prod)
			}
		}
	}
	return
}

// accumulate adds coef*M to the harmonic of frequency n, n possibly negative.
func (H *Harmonics) accumulate(n int, sine bool, coef float64, M utils.Matrix) {
	if n < 0 {
		n = -n
		if sine {
			coef = -coef
		}
	}
	if n == 0 && sine {
		return
	}
	h := types.HarmonicNumber(n, sine)
	if H.Has(h) {
		(*H)[h][0].AddScaled(coef, M)
		return
	}
	H.Set(h, M.Copy().Scale(coef))
}

// TimeDerivative returns dH/dt for the fundamental pulsation omega:
// d/dt sin(nwt) = nw cos(nwt) and d/dt cos(nwt) = -nw sin(nwt).
func TimeDerivative(H Harmonics, omega float64) (R Harmonics) {
	R = NewHarmonics(0)
	for _, h := range H.Numbers() {
		n := types.HarmonicFrequency(h)
		if n == 0 {
			continue
		}
		w := float64(n) * omega
		if types.IsSine(h) {
			R.Set(types.HarmonicNumber(n, false), H.Get(h).Copy().Scale(w))
		} else {
			R.Set(types.HarmonicNumber(n, true), H.Get(h).Copy().Scale(-w))
		}
	}
	return
}
