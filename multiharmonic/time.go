package multiharmonic

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/notargets/weakform/types"
	"github.com/notargets/weakform/utils"
)

// TimeDomain samples H at N equally spaced instants t_i = i*T/N of one period.
// Row i of the (N x ne*np) result is the flattened (elements x points) value
// at t_i. A zero H gives zeros.
func TimeDomain(H Harmonics, N, ne, np int) (S utils.Matrix, err error) {
	if N < 1 {
		err = fmt.Errorf("need at least one time sample, have %d", N)
		return
	}
	for _, h := range H.Numbers() {
		if r, c := H.Get(h).Dims(); r != ne || c != np {
			err = fmt.Errorf("harmonic %d is %dx%d, expected %dx%d: %w", h, r, c, ne, np, utils.ErrDimensionMismatch)
			return
		}
	}
	var (
		nc   = ne * np
		data []float64
	)
	S = utils.NewMatrix(N, nc)
	if nc == 0 {
		return
	}
	data = S.Data()
	for _, h := range H.Numbers() {
		var (
			n    = types.HarmonicFrequency(h)
			vals = H.Get(h).Data()
		)
		for i := 0; i < N; i++ {
			var (
				theta = 2 * math.Pi * float64(n*i) / float64(N)
				w     = 1.
			)
			switch {
			case types.IsSine(h):
				w = math.Sin(theta)
			case types.IsCosine(h):
				w = math.Cos(theta)
			}
			row := data[i*nc : (i+1)*nc]
			for j, v := range vals {
				row[j] += w * v
			}
		}
	}
	return
}

// FourierAnalyze is the inverse of TimeDomain: it recovers the harmonics up
// to maxHarmonic from the (N x ne*np) samples of one period. The sampling
// must resolve the highest frequency, i.e. N > 2*HarmonicFrequency(maxHarmonic).
func FourierAnalyze(S utils.Matrix, maxHarmonic, ne, np int) (H Harmonics, err error) {
	var (
		N, nc = S.Dims()
		nMax  = types.HarmonicFrequency(maxHarmonic)
	)
	if maxHarmonic < 1 {
		err = fmt.Errorf("harmonic numbers start at 1, have %d", maxHarmonic)
		return
	}
	if nc != ne*np {
		err = fmt.Errorf("%d sample columns for %dx%d points: %w", nc, ne, np, utils.ErrDimensionMismatch)
		return
	}
	if N <= 2*nMax {
		err = fmt.Errorf("%d time samples cannot resolve harmonic %d (frequency %d), need more than %d",
			N, maxHarmonic, nMax, 2*nMax)
		return
	}
	H = NewHarmonics(maxHarmonic)
	for h := 1; h <= maxHarmonic; h++ {
		H[h] = []utils.Matrix{utils.NewMatrix(ne, np)}
	}
	if nc == 0 {
		return
	}
	var (
		fft    = fourier.NewFFT(N)
		seq    = make([]float64, N)
		coeffs []complex128
		data   = S.Data()
		scale  = 1. / float64(N)
	)
	for j := 0; j < nc; j++ {
		for i := 0; i < N; i++ {
			seq[i] = data[i*nc+j]
		}
		coeffs = fft.Coefficients(coeffs, seq)
		for h := 1; h <= maxHarmonic; h++ {
			var (
				n = types.HarmonicFrequency(h)
				c = coeffs[n]
				v float64
			)
			switch {
			case n == 0:
				v = real(c) * scale
			case types.IsSine(h):
				v = -2 * imag(c) * scale
			default:
				v = 2 * real(c) * scale
			}
			H[h][0].Data()[j] = v
		}
	}
	return
}

// Nonlinear applies f to a time periodic quantity. A constant quantity is
// mapped directly, otherwise f is applied to N time samples and the result is
// brought back to harmonics up to maxHarmonic.
func Nonlinear(H Harmonics, f func(float64) float64, N, maxHarmonic, ne, np int) (R Harmonics, err error) {
	if H.IsZero() {
		R = Constant(ne, np, f(0))
		return
	}
	if H.IsHarmonicOne() {
		R = NewHarmonics(1)
		R[1] = []utils.Matrix{H.Get(1).Copy().Apply(f)}
		return
	}
	if N < 1 {
		err = fmt.Errorf("a nonlinear function of harmonics %v needs a number of time evaluations: %w",
			H.Numbers(), utils.ErrUnevaluable)
		return
	}
	var S utils.Matrix
	if S, err = TimeDomain(H, N, ne, np); err != nil {
		return
	}
	return FourierAnalyze(S.Apply(f), maxHarmonic, ne, np)
}
