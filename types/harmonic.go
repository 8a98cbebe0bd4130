package types

/*
Harmonic numbering of a time periodic quantity with fundamental frequency f0:

	harmonic 1    : constant term
	harmonic 2n   : sin(n * 2*pi*f0 * t)
	harmonic 2n+1 : cos(n * 2*pi*f0 * t)

so that harmonic 2 is sin(2*pi*f0*t), harmonic 3 is cos(2*pi*f0*t), etc.
*/

// HarmonicFrequency returns n, the multiple of the fundamental frequency.
func HarmonicFrequency(h int) int { return h / 2 }

// IsSine reports whether harmonic h is a sine term. Harmonic 1 is neither.
func IsSine(h int) bool { return h > 1 && h%2 == 0 }

// IsCosine reports whether harmonic h is a cosine term.
func IsCosine(h int) bool { return h > 1 && h%2 == 1 }

// HarmonicNumber is the inverse of HarmonicFrequency/IsSine. For n == 0 the
// constant harmonic 1 is returned whatever the value of sine.
func HarmonicNumber(n int, sine bool) int {
	switch {
	case n == 0:
		return 1
	case sine:
		return 2 * n
	default:
		return 2*n + 1
	}
}

// HarmonicsUpTo returns [1, 2, ..., 2n+1], all harmonics up to frequency n.
func HarmonicsUpTo(n int) (harms []int) {
	harms = make([]int, 2*n+1)
	for i := range harms {
		harms[i] = i + 1
	}
	return
}
