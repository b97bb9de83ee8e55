package dsp

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// Periodogram returns the power spectral density estimate of x and the
// frequency of each bin in Hz. The series is demeaned before the transform
// so the DC bin does not dominate.
func Periodogram(x []float64, rateHz float64) (freqs, power []float64) {
	n := len(x)
	if n < 2 {
		return nil, nil
	}
	mean := stat.Mean(x, nil)
	demeaned := make([]float64, n)
	for i, v := range x {
		demeaned[i] = v - mean
	}

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, demeaned)

	freqs = make([]float64, len(coeffs))
	power = make([]float64, len(coeffs))
	scale := 1 / (rateHz * float64(n))
	for i, c := range coeffs {
		freqs[i] = fft.Freq(i) * rateHz
		m := cmplx.Abs(c)
		power[i] = m * m * scale
	}
	return freqs, power
}

// DominantFrequency returns the frequency of maximum spectral power within
// [loHz, hiHz]. ok is false when no bin falls inside the band.
func DominantFrequency(x []float64, rateHz, loHz, hiHz float64) (float64, bool) {
	freqs, power := Periodogram(x, rateHz)
	best := -1
	for i, f := range freqs {
		if f < loHz || f > hiHz {
			continue
		}
		if best < 0 || power[i] > power[best] {
			best = i
		}
	}
	if best < 0 {
		return 0, false
	}
	return freqs[best], true
}

// Autocorrelation returns the one-sided autocorrelation of x, normalized so
// lag zero equals 1. The series is demeaned first; a zero-variance input
// yields all zeros past lag zero.
func Autocorrelation(x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}
	mean := stat.Mean(x, nil)
	d := make([]float64, n)
	for i, v := range x {
		d[i] = v - mean
	}

	out := make([]float64, n)
	for lag := 0; lag < n; lag++ {
		var sum float64
		for i := 0; i+lag < n; i++ {
			sum += d[i] * d[i+lag]
		}
		out[lag] = sum
	}
	if r0 := out[0]; r0 > 0 {
		for lag := range out {
			out[lag] /= r0
		}
	}
	return out
}
