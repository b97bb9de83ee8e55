package dsp

import (
	"fmt"
	"math"

	"StrideSense/internal/domain/models"
)

// Kind selects the filter response shape.
type Kind string

const (
	KindNone     Kind = "none"
	KindLowPass  Kind = "low-pass"
	KindHighPass Kind = "high-pass"
	KindBandPass Kind = "band-pass"
)

// DesignOrder is the fixed Butterworth design order. Band-pass cascades a
// high-pass and a low-pass of this order.
const DesignOrder = 4

// Spec is a pure filter configuration value.
type Spec struct {
	Kind         Kind
	CutoffLowHz  float64
	CutoffHighHz float64
}

// Validate checks cutoffs against the Nyquist frequency.
func (s Spec) Validate(rateHz float64) error {
	nyquist := rateHz / 2
	switch s.Kind {
	case KindNone:
		return nil
	case KindLowPass:
		if s.CutoffHighHz <= 0 || s.CutoffHighHz >= nyquist {
			return fmt.Errorf("%w: low-pass cutoff %.3f Hz outside (0, %.3f)", models.ErrFilterDesign, s.CutoffHighHz, nyquist)
		}
	case KindHighPass:
		if s.CutoffLowHz <= 0 || s.CutoffLowHz >= nyquist {
			return fmt.Errorf("%w: high-pass cutoff %.3f Hz outside (0, %.3f)", models.ErrFilterDesign, s.CutoffLowHz, nyquist)
		}
	case KindBandPass:
		if s.CutoffLowHz <= 0 || s.CutoffHighHz >= nyquist {
			return fmt.Errorf("%w: band %.3f-%.3f Hz outside (0, %.3f)", models.ErrFilterDesign, s.CutoffLowHz, s.CutoffHighHz, nyquist)
		}
		if s.CutoffLowHz >= s.CutoffHighHz {
			return fmt.Errorf("%w: band low %.3f >= high %.3f", models.ErrFilterDesign, s.CutoffLowHz, s.CutoffHighHz)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", models.ErrFilterDesign, s.Kind)
	}
	return nil
}

// biquad is one second-order IIR section, coefficients normalized by a0.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// butterworthQ holds the section Q values of a 4th-order Butterworth cascade.
var butterworthQ = [2]float64{0.5411961001, 1.3065629649}

func lowPassSection(cutoffHz, rateHz, q float64) biquad {
	w0 := 2 * math.Pi * cutoffHz / rateHz
	cw, sw := math.Cos(w0), math.Sin(w0)
	alpha := sw / (2 * q)
	a0 := 1 + alpha
	return biquad{
		b0: (1 - cw) / 2 / a0,
		b1: (1 - cw) / a0,
		b2: (1 - cw) / 2 / a0,
		a1: -2 * cw / a0,
		a2: (1 - alpha) / a0,
	}
}

func highPassSection(cutoffHz, rateHz, q float64) biquad {
	w0 := 2 * math.Pi * cutoffHz / rateHz
	cw, sw := math.Cos(w0), math.Sin(w0)
	alpha := sw / (2 * q)
	a0 := 1 + alpha
	return biquad{
		b0: (1 + cw) / 2 / a0,
		b1: -(1 + cw) / a0,
		b2: (1 + cw) / 2 / a0,
		a1: -2 * cw / a0,
		a2: (1 - alpha) / a0,
	}
}

func designSections(s Spec, rateHz float64) []biquad {
	var secs []biquad
	switch s.Kind {
	case KindLowPass:
		for _, q := range butterworthQ {
			secs = append(secs, lowPassSection(s.CutoffHighHz, rateHz, q))
		}
	case KindHighPass:
		for _, q := range butterworthQ {
			secs = append(secs, highPassSection(s.CutoffLowHz, rateHz, q))
		}
	case KindBandPass:
		for _, q := range butterworthQ {
			secs = append(secs, highPassSection(s.CutoffLowHz, rateHz, q))
		}
		for _, q := range butterworthQ {
			secs = append(secs, lowPassSection(s.CutoffHighHz, rateHz, q))
		}
	}
	return secs
}

// apply runs one section over x with zero initial state (direct form II
// transposed).
func (bq biquad) apply(x []float64) []float64 {
	out := make([]float64, len(x))
	var z1, z2 float64
	for i, v := range x {
		y := bq.b0*v + z1
		z1 = bq.b1*v - bq.a1*y + z2
		z2 = bq.b2*v - bq.a2*y
		out[i] = y
	}
	return out
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}

// oddPad extends x at both ends by odd reflection about the end points,
// suppressing startup transients of the forward-backward pass.
func oddPad(x []float64, pad int) []float64 {
	n := len(x)
	out := make([]float64, 0, n+2*pad)
	for i := pad; i >= 1; i-- {
		out = append(out, 2*x[0]-x[i])
	}
	out = append(out, x...)
	for i := n - 2; i >= n-1-pad; i-- {
		out = append(out, 2*x[n-1]-x[i])
	}
	return out
}

// ZeroPhase applies the filter forward then backward so the output has no
// time shift relative to the input. Cadence timing depends on preserved peak
// alignment, so every filtered path in the pipeline goes through here.
func ZeroPhase(s Spec, rateHz float64, x []float64) ([]float64, error) {
	if err := s.Validate(rateHz); err != nil {
		return nil, err
	}
	if s.Kind == KindNone {
		out := make([]float64, len(x))
		copy(out, x)
		return out, nil
	}
	secs := designSections(s, rateHz)
	pad := 3 * DesignOrder * len(secs)
	if pad > len(x)-1 {
		pad = len(x) - 1
	}
	if pad < 0 {
		pad = 0
	}
	y := oddPad(x, pad)
	for _, sec := range secs {
		y = sec.apply(y)
	}
	reverse(y)
	for _, sec := range secs {
		y = sec.apply(y)
	}
	reverse(y)
	return y[pad : pad+len(x)], nil
}
