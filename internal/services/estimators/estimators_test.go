package estimators

import (
	"errors"
	"math"
	"testing"

	"StrideSense/internal/domain/models"
	"StrideSense/internal/dsp"
)

const testRate = 100.0

// stepSine is a 20 s projection signal at the given step rate, amplitude
// matched to the corrected-acceleration scale the thresholds expect.
func stepSine(freqHz float64) (models.AnalysisWindow, []float64) {
	w := models.AnalysisWindow{StartMS: 0, EndMS: 20_000}
	n := 2000
	x := make([]float64, n)
	for i := range x {
		x[i] = 50 * math.Sin(2*math.Pi*freqHz*float64(i)/testRate)
	}
	return w, x
}

func TestPeakEstimateSine(t *testing.T) {
	w, x := stepSine(1.3)
	est, err := NewPeak(DefaultPeakConfig()).Estimate(w, x, testRate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 26 maxima and 26 minima over 20 s: 78 spm
	if math.Abs(est.StepsPerMinute-78) > 3 {
		t.Fatalf("peak spm %.1f want ~78", est.StepsPerMinute)
	}
	if est.Method != models.MethodPeak {
		t.Fatalf("method %q", est.Method)
	}
	if est.Window != w {
		t.Fatalf("window %+v not preserved", est.Window)
	}
}

func TestPeakEstimateBelowHeightFloor(t *testing.T) {
	w, x := stepSine(1.3)
	for i := range x {
		x[i] /= 10 // amplitude 5, under the height floor of 35
	}
	est, err := NewPeak(DefaultPeakConfig()).Estimate(w, x, testRate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.StepsPerMinute != 0 {
		t.Fatalf("spm %.1f want 0 for sub-threshold signal", est.StepsPerMinute)
	}
}

func TestSpectralEstimateSine(t *testing.T) {
	w, x := stepSine(1.3)
	est, err := NewSpectral(DefaultSpectralConfig()).Estimate(w, x, testRate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// pure tone: the dominant line is the fundamental, 1.3 Hz = 78 spm
	if math.Abs(est.StepsPerMinute-78) > 3 {
		t.Fatalf("spectral spm %.1f want ~78", est.StepsPerMinute)
	}
}

func TestSpectralEstimateBadFilter(t *testing.T) {
	w, x := stepSine(1.3)
	cfg := SpectralConfig{Filter: dsp.Spec{Kind: dsp.KindBandPass, CutoffLowHz: 0.5, CutoffHighHz: 60}}
	_, err := NewSpectral(cfg).Estimate(w, x, testRate)
	if !errors.Is(err, models.ErrFilterDesign) {
		t.Fatalf("expected ErrFilterDesign, got %v", err)
	}
}

func TestAutocorrEstimateSine(t *testing.T) {
	w, x := stepSine(1.3)
	est, err := NewAutocorr(DefaultAutocorrConfig()).Estimate(w, x, testRate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// one autocorrelation maximum per period: ~25-26 over 20 s
	if est.StepsPerMinute < 70 || est.StepsPerMinute > 85 {
		t.Fatalf("autocorr spm %.1f want ~78", est.StepsPerMinute)
	}
}

func TestEstimatorsWindowTooShort(t *testing.T) {
	w := models.AnalysisWindow{StartMS: 0, EndMS: 50}
	x := []float64{1, 2, 3, 4, 5}
	ests := []interface {
		Estimate(models.AnalysisWindow, []float64, float64) (models.CadenceEstimate, error)
	}{
		NewPeak(DefaultPeakConfig()),
		NewSpectral(DefaultSpectralConfig()),
		NewAutocorr(DefaultAutocorrConfig()),
	}
	for _, e := range ests {
		if _, err := e.Estimate(w, x, testRate); !errors.Is(err, models.ErrWindowTooShort) {
			t.Fatalf("expected ErrWindowTooShort, got %v", err)
		}
	}
}

func TestEstimatorsFlatWindow(t *testing.T) {
	w := models.AnalysisWindow{StartMS: 0, EndMS: 1000}
	x := make([]float64, 100)
	for i := range x {
		x[i] = 42
	}
	if _, err := NewPeak(DefaultPeakConfig()).Estimate(w, x, testRate); !errors.Is(err, models.ErrNoSignal) {
		t.Fatalf("expected ErrNoSignal, got %v", err)
	}
}

func TestCountToSPM(t *testing.T) {
	w := models.AnalysisWindow{StartMS: 0, EndMS: 10_000}
	if got := countToSPM(13, w); math.Abs(got-78) > 1e-9 {
		t.Fatalf("got %.2f want 78", got)
	}
	if got := countToSPM(5, models.AnalysisWindow{}); got != 0 {
		t.Fatalf("zero-length window must yield 0, got %.2f", got)
	}
}
