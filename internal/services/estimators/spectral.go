package estimators

import (
	"fmt"

	"StrideSense/internal/domain/models"
	domsvc "StrideSense/internal/domain/service"
	"StrideSense/internal/dsp"
)

// SpectralConfig tunes the spectral estimator's analysis band.
type SpectralConfig struct {
	Filter dsp.Spec
}

// DefaultSpectralConfig band-passes 0.5-4.0 Hz, covering walking through
// sprinting step rates.
func DefaultSpectralConfig() SpectralConfig {
	return SpectralConfig{Filter: dsp.Spec{
		Kind:         dsp.KindBandPass,
		CutoffLowHz:  0.5,
		CutoffHighHz: 4.0,
	}}
}

// Spectral takes the frequency of maximum power in the band-passed window's
// periodogram as the step frequency. Foot-strike signals are strongly
// bilateral, so the dominant line is commonly the second harmonic: outputs
// run roughly double a single-foot peak count, which is expected behavior.
type Spectral struct {
	cfg SpectralConfig
}

func NewSpectral(cfg SpectralConfig) *Spectral { return &Spectral{cfg: cfg} }

func (e *Spectral) Method() models.Method { return models.MethodSpectral }

func (e *Spectral) Estimate(w models.AnalysisWindow, projection []float64, rateHz float64) (models.CadenceEstimate, error) {
	if err := checkWindow(w, projection); err != nil {
		return models.CadenceEstimate{}, err
	}

	filtered, err := dsp.ZeroPhase(e.cfg.Filter, rateHz, projection)
	if err != nil {
		return models.CadenceEstimate{}, err
	}

	freq, ok := dsp.DominantFrequency(filtered, rateHz, e.cfg.Filter.CutoffLowHz, e.cfg.Filter.CutoffHighHz)
	if !ok {
		return models.CadenceEstimate{}, fmt.Errorf("%w: no spectral line in %.2f-%.2f Hz",
			models.ErrNoSignal, e.cfg.Filter.CutoffLowHz, e.cfg.Filter.CutoffHighHz)
	}

	return models.CadenceEstimate{
		Window:         w,
		Method:         models.MethodSpectral,
		StepsPerMinute: freq * 60,
	}, nil
}

var _ domsvc.Estimator = (*Spectral)(nil)
