package estimators

import (
	"StrideSense/internal/domain/models"
	domsvc "StrideSense/internal/domain/service"
	"StrideSense/internal/dsp"
)

// AutocorrConfig tunes the autocorrelation estimator.
type AutocorrConfig struct {
	Filter            dsp.Spec
	MinPeakDistanceMS float64
}

// DefaultAutocorrConfig uses a slightly wider band than the spectral method;
// the autocorrelation is more tolerant of low-frequency leakage.
func DefaultAutocorrConfig() AutocorrConfig {
	return AutocorrConfig{
		Filter: dsp.Spec{
			Kind:         dsp.KindBandPass,
			CutoffLowHz:  0.3,
			CutoffHighHz: 4.0,
		},
		MinPeakDistanceMS: 200,
	}
}

// Autocorr counts periodic repetitions: each local maximum of the one-sided
// autocorrelation (excluding the zero-lag peak) marks one period of the step
// signal within the window. Same harmonic-doubling caveat as the spectral
// method.
type Autocorr struct {
	cfg AutocorrConfig
}

func NewAutocorr(cfg AutocorrConfig) *Autocorr { return &Autocorr{cfg: cfg} }

func (e *Autocorr) Method() models.Method { return models.MethodAutocorr }

func (e *Autocorr) Estimate(w models.AnalysisWindow, projection []float64, rateHz float64) (models.CadenceEstimate, error) {
	if err := checkWindow(w, projection); err != nil {
		return models.CadenceEstimate{}, err
	}

	filtered, err := dsp.ZeroPhase(e.cfg.Filter, rateHz, projection)
	if err != nil {
		return models.CadenceEstimate{}, err
	}

	ac := dsp.Autocorrelation(filtered)
	// Interior maxima only: lag zero sits at the slice edge and is never a
	// candidate.
	peaks := dsp.FindPeaks(ac, dsp.PeakOptions{
		MinDistance: distanceSamples(e.cfg.MinPeakDistanceMS, rateHz),
	})

	return models.CadenceEstimate{
		Window:         w,
		Method:         models.MethodAutocorr,
		StepsPerMinute: countToSPM(len(peaks), w),
	}, nil
}

var _ domsvc.Estimator = (*Autocorr)(nil)
