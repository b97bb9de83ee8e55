package estimators

import (
	"StrideSense/internal/domain/models"
	domsvc "StrideSense/internal/domain/service"
	"StrideSense/internal/dsp"
)

// PeakConfig tunes the peak estimator. The defaults are calibrated to the
// corrected-acceleration scale of the source sensor at 100 Hz.
type PeakConfig struct {
	MinPeakDistanceMS float64
	MinHeight         float64
	MinProminence     float64
}

// DefaultPeakConfig returns thresholds for the motion-axis projection signal.
// Gyro-magnitude peak detection uses a height floor of 50 instead.
func DefaultPeakConfig() PeakConfig {
	return PeakConfig{
		MinPeakDistanceMS: 200,
		MinHeight:         35,
		MinProminence:     20,
	}
}

// Peak counts foot strikes directly: local maxima and local minima of the
// unfiltered projection, detected independently. Filtering is deliberately
// absent here; it attenuates the very peaks being counted.
type Peak struct {
	cfg PeakConfig
}

func NewPeak(cfg PeakConfig) *Peak { return &Peak{cfg: cfg} }

func (e *Peak) Method() models.Method { return models.MethodPeak }

func (e *Peak) Estimate(w models.AnalysisWindow, projection []float64, rateHz float64) (models.CadenceEstimate, error) {
	if err := checkWindow(w, projection); err != nil {
		return models.CadenceEstimate{}, err
	}

	opts := dsp.PeakOptions{
		MinDistance:   distanceSamples(e.cfg.MinPeakDistanceMS, rateHz),
		MinHeight:     e.cfg.MinHeight,
		MinProminence: e.cfg.MinProminence,
	}
	maxima := dsp.FindPeaks(projection, opts)

	negated := make([]float64, len(projection))
	for i, v := range projection {
		negated[i] = -v
	}
	minima := dsp.FindPeaks(negated, opts)

	// One peak per foot-strike half-cycle on each side; the two counts are
	// expected to be comparable. max() guards against asymmetric suppression
	// at the threshold boundary. Alternate rules (sum/2, min) tested worse.
	count := len(maxima)
	if len(minima) > count {
		count = len(minima)
	}

	return models.CadenceEstimate{
		Window:         w,
		Method:         models.MethodPeak,
		StepsPerMinute: countToSPM(count, w),
	}, nil
}

var _ domsvc.Estimator = (*Peak)(nil)
