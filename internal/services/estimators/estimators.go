// Package estimators provides the three cadence estimation strategies: peak
// detection, spectral dominant-frequency, and autocorrelation. All three are
// stateless and consume one analysis window of the motion-axis projection.
package estimators

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"StrideSense/internal/domain/models"
)

// MinWindowSamples is the smallest window any estimator accepts. Below this
// the estimate would be noise, so the window fails instead.
const MinWindowSamples = 32

// checkWindow applies the guards shared by all estimators.
func checkWindow(w models.AnalysisWindow, projection []float64) error {
	if len(projection) < MinWindowSamples {
		return fmt.Errorf("%w: %d samples in [%d, %d)", models.ErrWindowTooShort,
			len(projection), w.StartMS, w.EndMS)
	}
	if stat.Variance(projection, nil) == 0 {
		return fmt.Errorf("%w: flat window [%d, %d)", models.ErrNoSignal, w.StartMS, w.EndMS)
	}
	return nil
}

// countToSPM converts an event count over a window to steps per minute.
func countToSPM(count int, w models.AnalysisWindow) float64 {
	sec := w.Seconds()
	if sec <= 0 {
		return 0
	}
	return float64(count) / sec * 60
}

// distanceSamples converts a minimum inter-peak gap in milliseconds to a
// sample count at the given rate.
func distanceSamples(distanceMS, rateHz float64) int {
	return int(math.Round(distanceMS / 1000 * rateHz))
}
