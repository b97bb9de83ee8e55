package service

import (
	"StrideSense/internal/domain/models"
)

// Estimator is a stateless cadence estimation strategy. Implementations
// consume one analysis window of the motion-axis projection series (applying
// their own filter configuration to it) and emit steps-per-minute for that
// window. Estimators for the same window may run concurrently.
type Estimator interface {
	Method() models.Method
	// Estimate computes cadence for the window given the projection series
	// sampled at rateHz. Fails with models.ErrWindowTooShort or
	// models.ErrNoSignal; failures are per-window and never retried.
	Estimate(w models.AnalysisWindow, projection []float64, rateHz float64) (models.CadenceEstimate, error)
}
