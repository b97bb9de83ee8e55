package calibration

import (
	"fmt"

	"StrideSense/internal/domain/models"
)

// DefaultCalibrationSamples is the default stationary span used to estimate
// gravity: one second at the nominal 100 Hz device rate.
const DefaultCalibrationSamples = 100

// EstimateGravity computes the per-session gravity vector as the arithmetic
// mean of the first required samples. The device is assumed stationary over
// the span; re-calibration starts a new session rather than recomputing.
func EstimateGravity(samples []models.Sample, required int) (models.GravityVector, error) {
	if required <= 0 {
		required = DefaultCalibrationSamples
	}
	if len(samples) < required {
		return models.GravityVector{}, fmt.Errorf("%w: have %d samples, need %d",
			models.ErrInsufficientCalibrationData, len(samples), required)
	}

	var sum models.Vec3
	for _, s := range samples[:required] {
		sum = sum.Add(s.AccelG)
	}
	return models.GravityVector{
		Vec:     sum.Scale(1 / float64(required)),
		Samples: required,
	}, nil
}

// CorrectedSeries applies gravity correction to every sample, returning one
// 3-vector per sample in m/s^2.
func CorrectedSeries(gv models.GravityVector, samples []models.Sample) []models.Vec3 {
	out := make([]models.Vec3, len(samples))
	for i, s := range samples {
		out[i] = gv.Corrected(s)
	}
	return out
}
