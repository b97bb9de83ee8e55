package calibration

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"StrideSense/internal/domain/models"
)

// Axis-extraction degeneracy thresholds. With the device stationary the
// covariance is near-zero and near-isotropic, and any eigenvector would be
// an arbitrary axis; refuse to pick one.
const (
	minAxisVariance = 1e-6
	minAnisotropy   = 1.5 // dominant eigenvalue vs mean of the other two
)

// ExtractMotionAxis computes the principal direction of motion over a
// reference span of gravity-corrected acceleration: the eigenvector of the
// 3x3 covariance matrix with the largest eigenvalue. The sensor's mounting
// orientation is unknown and varies between sessions, so the axis of maximum
// variance stands in for the fore-aft step direction.
func ExtractMotionAxis(corrected []models.Vec3) (models.MotionAxis, error) {
	if len(corrected) < 2 {
		return models.MotionAxis{}, fmt.Errorf("%w: %d samples", models.ErrDegenerateMotionAxis, len(corrected))
	}

	var mean models.Vec3
	for _, v := range corrected {
		mean = mean.Add(v)
	}
	mean = mean.Scale(1 / float64(len(corrected)))

	var cov [3][3]float64
	for _, v := range corrected {
		d := v.Sub(mean)
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				cov[r][c] += d[r] * d[c]
			}
		}
	}
	norm := 1 / float64(len(corrected)-1)
	sym := mat.NewSymDense(3, nil)
	for r := 0; r < 3; r++ {
		for c := r; c < 3; c++ {
			sym.SetSym(r, c, cov[r][c]*norm)
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		return models.MotionAxis{}, fmt.Errorf("%w: eigendecomposition failed", models.ErrDegenerateMotionAxis)
	}
	vals := eig.Values(nil) // ascending
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	dominant := vals[2]
	rest := (vals[0] + vals[1]) / 2
	if dominant < minAxisVariance {
		return models.MotionAxis{}, fmt.Errorf("%w: variance %.3g below floor", models.ErrDegenerateMotionAxis, dominant)
	}
	if rest > 0 && dominant/rest < minAnisotropy {
		return models.MotionAxis{}, fmt.Errorf("%w: variance near-isotropic (ratio %.2f)", models.ErrDegenerateMotionAxis, dominant/rest)
	}

	axis := models.Vec3{vecs.At(0, 2), vecs.At(1, 2), vecs.At(2, 2)}
	return models.MotionAxis{Axis: axis}, nil
}

// ProjectSeries projects every corrected acceleration vector onto the motion
// axis, yielding the scalar step signal fed to the estimators.
func ProjectSeries(axis models.MotionAxis, corrected []models.Vec3) []float64 {
	out := make([]float64, len(corrected))
	for i, v := range corrected {
		out[i] = axis.Project(v)
	}
	return out
}
