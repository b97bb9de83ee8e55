package calibration

import (
	"errors"
	"math"
	"testing"

	"StrideSense/internal/domain/models"
)

func stationarySamples(n int, accel models.Vec3) []models.Sample {
	out := make([]models.Sample, n)
	for i := range out {
		out[i] = models.Sample{TimeMS: int64(i) * 10, AccelG: accel}
	}
	return out
}

func TestEstimateGravity(t *testing.T) {
	samples := stationarySamples(100, models.Vec3{0, 0, 1})
	gv, err := EstimateGravity(samples, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gv.Samples != 100 {
		t.Fatalf("samples %d want 100", gv.Samples)
	}
	if gv.Vec != (models.Vec3{0, 0, 1}) {
		t.Fatalf("gravity %v want (0,0,1)", gv.Vec)
	}

	// a stationary sample corrects to exactly zero
	corrected := gv.Corrected(samples[0])
	if corrected != (models.Vec3{}) {
		t.Fatalf("corrected %v want zero", corrected)
	}
}

func TestEstimateGravityAverages(t *testing.T) {
	samples := []models.Sample{
		{AccelG: models.Vec3{0, 0, 0.9}},
		{AccelG: models.Vec3{0, 0, 1.1}},
	}
	gv, err := EstimateGravity(samples, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(gv.Vec[2]-1.0) > 1e-12 {
		t.Fatalf("gravity z %.6f want 1.0", gv.Vec[2])
	}
}

func TestEstimateGravityInsufficient(t *testing.T) {
	samples := stationarySamples(50, models.Vec3{0, 0, 1})
	_, err := EstimateGravity(samples, 100)
	if !errors.Is(err, models.ErrInsufficientCalibrationData) {
		t.Fatalf("expected ErrInsufficientCalibrationData, got %v", err)
	}
}

func TestCorrectedSeriesScales(t *testing.T) {
	gv := models.GravityVector{Vec: models.Vec3{0, 0, 1}, Samples: 100}
	samples := []models.Sample{{AccelG: models.Vec3{0, 0, 2}}}
	out := CorrectedSeries(gv, samples)
	if math.Abs(out[0][2]-models.GravityToMS2) > 1e-12 {
		t.Fatalf("corrected z %.6f want %.1f", out[0][2], models.GravityToMS2)
	}
}

func TestExtractMotionAxisSingleAxis(t *testing.T) {
	corrected := make([]models.Vec3, 500)
	for i := range corrected {
		corrected[i] = models.Vec3{10 * math.Sin(float64(i)/10), 0, 0}
	}
	axis, err := ExtractMotionAxis(corrected)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(math.Abs(axis.Axis[0])-1) > 1e-9 {
		t.Fatalf("axis %v, expected +/- x unit vector", axis.Axis)
	}
}

func TestExtractMotionAxisStationary(t *testing.T) {
	corrected := make([]models.Vec3, 500)
	_, err := ExtractMotionAxis(corrected)
	if !errors.Is(err, models.ErrDegenerateMotionAxis) {
		t.Fatalf("expected ErrDegenerateMotionAxis, got %v", err)
	}
}

func TestExtractMotionAxisIsotropic(t *testing.T) {
	var corrected []models.Vec3
	for _, sx := range []float64{-1, 1} {
		for _, sy := range []float64{-1, 1} {
			for _, sz := range []float64{-1, 1} {
				corrected = append(corrected, models.Vec3{sx, sy, sz})
			}
		}
	}
	_, err := ExtractMotionAxis(corrected)
	if !errors.Is(err, models.ErrDegenerateMotionAxis) {
		t.Fatalf("expected ErrDegenerateMotionAxis for isotropic variance, got %v", err)
	}
}

func TestExtractMotionAxisTooFew(t *testing.T) {
	_, err := ExtractMotionAxis([]models.Vec3{{1, 0, 0}})
	if !errors.Is(err, models.ErrDegenerateMotionAxis) {
		t.Fatalf("expected ErrDegenerateMotionAxis, got %v", err)
	}
}

func TestProjectSeries(t *testing.T) {
	axis := models.MotionAxis{Axis: models.Vec3{0, 0, 1}}
	corrected := []models.Vec3{{1, 2, 3}, {4, 5, -6}}
	got := ProjectSeries(axis, corrected)
	if got[0] != 3 || got[1] != -6 {
		t.Fatalf("projection %v want [3 -6]", got)
	}
}
