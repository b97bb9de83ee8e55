package usecase

import (
	"context"
	"fmt"
	"math"
	"testing"

	"StrideSense/internal/domain/models"
	domsvc "StrideSense/internal/domain/service"
	"StrideSense/internal/services/estimators"
	applogger "StrideSense/pkg/logger"
)

type noopMetrics struct{}

func (noopMetrics) RecordSampleIngested(string)        {}
func (noopMetrics) RecordWindowProcessed(string)       {}
func (noopMetrics) RecordEstimatorError(string, string) {}
func (noopMetrics) RecordCadence(string, float64)      {}
func (noopMetrics) RecordLatency(string, float64)      {}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

// sliceProjector serves windows out of a fixed in-memory series sampled at
// 100 Hz starting at t=0.
type sliceProjector struct {
	data []float64
}

func (p *sliceProjector) Projection(w models.AnalysisWindow) []float64 {
	lo := int(w.StartMS / 10)
	hi := int(w.EndMS / 10)
	if lo < 0 {
		lo = 0
	}
	if hi > len(p.data) {
		hi = len(p.data)
	}
	if lo >= hi {
		return nil
	}
	out := make([]float64, hi-lo)
	copy(out, p.data[lo:hi])
	return out
}

func (p *sliceProjector) LastTimeMS() (int64, bool) {
	if len(p.data) == 0 {
		return 0, false
	}
	return int64(len(p.data)-1) * 10, true
}

func sineProjection(seconds int, freqHz, amp float64) []float64 {
	n := seconds * 100
	x := make([]float64, n)
	for i := range x {
		x[i] = amp * math.Sin(2*math.Pi*freqHz*float64(i)/100)
	}
	return x
}

func testAggConfig() AggregatorConfig {
	return AggregatorConfig{
		SamplingRateHz:   100,
		WindowDurationMS: 10_000,
		WindowStepMS:     1_000,
		EMAAlpha:         0.3,
	}
}

func defaultEstimators() []domsvc.Estimator {
	return []domsvc.Estimator{
		estimators.NewPeak(estimators.DefaultPeakConfig()),
		estimators.NewSpectral(estimators.DefaultSpectralConfig()),
		estimators.NewAutocorr(estimators.DefaultAutocorrConfig()),
	}
}

func TestAggregatorWindowCount(t *testing.T) {
	proj := &sliceProjector{data: sineProjection(20, 1.3, 50)}
	agg := NewAggregator(testAggConfig(), proj, defaultEstimators(), noopMetrics{}, testLogger(t))

	n, err := agg.Advance(context.Background())
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	// last sample at 19990 ms: window ends 10000..19000 are ready
	if n != 10 {
		t.Fatalf("processed %d windows want 10", n)
	}
	if agg.WindowsProcessed() != 10 {
		t.Fatalf("cursor reports %d windows", agg.WindowsProcessed())
	}

	// nothing new: a second advance is a no-op
	if n, _ := agg.Advance(context.Background()); n != 0 {
		t.Fatalf("re-advance processed %d windows", n)
	}
}

func TestAggregatorCadenceConverges(t *testing.T) {
	proj := &sliceProjector{data: sineProjection(30, 1.3, 50)}
	agg := NewAggregator(testAggConfig(), proj, defaultEstimators(), noopMetrics{}, testLogger(t))

	if _, err := agg.Advance(context.Background()); err != nil {
		t.Fatalf("advance: %v", err)
	}

	for _, m := range models.Methods {
		pt, ok := agg.Latest(m)
		if !ok {
			t.Fatalf("%s: no points", m)
		}
		if pt.StepsPerMinute < 70 || pt.StepsPerMinute > 85 {
			t.Fatalf("%s: smoothed %.1f spm want ~78", m, pt.StepsPerMinute)
		}
	}
}

func TestAggregatorDeterministic(t *testing.T) {
	data := sineProjection(25, 1.3, 50)
	run := func() map[models.Method][]models.CadencePoint {
		agg := NewAggregator(testAggConfig(), &sliceProjector{data: data},
			defaultEstimators(), noopMetrics{}, testLogger(t))
		if _, err := agg.Advance(context.Background()); err != nil {
			t.Fatalf("advance: %v", err)
		}
		out := make(map[models.Method][]models.CadencePoint)
		for _, m := range models.Methods {
			out[m] = agg.Smoothed(m, 0, 0, 0)
		}
		return out
	}

	a, b := run(), run()
	for _, m := range models.Methods {
		if len(a[m]) != len(b[m]) {
			t.Fatalf("%s: lengths differ %d vs %d", m, len(a[m]), len(b[m]))
		}
		for i := range a[m] {
			if a[m][i] != b[m][i] {
				t.Fatalf("%s: point %d differs: %+v vs %+v", m, i, a[m][i], b[m][i])
			}
		}
	}
}

// constEstimator always reports the same cadence.
type constEstimator struct {
	m   models.Method
	spm float64
}

func (e constEstimator) Method() models.Method { return e.m }
func (e constEstimator) Estimate(w models.AnalysisWindow, _ []float64, _ float64) (models.CadenceEstimate, error) {
	return models.CadenceEstimate{Window: w, Method: e.m, StepsPerMinute: e.spm}, nil
}

func TestAggregatorEMAConstantIsIdentity(t *testing.T) {
	proj := &sliceProjector{data: sineProjection(20, 1.3, 50)}
	agg := NewAggregator(testAggConfig(), proj,
		[]domsvc.Estimator{constEstimator{m: models.MethodPeak, spm: 160}},
		noopMetrics{}, testLogger(t))

	if _, err := agg.Advance(context.Background()); err != nil {
		t.Fatalf("advance: %v", err)
	}
	pts := agg.Smoothed(models.MethodPeak, 0, 0, 0)
	if len(pts) == 0 {
		t.Fatalf("no points")
	}
	for i, pt := range pts {
		if math.Abs(pt.StepsPerMinute-160) > 1e-9 {
			t.Fatalf("point %d: %.12f want 160", i, pt.StepsPerMinute)
		}
	}
}

// failingEstimator fails every window.
type failingEstimator struct{ m models.Method }

func (e failingEstimator) Method() models.Method { return e.m }
func (e failingEstimator) Estimate(w models.AnalysisWindow, _ []float64, _ float64) (models.CadenceEstimate, error) {
	return models.CadenceEstimate{}, fmt.Errorf("%w: induced", models.ErrNoSignal)
}

func TestAggregatorFailedWindowsAreGaps(t *testing.T) {
	proj := &sliceProjector{data: sineProjection(20, 1.3, 50)}
	agg := NewAggregator(testAggConfig(), proj,
		[]domsvc.Estimator{
			constEstimator{m: models.MethodPeak, spm: 150},
			failingEstimator{m: models.MethodSpectral},
		},
		noopMetrics{}, testLogger(t))

	n, err := agg.Advance(context.Background())
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if n != 10 {
		t.Fatalf("processed %d windows want 10", n)
	}
	if got := len(agg.Smoothed(models.MethodPeak, 0, 0, 0)); got != 10 {
		t.Fatalf("peak series has %d points want 10", got)
	}
	if got := len(agg.Smoothed(models.MethodSpectral, 0, 0, 0)); got != 0 {
		t.Fatalf("failed method produced %d points want 0", got)
	}
	if _, ok := agg.Latest(models.MethodSpectral); ok {
		t.Fatalf("failed method must report no latest point")
	}
}

func TestAggregatorSmoothedFilters(t *testing.T) {
	proj := &sliceProjector{data: sineProjection(20, 1.3, 50)}
	agg := NewAggregator(testAggConfig(), proj,
		[]domsvc.Estimator{constEstimator{m: models.MethodPeak, spm: 100}},
		noopMetrics{}, testLogger(t))
	if _, err := agg.Advance(context.Background()); err != nil {
		t.Fatalf("advance: %v", err)
	}

	all := agg.Smoothed(models.MethodPeak, 0, 0, 0)
	if len(all) != 10 {
		t.Fatalf("series has %d points", len(all))
	}
	if got := agg.Smoothed(models.MethodPeak, 0, 0, 3); len(got) != 3 {
		t.Fatalf("limit ignored: %d points", len(got))
	}
	got := agg.Smoothed(models.MethodPeak, 15_000, 17_000, 0)
	if len(got) != 3 {
		t.Fatalf("range query returned %d points want 3", len(got))
	}
	if got[0].TimeMS != 15_000 || got[2].TimeMS != 17_000 {
		t.Fatalf("range [%d, %d] want [15000, 17000]", got[0].TimeMS, got[2].TimeMS)
	}
}

func TestAggregatorCanceledContext(t *testing.T) {
	proj := &sliceProjector{data: sineProjection(20, 1.3, 50)}
	agg := NewAggregator(testAggConfig(), proj, defaultEstimators(), noopMetrics{}, testLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := agg.Advance(ctx); err == nil {
		t.Fatalf("expected context error")
	}
	if agg.WindowsProcessed() != 0 {
		t.Fatalf("canceled run advanced the cursor")
	}
}
