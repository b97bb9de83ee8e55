package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"StrideSense/internal/domain/models"
	domrepo "StrideSense/internal/domain/repository"
	domsvc "StrideSense/internal/domain/service"
	applogger "StrideSense/pkg/logger"
)

// AggregatorConfig holds the windowing parameters. Everything here is
// per-session configuration, never a package constant.
type AggregatorConfig struct {
	SamplingRateHz   float64
	WindowDurationMS int64
	WindowStepMS     int64
	EMAAlpha         float64
}

// Aggregator slides a fixed-duration analysis window across the sample
// stream, fans the projection of each window out to the three estimators,
// and folds the raw per-window results into EMA-smoothed per-method series.
// Window advancement is strictly sequential: the EMA carries state forward.
type Aggregator struct {
	cfg        AggregatorConfig
	projector  Projector
	estimators []domsvc.Estimator
	metrics    domrepo.Metrics
	logger     *applogger.Logger

	sink *TelemetryBatcher // optional telemetry sink

	mu          sync.RWMutex
	nextStartMS int64
	estimates   map[models.Method][]models.CadenceEstimate
	smoothed    map[models.Method][]models.CadencePoint
	emaState    map[models.Method]float64
	emaSeeded   map[models.Method]bool
}

// Projector turns an analysis window into the scalar projection series.
type Projector interface {
	Projection(w models.AnalysisWindow) []float64
	LastTimeMS() (int64, bool)
}

// NewAggregator creates an aggregator over the given estimators.
func NewAggregator(cfg AggregatorConfig, projector Projector, estimators []domsvc.Estimator,
	metrics domrepo.Metrics, logger *applogger.Logger) *Aggregator {
	return &Aggregator{
		cfg:        cfg,
		projector:  projector,
		estimators: estimators,
		metrics:    metrics,
		logger:     logger,
		estimates:  make(map[models.Method][]models.CadenceEstimate),
		smoothed:   make(map[models.Method][]models.CadencePoint),
		emaState:   make(map[models.Method]float64),
		emaSeeded:  make(map[models.Method]bool),
	}
}

// SetProjector attaches the projection source. The session implements it,
// and the session is built on top of the aggregator, so wiring sets it after
// construction. Must be called before Advance.
func (a *Aggregator) SetProjector(p Projector) { a.projector = p }

// SetSink attaches the optional telemetry batcher. Must be set before the
// first Advance.
func (a *Aggregator) SetSink(sink *TelemetryBatcher) { a.sink = sink }

// Sink returns the attached telemetry batcher, nil without a backend.
func (a *Aggregator) Sink() *TelemetryBatcher { return a.sink }

// windowResult carries one estimator's outcome for a window.
type windowResult struct {
	method models.Method
	est    models.CadenceEstimate
	err    error
}

// Advance processes every window whose end time the buffer has already
// reached. Returns the number of windows processed. A canceled context
// abandons the in-flight window without emitting partial results.
func (a *Aggregator) Advance(ctx context.Context) (int, error) {
	last, ok := a.projector.LastTimeMS()
	if !ok {
		return 0, nil
	}

	processed := 0
	for {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		a.mu.RLock()
		start := a.nextStartMS
		a.mu.RUnlock()

		w := models.AnalysisWindow{StartMS: start, EndMS: start + a.cfg.WindowDurationMS}
		if w.EndMS > last {
			return processed, nil
		}
		if err := a.processWindow(ctx, w); err != nil {
			return processed, err
		}
		a.mu.Lock()
		a.nextStartMS = start + a.cfg.WindowStepMS
		a.mu.Unlock()
		processed++
	}
}

// processWindow runs all estimators on one window in parallel and folds the
// results sequentially. Per-window estimator failures are recorded as gaps
// and never retried; only context cancellation aborts.
func (a *Aggregator) processWindow(ctx context.Context, w models.AnalysisWindow) error {
	started := time.Now()
	projection := a.projector.Projection(w)

	ch := make(chan windowResult, len(a.estimators))
	var wg sync.WaitGroup
	for _, est := range a.estimators {
		wg.Add(1)
		go func(est domsvc.Estimator) {
			defer wg.Done()
			res, err := est.Estimate(w, projection, a.cfg.SamplingRateHz)
			ch <- windowResult{method: est.Method(), est: res, err: err}
		}(est)
	}
	wg.Wait()
	close(ch)

	if err := ctx.Err(); err != nil {
		// Abandon cleanly: no partial per-method results for this window.
		return err
	}

	results := make(map[models.Method]windowResult, len(a.estimators))
	for r := range ch {
		results[r.method] = r
	}

	// Sequential fold in fixed method order keeps the series deterministic.
	a.mu.Lock()
	for _, m := range models.Methods {
		r, ok := results[m]
		if !ok {
			continue
		}
		if r.err != nil {
			a.metrics.RecordEstimatorError(string(m), errorKind(r.err))
			a.logger.Debug("window estimate failed",
				applogger.String("method", string(m)),
				applogger.Int64("window_start_ms", w.StartMS),
				applogger.Error(r.err))
			continue
		}
		a.estimates[m] = append(a.estimates[m], r.est)
		pt := a.smooth(m, r.est)
		a.smoothed[m] = append(a.smoothed[m], pt)
		a.metrics.RecordWindowProcessed(string(m))
		a.metrics.RecordCadence(string(m), pt.StepsPerMinute)
	}
	a.mu.Unlock()

	a.emit(ctx, results)
	a.metrics.RecordLatency("window_process", time.Since(started).Seconds())
	return nil
}

// smooth folds one raw estimate into the method's EMA series. Raw per-window
// step counts are integer-quantized and jump between overlapping windows;
// the EMA turns them into a continuous readout.
func (a *Aggregator) smooth(m models.Method, e models.CadenceEstimate) models.CadencePoint {
	v := e.StepsPerMinute
	if a.emaSeeded[m] {
		v = a.cfg.EMAAlpha*e.StepsPerMinute + (1-a.cfg.EMAAlpha)*a.emaState[m]
	}
	a.emaState[m] = v
	a.emaSeeded[m] = true
	return models.CadencePoint{TimeMS: e.Window.EndMS, StepsPerMinute: v}
}

// emit hands successful window results to the optional telemetry batcher,
// which forwards them to the sinks on its own batch cadence.
func (a *Aggregator) emit(ctx context.Context, results map[models.Method]windowResult) {
	if a.sink == nil {
		return
	}
	for _, m := range models.Methods {
		r, ok := results[m]
		if !ok || r.err != nil {
			continue
		}
		a.mu.RLock()
		pts := a.smoothed[m]
		var pt models.CadencePoint
		if len(pts) > 0 {
			pt = pts[len(pts)-1]
		}
		a.mu.RUnlock()
		a.sink.Emit(ctx, m, r.est, pt)
	}
}

// Smoothed returns a copy of the smoothed series for one method, optionally
// restricted to [fromMS, toMS] (toMS zero means unbounded) and capped at
// limit points.
func (a *Aggregator) Smoothed(m models.Method, fromMS, toMS int64, limit int) []models.CadencePoint {
	a.mu.RLock()
	defer a.mu.RUnlock()

	src := a.smoothed[m]
	out := make([]models.CadencePoint, 0, len(src))
	for _, p := range src {
		if p.TimeMS < fromMS {
			continue
		}
		if toMS > 0 && p.TimeMS > toMS {
			break
		}
		out = append(out, p)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Latest returns the newest smoothed point for a method.
func (a *Aggregator) Latest(m models.Method) (models.CadencePoint, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	pts := a.smoothed[m]
	if len(pts) == 0 {
		return models.CadencePoint{}, false
	}
	return pts[len(pts)-1], true
}

// Estimates returns a copy of the raw per-window estimates for a method.
func (a *Aggregator) Estimates(m models.Method) []models.CadenceEstimate {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]models.CadenceEstimate(nil), a.estimates[m]...)
}

// WindowsProcessed reports how many window steps have completed.
func (a *Aggregator) WindowsProcessed() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.cfg.WindowStepMS == 0 {
		return 0
	}
	return a.nextStartMS / a.cfg.WindowStepMS
}

// errorKind maps per-window failures onto low-cardinality metric labels.
func errorKind(err error) string {
	switch {
	case errors.Is(err, models.ErrWindowTooShort):
		return "window_too_short"
	case errors.Is(err, models.ErrNoSignal):
		return "no_signal"
	case errors.Is(err, models.ErrFilterDesign):
		return "filter_design"
	default:
		return "other"
	}
}
