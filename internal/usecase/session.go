package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"StrideSense/internal/domain/models"
	domrepo "StrideSense/internal/domain/repository"
	"StrideSense/internal/services/calibration"
	applogger "StrideSense/pkg/logger"
)

// SessionConfig holds per-session pipeline parameters.
type SessionConfig struct {
	ID                   string
	SamplingRateHz       float64
	CalibrationSamples   int
	AxisReferenceSamples int
	StepInterval         time.Duration // live loop tick
}

// Session owns the per-session state the pipeline is allowed to carry: the
// gravity vector and the motion axis, both computed once and never
// recomputed mid-session. Everything else derived from the buffer is a pure
// function of its contents plus configuration.
type Session struct {
	cfg     SessionConfig
	store   domrepo.SampleStore
	agg     *Aggregator
	metrics domrepo.Metrics
	logger  *applogger.Logger

	mu      sync.RWMutex
	gravity *models.GravityVector
	axis    *models.MotionAxis
}

// SessionState is the queryable session view for the API.
type SessionState struct {
	ID          string       `json:"id"`
	Calibrated  bool         `json:"calibrated"`
	Gravity     *models.Vec3 `json:"gravity,omitempty"`
	MotionAxis  *models.Vec3 `json:"motion_axis,omitempty"`
	SampleCount int          `json:"sample_count"`
	Windows     int64        `json:"windows"`
}

// NewSession creates a session over the given buffer and aggregator.
func NewSession(cfg SessionConfig, store domrepo.SampleStore, agg *Aggregator,
	metrics domrepo.Metrics, logger *applogger.Logger) *Session {
	if cfg.CalibrationSamples <= 0 {
		cfg.CalibrationSamples = calibration.DefaultCalibrationSamples
	}
	if cfg.AxisReferenceSamples <= 0 {
		cfg.AxisReferenceSamples = 10 * cfg.CalibrationSamples
	}
	if cfg.StepInterval <= 0 {
		cfg.StepInterval = time.Second
	}
	return &Session{cfg: cfg, store: store, agg: agg, metrics: metrics, logger: logger}
}

// Calibrated reports whether both the gravity vector and motion axis exist.
func (s *Session) Calibrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gravity != nil && s.axis != nil
}

// Calibrate derives the gravity vector from the stationary leading span and
// the motion axis from the reference span. Both failures are session-fatal:
// they surface to the caller before any windowing begins, and the caller
// decides on re-calibration (a new session) or abort.
func (s *Session) Calibrate() error {
	head := s.store.Head(s.cfg.AxisReferenceSamples)

	gv, err := calibration.EstimateGravity(head, s.cfg.CalibrationSamples)
	if err != nil {
		return fmt.Errorf("gravity calibration: %w", err)
	}

	if len(head) < s.cfg.AxisReferenceSamples {
		return fmt.Errorf("motion axis: %w: have %d reference samples, need %d",
			models.ErrInsufficientCalibrationData, len(head), s.cfg.AxisReferenceSamples)
	}
	corrected := calibration.CorrectedSeries(gv, head)
	axis, err := calibration.ExtractMotionAxis(corrected)
	if err != nil {
		return fmt.Errorf("motion axis: %w", err)
	}

	s.mu.Lock()
	s.gravity = &gv
	s.axis = &axis
	s.mu.Unlock()

	s.logger.Info("session calibrated",
		applogger.String("session", s.cfg.ID),
		applogger.Int("calibration_samples", gv.Samples),
		applogger.Any("gravity_g", gv.Vec),
		applogger.Any("motion_axis", axis.Axis))
	return nil
}

// Projection implements Projector: the motion-axis projection of the
// gravity-corrected acceleration over one window. Nil until calibrated.
func (s *Session) Projection(w models.AnalysisWindow) []float64 {
	s.mu.RLock()
	gravity, axis := s.gravity, s.axis
	s.mu.RUnlock()
	if gravity == nil || axis == nil {
		return nil
	}
	samples := s.store.Window(w)
	corrected := calibration.CorrectedSeries(*gravity, samples)
	return calibration.ProjectSeries(*axis, corrected)
}

// LastTimeMS implements Projector.
func (s *Session) LastTimeMS() (int64, bool) { return s.store.LastTimeMS() }

// Run drives the live pipeline: wait for the calibration span, calibrate
// once, then advance the window cursor on every tick until the context is
// canceled. In-flight windows are abandoned cleanly on cancellation.
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.StepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session stopped", applogger.String("session", s.cfg.ID))
			return ctx.Err()
		case <-ticker.C:
			if !s.Calibrated() {
				if s.store.Len() < s.cfg.AxisReferenceSamples {
					continue
				}
				if err := s.Calibrate(); err != nil {
					return err // session-fatal
				}
			}
			started := time.Now()
			n, err := s.agg.Advance(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("aggregate: %w", err)
			}
			if n > 0 {
				s.metrics.RecordLatency("session_advance", time.Since(started).Seconds())
			}
		}
	}
}

// RunBatch processes an already ingested buffer in one pass: calibrate, then
// advance over every ready window. Replay and live ingestion share all
// estimator logic; replay is just "ingest everything, aggregate once".
func (s *Session) RunBatch(ctx context.Context) error {
	if !s.Calibrated() {
		if err := s.Calibrate(); err != nil {
			return err
		}
	}
	if _, err := s.agg.Advance(ctx); err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}
	return nil
}

// State returns the queryable session view.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := SessionState{
		ID:          s.cfg.ID,
		Calibrated:  s.gravity != nil && s.axis != nil,
		SampleCount: s.store.Len(),
		Windows:     s.agg.WindowsProcessed(),
	}
	if s.gravity != nil {
		v := s.gravity.Vec
		st.Gravity = &v
	}
	if s.axis != nil {
		v := s.axis.Axis
		st.MotionAxis = &v
	}
	return st
}

// Aggregator exposes the underlying aggregator for readout queries.
func (s *Session) Aggregator() *Aggregator { return s.agg }
