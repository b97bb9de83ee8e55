package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"StrideSense/internal/domain/models"
	"StrideSense/internal/export"
	pkgcache "StrideSense/pkg/cache"
	applogger "StrideSense/pkg/logger"
)

// Readout serves the live cadence view to the API layer. Lookups go through
// the cache so a polling UI does not hit the aggregator locks on every tick.
type Readout struct {
	session *Session
	cache   pkgcache.Service
	ttl     time.Duration
	logger  *applogger.Logger
}

// NewReadout creates the readout service. cache may be nil, in which case
// every lookup goes straight to the aggregator.
func NewReadout(session *Session, cache pkgcache.Service, ttl time.Duration, logger *applogger.Logger) *Readout {
	if ttl <= 0 {
		ttl = 2 * time.Second
	}
	return &Readout{session: session, cache: cache, ttl: ttl, logger: logger}
}

func readoutKey(m models.Method) string {
	return "readout:" + string(m)
}

// Latest returns the most recent smoothed cadence for one method. The second
// return is false before the first window completes.
func (r *Readout) Latest(ctx context.Context, m models.Method) (models.Readout, bool) {
	if r.cache != nil {
		var cached models.Readout
		err := r.cache.Get(ctx, readoutKey(m), &cached)
		if err == nil {
			return cached, true
		}
		if !errors.Is(err, pkgcache.ErrCacheMiss) {
			r.logger.Warn("readout cache get failed", applogger.String("method", string(m)), applogger.Error(err))
		}
	}

	pt, ok := r.session.Aggregator().Latest(m)
	if !ok {
		return models.Readout{}, false
	}
	out := models.Readout{
		Method:         m,
		TimeMS:         pt.TimeMS,
		StepsPerMinute: pt.StepsPerMinute,
		UpdatedAt:      time.Now().UTC(),
	}
	if r.cache != nil {
		if err := r.cache.Set(ctx, readoutKey(m), out, r.ttl); err != nil {
			r.logger.Warn("readout cache set failed", applogger.String("method", string(m)), applogger.Error(err))
		}
	}
	return out, true
}

// All returns the latest readout for every method that has produced a window.
func (r *Readout) All(ctx context.Context) []models.Readout {
	out := make([]models.Readout, 0, len(models.Methods))
	for _, m := range models.Methods {
		if ro, ok := r.Latest(ctx, m); ok {
			out = append(out, ro)
		}
	}
	return out
}

// Series returns the smoothed cadence series for one method, bounded by
// [fromMS, toMS] when toMS > 0 and capped at limit points.
func (r *Readout) Series(m models.Method, fromMS, toMS int64, limit int) []models.CadencePoint {
	return r.session.Aggregator().Smoothed(m, fromMS, toMS, limit)
}

// State returns the session view for the API.
func (r *Readout) State() SessionState {
	return r.session.State()
}

// History returns persisted estimates from the telemetry backend, oldest
// first.
func (r *Readout) History(ctx context.Context, m models.Method, from, to time.Time, limit int) ([]models.CadenceEstimate, error) {
	sink := r.session.Aggregator().Sink()
	if sink == nil {
		return nil, models.ErrNoHistoryBackend
	}
	return sink.History(ctx, m, from, to, limit)
}

// Ready reports whether the telemetry backend is reachable. Without one the
// service is trivially ready.
func (r *Readout) Ready(ctx context.Context) error {
	if sink := r.session.Aggregator().Sink(); sink != nil {
		return sink.Health(ctx)
	}
	return nil
}

// ExportGPX writes the peak-method smoothed series as a GPX track. startTime
// anchors the device's relative clock; positions are optional GNSS fixes.
func (r *Readout) ExportGPX(w io.Writer, startTime time.Time, trackName string, positions []models.TrackPosition) error {
	series := r.session.Aggregator().Smoothed(models.MethodPeak, 0, 0, 0)
	if len(series) == 0 {
		return fmt.Errorf("no cadence data to export")
	}
	exp := &export.Exporter{TrackName: trackName}
	return exp.WriteTrack(w, startTime, series, positions)
}
