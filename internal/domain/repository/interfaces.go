package repository

import (
	"context"
	"time"

	"StrideSense/internal/domain/models"
)

// SampleStream is the transport boundary to the wearable device (or a replay
// source). Blocking I/O lives behind this interface, never in the estimation
// path.
type SampleStream interface {
	Connect(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Sample, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// SampleStore is the session sample buffer: single writer, many snapshot
// readers. Window views must never observe a partially written sample.
type SampleStore interface {
	Append(s models.Sample)
	Len() int
	LastTimeMS() (int64, bool)
	// Window returns a copy of the samples with StartMS <= t < EndMS.
	Window(w models.AnalysisWindow) []models.Sample
	// Head returns a copy of the first n samples (calibration span).
	Head(n int) []models.Sample
	// All returns a copy of the full buffer in time order.
	All() []models.Sample
}

// Publisher pushes per-window cadence points to a telemetry backend.
type Publisher interface {
	Publish(ctx context.Context, session string, method models.Method, p models.CadencePoint) error
	PublishBatch(ctx context.Context, session string, method models.Method, pts []models.CadencePoint) error
	Close() error
}

// Storage persists cadence estimates for offline analysis.
type Storage interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, session string, e models.CadenceEstimate) error
	StoreBatch(ctx context.Context, session string, es []models.CadenceEstimate) error
	Query(ctx context.Context, session string, method models.Method, from, to time.Time, limit int) ([]models.CadenceEstimate, error)
	Health(ctx context.Context) error
	Close() error
}

// Metrics abstracts the pipeline's operational metrics.
type Metrics interface {
	RecordSampleIngested(source string)
	RecordWindowProcessed(method string)
	RecordEstimatorError(method, kind string)
	RecordCadence(method string, spm float64)
	RecordLatency(op string, seconds float64)
}
