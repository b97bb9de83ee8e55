package usecase

import (
	"context"
	"sync"
	"time"

	"StrideSense/internal/domain/models"
	domrepo "StrideSense/internal/domain/repository"
	applogger "StrideSense/pkg/logger"
)

// TelemetryBatcher buffers per-window results and forwards them to the
// configured sinks in batches. Windows advance once per step (default one
// second), so flushing is checked on every emit rather than on a timer: a
// batch goes out when it reaches batchSize or when batchTimeout has passed
// since the previous flush. Sink failures are telemetry-local: logged and
// counted, never retried, and never fed back into the estimation path.
type TelemetryBatcher struct {
	publisher domrepo.Publisher
	storage   domrepo.Storage
	session   string
	batchSize int
	timeout   time.Duration
	metrics   domrepo.Metrics
	logger    *applogger.Logger

	mu        sync.Mutex
	estimates []models.CadenceEstimate
	points    map[models.Method][]models.CadencePoint
	buffered  int
	lastFlush time.Time
}

// NewTelemetryBatcher creates a batcher over the given sinks. Either sink
// may be nil. batchSize <= 1 flushes every window.
func NewTelemetryBatcher(pub domrepo.Publisher, store domrepo.Storage, session string,
	batchSize int, timeout time.Duration, m domrepo.Metrics, logger *applogger.Logger) *TelemetryBatcher {
	if batchSize < 1 {
		batchSize = 1
	}
	return &TelemetryBatcher{
		publisher: pub,
		storage:   store,
		session:   session,
		batchSize: batchSize,
		timeout:   timeout,
		metrics:   m,
		logger:    logger,
		points:    make(map[models.Method][]models.CadencePoint),
		lastFlush: time.Now(),
	}
}

// Emit buffers one successful window result and flushes when the batch is
// due.
func (b *TelemetryBatcher) Emit(ctx context.Context, m models.Method, est models.CadenceEstimate, pt models.CadencePoint) {
	b.mu.Lock()
	if b.storage != nil {
		b.estimates = append(b.estimates, est)
	}
	if b.publisher != nil {
		b.points[m] = append(b.points[m], pt)
	}
	b.buffered++
	due := b.buffered >= b.batchSize ||
		(b.timeout > 0 && time.Since(b.lastFlush) >= b.timeout)
	b.mu.Unlock()

	if due {
		b.Flush(ctx)
	}
}

// Flush pushes everything buffered to the sinks.
func (b *TelemetryBatcher) Flush(ctx context.Context) {
	b.mu.Lock()
	ests := b.estimates
	pts := b.points
	b.estimates = nil
	b.points = make(map[models.Method][]models.CadencePoint)
	b.buffered = 0
	b.lastFlush = time.Now()
	b.mu.Unlock()

	if b.storage != nil && len(ests) > 0 {
		var err error
		if len(ests) == 1 {
			err = b.storage.Store(ctx, b.session, ests[0])
		} else {
			err = b.storage.StoreBatch(ctx, b.session, ests)
		}
		if err != nil {
			b.metrics.RecordEstimatorError("batch", "store")
			b.logger.Warn("estimate store failed", applogger.Error(err))
		}
	}
	if b.publisher != nil {
		for _, m := range models.Methods {
			batch := pts[m]
			if len(batch) == 0 {
				continue
			}
			var err error
			if len(batch) == 1 {
				err = b.publisher.Publish(ctx, b.session, m, batch[0])
			} else {
				err = b.publisher.PublishBatch(ctx, b.session, m, batch)
			}
			if err != nil {
				b.metrics.RecordEstimatorError(string(m), "publish")
				b.logger.Warn("cadence publish failed", applogger.Error(err))
			}
		}
	}
}

// History reads persisted estimates back from the storage sink.
func (b *TelemetryBatcher) History(ctx context.Context, m models.Method, from, to time.Time, limit int) ([]models.CadenceEstimate, error) {
	if b.storage == nil {
		return nil, models.ErrNoHistoryBackend
	}
	return b.storage.Query(ctx, b.session, m, from, to, limit)
}

// Health pings the storage sink. Without one the batcher is trivially
// healthy.
func (b *TelemetryBatcher) Health(ctx context.Context) error {
	if b.storage == nil {
		return nil
	}
	return b.storage.Health(ctx)
}

// Close flushes the remaining buffer and closes the sinks.
func (b *TelemetryBatcher) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	b.Flush(ctx)

	var firstErr error
	if b.publisher != nil {
		if err := b.publisher.Close(); err != nil {
			firstErr = err
		}
	}
	if b.storage != nil {
		if err := b.storage.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
