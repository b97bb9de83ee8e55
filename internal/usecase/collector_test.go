package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"StrideSense/internal/domain/models"
	mid "StrideSense/internal/middleware"
	internalrepo "StrideSense/internal/repository"
)

// scriptedStream plays one batch of samples per Read call, optionally
// followed by an error, then closes both channels the way the real
// transports do. Samples are sent unbuffered so the consumer sees every one
// before the error lands.
type scriptedStream struct {
	batches      [][]*models.Sample
	errAfter     []error
	reconnectErr error

	mu         sync.Mutex
	reads      int
	reconnects int
	connected  bool
}

func (f *scriptedStream) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	return nil
}

func (f *scriptedStream) Read(ctx context.Context) (<-chan *models.Sample, <-chan error) {
	f.mu.Lock()
	i := f.reads
	f.reads++
	f.mu.Unlock()

	samples := make(chan *models.Sample)
	errs := make(chan error, 1)
	go func() {
		defer close(samples)
		defer close(errs)
		if i < len(f.batches) {
			for _, s := range f.batches[i] {
				select {
				case <-ctx.Done():
					return
				case samples <- s:
				}
			}
		}
		if i < len(f.errAfter) && f.errAfter[i] != nil {
			errs <- f.errAfter[i]
		}
	}()
	return samples, errs
}

func (f *scriptedStream) Reconnect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconnects++
	return f.reconnectErr
}

func (f *scriptedStream) Close() error { return nil }

func (f *scriptedStream) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *scriptedStream) counts() (reads, reconnects int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads, f.reconnects
}

func streamSamples(startMS int64, n int) []*models.Sample {
	out := make([]*models.Sample, n)
	for i := range out {
		out[i] = &models.Sample{
			TimeMS: startMS + int64(i)*10,
			AccelG: models.Vec3{0, 0, 1},
		}
	}
	return out
}

func startCollector(t *testing.T, fs *scriptedStream) (*SampleCollector, *internalrepo.SampleBuffer) {
	t.Helper()
	buf := internalrepo.NewSampleBuffer(64)
	pipe := mid.NewIngestPipeline(buf, noopMetrics{}, "test")
	col := NewSampleCollector(fs, pipe, testLogger(t))
	if err := col.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return col, buf
}

func waitDone(t *testing.T, col *SampleCollector) {
	t.Helper()
	select {
	case <-col.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("collector did not finish")
	}
}

func TestCollectorResumesAfterStreamError(t *testing.T) {
	fs := &scriptedStream{
		batches:  [][]*models.Sample{streamSamples(0, 3), streamSamples(100, 2)},
		errAfter: []error{fmt.Errorf("socket reset"), nil},
	}
	col, buf := startCollector(t, fs)
	waitDone(t, col)

	if got := buf.Len(); got != 5 {
		t.Fatalf("buffered %d samples, want 5", got)
	}
	reads, reconnects := fs.counts()
	if reconnects != 1 {
		t.Fatalf("reconnects = %d, want 1", reconnects)
	}
	if reads != 2 {
		t.Fatalf("reads = %d, want 2 (reading must restart after reconnect)", reads)
	}
}

func TestCollectorStopsWhenStreamDrained(t *testing.T) {
	fs := &scriptedStream{
		batches:  [][]*models.Sample{streamSamples(0, 2)},
		errAfter: []error{nil},
	}
	col, buf := startCollector(t, fs)
	waitDone(t, col)

	if got := buf.Len(); got != 2 {
		t.Fatalf("buffered %d samples, want 2", got)
	}
	reads, reconnects := fs.counts()
	if reads != 1 || reconnects != 0 {
		t.Fatalf("reads = %d, reconnects = %d, want 1 and 0", reads, reconnects)
	}
}

func TestCollectorStopsWhenReconnectFails(t *testing.T) {
	fs := &scriptedStream{
		batches:      [][]*models.Sample{streamSamples(0, 1)},
		errAfter:     []error{fmt.Errorf("socket reset")},
		reconnectErr: fmt.Errorf("device gone"),
	}
	col, _ := startCollector(t, fs)
	waitDone(t, col)

	reads, reconnects := fs.counts()
	if reads != 1 || reconnects != 1 {
		t.Fatalf("reads = %d, reconnects = %d, want 1 and 1", reads, reconnects)
	}
}
