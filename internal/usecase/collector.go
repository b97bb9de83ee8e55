package usecase

import (
	"context"

	"StrideSense/internal/domain/models"
	drepo "StrideSense/internal/domain/repository"
	mid "StrideSense/internal/middleware"
	applogger "StrideSense/pkg/logger"
)

// SampleCollector consumes the device sample stream and feeds the ingest
// pipeline. All blocking I/O (waiting for the next frame) stays here, behind
// the stream interface; the estimation path never blocks on the device.
type SampleCollector struct {
	stream drepo.SampleStream
	pipe   *mid.IngestPipeline
	logger *applogger.Logger
	done   chan struct{}
}

// NewSampleCollector creates a collector.
func NewSampleCollector(stream drepo.SampleStream, pipe *mid.IngestPipeline, logger *applogger.Logger) *SampleCollector {
	return &SampleCollector{stream: stream, pipe: pipe, logger: logger, done: make(chan struct{})}
}

// Done closes when the consume loop has exited: the stream is drained
// (replay EOF), an unrecoverable transport failure occurred, or the context
// ended.
func (c *SampleCollector) Done() <-chan struct{} { return c.done }

// IsConnected reports the transport state.
func (c *SampleCollector) IsConnected() bool { return c.stream.IsConnected() }

// Start connects the stream and launches the consume loop.
func (c *SampleCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	sampleCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, sampleCh, errCh)
	return nil
}

func (c *SampleCollector) consume(ctx context.Context, sampleCh <-chan *models.Sample, errCh <-chan error) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				// The stream goroutine closed its error channel without a
				// failure. Park this case and keep draining samples.
				errCh = nil
				continue
			}
			if err == nil {
				continue
			}
			sampleCh, errCh, ok = c.resume(ctx, err)
			if !ok {
				return
			}
		case s, ok := <-sampleCh:
			if !ok {
				// Both channels close when the stream goroutine exits; a
				// pending error means the exit was a failure, not end of
				// data.
				if errCh != nil {
					if err, eok := <-errCh; eok && err != nil {
						sampleCh, errCh, ok = c.resume(ctx, err)
						if ok {
							continue
						}
						return
					}
				}
				c.logger.Info("sample stream drained")
				return
			}
			if s == nil {
				continue
			}
			_ = c.pipe.Process(s) // invalid frames are counted, not fatal
		}
	}
}

// resume reconnects after a stream error and reopens the read channels. The
// final return is false when reconnection failed; there is no retry beyond
// the single attempt, the failure is left to the caller to act on.
func (c *SampleCollector) resume(ctx context.Context, err error) (<-chan *models.Sample, <-chan error, bool) {
	c.logger.Warn("sample stream error", applogger.Error(err))
	if rerr := c.stream.Reconnect(ctx); rerr != nil {
		c.logger.Error("sample stream reconnect failed", applogger.Error(rerr))
		return nil, nil, false
	}
	sampleCh, errCh := c.stream.Read(ctx)
	return sampleCh, errCh, true
}

// Shutdown closes the transport.
func (c *SampleCollector) Shutdown(ctx context.Context) error {
	return c.stream.Close()
}
