package middleware

import (
	"fmt"
	"math"
	"sync"

	"StrideSense/internal/domain/models"
	domrepo "StrideSense/internal/domain/repository"
)

// IngestPipeline sits between the sample transport and the buffer. It
// validates raw frames, optionally transforms them (unit conversion for
// bridges that report raw ADC counts), and tracks out-of-order arrivals.
// The buffer itself keeps time order, so a late sample is counted but not
// dropped.
type IngestPipeline struct {
	store   domrepo.SampleStore
	metrics domrepo.Metrics
	source  string

	mu         sync.Mutex
	lastTimeMS int64
	outOfOrder int64
	rejected   int64

	transform func(*models.Sample) *models.Sample
}

type PipelineOption func(*IngestPipeline)

// WithTransform sets a hook applied to every sample before validation.
func WithTransform(fn func(*models.Sample) *models.Sample) PipelineOption {
	return func(p *IngestPipeline) { p.transform = fn }
}

// NewIngestPipeline creates a pipeline writing into store.
func NewIngestPipeline(store domrepo.SampleStore, metrics domrepo.Metrics, source string, opts ...PipelineOption) *IngestPipeline {
	p := &IngestPipeline{store: store, metrics: metrics, source: source}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process validates and stores one sample.
func (p *IngestPipeline) Process(s *models.Sample) error {
	if p.transform != nil {
		s = p.transform(s)
	}
	if err := validateSample(s); err != nil {
		p.mu.Lock()
		p.rejected++
		p.mu.Unlock()
		p.metrics.RecordEstimatorError("ingest", "invalid_sample")
		return err
	}

	p.mu.Lock()
	if s.TimeMS < p.lastTimeMS {
		p.outOfOrder++
	} else {
		p.lastTimeMS = s.TimeMS
	}
	p.mu.Unlock()

	p.store.Append(*s)
	p.metrics.RecordSampleIngested(p.source)
	return nil
}

// Stats returns ingest counters for the session view.
func (p *IngestPipeline) Stats() (outOfOrder, rejected int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outOfOrder, p.rejected
}

func validateSample(s *models.Sample) error {
	if s == nil {
		return fmt.Errorf("sample nil")
	}
	if s.TimeMS < 0 {
		return fmt.Errorf("negative sample time %d", s.TimeMS)
	}
	for i := 0; i < 3; i++ {
		if !finite(s.AccelG[i]) || !finite(s.GyroDPS[i]) {
			return fmt.Errorf("non-finite reading at t=%d", s.TimeMS)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
