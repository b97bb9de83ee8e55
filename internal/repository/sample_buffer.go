package repository

import (
	"sort"
	"sync"

	"StrideSense/internal/domain/models"
	"StrideSense/internal/domain/repository"
)

// SampleBuffer is the growable ordered store of calibrated IMU samples.
// A single writer appends during live ingestion while window readers take
// consistent snapshots; sync.RWMutex gives exactly that discipline.
type SampleBuffer struct {
	mu      sync.RWMutex
	samples []models.Sample
}

// NewSampleBuffer creates a buffer with room for about capHint samples.
func NewSampleBuffer(capHint int) *SampleBuffer {
	if capHint <= 0 {
		capHint = 4096
	}
	return &SampleBuffer{samples: make([]models.Sample, 0, capHint)}
}

// Append inserts a sample, keeping the buffer sorted by time. The device is
// not expected to deliver out of order, but a late sample must not corrupt
// window boundaries, so it is placed at its sorted position instead of the
// tail.
func (b *SampleBuffer) Append(s models.Sample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.samples)
	if n == 0 || b.samples[n-1].TimeMS <= s.TimeMS {
		b.samples = append(b.samples, s)
		return
	}
	i := sort.Search(n, func(k int) bool { return b.samples[k].TimeMS > s.TimeMS })
	b.samples = append(b.samples, models.Sample{})
	copy(b.samples[i+1:], b.samples[i:])
	b.samples[i] = s
}

// Len returns the number of stored samples.
func (b *SampleBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.samples)
}

// LastTimeMS returns the timestamp of the newest sample.
func (b *SampleBuffer) LastTimeMS() (int64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.samples) == 0 {
		return 0, false
	}
	return b.samples[len(b.samples)-1].TimeMS, true
}

// Window returns a copy of the samples with StartMS <= t < EndMS.
func (b *SampleBuffer) Window(w models.AnalysisWindow) []models.Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()

	lo := sort.Search(len(b.samples), func(k int) bool { return b.samples[k].TimeMS >= w.StartMS })
	hi := sort.Search(len(b.samples), func(k int) bool { return b.samples[k].TimeMS >= w.EndMS })
	out := make([]models.Sample, hi-lo)
	copy(out, b.samples[lo:hi])
	return out
}

// Head returns a copy of the first n samples.
func (b *SampleBuffer) Head(n int) []models.Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n > len(b.samples) {
		n = len(b.samples)
	}
	out := make([]models.Sample, n)
	copy(out, b.samples[:n])
	return out
}

// All returns a copy of the full buffer in time order.
func (b *SampleBuffer) All() []models.Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.Sample, len(b.samples))
	copy(out, b.samples)
	return out
}

var _ repository.SampleStore = (*SampleBuffer)(nil)
