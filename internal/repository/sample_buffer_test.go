package repository

import (
	"testing"

	"StrideSense/internal/domain/models"
)

func TestSampleBufferAppendKeepsOrder(t *testing.T) {
	b := NewSampleBuffer(0)
	for _, ts := range []int64{0, 10, 30, 20, 40} {
		b.Append(models.Sample{TimeMS: ts})
	}
	all := b.All()
	if len(all) != 5 {
		t.Fatalf("len %d want 5", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].TimeMS > all[i].TimeMS {
			t.Fatalf("out of order at %d: %d > %d", i, all[i-1].TimeMS, all[i].TimeMS)
		}
	}
	last, ok := b.LastTimeMS()
	if !ok || last != 40 {
		t.Fatalf("last %d ok=%v want 40", last, ok)
	}
}

func TestSampleBufferWindowBounds(t *testing.T) {
	b := NewSampleBuffer(0)
	for ts := int64(0); ts < 100; ts += 10 {
		b.Append(models.Sample{TimeMS: ts})
	}
	w := b.Window(models.AnalysisWindow{StartMS: 20, EndMS: 50})
	if len(w) != 3 {
		t.Fatalf("len %d want 3", len(w))
	}
	if w[0].TimeMS != 20 || w[2].TimeMS != 40 {
		t.Fatalf("window [%d, %d] want [20, 40]", w[0].TimeMS, w[2].TimeMS)
	}
}

func TestSampleBufferSnapshotsAreCopies(t *testing.T) {
	b := NewSampleBuffer(0)
	b.Append(models.Sample{TimeMS: 1})
	head := b.Head(1)
	head[0].TimeMS = 99
	if got := b.All()[0].TimeMS; got != 1 {
		t.Fatalf("buffer mutated through snapshot: %d", got)
	}
}

func TestSampleBufferHeadClamped(t *testing.T) {
	b := NewSampleBuffer(0)
	b.Append(models.Sample{TimeMS: 1})
	if got := len(b.Head(10)); got != 1 {
		t.Fatalf("head len %d want 1", got)
	}
	if _, ok := NewSampleBuffer(0).LastTimeMS(); ok {
		t.Fatalf("empty buffer must report no last time")
	}
}
