package usecase

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"StrideSense/internal/domain/models"
	pkgcache "StrideSense/pkg/cache"
)

func newTestReadout(t *testing.T) *Readout {
	t.Helper()
	sess := newTestSession(t, runSamples(30, 1.3))
	if err := sess.RunBatch(context.Background()); err != nil {
		t.Fatalf("run batch: %v", err)
	}
	mc := pkgcache.NewMemoryCache()
	t.Cleanup(mc.Close)
	return NewReadout(sess, mc, time.Second, testLogger(t))
}

func TestReadoutLatest(t *testing.T) {
	r := newTestReadout(t)
	ctx := context.Background()

	ro, ok := r.Latest(ctx, models.MethodPeak)
	if !ok {
		t.Fatalf("no readout")
	}
	if ro.Method != models.MethodPeak || ro.StepsPerMinute <= 0 {
		t.Fatalf("bad readout %+v", ro)
	}

	// second lookup is served from cache and matches
	again, ok := r.Latest(ctx, models.MethodPeak)
	if !ok || again.StepsPerMinute != ro.StepsPerMinute {
		t.Fatalf("cached readout differs: %+v vs %+v", again, ro)
	}
}

func TestReadoutAll(t *testing.T) {
	r := newTestReadout(t)
	all := r.All(context.Background())
	if len(all) != len(models.Methods) {
		t.Fatalf("got %d readouts want %d", len(all), len(models.Methods))
	}
}

func TestReadoutSeriesAndExport(t *testing.T) {
	r := newTestReadout(t)

	series := r.Series(models.MethodPeak, 0, 0, 0)
	if len(series) == 0 {
		t.Fatalf("empty series")
	}

	var buf bytes.Buffer
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	if err := r.ExportGPX(&buf, start, "test run", nil); err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(buf.String(), "gpxtpx:cad") {
		t.Fatalf("export missing cadence extension")
	}
}

func TestReadoutHistoryAndReady(t *testing.T) {
	sess := newTestSession(t, runSamples(30, 1.3))
	r := NewReadout(sess, nil, time.Second, testLogger(t))
	ctx := context.Background()

	// no backend: history refuses, readiness passes
	if _, err := r.History(ctx, models.MethodPeak, time.Time{}, time.Now(), 10); !errors.Is(err, models.ErrNoHistoryBackend) {
		t.Fatalf("expected ErrNoHistoryBackend, got %v", err)
	}
	if err := r.Ready(ctx); err != nil {
		t.Fatalf("ready without backend: %v", err)
	}

	want := []models.CadenceEstimate{{Method: models.MethodPeak, StepsPerMinute: 82}}
	store := &recordingStorage{queryOut: want, healthErr: errors.New("backend down")}
	sess.Aggregator().SetSink(NewTelemetryBatcher(nil, store, "s1", 10, time.Minute, noopMetrics{}, testLogger(t)))

	got, err := r.History(ctx, models.MethodPeak, time.Time{}, time.Now(), 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 1 || got[0].StepsPerMinute != 82 {
		t.Fatalf("unexpected history %+v", got)
	}
	if err := r.Ready(ctx); err == nil {
		t.Fatalf("readiness must surface the backend failure")
	}
}

func TestReadoutBeforeFirstWindow(t *testing.T) {
	sess := newTestSession(t, runSamples(30, 1.3))
	r := NewReadout(sess, nil, time.Second, testLogger(t))
	if _, ok := r.Latest(context.Background(), models.MethodPeak); ok {
		t.Fatalf("readout before any window processed")
	}
}
