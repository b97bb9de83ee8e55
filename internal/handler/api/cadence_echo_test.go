package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"StrideSense/internal/repository"
	"StrideSense/internal/usecase"
	applogger "StrideSense/pkg/logger"

	"github.com/labstack/echo/v4"
)

type quietMetrics struct{}

func (quietMetrics) RecordSampleIngested(string)         {}
func (quietMetrics) RecordWindowProcessed(string)        {}
func (quietMetrics) RecordEstimatorError(string, string) {}
func (quietMetrics) RecordCadence(string, float64)       {}
func (quietMetrics) RecordLatency(string, float64)       {}

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	logger, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	buf := repository.NewSampleBuffer(8)
	agg := usecase.NewAggregator(usecase.AggregatorConfig{
		SamplingRateHz:   100,
		WindowDurationMS: 10_000,
		WindowStepMS:     1_000,
		EMAAlpha:         0.3,
	}, nil, nil, quietMetrics{}, logger)
	sess := usecase.NewSession(usecase.SessionConfig{ID: "test"}, buf, agg, quietMetrics{}, logger)
	agg.SetProjector(sess)
	readout := usecase.NewReadout(sess, nil, 0, logger)

	e := echo.New()
	NewCadenceEchoHandler(logger, readout).RegisterRoutes(e)
	return e
}

func doGet(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthWithoutBackend(t *testing.T) {
	e := newTestEcho(t)
	rec := doGet(e, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestHistoryWithoutBackend(t *testing.T) {
	e := newTestEcho(t)
	// bounds and limit are optional; defaults must not reject the request
	rec := doGet(e, "/api/history")
	if !strings.Contains(rec.Body.String(), "404") {
		t.Fatalf("expected not-found payload without a backend, got %s", rec.Body.String())
	}
}

func TestHistoryRejectsUnknownMethod(t *testing.T) {
	e := newTestEcho(t)
	rec := doGet(e, "/api/history?method=stride")
	if !strings.Contains(rec.Body.String(), "400") {
		t.Fatalf("expected bad-request payload, got %s", rec.Body.String())
	}
}

func TestHistoryParsesBounds(t *testing.T) {
	e := newTestEcho(t)
	// valid RFC3339 bounds and a numeric limit still reach the backend check
	rec := doGet(e, "/api/history?method=peak&from=2026-03-14T09:00:00Z&to=2026-03-14T10:00:00Z&limit=10")
	if !strings.Contains(rec.Body.String(), "404") {
		t.Fatalf("expected not-found payload without a backend, got %s", rec.Body.String())
	}
}
