package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	models "StrideSense/internal/domain/models"
	"StrideSense/internal/service/ratelimit"
	"StrideSense/internal/usecase"
	xhttp "StrideSense/pkg/http"
	xlogger "StrideSense/pkg/logger"
	"StrideSense/pkg/util"

	"github.com/labstack/echo/v4"
)

// Export serialization is the heavy endpoint; one token a second per client
// is generous for any real UI.
const (
	exportBurst     = 3
	exportRefillSec = 1
)

// CadenceEchoHandler implements Echo-based HTTP handlers following Clean Architecture.
type CadenceEchoHandler struct {
	logger  *xlogger.Logger
	readout *usecase.Readout
	limiter *ratelimit.Limiter
}

func NewCadenceEchoHandler(logger *xlogger.Logger, readout *usecase.Readout) *CadenceEchoHandler {
	return &CadenceEchoHandler{logger: logger, readout: readout, limiter: ratelimit.New()}
}

func (h *CadenceEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/cadence", h.Cadence)
	g.GET("/series", h.Series)
	g.GET("/session", h.Session)
	g.GET("/history", h.History)
	g.GET("/health", h.Health)
	g.POST("/export", h.Export)
}

func (h *CadenceEchoHandler) Cadence(c echo.Context) error {
	req := &models.CadenceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	if req.Method == "" {
		return xhttp.SuccessResponse(c, h.readout.All(ctx))
	}

	ro, ok := h.readout.Latest(ctx, models.Method(req.Method))
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no cadence produced yet for method %s", req.Method))
	}
	return xhttp.SuccessResponse(c, ro)
}

func (h *CadenceEchoHandler) Series(c echo.Context) error {
	req := &models.SeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	pts := h.readout.Series(models.Method(req.Method), req.FromMS, req.ToMS, req.Limit)
	return xhttp.ListResponse(c, pts, int64(len(pts)))
}

func (h *CadenceEchoHandler) Session(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.readout.State())
}

// History serves estimates persisted by the telemetry backend. The bounds
// and limit are loose query params with sensible defaults rather than a
// validated DTO; absent bounds mean the trailing hour.
func (h *CadenceEchoHandler) History(c echo.Context) error {
	m := models.Method(c.QueryParam("method"))
	if m == "" {
		m = models.MethodPeak
	}
	if !m.Valid() {
		return xhttp.BadRequestResponse(c, map[string]string{
			"message": "unknown method " + string(m),
		})
	}

	now := time.Now().UTC()
	from := xhttp.ParseTimeDefault(c.QueryParam("from"), now.Add(-time.Hour))
	to := xhttp.ParseTimeDefault(c.QueryParam("to"), now)
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 3600)

	ests, err := h.readout.History(c.Request().Context(), m, from, to, limit)
	if err != nil {
		if errors.Is(err, models.ErrNoHistoryBackend) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundError("history backend not configured"))
		}
		h.logger.Error("history query failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.ListResponse(c, ests, int64(len(ests)))
}

// Health reports telemetry backend readiness.
func (h *CadenceEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.readout.Ready(ctx); err != nil {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, map[string]string{
			"status":  "degraded",
			"message": err.Error(),
		})
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *CadenceEchoHandler) Export(c echo.Context) error {
	if !h.limiter.Allow(c.RealIP(), exportBurst, exportRefillSec) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, map[string]string{
			"message": "export rate limit exceeded",
		})
	}

	req := &models.ExportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	start, ok := util.ParseTime(req.StartTime)
	if !ok {
		return xhttp.BadRequestResponse(c, map[string]string{
			"message": "start_time is not a recognized timestamp",
		})
	}

	var buf bytes.Buffer
	if err := h.readout.ExportGPX(&buf, start, req.TrackName, req.Positions); err != nil {
		h.logger.Error("gpx export failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no cadence series to export").WithError(err))
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="stridesense.gpx"`)
	return c.Blob(http.StatusOK, "application/gpx+xml", buf.Bytes())
}
