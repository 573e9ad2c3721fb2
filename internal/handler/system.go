package handler

import (
	"errors"
	"net/http"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/health"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/storage"

	"github.com/labstack/echo/v4"
)

// FileHandler serves objects of public buckets. Payment proofs are only
// reachable through the order endpoints.
type FileHandler struct {
	store storage.Store
}

func NewFileHandler(store storage.Store) *FileHandler {
	return &FileHandler{
		store: store,
	}
}

func (h *FileHandler) Serve(c echo.Context) error {
	ctx := c.Request().Context()

	bucket, ok := storage.ParseBucket(c.Param("bucket"))
	if !ok || !bucket.Public() {
		return echo.ErrNotFound
	}

	body, obj, err := h.store.Open(ctx, bucket, c.Param("*"))
	if errors.Is(err, storage.ErrObjectNotFound) {
		return echo.ErrNotFound
	}
	if err != nil {
		return err
	}
	defer body.Close()

	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.Stream(http.StatusOK, obj.ContentType, body)
}

type HealthHandler struct {
	prober *health.Prober
}

func NewHealthHandler(prober *health.Prober) *HealthHandler {
	return &HealthHandler{
		prober: prober,
	}
}

func reportStatus(r health.Report) int {
	if r.Status == health.StatusDegraded {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// Get reports the last background probe without touching the stores. A
// degraded report schedules an extra probe cycle.
func (h *HealthHandler) Get(c echo.Context) error {
	report := h.prober.Last()
	if report.Status == health.StatusDegraded {
		h.prober.Trigger()
	}
	return c.JSON(reportStatus(report), report)
}

func (h *HealthHandler) Probe(c echo.Context) error {
	ctx := c.Request().Context()

	report := h.prober.ProbeNow(ctx)
	return c.JSON(reportStatus(report), report)
}
