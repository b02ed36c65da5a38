package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	mid "github.com/suteetoe/ekklesia/internal/middleware"
	"github.com/suteetoe/ekklesia/internal/service"
	"github.com/suteetoe/ekklesia/internal/validation"
	"github.com/suteetoe/ekklesia/pkg/logger"
	"go.uber.org/zap"
)

type MetricHandler struct {
	metrics *service.MetricService
}

func NewMetricHandler(metrics *service.MetricService) *MetricHandler {
	return &MetricHandler{metrics: metrics}
}

// List retrieves the caller's metric definitions ordered by position
func (h *MetricHandler) List(c echo.Context) error {
	metrics, err := h.metrics.List(c.Request().Context(), mid.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, metrics)
}

func (h *MetricHandler) Get(c echo.Context) error {
	metric, err := h.metrics.Get(c.Request().Context(), c.Param("id"), mid.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, metric)
}

// Create adds a metric definition
func (h *MetricHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)

	var req validation.MetricCreate
	if err := bindJSON(c, &req); err != nil {
		log.Warn("Invalid metric data", zap.Error(err))
		return err
	}

	metric, err := h.metrics.Create(c.Request().Context(), mid.UserID(c), req)
	if err != nil {
		log.Warn("Failed to create metric", zap.String("key", req.Key), zap.Error(err))
		return err
	}

	log.Info("Metric created successfully",
		zap.String("metric_id", metric.ID),
		zap.String("key", metric.Key),
		zap.Int("order", metric.Order))
	return c.JSON(http.StatusCreated, metric)
}

// Update changes the name, color, icon or position of a metric
func (h *MetricHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	var req validation.MetricUpdate
	if err := bindJSON(c, &req); err != nil {
		log.Warn("Invalid metric data", zap.String("metric_id", id), zap.Error(err))
		return err
	}

	metric, err := h.metrics.Update(c.Request().Context(), id, mid.UserID(c), req)
	if err != nil {
		return err
	}

	log.Info("Metric updated successfully", zap.String("metric_id", id))
	return c.JSON(http.StatusOK, metric)
}

func (h *MetricHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	if err := h.metrics.Delete(c.Request().Context(), id, mid.UserID(c)); err != nil {
		log.Warn("Failed to delete metric", zap.String("metric_id", id), zap.Error(err))
		return err
	}

	log.Info("Metric deleted successfully", zap.String("metric_id", id))
	return c.NoContent(http.StatusNoContent)
}

// Reorder takes a JSON array of {id, order} and applies it atomically
func (h *MetricHandler) Reorder(c echo.Context) error {
	log := logger.FromEcho(c)

	var req validation.ReorderRequest
	if err := decodeJSON(c, &req.Items); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		log.Warn("Invalid reorder data", zap.Error(err))
		return err
	}

	metrics, err := h.metrics.Reorder(c.Request().Context(), mid.UserID(c), req.Items)
	if err != nil {
		log.Warn("Failed to reorder metrics", zap.Error(err))
		return err
	}

	log.Info("Metrics reordered successfully", zap.Int("count", len(req.Items)))
	return c.JSON(http.StatusOK, metrics)
}

// Reset restores the default metric set
func (h *MetricHandler) Reset(c echo.Context) error {
	metrics, err := h.metrics.Reset(c.Request().Context(), mid.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, metrics)
}
