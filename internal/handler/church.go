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

type ChurchHandler struct {
	churches *service.ChurchService
}

func NewChurchHandler(churches *service.ChurchService) *ChurchHandler {
	return &ChurchHandler{churches: churches}
}

// List retrieves all churches of the caller, newest first
func (h *ChurchHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)

	churches, err := h.churches.List(c.Request().Context(), mid.UserID(c))
	if err != nil {
		return err
	}

	log.Info("Churches retrieved successfully", zap.Int("count", len(churches)))
	return c.JSON(http.StatusOK, churches)
}

// Root returns the caller's root church, creating it on first access
func (h *ChurchHandler) Root(c echo.Context) error {
	root, err := h.churches.Root(c.Request().Context(), mid.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, root)
}

func (h *ChurchHandler) Stats(c echo.Context) error {
	stats, err := h.churches.Stats(c.Request().Context(), mid.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// Get retrieves a specific church by ID
func (h *ChurchHandler) Get(c echo.Context) error {
	church, err := h.churches.Get(c.Request().Context(), c.Param("id"), mid.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, church)
}

// Children lists the direct children of a church ordered by name
func (h *ChurchHandler) Children(c echo.Context) error {
	children, err := h.churches.Children(c.Request().Context(), c.Param("id"), mid.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, children)
}

// Create adds a church under the given parent, or the root when no parent is given
func (h *ChurchHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)

	var req validation.ChurchCreate
	if err := bindJSON(c, &req); err != nil {
		log.Warn("Invalid church data", zap.Error(err))
		return err
	}

	church, err := h.churches.Create(c.Request().Context(), mid.UserID(c), req)
	if err != nil {
		log.Warn("Failed to create church", zap.String("name", req.Name), zap.Error(err))
		return err
	}

	log.Info("Church created successfully",
		zap.String("church_id", church.ID),
		zap.String("name", church.Name))
	return c.JSON(http.StatusCreated, church)
}

// Update applies a partial change to a church
func (h *ChurchHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	var req validation.ChurchUpdate
	if err := bindJSON(c, &req); err != nil {
		log.Warn("Invalid church data", zap.String("church_id", id), zap.Error(err))
		return err
	}

	church, err := h.churches.Update(c.Request().Context(), id, mid.UserID(c), req)
	if err != nil {
		log.Warn("Failed to update church", zap.String("church_id", id), zap.Error(err))
		return err
	}

	log.Info("Church updated successfully", zap.String("church_id", id))
	return c.JSON(http.StatusOK, church)
}

// Delete removes a church and its whole subtree. The root church cannot be deleted.
func (h *ChurchHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	if err := h.churches.Delete(c.Request().Context(), id, mid.UserID(c)); err != nil {
		log.Warn("Failed to delete church", zap.String("church_id", id), zap.Error(err))
		return err
	}

	log.Info("Church deleted successfully", zap.String("church_id", id))
	return c.NoContent(http.StatusNoContent)
}
