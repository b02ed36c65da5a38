package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	mid "github.com/suteetoe/ekklesia/internal/middleware"
	"github.com/suteetoe/ekklesia/internal/repository"
	"github.com/suteetoe/ekklesia/internal/validation"
	"github.com/suteetoe/ekklesia/pkg/logger"
	"go.uber.org/zap"
)

type SettingsHandler struct {
	settings *repository.SettingsRepository
}

func NewSettingsHandler(settings *repository.SettingsRepository) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Get returns the caller's settings object, {} when none were saved
func (h *SettingsHandler) Get(c echo.Context) error {
	settings, err := h.settings.Get(c.Request().Context(), mid.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

// Update merges {settings: {...}} into the stored object and returns the result
func (h *SettingsHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)

	var req validation.SettingsUpdate
	if err := bindJSON(c, &req); err != nil {
		log.Warn("Invalid settings data", zap.Error(err))
		return err
	}

	merged, err := h.settings.Upsert(c.Request().Context(), mid.UserID(c), req.Settings)
	if err != nil {
		return err
	}

	log.Info("Settings saved successfully", zap.Int("keys", len(merged)))
	return c.JSON(http.StatusOK, merged)
}

func (h *SettingsHandler) Delete(c echo.Context) error {
	if err := h.settings.Delete(c.Request().Context(), mid.UserID(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
