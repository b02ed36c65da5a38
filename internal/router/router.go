// Package router assembles the echo server: middleware stack, dependencies and routes.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/suteetoe/ekklesia/internal/auth"
	"github.com/suteetoe/ekklesia/internal/handler"
	mid "github.com/suteetoe/ekklesia/internal/middleware"
	"github.com/suteetoe/ekklesia/internal/repository"
	"github.com/suteetoe/ekklesia/internal/service"
	"github.com/suteetoe/ekklesia/internal/validation"
	"github.com/suteetoe/ekklesia/pkg/config"
	"github.com/suteetoe/ekklesia/pkg/logger"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// New builds the HTTP server for the given configuration and database
func New(cfg *config.Config, db *gorm.DB) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = handler.ErrorHandler(cfg.Server.IsProduction())

	// Middleware
	e.Use(echomw.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)
	e.Use(logger.Middleware())
	e.Use(echomw.SecureWithConfig(echomw.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, echo.HeaderXRequestID},
	}))
	e.Use(echomw.BodyLimit(cfg.Server.BodyLimit))
	if cfg.Server.RateLimit > 0 {
		e.Use(echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(rate.Limit(cfg.Server.RateLimit))))
	}

	// Dependencies
	churchRepo := repository.NewChurchRepository(db)
	metricRepo := repository.NewMetricRepository(db)
	authService := auth.NewService(repository.NewUserRepository(db), repository.NewSessionRepository(db), cfg.Auth)

	churchHandler := handler.NewChurchHandler(service.NewChurchService(churchRepo, metricRepo, cfg.Defaults))
	metricHandler := handler.NewMetricHandler(service.NewMetricService(metricRepo, churchRepo, cfg.Defaults))
	settingsHandler := handler.NewSettingsHandler(repository.NewSettingsRepository(db))
	authHandler := handler.NewAuthHandler(authService)

	requireAuth := mid.AuthMiddleware(authService)

	// Routes
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", handler.Health)

	api := e.Group("/api")
	api.GET("/health", handler.Health)

	authAPI := api.Group("/auth")
	authAPI.POST("/sign-up", authHandler.SignUp)
	authAPI.POST("/sign-in", authHandler.SignIn)
	authAPI.POST("/sign-out", authHandler.SignOut, requireAuth)
	authAPI.GET("/session", authHandler.Session, requireAuth)
	authAPI.PUT("/profile", authHandler.UpdateProfile, requireAuth)
	authAPI.GET("/sessions", authHandler.Sessions, requireAuth)
	authAPI.DELETE("/sessions/:id", authHandler.RevokeSession, requireAuth)

	churchAPI := api.Group("/churches", requireAuth)
	churchAPI.GET("", churchHandler.List)
	churchAPI.POST("", churchHandler.Create)
	churchAPI.GET("/root", churchHandler.Root)
	churchAPI.GET("/stats", churchHandler.Stats)
	churchAPI.GET("/:id", churchHandler.Get)
	churchAPI.GET("/:id/children", churchHandler.Children)
	churchAPI.PUT("/:id", churchHandler.Update)
	churchAPI.DELETE("/:id", churchHandler.Delete)

	metricAPI := api.Group("/metrics", requireAuth)
	metricAPI.GET("", metricHandler.List)
	metricAPI.POST("", metricHandler.Create)
	metricAPI.POST("/reorder", metricHandler.Reorder)
	metricAPI.POST("/reset", metricHandler.Reset)
	metricAPI.GET("/:id", metricHandler.Get)
	metricAPI.PUT("/:id", metricHandler.Update)
	metricAPI.DELETE("/:id", metricHandler.Delete)

	settingsAPI := api.Group("/settings", requireAuth)
	settingsAPI.GET("", settingsHandler.Get)
	settingsAPI.PUT("", settingsHandler.Update)
	settingsAPI.DELETE("", settingsHandler.Delete)

	return e
}
