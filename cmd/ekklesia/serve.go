package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/suteetoe/ekklesia/internal/auth"
	"github.com/suteetoe/ekklesia/internal/repository"
	"github.com/suteetoe/ekklesia/internal/router"
	"github.com/suteetoe/ekklesia/pkg/database"
	"github.com/suteetoe/ekklesia/pkg/logger"
	"go.uber.org/zap"
)

var (
	shutdownTimeout time.Duration
	purgeInterval   time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	log := logger.GetLogger()
	log.Info("Configuration loaded", conf.LogConfig()...)

	db, err := database.InitDB(&conf.DB)
	if err != nil {
		log.Error("Failed to initialize database", zap.Error(err))
		return err
	}
	defer database.Close(db)

	if err := database.MigrateModels(db); err != nil {
		log.Error("Failed to migrate database models", zap.Error(err))
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if purgeInterval > 0 {
		sessions := auth.NewService(repository.NewUserRepository(db), repository.NewSessionRepository(db), conf.Auth)
		go purgeSessions(ctx, sessions, purgeInterval)
	}

	e := router.New(conf, db)

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting ekklesia on port " + conf.Server.Port)
		if err := e.Start(":" + conf.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Server stopped", zap.Error(err))
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}

func purgeSessions(ctx context.Context, sessions *auth.Service, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := sessions.PurgeExpired(ctx)
			if err != nil {
				logger.GetLogger().Warn("Failed to purge expired sessions", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.GetLogger().Info("Purged expired sessions", zap.Int64("count", removed))
			}
		}
	}
}

func init() {
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "time allowed for in-flight requests on shutdown")
	serveCmd.Flags().DurationVar(&purgeInterval, "purge-interval", time.Hour, "how often expired sessions are deleted (0 disables)")
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())
	rootCmd.AddCommand(serveCmd)
}
