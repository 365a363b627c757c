// Package main provides the HTTP server for journeys.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/raphaelgruber/journeys/internal/api"
	"github.com/raphaelgruber/journeys/internal/app"
	"github.com/raphaelgruber/journeys/internal/config"
)

const shutdownTimeout = 30 * time.Second

func main() {
	wipeDB := flag.Bool("wipe", false, "wipe all resources on startup (testing only)")
	flag.Parse()

	cfg := config.Load()

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() { _ = cleanup() }()

	logger.Info("starting journeys-server", "port", cfg.ServerPort)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	a, err := app.New(initCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	if *wipeDB || os.Getenv("JOURNEYS_WIPE_DB") == "true" {
		if err := a.Resources.WipeData(ctx); err != nil {
			logger.Error("failed to wipe resources", "error", err)
			_ = a.Close(context.Background())
			os.Exit(1)
		}
	}

	a.ResumeIncomplete(ctx)

	if cfg.LogLevel > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(a.Handler(), logger, a.Registry)
	srv := api.NewServer(api.ServerConfig{Addr: ":" + cfg.ServerPort}, router, logger)

	runErr := srv.Run(ctx)
	if runErr != nil {
		logger.Error("server error", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	if runErr != nil {
		os.Exit(1)
	}
}
