// Package main provides the entry point for the journeys MCP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raphaelgruber/journeys/internal/app"
	"github.com/raphaelgruber/journeys/internal/config"
	"github.com/raphaelgruber/journeys/internal/server"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	// Setup logger (dual output: stderr text + file JSON). stdout carries
	// the MCP protocol.
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() { _ = cleanup() }()

	logger.Info("journeys-mcp starting",
		"version", version,
		"user", cfg.DefaultUser,
		"llm_provider", cfg.LLMProvider,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		return err
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 15*time.Second)
		defer done()
		if err := a.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	a.ResumeIncomplete(ctx)

	srv := server.New(version, logger)
	srv.Setup(a.ToolDependencies(cfg.DefaultUser))

	logger.Info("server ready, awaiting connections")

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		return err
	}

	logger.Info("shutdown complete")
	return nil
}
