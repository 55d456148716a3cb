package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fraud/internal/artifact"
	"fraud/internal/configuration"
	"fraud/internal/logging"
	"fraud/internal/metrics"
	"fraud/internal/score"
	"fraud/internal/server"
)

// The model, threshold and feature list are loaded before the server starts.
// Errors while loading the configuration or any artifact terminate the process with code 1.
func main() {
	configPath := flag.String("config", "/etc/fraud/config.yaml", "configuration file")
	flag.Parse()
	config, err := configuration.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Unable to load configuration", "error", err)
		os.Exit(1)
	}

	logger, logCloser := logging.NewLogger(config.Logger)
	slog.SetDefault(logger)
	defer logCloser.Close()

	appCtx, appCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer appCancel()

	artifacts, err := artifact.Load(artifact.Paths{
		Model:     config.Artifacts.Model,
		Threshold: config.Artifacts.Threshold,
		Features:  config.Artifacts.Features,
	})
	if err != nil {
		var loadErr *artifact.StartupLoadError
		if errors.As(err, &loadErr) {
			slog.Error("Unable to load artifact", "artifact", loadErr.Artifact, "path", loadErr.Path, "error", loadErr.Err)
		} else {
			slog.Error("Unable to load artifacts", "error", err)
		}
		logCloser.Close()
		os.Exit(1)
	}

	scorer, err := score.NewScorer(artifacts.Model, artifacts.Threshold, artifacts.Schema)
	if err != nil {
		slog.Error("Unable to initialize scorer", "error", err)
		logCloser.Close()
		os.Exit(1)
	}
	slog.Info("Artifacts loaded", "features", artifacts.Schema.Len(), "threshold", artifacts.Threshold)

	var registry *metrics.Registry
	if config.Metrics.Enabled {
		registry = metrics.NewRegistry()
	}

	srv := server.NewServer(config.Server, config.Predict, scorer, registry)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			appCancel()
		}
	}()
	slog.Info("Server listening " + config.Server.Address)
	<-appCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second*10)
	defer shutdownCancel()

	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		slog.Error("Server shutdown", "error", err)
	}
	slog.Info("Server stopped")
}
