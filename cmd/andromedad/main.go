package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"andromeda/config"
	"andromeda/core/host"
	"andromeda/observability/logging"
	"andromeda/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	manifestFlag := flag.String("deploy", "", "Path to a deployment manifest (overrides config DeploymentFile)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	env := cfg.LogEnv
	if fromEnv := strings.TrimSpace(os.Getenv("ANDROMEDA_ENV")); fromEnv != "" {
		env = fromEnv
	}
	logger := logging.SetupWithOptions("andromedad", env, logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})

	if err := run(cfg, *manifestFlag, logger); err != nil {
		logger.Error("andromedad stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, manifestPath string, logger *slog.Logger) error {
	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	app := host.NewApp(db,
		host.WithLogger(logger),
		host.WithChainID(cfg.ChainID),
		host.WithMaxDepth(cfg.MaxCallDepth),
	)
	registerCodes(app)

	if manifestPath == "" {
		manifestPath = cfg.DeploymentFile
	}
	if strings.TrimSpace(manifestPath) != "" {
		manifest, err := loadManifest(manifestPath)
		if err != nil {
			return err
		}
		if _, err := applyManifest(app, manifest, logger); err != nil {
			return fmt.Errorf("apply manifest: %w", err)
		}
	}

	srv := &http.Server{
		Addr: cfg.ListenAddress,
		Handler: newRouter(app, logger, serverConfig{
			MetricsEnabled:     cfg.MetricsEnabled,
			RateLimitPerSecond: cfg.RateLimitPerSecond,
			RateLimitBurst:     cfg.RateLimitBurst,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("andromedad listening",
			slog.String("address", cfg.ListenAddress),
			slog.String("chain_id", cfg.ChainID),
			slog.Int("codes", len(app.Codes())))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
