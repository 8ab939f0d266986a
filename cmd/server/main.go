// Package main provides the entry point for the FusionCore server.
// FusionCore fuses HUMINT, SIGINT and OSINT analysis payloads into a
// unified intelligence picture: correlated entities, threat areas and an
// overall threat level.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/lhoang/fusioncore/internal/api"
	"github.com/lhoang/fusioncore/internal/cache"
	"github.com/lhoang/fusioncore/internal/config"
	"github.com/lhoang/fusioncore/internal/fusion"
	"github.com/lhoang/fusioncore/internal/geo"
	"github.com/lhoang/fusioncore/internal/observability"
)

// Version information (injected at build time via ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// loadConfig falls back to defaults only when no file exists at path; a
// present-but-malformed or invalid file is a hard error so a typo never
// silently runs the server on defaults.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.DefaultConfig(), nil
	}
	return cfg, err
}

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("FusionCore %s (commit: %s, built: %s)\n", Version, GitCommit, BuildTime)
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	telemetry, err := observability.New(observability.Config{
		ServiceName:    "fusioncore",
		ServiceVersion: Version,
		LogLevel:       cfg.Logging.Level,
		LogFormat:      cfg.Logging.Format,
		MetricsEnabled: cfg.Telemetry.MetricsEnabled,
		TracingEnabled: cfg.Telemetry.TracingEnabled,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry init failed: %v\n", err)
		os.Exit(1)
	}
	logger := telemetry.Logger()
	logger.Info("starting FusionCore", zap.String("version", Version))

	results := cache.New(cache.Config{
		Addr:        cfg.Redis.Addr,
		PasswordEnv: cfg.Redis.PasswordEnv,
		DB:          cfg.Redis.DB,
		PoolSize:    cfg.Redis.PoolSize,
		ResultTTL:   cfg.Redis.ResultTTL,
	}, logger)
	if results == nil {
		logger.Info("result cache disabled (no redis addr configured)")
	}

	engine := fusion.NewEngine(geo.Options{TruncationRepair: cfg.Geo.TruncationRepair}, logger)
	server := api.NewServer(engine, results, telemetry)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sig := <-sigChan
	logger.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	if results != nil {
		results.Close()
	}
	telemetry.Shutdown(shutdownCtx)

	logger.Info("server stopped")
}
