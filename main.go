package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pagepicker/api"
	"pagepicker/config"
	"pagepicker/logging"
	"pagepicker/pdf"
	"pagepicker/store"

	"github.com/gin-gonic/gin"
)

const (
	// ServerReadTimeout is the HTTP server read timeout
	ServerReadTimeout = 15 * time.Second

	// ServerWriteTimeout is the HTTP server write timeout
	ServerWriteTimeout = 60 * time.Second

	// ServerIdleTimeout is the HTTP server idle timeout
	ServerIdleTimeout = 60 * time.Second

	// GracefulShutdownTimeout is the timeout for graceful shutdown
	GracefulShutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: api.ServiceName,
	})

	st, err := store.New(cfg.TempDir, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open document store")
	}

	proc := pdf.NewProcessor(
		pdf.WithTimeout(cfg.OperationTimeout),
		pdf.WithLogger(logger),
	)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(logger))
	r.MaxMultipartMemory = cfg.MaxFileSize

	api.SetupRoutes(r, api.NewServer(cfg, st, proc, proc, logger))

	// Create HTTP server with timeout settings
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  ServerReadTimeout,
		WriteTimeout: ServerWriteTimeout,
		IdleTimeout:  ServerIdleTimeout,
	}

	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Int64("max_file_size", cfg.MaxFileSize).
			Str("temp_dir", cfg.TempDir).
			Dur("validation_delay", cfg.ValidationDelay).
			Dur("download_ttl", cfg.DownloadTTL).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	if err := st.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to clean up temp files")
	}

	logger.Info().Msg("server exited gracefully")
}
