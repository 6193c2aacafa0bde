package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nguyentantai21042004/meeting-flow/internal/httpapi"
	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload API",
	Long: `Serve POST /api/meetings/upload. The multipart "file" field carries the
recording; an optional "language" field overrides the configured language.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Logging.Level)
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := buildPipeline(cfg, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: httpapi.NewHandler(p, httpapi.Options{
			MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
			RequestTimeout: cfg.Server.RequestTimeout,
			MaxConcurrent:  cfg.Performance.MaxConcurrent,
		}, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	log.Info(ctx, "Listening on %s (transcriber: %s, language: %s)", cfg.Server.Addr, cfg.Transcriber.Backend, cfg.Transcriber.Language)

	select {
	case <-ctx.Done():
		log.Info(ctx, "Shutdown signal received")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info(ctx, "Server stopped")
	return nil
}
