package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	httpadapter "github.com/Alizadekh/moodweb-extension-backend/internal/adapters/http"
	"github.com/Alizadekh/moodweb-extension-backend/internal/config"
	"github.com/Alizadekh/moodweb-extension-backend/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API.

Endpoints:
  POST /analyze-mood        {"userInput": "..."}
  POST /api/analyze-mood    same handler
  GET  /healthz`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	}

	cmd.Flags().String("addr", "", "Address to listen on (default :3000, or :$PORT)")
	cmd.Flags().String("allow-origin", "*", "Value of Access-Control-Allow-Origin")
	bindFlag(v, config.KeyHTTPAddr, cmd.Flags().Lookup("addr"))
	bindFlag(v, config.KeyCORSAllowOrigin, cmd.Flags().Lookup("allow-origin"))

	return cmd
}

func runServe(ctx context.Context, v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	logger := newServerLogger(os.Stdout, cfg.LogLevel)
	svc, err := newMoodService(cfg, logger)
	if err != nil {
		logger.Error("failed to build service", "error", err)
		return err
	}

	handler := httpadapter.NewHandler(svc, logger, cfg.IsDevelopment())
	e := httpadapter.NewServer(handler, logger, httpadapter.ServerOptions{
		AllowOrigin: cfg.CORSAllowOrigin,
		BodyLimit:   cfg.HTTPBodyLimit,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			"addr", cfg.HTTPAddr,
			"model", cfg.LLMModel,
			"recommendations", cfg.Recommendations,
			"env", cfg.Environment,
		)
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}
	return nil
}

// newServerLogger builds the JSON logger and installs it as the slog default.
func newServerLogger(w io.Writer, level slog.Level) *slog.Logger {
	logger := logging.New(w, level)
	slog.SetDefault(logger)
	return logger
}
