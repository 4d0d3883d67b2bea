package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/acquisitions/internal/api"
	"github.com/creamcroissant/acquisitions/internal/bootstrap"
	"github.com/creamcroissant/acquisitions/internal/config"
	"github.com/creamcroissant/acquisitions/internal/job"
	"github.com/creamcroissant/acquisitions/internal/support/logging"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		opts := config.Options{ConfigFile: configFile, DotEnvDirs: []string{".", "..", "../.."}}
		return config.LoadWith(opts)
	}
	return config.Load()
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New(logging.Options{
		Level:     cfg.Log.SlogLevel(),
		Format:    cfg.Log.Format,
		AddSource: cfg.Log.AddSource,
	})
}

func runServe(cmd *cobra.Command, _ []string) error {
	bootTime := time.Now().UTC()
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg)

	// 句柄是惰性的，此处不会连接数据库
	db := bootstrap.OpenDatabase(cfg, logger)
	defer db.Close()

	routerOpts := []api.RouterOption{
		api.WithBodyLimit(cfg.HTTP.BodyLimitBytes),
		api.WithStartTime(bootTime),
	}

	// 可选的数据库心跳，结果只用于 /healthz 展示
	scheduler := job.NewScheduler(logger)
	if spec := cfg.Database.Heartbeat; spec != "" {
		heartbeat := job.NewDatabaseHeartbeat(db)
		if _, err := scheduler.Register(spec, heartbeat); err != nil {
			return err
		}
		routerOpts = append(routerOpts, api.WithHealthCheck("database", heartbeat))
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	router := api.NewRouter(logger, cfg.Metrics, routerOpts...)
	server := bootstrap.NewHTTPServer(cfg, router)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", server.Addr, "env", cfg.Env, "version", Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			logger.Error("http server failed", "error", err)
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down http server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		return err
	}
	logger.Info("server exited cleanly")
	return nil
}
