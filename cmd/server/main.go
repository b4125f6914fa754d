// Package main is the entry point for the account-identity server binary.
// It dispatches three subcommands (serve, migrate, version) via a
// simple switch on os.Args so the binary's full CLI surface is readable in
// one place. The serve command runs auto-migration on startup so freshly
// deployed containers never need a separate migration step.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/package-registry/package-registry/internal/api"
	"github.com/package-registry/package-registry/internal/auth"
	"github.com/package-registry/package-registry/internal/config"
	"github.com/package-registry/package-registry/internal/db"
	"github.com/package-registry/package-registry/internal/notify"
	"github.com/package-registry/package-registry/internal/telemetry"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v\n", err)
	}
}

func run() error {
	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	telemetry.SetupLogger(cfg.Logging.Format, cfg.Logging.Level)

	switch command {
	case "serve":
		return serve(cfg)
	case "migrate":
		direction := "up"
		if len(os.Args) > 2 {
			direction = os.Args[2]
		}
		return migrateCmd(cfg, direction)
	case "version":
		fmt.Printf("package-registry-accounts %s\n", version)
		return nil
	default:
		return fmt.Errorf("unknown command: %s (expected serve, migrate, or version)", command)
	}
}

func migrateCmd(cfg *config.Config, direction string) error {
	database, err := db.Connect(cfg.Database.DSN(), cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database.DB, direction); err != nil {
		return err
	}

	v, dirty, err := db.MigrationVersion(database.DB)
	if err != nil {
		return err
	}
	slog.Info("migrations applied", "version", v, "dirty", dirty)
	return nil
}

func serve(cfg *config.Config) error {
	if err := auth.ValidateJWTSecret(); err != nil {
		return err
	}

	database, err := db.Connect(cfg.Database.DSN(), cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database.DB, "up"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	mailer := notify.NewSMTPMailer(&cfg.Notifications, cfg.Server.GetPublicURL())
	router, background := api.NewRouter(cfg, database, mailer)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	stopMonitor := make(chan struct{})
	go telemetry.StartDBPoolMonitor(database.DB, 30*time.Second, stopMonitor)

	// Metrics are served on a dedicated side-channel port so the scrape
	// path stays off the public ingress and out of the rate limiter.
	var metricsSrv *http.Server
	if cfg.Telemetry.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Telemetry.Metrics.PrometheusPort),
			Handler: mux,
		}
		go func() {
			slog.Info("metrics listener started", "port", cfg.Telemetry.Metrics.PrometheusPort)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics listener failed", "error", err)
			}
		}()
	}

	go func() {
		slog.Info("server started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			slog.Error("metrics shutdown failed", "error", err)
		}
	}

	close(stopMonitor)
	background.Shutdown()
	slog.Info("shutdown complete")
	return nil
}
