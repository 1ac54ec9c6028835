package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/ingest/alpha"
	"github.com/claude/liftlog/internal/logging"
	liftmcp "github.com/claude/liftlog/internal/mcp"
	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/server"
	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/telemetry"
	"github.com/claude/liftlog/internal/training"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("liftlog", Version)
		return
	}

	bootLog := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log, logCloser := logging.New(cfg.Log, os.Stdout)
	defer logCloser.Close()
	log.Info("LiftLog starting", "version", Version, "driver", cfg.Database.Driver)

	ctx := context.Background()

	if *migrateOnly {
		if err := migrate(ctx, cfg.Database); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrate-only: exiting")
		return
	}

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version, log)
	if err != nil {
		log.Error("failed to start tracing", "error", err)
		os.Exit(1)
	}

	// Connect database
	db, err := storage.Open(ctx, cfg.Database, storage.PostgresOptions{Tracing: cfg.Tracing.Enabled}, "migrations")
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	// Metrics
	var collectors []prometheus.Collector
	if db.Pool != nil {
		collectors = append(collectors, pgxpoolprometheus.NewCollector(
			db.Pool,
			map[string]string{"db_name": cfg.Database.Name},
		))
	}
	promRegistry := metrics.SetupPrometheus(collectors...)
	metricsManager := metrics.NewManager("liftlog", "server", promRegistry)

	// Engine and providers
	svc := training.NewService(training.NewStore(db), log, training.WithMetrics(metricsManager))
	alphaProvider := alpha.NewProvider(svc, log)

	// MCP over streamable HTTP, scoped to the user the identity middleware resolved
	mcpHTTP := mcpserver.NewStreamableHTTPServer(
		liftmcp.New(svc, Version, log),
		mcpserver.WithStateLess(true),
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			uid, _ := server.UserID(r)
			return liftmcp.WithUserID(ctx, uid)
		}),
	)

	opts := server.Options{
		APIKey:  cfg.Auth.APIKey,
		DevUser: cfg.Auth.DevUser,
		MCP:     mcpHTTP,
	}
	if cfg.Metrics.Enabled {
		opts.Gatherer = promRegistry
	}
	srv := server.New(svc, db, alphaProvider, metricsManager, log, opts)

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)", "dev_user", cfg.Auth.DevUser)
	}

	httpSrv := &http.Server{
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", "error", err)
	}
	log.Info("server stopped")
}

// migrate applies PostgreSQL migrations, or the embedded schema for SQLite.
func migrate(ctx context.Context, cfg config.DatabaseConfig) error {
	if cfg.Driver == config.DriverPostgres {
		return storage.RunMigrations(cfg.DSN(), "migrations")
	}
	db, err := storage.Open(ctx, cfg, storage.PostgresOptions{}, "migrations")
	if err != nil {
		return err
	}
	db.Close()
	return nil
}
