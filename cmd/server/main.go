package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/medicampus/attendmail/internal/audit"
	"github.com/medicampus/attendmail/internal/config"
	"github.com/medicampus/attendmail/internal/dispatch"
	"github.com/medicampus/attendmail/internal/ingest"
	"github.com/medicampus/attendmail/internal/logging"
	"github.com/medicampus/attendmail/internal/recipients"
	"github.com/medicampus/attendmail/internal/report"
	"github.com/medicampus/attendmail/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"smtp_host", cfg.SMTP.Host,
		"retention_days", cfg.Retention.MaxAgeDays,
	)

	// Parse and configure connection pool
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	// Connect to database
	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	// Optional department synonym overrides
	if cfg.Report.SynonymFile != "" {
		if err := report.LoadSynonymFile(cfg.Report.SynonymFile); err != nil {
			slog.Error("failed to load synonym file",
				"path", cfg.Report.SynonymFile, "error", err)
			os.Exit(1)
		}
		slog.Info("department synonyms loaded", "path", cfg.Report.SynonymFile)
	}

	// Wire the dispatch engine
	configStore := recipients.NewPGStore(pool)
	activity := audit.NewService(pool)
	mailer := dispatch.NewSMTPMailer(cfg.SMTP)

	csvOpts := report.CSVOptions{
		Delimiter: []rune(cfg.Report.Delimiter)[0],
		BOM:       cfg.Report.BOM,
		SepHint:   cfg.Report.SepHint,
	}
	orch := dispatch.NewOrchestrator(configStore, mailer,
		cfg.SMTP.FromAddress(), report.Format(cfg.Report.Format), csvOpts)
	// Upload format is always inferred from the file extension; only the
	// attachment format is configurable.
	engine := dispatch.NewEngine(orch, activity, cfg.Upload.RetainDir, ingest.Format(""))

	server := web.NewServer(engine, activity, cfg)

	// Background retention sweep
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go activity.StartRetentionSweeper(jobCtx, audit.RetentionPolicy{
		MaxAge:        time.Duration(cfg.Retention.MaxAgeDays) * 24 * time.Hour,
		CheckInterval: cfg.Retention.CheckInterval,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
