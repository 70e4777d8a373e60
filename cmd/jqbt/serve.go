package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hika3390/jquants-backtest/internal/api"
	handler "github.com/hika3390/jquants-backtest/internal/api/handler/api"
	"github.com/hika3390/jquants-backtest/internal/api/job"
	"github.com/hika3390/jquants-backtest/internal/config"
	"github.com/hika3390/jquants-backtest/internal/jquants"
	"github.com/hika3390/jquants-backtest/internal/logger"
	"github.com/hika3390/jquants-backtest/internal/metrics"
	"github.com/hika3390/jquants-backtest/internal/storage/archive"
	"github.com/hika3390/jquants-backtest/internal/storage/result"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the backtest API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Initialize logger
	log := logger.Must(debug)
	defer log.Sync()

	// Load config
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	log.Info("starting jqbt server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	ctx := context.Background()

	// Data provider
	client := jquants.New(cfg.JQuants.IDToken)
	if cfg.JQuants.BaseURL != "" {
		client = client.WithBaseURL(cfg.JQuants.BaseURL)
	}

	// Result store
	var store result.Store
	switch cfg.Storage.Results.Type {
	case "postgres":
		pg, err := result.NewPostgresStore(ctx, cfg.Storage.Results.DSN)
		if err != nil {
			return fmt.Errorf("connecting result store: %w", err)
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			return fmt.Errorf("migrating result store: %w", err)
		}
		store = pg
	default:
		store = result.NewMemoryStore(cfg.Storage.Results.MaxResults)
	}

	// Archive backend
	var archiver *archive.Archiver
	if cfg.Storage.Archive.Enabled {
		var backend archive.Backend
		switch cfg.Storage.Archive.Type {
		case "s3":
			backend, err = archive.NewS3(archive.S3Config{
				Bucket:    cfg.Storage.Archive.S3.Bucket,
				Endpoint:  cfg.Storage.Archive.S3.Endpoint,
				Region:    cfg.Storage.Archive.S3.Region,
				AccessKey: cfg.Storage.Archive.S3.AccessKey,
				SecretKey: cfg.Storage.Archive.S3.SecretKey,
				Prefix:    cfg.Storage.Archive.S3.Prefix,
			})
		default:
			backend, err = archive.NewLocalFS(cfg.Storage.Archive.Path)
		}
		if err != nil {
			return fmt.Errorf("creating archive backend: %w", err)
		}
		archiver = archive.NewArchiver(backend)
	}

	jobs := job.NewStore(cfg.Server.MaxJobs,
		time.Duration(cfg.Server.JobTTLHours)*time.Hour)
	reg := metrics.NewRegistry()

	bt := handler.NewBacktestHandler(client, store, archiver, jobs, reg, log)

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}

	server := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		APIKey:      cfg.Server.APIKey,
		MetricsPath: metricsPath,
	}, bt, jobs, reg, log)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down jqbt server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
