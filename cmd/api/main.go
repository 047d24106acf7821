// Package main is the entry point for the BookBliss order notifier service.
//
// It loads configuration, connects to PostgreSQL, wires the email channel and
// the notification scheduler, restores persisted schedules, and serves the
// HTTP API until a shutdown signal arrives.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM):
// the HTTP server drains first, then the scheduler stops its timers while
// leaving the snapshot intact so schedules survive the restart.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"golang.org/x/sync/errgroup"

	"bookbliss/internal/api"
	"bookbliss/internal/config"
	"bookbliss/internal/db"
	"bookbliss/internal/email"
	"bookbliss/internal/notifier"
	"bookbliss/internal/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on
// error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("order notifier starting",
		"environment", cfg.Environment,
		"service", cfg.Service,
		"port", cfg.Server.Port,
	)
	appLog := &slogAdapter{logger: logger}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database.
	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:             cfg.Database.URL.Unmask(),
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	orderRepo := db.NewOrderRepository(pool)

	// AWS config is needed by the SES provider and CloudWatch metrics.
	var awsCfg aws.Config
	needsAWS := cfg.Email.Provider == config.EmailProviderSES || cfg.Observability.MetricsEnabled
	if needsAWS {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			return fmt.Errorf("loading AWS configuration: %w", err)
		}
		if cfg.AWS.EndpointURL != "" {
			awsCfg.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
		}
	}

	// Send log, with optional compressed archival of evicted entries.
	var sink email.EntrySink
	var archiver *email.ZstdArchiver
	if cfg.Notifier.ArchiveDir != "" {
		archiver, err = email.NewZstdArchiver(email.ZstdArchiverConfig{Dir: cfg.Notifier.ArchiveDir})
		if err != nil {
			return fmt.Errorf("creating send log archiver: %w", err)
		}
		defer func() {
			if err := archiver.Close(); err != nil {
				logger.Error("closing send log archiver", "error", err)
			}
		}()
		sink = archiver
	}
	sendLog := email.NewSendLog(email.SendLogConfig{
		Capacity: cfg.Notifier.SendLogCapacity,
		Sink:     sink,
		Logger:   appLog,
	})

	// Email channel.
	var provider email.Provider
	switch cfg.Email.Provider {
	case config.EmailProviderSES:
		provider = email.NewSESProvider(awsCfg, email.SESProviderConfig{
			ConfigSetName: cfg.Email.SESConfigSet,
		})
	default:
		provider = email.NewSimulatedProvider(email.SimulatedProviderConfig{
			Latency: cfg.Email.SimulatedLatency,
			Logger:  appLog,
		})
	}
	channel := email.NewChannel(email.ChannelConfig{
		Provider: provider,
		From: types.SenderIdentity{
			Address: cfg.Email.FromAddress,
			Name:    cfg.Email.FromName,
		},
		SendLog: sendLog,
		Logger:  appLog,
	})

	// Schedule snapshot persistence.
	var snapshots notifier.SnapshotStore
	if cfg.Notifier.SnapshotBackend == config.SnapshotBackendPostgres {
		snapshots = db.NewScheduleRepository(pool)
	} else {
		snapshots = notifier.NewFileSnapshotStore(cfg.Notifier.SnapshotPath)
	}

	// Metrics.
	var metrics notifier.Metrics = notifier.NoopMetrics{}
	if cfg.Observability.MetricsEnabled {
		metrics = notifier.NewCloudWatchMetrics(
			cloudwatch.NewFromConfig(awsCfg),
			cfg.Observability.MetricNamespace,
			appLog,
		)
	}

	// Scheduler.
	scheduler := notifier.NewScheduler(notifier.SchedulerConfig{
		Orders:    orderRepo,
		Mailer:    channel,
		Templates: notifier.NewTemplateEngine(notifier.TemplateEngineConfig{TrackingBaseURL: cfg.Server.TrackingBaseURL}),
		Snapshots: snapshots,
		Policies:  policiesFromConfig(cfg.Notifier),
		Logger:    appLog,
		Metrics:   metrics,
	})

	restored := scheduler.RestoreAll(ctx)
	logger.Info("schedules restored", "count", restored)

	// HTTP server.
	srv := api.NewServer(api.ServerConfig{
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Orders:       api.NewOrderHandler(orderRepo, scheduler, nil, logger),
		Admin:        api.NewAdminHandler(scheduler, sendLog, logger),
		DB:           pool,
		Logger:       logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}

		// Stop timers without touching the snapshot so schedules resume
		// after restart.
		scheduler.Shutdown()
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// policiesFromConfig builds the per-status notification policy table from the
// environment-driven configuration.
func policiesFromConfig(cfg config.NotifierConfig) notifier.PolicyTable {
	return notifier.PolicyTable{
		types.StatusConfirmed:      {Interval: cfg.ConfirmedInterval, Cap: cfg.ConfirmedCap},
		types.StatusProcessing:     {Interval: cfg.ProcessingInterval, Cap: cfg.ProcessingCap},
		types.StatusShipped:        {Interval: cfg.ShippedInterval, Cap: cfg.ShippedCap},
		types.StatusOutForDelivery: {Interval: cfg.OutForDeliveryInterval, Cap: cfg.OutForDeliveryCap},
	}
}

// newLogger creates a structured slog.Logger configured for the given log
// level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}

// slogAdapter bridges *slog.Logger to the types.Logger interface consumed by
// the notifier and email packages.
type slogAdapter struct {
	logger *slog.Logger
}

func (a *slogAdapter) Info(msg string, args ...any)  { a.logger.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.logger.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.logger.Error(msg, args...) }
func (a *slogAdapter) With(args ...any) types.Logger {
	return &slogAdapter{logger: a.logger.With(args...)}
}

var _ types.Logger = (*slogAdapter)(nil)
