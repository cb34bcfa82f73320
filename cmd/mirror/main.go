package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"channel_mirror/internal/channels"
	"channel_mirror/internal/config"
	"channel_mirror/internal/domain"
	"channel_mirror/internal/export"
	"channel_mirror/internal/fetcher"
	"channel_mirror/internal/ingest"
	"channel_mirror/internal/metadata"
	"channel_mirror/internal/metrics"
	"channel_mirror/internal/publisher"
	"channel_mirror/internal/scheduler"
	"channel_mirror/internal/service"
	"channel_mirror/internal/storage/postgres"
)

const usage = `usage: mirror [-config config.yaml] <command> [args]

commands:
  monitor [channels_file]   mirror new videos of every listed channel
  export <out.csv>          dump stored videos as ';'-separated values
  migrate                   apply database migrations
`

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	switch args[0] {
	case "monitor":
		if len(args) > 1 {
			cfg.Sync.ChannelsFile = args[1]
		}
		err = runMonitor(ctx, cfg, logger)
	case "export":
		if len(args) != 2 {
			flag.Usage()
			os.Exit(2)
		}
		err = runExport(ctx, cfg, args[1], logger)
	case "migrate":
		err = runMigrate(cfg, logger)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("command failed", "command", args[0], "error", err)
		os.Exit(1)
	}
}

func connect(cfg *config.Config, logger *slog.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("connected to database")

	return db, nil
}

func runMigrate(cfg *config.Config, logger *slog.Logger) error {
	db, err := connect(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return postgres.Migrate(db, logger)
}

func runExport(ctx context.Context, cfg *config.Config, path string, logger *slog.Logger) error {
	db, err := connect(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}

	rows, err := export.NewExporter(postgres.NewVideoStore(db)).WriteCSV(ctx, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close export file: %w", cerr)
	}
	if err != nil {
		return err
	}

	logger.Info("export completed", "path", path, "rows", rows)
	return nil
}

func runMonitor(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := connect(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Sync.MigrateOnStart {
		if err := postgres.Migrate(db, logger); err != nil {
			return err
		}
	}

	// A nil interface disables publishing; never assign a nil *RabbitMQ here.
	var reports service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			return fmt.Errorf("connect to rabbitmq: %w", err)
		}
		defer rabbitMQ.Close()
		reports = rabbitMQ
	}

	videoStore := postgres.NewVideoStore(db)
	txManager := postgres.NewTransactionManager(db)
	recorder := metrics.NewRecorder()

	if err := os.MkdirAll(cfg.Fetcher.WorkDir, 0o755); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}

	syncService := service.NewSyncService(
		channels.NewFile(cfg.Sync.ChannelsFile),
		videoStore,
		fetcher.New(fetcher.Config{
			Path:      cfg.Fetcher.Path,
			Timeout:   cfg.Fetcher.Timeout,
			ExtraArgs: cfg.Fetcher.ExtraArgs,
		}, logger),
		metadata.NewParser(),
		ingest.NewWriter(videoStore, txManager, cfg.Sync.ChunkSize, logger),
		postgres.NewSyncStateStore(db),
		reports,
		recorder,
		logger,
		cfg.Fetcher.WorkDir,
	)

	logger.Info("starting channel mirror",
		"channels_file", cfg.Sync.ChannelsFile,
		"interval", cfg.Sync.Interval,
		"fetcher", cfg.Fetcher.Path,
	)

	if cfg.Sync.Interval == 0 {
		return runOnce(ctx, syncService, recorder, cfg.Metrics, logger)
	}

	if cfg.Metrics.ListenAddr != "" {
		stop := serveMetrics(cfg.Metrics.ListenAddr, recorder, logger)
		defer stop()
	}

	sched := scheduler.NewScheduler(syncService, cfg.Sync.Interval, logger)
	sched.OnRun(func(_ context.Context, run *domain.RunStats) {
		logger.Info("pass finished",
			"run_id", run.RunID,
			"inserted", run.Inserted(),
			"failed_channels", run.FailedChannels(),
		)
	})

	return sched.Start(ctx)
}

func runOnce(ctx context.Context, syncService *service.SyncService, recorder *metrics.Recorder, cfg config.MetricsConfig, logger *slog.Logger) error {
	run, err := syncService.Sync(ctx)
	if err == nil {
		err = run.Err()
	}

	if cfg.PushURL != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if perr := recorder.Push(pushCtx, cfg.PushURL, cfg.Job); perr != nil {
			logger.Error("failed to push metrics", "error", perr)
		}
	}

	return err
}

func serveMetrics(addr string, recorder *metrics.Recorder, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
