package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/meeting-scheduler/internal/application"
	"github.com/example/meeting-scheduler/internal/config"
	httptransport "github.com/example/meeting-scheduler/internal/http"
	"github.com/example/meeting-scheduler/internal/lock"
	"github.com/example/meeting-scheduler/internal/logging"
	"github.com/example/meeting-scheduler/internal/metrics"
	"github.com/example/meeting-scheduler/internal/persistence"
	"github.com/example/meeting-scheduler/internal/persistence/memory"
	"github.com/example/meeting-scheduler/internal/persistence/postgres"
	"github.com/example/meeting-scheduler/internal/persistence/sqlite"
	"github.com/example/meeting-scheduler/internal/persistence/sqlite/migration"
	"github.com/example/meeting-scheduler/internal/scheduler"
	"github.com/example/meeting-scheduler/internal/storeadapter"
)

// Process exit codes for -once runs.
const (
	exitOK      = 0
	exitFatal   = 1
	exitPartial = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("meeting-scheduler", flag.ContinueOnError)
	flags.SetOutput(stderr)
	once := flags.Bool("once", false, "generate the current month once, print the run report and exit")
	envFile := flags.String("env-file", ".env", "dotenv file read before the environment")
	if err := flags.Parse(args); err != nil {
		return exitFatal
	}

	logOut := stdout
	if *once {
		logOut = stderr
	}
	logger := logging.New(logOut, slog.LevelInfo, "json")

	if err := config.LoadDotEnv(*envFile); err != nil {
		logger.Error("failed to load env file", "path", *envFile, "error", err)
		return exitFatal
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		return exitFatal
	}
	logger = logging.New(logOut, cfg.LogLevel, cfg.LogFormat)

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "driver", cfg.StorageDriver, "error", err)
		return exitFatal
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	locker, closeLocker, err := newLocker(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect lock backend", "addr", cfg.RedisAddr, "error", err)
		return exitFatal
	}
	defer closeLocker()

	recorder := metrics.NewRecorder()
	latest := application.NewLatestRunRecorder()
	adapter := storeadapter.New(store)

	schedulerService := application.NewSchedulerService(application.SchedulerDependencies{
		Clubs:        adapter,
		Meetings:     adapter,
		Attendance:   adapter,
		Locker:       locker,
		Observer:     application.Observers(recorder, latest),
		Logger:       logger,
		Location:     cfg.Location,
		Concurrency:  cfg.Concurrency,
		MeetingPlace: cfg.MeetingPlace,
	})

	if *once {
		return runOnce(ctx, schedulerService, cfg.RunTimeout, stdout, logger)
	}

	queryService := application.NewMeetingQueryServiceWithLogger(adapter, adapter, nil, logger)
	return serve(ctx, cfg, serverDeps{
		scheduler: schedulerService,
		queries:   queryService,
		latest:    latest,
		recorder:  recorder,
		health:    adapter,
	}, logger)
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		return postgres.Open(ctx, postgres.Config{DSN: cfg.PostgresDSN, Logger: logger})
	case config.DriverMemory:
		logger.Warn("using in-memory storage; meetings are lost on exit")
		return memory.New(nil), nil
	default:
		return sqlite.Open(ctx, migration.DefaultSQLiteConfig(cfg.SQLiteDSN), sqlite.WithLogger(logger))
	}
}

func newLocker(ctx context.Context, cfg config.Config, logger *slog.Logger) (application.Locker, func(), error) {
	if !cfg.RedisEnabled() {
		return lock.NewKeyedMutex(), func() {}, nil
	}

	client, err := lock.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	redisCfg := lock.DefaultRedisConfig()
	if cfg.LockTTL > 0 {
		redisCfg.TTL = cfg.LockTTL
	}
	logger.Info("using redis advisory locks", "addr", cfg.RedisAddr, "ttl", redisCfg.TTL)

	closeClient := func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close redis client", "error", err)
		}
	}
	return lock.NewRedisLocker(client, redisCfg, logger), closeClient, nil
}

type runner interface {
	Run(ctx context.Context) (application.RunReport, error)
}

func runOnce(ctx context.Context, svc runner, timeout time.Duration, stdout io.Writer, logger *slog.Logger) int {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	report, err := svc.Run(ctx)
	if err != nil {
		logger.Error("scheduler run failed", "error", err)
	}
	if werr := writeReport(stdout, report); werr != nil {
		logger.Error("failed to write run report", "error", werr)
		return exitFatal
	}
	return exitCode(report, err)
}

type reportOutput struct {
	application.RunReport
	Outcome string `json:"outcome"`
}

func writeReport(w io.Writer, report application.RunReport) error {
	if report.Clubs == nil {
		report.Clubs = []application.ClubReport{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reportOutput{RunReport: report, Outcome: report.Outcome()})
}

func exitCode(report application.RunReport, err error) int {
	if err != nil {
		return exitFatal
	}
	switch report.Outcome() {
	case application.RunFailed:
		return exitFatal
	case application.RunPartial:
		return exitPartial
	default:
		return exitOK
	}
}

type serverDeps struct {
	scheduler *application.SchedulerService
	queries   *application.MeetingQueryService
	latest    *application.LatestRunRecorder
	recorder  *metrics.Recorder
	health    interface{ Ping(context.Context) error }
}

func serve(ctx context.Context, cfg config.Config, deps serverDeps, logger *slog.Logger) int {
	handler, err := newHandler(cfg, deps, logger)
	if err != nil {
		logger.Error("failed to build http handler", "error", err)
		return exitFatal
	}

	var trigger *scheduler.Trigger
	if cfg.CronEnabled() {
		trigger, err = scheduler.New(scheduler.Config{
			Spec:     cfg.CronSpec,
			Location: cfg.Location,
			Timeout:  cfg.RunTimeout,
		}, func(ctx context.Context) error {
			_, err := deps.scheduler.Run(ctx)
			return err
		}, logger)
		if err != nil {
			logger.Error("failed to configure cron trigger", "spec", cfg.CronSpec, "error", err)
			return exitFatal
		}
		if err := trigger.Start(ctx); err != nil {
			logger.Error("failed to start cron trigger", "error", err)
			return exitFatal
		}
		if next, err := trigger.Next(); err == nil {
			logger.Info("next scheduled run", "at", next)
		}
	} else {
		logger.Info("cron trigger disabled")
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.RunTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if trigger != nil {
			if err := trigger.Stop(shutdownCtx); err != nil {
				logger.Error("failed to stop cron trigger", "error", err)
			}
		}
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("meeting scheduler listening", "addr", server.Addr, "storage", cfg.StorageDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		return exitFatal
	}
	return exitOK
}

func newHandler(cfg config.Config, deps serverDeps, logger *slog.Logger) (http.Handler, error) {
	routerCfg := httptransport.RouterConfig{
		Runs:       httptransport.NewRunHandler(deps.scheduler, deps.latest, cfg.RunTimeout, logger),
		Meetings:   httptransport.NewMeetingHandler(deps.queries, logger),
		Health:     httptransport.NewHealthHandler(deps.health, deps.scheduler.Running, logger),
		Metrics:    deps.recorder.Handler(),
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	}

	if cfg.TriggerTokenHash != "" {
		verifier, err := application.NewTokenVerifier(cfg.TriggerTokenHash)
		if err != nil {
			return nil, fmt.Errorf("trigger token hash: %w", err)
		}
		routerCfg.TriggerAuth = httptransport.RequireTriggerToken(verifier, logger)
	} else {
		logger.Warn("SCHEDULER_TRIGGER_TOKEN_HASH not set; POST /runs is disabled")
	}

	return httptransport.NewRouter(routerCfg), nil
}
