package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"outreach-agent/internal/ai"
	"outreach-agent/internal/audit"
	"outreach-agent/internal/auth"
	"outreach-agent/internal/calls"
	"outreach-agent/internal/config"
	"outreach-agent/internal/directory"
	"outreach-agent/internal/dispatch"
	"outreach-agent/internal/learning"
	"outreach-agent/internal/lifecycle"
	"outreach-agent/internal/metrics"
	"outreach-agent/internal/migration"
	"outreach-agent/internal/notify"
	"outreach-agent/internal/organizations"
	"outreach-agent/internal/ranking"
	"outreach-agent/internal/reporting"
	"outreach-agent/internal/scheduler"
	"outreach-agent/internal/telephony"
	"outreach-agent/internal/worker"
	"outreach-agent/pkg/besteffort"
	"outreach-agent/pkg/logger"
	"outreach-agent/pkg/utils"
)

const (
	shutdownTimeout = 20 * time.Second
	enrichTimeout   = 10 * time.Minute
	lockPrefix      = "outreach:"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if err := run(logger.With(rootCtx, log), cfg); err != nil {
		log.Error("agent failed", logger.Err(err))
		os.Exit(1)
	}
	log.Info("agent stopped")
}

func run(ctx context.Context, cfg config.Config) error {
	log := logger.From(ctx)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)
	ctx = besteffort.WithRecorder(ctx, m)

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		return fmt.Errorf("auth init: %w", err)
	}

	db, err := utils.OpenPostgres(ctx, cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		return fmt.Errorf("postgres init: %w", err)
	}
	defer db.Close()

	if cfg.DB.MigrateOnStart {
		if err := migration.Run(db.DB); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations applied")
	}

	rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("redis init: %w", err)
	}
	defer rdb.Close()
	locker := utils.NewRedisLocker(rdb, lockPrefix)

	orgRepo := organizations.NewPostgresRepo(db)
	callRepo := calls.NewPostgresRepo(db)

	notifier, err := newNotifier(cfg.Telegram)
	if err != nil {
		return fmt.Errorf("notifier init: %w", err)
	}

	aiClient := ai.NewClient(ai.Config{
		APIKey:          cfg.AI.APIKey,
		BaseURL:         cfg.AI.BaseURL,
		TranscribeModel: cfg.AI.TranscribeModel,
		SummaryModel:    cfg.AI.SummaryModel,
		Timeout:         cfg.AI.Timeout,
	})
	twilio := telephony.NewTwilioProvider(telephony.TwilioConfig{
		AccountSID: cfg.Twilio.AccountSID,
		AuthToken:  cfg.Twilio.AuthToken,
		FromNumber: cfg.Twilio.FromNumber,
		APIBaseURL: cfg.Twilio.APIBaseURL,
	})
	if !twilio.Configured() {
		log.Warn("twilio not configured, calls will be announced but not placed")
	}

	tracker := lifecycle.NewTracker(orgRepo, callRepo, notifier, lifecycle.WithMatchWindow(cfg.Calls.RecordingMatchWindow))
	enricher := lifecycle.NewEnricher(callRepo, orgRepo, twilio, aiClient, aiClient, notifier, learning.NewLearner(orgRepo))

	g, gctx := errgroup.WithContext(ctx)

	var enqueuer lifecycle.Enqueuer
	var inline *lifecycle.InlineEnqueuer
	switch cfg.Calls.EnrichMode {
	case config.EnrichModeQueue:
		srv := worker.Server{
			RedisAddress:  cfg.RedisAddr(),
			RedisPassword: cfg.Redis.Password,
			RedisDB:       cfg.Redis.DB,
			Concurrency:   2,

			ShutdownTimeout: shutdownTimeout,
		}
		client := asynq.NewClient(srv.RedisOpt())
		defer client.Close()
		enqueuer = worker.NewQueueEnqueuer(client, enrichTimeout)
		srv.Run(gctx, g, worker.AsynqQueues{worker.QueueEnrich: 1}, worker.EnrichHandler(enricher))
	default:
		inline = lifecycle.NewInlineEnqueuer(enricher, enrichTimeout)
		enqueuer = inline
	}

	engine := ranking.NewEngine(orgRepo)
	dispatcher := dispatch.NewDispatcher(orgRepo, twilio, notifier, cfg.BaseURL(),
		dispatch.WithLocker(locker, cfg.Calls.DispatchLockTTL),
		dispatch.WithObserver(m),
	)
	batch := dispatch.NewBatch(engine, dispatcher, cfg.Calls.BatchLimit)
	ingestor := directory.NewIngestor(directorySource(cfg.Directory), orgRepo, notifier, cfg.Directory.CountryPrefix)

	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}
	sched := scheduler.New(scheduler.Config{
		Location:            loc,
		CallStartHour:       cfg.Scheduler.CallStartHour,
		MorningNotifyHour:   cfg.Scheduler.MorningNotifyHour,
		MorningNotifyMinute: cfg.Scheduler.MorningNotifyMinute,
		PreviewLimit:        cfg.Calls.PreviewLimit,
		JobTimeout:          cfg.Scheduler.JobTimeout,
	}, ingestor, batch, engine, notifier,
		scheduler.WithMetrics(m),
		scheduler.WithLocker(locker),
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	registerRoutes(r, routeDeps{
		cfg:  cfg,
		auth: authManager,
		health: func(ctx context.Context) error {
			if err := utils.HealthCheck(ctx, db, 2*time.Second); err != nil {
				return err
			}
			return redisPing(ctx, rdb)
		},
		webhooks: telephony.WebhookHandler{Tracker: tracker, Enricher: enqueuer, Observer: m},
		api: apiHandlers(cfg, callRepo, orgRepo, engine, reporting.NewService(callRepo), sched, audit.NewService(audit.NewPostgresRepo(db))),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	g.Go(func() error {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "base_url", cfg.BaseURL())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown failed", logger.Err(err))
		}
		return nil
	})

	g.Go(func() error {
		return metrics.NewPrometheusServer(cfg.App.MetricsAddr, registry).Run(gctx)
	})

	if cfg.Scheduler.Enabled {
		g.Go(func() error { return sched.Run(gctx) })
	} else {
		log.Info("scheduler disabled")
	}

	err = g.Wait()
	if inline != nil {
		inline.Wait()
	}
	return err
}

func newNotifier(cfg config.TelegramConfig) (notify.Notifier, error) {
	if cfg.BotToken == "" {
		return notify.LogNotifier{}, nil
	}
	return notify.NewTelegramNotifier(cfg.BotToken, cfg.ChatID)
}

func directorySource(cfg config.DirectoryConfig) directory.Source {
	var sources directory.MultiSource
	if cfg.IncludeSample {
		sources = append(sources, directory.StaticSource{Entries: directory.SampleEntries})
	}
	if cfg.File != "" {
		sources = append(sources, directory.FileSource{Path: cfg.File})
	}
	return sources
}

func redisPing(ctx context.Context, rdb *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return rdb.Ping(ctx).Err()
}
