package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/deskcore/sla-engine/internal/api/http"
	"github.com/deskcore/sla-engine/internal/api/http/handlers"
	"github.com/deskcore/sla-engine/internal/auth"
	"github.com/deskcore/sla-engine/internal/config"
	"github.com/deskcore/sla-engine/internal/escalation"
	"github.com/deskcore/sla-engine/internal/events"
	"github.com/deskcore/sla-engine/internal/notify"
	"github.com/deskcore/sla-engine/internal/observability"
	"github.com/deskcore/sla-engine/internal/persistence"
	"github.com/deskcore/sla-engine/internal/repository"
	"github.com/deskcore/sla-engine/internal/sla"
)

const tickLockKey = "sla-engine:escalation:tick"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketSLARepository(pool)
	staffRepo := repository.NewStaffRepository(pool)

	registry := sla.NewRegistry()
	calendar := sla.NewCalendar(cfg.Calendar.Holidays...)
	calculator := sla.NewCalculator(registry, calendar)

	dispatcher := events.NewInMemoryDispatcher()
	registerAuditSubscribers(dispatcher, logger)

	sender := notify.NewSender(cfg.Notification, logger)
	notifier := notify.NewEscalationNotifier(staffRepo, sender, cfg.Notification, logger)

	var recordStore escalation.RecordStore
	if pool != nil {
		recordStore = repository.NewNotificationRecordRepository(pool)
	}
	tracker := escalation.SelectTracker(ctx, recordStore, logger)

	lock := escalation.NewNoopLock()
	if redis.Client != nil {
		lock = escalation.NewRedisLock(redis.Client, tickLockKey, cfg.Scheduler.LockTTL())
	}

	scheduler := escalation.NewScheduler(escalation.Config{
		CronExpression: cfg.Scheduler.CronExpression,
		TickTimeout:    cfg.Scheduler.TickTimeout(),
	}, escalation.Dependencies{
		Source:     ticketRepo,
		Evaluator:  escalation.NewEvaluator(cfg.Scheduler.ApproachingWindow(), cfg.Scheduler.WarningPercent),
		Tracker:    tracker,
		Notifier:   notifier,
		Lock:       lock,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})

	if cfg.Scheduler.Enabled && pool != nil {
		if err := scheduler.Start(); err != nil {
			logger.Fatal("failed to start escalation scheduler", zap.Error(err))
		}
	} else {
		logger.Warn("escalation scheduler disabled",
			zap.Bool("enabled", cfg.Scheduler.Enabled),
			zap.Bool("database", pool != nil))
	}

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewMiddleware(tokenManager)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		SLA:            handlers.NewSLAHandler(registry, calculator, ticketRepo, logger),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(cfg.Scheduler.TickTimeout()):
		logger.Warn("in-flight tick did not finish before shutdown deadline")
	}
	_ = app.Shutdown()
}

// registerAuditSubscribers logs the escalation event stream so threshold
// crossings are traceable even when notification delivery is log-only.
func registerAuditSubscribers(dispatcher events.Dispatcher, logger *zap.Logger) {
	audit := func(_ context.Context, event events.Event) error {
		logger.Info("escalation event",
			zap.String("event", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Any("payload", event.Payload))
		return nil
	}
	dispatcher.Subscribe(events.EventEscalationRaised, audit)
	dispatcher.Subscribe(events.EventEscalationNotified, audit)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
