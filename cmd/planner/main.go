package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"workload-planner/internal/config"
	"workload-planner/internal/editlock"
	"workload-planner/internal/handler"
	"workload-planner/internal/logging"
	"workload-planner/internal/realtime"
	"workload-planner/internal/repository"
	"workload-planner/internal/service"
	"workload-planner/internal/transport/httpapi"
	"workload-planner/internal/workspace"
	"workload-planner/pkg/telegram"
)

func main() {
	cfg := config.GetConfig()
	logger := logging.New(cfg.LogLevel)
	logger.Info("Config initialized")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.WithError(err).Fatal("Failed to get database instance")
	}

	g, gctx := errgroup.WithContext(ctx)

	// Postgres carries changes between processes; otherwise everything
	// happens in this one.
	var feed realtime.Feed
	if repository.IsPostgresURL(cfg.DatabaseURL) {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.WithError(err).Fatal("Failed to open change feed pool")
		}
		defer pool.Close()
		pgFeed := realtime.NewPGFeed(pool, realtime.DefaultChannel, logger)
		g.Go(func() error {
			if err := pgFeed.Listen(gctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		feed = pgFeed
	} else {
		feed = realtime.NewHub(logger)
	}

	store, err := repository.NewStore(db, feed, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create repositories")
	}

	events := service.NewTeamEventService(store.TeamEvents, logger)
	if cfg.HolidayCalendar != "" {
		count, err := events.ImportCalendar(ctx, cfg.HolidayCalendar)
		if err != nil {
			logger.WithError(err).Warn("Failed to import holiday calendar")
		} else {
			logger.WithField("events", count).Info("Holiday calendar imported")
		}
	}

	ws, err := workspace.Open(ctx, store, feed, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load workspace")
	}
	defer ws.Close()

	locks := editlock.NewCoordinator(store.Locks,
		editlock.WithTTL(cfg.LockTTL),
		editlock.WithRenewInterval(cfg.LockRenewInterval),
		editlock.WithLogger(logger),
		editlock.WithFeed(feed),
	)

	allocations := service.NewAllocationService(store.Allocations, logger)
	absences := service.NewAbsenceService(store.Absences, store.Employees, logger)

	server := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewServer(ws, locks, httpapi.Services{
			Allocations: allocations,
			Absences:    absences,
			Events:      events,
		}, logger).Router(),
	}
	g.Go(func() error {
		logger.WithField("addr", cfg.HTTPAddr).Info("HTTP API listening")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	var bot *handler.Handler
	var client *telegram.Client
	if cfg.BotEnabled() {
		client, err = telegram.NewClient(cfg.TelegramToken, cfg.TelegramDebug, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create Telegram client")
		}
		bot = handler.NewHandler(client, handler.Deps{
			Workspace:     ws,
			Employees:     store.Employees,
			Projects:      store.Projects,
			Locks:         locks,
			Capacity:      service.NewCapacityService(ws),
			Absences:      absences,
			Allocations:   allocations,
			Events:        events,
			AutosaveDelay: cfg.AutosaveDelay,
			Logger:        logger,
		})
		go bot.HandleUpdates(client.Updates())
		logger.Info("Bot started")
	} else {
		logger.Info("TELEGRAM_BOT_TOKEN not set, bot disabled")
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if client != nil {
			client.Stop()
		}
		if bot != nil {
			bot.Close()
		}
		return server.Shutdown(shutdownCtx)
	})

	logger.Info("Planner started. Press Ctrl+C to stop.")
	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("Planner stopped with error")
	}

	if err := sqlDB.Close(); err != nil {
		logger.WithFields(logrus.Fields{"error": err}).Warn("Error closing database")
	}
	logger.Info("Planner stopped gracefully")
}
