package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/cache"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/mail"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/worker"
)

const (
	shutdownTimeout = 10 * time.Second
	kafkaTimeout    = 5 * time.Second
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long:  `Start the HTTP API, the mail scheduler and, when brokers are configured, the Kafka event stream.`,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.close()
	cfg, logger := rt.cfg, rt.logger

	if cfg.Postgres.RunMigrations && rt.pg.PoolHandle() != nil {
		if err := persistence.RunMigrations(ctx, rt.pg.PoolHandle(), logger); err != nil {
			return err
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	dispatcher := events.NewInMemoryDispatcher()
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := events.NewKafkaPublisher(events.NewKafkaWriter(events.KafkaConfig{
			Brokers:  cfg.Kafka.Brokers,
			Topic:    cfg.Kafka.Topic,
			ClientID: cfg.Kafka.ClientID,
		}), kafkaTimeout, logger)
		publisher.Register(dispatcher)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("kafka writer close", zap.Error(err))
			}
		}()
		logger.Info("streaming ticket events to kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	var mailer mail.Mailer = mail.NewLogMailer(logger)
	if cfg.Mail.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.Mail.SMTPHost,
			Port:     cfg.Mail.SMTPPort,
			Username: cfg.Mail.SMTPUser,
			Password: cfg.Mail.SMTPPassword,
			From:     cfg.Mail.From,
		})
	}
	queue, err := mail.NewQueue(mailer, logger, metrics)
	if err != nil {
		return err
	}

	var categoryCache service.CategoryCache
	if redis.Enabled() {
		categoryCache = cache.NewCategoryCache(redis.Client, cfg.Cache.CategoriesTTL)
	}

	store := rt.pg.Store()
	lifecycle := service.NewLifecycle(service.LifecycleDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Recorder:   metrics,
		Logger:     logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:      store,
		Lifecycle:  lifecycle,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	categoryService := service.NewCategoryService(store.Categories(), categoryCache, logger)
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:   store.Users(),
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	notificationService := service.NewNotificationService(dispatcher, queue, cfg.Mail.WelcomeDelay, logger)

	stopWorker := worker.StartNotificationWorker(notificationService, queue, logger)
	defer stopWorker()

	probes := map[string]handlers.Pinger{}
	if rt.pg.PoolHandle() != nil {
		probes["postgres"] = rt.pg
	}
	if redis.Enabled() {
		probes["redis"] = redis
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		ErrorHandler:          httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, probes),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, lifecycle),
		Categories:     handlers.NewCategoriesHandler(categoryService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), store.Users()),
		Metrics:        observability.MetricsHandler(registry),
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-listenErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	return app.ShutdownWithTimeout(shutdownTimeout)
}
