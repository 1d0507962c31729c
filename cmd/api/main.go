package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/fitcoach-backend/api/routes"
	"github.com/angelmondragon/fitcoach-backend/internal/activity"
	"github.com/angelmondragon/fitcoach-backend/internal/admin"
	"github.com/angelmondragon/fitcoach-backend/internal/clients"
	"github.com/angelmondragon/fitcoach-backend/internal/payments"
	"github.com/angelmondragon/fitcoach-backend/internal/plans"
	"github.com/angelmondragon/fitcoach-backend/internal/prompts"
	"github.com/angelmondragon/fitcoach-backend/internal/questionnaires"
	stripewebhook "github.com/angelmondragon/fitcoach-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/fitcoach-backend/pkg/auth/session"
	"github.com/angelmondragon/fitcoach-backend/pkg/config"
	"github.com/angelmondragon/fitcoach-backend/pkg/db"
	"github.com/angelmondragon/fitcoach-backend/pkg/env"
	"github.com/angelmondragon/fitcoach-backend/pkg/instance"
	"github.com/angelmondragon/fitcoach-backend/pkg/logger"
	"github.com/angelmondragon/fitcoach-backend/pkg/metrics"
	"github.com/angelmondragon/fitcoach-backend/pkg/migrate"
	"github.com/angelmondragon/fitcoach-backend/pkg/redis"
	"github.com/angelmondragon/fitcoach-backend/pkg/stripe"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(env.Files()...); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		return err
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	webhookMetrics := metrics.NewWebhookMetrics(registry)
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	conn := dbClient.DB()
	adminRepo := admin.NewRepository(conn)
	clientRepo := clients.NewRepository(conn)
	questionnaireRepo := questionnaires.NewRepository(conn)
	paymentRepo := payments.NewRepository(conn)
	stripeAPI := payments.NewStripeClient(stripeClient)

	gate, err := admin.NewGate(logg,
		admin.NewSessionBacked(cfg.JWT, sessionManager, adminRepo),
		admin.NewCookieBacked(cfg.JWT, sessionManager),
	)
	if err != nil {
		return err
	}

	adminService, err := admin.NewService(admin.ServiceParams{
		Admins:    adminRepo,
		Sessions:  sessionManager,
		JWTConfig: cfg.JWT,
		Password:  cfg.Password,
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	activityService, err := activity.NewService(activity.ServiceParams{
		Repo:   activity.NewRepository(conn),
		Gate:   gate,
		Logger: logg,
	})
	if err != nil {
		return err
	}

	clientService, err := clients.NewService(clients.ServiceParams{
		Repo:     clientRepo,
		TxRunner: dbClient,
		Gate:     gate,
		Activity: activityService,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	questionnaireService, err := questionnaires.NewService(questionnaires.ServiceParams{
		Repo:     questionnaireRepo,
		Clients:  clientRepo,
		TxRunner: dbClient,
		Gate:     gate,
		Activity: activityService,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	planService, err := plans.NewService(plans.ServiceParams{
		Repo:     plans.NewRepository(conn),
		Clients:  clientRepo,
		Gate:     gate,
		Activity: activityService,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	paymentService, err := payments.NewService(payments.ServiceParams{
		Clients:  clientRepo,
		Payments: paymentRepo,
		Stripe:   stripeAPI,
		Config:   stripeClient,
		Gate:     gate,
		Activity: activityService,
		Metrics:  paymentMetrics,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	promptService, err := prompts.NewService(prompts.ServiceParams{
		Clients:        clientRepo,
		Questionnaires: questionnaireRepo,
		Gate:           gate,
		Activity:       activityService,
	})
	if err != nil {
		return err
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Clients:           clientRepo,
		Payments:          paymentRepo,
		StripeClient:      stripeAPI,
		TransactionRunner: dbClient,
		Activity:          activityService,
		Logger:            logg,
	})
	if err != nil {
		return err
	}

	webhookGuard, err := stripewebhook.NewEventGuard(redisClient, cfg.Webhook.IdempotencyTTL, "stripe-webhook")
	if err != nil {
		return err
	}

	handler := routes.NewRouter(cfg, logg, routes.Dependencies{
		DB:                   dbClient,
		Redis:                redisClient,
		MetricsHandler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Admin:                adminService,
		Clients:              clientService,
		Activities:           activityService,
		Questionnaires:       questionnaireService,
		Plans:                planService,
		Payments:             paymentService,
		Prompts:              promptService,
		StripeClient:         stripeClient,
		StripeWebhookService: webhookService,
		StripeWebhookGuard:   webhookGuard,
		WebhookMetrics:       webhookMetrics,
	})

	addr := ":" + env.Get("PORT", cfg.App.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"instance":    instance.GetID(),
		"stripe_mode": stripeClient.Mode(),
	})
	logg.Info(logCtx, "starting api server")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logg.Info(logCtx, "shutting down api server")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
