package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"xiaofei/internal/amqp"
	"xiaofei/internal/backend"
	"xiaofei/internal/cache"
	"xiaofei/internal/cli"
	apphttp "xiaofei/internal/http"
	"xiaofei/internal/log"
	"xiaofei/internal/middleware/ratelimit"
	"xiaofei/internal/page"
	"xiaofei/internal/services"
	"xiaofei/internal/session"
	"xiaofei/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	catalog := services.NewCatalog(res.Backend, cfg.LookupCacheTTL, 2*time.Second)

	// Change events are optional; without a broker each instance only sees
	// its own mutations.
	var (
		amqpClient *amqp.Client
		publisher  services.Publisher
	)
	if cfg.AMQPEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without change events", log.FieldError, err)
		} else {
			publisher = amqpClient
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange)
		}
	}

	svc := services.NewConsumptionService(res.Backend, catalog, publisher, uuid.NewString())
	counter := services.NewPendingCounter(svc, logger.WithComponent(log.ComponentPage).Logger, time.Minute)
	flows := page.NewFlows(svc, counter, logger)

	sessions := session.NewStore(cfg.SessionMax, cfg.SessionTTL, cfg.SecureCookies)
	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})

	caches := cache.NewManager(logger.Logger)
	caches.Register("sessions", sessions.Cache())
	for name, c := range catalog.Caches() {
		caches.Register(name, c)
	}
	caches.Register("ratelimit", limiter)
	caches.StartCleanup(time.Minute)

	var source worker.Source
	if amqpClient != nil {
		source = amqpClient
	}
	changes := worker.NewChangeWorker(source, svc.HandleChange, svc, cfg.LookupCacheTTL, logger.WithComponent(log.ComponentWorker).Logger)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	go func() {
		if err := changes.Run(workerCtx); err != nil {
			logger.Error("Change worker stopped", log.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(apphttp.Deps{
		Addr:     ":" + cfg.Port,
		Flows:    flows,
		Loader:   page.NewLoader(flows),
		Sessions: sessions,
		Limiter:  limiter,
		Logger:   logger,

		TrustedProxies: cfg.TrustedProxies,

		Ready: func(ctx context.Context) error {
			_, err := res.Backend.Channels(ctx)
			return err
		},
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		stopWorker()
		caches.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Warn("Backend cleanup error", log.FieldError, err)
			}
		}
	})

	logger.Info("Starting xiaofei server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
