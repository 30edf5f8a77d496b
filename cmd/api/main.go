package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"swapgate/config"
	httpHandler "swapgate/internal/adapter/http/handler"
	"swapgate/internal/adapter/provider"
	pgStorage "swapgate/internal/adapter/storage/postgres"
	redisStorage "swapgate/internal/adapter/storage/redis"
	"swapgate/internal/core/ports"
	"swapgate/internal/service"
	"swapgate/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Swapgate")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	orderRepo := pgStorage.NewOrderRepo(pool)
	eventRepo := pgStorage.NewWebhookEventRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	dedupeCache := redisStorage.NewEventDedupeCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	sigSvc := service.NewHMACSignatureService()
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.JWTIssuer)
	notifier := service.NewLogNotifier(log)

	// Exchange provider client
	exchange := provider.NewExchangeClient(cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Provider.Timeout, nil, log)

	// Initialize business services
	reconciler := service.NewReconcilerService(orderRepo, transactor, notifier, cfg.Monitor.AmountTolerance, log)
	ingestor := service.NewWebhookService(eventRepo, dedupeCache, reconciler, sigSvc, cfg.Provider.WebhookSecret, log)
	poller := service.NewPollService(orderRepo, exchange, reconciler, log)
	monitor := service.NewMonitorService(
		orderRepo,
		reconciler,
		poller,
		notifier,
		cfg.Monitor.ReminderWindow,
		cfg.Monitor.AbandonAge,
		cfg.Monitor.StuckAge,
		log,
	)
	checkoutSvc := service.NewCheckoutService(orderRepo, exchange, service.SettlementParams{
		Asset:         cfg.Settlement.Asset,
		Network:       cfg.Settlement.Network,
		Address:       cfg.Settlement.Address,
		RefundAddress: cfg.Settlement.RefundAddress,
	}, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		CheckoutSvc:     checkoutSvc,
		PollWorker:      poller,
		Ingestor:        ingestor,
		Monitor:         monitor,
		OrderRepo:       orderRepo,
		EventRepo:       eventRepo,
		HashSvc:         hashSvc,
		TokenSvc:        tokenSvc,
		OperatorKeyHash: cfg.Auth.OperatorKeyHash,
		SweepSecret:     cfg.Monitor.SweepSecret,
		RetentionMaxAge: cfg.Retention.MaxAge,
		RateLimitStore:  rateLimitStore,
		HealthCheckers:  []ports.HealthChecker{pgHealth, redisHealth},
		Logger:          log,
	})

	// Background workers run until shutdown
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	// Built-in sweep ticker; interval 0 leaves the external trigger as the
	// only way to run sweeps.
	if cfg.Monitor.SweepInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Monitor.SweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-workerCtx.Done():
					return
				case <-ticker.C:
					summary, err := monitor.Sweep(workerCtx)
					if err != nil {
						log.Error().Err(err).Msg("monitor sweep failed")
						continue
					}
					log.Info().
						Int("expired", summary.Expired).
						Int("reminded", summary.Reminded).
						Int("abandoned", summary.Abandoned).
						Int("polled", summary.Polled).
						Int("poll_failures", summary.PollFailures).
						Msg("monitor sweep done")
				}
			}
		}()
		log.Info().Dur("interval", cfg.Monitor.SweepInterval).Msg("Sweep ticker started")
	}

	// Webhook audit retention purge ticker
	if cfg.Retention.PurgeInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Retention.PurgeInterval)
			defer ticker.Stop()
			for {
				select {
				case <-workerCtx.Done():
					return
				case <-ticker.C:
					cutoff := time.Now().Add(-cfg.Retention.MaxAge)
					purged, err := eventRepo.PurgeOlderThan(workerCtx, cutoff)
					if err != nil {
						log.Error().Err(err).Msg("webhook event purge failed")
						continue
					}
					if purged > 0 {
						log.Info().Int64("purged", purged).Msg("webhook events purged")
					}
				}
			}
		}()
		log.Info().Dur("interval", cfg.Retention.PurgeInterval).Msg("Retention purge ticker started")
	}

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	stopWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
