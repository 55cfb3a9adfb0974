package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/obligent/obligent/internal/adapter/http"
	"github.com/obligent/obligent/internal/adapter/http/handler"
	postgresRepo "github.com/obligent/obligent/internal/adapter/repository/postgres"
	redisRepo "github.com/obligent/obligent/internal/adapter/repository/redis"
	"github.com/obligent/obligent/internal/infrastructure/attestation"
	"github.com/obligent/obligent/internal/infrastructure/auditrecorder"
	"github.com/obligent/obligent/internal/infrastructure/auth"
	"github.com/obligent/obligent/internal/infrastructure/config"
	"github.com/obligent/obligent/internal/infrastructure/eventbus"
	"github.com/obligent/obligent/internal/infrastructure/honoring"
	"github.com/obligent/obligent/internal/infrastructure/logger"
	"github.com/obligent/obligent/internal/infrastructure/logging"
	"github.com/obligent/obligent/internal/infrastructure/metrics"
	"github.com/obligent/obligent/internal/infrastructure/mirrorsync"
	"github.com/obligent/obligent/internal/infrastructure/postgres"
	"github.com/obligent/obligent/internal/infrastructure/redis"
	"github.com/obligent/obligent/internal/usecase"
)

const (
	migrationsPath     = "migrations"
	stuckIntentBatch   = 100
	adminTokenLifetime = 24 * time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	zlog := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	// The outbox dispatcher and retrier log through slog; everything
	// else uses zerolog.
	slogger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)

	if err := run(cfg, zlog, slogger); err != nil {
		zlog.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg *config.Config, zlog zerolog.Logger, slogger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.Migrate {
		if err := postgres.RunMigrations(cfg.Database.URL, migrationsPath); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		zlog.Info().Msg("migrations applied")
	}

	pool, err := postgres.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	zlog.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	zlog.Info().Msg("connected to redis")

	m := metrics.New()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	intentRepo := postgresRepo.NewIntentRepository(pool)
	transferRepo := postgresRepo.NewTransferRepository(pool)
	routeRepo := postgresRepo.NewRouteRepository(pool)
	attestationRepo := postgresRepo.NewAttestationRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	honoringRepo := postgresRepo.NewHonoringRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier()
	cache := redisRepo.NewCache(redisClient)
	mirrorStore := redisRepo.NewMirrorStore(redisClient)

	// Attestation verification
	keyring, err := attestation.ParseKeyring(cfg.Attestor.Keys)
	if err != nil {
		return fmt.Errorf("parse attestor keys: %w", err)
	}
	policy, err := attestation.ParsePolicy(cfg.Attestor.Policy, cfg.Attestor.Threshold)
	if err != nil {
		return fmt.Errorf("parse attestation policy: %w", err)
	}
	verifier := attestation.NewVerifier(keyring, policy)

	// Use cases
	clearingUC := usecase.NewClearingUseCase(
		txManager, accountRepo, intentRepo, transferRepo, routeRepo,
		attestationRepo, outboxRepo, verifier, idGen, m,
	)
	gatewayUC := usecase.NewGatewayUseCase(
		txManager, intentRepo, routeRepo, attestationRepo, outboxRepo,
		auditRepo, verifier, clearingUC, cache, idGen, m,
	)
	accountUC := usecase.NewAccountUseCase(accountRepo, auditRepo, idGen)
	routeUC := usecase.NewRouteUseCase(routeRepo, accountRepo, auditRepo)
	transferUC := usecase.NewTransferUseCase(transferRepo, honoringRepo)
	mirrorUC := usecase.NewMirrorUseCase(mirrorStore, transferRepo, zlog)
	auditUC := usecase.NewAuditUseCase(auditRepo)
	honoringUC := usecase.NewHonoringUseCase(honoringRepo, auditRepo, m)
	reconciliationUC := usecase.NewReconciliationUseCase(
		intentRepo, ledgerRepo, outboxRepo, clearingUC, zlog, m,
	)

	// Bus subscribers, in delivery order: the audit trail first so
	// every event is evidenced before side effects run.
	subscribers := []eventbus.Subscriber{
		auditrecorder.NewRecorder(auditRepo, zlog),
		mirrorsync.NewSyncer(mirrorStore, zlog, m),
	}

	agentRegistry, err := honoring.ParseRegistry(cfg.Honoring.Agents)
	if err != nil {
		return fmt.Errorf("parse honoring agents: %w", err)
	}
	if !agentRegistry.Empty() {
		agentClient := honoring.NewAgentClient(cfg.Honoring.Timeout, cfg.Honoring.MaxRetries)
		subscribers = append(subscribers,
			honoring.NewDispatcher(agentRegistry, agentClient, honoringRepo, auditRepo, idGen, zlog, m))
	}

	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSub, err := eventbus.NewKafkaSubscriber(eventbus.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		if err != nil {
			return fmt.Errorf("create kafka egress: %w", err)
		}
		defer kafkaSub.Close()
		subscribers = append(subscribers, kafkaSub)
	}

	busDispatcher := eventbus.NewDispatcher(eventbus.Config{
		OutboxRepo:  outboxRepo,
		Subscribers: subscribers,
		Logger:      slogger.Logger,
		Metrics:     m,
		BatchSize:   cfg.EventBus.BatchSize,
		Interval:    cfg.EventBus.Interval,
	})

	var tokenManager *auth.TokenManager
	if cfg.Auth.AdminSecret != "" {
		tokenManager = auth.NewTokenManager(cfg.Auth.AdminSecret, adminTokenLifetime)
	} else {
		zlog.Warn().Msg("admin auth disabled: AUTH_ADMIN_SECRET is empty")
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		IntentHandler:   handler.NewIntentHandler(gatewayUC),
		AccountHandler:  handler.NewAccountHandler(accountUC),
		TransferHandler: handler.NewTransferHandler(transferUC),
		RouteHandler:    handler.NewRouteHandler(routeUC),
		MirrorHandler:   handler.NewMirrorHandler(mirrorUC),
		HonoringHandler: handler.NewHonoringHandler(honoringUC),
		AuditHandler:    handler.NewAuditHandler(auditUC),
		LedgerHandler:   handler.NewLedgerHandler(reconciliationUC),
		HealthHandler:   handler.NewHealthHandler(pool, redisClient),
		TokenManager:    tokenManager,
		Metrics:         m,
		Logger:          zlog,
		RateLimit:       cfg.Server.RateLimit,
		RateBurst:       cfg.Server.RateBurst,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zlog.Info().Str("port", cfg.Server.Port).Msg("starting http server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return busDispatcher.Start(gctx)
	})

	g.Go(func() error {
		return runReconciler(gctx, cfg.Reconciler, reconciliationUC, retrier, zlog)
	})

	g.Go(func() error {
		<-gctx.Done()
		zlog.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	zlog.Info().Msg("server stopped")

	return nil
}

// runReconciler periodically re-drives stuck intents, prunes the
// outbox and checks ledger consistency. Stuck-intent recovery runs
// through the retrier because it contends with live clearing traffic.
func runReconciler(
	ctx context.Context,
	cfg config.ReconcilerConfig,
	uc *usecase.ReconciliationUseCase,
	retrier *postgresRepo.Retrier,
	zlog zerolog.Logger,
) error {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		err := retrier.Retry(ctx, func() error {
			recovered, err := uc.RecoverStuckIntents(ctx, cfg.Grace, stuckIntentBatch)
			if err != nil {
				return err
			}
			if recovered > 0 {
				zlog.Info().Int("count", recovered).Msg("recovered stuck intents")
			}
			return nil
		})
		if err != nil {
			zlog.Error().Err(err).Msg("stuck intent recovery failed")
		}

		if err := uc.CleanupOutbox(ctx, cfg.OutboxRetention); err != nil {
			zlog.Error().Err(err).Msg("outbox cleanup failed")
		}

		if report, err := uc.CheckConsistency(ctx); err != nil {
			zlog.Error().Err(err).Msg("consistency check failed")
		} else if !report.Consistent {
			zlog.Error().
				Str("drift", report.Drift.String()).
				Msg("ledger drift detected")
		}
	}
}
