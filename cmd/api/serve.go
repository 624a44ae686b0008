package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"wallet-settlement/config"
	httpHandler "wallet-settlement/internal/adapter/http/handler"
	"wallet-settlement/internal/adapter/notify"
	pgStorage "wallet-settlement/internal/adapter/storage/postgres"
	redisStorage "wallet-settlement/internal/adapter/storage/redis"
	"wallet-settlement/internal/core/ports"
	"wallet-settlement/internal/service"
	"wallet-settlement/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var serveMigrate bool

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API (default command)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply the database schema before serving")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("currency", cfg.Settlement.Currency).
		Bool("enforce_non_negative", cfg.Settlement.EnforceNonNegative).
		Str("notification_driver", cfg.Notification.Driver).
		Msg("Starting wallet settlement service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("connect to PostgreSQL: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	if serveMigrate {
		if err := pgStorage.Migrate(ctx, pool, log); err != nil {
			return err
		}
	}

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		return fmt.Errorf("connect to Redis: %w", err)
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	gin.SetMode(cfg.Server.Mode)
	router := buildRouter(cfg, pool, rdb, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
	return nil
}

// buildRouter wires repositories, stores and services into the HTTP router.
func buildRouter(cfg *config.Config, pool *pgxpool.Pool, rdb *goredis.Client, log zerolog.Logger) *gin.Engine {
	// Repositories
	userRepo := pgStorage.NewUserRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	merchantRepo := pgStorage.NewMerchantRepo(pool)
	paymentRepo := pgStorage.NewPaymentRepo(pool)
	verificationRepo := pgStorage.NewVerificationRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Redis stores
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	cooldownStore := redisStorage.NewCooldownStore(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Core services
	hashSvc := service.NewBcryptHashService(0)
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	codeHasher := service.NewHMACCodeHasher(cfg.Verification.CodeSecret)
	gateway := notify.New(cfg.Notification, log)
	auditSvc := service.NewAuditService(auditRepo, log)

	// Business services
	verification := service.NewVerificationRegistry(verificationRepo, codeHasher, cooldownStore, gateway, cfg.Verification, log)
	accountSvc := service.NewAccountService(userRepo, walletRepo, verificationRepo, verification, hashSvc, tokenSvc, transactor, log)
	resolver := service.NewAccountResolver(merchantRepo)
	settlementSvc := service.NewSettlementEngine(
		userRepo,
		walletRepo,
		paymentRepo,
		resolver,
		idempotencyCache,
		transactor,
		auditSvc,
		cfg.Settlement,
		log,
	)
	paymentSvc := service.NewPaymentQueryService(paymentRepo, cfg.Settlement.Currency, log)
	merchantSvc := service.NewMerchantService(merchantRepo, userRepo, log)
	walletSvc := service.NewWalletService(walletRepo)

	return httpHandler.SetupRouter(httpHandler.RouterDeps{
		AccountSvc:     accountSvc,
		SettlementSvc:  settlementSvc,
		PaymentSvc:     paymentSvc,
		MerchantSvc:    merchantSvc,
		WalletSvc:      walletSvc,
		TokenSvc:       tokenSvc,
		Currency:       cfg.Settlement.Currency,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgStorage.NewHealthCheck(pool), redisStorage.NewHealthCheck(rdb)},
		AuditSvc:       auditSvc,
		Logger:         log,
	})
}
