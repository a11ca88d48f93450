package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appConfig "github.com/Conava/Fortalis-Auth/internal/config"
	domainService "github.com/Conava/Fortalis-Auth/internal/domain/service"
	"github.com/Conava/Fortalis-Auth/internal/events"
	kafkaEvents "github.com/Conava/Fortalis-Auth/internal/events/kafka"
	handlerHTTP "github.com/Conava/Fortalis-Auth/internal/handler/http"
	"github.com/Conava/Fortalis-Auth/internal/infrastructure/database"
	"github.com/Conava/Fortalis-Auth/internal/infrastructure/database/postgres"
	"github.com/Conava/Fortalis-Auth/internal/infrastructure/ratelimit"
	"github.com/Conava/Fortalis-Auth/internal/infrastructure/security"
	"github.com/Conava/Fortalis-Auth/internal/service"
	"github.com/Conava/Fortalis-Auth/internal/utils/logger"
	"github.com/Conava/Fortalis-Auth/migrations"
)

func main() {
	cfg, err := appConfig.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, log); err != nil {
		log.Fatal("service exited with error", zap.Error(err))
	}
}

func run(cfg *appConfig.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.AutoMigrate {
		if err := migrations.Run("file://"+cfg.Database.MigrationsPath, cfg.Database.DSN(), log); err != nil {
			return err
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Security primitives. Configuration errors here are fatal on purpose:
	// starting with a bad MFA key or missing signing key must not happen.
	mfaCrypto, err := security.NewMFACryptoService(cfg.MFA.EncryptionKey, cfg.MFA.EncryptionKeyID)
	if err != nil {
		return err
	}
	signer, err := security.NewRSATokenService(cfg.JWT)
	if err != nil {
		return err
	}
	totpService := security.NewTOTPService()
	passwordService := security.NewArgon2idPasswordService(argon2Params(cfg.Security.PasswordHash))

	var limiter domainService.RateLimiter
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		limiter = ratelimit.NewRedisRateLimiter(redisClient, log)
		log.Info("using redis rate limiter", zap.String("addr", cfg.Redis.Addr))
	} else {
		limiter = ratelimit.NewMemoryRateLimiter()
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		producer := kafkaEvents.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		defer producer.Close()
		publisher = producer
		log.Info("publishing events to kafka", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	accountRepo := database.NewPgxAccountRepository(pool)
	refreshRepo := database.NewPgxRefreshTokenRepository(pool)
	mfaRepo := database.NewPgxAccountMFARepository(pool)
	backupRepo := database.NewPgxMFABackupCodeRepository(pool)

	accountService := service.NewAccountService(accountRepo, passwordService, publisher, log)
	mfaService := service.NewMFAService(cfg.MFA, mfaRepo, backupRepo, totpService, mfaCrypto, publisher, log)
	tokenService := service.NewTokenService(cfg.JWT, signer, refreshRepo, mfaService, publisher, log)
	challengeStore := service.NewLoginChallengeStore(cfg.MFA.ChallengeTTL)
	loginService := service.NewLoginService(
		cfg.Security.RateLimiting,
		accountService, tokenService, mfaService, challengeStore,
		limiter, publisher, log,
	)

	router := handlerHTTP.NewRouter(handlerHTTP.RouterDeps{
		Auth:    handlerHTTP.NewAuthHandler(accountService, loginService, tokenService, log),
		MFA:     handlerHTTP.NewMFAHandler(mfaService, log),
		JWKS:    handlerHTTP.NewJWKSHandler(signer, log),
		Health:  handlerHTTP.NewHealthHandler(pool),
		Signer:  signer,
		Logger:  log,
		Metrics: cfg.Metrics.Enabled,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Periodic housekeeping for expired challenges and refresh tokens.
	go housekeeping(ctx, challengeStore, tokenService, log)

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func housekeeping(ctx context.Context, challenges *service.LoginChallengeStore, tokens *service.TokenService, log *zap.Logger) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := challenges.ClearExpired(); removed > 0 {
				log.Debug("expired login challenges removed", zap.Int("count", removed))
			}
			purged, err := tokens.PurgeExpired(ctx)
			if err != nil {
				log.Warn("failed to purge expired refresh tokens", zap.Error(err))
				continue
			}
			if purged > 0 {
				log.Debug("expired refresh tokens purged", zap.Int64("count", purged))
			}
		}
	}
}

func argon2Params(cfg appConfig.PasswordHashConfig) security.Argon2Params {
	params := security.DefaultArgon2Params()
	if cfg.Memory > 0 {
		params.Memory = cfg.Memory
	}
	if cfg.Iterations > 0 {
		params.Iterations = cfg.Iterations
	}
	if cfg.Parallelism > 0 {
		params.Parallelism = cfg.Parallelism
	}
	if cfg.SaltLength > 0 {
		params.SaltLength = cfg.SaltLength
	}
	if cfg.KeyLength > 0 {
		params.KeyLength = cfg.KeyLength
	}
	return params
}
