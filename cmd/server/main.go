// UBI TSP Service
//
// The Transportation Service Provider API backend: wallet/points ledger,
// tier benefits, guest ride-hailing, trip validation and incentive
// rewards, referral and promo redemption, and enterprise carpool email
// verification.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	goredis "github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/config"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/enterprise"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/handler"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/incentive"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/ledger"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/metrics"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/middleware"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/migrations"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/notify"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/payment"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/promo"
	tspredis "github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/redis"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/referral"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/repository"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/ridehail"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/tier"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/trip"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/uow"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/validator"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/wallet"
)

const (
	headerAccept        = "Accept"
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerRequestID     = "X-Request-ID"
)

// App holds every wired dependency for the lifetime of the process.
type App struct {
	cfg    *config.Config
	db     *pgxpool.Pool
	redis  *goredis.Client
	worker *validator.Worker
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	cfg := config.Load()
	if cfg.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	app, router, err := build(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize service")
	}
	defer app.cleanup()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	if err := app.worker.Start(workerCtx, "0 * * * *"); err != nil {
		log.Fatal().Err(err).Msg("failed to start trip validation worker")
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("tsp-service starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	cancelWorker()
	app.worker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited properly")
}

func build(cfg *config.Config) (*App, http.Handler, error) {
	ctx := context.Background()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse database url: %w", err)
	}
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrations.ApplyDSN(cfg.DatabaseURL); err != nil {
		return nil, nil, fmt.Errorf("apply migrations: %w", err)
	}

	redisOpts, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	redisClient := goredis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	cache := tspredis.NewCacheClient(redisClient)

	unitOfWork := uow.New(pool)

	ledgerRepo := repository.NewLedgerRepository(pool)
	tripRepo := repository.NewTripRepository(pool)
	ridehailRepo := repository.NewRidehailRepository(pool)
	incentiveRepo := repository.NewIncentiveRepository(pool)
	enterpriseRepo := repository.NewEnterpriseRepository(pool)
	referralRepo := repository.NewReferralRepository(pool)
	promoRepo := repository.NewPromoRepository(pool)
	accountRepo := repository.NewAccountRepository(pool)

	points := ledger.New(ledgerRepo, unitOfWork)

	outbox := notify.NewOutbox(cfg.KafkaBrokers, cfg.KafkaTopic)

	gateway := payment.NewGateway(payment.Config{
		BaseURL: os.Getenv("PAYMENT_BASE_URL"),
		APIKey:  os.Getenv("PAYMENT_SECRET"),
	})

	walletSvc := wallet.New(ledgerRepo, points, gateway, outbox).
		WithDailyLimit(cfg.DailyPurchaseLimit).
		WithRedeemLimit(cfg.DailyRedeemLimit)

	tierEngine := tier.New(os.Getenv("TIER_VENDOR_BASE_URL"), cache, ridehailRepo)

	vendor := ridehail.NewVendorClient(ridehail.VendorConfig{
		BaseURL: cfg.UberBaseURL,
		APIKey:  cfg.UberAPIKey,
	})
	ridehailSvc := ridehail.New(vendor, ridehailRepo, ledgerRepo, tierEngine, unitOfWork, outbox, cfg.UberWebhookSecret)

	incentiveEngine := incentive.New(incentiveRepo, points, time.Now().UnixNano())

	tripWorker := validator.New(tripRepo, validator.StraightLineRouteLookup{}, incentiveEngine, unitOfWork, validator.Config{
		BufferHours: cfg.ValidationBufferHours,
		RoundLimit:  cfg.ValidationRoundLimit,
	})

	tripSvc := trip.New(tripRepo, unitOfWork)

	enterpriseSvc := enterprise.New(enterpriseRepo, outbox, os.Getenv("CARPOOL_VERIFY_BASE_URL"))

	referralSvc := referral.New(referralRepo, accountRepo, tierEngine, points, unitOfWork, cfg.ReferralCoin)

	promoSvc := promo.New(promoRepo, ledgerRepo, points, unitOfWork)

	walletHandler := handler.NewWalletHandler(walletSvc)
	ridehailHandler := handler.NewRidehailHandler(ridehailSvc)
	tripHandler := handler.NewTripHandler(tripSvc)
	referralHandler := handler.NewReferralHandler(referralSvc)
	promoHandler := handler.NewPromoHandler(promoSvc)
	enterpriseHandler := handler.NewEnterpriseHandler(enterpriseSvc)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(30 * time.Second))
	router.Use(chimiddleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://app.ubi.africa", "http://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{headerAccept, headerAuthorization, headerContentType, headerRequestID, "userid"},
		ExposedHeaders:   []string{headerRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(httprate.LimitByIP(100, time.Minute))

	router.Get("/health/live", healthLive)
	router.Get("/health/ready", healthReady(pool, redisClient))
	router.Get("/metrics", metrics.Handler().ServeHTTP)

	// Unauthenticated endpoints.
	router.Group(func(r chi.Router) {
		ridehailHandler.WebhookRoutes(r)
		enterpriseHandler.PublicRoutes(r)
	})

	// Authenticated endpoints.
	router.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cache, cfg.JWTSecret))
		walletHandler.Routes(r)
		ridehailHandler.Routes(r)
		tripHandler.Routes(r)
		referralHandler.Routes(r)
		promoHandler.Routes(r)
		enterpriseHandler.Routes(r)
	})

	return &App{cfg: cfg, db: pool, redis: redisClient, worker: tripWorker}, router, nil
}

func (a *App) cleanup() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

func healthLive(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(headerContentType, "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}

func healthReady(pool *pgxpool.Pool, redisClient *goredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			w.Header().Set(headerContentType, "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":"not ready","error":"database unavailable"}`)
			return
		}
		if err := redisClient.Ping(r.Context()).Err(); err != nil {
			w.Header().Set(headerContentType, "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":"not ready","error":"redis unavailable"}`)
			return
		}
		w.Header().Set(headerContentType, "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ready","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
	}
}
