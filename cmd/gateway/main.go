package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/application"
	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/application/services"
	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/config"
	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/infrastructure/cache"
	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/infrastructure/daraja"
	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/infrastructure/persistence/postgres"
	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/infrastructure/secrets"
	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/interfaces/rest"
	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/interfaces/rest/middleware"
	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting b2c gateway",
		"port", cfg.Server.Port,
		"daraja_env", cfg.Daraja.Environment,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cipher, err := secrets.NewCipher(cfg.Crypto.TokenKey)
	if err != nil {
		logger.Error("failed to initialise token cipher", "error", err)
		os.Exit(1)
	}

	tokenRepo := postgres.NewTokenRepository(db, cipher)
	requestRepo := postgres.NewRequestRepository(db)

	var tokens application.TokenStore = tokenRepo
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		tokens = cache.NewTokenCache(rdb, tokenRepo, cipher, logger)
		logger.Info("token cache enabled", "addr", cfg.Redis.Addr)
	}

	darajaClient := daraja.NewClient(
		daraja.BaseURLForEnv(cfg.Daraja.Environment),
		cfg.Daraja.AuthTimeout,
		cfg.Daraja.PaymentTimeout,
	)
	breakerClient := daraja.NewBreakerClient(darajaClient, cfg.Breaker)

	callbackURL := strings.TrimSuffix(cfg.Daraja.CallbackBaseURL, "/") + rest.B2CResultPath

	connectorFactory := services.NewConnectorFactory(breakerClient, tokens, requestRepo, callbackURL, logger)
	callbackService := services.NewCallbackService(requestRepo, logger)
	queryService := services.NewQueryService(requestRepo)

	h := rest.NewHandler(connectorFactory, callbackService, queryService, logger)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	handler := middleware.Recovery(logger)(http.Handler(mux))
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Timeout(cfg.Server.WriteTimeout)(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sweeper := worker.NewStaleSweeper(
		requestRepo,
		cfg.Worker.Interval,
		cfg.Worker.PendingAge,
		cfg.Worker.BatchSize,
		logger,
	)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go sweeper.Start(workerCtx)

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
