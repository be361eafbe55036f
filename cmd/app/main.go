package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"myfunds/configs"
	"myfunds/internal/adapter"
	"myfunds/internal/adapter/feed"
	"myfunds/internal/cache"
	"myfunds/internal/database"
	delivery "myfunds/internal/delivery/http"
	"myfunds/internal/domain"
	"myfunds/internal/infra"
	applog "myfunds/internal/logger"
	"myfunds/internal/repository"
	"myfunds/internal/repository/memstore"
	"myfunds/internal/service"
	"myfunds/internal/usecase"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Load configuration
	cfg := configs.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	logger := newLogger(cfg)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx := context.Background()

	// Initialize storage
	store, ping, closeStore, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize store", zap.Error(err))
	}
	defer closeStore()

	// Market data, cache and event feed
	provider := newProvider(cfg)

	var fundCache domain.FundCache = cache.Nop{}
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisFundCache(ctx, cfg.Redis.URL, cfg.Redis.CacheTTL)
		if err != nil {
			logger.Warn("redis unavailable, fund cache disabled", zap.Error(err))
		} else {
			defer redisCache.Close()
			fundCache = redisCache
			logger.Info("fund cache enabled", zap.Duration("ttl", cfg.Redis.CacheTTL))
		}
	}

	var publisher domain.TransactionPublisher = feed.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = feed.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.TransactionTopic, logger)
		logger.Info("transaction feed enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.TransactionTopic),
		)
	}
	defer publisher.Close()

	// Initialize services
	funds := service.NewFundDataService(store, provider, fundCache, cfg.Trading.RefreshWorkers, time.Now)
	users := service.NewUserService(store, time.Now)
	trades := usecase.NewTradeService(store, funds, publisher, cfg.Trading.FeeRate, time.Now)
	plans := usecase.NewFixedInvestmentService(store, funds, trades, time.Now)

	// Initialize batch scheduler
	scheduler := infra.NewScheduler(funds, plans, infra.ScheduleSpecs{
		DailyRefresh:  cfg.Scheduler.DailyRefresh,
		PlanExecution: cfg.Scheduler.PlanExecution,
		HourlyRefresh: cfg.Scheduler.HourlyRefresh,
	}, logger)
	if cfg.Scheduler.Enabled {
		if err := scheduler.Start(); err != nil {
			logger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer scheduler.Stop()
	}

	// API server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	delivery.SetupRoutes(e, &delivery.RouterConfig{
		FundHandler:  delivery.NewFundHandler(funds),
		TradeHandler: delivery.NewTradeHandler(trades, plans),
		UserHandler:  delivery.NewUserHandler(users),
		Logger:       logger,
	})

	apiSrv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Ops listener: health and manual job triggers
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Get("/health", handleHealth(ping))
	r.Post("/jobs/refresh-all", handleTriggerJob(scheduler, logger, "manual_refresh", scheduler.RunRefresh))
	r.Post("/jobs/execute-plans", handleTriggerJob(scheduler, logger, "manual_plan_execution", scheduler.RunPlans))

	opsSrv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.OpsPort),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	for _, srv := range []*http.Server{apiSrv, opsSrv} {
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("failed to start server", zap.String("addr", srv.Addr), zap.Error(err))
			}
		}()
	}

	logger.Info("myfunds started",
		zap.String("api_addr", apiSrv.Addr),
		zap.String("ops_addr", opsSrv.Addr),
		zap.String("env", cfg.Server.Env),
		zap.String("store", cfg.Database.Store),
		zap.String("market_provider", cfg.Market.Provider),
		zap.Float64("fee_rate", cfg.Trading.FeeRate),
	)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down servers")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, srv := range []*http.Server{apiSrv, opsSrv} {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server forced to shutdown", zap.String("addr", srv.Addr), zap.Error(err))
		}
	}

	logger.Info("servers exited gracefully")
}

func newLogger(cfg *configs.Config) *zap.Logger {
	return applog.New(applog.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Env:        cfg.Server.Env,
	})
}

// newStore opens the configured store. ping reports store health for the ops listener.
func newStore(ctx context.Context, cfg *configs.Config, logger *zap.Logger) (domain.Store, func(context.Context) error, func(), error) {
	if cfg.Database.Store == "memory" {
		logger.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), func(context.Context) error { return nil }, func() {}, nil
	}

	db, err := infra.NewDatabase(ctx, cfg.Database.URL, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.RunMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	return repository.NewPgStore(db), db.Ping, db.Close, nil
}

func newProvider(cfg *configs.Config) domain.MarketDataProvider {
	if cfg.Market.Provider == "eastmoney" {
		return adapter.NewEastmoneyClient(cfg.Market.BaseURL, cfg.Market.Timeout, time.Now)
	}
	return adapter.NewMockMarketData(time.Now().UnixNano(), time.Now)
}

func handleHealth(ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		storeStatus := "healthy"
		if err := ping(ctx); err != nil {
			storeStatus = "unhealthy"
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "healthy",
			"service":   "myfunds-ops",
			"store":     storeStatus,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// handleTriggerJob starts a batch job in the background and answers 202
func handleTriggerJob(scheduler *infra.Scheduler, logger *zap.Logger, name string, run func(ctx context.Context)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		logger.Info("job triggered via ops listener", zap.String("job", name), zap.String("request_id", requestID))

		go scheduler.RunJob(name, run)

		writeJSON(w, http.StatusAccepted, map[string]string{
			"message": "Job triggered successfully",
			"job":     name,
			"status":  "processing",
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
