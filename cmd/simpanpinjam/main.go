package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/koperasi-dev/simpan-pinjam-go/internal/config"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/domain"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/events"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/handler"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/cache"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/client"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/memstore"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/observability"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/resilience"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/sqlite"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/port"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/service"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.String("sqlite_path", cfg.SQLitePath),
		zap.Bool("amqp_enabled", cfg.AMQPURL != ""),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "simpan-pinjam")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	var configCache port.Cache[domain.InterestConfiguration]
	if cfg.RedisAddr != "" {
		logger.Info("using redis cache", zap.String("addr", cfg.RedisAddr))
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		configCache = cache.NewRedis[domain.InterestConfiguration](rdb, "simpanpinjam:config", cfg.CacheTTL)
	} else {
		configCache = cache.New[domain.InterestConfiguration](cfg.CacheTTL)
	}

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("external-apis")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	members := client.NewMemberClient(httpClient, cfg.MemberAPIURL, cb, resilienceCfg)
	documents := client.NewDocumentClient(httpClient, cfg.DocumentAPIURL, cb, resilienceCfg)

	var configs port.ConfigurationProvider
	if cfg.ConfigAPIURL != "" {
		logger.Info("using remote interest configuration provider",
			zap.String("config_api_url", cfg.ConfigAPIURL),
		)
		configs = client.NewConfigClient(httpClient, cfg.ConfigAPIURL, cb, resilienceCfg, configCache, metrics)
	} else {
		logger.Info("using static interest configuration from environment")
		configs = client.NewStaticConfigProvider(cfg.InterestDefaults())
	}

	// --- Stores ---
	var appStore port.ApplicationStore
	var ledgerStore port.LedgerStore
	if cfg.SQLitePath != "" {
		store, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			logger.Fatal("failed to open sqlite store", zap.Error(err))
		}
		defer store.Close()
		appStore = store
		ledgerStore = store
		logger.Info("using sqlite persistence", zap.String("path", cfg.SQLitePath))
	} else {
		appStore = memstore.NewApplicationStore()
		ledgerStore = memstore.NewLedgerStore()
		logger.Warn("no SQLITE_PATH set, using in-memory stores")
	}

	// --- Events ---
	var publisher port.EventPublisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			logger.Fatal("failed to connect to message broker", zap.Error(err))
		}
		defer amqpPub.Close()
		publisher = amqpPub
		logger.Info("event publishing enabled", zap.String("exchange", cfg.AMQPExchange))
	}

	// --- Services ---
	ledgerSvc := service.NewLedgerService(ledgerStore, publisher, metrics, logger)
	appSvc := service.NewApplicationService(appStore, ledgerSvc, members, configs, documents, publisher, metrics, logger)
	overdueSvc := service.NewOverdueService(ledgerSvc, configs, metrics, logger)
	summarySvc := service.NewSummaryService(members, ledgerSvc, overdueSvc, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Applications: appSvc,
		Ledger:       ledgerSvc,
		Overdue:      overdueSvc,
		Summary:      summarySvc,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
