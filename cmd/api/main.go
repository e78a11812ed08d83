package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/SergeiKhy/shortlink/internal/config"
	"github.com/SergeiKhy/shortlink/internal/handler"
	"github.com/SergeiKhy/shortlink/internal/logger"
	"github.com/SergeiKhy/shortlink/internal/metrics"
	"github.com/SergeiKhy/shortlink/internal/repository"
	"github.com/SergeiKhy/shortlink/internal/service"
	"github.com/SergeiKhy/shortlink/internal/tracing"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// Загрузка конфига
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	zlog, err := logger.New(cfg.Log, cfg.App.Name)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zlog.Sync()

	gin.SetMode(gin.ReleaseMode)

	shutdownTracing, err := tracing.Init(cfg.Tracing)
	if err != nil {
		zlog.Fatal("Failed to init tracing", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключение к БД (postgres). Если подключиться не удалось,
	// сервис работает без хранилища.
	db, state := connectStore(ctx, cfg.DB, zlog.Named("store"))
	metrics.SetStoreUp(state == repository.StateConnected)
	if db != nil {
		defer db.Close()
	}

	// Подключение к Redis (необязательный кэш)
	cacheRepo, closeCache := connectCache(ctx, cfg.Redis, zlog.Named("cache"))
	defer closeCache()

	// Инициализация репозитория и сервиса
	mappingRepo := repository.NewMappingRepository(db)
	mappingService := service.NewMappingService(mappingRepo, cacheRepo, zlog.Named("service"))

	// Настройка роутера
	router := handler.NewRouter(mappingService, cfg.App.BaseURL, zlog.Named("http"))
	srv := newServer(cfg.App, router)

	// Запуск в горутине
	serverErr := make(chan error, 1)
	go func() {
		zlog.Info("Server starting",
			zap.String("port", cfg.App.Port),
			zap.String("store_status", mappingService.StoreState().String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful Shutdown
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		zlog.Error("Server failed", zap.Error(err))
	}

	zlog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		zlog.Warn("Failed to flush traces", zap.Error(err))
	}

	zlog.Info("Server exited")
}

// connectStore подключается к PostgreSQL с повторными попытками и создаёт схему.
// При неудаче возвращает nil и StateDisconnected (ошибку уже записал ConnectWithRetry).
func connectStore(ctx context.Context, cfg config.DBConfig, zlog *zap.Logger) (*repository.PostgresDB, repository.ConnState) {
	policy := repository.RetryPolicy{
		Attempts: cfg.ConnectAttempts,
		Delay:    cfg.ConnectDelay,
		Timeout:  cfg.ConnectTimeout,
	}

	db, state := repository.ConnectWithRetry(ctx, policy, func(ctx context.Context) (*repository.PostgresDB, error) {
		db, err := repository.NewPostgresDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	}, zlog)

	if state == repository.StateConnected {
		zlog.Info("Connected to PostgreSQL", zap.String("host", cfg.Host))
	}
	return db, state
}

// connectCache возвращает кэш на Redis или no-op кэш, если Redis не настроен или недоступен
func connectCache(ctx context.Context, cfg config.RedisConfig, zlog *zap.Logger) (repository.CacheRepository, func()) {
	if !cfg.Enabled() {
		return repository.NewNopCacheRepository(), func() {}
	}

	redis, err := repository.NewRedisClient(ctx, cfg)
	if err != nil {
		zlog.Warn("Redis unavailable, cache disabled", zap.Error(err))
		return repository.NewNopCacheRepository(), func() {}
	}

	zlog.Info("Connected to Redis", zap.String("addr", cfg.Addr()))
	return repository.NewCacheRepository(redis, cfg.TTL), func() { _ = redis.Close() }
}

func newServer(cfg config.AppConfig, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
