// Package main - точка входа фонового процесса прогрессии BookBuilder.
//
// Процесс отвечает за:
// - Накопление локального буфера статистики писателя
// - Периодическую синхронизацию буфера с удалённым хранилищем
// - Оценку достижений, уровней и серий после каждого флаша
// - Корректное завершение: финальный флаш и закрытие активной сессии
//
// Философия: текст писателя важнее телеметрии - при недоступности
// хранилища процесс продолжает копить буфер и никогда не мешает работе.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/devsmkna/bookbuilder-sub000/config"
	"github.com/devsmkna/bookbuilder-sub000/internal/application/progression"
	buffersync "github.com/devsmkna/bookbuilder-sub000/internal/application/sync"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/record"
	"github.com/devsmkna/bookbuilder-sub000/internal/infrastructure/persistence/memory"
	"github.com/devsmkna/bookbuilder-sub000/internal/infrastructure/persistence/redis"
	"github.com/devsmkna/bookbuilder-sub000/internal/infrastructure/remote"
	"github.com/devsmkna/bookbuilder-sub000/internal/infrastructure/scheduler"
	"github.com/devsmkna/bookbuilder-sub000/internal/infrastructure/service"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTRY POINT
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	// .env опционален: в контейнерах конфигурация приходит из окружения.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting BookBuilder progression companion",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"user_id", cfg.App.UserID,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. КЛИЕНТ УДАЛЁННОГО ХРАНИЛИЩА
	// ─────────────────────────────────────────────────────────────────────────
	clientCfg := remote.DefaultClientConfig(cfg.Remote.BaseURL)
	clientCfg.APIKey = cfg.Remote.APIKey
	clientCfg.Timeout = cfg.Remote.Timeout
	clientCfg.Logger = log
	clientCfg.Debug = cfg.App.Debug
	client := remote.NewClient(clientCfg)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЛОКАЛЬНОЕ ХРАНИЛИЩЕ (Redis или память)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		kv    buffersync.KeyValueStore
		store record.Store = client
	)

	if cfg.Redis.Disabled {
		log.Info("redis disabled, using in-memory buffer storage")
		kv = memory.NewKeyValueStore()
	} else {
		log.Info("connecting to Redis...", "addr", fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port))
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		if cfg.Redis.PoolSize > 0 {
			redisCfg.PoolSize = cfg.Redis.PoolSize
		}

		cache, err := redis.NewCache(redisCfg)
		if err != nil {
			// Потеря персистентности буфера переживается, падение процесса нет.
			log.Warn("failed to connect to Redis, falling back to in-memory storage", "error", err)
			kv = memory.NewKeyValueStore()
		} else {
			defer func() {
				log.Info("closing Redis connection...")
				_ = cache.Close()
			}()
			kv = redis.NewKeyValueStore(cache, log)
			store = redis.NewCachedStore(client, cache, log)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ПЛАНИРОВЩИК
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(scheduler.Config{
		Logger: log,
		Tick:   cfg.Sync.SchedulerTick,
	})
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer func() {
		log.Info("stopping scheduler...")
		_ = sched.Stop()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. КООРДИНАТОР СИНХРОНИЗАЦИИ И ДВИЖОК ПРОГРЕССИИ
	// ─────────────────────────────────────────────────────────────────────────
	coord := buffersync.NewCoordinator(buffersync.Config{
		UserID:   cfg.App.UserID,
		Interval: cfg.Sync.FlushInterval,
		Debounce: cfg.Sync.Debounce,
		Logger:   log,
	}, store, kv, schedulerAdapter{sched})

	engine, err := progression.NewEngine(progression.Config{
		UserID: cfg.App.UserID,
		Logger: log,
	}, store, coord, kv, service.NewLogSink(log))
	if err != nil {
		return fmt.Errorf("failed to build progression engine: %w", err)
	}

	if err := engine.Load(ctx); err != nil {
		return fmt.Errorf("failed to load writer record: %w", err)
	}
	log.Info("progression engine is running",
		"flush_interval", cfg.Sync.FlushInterval.String(),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		log.Info("root context cancelled")
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	// Teardown закрывает активную сессию и делает финальный флаш буфера.
	engine.Teardown(shutdownCtx)

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// schedulerAdapter сужает *scheduler.Scheduler до интерфейса
// координатора: конкретный тип Handle планировщика скрывается за
// интерфейсом на стороне потребителя.
type schedulerAdapter struct {
	s *scheduler.Scheduler
}

func (a schedulerAdapter) ScheduleRepeating(interval time.Duration, fn func(ctx context.Context)) buffersync.Handle {
	return a.s.ScheduleRepeating(interval, fn)
}

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Observability.LogLevel),
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Observability.LogFormat, "json") || cfg.IsProduction() {
		// JSON формат для production (лучше для агрегаторов логов)
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		// Текстовый формат для development (лучше читается)
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

// parseLogLevel преобразует строковый уровень в slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
