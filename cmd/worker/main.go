// Package main - точка входа Reward Service Worker.
//
// Worker отвечает за всю фоновую работу сервиса наград:
// - Приём доменных событий (работа над контентом, изменение курсов)
// - Инкрементальный и ночной пересчёт очков Health/Fitness/Growth/Strength/Power
// - Проекцию скорборда курсов в Redis
// - Каскадное удаление очков при удалении курса
//
// Философия: очки должны всегда отражать актуальное состояние обучения -
// Worker поддерживает их свежесть без участия пользовательских запросов.
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

	"github.com/learnpath-hub/reward-service/config"
	"github.com/learnpath-hub/reward-service/internal/application/calculation"
	"github.com/learnpath-hub/reward-service/internal/application/engine"
	"github.com/learnpath-hub/reward-service/internal/application/eventhandler"
	"github.com/learnpath-hub/reward-service/internal/infrastructure/external/content"
	"github.com/learnpath-hub/reward-service/internal/infrastructure/external/course"
	"github.com/learnpath-hub/reward-service/internal/infrastructure/messaging"
	"github.com/learnpath-hub/reward-service/internal/infrastructure/persistence/postgres"
	"github.com/learnpath-hub/reward-service/internal/infrastructure/persistence/redis"
	"github.com/learnpath-hub/reward-service/internal/infrastructure/scheduler"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	// .env необязателен: в контейнерах конфигурация приходит из окружения
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting reward service worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("checking database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально - проекция скорборда)
	// ─────────────────────────────────────────────────────────────────────────
	var scoreboard engine.ScoreboardProjection

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns

		redisClient, err := redis.NewClient(redisCfg)
		if err != nil {
			// Скорборд - best-effort проекция; без Redis сервис продолжает
			// работать, читая мощность напрямую из базы.
			log.Warn("failed to connect to Redis, scoreboard projection disabled", "error", err)
		} else {
			defer redisClient.Close()
			scoreboard = redis.NewScoreboardCache(redisClient, cfg.Redis.ScoreboardTTL)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ ВНЕШНИХ КЛИЕНТОВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing external clients...")

	courseCfg := course.DefaultClientConfig(cfg.CourseService.BaseURL)
	courseCfg.APIKey = cfg.CourseService.APIKey
	courseCfg.Timeout = cfg.CourseService.RequestTimeout
	courseCfg.Logger = log
	// Структура курсов меняется редко - кешируем её до ночной инвалидации.
	courseClient := course.NewCachedClient(course.NewClient(courseCfg))

	contentCfg := content.DefaultClientConfig(cfg.ContentService.BaseURL)
	contentCfg.APIKey = cfg.ContentService.APIKey
	contentCfg.Timeout = cfg.ContentService.RequestTimeout
	contentCfg.Logger = log
	contentClient := content.NewClient(contentCfg)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. СБОРКА ДВИЖКА НАГРАД
	// ─────────────────────────────────────────────────────────────────────────
	rewardRepo := postgres.NewRewardRepository(dbConn)

	engineCfg := engine.Config{
		Health: calculation.HealthConfig{
			ModifierPerDay: cfg.Rewards.HealthModifierPerDay,
			DecreaseCap:    float64(cfg.Rewards.HealthDecreaseCap),
		},
		Fitness: calculation.FitnessConfig{
			MaxDecreasePerDay:  float64(cfg.Rewards.FitnessMaxDecreasePerDay),
			ModifierPerDay:     cfg.Rewards.FitnessModifierPerDay,
			RecentReviewWindow: cfg.Rewards.FitnessRecentReviewWindow,
		},
		Power: calculation.PowerConfig{
			HealthFitnessMultiplier: cfg.Rewards.PowerHealthFitnessMultiplier,
		},
	}

	rewardEngine := engine.New(
		rewardRepo,
		courseClient,
		contentClient,
		courseClient, // кеш структуры курсов инвалидируется перед каждым ночным пересчётом
		scoreboard,
		engineCfg,
		log,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ EVENT BUS И ОБРАБОТЧИКОВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.Logger = log
	busCfg.AsyncMode = true
	eventBus := messaging.NewInMemoryEventBus(busCfg)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	workedOnHandler := eventhandler.NewOnContentWorkedOnHandler(
		rewardEngine, eventBus, cfg.Rewards.HandlerTimeout, log)
	courseChangedHandler := eventhandler.NewOnCourseChangedHandler(
		rewardEngine, cfg.Rewards.HandlerTimeout, log)

	if err := eventBus.Subscribe(workedOnHandler.EventType(), workedOnHandler.Handle); err != nil {
		return fmt.Errorf("failed to subscribe content handler: %w", err)
	}
	if err := eventBus.Subscribe(courseChangedHandler.EventType(), courseChangedHandler.Handle); err != nil {
		return fmt.Errorf("failed to subscribe course handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ПЛАНИРОВЩИК НОЧНОГО ПЕРЕСЧЁТА
	// ─────────────────────────────────────────────────────────────────────────
	var nightly *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		schedCfg := scheduler.DefaultConfig()
		schedCfg.CronExpression = cfg.Scheduler.CronExpression
		schedCfg.SweepTimeout = cfg.Scheduler.SweepTimeout

		nightly = scheduler.New(rewardEngine, eventBus, schedCfg, log)
		if err := nightly.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		log.Info("nightly recalculation scheduled", "cron", schedCfg.CronExpression)
	} else {
		log.Info("nightly recalculation disabled by configuration")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("reward service worker is running")

	<-ctx.Done()
	log.Info("received shutdown signal")
	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if nightly != nil {
		nightly.Stop()
	}

	// Даём шанс асинхронным обработчикам завершиться до закрытия ресурсов.
	select {
	case <-shutdownCtx.Done():
		log.Warn("shutdown timeout exceeded")
	case <-time.After(100 * time.Millisecond):
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование по конфигурации.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Observability.LogLevel),
	}

	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Observability.LogFormat, "json") {
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

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
