package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/bracket-pool/cache"
	"github.com/Dosada05/bracket-pool/config"
	"github.com/Dosada05/bracket-pool/db"
	"github.com/Dosada05/bracket-pool/handlers"
	"github.com/Dosada05/bracket-pool/pool"
	"github.com/Dosada05/bracket-pool/repositories"
	api "github.com/Dosada05/bracket-pool/routes"
	"github.com/Dosada05/bracket-pool/services"
	"github.com/Dosada05/bracket-pool/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(context.Background(), dbConn); err != nil {
		logger.Error("failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database schema up to date")

	// Хранилище логотипов (Cloudflare R2), опционально.
	var logoStore storage.LogoStore
	if cfg.R2AccountID != "" {
		logoStore, err = storage.NewR2LogoStore(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			Bucket:          cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 logo store", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 logo store initialized")
	} else {
		logger.Info("logo storage disabled: R2_ACCOUNT_ID is not set")
	}

	// Кэш таблицы лидеров (Redis), опционально.
	var leaderboardCache *cache.LeaderboardCache
	if cfg.RedisURL != "" {
		leaderboardCache, err = cache.NewLeaderboardCache(cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to Redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer leaderboardCache.Close()
		logger.Info("leaderboard cache connected")
	} else {
		logger.Info("leaderboard cache disabled: REDIS_URL is not set")
	}

	// Инициализация WebSocket Hub
	wsHub := pool.NewHub()
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go wsHub.Run(hubCtx)
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	txRunner := repositories.NewSQLTxRunner(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	assignmentRepo := repositories.NewPostgresAssignmentRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	scoreRepo := repositories.NewPostgresScoreRepository(dbConn)
	logger.Info("Repositories initialized")

	// Интерфейсные обёртки для необязательного кэша. Типизированный nil в
	// интерфейсе не равен nil, поэтому присваиваем только при включённом Redis.
	var standingsCache services.StandingsCache
	var standingsInvalidator services.StandingsInvalidator
	if leaderboardCache != nil {
		standingsCache = leaderboardCache
		standingsInvalidator = leaderboardCache
	}

	// Инициализация сервисов
	allocator := pool.NewAllocator(rand.New(rand.NewSource(time.Now().UnixNano())))

	authService := services.NewAuthService(userRepo, logger)
	var emailService *services.EmailService
	if cfg.SMTPHost != "" {
		emailService = services.NewEmailService(cfg)
		logger.Info("email notifications enabled", slog.String("smtp_host", cfg.SMTPHost))
	} else {
		logger.Info("email notifications disabled: SMTP_HOST is not set")
	}

	registrationService := services.NewRegistrationService(
		txRunner,
		participantRepo,
		teamRepo,
		assignmentRepo,
		scoreRepo,
		allocator,
	)
	gameService := services.NewGameService(
		txRunner,
		gameRepo,
		teamRepo,
		participantRepo,
		assignmentRepo,
		scoreRepo,
		standingsInvalidator,
		wsHub,
		logger,
	)
	teamService := services.NewTeamService(txRunner, teamRepo, logoStore, logger)
	standingsService := services.NewStandingsService(participantRepo, scoreRepo, standingsCache, logger)
	logger.Info("Services initialized")

	// Учётка оператора из конфигурации.
	if err := authService.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Error("failed to ensure admin account", slog.Any("error", err))
		os.Exit(1)
	}

	// Ежедневная рассылка таблицы лидеров участникам.
	if emailService != nil && cfg.DigestInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.DigestInterval)
			defer ticker.Stop()
			logger.Info("standings digest scheduler started", slog.Duration("interval", cfg.DigestInterval))

			for range ticker.C {
				if err := standingsService.SendDailyDigest(context.Background(), emailService); err != nil {
					logger.Error("standings digest run failed", slog.Any("error", err))
				}
			}
		}()
	}

	// Инициализация обработчиков HTTP
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	participantHandler := handlers.NewParticipantHandler(registrationService, emailService, wsHub, logger)
	teamHandler := handlers.NewTeamHandler(teamService)
	gameHandler := handlers.NewGameHandler(gameService)
	standingsHandler := handlers.NewStandingsHandler(standingsService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		participantHandler,
		teamHandler,
		gameHandler,
		standingsHandler,
		webSocketHandler,
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}

		// Останавливаем хаб после остановки сервера, чтобы подписчики
		// успели получить закрывающий фрейм.
		stopHub()
	}
	logger.Info("application exited")
}
