package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/afras1234/futsal-booking-system/chat"
	"github.com/afras1234/futsal-booking-system/config"
	"github.com/afras1234/futsal-booking-system/db"
	"github.com/afras1234/futsal-booking-system/handlers"
	"github.com/afras1234/futsal-booking-system/payments"
	"github.com/afras1234/futsal-booking-system/repositories"
	api "github.com/afras1234/futsal-booking-system/routes"
	"github.com/afras1234/futsal-booking-system/services"
	"github.com/afras1234/futsal-booking-system/storage"
)

const schedulerInterval = 30 * time.Second // How often the status scheduler runs

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

	// Инициализация загрузчика файлов (Cloudflare R2). Без настроенного
	// блока R2 приложение стартует, но загрузка фотографий отключена.
	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("Cloudflare R2 is not configured, photo uploads disabled")
	}

	// Платёжный шлюз для взносов за участие в турнирах.
	var gateway payments.Gateway
	if cfg.OmiseConfigured() {
		gateway, err = payments.NewOmiseGateway(payments.OmiseGatewayConfig{
			PublicKey: cfg.OmisePublicKey,
			SecretKey: cfg.OmiseSecretKey,
			Currency:  cfg.OmiseCurrency,
		})
		if err != nil {
			logger.Error("failed to initialize Omise gateway", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Omise payment gateway initialized")
	} else {
		logger.Warn("Omise is not configured, paid tournament registration disabled")
	}

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	adminRepo := repositories.NewPostgresAdminRepository(dbConn)
	courtRepo := repositories.NewPostgresCourtRepository(dbConn)
	bookingRepo := repositories.NewPostgresBookingRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	messageRepo := repositories.NewPostgresMessageRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	authService := services.NewAuthService(userRepo)
	adminService := services.NewAdminService(adminRepo, courtRepo, cfg.AdminSignupKey)
	userService := services.NewUserService(userRepo, uploader)
	courtService := services.NewCourtService(courtRepo, adminRepo, uploader)
	bookingService := services.NewBookingService(bookingRepo, userRepo, courtRepo)
	tournamentService := services.NewTournamentService(tournamentRepo, userRepo, gateway, logger)
	chatService := services.NewChatService(messageRepo, userRepo)
	logger.Info("Services initialized")

	// Чат-хаб: presence и доставка личных сообщений поверх WebSocket.
	wsHub := chat.NewHub(chatService)
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Планировщик автоматического пересчёта статусов турниров
	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("Tournament status update scheduler started", slog.Duration("interval", schedulerInterval))

		// Run once immediately at startup, then on ticker
		if err := tournamentService.UpdateAllStatuses(context.Background()); err != nil {
			logger.Error("Scheduler: initial run failed", slog.Any("error", err))
		}

		for range ticker.C {
			if err := tournamentService.UpdateAllStatuses(context.Background()); err != nil {
				logger.Error("Scheduler: periodic run failed", slog.Any("error", err))
			}
		}
	}()

	// Инициализация обработчиков HTTP
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	adminHandler := handlers.NewAdminHandler(adminService, cfg.JWTSecretKey)
	userHandler := handlers.NewUserHandler(userService, bookingService)
	courtHandler := handlers.NewCourtHandler(courtService, bookingService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	chatHandler := handlers.NewChatHandler(chatService, wsHub, logger)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		[]byte(cfg.JWTSecretKey),
		authHandler,
		adminHandler,
		userHandler,
		courtHandler,
		bookingHandler,
		tournamentHandler,
		chatHandler,
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
	}
	logger.Info("application exited")
}
