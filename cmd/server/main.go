package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yungbote/quizdesk-backend/internal/data/db"
	quizrepos "github.com/yungbote/quizdesk-backend/internal/data/repos/quiz"
	userrepos "github.com/yungbote/quizdesk-backend/internal/data/repos/user"
	"github.com/yungbote/quizdesk-backend/internal/handlers"
	"github.com/yungbote/quizdesk-backend/internal/jobs/timer"
	"github.com/yungbote/quizdesk-backend/internal/middleware"
	"github.com/yungbote/quizdesk-backend/internal/observability"
	"github.com/yungbote/quizdesk-backend/internal/platform/envutil"
	"github.com/yungbote/quizdesk-backend/internal/platform/logger"
	"github.com/yungbote/quizdesk-backend/internal/realtime"
	"github.com/yungbote/quizdesk-backend/internal/realtime/bus"
	"github.com/yungbote/quizdesk-backend/internal/seed"
	"github.com/yungbote/quizdesk-backend/internal/server"
	"github.com/yungbote/quizdesk-backend/internal/services"
)

func main() {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOtel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "quizdesk-backend",
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),
	})
	if shutdownOtel != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOtel(shutdownCtx)
		}()
	}

	jwtSecretKey := envutil.String("JWT_SECRET_KEY", "")
	if jwtSecretKey == "" {
		log.Fatal("JWT_SECRET_KEY is required")
	}
	accessTTL := envutil.Duration("ACCESS_TOKEN_TTL", time.Hour)
	refreshTTL := envutil.Duration("REFRESH_TOKEN_TTL", 30*24*time.Hour)
	botAPIKey := envutil.String("BOT_API_KEY", "")
	seedDir := envutil.String("QUIZ_SEED_DIR", "")

	// Database
	dbService, err := db.New(log)
	if err != nil {
		log.Fatal("database init failed", "error", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Fatal("auto migration failed", "error", err)
	}
	gdb := dbService.DB()

	// Repos
	log.Info("setting up repos...")
	userRepo := userrepos.NewUserRepo(gdb, log)
	userTokenRepo := userrepos.NewUserTokenRepo(gdb, log)
	quizRepo := quizrepos.NewQuizRepo(gdb, log)
	questionRepo := quizrepos.NewQuestionRepo(gdb, log)
	attemptRepo := quizrepos.NewAttemptRepo(gdb, log)
	answerRepo := quizrepos.NewAnswerRepo(gdb, log)
	completionEventRepo := quizrepos.NewCompletionEventRepo(gdb, log)
	systemLogRepo := quizrepos.NewSystemLogRepo(gdb, log)

	// Realtime
	log.Info("setting up SSE hub...")
	sseHub := realtime.NewSSEHub(log)
	var sseBus bus.Bus
	if envutil.String("REDIS_ADDR", "") != "" {
		sseBus, err = bus.NewRedisBus(log)
		if err != nil {
			log.Warn("redis bus init failed, running single-instance SSE", "error", err)
			sseBus = nil
		} else {
			defer sseBus.Close()
			if err := sseBus.StartForwarder(ctx, sseHub.Broadcast); err != nil {
				log.Warn("redis forwarder failed to start", "error", err)
			}
		}
	}

	// Services
	log.Info("setting up services...")
	bankService := services.NewBankService(gdb, log, quizRepo)
	authService := services.NewAuthService(gdb, log, userRepo, userTokenRepo, jwtSecretKey, accessTTL, refreshTTL)
	userService := services.NewUserService(gdb, log, userRepo)
	notifier := services.NewSSENotifier(log, sseHub, sseBus)
	timerManager := timer.NewManager(log, attemptRepo)
	sessionService := services.NewSessionService(
		gdb, log, bankService,
		attemptRepo, answerRepo, completionEventRepo, systemLogRepo,
		timerManager, notifier,
	)
	resultsService := services.NewResultsService(log, bankService, attemptRepo, answerRepo)

	if err := timerManager.Start(ctx, sessionService); err != nil {
		log.Fatal("timer manager start failed", "error", err)
	}

	// Seeds
	loader := seed.NewLoader(gdb, log, quizRepo, questionRepo)
	if seedDir != "" {
		if _, err := loader.LoadDir(ctx, seedDir); err != nil {
			log.Warn("quiz seed load failed", "error", err)
		}
	}

	// HTTP surface
	log.Info("setting up handlers...")
	authHandler := handlers.NewAuthHandler(log, authService, userService)
	userHandler := handlers.NewUserHandler(log, userService)
	sessionHandler := handlers.NewSessionHandler(log, sessionService)
	resultsHandler := handlers.NewResultsHandler(log, resultsService)
	adminHandler := handlers.NewAdminHandler(log, bankService, loader, seedDir)
	sseHandler := handlers.NewSSEHandler(log, sseHub)
	authMiddleware := middleware.NewAuthMiddleware(log, authService, botAPIKey)

	router := server.NewRouter(server.RouterConfig{
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
		UserHandler:    userHandler,
		SessionHandler: sessionHandler,
		ResultsHandler: resultsHandler,
		AdminHandler:   adminHandler,
		SSEHandler:     sseHandler,
	})

	port := envutil.String("PORT", "8080")
	log.Info("server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("server failed", "error", err)
	}
}
