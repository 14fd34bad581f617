package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/quizdesk-backend/internal/handlers"
	"github.com/yungbote/quizdesk-backend/internal/middleware"
	"github.com/yungbote/quizdesk-backend/internal/platform/envutil"
)

type RouterConfig struct {
	AuthHandler    *handlers.AuthHandler
	AuthMiddleware *middleware.AuthMiddleware
	UserHandler    *handlers.UserHandler
	SessionHandler *handlers.SessionHandler
	ResultsHandler *handlers.ResultsHandler
	AdminHandler   *handlers.AdminHandler
	SSEHandler     *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	if envutil.Bool("OTEL_ENABLED", false) {
		router.Use(otelgin.Middleware("quizdesk-backend"))
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Bot-Api-Key"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)
	router.POST("/refresh", cfg.AuthHandler.Refresh)

	// chat gateway, shared-secret auth
	bot := router.Group("/api/bot")
	bot.Use(cfg.AuthMiddleware.RequireBotKey())
	bot.POST("/session", cfg.AuthHandler.BotSession)

	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	{
		api.POST("/logout", cfg.AuthHandler.Logout)
		api.GET("/user", cfg.UserHandler.GetMe)

		api.GET("/quizzes", cfg.ResultsHandler.Catalog)
		api.POST("/quizzes/:id/attempts", cfg.SessionHandler.Start)
		api.POST("/attempts/:id/answers", cfg.SessionHandler.SubmitAnswer)
		api.POST("/attempts/:id/abandon", cfg.SessionHandler.Abandon)
		api.GET("/attempts/:id", cfg.ResultsHandler.AttemptDetail)
		api.GET("/results", cfg.ResultsHandler.MyResults)

		api.GET("/sse/stream", cfg.SSEHandler.Stream)

		admin := api.Group("/admin")
		admin.Use(cfg.AuthMiddleware.RequireAdmin())
		admin.PATCH("/quizzes/:id/active", cfg.AdminHandler.SetQuizActive)
		admin.POST("/seed/reload", cfg.AdminHandler.ReloadSeeds)
	}

	return router
}

func allowedOrigins() []string {
	raw := envutil.String("CORS_ALLOW_ORIGINS", "http://localhost:3000")
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
