// Package routesはroutingを行います。
package routes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"task-tracker/internal/config"
	"task-tracker/internal/handlers"
	"task-tracker/internal/metrics"
	"task-tracker/internal/services"
	"task-tracker/internal/web"
)

// Pinger はデータストアの疎通確認を行います。*sql.DB が満たします。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Dependencies はルーターの構築に必要な依存関係です。
type Dependencies struct {
	Config   *config.Config
	DB       Pinger
	Users    services.UserStore
	Tasks    services.TaskStore
	Logger   *zap.Logger
	Registry *prometheus.Registry
}

// SetupRouter はGinルーターをセットアップし、すべてのエンドポイントを登録します。
func SetupRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.Config == nil || deps.Users == nil || deps.Tasks == nil {
		return nil, errors.New("routes: config, users and tasks are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := metrics.New(registry)

	handlers.RegisterValidatorTagNames()

	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(RequestID(), AccessLog(logger), Recovery(logger), Metrics(m))

	// CORS対策
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = deps.Config.Server.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", requestIDHeader}
	corsConfig.AllowCredentials = true
	if len(corsConfig.AllowOrigins) > 0 {
		r.Use(cors.New(corsConfig))
	}

	// サービス
	jwtService := services.NewJWTService(deps.Config.Auth.JWTSecret, deps.Config.Auth.TokenTTL)
	userService := services.NewUserService(deps.Users)
	taskService := services.NewTaskService(deps.Tasks)

	// ハンドラー
	userHandler := handlers.NewUserHandler(userService, jwtService, m, logger, deps.Config.IsProduction())
	taskHandler := handlers.NewTaskHandler(taskService, m, logger)
	pageHandler := handlers.NewPageHandler(taskService, logger)

	gate := NewSessionGate(jwtService, userService, m, logger)

	// 運用
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", readinessHandler(deps.DB, logger))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))

	// 認証
	auth := r.Group("/api/auth")
	{
		auth.POST("/signup", userHandler.SignupHandler)
		auth.POST("/login", userHandler.LoginHandler)
		auth.POST("/logout", userHandler.LogoutHandler)
	}

	tasks := r.Group("/api/tasks")
	tasks.Use(gate.APIAuthMiddleware())
	{
		tasks.GET("", taskHandler.GetTasksHandler)
		tasks.POST("", taskHandler.CreateTaskHandler)
		tasks.PUT("/:id", taskHandler.UpdateTaskHandler)
		tasks.DELETE("/:id", taskHandler.DeleteTaskHandler)
	}

	// 画面
	r.GET("/", pageHandler.RootHandler)
	r.GET("/login", pageHandler.LoginPageHandler)
	r.GET("/signup", pageHandler.SignupPageHandler)
	dashboard := r.Group("/dashboard")
	dashboard.Use(gate.PageAuthMiddleware())
	{
		dashboard.GET("", pageHandler.DashboardHandler)
		dashboard.POST("/tasks", pageHandler.CreateTaskFormHandler)
		dashboard.POST("/tasks/:id/delete", pageHandler.DeleteTaskFormHandler)
	}

	return r, nil
}

func readinessHandler(db Pinger, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			handlers.RequestLogger(c, logger).Warn("readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
