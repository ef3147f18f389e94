// Package router 提供 HTTP 路由配置
package router

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"short-story-api/internal/config"
	"short-story-api/internal/interfaces/http/handler"
	"short-story-api/internal/interfaces/http/middleware"
	"short-story-api/pkg/logger"
)

// Dependencies 路由依赖
type Dependencies struct {
	Story handler.StoryGenerator
	// RateLimiter 为 nil 时不限流
	RateLimiter middleware.RateLimiter
	// Redis 为 nil 时就绪检查跳过 Redis
	Redis handler.HealthChecker
}

// Router HTTP 路由器
type Router struct {
	engine *gin.Engine
	cfg    *config.Config
	deps   Dependencies
}

// New 创建新的路由器
func New(cfg *config.Config, deps Dependencies) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine: gin.New(),
		cfg:    cfg,
		deps:   deps,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name, "/health", "/live", "/ready", r.cfg.Observability.Metrics.Path))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics(r.cfg.Observability.Metrics.Path))
	}
}

func (r *Router) setupRoutes() {
	healthHandler := handler.NewHealthHandler(r.cfg.App.Version, r.deps.Story, r.deps.Redis)

	// 系统端点
	r.engine.GET("/health", healthHandler.Health)
	r.engine.GET("/ready", healthHandler.Ready)
	r.engine.GET("/live", healthHandler.Live)

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.cfg.Observability.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// 前端页面
	if index := r.cfg.Server.HTTP.StaticIndex; index != "" {
		if info, err := os.Stat(index); err == nil && !info.IsDir() {
			r.engine.StaticFile("/", index)
		} else {
			logger.Default().Warn("static index not found, GET / disabled", "path", index)
		}
	}

	// 故事生成
	if r.deps.Story != nil {
		storyHandler := handler.NewStoryHandler(r.deps.Story)
		rl := r.cfg.Security.RateLimit
		r.engine.POST("/story",
			middleware.RateLimit(middleware.RateLimitConfig{
				Enabled:           rl.Enabled,
				RequestsPerWindow: rl.RequestsPerWindow,
				Window:            rl.Window,
				KeyPrefix:         rl.KeyPrefix,
			}, r.deps.RateLimiter),
			storyHandler.Generate,
		)
	}
}
