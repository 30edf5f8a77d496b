package handler

import (
	"time"

	"swapgate/internal/adapter/http/middleware"
	redisStore "swapgate/internal/adapter/storage/redis"
	"swapgate/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	CheckoutSvc     ports.CheckoutService
	PollWorker      ports.PollWorker
	Ingestor        ports.WebhookIngestor
	Monitor         ports.Monitor
	OrderRepo       ports.OrderRepository
	EventRepo       ports.WebhookEventRepository
	HashSvc         ports.HashService
	TokenSvc        ports.TokenService
	OperatorKeyHash string
	SweepSecret     string
	RetentionMaxAge time.Duration
	RateLimitStore  *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers  []ports.HealthChecker
	Logger          zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep, verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// --- Provider push channel ---
	webhookHandler := NewWebhookHandler(deps.Ingestor)
	r.POST("/webhooks/exchange", rl("webhook"), webhookHandler.Receive)

	// --- Internal sweep trigger (shared secret) ---
	sweepHandler := NewSweepHandler(deps.Monitor)
	r.POST("/internal/sweep", middleware.SweepSecret(deps.SweepSecret), sweepHandler.Run)

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	orderHandler := NewOrderHandler(deps.CheckoutSvc, deps.PollWorker)
	v1.GET("/assets", rl("status"), orderHandler.ListAssets)
	orders := v1.Group("/orders")
	{
		orders.POST("", rl("checkout"), orderHandler.CreateOrder)
		orders.GET("/:number", rl("status"), orderHandler.GetOrder)
		orders.POST("/:number/refresh", rl("status"), orderHandler.RefreshOrder)
	}

	authHandler := NewAuthHandler(deps.HashSvc, deps.TokenSvc, deps.OperatorKeyHash)
	v1.POST("/auth/token", rl("auth_token"), authHandler.Token)

	// --- JWT-authenticated routes (operator API) ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	adminHandler := NewAdminHandler(deps.OrderRepo, deps.EventRepo, deps.Ingestor, deps.RetentionMaxAge)
	admin := v1.Group("/admin", jwtAuth)
	{
		admin.GET("/orders", rl("admin"), adminHandler.ListOrders)
		admin.POST("/webhook-events/:event_id/replay", rl("admin"), adminHandler.ReplayEvent)
		admin.POST("/retention/purge", rl("admin"), adminHandler.PurgeEvents)
	}

	return r
}
