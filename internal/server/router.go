package server

import (
	"net/http"
	"time"
	"webstore-orders/internal/config"
	"webstore-orders/internal/database"
	"webstore-orders/internal/handler"
	"webstore-orders/internal/logger"
	"webstore-orders/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter mounts the order routes behind the ambient middleware chain.
func NewRouter(cfg config.ServerConfig, db database.Service, orders *handler.OrderHandler, limiter *middleware.RateLimiter, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger(log))
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "HEAD", "PUT", "PATCH", "POST", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "X-User-ID", "X-User-Role"},
			ExposeHeaders:    []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	if limiter != nil {
		r.Use(limiter.Middleware())
	}

	r.GET("/health", func(c *gin.Context) {
		stats := db.Health(c.Request.Context())
		code := http.StatusOK
		if stats["status"] != database.StatusUp {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, stats)
	})

	api := r.Group("/api", middleware.Identity())
	{
		api.POST("/orders", orders.CreateOrder)
		api.GET("/orders/history", orders.GetOrderHistory)
		api.GET("/admin/orders", middleware.RequireAdmin(), orders.GetAllOrders)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	return r
}
