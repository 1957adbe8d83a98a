package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"webstore-orders/internal/cache"
	"webstore-orders/internal/config"
	"webstore-orders/internal/database"
	"webstore-orders/internal/handler"
	"webstore-orders/internal/logger"
	"webstore-orders/internal/middleware"
	"webstore-orders/internal/repo"
	"webstore-orders/internal/server"
	"webstore-orders/internal/service"
	"webstore-orders/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.Database, zlog)
	if err != nil {
		zlog.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if err := database.Migrate(ctx, db.DB()); err != nil {
		zlog.Fatal("failed to migrate database", zap.Error(err))
	}

	var historyCache service.HistoryCache
	if cfg.Cache.RedisAddr != "" {
		client, err := cache.Connect(ctx, cfg.Cache.RedisAddr)
		if err != nil {
			zlog.Warn("redis unavailable, history cache disabled", zap.Error(err))
		} else {
			defer client.Close() //nolint:errcheck
			historyCache = cache.NewHistoryCache(client, cfg.Cache.HistoryTTL, zlog)
		}
	}

	orderRepo := repo.NewOrderRepo(db.DB())
	productRepo := repo.NewProductRepo(db.DB())
	orderService := service.NewOrderService(db.DB(), orderRepo, productRepo, historyCache, service.Options{
		GuardStock:  cfg.Orders.GuardStock,
		VerifyTotal: cfg.Orders.VerifyTotal,
	}, zlog)
	orderReader := service.NewOrderReader(orderRepo, historyCache, zlog)

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.Server.RateLimitRPS), cfg.Server.RateLimitBurst, 10*time.Minute)
	go limiter.Cleanup(ctx)

	if cfg.PoolMonitorInterval > 0 {
		go worker.NewPoolMonitor(db, zlog, cfg.PoolMonitorInterval).Run(ctx)
	}

	router := server.NewRouter(cfg.Server, db, handler.NewOrderHandler(orderService, orderReader), limiter, zlog)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
}
