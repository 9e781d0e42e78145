package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/motolinktech/server/config"
	"github.com/motolinktech/server/internal/api/handler"
	"github.com/motolinktech/server/internal/api/router"
	"github.com/motolinktech/server/internal/notifier"
	"github.com/motolinktech/server/internal/repository"
	"github.com/motolinktech/server/internal/service"
	"github.com/motolinktech/server/pkg/database"
	applogger "github.com/motolinktech/server/pkg/logger"
	"github.com/motolinktech/server/pkg/redis"
)

func main() {
	// 1. load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logging
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("business_timezone", cfg.Business.Timezone),
	)

	// 3. database
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	logger.Info("database connected")

	// 3.1 migrations
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("unwrap sql.DB", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	// 4. redis (optional: degrades open, invite pages lose rate limiting)
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, public routes run without rate limiting", zap.Error(err))
		rdb = nil
	}

	// 5. business timezone for the WhatsApp message templates
	loc, err := time.LoadLocation(cfg.Business.Timezone)
	if err != nil {
		logger.Fatal("load business timezone", zap.Error(err))
	}
	notif := notifier.NewWhatsAppNotifier(&cfg.WhatsApp, loc, logger)

	// 6. dependency wiring: repository → service → handler
	repo := repository.NewRepository(db)
	svc, err := service.NewService(repo, notif, cfg, logger)
	if err != nil {
		logger.Fatal("init services", zap.Error(err))
	}
	h := handler.NewHandler(svc)

	// 7. router
	engine := router.Setup(cfg, h, rdb, logger)

	// 8. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	// 9. wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	if closeDB, _ := db.DB(); closeDB != nil {
		closeDB.Close()
	}
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("stopped")
}
