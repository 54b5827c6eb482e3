package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"motion-monitor/be/config"
	"motion-monitor/be/database"
	"motion-monitor/be/handlers"
	"motion-monitor/be/logger"
	"motion-monitor/be/realtime"
	"motion-monitor/be/services"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "motion-monitor")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if err := run(cfg, zapLogger); err != nil {
		zapLogger.Error("Server stopped with error", zap.Error(err))
		zapLogger.Sync()
		os.Exit(1)
	}
	zapLogger.Sync()
}

// run owns every resource it opens, so its deferred cleanup always runs
// before the process exits.
func run(cfg *config.Config, zapLogger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.JWT.UsesDefaultSecret() {
		zapLogger.Warn("JWT_SECRET is not set, publisher tokens are signed with the development secret")
	}

	if cfg.Server.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		zapLogger.Warn("Redis is not reachable yet, panels will fail to mount until it is",
			zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	pingCancel()

	store := realtime.NewRedisStore(redisClient, cfg.Redis.KeyPrefix, zapLogger)

	var history *services.HistoryService
	var recorder services.EventRecorder
	if cfg.Database.Enabled {
		db, err := database.Initialize(cfg.Database, zapLogger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		history = services.NewHistoryService(db)
		recorder = history
	}

	publisher := services.NewStatusPublisher(store, cfg.Panel.StatusPath, cfg.Publisher.Interval, recorder, zapLogger)

	var ingest *services.MQTTIngest
	if cfg.MQTT.Broker != "" {
		ingest = services.NewMQTTIngest(cfg.MQTT, publisher, zapLogger)
		if err := ingest.Start(); err != nil {
			zapLogger.Error("Failed to start MQTT ingest", zap.String("broker", cfg.MQTT.Broker), zap.Error(err))
		}
	}
	defer ingest.Stop()

	mjpegService := services.NewMJPEGService(cfg.Stream.FrameSourceURL, zapLogger)
	loc := services.ViewerLocation(cfg.Panel.Timezone, time.Local)

	router := handlers.Router{
		Panel:     handlers.NewPanelHandler(store, cfg.Panel.StatusPath, loc, cfg.Panel.VideoFeedURL, zapLogger),
		Status:    handlers.NewStatusHandler(publisher, history, zapLogger),
		Stream:    handlers.NewStreamHandler(mjpegService, zapLogger),
		Auth:      handlers.NewAuthHandler(cfg.Publisher, cfg.JWT),
		JWTSecret: cfg.JWT.Secret,
		Logger:    zapLogger,
	}.Setup()

	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		zapLogger.Info("Server starting", zap.String("port", port), zap.String("status_path", cfg.Panel.StatusPath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
		zapLogger.Info("Shutting down server...")
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited", zap.Int64("active_streams", mjpegService.ActiveStreams()))
	return nil
}
