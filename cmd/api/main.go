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

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/healthconnect-api/api/swagger"
	"github.com/noah-isme/healthconnect-api/internal/handler"
	"github.com/noah-isme/healthconnect-api/internal/middleware"
	"github.com/noah-isme/healthconnect-api/internal/repository"
	"github.com/noah-isme/healthconnect-api/internal/service"
	"github.com/noah-isme/healthconnect-api/pkg/cache"
	"github.com/noah-isme/healthconnect-api/pkg/config"
	"github.com/noah-isme/healthconnect-api/pkg/database"
	"github.com/noah-isme/healthconnect-api/pkg/jobs"
	"github.com/noah-isme/healthconnect-api/pkg/logger"
	"github.com/noah-isme/healthconnect-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/healthconnect-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/healthconnect-api/pkg/middleware/requestid"
	"github.com/noah-isme/healthconnect-api/pkg/validation"
)

// @title Madiba HealthConnect API
// @version 1.0.0
// @description University clinic appointment booking, assignment and consultation tracking.
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, statistics cache disabled", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	validate := validation.New()
	metrics := service.NewMetricsService()
	location := cfg.Clinic.Location()

	userRepo := repository.NewUserRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Stats.CacheTTL, logr, cfg.Stats.CacheEnabled && cacheRepo.Enabled())
	statsSvc := service.NewStatsService(appointmentRepo, cacheSvc, cfg.Stats.CacheTTL, location, logr)

	notifier := service.NewNotificationService(mailer.New(cfg.Mail, logr), metrics, logr, service.NotificationOptions{
		ClinicName: cfg.Clinic.Name,
		AdminEmail: cfg.Mail.AdminEmail,
	})
	var notificationQueue *jobs.Queue
	if cfg.Notifications.Enabled {
		notificationQueue = jobs.NewQueue("notifications", notifier.Deliver, jobs.QueueConfig{
			Workers:    cfg.Notifications.Workers,
			BufferSize: cfg.Notifications.BufferSize,
			MaxRetries: cfg.Notifications.MaxRetries,
			RetryDelay: cfg.Notifications.RetryDelay,
			Logger:     logr,
			OnFailure:  notifier.DeliveryFailed,
		})
		notificationQueue.Start(context.Background())
		notifier.UseQueue(notificationQueue)
	} else {
		logr.Info("email notifications disabled")
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		Audience:          cfg.JWT.Audience,
	})
	appointmentSvc := service.NewAppointmentService(appointmentRepo, userRepo, notifier, statsSvc, validate, logr, service.AppointmentConfig{
		Location:  location,
		TimeSlots: cfg.Clinic.TimeSlots,
	})
	appointmentSvc.UseMetrics(metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	optional := map[string]handler.Pinger{}
	if cacheRepo.Enabled() {
		optional["redis"] = handler.PingFunc(cacheRepo.Ping)
	}
	health := handler.NewHealthHandler(metrics, map[string]handler.Pinger{"database": db}, optional)
	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/metrics", health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Routes{
		Auth:         handler.NewAuthHandler(authSvc),
		Appointments: handler.NewAppointmentHandler(appointmentSvc),
		Reports:      handler.NewReportHandler(statsSvc),
		Authenticate: middleware.JWT(authSvc),
		Users:        authSvc,
		AuthLimiter:  middleware.RateLimit(middleware.NewIPRateLimiter(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst)),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("http shutdown", zap.Error(err))
	}
	if notificationQueue != nil {
		if err := notificationQueue.Shutdown(shutdownCtx); err != nil {
			logr.Warn("notification queue not drained", zap.Error(err))
		}
	}
	logr.Info("server stopped")
}
