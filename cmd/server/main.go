// Package main runs the college registration HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/learnathon-live/backend/config"
	"github.com/learnathon-live/backend/internal/auth"
	"github.com/learnathon-live/backend/internal/emaillogs"
	"github.com/learnathon-live/backend/internal/middleware"
	"github.com/learnathon-live/backend/internal/modules"
	"github.com/learnathon-live/backend/internal/participants"
	"github.com/learnathon-live/backend/internal/payments"
	"github.com/learnathon-live/backend/internal/registrations"
	"github.com/learnathon-live/backend/internal/trainers"
	"github.com/learnathon-live/backend/pkg/database"
	"github.com/learnathon-live/backend/pkg/queue"
	"github.com/learnathon-live/backend/pkg/redis"
	"github.com/learnathon-live/backend/pkg/response"
	"github.com/learnathon-live/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			RostersBucket:        cfg.AWS.RostersBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth and credential provisioning
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, jobQueue, logger)
	provisioner := auth.NewProvisioner(authRepo, jobQueue, logger)

	// Registrations
	registrationRepo := registrations.NewRepository(pool)
	participantRepo := participants.NewRepository(pool)
	workflow := registrations.NewWorkflow(registrationRepo, participantRepo, provisioner, cfg.Pricing.DefaultPrice, logger)
	registrationHandler := registrations.NewHandler(workflow, registrationRepo, logger)

	// Participants (roster ingestion)
	ingestor := participants.NewIngestor(participantRepo, workflow, logger)
	participantHandler := participants.NewHandler(ingestor, participantRepo, registrationRepo, s3Client, logger)

	// Payments
	gateway := payments.NewCashfreeClient(cfg.Cashfree, logger)
	paymentRepo := payments.NewRepository(pool)
	notifier := &payments.QueueNotifier{Queue: jobQueue}
	paymentService := payments.NewService(gateway, paymentRepo, registrationRepo, notifier, logger)
	paymentHandler := payments.NewHandler(paymentService, gateway, cfg.Pricing.Currency, logger)

	// Training modules and trainers
	moduleRepo := modules.NewRepository(pool)
	moduleHandler := modules.NewHandler(moduleRepo, logger)
	trainerRepo := trainers.NewRepository(pool)
	trainerHandler := trainers.NewHandler(trainerRepo, logger)

	// Email delivery history
	emailLogsRepo := emaillogs.NewRepository(pool)
	emailLogsHandler := emaillogs.NewHandler(emailLogsRepo, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public: registration workflow
	router.POST("/colleges", registrationHandler.Submit)
	router.POST("/colleges/registration-status", registrationHandler.Status)
	router.POST("/colleges/lookup", registrationHandler.Lookup)
	router.POST("/registrations/:id/participants", participantHandler.Upload)

	// Public: payments
	router.POST("/payments/orders", paymentHandler.CreateOrder)
	router.GET("/payments/orders/:orderId", paymentHandler.VerifyOrder)

	// Webhooks (no JWT; HMAC signature verified in handler)
	router.POST("/payments/webhook", paymentHandler.Webhook)

	// Auth (public)
	router.POST("/auth/login", authHandler.Login)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users (admin)
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)
		api.POST("/users", middleware.RequireRole("admin"), authHandler.Create)
		api.GET("/users/:id", middleware.RequireRole("admin"), authHandler.Get)

		// Registrations (admin)
		api.GET("/colleges", middleware.RequireRole("admin"), registrationHandler.List)
		api.GET("/registrations/:id/emails", middleware.RequireRole("admin"), emailLogsHandler.ListByRegistration)
		api.GET("/registrations/:id/roster-url", middleware.RequireRole("admin"), participantHandler.RosterURL)

		// Participants (admin)
		api.GET("/participants", middleware.RequireRole("admin"), participantHandler.List)

		// Training modules (admin and trainers)
		api.GET("/modules", middleware.RequireRole("admin", "trainer"), moduleHandler.List)
		api.GET("/modules/:id", middleware.RequireRole("admin", "trainer"), moduleHandler.Get)
		api.POST("/modules", middleware.RequireRole("admin"), moduleHandler.Create)
		api.PUT("/modules/:id", middleware.RequireRole("admin"), moduleHandler.Update)

		// Trainers
		api.GET("/trainers", middleware.RequireRole("admin", "trainer"), trainerHandler.List)
		api.POST("/trainers", middleware.RequireRole("admin"), trainerHandler.Create)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
