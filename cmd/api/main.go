package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/irequest/internal/auth"
	"github.com/example/irequest/internal/cache"
	"github.com/example/irequest/internal/config"
	"github.com/example/irequest/internal/db"
	httpserver "github.com/example/irequest/internal/http"
	"github.com/example/irequest/internal/lifecycle"
	"github.com/example/irequest/internal/logging"
	"github.com/example/irequest/internal/models"
	"github.com/example/irequest/internal/mq"
	"github.com/example/irequest/internal/repository"
	"github.com/example/irequest/internal/seed"
	"github.com/example/irequest/internal/webhook"
	"github.com/example/irequest/internal/worker"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	database, err := db.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	autoMigrate(logger, database)

	if err := seed.Run(database); err != nil {
		logger.Fatal("seed reference data", zap.Error(err))
	}
	statuses, err := models.ResolveStatusSet(database)
	if err != nil {
		logger.Fatal("resolve status set", zap.Error(err))
	}

	var publisher mq.Publisher
	rabbit, err := mq.NewRabbitPublisher(cfg.MQURL, cfg.MQEventExchange)
	if err != nil {
		logger.Warn("rabbitmq unavailable, continuing without events", zap.Error(err))
	} else {
		publisher = rabbit
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	counters := cache.NewCounters(rdb)

	requestRepo := repository.NewRequestRepository(database, statuses)
	userRepo := repository.NewUserRepository(database)
	commentRepo := repository.NewCommentRepository(database)
	notificationRepo := repository.NewNotificationRepository(database)
	chatRepo := repository.NewChatRepository(database)
	departmentRepo := repository.NewDepartmentRepository(database)

	lifecycleService := lifecycle.NewService(database, requestRepo, statuses, publisher, logger, cfg.StrictTransitions)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	apiServer := httpserver.NewServer(httpserver.Deps{
		Lifecycle:     lifecycleService,
		Requests:      requestRepo,
		Users:         userRepo,
		Comments:      commentRepo,
		Notifications: notificationRepo,
		Chats:         chatRepo,
		Departments:   departmentRepo,
		Tokens:        tokens,
		Counters:      counters,
		Logger:        logger,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if publisher != nil {
		go runNotifier(ctx, cfg, requestRepo, notificationRepo, counters, logger)
	}

	srv := &http.Server{
		Addr:    cfg.HTTPPort,
		Handler: apiServer.Engine,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown error", zap.Error(err))
	}

	if rabbit != nil {
		_ = rabbit.Close()
	}
	logger.Info("bye")
}

func autoMigrate(logger *zap.Logger, database *gorm.DB) {
	err := database.AutoMigrate(
		&models.Department{},
		&models.Role{},
		&models.User{},
		&models.Status{},
		&models.Priority{},
		&models.Workflow{},
		&models.WorkflowStep{},
		&models.Request{},
		&models.RequestStepHistory{},
		&models.RequestApproval{},
		&models.Comment{},
		&models.Notification{},
		&models.ChatMessage{},
	)
	if err != nil {
		logger.Fatal("auto migrate", zap.Error(err))
	}
}

func runNotifier(ctx context.Context, cfg config.Config, requests *repository.RequestRepository, notifications *repository.NotificationRepository, counters *cache.Counters, logger *zap.Logger) {
	consumer, err := mq.NewRabbitConsumer(cfg.MQURL, cfg.MQEventExchange, cfg.MQEventQueue)
	if err != nil {
		logger.Warn("notifier disabled, consumer unavailable", zap.Error(err))
		return
	}
	defer consumer.Close()

	hook := webhook.NewClient(cfg.WebhookURL)
	notifier := worker.NewNotifier(consumer, requests, notifications, counters, hook, logger)
	if err := notifier.Run(ctx); err != nil {
		logger.Warn("notifier stopped", zap.Error(err))
	}
}

func init() {
	if mode := os.Getenv("GIN_MODE"); mode == "" {
		gin.SetMode(gin.ReleaseMode)
	}
}
