package main

import (
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/moajmalnk/bugricer-sub002/config"
	"github.com/moajmalnk/bugricer-sub002/internal/api"
	"github.com/moajmalnk/bugricer-sub002/internal/handler"
	"github.com/moajmalnk/bugricer-sub002/internal/pkg/blob"
	"github.com/moajmalnk/bugricer-sub002/internal/pkg/kafka"
	"github.com/moajmalnk/bugricer-sub002/internal/pkg/redis"
	"github.com/moajmalnk/bugricer-sub002/internal/repository"
	"github.com/moajmalnk/bugricer-sub002/internal/service"
	"github.com/moajmalnk/bugricer-sub002/internal/storage"
	"github.com/moajmalnk/bugricer-sub002/middleware/jwt"
	logger "github.com/moajmalnk/bugricer-sub002/middleware/log"
	"github.com/moajmalnk/bugricer-sub002/utils/snowflake"
	"github.com/moajmalnk/bugricer-sub002/utils/workerpool"
)

func main() {
	cfg, err := config.LoadConfig("./config.toml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zapLogger, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	postgres, err := storage.InitPostgres(&cfg.Postgres)
	if err != nil {
		zapLogger.Fatal("failed to init postgres", zap.Error(err))
	}

	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		zapLogger.Fatal("failed to init redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Activity events are optional; the chat core runs without a broker.
	var producer *kafka.ActivityProducer
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewActivityProducer(&cfg.Kafka)
		if err != nil {
			zapLogger.Warn("kafka unavailable, activity events disabled", zap.Error(err))
			producer = nil
		} else {
			defer producer.Close()
		}
	}

	snowflakeGen, err := snowflake.NewGenerator(1)
	if err != nil {
		zapLogger.Fatal("failed to init snowflake generator", zap.Error(err))
	}

	voiceStore, err := blob.NewFSStore(cfg.Storage.VoiceDir, cfg.Storage.BaseURL, cfg.Storage.MaxVoiceSizeByte)
	if err != nil {
		zapLogger.Fatal("failed to init voice store", zap.Error(err))
	}

	tokenManager := jwt.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpireHours, cfg.JWT.RefreshHours)

	groupRepo := repository.NewGroupRepository(postgres)
	projectDir := repository.NewProjectDirectory(postgres)
	messageRepo := repository.NewMessageRepository(postgres)
	reactionRepo := repository.NewReactionRepository(postgres)
	pinRepo := repository.NewPinRepository(postgres)
	attachmentRepo := repository.NewAttachmentRepository(postgres)

	groupService := service.NewGroupService(groupRepo, messageRepo, projectDir, redisClient, producer, zapLogger.Logger)
	messageService := service.NewMessageService(messageRepo, reactionRepo, pinRepo, attachmentRepo,
		groupService, snowflakeGen, redisClient, producer, zapLogger.Logger, &cfg.Chat)
	reactionService := service.NewReactionService(reactionRepo, messageRepo, groupService)
	pinService := service.NewPinService(pinRepo, messageRepo, groupService, zapLogger.Logger, &cfg.Chat)
	typingService := service.NewTypingService(redisClient, groupService, &cfg.Chat)
	attachmentService := service.NewAttachmentService(attachmentRepo, voiceStore, zapLogger.Logger, &cfg.Storage)

	groupHandler := handler.NewGroupHandler(groupService)
	messageHandler := handler.NewMessageHandler(messageService)
	reactionHandler := handler.NewReactionHandler(reactionService)
	pinHandler := handler.NewPinHandler(pinService)
	typingHandler := handler.NewTypingHandler(typingService)
	attachmentHandler := handler.NewAttachmentHandler(attachmentService)

	mw := api.NewMiddlewareManager(tokenManager, redisClient, zapLogger.Logger, &cfg.RateLimit)

	uploadPool := workerpool.New(cfg.Storage.UploadWorkers, cfg.Storage.UploadQueueSize, zapLogger.Logger)
	defer uploadPool.Stop()

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()

	api.RegisterRoutes(r, mw,
		groupHandler, messageHandler, reactionHandler,
		pinHandler, typingHandler, attachmentHandler,
		uploadPool, voiceStore.Dir(),
	)

	zapLogger.Info("starting chat server", zap.Int("port", cfg.Server.Port))
	if err := r.Run(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
		zapLogger.Fatal("server exited", zap.Error(err))
	}
}
