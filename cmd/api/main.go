package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/participant-registry/internal/config"
	"github.com/noah-isme/participant-registry/internal/database"
	"github.com/noah-isme/participant-registry/internal/handler"
	"github.com/noah-isme/participant-registry/internal/middleware"
	"github.com/noah-isme/participant-registry/internal/models"
	"github.com/noah-isme/participant-registry/internal/repository"
	"github.com/noah-isme/participant-registry/internal/router"
	"github.com/noah-isme/participant-registry/internal/service"
	"github.com/noah-isme/participant-registry/internal/utils"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.AppEnv == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(&models.Participant{}, &models.ActivityLog{}); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	var redisClient *redis.Client
	tokens := repository.NewMemoryTokenStore()
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		tokens = repository.NewRedisTokenStore(redisClient, "registry:revoked")
	} else {
		logger.Warn().Msg("redis url not set, token revocations are kept in memory")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Close()
	}

	if len(cfg.Admins) == 0 {
		logger.Warn().Msg("no admin accounts configured, login is disabled")
	}

	validate := utils.NewValidator()

	participantRepo := repository.NewParticipantRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityLogService(activityRepo, natsConn, cfg.NATSSubject, validate, cfg.Location, logger)
	participantService := service.NewParticipantService(participantRepo, validate, activityService, cfg.Location, logger)
	authService := service.NewAuthService(cfg.Admins, cfg.JWTSecret, cfg.JWTTTL, tokens, activityService, validate, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	activityService.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:      &logger,
		AllowOrigin: cfg.AllowOrigin,
		AccessLog:   cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		DB:                 db,
		ParticipantHandler: handler.NewParticipantHandler(participantService, logger),
		ActivityLogHandler: handler.NewActivityLogHandler(activityService, logger),
		AuthHandler:        handler.NewAuthHandler(authService, logger),
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret, tokens),
	})

	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Str("timezone", cfg.Timezone).Msg("starting server")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(ctx, app, logger)
}

func waitForShutdown(ctx context.Context, app *fiber.App, logger zerolog.Logger) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
