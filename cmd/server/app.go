package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/iyunix/go-dreamer/internal/auth"
	"github.com/iyunix/go-dreamer/internal/config"
	"github.com/iyunix/go-dreamer/internal/handlers"
	"github.com/iyunix/go-dreamer/internal/ratelimit"
	"github.com/iyunix/go-dreamer/internal/repository"
	chatrepo "github.com/iyunix/go-dreamer/internal/repository/chat"
	communityrepo "github.com/iyunix/go-dreamer/internal/repository/community"
	mediarepo "github.com/iyunix/go-dreamer/internal/repository/media"
	msgrepo "github.com/iyunix/go-dreamer/internal/repository/message"
	personarepo "github.com/iyunix/go-dreamer/internal/repository/persona"
	"github.com/iyunix/go-dreamer/internal/repository/user"
	"github.com/iyunix/go-dreamer/internal/services"
	"github.com/iyunix/go-dreamer/internal/services/admin_services"
	"github.com/iyunix/go-dreamer/internal/services/ai"
	"github.com/iyunix/go-dreamer/internal/services/chat"
	"github.com/iyunix/go-dreamer/internal/services/community"
	"github.com/iyunix/go-dreamer/internal/services/persona"
	"github.com/iyunix/go-dreamer/internal/services/storage"
	"github.com/iyunix/go-dreamer/internal/services/user_services"
	"github.com/iyunix/go-dreamer/internal/services/video"
)

// Application aggregates all services and handlers
type Application struct {
	Config *config.Config
	Logger services.Logger
	DB     *gorm.DB
	Redis  *redis.Client

	AuthService *user_services.AuthService
	UserRepo    user.UserRepository

	AuthHandler      *handlers.AuthHandler
	ChatHandler      *handlers.ChatHandler
	CommunityHandler *handlers.CommunityHandler
	AdminHandler     *handlers.AdminHandler
	LogHandler       *handlers.LogHandler
	HealthHandler    *handlers.HealthHandler

	AuthLimiter   *ratelimit.MemoryRateLimiter
	StrictLimiter *ratelimit.MemoryRateLimiter
	APILimiter    ratelimit.Limiter
}

// Close releases background workers and connections.
func (a *Application) Close() {
	a.AuthLimiter.Close()
	a.StrictLimiter.Close()
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("closing redis", "error", err)
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func buildApplication(ctx context.Context, cfg *config.Config, logger services.Logger) (*Application, error) {
	app := &Application{Config: cfg, Logger: logger}

	// --- Database ---
	db, err := repository.Open(repository.DBConfig{DatabaseURL: cfg.DatabaseURL, SQLitePath: cfg.SQLitePath})
	if err != nil {
		return nil, err
	}
	app.DB = db
	if err := repository.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	catalog, err := persona.LoadDefault()
	if err != nil {
		return nil, err
	}

	// --- Repositories ---
	userRepo := user.NewGormUserRepository(db)
	roomRepo := chatrepo.NewChatRoomRepository(db)
	settingsRepo := chatrepo.NewBotSettingsRepository(db)
	messageRepo := msgrepo.NewMessageRepository(db)
	mediaRepo := mediarepo.NewMediaRepository(db)
	personaRepo := personarepo.NewPersonaRepository(db)
	communityRepo := communityrepo.NewCommunityRepository(db)
	app.UserRepo = userRepo

	if err := persona.Seed(ctx, personaRepo, catalog); err != nil {
		return nil, err
	}

	// --- Redis (optional) ---
	if cfg.RedisAddr != "" {
		app.Redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := app.Redis.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			// lease, revoker and limiter all degrade on their own
			logger.Warn("Redis unreachable at startup", "addr", cfg.RedisAddr, "error", err)
		} else {
			logger.Info("Redis connected", "addr", cfg.RedisAddr)
		}
	}

	// --- AI ---
	aiConfig := ai.DefaultConfig()
	aiConfig.APIKey = cfg.OpenAIAPIKey
	aiConfig.BaseURL = cfg.OpenAIBaseURL
	aiConfig.ChatModel = cfg.OpenAIModel
	aiConfig.Timeout = cfg.AITimeout
	if err := aiConfig.Validate(); err != nil {
		logger.Warn("AI provider misconfigured; replies will fall back to the apology text", "error", err)
	}
	provider := ai.NewOpenAIProvider(aiConfig)
	interpreter := ai.NewInterpreter(provider, catalog, aiConfig, logger)
	images := ai.NewImageGenerator(provider, catalog, aiConfig.ImageModel, logger)

	// --- Video chain: Replicate models first, still image last ---
	var providers []video.Provider
	if cfg.ReplicateAPIToken != "" {
		rc := video.NewReplicateClient(video.ReplicateConfig{Token: cfg.ReplicateAPIToken, Timeout: cfg.VideoTimeout})
		providers = append(providers, video.NewHunyuanVideo(rc), video.NewZeroscopeXL(rc))
	}
	providers = append(providers, video.NewStillImageProvider(provider, aiConfig.ImageModel))
	chain := video.NewChain(logger, providers...)
	videos := video.NewService(chain, provider, catalog, aiConfig.ChatModel, logger)
	logger.Info("Video providers configured", "order", chain.Providers())

	// --- Storage ---
	store, err := storage.New(ctx, storage.Options{
		Driver:        cfg.StorageDriver,
		Bucket:        cfg.StorageBucket,
		Endpoint:      cfg.StorageEndpoint,
		Region:        cfg.StorageRegion,
		AccessKey:     cfg.StorageAccessKey,
		SecretKey:     cfg.StorageSecretKey,
		UseSSL:        cfg.StorageUseSSL,
		PublicBaseURL: cfg.StoragePublicBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	uploader := storage.NewUploader(store, storage.DefaultUploaderConfig(), logger)
	if !uploader.Enabled() {
		logger.Info("Object storage disabled; provider image URLs are stored as-is")
	}

	// --- Auth ---
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.JWTExpiresIn, cfg.JWTRefreshExpiresIn)
	var revoker auth.TokenRevoker = auth.NewMemoryTokenRevoker()
	if app.Redis != nil {
		revoker = auth.NewRedisTokenRevoker(app.Redis)
	}
	nicknames := user_services.NewNicknameService(userRepo, logger)
	authService := user_services.NewAuthService(userRepo, tokens, revoker, nicknames, cfg.AdminEmails, logger)
	app.AuthService = authService

	userService := user_services.NewUserService(user_services.UserServiceDeps{
		Users:     userRepo,
		Auth:      authService,
		Nicknames: nicknames,
		Rooms:     roomRepo,
		Messages:  messageRepo,
		Images:    mediaRepo,
		Logger:    logger,
	})

	var appleKey []byte
	if cfg.ApplePrivateKeyPath != "" {
		if appleKey, err = os.ReadFile(cfg.ApplePrivateKeyPath); err != nil {
			logger.Warn("Apple sign-in disabled: cannot read private key", "path", cfg.ApplePrivateKeyPath, "error", err)
		}
	}
	oauthService := user_services.NewOAuthService(user_services.OAuthConfig{
		GoogleClientID:     cfg.GoogleClientID,
		GoogleClientSecret: cfg.GoogleClientSecret,
		AppleClientID:      cfg.AppleClientID,
		AppleTeamID:        cfg.AppleTeamID,
		AppleKeyID:         cfg.AppleKeyID,
		ApplePrivateKey:    appleKey,
		CallbackBaseURL:    cfg.OAuthCallbackBaseURL,
		FrontendURL:        cfg.FrontendURL,
	}, auth.NewStateSigner(cfg.JWTSecret), authService, logger)

	// --- Chat ---
	chatConfig := chat.DefaultConfig()
	chatConfig.ImageGeneration = cfg.FeatureImageGeneration
	chatConfig.VideoGeneration = cfg.FeatureVideoGeneration
	var lease chat.Lease = chat.NoopLease{}
	if app.Redis != nil {
		lease = chat.NewRedisLease(app.Redis, "", logger)
	}
	roomService, err := chat.NewRoomService(roomRepo, settingsRepo, lease, chatConfig, logger)
	if err != nil {
		return nil, err
	}
	messageService, err := chat.NewMessageService(chat.MessageDeps{
		Rooms:       roomService,
		Messages:    messageRepo,
		Media:       mediaRepo,
		Interpreter: interpreter,
		Images:      images,
		Videos:      videos,
		Uploader:    uploader,
		Premium:     authService,
		Config:      chatConfig,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	// --- Community & admin ---
	postService := community.NewPostService(communityRepo, roomRepo, messageRepo, mediaRepo, logger)
	commentService := community.NewCommentService(communityRepo, logger)
	adminService := admin_services.NewAdminService(userRepo)

	// --- Rate limiting ---
	app.AuthLimiter = ratelimit.NewMemoryRateLimiter(ratelimit.DefaultAuthConfig())
	app.StrictLimiter = ratelimit.NewMemoryRateLimiter(ratelimit.StrictAuthConfig())
	app.APILimiter = ratelimit.NewTokenBucketLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute)
	if app.Redis != nil {
		perMinute := int(cfg.RateLimitRPS * 60)
		limiter, err := ratelimit.NewRedisFixedWindowLimiter(app.Redis, "", perMinute, time.Minute, func(err error) {
			logger.Warn("rate limiter backend error; allowing request", "error", err)
		})
		if err != nil {
			return nil, err
		}
		app.APILimiter = limiter
	}

	// --- Handlers ---
	app.AuthHandler = handlers.NewAuthHandler(authService, userService, nicknames, oauthService, logger)
	app.ChatHandler = handlers.NewChatHandler(roomService, messageService, catalog, personaRepo, logger)
	app.CommunityHandler = handlers.NewCommunityHandler(postService, commentService, logger)
	app.AdminHandler = handlers.NewAdminHandler(adminService, logger)
	app.LogHandler = handlers.NewLogHandler(logger)

	checks := map[string]handlers.Pinger{
		"database": handlers.PingFunc(func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
	}
	if app.Redis != nil {
		checks["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		})
	}
	app.HealthHandler = handlers.NewHealthHandler(checks)

	return app, nil
}
