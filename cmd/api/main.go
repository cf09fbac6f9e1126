package main

import (
	"context"
	"fmt"
	"os"

	"github.com/abhishek622/hiregate/internal/auth"
	"github.com/abhishek622/hiregate/internal/cache"
	"github.com/abhishek622/hiregate/internal/config"
	"github.com/abhishek622/hiregate/internal/database"
	"github.com/abhishek622/hiregate/internal/handler"
	"github.com/abhishek622/hiregate/internal/logger"
	"github.com/abhishek622/hiregate/internal/repository"
	"github.com/abhishek622/hiregate/internal/video"
	"github.com/abhishek622/hiregate/internal/webhook"
	"github.com/abhishek622/hiregate/internal/workflow"
	"github.com/abhishek622/hiregate/pkg"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type application struct {
	DB         *pgxpool.Pool
	Redis      *redis.Client
	Logger     *zap.Logger
	Config     *config.Config
	Repository *repository.Repository
	TokenMaker *auth.JWTMaker
	Limiter    *cache.RateLimiter
	Workflow   *workflow.Service
	Dispatcher *webhook.Dispatcher
	Handler    *handler.Handler
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.NewLogger(cfg.Env)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	log.Sugar().Infof("config loaded, env=%s", cfg.Env)
	return cfg, log, nil
}

// newApplication connects to postgres and redis and builds the workflow
// engine, the webhook dispatcher and the HTTP handlers on top of them.
func newApplication(ctx context.Context, cfg *config.Config, log *zap.Logger) (*application, error) {
	pool, err := database.Connect(ctx, cfg.DB.DSN, int32(cfg.DB.MaxOpenConns))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	secrets, err := pkg.NewCrypto(cfg.Crypto.Secret)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init crypto: %w", err)
	}

	var rdb *redis.Client
	if cfg.Limiter.Enabled {
		rdb = cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := cache.Ping(ctx, rdb); err != nil {
			// The limiter fails open, so a missing redis only costs rate limiting.
			log.Warn("redis unavailable, rate limiting degraded", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
	}

	repo := repository.NewRepository(pool)

	opts := webhook.DefaultOptions()
	opts.Timeout = cfg.Webhook.Timeout
	opts.MaxAttempts = cfg.Webhook.MaxAttempts
	opts.BatchSize = cfg.Webhook.BatchSize
	dispatcher := webhook.NewDispatcher(repo.Webhook, secrets, log.Named("webhook"), opts)

	videoClient := video.NewClient(cfg.Video.APIKey, cfg.Video.APIURL, cfg.Video.Timeout)
	svc := workflow.New(repo.Workflow, videoClient, log.Named("workflow"), workflow.Options{
		Video: workflow.VideoPolicy{
			RoomTTL:         cfg.Video.RoomTTL,
			TokenTTL:        cfg.Video.TokenTTL,
			ScheduledMinTTL: cfg.Video.ScheduledMinTTL,
			ScheduledBuffer: cfg.Video.ScheduledBuffer,
			MaxParticipants: cfg.Video.MaxParticipants,
		},
		DefaultCurrency: cfg.Offer.DefaultCurrency,
		Kick:            dispatcher.Kick,
	})

	return &application{
		DB:         pool,
		Redis:      rdb,
		Logger:     log,
		Config:     cfg,
		Repository: repo,
		TokenMaker: auth.NewJWTMaker(cfg.JWT.Secret),
		Limiter:    cache.NewRateLimiter(rdb, "hiregate:rl"),
		Workflow:   svc,
		Dispatcher: dispatcher,
		Handler: &handler.Handler{
			Logger:             log,
			Workflow:           svc,
			Webhooks:           webhook.NewSubscriptions(repo.Webhook, secrets),
			VideoWebhookSecret: cfg.Video.WebhookSecret,
		},
	}, nil
}

func (app *application) close() {
	if app.Redis != nil {
		_ = app.Redis.Close()
	}
	app.DB.Close()
	_ = app.Logger.Sync()
}
