package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	Env     string `envconfig:"APP_ENV" default:"development"`
	Port    int    `envconfig:"APP_PORT" default:"8080"`
	DB      DBConfig
	Redis   RedisConfig
	Limiter RateLimiterConfig
	CORS    CORSConfig
	JWT     JWTConfig
	Crypto  CryptoConfig
	Video   VideoConfig
	Webhook WebhookConfig
	Offer   OfferConfig
}

// database configuration
type DBConfig struct {
	DSN          string `envconfig:"DATABASE_URL" required:"true"`
	MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// rate limiting configuration, applied per tenant
type RateLimiterConfig struct {
	Requests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"300"`
	Window   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
	Enabled  bool          `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CORS configuration
type CORSConfig struct {
	TrustedOrigins []string `envconfig:"CORS_TRUSTED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

// JWT configuration
type JWTConfig struct {
	Secret string `envconfig:"JWT_SECRET" required:"true"`
}

// encryption of webhook secrets at rest
type CryptoConfig struct {
	Secret string `envconfig:"AES_SECRET_KEY" required:"true"`
}

// video provider configuration
type VideoConfig struct {
	APIKey          string        `envconfig:"VIDEO_API_KEY"`
	APIURL          string        `envconfig:"VIDEO_API_URL" default:"https://api.daily.co/v1"`
	WebhookSecret   string        `envconfig:"VIDEO_WEBHOOK_SECRET"`
	Timeout         time.Duration `envconfig:"VIDEO_TIMEOUT" default:"15s"`
	RoomTTL         time.Duration `envconfig:"VIDEO_ROOM_TTL" default:"3h"`
	TokenTTL        time.Duration `envconfig:"VIDEO_TOKEN_TTL" default:"2h"`
	ScheduledMinTTL time.Duration `envconfig:"VIDEO_SCHEDULED_MIN_TTL" default:"168h"`
	ScheduledBuffer time.Duration `envconfig:"VIDEO_SCHEDULED_BUFFER" default:"6h"`
	MaxParticipants int           `envconfig:"VIDEO_MAX_PARTICIPANTS" default:"10"`
}

// outbound webhook configuration
type WebhookConfig struct {
	Timeout     time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"10s"`
	MaxAttempts int           `envconfig:"WEBHOOK_MAX_ATTEMPTS" default:"3"`
	BatchSize   int           `envconfig:"WEBHOOK_BATCH_SIZE" default:"50"`
	Schedule    string        `envconfig:"WEBHOOK_SCHEDULE" default:"@every 30s"`
}

type OfferConfig struct {
	DefaultCurrency string `envconfig:"OFFER_DEFAULT_CURRENCY" default:"PHP"`
	ExpirySchedule  string `envconfig:"OFFER_EXPIRY_SCHEDULE" default:"*/5 * * * *"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Env] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, staging, production, test)", c.Env)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be between 1 and 65535)", c.Port)
	}
	if c.DB.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be at least 1")
	}
	if c.Limiter.Enabled {
		if c.Limiter.Requests < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
		}
		if c.Limiter.Window <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if len(c.Crypto.Secret) != 32 {
		return fmt.Errorf("AES_SECRET_KEY must be 32 bytes (got %d)", len(c.Crypto.Secret))
	}
	if len(c.CORS.TrustedOrigins) == 0 {
		return fmt.Errorf("at least one trusted origin must be specified")
	}
	if c.Video.TokenTTL <= 0 || c.Video.RoomTTL <= 0 {
		return fmt.Errorf("VIDEO_ROOM_TTL and VIDEO_TOKEN_TTL must be positive")
	}
	if c.Webhook.MaxAttempts < 1 {
		return fmt.Errorf("WEBHOOK_MAX_ATTEMPTS must be at least 1")
	}
	if c.Webhook.BatchSize < 1 {
		return fmt.Errorf("WEBHOOK_BATCH_SIZE must be at least 1")
	}
	if strings.TrimSpace(c.Webhook.Schedule) == "" || strings.TrimSpace(c.Offer.ExpirySchedule) == "" {
		return fmt.Errorf("WEBHOOK_SCHEDULE and OFFER_EXPIRY_SCHEDULE are required")
	}
	if len(c.Offer.DefaultCurrency) != 3 {
		return fmt.Errorf("OFFER_DEFAULT_CURRENCY must be a 3-letter code")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// GetCORSOrigins returns the list of trusted CORS origins
func (c *Config) GetCORSOrigins() []string {
	origins := make([]string, 0, len(c.CORS.TrustedOrigins))
	for _, origin := range c.CORS.TrustedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{Env=%s, Port=%d, DB.MaxOpenConns=%d, Redis.Addr=%s, "+
		"Limiter.Requests=%d, Limiter.Window=%s, Limiter.Enabled=%t, CORS.Origins=%d, "+
		"Video.APIURL=%s, Video.Configured=%t, Webhook.MaxAttempts=%d, Webhook.Schedule=%q, Offer.ExpirySchedule=%q}",
		c.Env, c.Port, c.DB.MaxOpenConns, c.Redis.Addr,
		c.Limiter.Requests, c.Limiter.Window, c.Limiter.Enabled, len(c.CORS.TrustedOrigins),
		c.Video.APIURL, c.Video.APIKey != "", c.Webhook.MaxAttempts, c.Webhook.Schedule, c.Offer.ExpirySchedule)
}
