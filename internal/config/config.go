package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port              int           `envconfig:"PORT" default:"8080"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL       string        `envconfig:"DATABASE_URL" required:"true"`
	BackendURL        string        `envconfig:"BACKEND_URL" required:"true"`
	BackendTimeout    time.Duration `envconfig:"BACKEND_TIMEOUT" default:"15s"`
	RedisURL          string        `envconfig:"REDIS_URL" default:""`
	SessionSecret     string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL        time.Duration `envconfig:"SESSION_TTL" default:"720h"`
	SessionCacheTTL   time.Duration `envconfig:"SESSION_CACHE_TTL" default:"5m"`
	CookieSecure      bool          `envconfig:"COOKIE_SECURE" default:"false"`
	StripeSecretKey   string        `envconfig:"STRIPE_SECRET_KEY" default:""`
	BcryptCost        int           `envconfig:"BCRYPT_COST" default:"12"`
	AuthRatePerMinute int           `envconfig:"AUTH_RATE_PER_MINUTE" default:"30"`
	AuthRateBurst     int           `envconfig:"AUTH_RATE_BURST" default:"15"`
	SweepInterval     time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
	AnalyticsSink     string        `envconfig:"ANALYTICS_SINK" default:"postgres"`
	Version           string        `envconfig:"VERSION" default:"dev"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", cfg.SweepInterval)
	}
	return &cfg, nil
}
