package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	// Server
	Port int    `mapstructure:"PORT"`
	Env  string `mapstructure:"APP_ENV"` // development | production

	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"` // comma separated, "*" for any

	// Remote branch/cashier/shift API
	APIBaseURL        string `mapstructure:"API_BASE_URL"`
	APITimeoutSeconds int    `mapstructure:"API_TIMEOUT_SECONDS"`

	// Local fallback store
	StoreDriver string `mapstructure:"STORE_DRIVER"` // memory | sqlite | postgres | redis
	StoreDSN    string `mapstructure:"STORE_DSN"`
	RedisURL    string `mapstructure:"REDIS_URL"`

	// Auth
	PasswordHashAlgo  string `mapstructure:"PASSWORD_HASH_ALGO"` // sha256 | bcrypt
	IdentityJWTSecret string `mapstructure:"IDENTITY_JWT_SECRET"`
	LoginRateLimit    int    `mapstructure:"LOGIN_RATE_LIMIT_PER_MINUTE"`
	SeedAdminPassword string `mapstructure:"SEED_ADMIN_PASSWORD"` // demo supervisor on a fresh device; empty seeds none

	// Mirror refresher
	MirrorRefreshSeconds int `mapstructure:"MIRROR_REFRESH_SECONDS"`

	// Circuit breaker around the remote API
	CBFailureThreshold   int `mapstructure:"CB_FAILURE_THRESHOLD"`
	CBSuccessThreshold   int `mapstructure:"CB_SUCCESS_THRESHOLD"`
	CBOpenTimeoutSeconds int `mapstructure:"CB_OPEN_TIMEOUT_SECONDS"`
}

// Load reads configuration from environment variables (and optional .env file).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	SetDefaults(v)

	// Optional .env file for local development, does not fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetDefaults registers development defaults. AutomaticEnv only resolves keys
// viper already knows about, so every field needs a default here.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8090)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("API_BASE_URL", "http://localhost:8000/api")
	v.SetDefault("API_TIMEOUT_SECONDS", 10)
	v.SetDefault("STORE_DRIVER", "sqlite")
	v.SetDefault("STORE_DSN", "caja-local.db")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("PASSWORD_HASH_ALGO", "sha256")
	v.SetDefault("IDENTITY_JWT_SECRET", "")
	v.SetDefault("LOGIN_RATE_LIMIT_PER_MINUTE", 20)
	v.SetDefault("SEED_ADMIN_PASSWORD", "")
	v.SetDefault("MIRROR_REFRESH_SECONDS", 300)
	v.SetDefault("CB_FAILURE_THRESHOLD", 3)
	v.SetDefault("CB_SUCCESS_THRESHOLD", 1)
	v.SetDefault("CB_OPEN_TIMEOUT_SECONDS", 30)
}

func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutSeconds) * time.Second
}

func (c *Config) MirrorRefreshInterval() time.Duration {
	return time.Duration(c.MirrorRefreshSeconds) * time.Second
}

func (c *Config) CBOpenTimeout() time.Duration {
	return time.Duration(c.CBOpenTimeoutSeconds) * time.Second
}

func (c *Config) CORSOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
