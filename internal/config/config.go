package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"alpr-service/internal/storage"
)

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret string
}

type RegistryConfig struct {
	Backend    string
	SQLitePath string
	SeedFile   string
}

type EventsConfig struct {
	Enabled       bool
	RetentionDays int
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type CameraConfig struct {
	DefaultID string
	Model     string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Registry    RegistryConfig
	Events      EventsConfig
	RateLimit   RateLimitConfig
	Camera      CameraConfig
	Storage     storage.Config
}

// NeedsDatabase reports whether a postgres connection must be opened.
func (c *Config) NeedsDatabase() bool {
	return c.Registry.Backend == BackendPostgres || c.Events.Enabled
}

func Load() (*Config, error) {
	// a missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", time.Hour)
	v.SetDefault("REGISTRY_BACKEND", BackendMemory)
	v.SetDefault("REGISTRY_SQLITE_PATH", "registry.db")
	v.SetDefault("EVENT_RETENTION_DAYS", 90)
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("CAMERA_DEFAULT_ID", "camera-default")
	v.SetDefault("CAMERA_MODEL", "DS-TCG406-E")
	v.SetDefault("R2_REGION", "auto")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Registry: RegistryConfig{
			Backend:    strings.ToLower(strings.TrimSpace(v.GetString("REGISTRY_BACKEND"))),
			SQLitePath: v.GetString("REGISTRY_SQLITE_PATH"),
			SeedFile:   v.GetString("REGISTRY_SEED_FILE"),
		},
		Events: EventsConfig{
			Enabled:       v.GetBool("EVENTS_ENABLED"),
			RetentionDays: v.GetInt("EVENT_RETENTION_DAYS"),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
		Camera: CameraConfig{
			DefaultID: v.GetString("CAMERA_DEFAULT_ID"),
			Model:     v.GetString("CAMERA_MODEL"),
		},
		Storage: storage.Config{
			Endpoint:      strings.TrimSpace(v.GetString("R2_ENDPOINT")),
			AccessKey:     strings.TrimSpace(v.GetString("R2_ACCESS_KEY_ID")),
			SecretKey:     strings.TrimSpace(v.GetString("R2_SECRET_ACCESS_KEY")),
			Bucket:        strings.TrimSpace(v.GetString("R2_BUCKET")),
			Region:        strings.TrimSpace(v.GetString("R2_REGION")),
			PublicBaseURL: strings.TrimSpace(v.GetString("R2_PUBLIC_BASE_URL")),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.Registry.Backend {
	case BackendMemory, BackendPostgres:
	case BackendSQLite:
		if cfg.Registry.SQLitePath == "" {
			return fmt.Errorf("REGISTRY_SQLITE_PATH is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown REGISTRY_BACKEND %q", cfg.Registry.Backend)
	}
	if cfg.NeedsDatabase() && cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP_PORT %d out of range", cfg.HTTP.Port)
	}
	return nil
}
