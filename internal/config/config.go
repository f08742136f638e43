package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Store backends accepted in STORE_BACKEND.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMySQL  = "mysql"
)

// Config holds application level configuration loaded from environment variables
// and, when CONFIG_PATH is set, from a YAML file.
type Config struct {
	ServerPort   string `yaml:"server_port" env:"SERVER_PORT" env-default:"8080"`
	StoreBackend string `yaml:"store_backend" env:"STORE_BACKEND" env-default:"mysql"`
	MySQLDSN     string `yaml:"mysql_dsn" env:"MYSQL_DSN" env-default:"user:password@tcp(localhost:3306)/app?charset=utf8mb4&parseTime=True&loc=Local"`
	RedisAddr    string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisDB      int    `yaml:"redis_db" env:"REDIS_DB" env-default:"0"`
	RedisPass    string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	JWTSecret    string `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"change-me"`
	SwaggerHost  string `yaml:"swagger_host" env:"SWAGGER_HOST"`
	LogLevel     string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogJSON      bool   `yaml:"log_json" env:"LOG_JSON" env-default:"false"`

	// ReloadInterval is how often the directory is re-read from the store so
	// changes made by another process (cmd/seed, a second replica) are seen.
	// Zero disables it.
	ReloadInterval time.Duration `yaml:"reload_interval" env:"RELOAD_INTERVAL" env-default:"30s"`
}

// Load builds Config from CONFIG_PATH (if set) overlaid with the environment.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendRedis, BackendMySQL:
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	if c.ReloadInterval < 0 {
		return fmt.Errorf("RELOAD_INTERVAL must not be negative")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	return nil
}
