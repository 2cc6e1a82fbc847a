package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort        string        `mapstructure:"HTTP_PORT"`
	Store           string        `mapstructure:"STORE"`
	MongoURI        string        `mapstructure:"MONGO_URI"`
	MongoDBName     string        `mapstructure:"MONGO_DB_NAME"`
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	KafkaBrokers    string        `mapstructure:"KAFKA_BROKERS"`
	NotifyTopic     string        `mapstructure:"NOTIFY_TOPIC"`
	OutboxInterval  time.Duration `mapstructure:"OUTBOX_INTERVAL"`
	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	TokenTTL        time.Duration `mapstructure:"TOKEN_TTL"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	AllowedOrigins  string        `mapstructure:"ALLOWED_ORIGINS"`
}

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

var defaults = map[string]interface{}{
	"HTTP_PORT":        "8080",
	"STORE":            StoreMongo,
	"MONGO_URI":        "mongodb://localhost:27017",
	"MONGO_DB_NAME":    "campuskart",
	"REDIS_ADDR":       "",
	"REDIS_PASSWORD":   "",
	"KAFKA_BROKERS":    "",
	"NOTIFY_TOPIC":     "order-notifications",
	"OUTBOX_INTERVAL":  time.Second,
	"JWT_SECRET":       "dev-secret",
	"TOKEN_TTL":        7 * 24 * time.Hour,
	"REQUEST_TIMEOUT":  30 * time.Second,
	"SHUTDOWN_TIMEOUT": 10 * time.Second,
	"ALLOWED_ORIGINS":  "*",
}

// Load reads configuration from defaults, an optional config.yaml, an optional .env file and
// the environment, later sources winning.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./deploy/")
	v.AddConfigPath("./")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store {
	case StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("STORE must be %q or %q, got %q", StoreMongo, StoreMemory, c.Store)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.OutboxInterval <= 0 {
		return errors.New("OUTBOX_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) Brokers() []string {
	return splitList(c.KafkaBrokers)
}

func (c *Config) Origins() []string {
	return splitList(c.AllowedOrigins)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
