package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"github.com/rl1809/stock-count/internal/core/service"
)

const (
	StorageMySQL  = "mysql"
	StorageMemory = "memory"
)

type Config struct {
	HTTPAddr          string
	GRPCAddr          string
	Storage           string
	MySQLDSN          string
	MySQLMaxOpenConns int
	MySQLMaxIdleConns int
	RedisAddr         string
	RedisStream       string
	JWTSecret         []byte
	EventWorkers      int
	EventQueueSize    int
	ClosePolicy       service.ClosePolicy
	LogLevel          zapcore.Level
	SeedAdminID       int64
}

// Load reads an optional .env file (existing variables win), then the
// environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := &Config{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		GRPCAddr:    getEnv("GRPC_ADDR", ":50051"),
		Storage:     getEnv("STORAGE", StorageMySQL),
		MySQLDSN:    getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/stockcount?parseTime=true"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		RedisStream: getEnv("REDIS_STREAM", "stockcount:events"),
		JWTSecret:   []byte(os.Getenv("JWT_SECRET")),
	}

	var err error
	if cfg.MySQLMaxOpenConns, err = getInt("MYSQL_MAX_OPEN_CONNS", 50); err != nil {
		return nil, err
	}
	if cfg.MySQLMaxIdleConns, err = getInt("MYSQL_MAX_IDLE_CONNS", 25); err != nil {
		return nil, err
	}
	if cfg.EventWorkers, err = getInt("EVENT_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.EventQueueSize, err = getInt("EVENT_QUEUE_SIZE", 1024); err != nil {
		return nil, err
	}
	seed, err := getInt("SEED_ADMIN_ID", 1)
	if err != nil {
		return nil, err
	}
	cfg.SeedAdminID = int64(seed)

	if cfg.ClosePolicy, err = service.ParseClosePolicy(getEnv("CLOSE_POLICY", string(service.ClosePolicyAdmin))); err != nil {
		return nil, fmt.Errorf("CLOSE_POLICY: %w", err)
	}
	if cfg.LogLevel, err = zapcore.ParseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case StorageMySQL, StorageMemory:
	default:
		return fmt.Errorf("STORAGE: unknown storage %q", c.Storage)
	}
	if len(c.JWTSecret) == 0 {
		return errors.New("JWT_SECRET is required")
	}
	if c.EventWorkers < 1 {
		return fmt.Errorf("EVENT_WORKERS must be positive, got %d", c.EventWorkers)
	}
	if c.EventQueueSize < 1 {
		return fmt.Errorf("EVENT_QUEUE_SIZE must be positive, got %d", c.EventQueueSize)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
