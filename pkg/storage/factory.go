package storage

import (
	"fmt"
	"time"

	"github.com/absmach/tabula/pkg/storage/badger"
	"github.com/absmach/tabula/pkg/storage/redis"
)

// Config selects and configures a storage backend.
type Config struct {
	Type string `env:"STORAGE_TYPE" envDefault:"memory"`

	RedisAddress  string        `env:"REDIS_ADDRESS"  envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int           `env:"REDIS_DB"       envDefault:"0"`
	RedisPrefix   string        `env:"REDIS_PREFIX"   envDefault:"tabula:datasets:"`
	RedisTTL      time.Duration `env:"REDIS_TTL"      envDefault:"24h"`

	BadgerPath string `env:"BADGER_PATH" envDefault:"./data/datasets"`
}

// New returns the backend named by cfg.Type.
func New(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "memory", "":
		return NewInMemoryStorage(), nil
	case "redis":
		return redis.New(redis.Config{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
			TTL:      cfg.RedisTTL,
		}), nil
	case "badger":
		return badger.New(cfg.BadgerPath, "datasets:")
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
