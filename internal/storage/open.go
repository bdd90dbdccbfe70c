package storage

import (
	"fmt"

	"go.uber.org/zap"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Options struct {
	Driver      string
	Database    DatabaseConfig
	RedisURL    string
	RedisPrefix string
}

// Open builds the backend named by opts.Driver.
func Open(opts Options, logger *zap.Logger) (Storage, error) {
	switch opts.Driver {
	case "", DriverMemory:
		logger.Info("Using in-memory storage")
		return NewMemoryStorage(), nil
	case DriverPostgres:
		logger.Info("Using PostgreSQL storage")
		return NewPostgresStorage(opts.Database, logger)
	case DriverRedis:
		logger.Info("Using Redis storage")
		return NewRedisStorage(opts.RedisURL, opts.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
