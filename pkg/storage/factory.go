package storage

import (
	"context"
	"fmt"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// LogConfig selects and configures the processed log backend
type LogConfig struct {
	Backend string
	Path    string
	Redis   RedisConfig
}

// OpenProcessedLog opens the backend named in cfg. An empty backend means file.
func OpenProcessedLog(ctx context.Context, cfg LogConfig) (ProcessedLog, error) {
	switch cfg.Backend {
	case "", BackendFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("file processed log requires a path")
		}
		return NewFileLog(cfg.Path), nil
	case BackendSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite processed log requires a path")
		}
		return OpenSQLiteLog(ctx, cfg.Path)
	case BackendRedis:
		if cfg.Redis.Addr == "" {
			return nil, fmt.Errorf("redis processed log requires an address")
		}
		return OpenRedisLog(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown processed log backend %q", cfg.Backend)
	}
}
