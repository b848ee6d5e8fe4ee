// Package storage is the local key/value store behind mock authentication
// and the persisted session. Values are opaque strings, usually JSON.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"product-dashboard/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Supported values of STORAGE_DRIVER
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

var (
	ErrNotFound          = errors.New("key not found")
	ErrUnsupportedDriver = errors.New("unsupported storage driver")
)

// KV is a string key/value store
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open connects to the backend selected by cfg.Storage.Driver and prepares
// it for use. SQL backends are migrated before Open returns.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (KV, error) {
	logger.Info("Opening local store", zap.String("driver", cfg.Storage.Driver))

	switch cfg.Storage.Driver {
	case DriverSQLite, "":
		return OpenSQLite(ctx, cfg.Storage.SQLitePath, logger)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.Database.DSN(), logger)
	case DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return NewRedis(client, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Storage.Driver)
	}
}

// OpenSQLite opens (creating if needed) the sqlite file at path
func OpenSQLite(ctx context.Context, path string, logger *zap.Logger) (KV, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		logger.Debug("Failed to set sqlite busy_timeout", zap.Error(err))
	}

	return newSQLStore(ctx, db, sqliteDialect, logger)
}

// OpenPostgres connects to postgres through the pgx stdlib driver
func OpenPostgres(ctx context.Context, dsn string, logger *zap.Logger) (KV, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return newSQLStore(ctx, db, postgresDialect, logger)
}

// RedisClient returns the underlying client when kv is redis-backed. The
// HTTP server uses it for rate limiting.
func RedisClient(kv KV) (*redis.Client, bool) {
	r, ok := kv.(*redisStore)
	if !ok {
		return nil, false
	}
	return r.client, true
}
