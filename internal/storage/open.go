package storage

import (
	"fmt"

	"tuition/internal/cache"
	"tuition/internal/config"
	"tuition/internal/db"
)

// RedisKeyPrefix namespaces snapshot keys in a shared Redis.
const RedisKeyPrefix = "tuition:"

// Open returns the store selected by cfg.StoreBackend. The MySQL backend is
// migrated before it is returned.
func Open(cfg *config.Config, cacheClient *cache.Client) (Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendRedis:
		if cacheClient.Redis() == nil {
			return nil, fmt.Errorf("redis store requires REDIS_ADDR")
		}
		return NewRedisStore(cacheClient.Redis(), RedisKeyPrefix), nil
	case config.BackendMySQL:
		gormDB, err := db.NewMySQL(cfg.MySQLDSN, cfg.LogLevel == "debug")
		if err != nil {
			return nil, err
		}
		store := NewSQLStore(gormDB)
		if err := store.Migrate(); err != nil {
			return nil, fmt.Errorf("migrate snapshots: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
