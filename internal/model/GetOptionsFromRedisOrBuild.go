package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"TabQueryAPI/internal/db"
	"TabQueryAPI/internal/filter"
	"TabQueryAPI/internal/logger"
)

// redisOptionsTTL bounds how long rendered options stay in Redis.
const redisOptionsTTL = 2 * time.Hour

// GetOptionsFromRedisOrBuild returns the JSON encoded find options for req.
// Lookup order: memory, Redis (when connected), generator.
func (m *Model) GetOptionsFromRedisOrBuild(ctx context.Context, req filter.Request) ([]byte, error) {
	key, err := optionsCacheKey(m.Name, req)
	if err != nil {
		return nil, fmt.Errorf("options cache key: %w", err)
	}
	now := time.Now()

	// 1. память процесса
	if payload, ok := globalOptionsCache.get(key, now); ok {
		return payload, nil
	}

	// 2. Redis
	if db.RDB != nil {
		cached, err := db.RDB.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			globalOptionsCache.set(key, cached, now)
			return cached, nil
		case !errors.Is(err, redis.Nil):
			logger.Warn("options_cache_redis_get_failed", map[string]any{
				"model": m.Name,
				"error": err.Error(),
			})
		}
	}

	// 3. генерация на лету; ошибки запроса не кэшируются
	opts, err := m.Generator().Generate(req)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(opts)
	if err != nil {
		return nil, fmt.Errorf("marshal find options: %w", err)
	}
	globalOptionsCache.set(key, payload, now)

	if db.RDB != nil {
		if err := db.RDB.Set(ctx, key, payload, redisOptionsTTL).Err(); err != nil {
			logger.Warn("options_cache_redis_set_failed", map[string]any{
				"model": m.Name,
				"error": err.Error(),
			})
		}
	}
	return payload, nil
}

// FlushOptionsCache удаляет закэшированные опции из памяти и Redis
func FlushOptionsCache(ctx context.Context) error {
	ResetOptionsCache()
	if db.RDB == nil {
		return nil
	}
	iter := db.RDB.Scan(ctx, 0, optionsCachePrefix+"*", 1000).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if err := db.RDB.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", key, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan error: %w", err)
	}
	return nil
}
