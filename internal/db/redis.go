package db

import (
	"context"

	"github.com/redis/go-redis/v9"

	"TabQueryAPI/internal/logger"
)

// RDB stays nil when Redis is not configured; callers skip the Redis tier.
var RDB *redis.Client

// InitRedis принимает адрес явно (а не через os.Getenv)
func InitRedis(addr string) {
	if addr == "" {
		logger.Info("redis_disabled", nil)
		return
	}

	RDB = redis.NewClient(&redis.Options{
		Addr: addr,
	})
}

func PingRedis() error {
	return RDB.Ping(context.Background()).Err()
}

// CloseRedis closes the client and disables the Redis tier.
func CloseRedis() {
	if RDB != nil {
		_ = RDB.Close()
		RDB = nil
	}
}
