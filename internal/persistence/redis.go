package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/config"
)

const redisDialCheck = 3 * time.Second

// Redis holds the client behind the category cache. The service still
// starts when Redis is down: cache reads fail over to Postgres.
type Redis struct {
	Client *redis.Client
}

// NewRedis opens a client for cfg.Addr and logs whether it answered.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:       cfg.Addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		ClientName: "helpdesk-catalogue",
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisDialCheck)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable; catalogue cache will miss", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("catalogue cache connected", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}

	return &Redis{Client: client}
}

// Close releases the connection pool.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping backs the readiness check entry "redis".
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
