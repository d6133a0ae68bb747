package app

import (
	"github.com/redis/go-redis/v9"
	cfgpkg "github.com/taoyao-code/liveview-bridge/internal/config"
	"github.com/taoyao-code/liveview-bridge/internal/events"
	"github.com/taoyao-code/liveview-bridge/internal/health"
	"go.uber.org/zap"
)

// NewRedisClient 创建Redis客户端，未启用时返回 nil
func NewRedisClient(cfg cfgpkg.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	if !cfg.Enabled {
		logger.Info("redis is disabled, skipping initialization")
		return nil, nil
	}

	client, err := events.NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("redis client initialized",
		zap.String("addr", cfg.Addr),
		zap.String("channel", cfg.Channel))

	return client, nil
}

// NewRedisSink 创建事件发布 Sink
func NewRedisSink(client *redis.Client, channel string) *events.RedisSink {
	return events.NewRedisSink(client, channel)
}

// AddRedisChecker 添加Redis检查器到聚合器
func AddRedisChecker(aggregator *health.Aggregator, client *redis.Client) {
	if client != nil {
		aggregator.AddChecker(health.NewRedisChecker(client))
	}
}
