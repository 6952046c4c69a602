package connectors

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/teachermoments/moments/config"
	"github.com/teachermoments/moments/pkg/commons"
)

// RedisConnector hands out the shared redis client. Currently only the rate
// limiting middleware uses it.
type RedisConnector interface {
	Client() *redis.Client
	Close() error
}

type redisConnector struct {
	client *redis.Client
	logger commons.Logger
}

func NewRedisConnector(cfg *config.AppConfig, logger commons.Logger) (RedisConnector, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisConfig.Address,
		Password: cfg.RedisConfig.Password,
		DB:       cfg.RedisConfig.Database,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect redis at %s: %w", cfg.RedisConfig.Address, err)
	}
	logger.Infof("redis connected: %s", cfg.RedisConfig.Address)
	return &redisConnector{client: client, logger: logger}, nil
}

func (c *redisConnector) Client() *redis.Client { return c.client }

func (c *redisConnector) Close() error { return c.client.Close() }

// NewRedisConnectorFromClient wraps an existing client, used with redismock.
func NewRedisConnectorFromClient(client *redis.Client, logger commons.Logger) RedisConnector {
	return &redisConnector{client: client, logger: logger}
}
