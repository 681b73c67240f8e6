// Package rediswr wires Redis into the query pipeline as a result cache.
package rediswr

import (
	"strings"

	"github.com/redis/go-redis/v9"
)

// New creates a Redis client. A single address yields a plain client,
// several addresses or cluster mode a cluster client.
func New(cfg Config) redis.UniversalClient {
	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:         strings.Split(cfg.Addrs, ","),
		Username:      cfg.Username,
		Password:      cfg.Password,
		DB:            cfg.DB,
		DialTimeout:   cfg.DialTimeout,
		IsClusterMode: cfg.IsClusterMode,
	})
}
