/*
Package redis wraps a github.com/redis/go-redis/v9 client as a process
global, configured once at startup via Init.

nuke-ms's only use of Redis is the optional presence/federation
extension (internal/presence): which gateway process a given
UniqueUserID is currently connected to, so that a multi-process
deployment can forward a unicast send to the right gateway instead of
only ever reaching peers on the local process. Nothing here persists
messages - persistent storage stays out of scope.
*/
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// Client is the shared Redis client, set by Init.
	Client *redis.Client

	ctx = context.Background()
)

// Config holds Redis connection parameters.
type Config struct {
	// Addr is the Redis server address, e.g. "127.0.0.1:6379".
	Addr string

	// Password is optional.
	Password string

	// DB selects the logical database (0-15).
	DB int

	// PoolSize bounds the connection pool; defaults to 100 if zero.
	PoolSize int
}

// Init connects Client to cfg and pings it once to fail fast on a
// misconfigured address.
func Init(cfg *Config) error {
	if cfg.PoolSize == 0 {
		cfg.PoolSize = 100
	}

	Client = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: 10,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}

	log.Println("[redis] connected")
	return nil
}

// Close releases the pool. Safe to call even if Init was never called.
func Close() {
	if Client != nil {
		Client.Close()
	}
}

// Context returns the package's default context for callers that don't
// need their own deadline or cancellation.
func Context() context.Context {
	return ctx
}
