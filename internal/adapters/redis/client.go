package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Options selects the Redis instance backing the submission guard.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient creates a client and verifies it can reach the server.
func NewClient(ctx context.Context, opts Options) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return rdb, nil
}
