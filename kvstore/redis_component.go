package kvstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/goplatform/component"
	perrors "github.com/kbukum/goplatform/errors"
	"github.com/kbukum/goplatform/logger"
	"github.com/kbukum/goplatform/resilience"
)

// RedisComponent owns a redis connection and serves as a Store once
// started. Calls made before Start or after Stop fail with BadResource.
type RedisComponent struct {
	cfg    RedisConfig
	prefix string
	log    *logger.Logger

	mu    sync.RWMutex
	rdb   *goredis.Client
	store *Redis
}

var (
	_ component.Component = (*RedisComponent)(nil)
	_ Store               = (*RedisComponent)(nil)
)

// NewRedisComponent creates a redis-backed store component.
func NewRedisComponent(cfg RedisConfig, prefix string, log *logger.Logger) *RedisComponent {
	if log == nil {
		log = logger.Get("kvstore")
	}
	return &RedisComponent{cfg: cfg, prefix: prefix, log: log.WithComponent("redis")}
}

// Name returns the component name.
func (c *RedisComponent) Name() string { return "kvstore-redis" }

// Start connects and pings the server, retrying failed pings.
func (c *RedisComponent) Start(ctx context.Context) error {
	c.cfg.ApplyDefaults()
	if err := c.cfg.Validate(); err != nil {
		return fmt.Errorf("redis config: %w", err)
	}
	rdb := goredis.NewClient(c.cfg.options())

	err := resilience.RetryFunc(ctx, resilience.RetryConfig{
		MaxAttempts:    c.cfg.ConnectAttempts,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		BackoffFactor:  2,
		Jitter:         0.1,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			c.log.Warn("redis ping failed, retrying", logger.Fields(
				"attempt", attempt, "backoff", backoff.String(), logger.FieldError, err.Error()))
		},
	}, func() error {
		return rdb.Ping(ctx).Err()
	})
	if err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis start ping: %w", err)
	}

	c.mu.Lock()
	c.rdb = rdb
	c.store = NewRedis(rdb, c.prefix)
	c.mu.Unlock()
	c.log.Info("redis store started", logger.Fields("addr", c.cfg.Addr, "db", c.cfg.DB, "pool_size", c.cfg.PoolSize))
	return nil
}

// Stop closes the connection. Safe to call more than once.
func (c *RedisComponent) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rdb == nil {
		return nil
	}
	c.log.Info("closing redis connection")
	err := c.rdb.Close()
	c.rdb, c.store = nil, nil
	return err
}

// Health pings the server.
func (c *RedisComponent) Health(ctx context.Context) component.Health {
	c.mu.RLock()
	rdb := c.rdb
	c.mu.RUnlock()
	if rdb == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "redis not initialized"}
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: fmt.Sprintf("ping failed: %v", err)}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

func (c *RedisComponent) current(method string) (*Redis, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.store == nil {
		return nil, perrors.NewSystemError(perrors.ReasonBadResource, moduleName, method, c.cfg.Addr, "redis store is not started")
	}
	return c.store, nil
}

func (c *RedisComponent) Get(ctx context.Context, key string) (string, bool, error) {
	s, err := c.current("get")
	if err != nil {
		return "", false, err
	}
	return s.Get(ctx, key)
}

func (c *RedisComponent) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	s, err := c.current("getUint8Array")
	if err != nil {
		return nil, false, err
	}
	return s.GetBytes(ctx, key)
}

func (c *RedisComponent) Set(ctx context.Context, key, value string) error {
	s, err := c.current("set")
	if err != nil {
		return err
	}
	return s.Set(ctx, key, value)
}

func (c *RedisComponent) SetBytes(ctx context.Context, key string, value []byte) error {
	s, err := c.current("set")
	if err != nil {
		return err
	}
	return s.SetBytes(ctx, key, value)
}

func (c *RedisComponent) Remove(ctx context.Context, key string) error {
	s, err := c.current("remove")
	if err != nil {
		return err
	}
	return s.Remove(ctx, key)
}

func (c *RedisComponent) Clear(ctx context.Context) error {
	s, err := c.current("clear")
	if err != nil {
		return err
	}
	return s.Clear(ctx)
}

func (c *RedisComponent) Size(ctx context.Context) (int, error) {
	s, err := c.current("size")
	if err != nil {
		return 0, err
	}
	return s.Size(ctx)
}

func (c *RedisComponent) keys(ctx context.Context) ([]string, error) {
	s, err := c.current("keys")
	if err != nil {
		return nil, err
	}
	return s.keys(ctx)
}
