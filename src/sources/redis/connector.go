package redis

import (
	"fmt"
	"time"

	"github.com/BelphegorPrime/binance-trade-bot/src/config"
	"github.com/BelphegorPrime/binance-trade-bot/src/service/interfaces"
	"github.com/go-redsync/redsync/v4"
	redsyncredigo "github.com/go-redsync/redsync/v4/redis/redigo"
	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"
)

var _ interfaces.ILock = (*redsync.Mutex)(nil)

// Connector owns the redis pool behind the distributed lock manager.
type Connector struct {
	Pool       *redis.Pool
	Redsync    *redsync.Redsync
	LockExpiry time.Duration
	log        interfaces.ILogger
}

func NewConnector(cfg config.Redis, log interfaces.ILogger) (*Connector, error) {
	log.Info("connecting to redis DLM pool", zap.String("addr", cfg.Addr()))
	pool := &redis.Pool{
		MaxActive:   16,
		MaxIdle:     4,
		IdleTimeout: 20 * time.Second,
		Dial: func() (redis.Conn, error) {
			c, err := redis.Dial("tcp", cfg.Addr())
			if err != nil {
				log.Error("redis DLM dial 1/3 error", zap.Error(err))
				return nil, err
			}
			if cfg.Password != "" {
				if _, err := c.Do("AUTH", cfg.Password); err != nil {
					log.Error("redis DLM dial 2/3 error", zap.Error(err))
					c.Close()
					return nil, err
				}
			}
			if _, err := c.Do("SELECT", 0); err != nil {
				log.Error("redis DLM dial 3/3 error", zap.Error(err))
				c.Close()
				return nil, err
			}
			return c, nil
		},
	}

	// Test the connection
	conn := pool.Get()
	defer conn.Close()
	if _, err := conn.Do("PING"); err != nil {
		pool.Close()
		return nil, fmt.Errorf("can't connect to the redis database: %w", err)
	}

	return &Connector{
		Pool:       pool,
		Redsync:    redsync.New(redsyncredigo.NewPool(pool)),
		LockExpiry: cfg.LockExpiry,
		log:        log,
	}, nil
}

// NewMutex returns a settlement mutex that fails fast when another holder has it.
func (c *Connector) NewMutex(name string) *redsync.Mutex {
	return c.Redsync.NewMutex(name,
		redsync.WithTries(1),
		redsync.WithExpiry(c.LockExpiry),
	)
}

// ExtendEvery is how often a held mutex must be extended to outlive its expiry.
func (c *Connector) ExtendEvery() time.Duration {
	return c.LockExpiry / 3
}

func (c *Connector) Close() error {
	return c.Pool.Close()
}
