package data

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"

	"github.com/yola1107/fadu/internal/conf"
	"github.com/yola1107/fadu/library/mq/rabbitmq"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(NewData, NewResultRepo, NewRedis, NewPublisher)

// Data .
type Data struct {
	redis  *redis.Client
	pub    *rabbitmq.Publisher
	prefix string
	ttl    time.Duration
}

// NewData .
func NewData(c *conf.Data, logger log.Logger, rdb *redis.Client, pub *rabbitmq.Publisher) (*Data, func(), error) {
	d := &Data{redis: rdb, pub: pub, prefix: conf.Name}
	if c.Redis != nil {
		if c.Redis.KeyPrefix != "" {
			d.prefix = c.Redis.KeyPrefix
		}
		d.ttl = c.Redis.ResultTTL.Std()
	}
	if rdb == nil {
		log.NewHelper(logger).Warn("redis not configured, game results are not archived")
	}

	cleanup := func() {
		log.NewHelper(logger).Info("closing the data resources")
		if rdb != nil {
			_ = rdb.Close()
		}
		if pub != nil {
			pub.Close()
		}
	}
	return d, cleanup, nil
}

// NewRedis returns nil when no address is configured.
func NewRedis(c *conf.Data) *redis.Client {
	if c.Redis == nil || c.Redis.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        c.Redis.Addr,
		Password:    c.Redis.Password,
		DB:          c.Redis.DB,
		DialTimeout: c.Redis.DialTimeout.Std(),
	})
	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warnf("redis ping failed. addr=%s err=%v", c.Redis.Addr, err)
	}
	return rdb
}

// NewPublisher returns nil when no broker is configured or it cannot be reached.
func NewPublisher(c *conf.Data) *rabbitmq.Publisher {
	mq := c.Rabbitmq
	if mq == nil || mq.Host == "" {
		return nil
	}
	opts := rabbitmq.DefaultOptions()
	opts.Host = mq.Host
	if mq.Port != "" {
		opts.Port = mq.Port
	}
	if mq.Username != "" {
		opts.Username, opts.Password = mq.Username, mq.Password
	}
	if mq.VHost != "" {
		opts.VHost = mq.VHost
	}
	pubOpts := rabbitmq.DefaultPublisherOptions()
	pubOpts.Exchange, pubOpts.RoutingKey = mq.Exchange, mq.RoutingKey
	if mq.ExchangeType != "" {
		pubOpts.ExchangeType = mq.ExchangeType
	}

	pub, err := rabbitmq.NewPublisher(opts, pubOpts)
	if err != nil {
		log.Warnf("rabbitmq unavailable, result events disabled. host=%s err=%v", mq.Host, err)
		return nil
	}
	return pub
}

// ResultKey is per game, a room reopened under the same id archives under a new key.
func ResultKey(prefix, roomID string, finishedAt time.Time) string {
	return fmt.Sprintf("%s:result:%s:%d", prefix, roomID, finishedAt.UnixMilli())
}

func LeaderboardKey(prefix string) string {
	return fmt.Sprintf("%s:leaderboard", prefix)
}
