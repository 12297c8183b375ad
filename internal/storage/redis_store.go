package storage

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// redisLister is the subset of redis commands the journal needs.
type redisLister interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
}

// RedisJournal keeps the newest entries first in a capped list.
type RedisJournal struct {
	client redisLister
	closer func() error
	key    string
	max    int64
}

func NewRedisJournal(addr, password, key string, max int64) *RedisJournal {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisJournal{client: c, closer: c.Close, key: key, max: max}
}

func (r *RedisJournal) Append(ctx context.Context, e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := r.client.LPush(ctx, r.key, b).Err(); err != nil {
		return err
	}
	if r.max > 0 {
		return r.client.LTrim(ctx, r.key, 0, r.max-1).Err()
	}
	return nil
}

func (r *RedisJournal) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}
