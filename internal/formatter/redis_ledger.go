package formatter

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLedger shares mention cooldowns across processes. Each handle gets
// a SET NX key that expires after the cooldown, and a sorted set keeps
// recent mentions for analytics.
type RedisLedger struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
}

func NewRedisLedger(client *redis.Client, prefix string, retention time.Duration) *RedisLedger {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &RedisLedger{client: client, prefix: prefix, retention: retention}
}

// Connect accepts either a redis:// URL or a bare host:port and pings the server.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt := &redis.Options{Addr: redisURL}
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opt = parsed
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (l *RedisLedger) cooldownKey(handle string) string {
	return l.prefix + "cooldown:" + handle
}

func (l *RedisLedger) recentKey() string {
	return l.prefix + "recent"
}

func (l *RedisLedger) Reserve(ctx context.Context, handles []string, max int, cooldown time.Duration, now time.Time) ([]string, error) {
	if max <= 0 || len(handles) == 0 {
		return nil, nil
	}

	reserved := make([]string, 0, max)
	for _, h := range handles {
		if len(reserved) == max {
			break
		}
		ok, err := l.client.SetNX(ctx, l.cooldownKey(h), now.Unix(), cooldown).Result()
		if err != nil {
			return reserved, fmt.Errorf("reserve mention %s: %w", h, err)
		}
		if ok {
			reserved = append(reserved, h)
		}
	}

	if len(reserved) == 0 {
		return reserved, nil
	}

	members := make([]redis.Z, 0, len(reserved))
	for _, h := range reserved {
		members = append(members, redis.Z{Score: float64(now.Unix()), Member: h})
	}
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAdd(ctx, l.recentKey(), members...)
		p.ZRemRangeByScore(ctx, l.recentKey(), "-inf", strconv.FormatInt(now.Add(-l.retention).Unix(), 10))
		return nil
	})
	if err != nil {
		return reserved, fmt.Errorf("record mentions: %w", err)
	}
	return reserved, nil
}

func (l *RedisLedger) Recent(ctx context.Context, since time.Time) ([]Mention, error) {
	zs, err := l.client.ZRevRangeByScoreWithScores(ctx, l.recentKey(), &redis.ZRangeBy{
		Min: "(" + strconv.FormatInt(since.Unix(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list recent mentions: %w", err)
	}

	out := make([]Mention, 0, len(zs))
	for _, z := range zs {
		handle, ok := z.Member.(string)
		if !ok {
			continue
		}
		out = append(out, Mention{Handle: handle, MentionedAt: time.Unix(int64(z.Score), 0).UTC()})
	}
	return out, nil
}
