package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis under session:<sid>, expiring with the key TTL.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func sessionKey(sid string) string {
	return fmt.Sprintf("session:%s", sid)
}

func (s *RedisStore) Save(ctx context.Context, sid, memberID string, ttl time.Duration) error {
	return s.rdb.Set(ctx, sessionKey(sid), memberID, ttl).Err()
}

func (s *RedisStore) Lookup(ctx context.Context, sid string) (string, error) {
	memberID, err := s.rdb.Get(ctx, sessionKey(sid)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", err
	}
	return memberID, nil
}

func (s *RedisStore) Delete(ctx context.Context, sid string) error {
	return s.rdb.Del(ctx, sessionKey(sid)).Err()
}
