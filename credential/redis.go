package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Store = (*RedisStore)(nil)

// RedisStore shares one credential between processes under <prefix>:<profile>.
// The key expires with the refresh token lifetime.
type RedisStore struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

func NewRedisStore(client redis.Cmdable, prefix, profile string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		key:    prefix + ":" + profile,
		ttl:    ttl,
	}
}

func (r *RedisStore) Key() string {
	return r.key
}

func (r *RedisStore) Load(ctx context.Context) (Token, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Token{}, ErrNotFound
	}
	if err != nil {
		return Token{}, fmt.Errorf("[RedisStore.Load] get %s: %w", r.key, err)
	}

	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return Token{}, fmt.Errorf("[RedisStore.Load] decode: %w", err)
	}
	if token.Empty() {
		return Token{}, ErrNotFound
	}
	return token, nil
}

func (r *RedisStore) Save(ctx context.Context, token Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("[RedisStore.Save] encode: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("[RedisStore.Save] set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("[RedisStore.Clear] del %s: %w", r.key, err)
	}
	return nil
}
