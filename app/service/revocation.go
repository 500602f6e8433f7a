package service

import (
	"context"
	"time"
)

const revokedTokenKeyPrefix = "revoked_token:"

type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// KeyValueStore is the subset of cache.Client the revocation store needs.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisRevocationStore keeps a marker per revoked jti until the token would
// have expired anyway.
type RedisRevocationStore struct {
	store KeyValueStore
}

var _ RevocationStore = (*RedisRevocationStore)(nil)

func NewRedisRevocationStore(store KeyValueStore) *RedisRevocationStore {
	return &RedisRevocationStore{store: store}
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	return s.store.Set(ctx, revokedTokenKeyPrefix+jti, []byte("1"), ttl)
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	data, err := s.store.Get(ctx, revokedTokenKeyPrefix+jti)
	if err != nil {
		return false, err
	}
	return data != nil, nil
}

type noopRevocationStore struct{}

func (noopRevocationStore) Revoke(context.Context, string, time.Duration) error { return nil }

func (noopRevocationStore) IsRevoked(context.Context, string) (bool, error) { return false, nil }
