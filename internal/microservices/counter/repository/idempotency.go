package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"coffeeshop-counter/internal/common/cache"
)

const pendingMarker = "pending"

type IdempotencyStoreInterface interface {
	// Claim reserves key. It returns the committed order id when the key was
	// already used, or claimed=false when another placement still holds it.
	Claim(ctx context.Context, key string) (orderID uuid.UUID, claimed bool, err error)
	Complete(ctx context.Context, key string, orderID uuid.UUID) error
	Release(ctx context.Context, key string) error
}

type IdempotencyStore struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewIdempotencyStore(c cache.Cache, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{cache: c, ttl: ttl}
}

func (s *IdempotencyStore) key(k string) string {
	return s.cache.GenerateKey("idempotency", k)
}

func (s *IdempotencyStore) Claim(ctx context.Context, key string) (uuid.UUID, bool, error) {
	ok, err := s.cache.SetNX(ctx, s.key(key), pendingMarker, s.ttl)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("claim idempotency key: %w", err)
	}
	if ok {
		return uuid.Nil, true, nil
	}

	val, err := s.cache.Get(ctx, s.key(key))
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("read idempotency key: %w", err)
	}
	if val == "" || val == pendingMarker {
		return uuid.Nil, false, nil
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("idempotency key %q holds %q: %w", key, val, err)
	}
	return id, false, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, key string, orderID uuid.UUID) error {
	return s.cache.Set(ctx, s.key(key), orderID.String(), s.ttl)
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.cache.Del(ctx, s.key(key))
}
