package repository

import (
	"time"

	"github.com/jmoiron/sqlx"

	"coffeeshop-counter/internal/common/cache"
)

type Repository struct {
	OrderRepo OrderRepositoryInterface
	// IdempotencyRepo is nil when no Redis is configured.
	IdempotencyRepo IdempotencyStoreInterface
}

func New(db *sqlx.DB, c cache.Cache, ttl time.Duration) *Repository {
	r := &Repository{OrderRepo: NewOrderRepository(db)}
	if c != nil {
		r.IdempotencyRepo = NewIdempotencyStore(c, ttl)
	}
	return r
}
