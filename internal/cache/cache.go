package cache

import (
	"context"
	"errors"

	"github.com/campuskart/campuskart/internal/domain"
)

// ProductCache holds product documents between reads. Every product status change deletes
// the entry.
type ProductCache interface {
	Get(ctx context.Context, productID string) (*domain.Product, error)
	Set(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, productID string) error
}

var ErrCacheMiss = errors.New("cache miss")

// NoopCache always misses. It is used when no Redis address is configured.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (*domain.Product, error) { return nil, ErrCacheMiss }

func (NoopCache) Set(context.Context, *domain.Product) error { return nil }

func (NoopCache) Delete(context.Context, string) error { return nil }
