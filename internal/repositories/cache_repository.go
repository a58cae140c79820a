package repositories

import (
	"context"
	"time"
)

// CacheRepositoryInterface — абстракция над кешем.
// Используется для кеширования вычисленной доступности оборудования.
type CacheRepositoryInterface interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
