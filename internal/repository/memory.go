package repository

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryLimitStore is the per-process token bucket used when Redis is
// unavailable. A key may spend limit tokens at once and earns them back
// over window.
type MemoryLimitStore struct {
	limiters sync.Map // map[string]*rate.Limiter
}

func NewMemoryLimitStore() *MemoryLimitStore {
	return &MemoryLimitStore{}
}

func (r *MemoryLimitStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	return r.getLimiter(key, limit, window).Allow(), nil
}

func (r *MemoryLimitStore) getLimiter(key string, limit int, window time.Duration) *rate.Limiter {
	if v, ok := r.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	every := rate.Inf
	if window > 0 {
		every = rate.Every(window / time.Duration(limit))
	}
	lim := rate.NewLimiter(every, limit)
	actual, _ := r.limiters.LoadOrStore(key, lim)
	return actual.(*rate.Limiter)
}
