package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/brian-scardina/spyspotter/pkg/models"
)

// LocalLimiter keeps buckets in process memory. It is the fallback when no
// shared store is configured and carries the exact semantics of the Redis
// implementation.
type LocalLimiter struct {
	mu      sync.Mutex
	buckets map[string]*Bucket
	now     func() time.Time
}

func NewLocalLimiter() *LocalLimiter {
	return &LocalLimiter{
		buckets: make(map[string]*Bucket),
		now:     time.Now,
	}
}

func (l *LocalLimiter) TryConsume(_ context.Context, key string, cfg models.BucketConfig, tokens float64) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.buckets[key]
	if !ok {
		bucket = NewBucket(cfg)
		l.buckets[key] = bucket
	}

	allowed, retryAfter := bucket.Consume(l.now(), tokens)
	return Decision{
		Allowed:    allowed,
		Remaining:  bucket.Tokens,
		RetryAfter: retryAfter,
	}
}

// Reset drops all bucket state.
func (l *LocalLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buckets = make(map[string]*Bucket)
}

func (l *LocalLimiter) BucketCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
