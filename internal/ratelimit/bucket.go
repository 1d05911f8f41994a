package ratelimit

import (
	"math"
	"time"

	"github.com/brian-scardina/spyspotter/pkg/models"
)

// Bucket is the token-bucket state for one key. Callers must hold whatever
// lock guards the bucket; the type itself is not synchronized.
type Bucket struct {
	Tokens     float64   `json:"tokens"`
	LastRefill time.Time `json:"last_refill"`
	Capacity   float64   `json:"capacity"`
	RefillRate float64   `json:"refill_rate"` // tokens per second
}

func NewBucket(cfg models.BucketConfig) *Bucket {
	return &Bucket{
		Tokens:     cfg.Capacity,
		LastRefill: time.Now(),
		Capacity:   cfg.Capacity,
		RefillRate: cfg.RefillRate,
	}
}

func (b *Bucket) refill(now time.Time) {
	elapsed := now.Sub(b.LastRefill).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	b.LastRefill = now
	b.Tokens = math.Min(b.Capacity, b.Tokens+elapsed*b.RefillRate)
}

// Consume refills the bucket to now, then attempts to subtract the requested
// tokens. On denial it reports how long the caller must wait for the deficit
// to refill.
func (b *Bucket) Consume(now time.Time, tokens float64) (allowed bool, retryAfter time.Duration) {
	b.refill(now)
	if b.Tokens >= tokens {
		b.Tokens -= tokens
		return true, 0
	}
	deficit := tokens - b.Tokens
	if b.RefillRate <= 0 {
		return false, time.Duration(math.MaxInt64)
	}
	return false, time.Duration(deficit / b.RefillRate * float64(time.Second))
}
