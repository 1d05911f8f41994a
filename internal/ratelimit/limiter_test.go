package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brian-scardina/spyspotter/pkg/models"
)

func newTestClock(start time.Time) (*time.Time, func() time.Time) {
	now := start
	return &now, func() time.Time { return now }
}

func TestLocalLimiterExhaustsCapacity(t *testing.T) {
	limiter := NewLocalLimiter()
	now, clock := newTestClock(time.Now())
	limiter.now = clock

	cfg := models.BucketConfig{Capacity: 3, RefillRate: 1, Window: time.Minute}

	for i := 0; i < 3; i++ {
		decision := limiter.TryConsume(context.Background(), "k", cfg, 1)
		assert.True(t, decision.Allowed, "request %d should be admitted", i+1)
	}

	decision := limiter.TryConsume(context.Background(), "k", cfg, 1)
	assert.False(t, decision.Allowed)
	assert.Greater(t, decision.RetryAfter, time.Duration(0))

	// Refill restores admission.
	*now = now.Add(2 * time.Second)
	decision = limiter.TryConsume(context.Background(), "k", cfg, 1)
	assert.True(t, decision.Allowed)
}

func TestLocalLimiterRetryAfterReflectsDeficit(t *testing.T) {
	limiter := NewLocalLimiter()
	_, clock := newTestClock(time.Now())
	limiter.now = clock

	// One token per minute.
	cfg := models.BucketConfig{Capacity: 2, RefillRate: 1.0 / 60.0, Window: time.Hour}

	assert.True(t, limiter.TryConsume(context.Background(), "k", cfg, 1).Allowed)
	assert.True(t, limiter.TryConsume(context.Background(), "k", cfg, 1).Allowed)

	decision := limiter.TryConsume(context.Background(), "k", cfg, 1)
	require.False(t, decision.Allowed)
	assert.InDelta(t, 60.0, decision.RetryAfter.Seconds(), 1.0)
}

func TestLocalLimiterNeverExceedsCapacity(t *testing.T) {
	limiter := NewLocalLimiter()
	now, clock := newTestClock(time.Now())
	limiter.now = clock

	cfg := models.BucketConfig{Capacity: 5, RefillRate: 100, Window: time.Minute}

	assert.True(t, limiter.TryConsume(context.Background(), "k", cfg, 1).Allowed)

	// A long idle period must cap the refill at capacity.
	*now = now.Add(time.Hour)
	decision := limiter.TryConsume(context.Background(), "k", cfg, 1)
	assert.True(t, decision.Allowed)
	assert.LessOrEqual(t, decision.Remaining, cfg.Capacity)
}

func TestLocalLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewLocalLimiter()
	cfg := models.BucketConfig{Capacity: 1, RefillRate: 0.001, Window: time.Hour}

	assert.True(t, limiter.TryConsume(context.Background(), "a", cfg, 1).Allowed)
	assert.False(t, limiter.TryConsume(context.Background(), "a", cfg, 1).Allowed)
	assert.True(t, limiter.TryConsume(context.Background(), "b", cfg, 1).Allowed)
	assert.Equal(t, 2, limiter.BucketCount())
}

func testRateLimitConfig(globalCap, domainCap float64) models.RateLimitConfig {
	return models.RateLimitConfig{
		Enabled:  true,
		ClientID: "test",
		Global:   models.BucketConfig{Capacity: globalCap, RefillRate: 0.001, Window: time.Hour},
		Domain:   models.BucketConfig{Capacity: domainCap, RefillRate: 0.001, Window: time.Hour},
	}
}

func TestAdmitterDomainTierIsScopedPerHost(t *testing.T) {
	admitter := NewAdmitter(NewLocalLimiter(), testRateLimitConfig(100, 2), nil)

	ctx := context.Background()
	assert.True(t, admitter.Admit(ctx, "https://example.com/a").Allowed)
	assert.True(t, admitter.Admit(ctx, "https://example.com/b").Allowed)

	// Third hit on the same host is denied by the domain tier.
	assert.False(t, admitter.Admit(ctx, "https://example.com/c").Allowed)

	// A different host has its own domain bucket.
	assert.True(t, admitter.Admit(ctx, "https://other.org/").Allowed)
}

func TestAdmitterGlobalTierDeniesFirst(t *testing.T) {
	admitter := NewAdmitter(NewLocalLimiter(), testRateLimitConfig(1, 100), nil)

	ctx := context.Background()
	assert.True(t, admitter.Admit(ctx, "https://one.example/").Allowed)
	assert.False(t, admitter.Admit(ctx, "https://two.example/").Allowed)

	stats := admitter.GetStats()
	assert.Equal(t, int64(2), stats["checked"])
	assert.Equal(t, int64(1), stats["denied"])
}

func TestAdmitterWaitHonorsContext(t *testing.T) {
	admitter := NewAdmitter(NewLocalLimiter(), testRateLimitConfig(1, 1), nil)

	ctx := context.Background()
	require.NoError(t, admitter.Wait(ctx, "https://example.com/"))

	cancelled, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	err := admitter.Wait(cancelled, "https://example.com/")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNoopAdmitterAlwaysAllows(t *testing.T) {
	var gate Gate = NoopAdmitter{}
	assert.True(t, gate.Admit(context.Background(), "https://example.com/").Allowed)
	assert.NoError(t, gate.Wait(context.Background(), "https://example.com/"))
}

func TestBucketConsumeWithZeroRefillRate(t *testing.T) {
	bucket := NewBucket(models.BucketConfig{Capacity: 1, RefillRate: 0})
	now := time.Now()

	allowed, _ := bucket.Consume(now, 1)
	assert.True(t, allowed)

	allowed, retryAfter := bucket.Consume(now, 1)
	assert.False(t, allowed)
	// With no refill the deficit can never clear.
	assert.Greater(t, retryAfter, time.Hour)
}
