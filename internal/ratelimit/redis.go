package ratelimit

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/brian-scardina/spyspotter/pkg/models"
)

// consumeScript performs the refill-then-subtract as one atomic server-side
// operation, so two concurrent callers can never both observe the same spare
// capacity. Returns {allowed, tokens, retry_after_seconds}.
const consumeScript = `
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local refill_rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill')
local tokens = tonumber(state[1])
local last = tonumber(state[2])
if tokens == nil or last == nil then
  tokens = capacity
  last = now
end

local elapsed = now - last
if elapsed < 0 then elapsed = 0 end
tokens = math.min(capacity, tokens + elapsed * refill_rate)

local allowed = 0
local retry_after = 0
if tokens >= requested then
  tokens = tokens - requested
  allowed = 1
else
  retry_after = (requested - tokens) / refill_rate
end

redis.call('HSET', key, 'tokens', tostring(tokens), 'last_refill', tostring(now))
redis.call('EXPIRE', key, ttl)
return {allowed, tostring(tokens), tostring(retry_after)}
`

// RedisLimiter coordinates buckets across processes through a shared Redis
// instance. On any backend error it fails open: scanning availability wins
// over strict limiting, and the degradation is logged once per episode.
type RedisLimiter struct {
	client *redis.Client
	script *redis.Script
	logger *logrus.Logger
	prefix string

	mu       sync.Mutex
	degraded bool
}

func NewRedisLimiter(redisURL string, logger *logrus.Logger) (*RedisLimiter, error) {
	if logger == nil {
		logger = logrus.New()
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisLimiter{
		client: redis.NewClient(opts),
		script: redis.NewScript(consumeScript),
		logger: logger,
		prefix: "spyspotter:rate_limit:",
	}, nil
}

func (r *RedisLimiter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisLimiter) Close() error { return r.client.Close() }

func (r *RedisLimiter) TryConsume(ctx context.Context, key string, cfg models.BucketConfig, tokens float64) Decision {
	now := float64(time.Now().UnixNano()) / float64(time.Second)
	ttl := int64((cfg.Window * 2) / time.Second)
	if ttl <= 0 {
		ttl = 3600
	}

	res, err := r.script.Run(ctx, r.client, []string{r.prefix + key},
		cfg.Capacity, cfg.RefillRate, now, tokens, ttl).Slice()
	if err != nil {
		r.noteDegraded(err)
		return Decision{Allowed: true, Remaining: cfg.Capacity, Degraded: true}
	}
	r.noteRecovered()

	decision, err := parseScriptResult(res)
	if err != nil {
		r.logger.Warnf("rate limiter returned malformed state for %s: %v", key, err)
		return Decision{Allowed: true, Remaining: cfg.Capacity, Degraded: true}
	}
	return decision
}

func parseScriptResult(res []interface{}) (Decision, error) {
	if len(res) != 3 {
		return Decision{}, errMalformed(res)
	}
	allowed, ok := res[0].(int64)
	if !ok {
		return Decision{}, errMalformed(res)
	}
	remaining, err := toFloat(res[1])
	if err != nil {
		return Decision{}, err
	}
	retryAfter, err := toFloat(res[2])
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:    allowed == 1,
		Remaining:  remaining,
		RetryAfter: time.Duration(retryAfter * float64(time.Second)),
	}, nil
}

func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case string:
		return strconv.ParseFloat(t, 64)
	case int64:
		return float64(t), nil
	case float64:
		return t, nil
	}
	return 0, errMalformed(v)
}

type malformedError struct{ v interface{} }

func (e malformedError) Error() string { return "unexpected script reply shape" }

func errMalformed(v interface{}) error { return malformedError{v: v} }

func (r *RedisLimiter) noteDegraded(err error) {
	r.mu.Lock()
	first := !r.degraded
	r.degraded = true
	r.mu.Unlock()
	if first {
		r.logger.Warnf("rate limiter backend unreachable, failing open (degraded mode): %v", err)
	}
}

func (r *RedisLimiter) noteRecovered() {
	r.mu.Lock()
	recovered := r.degraded
	r.degraded = false
	r.mu.Unlock()
	if recovered {
		r.logger.Info("rate limiter backend recovered, leaving degraded mode")
	}
}

func (r *RedisLimiter) Degraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.degraded
}
