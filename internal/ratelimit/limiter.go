package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brian-scardina/spyspotter/pkg/models"
	"github.com/brian-scardina/spyspotter/pkg/utils"
)

// Decision is the outcome of one admission check. Backend failures never
// appear here: shared-store limiters fail open.
type Decision struct {
	Allowed    bool          `json:"allowed"`
	Remaining  float64       `json:"remaining"`
	RetryAfter time.Duration `json:"retry_after"`
	Degraded   bool          `json:"degraded,omitempty"`
}

// Limiter checks a single token bucket identified by key. The bucket config
// travels with the call so one backend can serve buckets of different shapes.
type Limiter interface {
	TryConsume(ctx context.Context, key string, cfg models.BucketConfig, tokens float64) Decision
}

// Admitter layers the two admission tiers over a Limiter backend: a global
// bucket shared by the whole client and a per-domain bucket keyed by target
// hostname. A request passes only if both tiers admit it.
type Admitter struct {
	backend   Limiter
	clientID  string
	globalCfg models.BucketConfig
	domainCfg models.BucketConfig
	logger    *logrus.Logger

	mu      sync.Mutex
	checked int64
	denied  int64
}

func NewAdmitter(backend Limiter, cfg models.RateLimitConfig, logger *logrus.Logger) *Admitter {
	if logger == nil {
		logger = logrus.New()
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "spyspotter"
	}
	return &Admitter{
		backend:   backend,
		clientID:  clientID,
		globalCfg: cfg.Global,
		domainCfg: cfg.Domain,
		logger:    logger,
	}
}

func (a *Admitter) globalKey() string { return fmt.Sprintf("global:%s", a.clientID) }

func (a *Admitter) domainKey(domain string) string {
	return fmt.Sprintf("domain:%s:%s", domain, a.clientID)
}

// Admit checks the global tier, then the per-domain tier for the URL's
// hostname. The returned decision is the first denial, or the domain-tier
// decision when both admit.
func (a *Admitter) Admit(ctx context.Context, targetURL string) Decision {
	a.mu.Lock()
	a.checked++
	a.mu.Unlock()

	global := a.backend.TryConsume(ctx, a.globalKey(), a.globalCfg, 1)
	if !global.Allowed {
		a.recordDenial()
		a.logger.Debugf("global rate limit exceeded for %s (retry after %s)", a.clientID, global.RetryAfter)
		return global
	}

	domain := utils.HostnameOf(targetURL)
	if domain == "" {
		return global
	}
	decision := a.backend.TryConsume(ctx, a.domainKey(domain), a.domainCfg, 1)
	if !decision.Allowed {
		a.recordDenial()
		a.logger.Debugf("domain rate limit exceeded for %s (retry after %s)", domain, decision.RetryAfter)
	}
	return decision
}

// Wait blocks until Admit succeeds, sleeping the limiter's RetryAfter between
// attempts rather than busy polling. Returns ctx.Err() on cancellation.
func (a *Admitter) Wait(ctx context.Context, targetURL string) error {
	const maxBackoff = 30 * time.Second
	for {
		decision := a.Admit(ctx, targetURL)
		if decision.Allowed {
			return nil
		}
		backoff := decision.RetryAfter
		if backoff <= 0 {
			backoff = time.Second
		}
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func (a *Admitter) recordDenial() {
	a.mu.Lock()
	a.denied++
	a.mu.Unlock()
}

func (a *Admitter) GetStats() map[string]interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return map[string]interface{}{
		"client_id":       a.clientID,
		"checked":         a.checked,
		"denied":          a.denied,
		"global_capacity": a.globalCfg.Capacity,
		"domain_capacity": a.domainCfg.Capacity,
	}
}

// NoopAdmitter admits everything; used when rate limiting is disabled.
type NoopAdmitter struct{}

func (NoopAdmitter) Admit(context.Context, string) Decision {
	return Decision{Allowed: true}
}

func (NoopAdmitter) Wait(context.Context, string) error { return nil }

// Gate is what the fetch coordinator depends on.
type Gate interface {
	Admit(ctx context.Context, targetURL string) Decision
	Wait(ctx context.Context, targetURL string) error
}
