package llm

import (
	"context"
	"time"

	"github.com/ppiankov/triagem/internal/cache"
)

// CachedOracle memoizes successful answers for identical requests
type CachedOracle struct {
	next  Oracle
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedOracle wraps next; a nil cache returns next unchanged
func NewCachedOracle(next Oracle, c cache.Cache, ttl time.Duration) Oracle {
	if c == nil {
		return next
	}
	return &CachedOracle{next: next, cache: c, ttl: ttl}
}

// Name returns the wrapped provider name
func (o *CachedOracle) Name() string {
	return o.next.Name()
}

// ModelName returns the wrapped oracle's model
func (o *CachedOracle) ModelName() string {
	return ModelOf(o.next)
}

// Match returns a cached answer or calls the wrapped oracle
func (o *CachedOracle) Match(ctx context.Context, req MatchRequest) (*MatchAnswer, error) {
	key := requestKey(o.next.Name(), ModelOf(o.next), req)

	var cached MatchAnswer
	if cache.GetJSON(o.cache, key, &cached) {
		return &cached, nil
	}

	answer, err := o.next.Match(ctx, req)
	if err != nil {
		return nil, err
	}

	// A failed write only costs a future cache miss
	_ = cache.SetJSON(o.cache, key, answer, o.ttl)
	return answer, nil
}

func requestKey(provider, modelName string, req MatchRequest) string {
	parts := make([]string, 0, 3+2*len(req.Candidates))
	parts = append(parts, provider, modelName, req.RuleLabel)
	for _, name := range req.Candidates {
		parts = append(parts, name, req.Excerpts[name])
	}
	return cache.Key("oracle", parts...)
}

// Waiter blocks until a request for key may proceed
type Waiter interface {
	Wait(ctx context.Context, key string) error
}

// RateLimitedOracle paces calls to the wrapped oracle
type RateLimitedOracle struct {
	next    Oracle
	limiter Waiter
}

// NewRateLimitedOracle wraps next; a nil limiter returns next unchanged
func NewRateLimitedOracle(next Oracle, limiter Waiter) Oracle {
	if limiter == nil {
		return next
	}
	return &RateLimitedOracle{next: next, limiter: limiter}
}

// Name returns the wrapped provider name
func (o *RateLimitedOracle) Name() string {
	return o.next.Name()
}

// ModelName returns the wrapped oracle's model
func (o *RateLimitedOracle) ModelName() string {
	return ModelOf(o.next)
}

// Match waits for the provider's rate limit, then calls the wrapped oracle
func (o *RateLimitedOracle) Match(ctx context.Context, req MatchRequest) (*MatchAnswer, error) {
	if err := o.limiter.Wait(ctx, o.next.Name()); err != nil {
		return nil, wrapCallError(o.next.Name(), err)
	}
	return o.next.Match(ctx, req)
}
