package http

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter manages per-host request rate limiting using a token
// bucket per host.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	config   RateLimiterConfig
}

// RateLimiterConfig defines rate limiting behavior.
type RateLimiterConfig struct {
	// DefaultRPS is the requests-per-second budget applied to any host
	// without an explicit override. 0 disables limiting.
	DefaultRPS float64
	// Burst is the token bucket burst size (default 1).
	Burst int
	// PerHost maps host suffixes to RPS overrides.
	PerHost map[string]float64
}

// DefaultRateLimiterConfig returns conservative limits for YouTube
// page fetches.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		DefaultRPS: 2.5,
		Burst:      2,
		PerHost: map[string]float64{
			"googleapis.com": 10,
		},
	}
}

// NewRateLimiter creates a rate limiter with the given configuration.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		config:   cfg,
	}
}

// Wait blocks until the host's token bucket permits a request, or the
// context is done.
func (r *RateLimiter) Wait(ctx context.Context, urlStr string) error {
	limiter := r.limiterFor(extractHost(urlStr))
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

func (r *RateLimiter) limiterFor(host string) *rate.Limiter {
	rps := r.config.DefaultRPS
	for suffix, override := range r.config.PerHost {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			rps = override
			break
		}
	}
	if rps <= 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	limiter, ok := r.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(rps), r.config.Burst)
		r.limiters[host] = limiter
	}
	return limiter
}

func extractHost(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return urlStr
	}
	return strings.ToLower(parsed.Hostname())
}
