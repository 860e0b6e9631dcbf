package ai

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// limitedProvider holds each request until the limiter grants a token
type limitedProvider struct {
	Provider
	limiter *rate.Limiter
}

// WithRateLimit caps p at perMinute requests per minute. Callers block
// until a slot frees up or their context ends. perMinute <= 0 returns p.
func WithRateLimit(p Provider, perMinute, burst int) Provider {
	if perMinute <= 0 {
		return p
	}
	if burst <= 0 {
		burst = 1
	}
	return &limitedProvider{
		Provider: p,
		limiter:  rate.NewLimiter(rate.Limit(float64(perMinute)/60), burst),
	}
}

func (p *limitedProvider) Complete(ctx context.Context, system, user string) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%s rate limit: %w", p.Name(), err)
	}
	return p.Provider.Complete(ctx, system, user)
}
