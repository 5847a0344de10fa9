package ai

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimited throttles calls to an underlying Runtime.
type RateLimited struct {
	rt      Runtime
	limiter *rate.Limiter
}

// NewRateLimited wraps rt so that at most requestsPerMinute calls start per minute.
// A non-positive limit returns rt unchanged.
func NewRateLimited(rt Runtime, requestsPerMinute int) Runtime {
	if requestsPerMinute <= 0 {
		return rt
	}
	return &RateLimited{
		rt:      rt,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
	}
}

func (r *RateLimited) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.rt.Generate(ctx, req)
}
