package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"ContentGenerator/internal/domain"
	"ContentGenerator/internal/ports"
)

// RateLimited spaces completion calls with a token bucket.
type RateLimited struct {
	next    ports.Completer
	limiter *rate.Limiter
}

var _ ports.Completer = (*RateLimited)(nil)

// NewRateLimited wraps next so that at most perMinute calls start per
// minute. A non-positive perMinute returns next unchanged.
func NewRateLimited(next ports.Completer, perMinute int) ports.Completer {
	if perMinute <= 0 {
		return next
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

// Complete waits for a token; a context that expires while waiting is a
// transport failure like any other timeout.
func (r *RateLimited) Complete(ctx context.Context, prompt, model string) (domain.Completion, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return domain.Completion{}, transportErr("rate-limit", 0, err)
	}
	return r.next.Complete(ctx, prompt, model)
}
