package similarity

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/interview-prep/backend/internal/config"
)

// Pacer spaces out completion calls within a batch.
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedDelay sleeps a constant interval between calls.
type FixedDelay struct {
	Delay time.Duration
}

func (p FixedDelay) Wait(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// TokenBucket admits calls at a steady rate with a small burst allowance.
type TokenBucket struct {
	limiter *rate.Limiter
}

func NewTokenBucket(perSecond float64, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (p *TokenBucket) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

func NewPacer(cfg config.SimilarityConfig) Pacer {
	if cfg.Pacing == "token_bucket" && cfg.RequestsPerS > 0 {
		return NewTokenBucket(cfg.RequestsPerS, cfg.Burst)
	}
	return FixedDelay{Delay: cfg.BatchDelay()}
}
