package completion

import (
	"context"
	"fmt"
	"log"
)

// FallbackClient wraps a primary and a secondary provider
type FallbackClient struct {
	primary  Client
	fallback Client
}

func NewFallbackClient(primary, fallback Client) *FallbackClient {
	return &FallbackClient{primary: primary, fallback: fallback}
}

// Complete calls the primary provider and retries once on the fallback.
func (c *FallbackClient) Complete(ctx context.Context, messages []Message) (*Response, error) {
	resp, err := c.primary.Complete(ctx, messages)
	if err == nil {
		return resp, nil
	}

	if c.fallback == nil {
		return nil, fmt.Errorf("primary completion failed (no fallback): %w", err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	log.Printf("Primary completion failed, trying fallback: %v", err)
	resp, fbErr := c.fallback.Complete(ctx, messages)
	if fbErr != nil {
		return nil, fmt.Errorf("fallback completion failed: %w (primary: %v)", fbErr, err)
	}
	return resp, nil
}
