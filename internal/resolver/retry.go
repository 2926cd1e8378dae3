package resolver

import (
	"context"
	"fmt"
	"image"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ironsheep/image-mosaic-mcp/internal/mosaic"
)

// Retry retries a failing resolver. The mosaic pipeline never retries on
// its own.
type Retry struct {
	Next     mosaic.SubstituteResolver
	Attempts int
	Backoff  time.Duration
}

// WithRetry wraps next so each key is attempted up to attempts times,
// sleeping backoff, 2*backoff, ... between attempts.
func WithRetry(next mosaic.SubstituteResolver, attempts int, backoff time.Duration) *Retry {
	if attempts < 1 {
		attempts = 1
	}
	return &Retry{Next: next, Attempts: attempts, Backoff: backoff}
}

// Request implements mosaic.SubstituteResolver.
func (r *Retry) Request(ctx context.Context, key mosaic.ColorKey) (image.Image, error) {
	var lastErr error
	for attempt := 1; attempt <= r.Attempts; attempt++ {
		img, err := r.Next.Request(ctx, key)
		if err == nil {
			return img, nil
		}
		lastErr = err

		if attempt == r.Attempts {
			break
		}
		log.WithFields(log.Fields{"key": key, "attempt": attempt}).WithError(err).Debug("retrying substitute")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.Backoff * time.Duration(attempt)):
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", r.Attempts, lastErr)
}
