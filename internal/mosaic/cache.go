package mosaic

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// TileCache maps a ColorKey to the single substitute request issued for it.
//
// Resolve performs an atomic check-or-create under a mutex, so the resolver
// is invoked at most once per key no matter how many tiles share that key
// or how many goroutines ask concurrently. The request itself runs outside
// the lock, so distinct keys never wait on each other.
//
// Entries are never evicted and failures are never retried. A cache is meant
// to live for one pipeline run.
type TileCache struct {
	resolver SubstituteResolver
	logger   *log.Entry

	mu      sync.Mutex
	entries map[ColorKey]*Future

	requests atomic.Int64
}

// NewTileCache returns an empty cache backed by resolver.
func NewTileCache(resolver SubstituteResolver, logger *log.Entry) *TileCache {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &TileCache{
		resolver: resolver,
		logger:   logger,
		entries:  make(map[ColorKey]*Future),
	}
}

// Resolve returns the future for key, issuing the resolver request if this
// is the first time key has been seen.
//
// A failed request is stored as a *ResolutionError and returned unchanged to
// every later caller.
func (c *TileCache) Resolve(ctx context.Context, key ColorKey) *Future {
	c.mu.Lock()
	if f, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return f
	}
	f := newFuture()
	c.entries[key] = f
	c.mu.Unlock()

	c.requests.Add(1)
	c.logger.WithField("key", key).Debug("requesting substitute")

	go func() {
		img, err := c.resolver.Request(ctx, key)
		if err == nil && img == nil {
			err = errors.New("resolver returned no image")
		}
		if err != nil {
			c.logger.WithField("key", key).WithError(err).Warn("substitute request failed")
			f.complete(nil, &ResolutionError{Key: key, Err: err})
			return
		}
		f.complete(img, nil)
	}()

	return f
}

// Len is the number of distinct keys seen so far.
func (c *TileCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Requests is the number of resolver invocations issued.
func (c *TileCache) Requests() int {
	return int(c.requests.Load())
}
