package mosaic

import (
	"context"
	"image"
)

// SubstituteResolver supplies the image drawn in place of every tile whose
// average color is key.
//
// Implementations own their timeout and retry policy; the pipeline treats a
// returned error as opaque. Request may be called concurrently for
// different keys.
type SubstituteResolver interface {
	Request(ctx context.Context, key ColorKey) (image.Image, error)
}

// ResolverFunc adapts an ordinary function to SubstituteResolver.
type ResolverFunc func(ctx context.Context, key ColorKey) (image.Image, error)

// Request calls f(ctx, key).
func (f ResolverFunc) Request(ctx context.Context, key ColorKey) (image.Image, error) {
	return f(ctx, key)
}
