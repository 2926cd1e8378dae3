// Package resolver provides substitute image sources for the mosaic
// pipeline.
//
//   - Swatch renders a solid tile of the requested color locally.
//   - HTTP fetches GET <base>/color/<key> from an image service.
//   - Retry wraps another resolver with a bounded retry policy.
//
// All of them implement mosaic.SubstituteResolver and are safe for
// concurrent use.
package resolver
