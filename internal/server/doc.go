// Package server implements the MCP (Model Context Protocol) server that
// exposes the photo mosaic pipeline as tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - image_load: Load an image and report its dimensions and format
//   - mosaic_partition: Describe the tile grid for a canvas or image
//   - mosaic_average_color: Color key of a region
//   - mosaic_create: Build a mosaic from an image using a swatch or HTTP
//     substitute source, optionally saving it and returning it inline
//
// # Configuration
//
// IMAGE_MOSAIC_RESOLVER_URL sets the default base URL for the http resolver
// and IMAGE_MOSAIC_HTTP_TIMEOUT (a Go duration such as "5s") bounds each
// substitute request.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with code
// -32000; malformed tools/call params use -32602. A mosaic whose rows partly
// failed is not an error: mosaic_create lists the failed rows in its result.
package server
