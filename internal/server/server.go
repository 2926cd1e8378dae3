package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ironsheep/image-mosaic-mcp/internal/imageio"
	"github.com/ironsheep/image-mosaic-mcp/internal/resolver"
)

// Config holds settings that apply to every tool call.
type Config struct {
	// ResolverURL is the default base URL for the "http" resolver.
	ResolverURL string

	// HTTPTimeout bounds each substitute request made by the "http" resolver.
	HTTPTimeout time.Duration
}

// ConfigFromEnv reads IMAGE_MOSAIC_RESOLVER_URL and IMAGE_MOSAIC_HTTP_TIMEOUT.
// An unparsable timeout is logged and replaced by the default.
func ConfigFromEnv() Config {
	cfg := Config{
		ResolverURL: os.Getenv("IMAGE_MOSAIC_RESOLVER_URL"),
		HTTPTimeout: resolver.DefaultTimeout,
	}
	if v := os.Getenv("IMAGE_MOSAIC_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.WithField("value", v).Warn("ignoring invalid IMAGE_MOSAIC_HTTP_TIMEOUT")
		} else {
			cfg.HTTPTimeout = d
		}
	}
	return cfg
}

// Server handles MCP protocol communication
type Server struct {
	cache  *imageio.ImageCache
	config Config
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a server configured from the environment.
func New() *Server {
	return NewWithConfig(ConfigFromEnv())
}

// NewWithConfig creates a server with an explicit configuration.
func NewWithConfig(cfg Config) *Server {
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = resolver.DefaultTimeout
	}
	return &Server{
		cache:  imageio.NewImageCache(),
		config: cfg,
	}
}

// Run serves MCP requests from stdin and writes responses to stdout.
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to w
// until r is exhausted.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.WithError(err).Warn("failed to parse request")
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				log.WithError(err).Error("failed to encode response")
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	log.WithField("method", req.Method).Debug("request")

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "image-mosaic-mcp",
				"version": "0.1.0",
			},
		},
	}
}
