package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ironsheep/image-mosaic-mcp/internal/imageio"
	"github.com/ironsheep/image-mosaic-mcp/internal/mosaic"
	"github.com/ironsheep/image-mosaic-mcp/internal/resolver"
)

const defaultTileSize = 16

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "mosaic_create").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	entry := log.WithFields(log.Fields{"tool": params.Name, "duration": time.Since(start)})
	if err != nil {
		entry.WithError(err).Warn("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	entry.Debug("tool finished")

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "image_unload":
		return s.handleImageUnload(args)
	case "mosaic_partition":
		return s.handleMosaicPartition(args)
	case "mosaic_average_color":
		return s.handleMosaicAverageColor(args)
	case "mosaic_create":
		return s.handleMosaicCreate(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// A marshal failure is logged and yields an empty string.
func mustMarshalJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.WithError(err).Error("failed to marshal tool result")
		return ""
	}
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return fmt.Errorf("missing arguments")
	}
	return json.Unmarshal(args, v)
}

func tileSizeOrDefault(v int) int {
	if v == 0 {
		return defaultTileSize
	}
	return v
}

// === Image Information ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imageio.LoadImageInfo(s.cache, a.Path)
}

type imageUnloadArgs struct {
	Path string `json:"path"`
}

// UnloadResult reports what image_unload removed from the source cache.
type UnloadResult struct {
	Evicted int `json:"evicted"`
	Cached  int `json:"cached"`
}

func (s *Server) handleImageUnload(args json.RawMessage) (interface{}, error) {
	var a imageUnloadArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, err
		}
	}

	res := &UnloadResult{}
	if a.Path == "" {
		res.Evicted = s.cache.Clear()
	} else if s.cache.Evict(a.Path) {
		res.Evicted = 1
	}
	res.Cached = s.cache.Len()
	return res, nil
}

// === Grid ===

type mosaicPartitionArgs struct {
	Path       string `json:"path"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	TileWidth  int    `json:"tile_width"`
	TileHeight int    `json:"tile_height"`
}

func (s *Server) handleMosaicPartition(args json.RawMessage) (interface{}, error) {
	var a mosaicPartitionArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path != "" {
		img, err := s.cache.Load(a.Path)
		if err != nil {
			return nil, err
		}
		a.Width, a.Height = img.Bounds().Dx(), img.Bounds().Dy()
	}
	tw, th := tileSizeOrDefault(a.TileWidth), tileSizeOrDefault(a.TileHeight)

	rows, err := mosaic.Partition(a.Width, a.Height, tw, th)
	if err != nil {
		return nil, err
	}
	return mosaic.Summarize(rows, tw, th), nil
}

// === Color ===

type mosaicAverageColorArgs struct {
	Path string `json:"path"`
	X1   int    `json:"x1"`
	Y1   int    `json:"y1"`
	X2   int    `json:"x2"`
	Y2   int    `json:"y2"`
}

// AverageColorResult is the color key of a region.
type AverageColorResult struct {
	ColorKey mosaic.ColorKey `json:"color_key"`
	Hex      string          `json:"hex"`
	Pixels   int             `json:"pixels"`
}

func (s *Server) handleMosaicAverageColor(args json.RawMessage) (interface{}, error) {
	var a mosaicAverageColorArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	src, err := mosaic.NewImageSource(img)
	if err != nil {
		return nil, err
	}

	r := image.Rect(a.X1, a.Y1, a.X2, a.Y2)
	if a.X1 == 0 && a.Y1 == 0 && a.X2 == 0 && a.Y2 == 0 {
		r = image.Rect(0, 0, src.Width(), src.Height())
	}
	key, err := mosaic.AverageImageColor(src, r)
	if err != nil {
		return nil, err
	}
	return &AverageColorResult{
		ColorKey: key,
		Hex:      "#" + string(key),
		Pixels:   r.Dx() * r.Dy(),
	}, nil
}

// === Mosaic ===

type mosaicCreateArgs struct {
	Path         string `json:"path"`
	TileWidth    int    `json:"tile_width"`
	TileHeight   int    `json:"tile_height"`
	OutputPath   string `json:"output_path"`
	Resolver     string `json:"resolver"`
	ResolverURL  string `json:"resolver_url"`
	Resizer      string `json:"resizer"`
	Retries      int    `json:"retries"`
	SwatchBorder int    `json:"swatch_border"`
	IncludeImage bool   `json:"include_image"`
}

// FailedRow explains why one mosaic row was left blank.
type FailedRow struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// MosaicResult reports the outcome of mosaic_create.
type MosaicResult struct {
	RunID         string      `json:"run_id"`
	Width         int         `json:"width"`
	Height        int         `json:"height"`
	Rows          int         `json:"rows"`
	Tiles         int         `json:"tiles"`
	Requests      int         `json:"requests"`
	CompletedRows []int       `json:"completed_rows"`
	FailedRows    []FailedRow `json:"failed_rows"`
	OutputPath    string      `json:"output_path,omitempty"`
	ImageBase64   string      `json:"image_base64,omitempty"`
	MimeType      string      `json:"mime_type,omitempty"`
}

// substituteResolver builds the resolver selected by the tool arguments.
func (s *Server) substituteResolver(a *mosaicCreateArgs) (mosaic.SubstituteResolver, error) {
	switch a.Resolver {
	case "", "swatch":
		sw := resolver.NewSwatch()
		if a.SwatchBorder > 0 {
			sw.Border = a.SwatchBorder
			sw.Shade = 0.3
		}
		return sw, nil
	case "http":
		base := a.ResolverURL
		if base == "" {
			base = s.config.ResolverURL
		}
		if base == "" {
			return nil, fmt.Errorf("http resolver needs resolver_url or IMAGE_MOSAIC_RESOLVER_URL")
		}
		var r mosaic.SubstituteResolver = resolver.NewHTTP(base, s.config.HTTPTimeout)
		if a.Retries > 1 {
			r = resolver.WithRetry(r, a.Retries, 200*time.Millisecond)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown resolver: %s", a.Resolver)
	}
}

func (s *Server) handleMosaicCreate(args json.RawMessage) (interface{}, error) {
	var a mosaicCreateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	src, err := mosaic.NewImageSource(img)
	if err != nil {
		return nil, err
	}
	resizer, err := mosaic.ResizerByName(a.Resizer)
	if err != nil {
		return nil, err
	}
	sub, err := s.substituteResolver(&a)
	if err != nil {
		return nil, err
	}

	surface := mosaic.NewSurface(src.Width(), src.Height(), resizer)
	p, err := mosaic.New(src, tileSizeOrDefault(a.TileWidth), tileSizeOrDefault(a.TileHeight), surface, sub,
		mosaic.WithLogger(log.WithField("path", a.Path)))
	if err != nil {
		return nil, err
	}

	// Row failures are reported in the result rather than as a tool error.
	res, err := p.ProcessImage(context.Background())
	if res == nil {
		return nil, err
	}

	out := &MosaicResult{
		RunID:         res.RunID,
		Width:         src.Width(),
		Height:        src.Height(),
		Rows:          res.Rows,
		Tiles:         res.Tiles,
		Requests:      res.Requests,
		CompletedRows: res.Completed,
		FailedRows:    []FailedRow{},
	}
	if out.CompletedRows == nil {
		out.CompletedRows = []int{}
	}
	for _, re := range res.Failed {
		out.FailedRows = append(out.FailedRows, FailedRow{Row: re.Row, Error: re.Err.Error()})
	}

	mosaicImg := surface.Image()
	if a.OutputPath != "" {
		if err := imageio.Save(a.OutputPath, mosaicImg); err != nil {
			return nil, err
		}
		out.OutputPath = a.OutputPath
	}
	if a.IncludeImage {
		encoded, err := imageio.EncodePNGBase64(mosaicImg)
		if err != nil {
			return nil, err
		}
		out.ImageBase64 = encoded
		out.MimeType = "image/png"
	}

	return out, nil
}
