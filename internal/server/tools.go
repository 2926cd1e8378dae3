package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the source image file",
	}
}

func tileProperty(axis string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Tile " + axis + " in pixels. Default 16",
		"default":     16,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_unload",
			Description: "Drop a decoded source image from the server's cache so the next call reads the file again. Without a path, every cached image is dropped.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
			},
		},
		{
			Name:        "mosaic_partition",
			Description: "Describe the tile grid a mosaic would use: number of rows and columns and the size of the clipped edge tiles. Give either an image path or explicit width and height.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Canvas width in pixels (ignored when path is set)",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Canvas height in pixels (ignored when path is set)",
					},
					"tile_width":  tileProperty("width"),
					"tile_height": tileProperty("height"),
				},
			},
		},
		{
			Name:        "mosaic_average_color",
			Description: "Compute the mosaic color key (6 lowercase hex digits, floored channel means) of a rectangular region. Defaults to the whole image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x1": map[string]interface{}{
						"type":        "integer",
						"description": "Left edge X coordinate (0-based)",
					},
					"y1": map[string]interface{}{
						"type":        "integer",
						"description": "Top edge Y coordinate (0-based)",
					},
					"x2": map[string]interface{}{
						"type":        "integer",
						"description": "Right edge X coordinate (exclusive)",
					},
					"y2": map[string]interface{}{
						"type":        "integer",
						"description": "Bottom edge Y coordinate (exclusive)",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "mosaic_create",
			Description: "Turn an image into a photo mosaic. Each tile is replaced by a substitute image for its average color; rows whose substitutes fail are reported and left blank.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":        pathProperty(),
					"tile_width":  tileProperty("width"),
					"tile_height": tileProperty("height"),
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Where to write the mosaic (.png, .jpg or .bmp). Optional",
					},
					"resolver": map[string]interface{}{
						"type":        "string",
						"description": "Substitute source: 'swatch' renders solid tiles locally, 'http' fetches <resolver_url>/color/<key>",
						"enum":        []string{"swatch", "http"},
						"default":     "swatch",
					},
					"resolver_url": map[string]interface{}{
						"type":        "string",
						"description": "Base URL for the http resolver. Defaults to IMAGE_MOSAIC_RESOLVER_URL",
					},
					"resizer": map[string]interface{}{
						"type":        "string",
						"description": "How substitutes are scaled to the tile size",
						"enum":        []string{"imaging", "imaging-box", "nfnt", "nfnt-nearest"},
						"default":     "imaging",
					},
					"retries": map[string]interface{}{
						"type":        "integer",
						"description": "Attempts per color key for the http resolver. Default 1",
						"default":     1,
					},
					"swatch_border": map[string]interface{}{
						"type":        "integer",
						"description": "Width of a darker frame drawn around swatch tiles. Default 0",
						"default":     0,
					},
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the mosaic as base64 PNG in the result",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
