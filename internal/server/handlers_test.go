package server

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// createTestImageFile writes a PNG whose top half is top and bottom half is
// bottom, and returns its path.
func createTestImageFile(t *testing.T, width, height int, top, bottom color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if y < height/2 {
				img.Set(x, y, top)
			} else {
				img.Set(x, y, bottom)
			}
		}
	}

	path := filepath.Join(t.TempDir(), "source.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool issues a tools/call request and returns the response.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()
	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// decodeToolResult unpacks the JSON text content of a successful call.
func decodeToolResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("unexpected content: %v", result["content"])
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("failed to decode tool result %q: %v", text, err)
	}
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := New()
	path := createTestImageFile(t, 100, 80, color.White, color.Black)

	var info struct {
		Width  int    `json:"width"`
		Height int    `json:"height"`
		Format string `json:"format"`
	}
	decodeToolResult(t, callTool(t, s, "image_load", map[string]interface{}{"path": path}), &info)

	if info.Width != 100 || info.Height != 80 || info.Format != "png" {
		t.Errorf("got %+v", info)
	}
}

func TestHandleToolsCall_MosaicPartition(t *testing.T) {
	s := New()

	var grid struct {
		Rows          int `json:"rows"`
		Cols          int `json:"cols"`
		LastColWidth  int `json:"last_col_width"`
		LastRowHeight int `json:"last_row_height"`
	}
	decodeToolResult(t, callTool(t, s, "mosaic_partition", map[string]interface{}{
		"width": 123, "height": 456,
	}), &grid)
	if grid.Rows != 29 || grid.Cols != 8 || grid.LastColWidth != 11 || grid.LastRowHeight != 8 {
		t.Errorf("got %+v", grid)
	}

	path := createTestImageFile(t, 40, 20, color.White, color.White)
	decodeToolResult(t, callTool(t, s, "mosaic_partition", map[string]interface{}{
		"path": path, "tile_width": 16, "tile_height": 10,
	}), &grid)
	if grid.Rows != 2 || grid.Cols != 3 || grid.LastColWidth != 8 || grid.LastRowHeight != 10 {
		t.Errorf("from path: got %+v", grid)
	}

	resp := callTool(t, s, "mosaic_partition", map[string]interface{}{"width": 0, "height": 10})
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Errorf("zero width should fail with -32000, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_MosaicAverageColor(t *testing.T) {
	s := New()
	path := createTestImageFile(t, 20, 20, color.RGBA{112, 123, 240, 255}, color.RGBA{2, 39, 140, 255})

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"top half", map[string]interface{}{"path": path, "x1": 0, "y1": 0, "x2": 20, "y2": 10}, "707bf0"},
		{"bottom half", map[string]interface{}{"path": path, "x1": 5, "y1": 10, "x2": 15, "y2": 20}, "02278c"},
		// floor((112+2)/2), floor((123+39)/2), floor((240+140)/2)
		{"whole image", map[string]interface{}{"path": path}, "3951be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var res AverageColorResult
			decodeToolResult(t, callTool(t, s, "mosaic_average_color", tt.args), &res)
			if string(res.ColorKey) != tt.want {
				t.Errorf("got %s, want %s", res.ColorKey, tt.want)
			}
			if res.Hex != "#"+tt.want {
				t.Errorf("hex: got %s", res.Hex)
			}
		})
	}

	resp := callTool(t, s, "mosaic_average_color", map[string]interface{}{"path": path, "x1": 10, "y1": 10, "x2": 30, "y2": 20})
	if resp.Error == nil {
		t.Error("region outside the image should fail")
	}
}

func TestHandleToolsCall_MosaicCreateSwatch(t *testing.T) {
	s := New()
	red := color.RGBA{255, 0, 0, 255}
	blue := color.RGBA{0, 0, 255, 255}
	path := createTestImageFile(t, 32, 32, red, blue)
	output := filepath.Join(t.TempDir(), "mosaic.png")

	var res MosaicResult
	decodeToolResult(t, callTool(t, s, "mosaic_create", map[string]interface{}{
		"path":          path,
		"tile_width":    8,
		"tile_height":   8,
		"output_path":   output,
		"include_image": true,
	}), &res)

	if res.Rows != 4 || res.Tiles != 16 || res.Requests != 2 {
		t.Errorf("rows %d, tiles %d, requests %d; want 4, 16, 2", res.Rows, res.Tiles, res.Requests)
	}
	if len(res.CompletedRows) != 4 || len(res.FailedRows) != 0 {
		t.Errorf("completed %v, failed %v", res.CompletedRows, res.FailedRows)
	}
	if res.RunID == "" {
		t.Error("RunID should be set")
	}
	if res.ImageBase64 == "" || res.MimeType != "image/png" {
		t.Error("inline image missing")
	}

	f, err := os.Open(output)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("output not a PNG: %v", err)
	}
	if got := color.RGBAModel.Convert(img.At(4, 4)); got != red {
		t.Errorf("top tile: got %v, want red", got)
	}
	if got := color.RGBAModel.Convert(img.At(28, 28)); got != blue {
		t.Errorf("bottom tile: got %v, want blue", got)
	}
}

func TestHandleToolsCall_MosaicCreateHTTPFailedRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/color/0000ff" {
			http.Error(w, "no tile", http.StatusNotFound)
			return
		}
		img := image.NewRGBA(image.Rect(0, 0, 2, 2))
		png.Encode(w, img)
	}))
	defer srv.Close()

	s := NewWithConfig(Config{ResolverURL: srv.URL})
	path := createTestImageFile(t, 16, 16, color.RGBA{255, 0, 0, 255}, color.RGBA{0, 0, 255, 255})

	var res MosaicResult
	decodeToolResult(t, callTool(t, s, "mosaic_create", map[string]interface{}{
		"path":        path,
		"tile_width":  16,
		"tile_height": 8,
		"resolver":    "http",
		"resizer":     "nfnt",
	}), &res)

	if len(res.CompletedRows) != 1 || res.CompletedRows[0] != 0 {
		t.Errorf("completed: got %v, want [0]", res.CompletedRows)
	}
	if len(res.FailedRows) != 1 || res.FailedRows[0].Row != 1 {
		t.Fatalf("failed: got %v, want row 1", res.FailedRows)
	}
	if !strings.Contains(res.FailedRows[0].Error, "404") {
		t.Errorf("failure should carry the resolver error: %s", res.FailedRows[0].Error)
	}
}

func TestHandleToolsCall_Errors(t *testing.T) {
	s := NewWithConfig(Config{})
	path := createTestImageFile(t, 8, 8, color.White, color.White)

	tests := []struct {
		name string
		tool string
		args map[string]interface{}
	}{
		{"unknown tool", "image_ocr_full", map[string]interface{}{"path": path}},
		{"missing file", "mosaic_create", map[string]interface{}{"path": filepath.Join(t.TempDir(), "nope.png")}},
		{"unknown resolver", "mosaic_create", map[string]interface{}{"path": path, "resolver": "ftp"}},
		{"http without url", "mosaic_create", map[string]interface{}{"path": path, "resolver": "http"}},
		{"unknown resizer", "mosaic_create", map[string]interface{}{"path": path, "resizer": "magic"}},
		{"negative tile", "mosaic_create", map[string]interface{}{"path": path, "tile_width": -4}},
		{"bad output extension", "mosaic_create", map[string]interface{}{"path": path, "output_path": filepath.Join(t.TempDir(), "out.txt")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, tt.tool, tt.args)
			if resp.Error == nil {
				t.Fatal("expected error response")
			}
			if resp.Error.Code != -32000 {
				t.Errorf("code: got %d, want -32000", resp.Error.Code)
			}
		})
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New()
	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("expected -32602, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_ImageUnload(t *testing.T) {
	s := New()
	first := createTestImageFile(t, 8, 8, color.White, color.Black)
	second := createTestImageFile(t, 8, 8, color.Black, color.White)
	for _, path := range []string{first, second} {
		if _, err := s.cache.Load(path); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}

	var res UnloadResult
	decodeToolResult(t, callTool(t, s, "image_unload", map[string]interface{}{"path": first}), &res)
	if res.Evicted != 1 || res.Cached != 1 {
		t.Errorf("evict one: got %+v, want evicted 1, cached 1", res)
	}

	decodeToolResult(t, callTool(t, s, "image_unload", map[string]interface{}{"path": first}), &res)
	if res.Evicted != 0 || res.Cached != 1 {
		t.Errorf("evict again: got %+v, want evicted 0, cached 1", res)
	}

	decodeToolResult(t, callTool(t, s, "image_unload", map[string]interface{}{}), &res)
	if res.Evicted != 1 || res.Cached != 0 {
		t.Errorf("clear: got %+v, want evicted 1, cached 0", res)
	}
}

func TestMustMarshalJSON(t *testing.T) {
	if got := mustMarshalJSON(map[string]int{"rows": 2}); !strings.Contains(got, `"rows": 2`) {
		t.Errorf("got %q", got)
	}
	if got := mustMarshalJSON(make(chan int)); got != "" {
		t.Errorf("unmarshalable value: got %q, want empty", got)
	}
}
