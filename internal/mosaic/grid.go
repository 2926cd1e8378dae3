package mosaic

import (
	"image"

	"github.com/pkg/errors"
)

// TileSpec is one cell of the mosaic grid.
//
// Width and Height equal the configured tile size except for the last
// column and the last row, which are clipped to the image when its size is
// not a multiple of the tile size.
type TileSpec struct {
	Row    int `json:"row"`
	Col    int `json:"col"`
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect returns the tile's area in image coordinates.
func (t TileSpec) Rect() image.Rectangle {
	return image.Rect(t.X, t.Y, t.X+t.Width, t.Y+t.Height)
}

// Area is the number of pixels covered by the tile.
func (t TileSpec) Area() int {
	return t.Width * t.Height
}

// Partition divides a width x height canvas into rows of tiles.
//
// Row r starts at y = r*tileHeight and holds its tiles in ascending x order,
// so tile (r, c) sits at (c*tileWidth, r*tileHeight). The tiles cover
// [0,width) x [0,height) exactly, without gaps or overlaps.
func Partition(width, height, tileWidth, tileHeight int) ([][]TileSpec, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidInput, "canvas size %dx%d", width, height)
	}
	if tileWidth <= 0 || tileHeight <= 0 {
		return nil, errors.Wrapf(ErrInvalidInput, "tile size %dx%d", tileWidth, tileHeight)
	}

	numRows := (height + tileHeight - 1) / tileHeight
	numCols := (width + tileWidth - 1) / tileWidth
	rows := make([][]TileSpec, 0, numRows)

	for y := 0; y < height; y += tileHeight {
		row := make([]TileSpec, 0, numCols)
		h := min(tileHeight, height-y)
		for x := 0; x < width; x += tileWidth {
			row = append(row, TileSpec{
				Row:    y / tileHeight,
				Col:    x / tileWidth,
				X:      x,
				Y:      y,
				Width:  min(tileWidth, width-x),
				Height: h,
			})
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// GridSummary describes the shape of a partition.
type GridSummary struct {
	Rows          int `json:"rows"`
	Cols          int `json:"cols"`
	Tiles         int `json:"tiles"`
	LastColWidth  int `json:"last_col_width"`
	LastRowHeight int `json:"last_row_height"`
	TileWidth     int `json:"tile_width"`
	TileHeight    int `json:"tile_height"`
}

// Summarize reports the dimensions of a partition produced by Partition.
func Summarize(rows [][]TileSpec, tileWidth, tileHeight int) GridSummary {
	s := GridSummary{TileWidth: tileWidth, TileHeight: tileHeight}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return s
	}
	last := rows[len(rows)-1][len(rows[0])-1]
	s.Rows = len(rows)
	s.Cols = len(rows[0])
	s.Tiles = s.Rows * s.Cols
	s.LastColWidth = last.Width
	s.LastRowHeight = last.Height
	return s
}
