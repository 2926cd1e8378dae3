package resolver

import (
	"context"
	"image"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/image-mosaic-mcp/internal/mosaic"
)

// Swatch generates substitute tiles without any I/O.
type Swatch struct {
	// Width and Height are the size of the generated tile. The surface
	// rescales it to the actual tile size.
	Width  int
	Height int

	// Border is the width of a darker frame around the tile, in pixels.
	// Zero disables the frame.
	Border int

	// Shade is how far the frame is blended towards black in Lab space,
	// from 0 to 1.
	Shade float64
}

// NewSwatch returns a plain 16x16 swatch generator.
func NewSwatch() *Swatch {
	return &Swatch{Width: 16, Height: 16}
}

// Request implements mosaic.SubstituteResolver.
func (s *Swatch) Request(ctx context.Context, key mosaic.ColorKey) (image.Image, error) {
	c, err := key.Color()
	if err != nil {
		return nil, err
	}

	w, h := s.Width, s.Height
	if w <= 0 || h <= 0 {
		w, h = 16, 16
	}
	img := imaging.New(w, h, c)

	if s.Border > 0 {
		edge := c.BlendLab(colorful.Color{}, s.Shade).Clamped()
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if x < s.Border || y < s.Border || x >= w-s.Border || y >= h-s.Border {
					img.Set(x, y, edge)
				}
			}
		}
	}

	return img, nil
}
