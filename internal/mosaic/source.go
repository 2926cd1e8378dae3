package mosaic

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Source is the read-only pixel buffer a mosaic is built from.
type Source interface {
	Width() int
	Height() int
	// Pixels returns the non-premultiplied RGBA samples of r in row-major
	// order. r is in source coordinates with the origin at (0, 0) and must
	// lie within the source.
	Pixels(r image.Rectangle) ([]uint8, error)
}

// ImageSource adapts an image.Image to Source.
//
// The image is converted to NRGBA once, so every Pixels call is a plain
// row copy regardless of the original color model.
type ImageSource struct {
	img *image.NRGBA
}

// NewImageSource converts img for pixel access. The caller's image is not
// retained.
func NewImageSource(img image.Image) (*ImageSource, error) {
	if img == nil {
		return nil, errors.Wrap(ErrInvalidInput, "nil image")
	}
	if img.Bounds().Empty() {
		return nil, errors.Wrapf(ErrInvalidInput, "empty image %v", img.Bounds())
	}
	return &ImageSource{img: imaging.Clone(img)}, nil
}

func (s *ImageSource) Width() int  { return s.img.Rect.Dx() }
func (s *ImageSource) Height() int { return s.img.Rect.Dy() }

// Pixels implements Source.
func (s *ImageSource) Pixels(r image.Rectangle) ([]uint8, error) {
	if r.Empty() || !r.In(s.img.Rect) {
		return nil, errors.Wrapf(ErrInvalidInput, "region %v outside source %v", r, s.img.Rect)
	}

	rowLen := r.Dx() * 4
	out := make([]uint8, 0, rowLen*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := s.img.PixOffset(r.Min.X, y)
		out = append(out, s.img.Pix[i:i+rowLen]...)
	}
	return out, nil
}
