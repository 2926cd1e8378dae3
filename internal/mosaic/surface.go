package mosaic

import (
	"image"
	"image/draw"
	"sync"

	"github.com/pkg/errors"
)

// CompositeTarget is the surface a mosaic is drawn onto. It must be exactly
// as large as the source image.
type CompositeTarget interface {
	Bounds() image.Rectangle
	Clear(r image.Rectangle) error
	// Draw places img into r, scaling it to r's size. Rectangles that are
	// not fully inside Bounds are rejected.
	Draw(img image.Image, r image.Rectangle) error
}

// RowTarget is a CompositeTarget that can draw a whole row in one step.
// DrawRow draws every image into its rectangle, or returns an error without
// drawing any of them.
//
// Rows on a plain CompositeTarget are drawn tile by tile. If one of those
// draws fails, the tiles already drawn are cleared again.
type RowTarget interface {
	CompositeTarget
	DrawRow(imgs []image.Image, rects []image.Rectangle) error
}

// Surface is an in-memory CompositeTarget backed by an *image.RGBA.
//
// Each Clear, Draw or DrawRow call holds the surface lock for its duration,
// so concurrent rows never interleave within a single draw.
type Surface struct {
	resizer Resizer

	mu    sync.Mutex
	img   *image.RGBA
	draws int
}

// NewSurface returns a transparent width x height surface. A nil resizer
// selects DefaultResizer.
func NewSurface(width, height int, resizer Resizer) *Surface {
	if resizer == nil {
		resizer = DefaultResizer
	}
	return &Surface{
		resizer: resizer,
		img:     image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Bounds implements CompositeTarget.
func (s *Surface) Bounds() image.Rectangle {
	return s.img.Rect
}

// Clear implements CompositeTarget.
func (s *Surface) Clear(r image.Rectangle) error {
	if !r.In(s.img.Rect) {
		return errors.Wrapf(ErrCompositeFailure, "clear %v outside surface %v", r, s.img.Rect)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	draw.Draw(s.img, r, image.Transparent, image.Point{}, draw.Src)
	return nil
}

// Draw implements CompositeTarget.
func (s *Surface) Draw(img image.Image, r image.Rectangle) error {
	src, err := s.prepare(img, r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	draw.Draw(s.img, r, src, src.Bounds().Min, draw.Over)
	s.draws++
	return nil
}

// DrawRow implements RowTarget. Every tile is checked and scaled before the
// lock is taken, and each tile counts as one draw.
func (s *Surface) DrawRow(imgs []image.Image, rects []image.Rectangle) error {
	if len(imgs) != len(rects) {
		return errors.Wrapf(ErrCompositeFailure, "%d images for %d rectangles", len(imgs), len(rects))
	}
	srcs := make([]image.Image, len(imgs))
	for i := range imgs {
		src, err := s.prepare(imgs[i], rects[i])
		if err != nil {
			return errors.WithMessagef(err, "tile %d", i)
		}
		srcs[i] = src
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, src := range srcs {
		draw.Draw(s.img, rects[i], src, src.Bounds().Min, draw.Over)
	}
	s.draws += len(srcs)
	return nil
}

// prepare validates a draw and scales img to r.
func (s *Surface) prepare(img image.Image, r image.Rectangle) (image.Image, error) {
	if img == nil {
		return nil, errors.Wrap(ErrCompositeFailure, "nil image")
	}
	if r.Empty() || !r.In(s.img.Rect) {
		return nil, errors.Wrapf(ErrCompositeFailure, "draw %v outside surface %v", r, s.img.Rect)
	}
	if b := img.Bounds(); b.Dx() != r.Dx() || b.Dy() != r.Dy() {
		return s.resizer.Resize(img, r.Dx(), r.Dy()), nil
	}
	return img, nil
}

// Draws is the number of tiles drawn by Draw and DrawRow.
func (s *Surface) Draws() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draws
}

// Image returns a copy of the current surface contents.
func (s *Surface) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := image.NewRGBA(s.img.Rect)
	copy(out.Pix, s.img.Pix)
	return out
}
