package mosaic

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// Resizer scales a substitute image to exactly width x height so it fills
// its tile.
type Resizer interface {
	Resize(img image.Image, width, height int) image.Image
}

// ImagingResizer scales with disintegration/imaging.
type ImagingResizer struct {
	Filter imaging.ResampleFilter
}

// Resize implements Resizer.
func (r ImagingResizer) Resize(img image.Image, width, height int) image.Image {
	return imaging.Resize(img, width, height, r.Filter)
}

// NfntResizer scales with nfnt/resize.
type NfntResizer struct {
	InterP resize.InterpolationFunction
}

// Resize implements Resizer.
func (r NfntResizer) Resize(img image.Image, width, height int) image.Image {
	return resize.Resize(uint(width), uint(height), img, r.InterP)
}

var (
	// DefaultResizer is used by surfaces created without a resizer.
	DefaultResizer Resizer = ImagingResizer{Filter: imaging.Lanczos}
)

// ResizerByName maps a configuration name to a Resizer. The empty name
// selects DefaultResizer.
func ResizerByName(name string) (Resizer, error) {
	switch name {
	case "", "imaging":
		return DefaultResizer, nil
	case "imaging-box":
		return ImagingResizer{Filter: imaging.Box}, nil
	case "nfnt":
		return NfntResizer{InterP: resize.MitchellNetravali}, nil
	case "nfnt-nearest":
		return NfntResizer{InterP: resize.NearestNeighbor}, nil
	default:
		return nil, fmt.Errorf("unknown resizer: %s", name)
	}
}
