package mosaic

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// ColorKey is the canonical form of a tile's average color: six lowercase
// hex digits, two per channel, without a leading '#'.
//
// Tiles whose averaged (r, g, b) triples are equal always produce equal
// keys, which is what lets the TileCache deduplicate substitute requests.
type ColorKey string

// ComponentToHex encodes one 8-bit channel as exactly two lowercase hex
// digits, so 1 becomes "01" and 112 becomes "70".
func ComponentToHex(c uint8) string {
	return fmt.Sprintf("%02x", c)
}

// RGBToHex encodes an RGB triple as a ColorKey.
func RGBToHex(r, g, b uint8) ColorKey {
	return ColorKey(ComponentToHex(r) + ComponentToHex(g) + ComponentToHex(b))
}

// ParseColorKey validates s and returns its canonical form. A leading '#'
// and upper-case digits are accepted.
func ParseColorKey(s string) (ColorKey, error) {
	s = strings.ToLower(strings.TrimPrefix(s, "#"))
	if len(s) != 6 {
		return "", errors.Wrapf(ErrInvalidInput, "color key %q must have 6 hex digits", s)
	}
	if _, err := strconv.ParseUint(s, 16, 32); err != nil {
		return "", errors.Wrapf(ErrInvalidInput, "color key %q is not hex", s)
	}
	return ColorKey(s), nil
}

// RGB returns the 8-bit channels encoded in the key.
func (k ColorKey) RGB() (r, g, b uint8, err error) {
	if _, err := ParseColorKey(string(k)); err != nil {
		return 0, 0, 0, err
	}
	v, _ := strconv.ParseUint(string(k), 16, 32)
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}

// Color returns the key as a go-colorful color.
func (k ColorKey) Color() (colorful.Color, error) {
	canonical, err := ParseColorKey(string(k))
	if err != nil {
		return colorful.Color{}, err
	}
	return colorful.Hex("#" + string(canonical))
}

// AverageColor reduces a tile's pixel block to its ColorKey.
//
// pixels holds interleaved R, G, B, A bytes in any consistent scan order and
// must contain exactly sampleCount samples. Each of R, G and B is averaged
// independently and floored; alpha is read but not part of the key.
//
// A sampleCount of zero or less, or a buffer whose length does not match,
// fails with ErrInvalidInput.
func AverageColor(pixels []uint8, sampleCount int) (ColorKey, error) {
	if sampleCount <= 0 {
		return "", errors.Wrapf(ErrInvalidInput, "sample count %d", sampleCount)
	}
	if len(pixels) != 4*sampleCount {
		return "", errors.Wrapf(ErrInvalidInput, "got %d bytes for %d samples", len(pixels), sampleCount)
	}

	// pixels[i+3] is alpha, which does not contribute to the key.
	var r, g, b uint64
	for i := 0; i < len(pixels); i += 4 {
		r += uint64(pixels[i])
		g += uint64(pixels[i+1])
		b += uint64(pixels[i+2])
	}

	n := uint64(sampleCount)
	return RGBToHex(uint8(r/n), uint8(g/n), uint8(b/n)), nil
}

// AverageImageColor reads the pixels of r from src and reduces them.
func AverageImageColor(src Source, r image.Rectangle) (ColorKey, error) {
	if r.Empty() {
		return "", errors.Wrapf(ErrInvalidInput, "empty region %v", r)
	}
	pix, err := src.Pixels(r)
	if err != nil {
		return "", err
	}
	return AverageColor(pix, r.Dx()*r.Dy())
}
