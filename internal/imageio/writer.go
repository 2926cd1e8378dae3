package imageio

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/anthonynsimon/bild/imgio"
)

// JPEGQuality is used when a mosaic is saved with a .jpg or .jpeg extension.
const JPEGQuality = 90

// Save writes img to path. The encoder is picked from the extension: .png,
// .jpg/.jpeg or .bmp.
func Save(path string, img image.Image) error {
	var enc imgio.Encoder
	switch formatFromExt(path) {
	case "png":
		enc = imgio.PNGEncoder()
	case "jpeg":
		enc = imgio.JPEGEncoder(JPEGQuality)
	case "bmp":
		enc = imgio.BMPEncoder()
	default:
		return fmt.Errorf("unsupported output format: %s", path)
	}

	if err := imgio.Save(path, img, enc); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// EncodePNGBase64 encodes img as a base64 PNG for inline transport.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
