package resolver

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	log "github.com/sirupsen/logrus"

	"github.com/ironsheep/image-mosaic-mcp/internal/mosaic"
)

// DefaultTimeout bounds a single HTTP substitute request.
const DefaultTimeout = 10 * time.Second

// HTTP fetches substitutes from an image service that answers
// GET <BaseURL>/color/<key> with a PNG, JPEG or GIF tile.
type HTTP struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTP returns a resolver for baseURL. A timeout of zero selects
// DefaultTimeout.
func NewHTTP(baseURL string, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTP{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

// URL returns the address requested for key.
func (h *HTTP) URL(key mosaic.ColorKey) string {
	return h.BaseURL + "/color/" + string(key)
}

// Request implements mosaic.SubstituteResolver.
func (h *HTTP) Request(ctx context.Context, key mosaic.ColorKey) (image.Image, error) {
	url := h.URL(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	start := time.Now()
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	img, err := imaging.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", url, err)
	}

	log.WithFields(log.Fields{
		"key":      key,
		"duration": time.Since(start),
	}).Debug("fetched substitute")
	return img, nil
}
