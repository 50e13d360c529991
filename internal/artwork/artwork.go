package artwork

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/nfnt/resize"

	"github.com/ChristopherJMiller/nutune/internal/shared"

	// Decoders for the formats servers actually hand back.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultMaxSize bounds the longest side of a processed cover, in
	// pixels. Portable players choke on full-resolution art.
	DefaultMaxSize = 300

	// maxEncodedBytes is the target ceiling for the encoded JPEG.
	maxEncodedBytes = 200 * 1024

	startQuality = 75
	minQuality   = 50
	qualityStep  = 10
)

// Process normalizes raw cover art into a small JPEG: the image is
// downscaled so its longest side is at most maxSize pixels, then
// re-encoded, stepping the JPEG quality down until the result fits
// under 200 KiB or quality bottoms out. maxSize <= 0 uses
// DefaultMaxSize.
func Process(raw []byte, maxSize int) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding image: %v", shared.ErrCoverArt, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxSize || bounds.Dy() > maxSize {
		img = resize.Thumbnail(uint(maxSize), uint(maxSize), img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	for quality := startQuality; ; quality -= qualityStep {
		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("%w: encoding jpeg: %v", shared.ErrCoverArt, err)
		}
		if buf.Len() <= maxEncodedBytes || quality-qualityStep < minQuality {
			break
		}
	}
	return buf.Bytes(), nil
}
