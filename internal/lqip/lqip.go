// Package lqip builds low-quality image placeholders: a tiny blurred copy
// of an image, inlined as a base64 data URI for page metadata.
package lqip

import (
	"encoding/base64"
	"fmt"
	"image"

	"github.com/AnyUserName/blogimg-cli/internal/compress"
	"github.com/AnyUserName/blogimg-cli/internal/encoder"
	"github.com/disintegration/imaging"
)

const (
	// MaxDim bounds both placeholder sides.
	MaxDim = 20
	// Sigma is the gaussian blur applied after downscaling.
	Sigma = 1.5
	// Quality is the placeholder encode quality.
	Quality = 50
)

// Placeholder returns a data URI holding a blurred thumbnail of img.
func Placeholder(img image.Image, enc encoder.Encoder) (string, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return "", fmt.Errorf("lqip: %w: empty image", compress.ErrEncoding)
	}

	thumb := imaging.Fit(compress.Flatten(img), MaxDim, MaxDim, imaging.Lanczos)
	thumb = imaging.Blur(thumb, Sigma)

	data, err := enc.Encode(thumb, Quality)
	if err != nil {
		return "", fmt.Errorf("lqip: %w", err)
	}
	return DataURI(enc.Format(), data), nil
}

// DataURI wraps data as an inline image/<format> URI.
func DataURI(format string, data []byte) string {
	return "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(data)
}
