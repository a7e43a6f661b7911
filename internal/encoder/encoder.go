package encoder

import (
	"errors"
	"image"
)

// ErrUnavailable is returned when an encoder's backing tool is missing.
var ErrUnavailable = errors.New("encoder unavailable")

// Encoder encodes an image to the lossy target format.
type Encoder interface {
	// Format returns the output format name (e.g. "webp").
	Format() string

	// Encode converts the image to bytes at the given quality (0-100).
	Encode(img image.Image, quality int) ([]byte, error)

	// Available returns true if the encoder is ready to use.
	// cwebp may not be installed.
	Available() bool

	// Extension returns the file extension without dot.
	Extension() string
}
