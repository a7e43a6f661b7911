package encoder

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
)

// DefaultMethod is cwebp's slowest, smallest-output compression method.
const DefaultMethod = 6

// WebPEncoder encodes images to WebP by shelling out to cwebp.
// This approach avoids CGO while still producing optimized WebP.
// Install: brew install webp / apt install webp
type WebPEncoder struct {
	// Path overrides the cwebp lookup in PATH.
	Path string
	// Method is the cwebp -m value (0=fast, 6=best).
	Method int

	once      sync.Once
	available bool
	cwebpPath string
}

// NewWebP returns a WebP encoder using cwebpPath ("" = look up in PATH).
func NewWebP(cwebpPath string, method int) *WebPEncoder {
	return &WebPEncoder{Path: cwebpPath, Method: method}
}

func (e *WebPEncoder) Format() string    { return "webp" }
func (e *WebPEncoder) Extension() string { return "webp" }

func (e *WebPEncoder) Available() bool {
	e.once.Do(func() {
		name := e.Path
		if name == "" {
			name = "cwebp"
		}
		path, err := exec.LookPath(name)
		if err == nil {
			e.available = true
			e.cwebpPath = path
		}
	})
	return e.available
}

func (e *WebPEncoder) method() int {
	if e.Method < 0 || e.Method > 6 {
		return DefaultMethod
	}
	return e.Method
}

// Encode writes img to a temporary PNG, runs cwebp on it and returns the
// resulting WebP bytes. Quality outside 0-100 is rejected.
func (e *WebPEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	if !e.Available() {
		return nil, fmt.Errorf("%w: cwebp not found; install with: brew install webp", ErrUnavailable)
	}
	if quality < 0 || quality > 100 {
		return nil, fmt.Errorf("webp quality %d out of range 0-100", quality)
	}

	dir, err := os.MkdirTemp("", "blogimg_webp_*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	srcPath := filepath.Join(dir, "src.png")
	dstPath := filepath.Join(dir, "dst.webp")

	f, err := os.Create(srcPath)
	if err != nil {
		return nil, fmt.Errorf("create temp: %w", err)
	}
	// Fastest PNG level: the file only lives until cwebp reads it.
	enc := &png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(f, img); err != nil {
		f.Close()
		return nil, fmt.Errorf("encode temp png: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close temp png: %w", err)
	}

	cmd := exec.Command(e.cwebpPath,
		"-q", strconv.Itoa(quality),
		"-m", strconv.Itoa(e.method()),
		"-quiet",
		srcPath,
		"-o", dstPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("cwebp: %w: %s", err, string(out))
	}

	return os.ReadFile(dstPath)
}
