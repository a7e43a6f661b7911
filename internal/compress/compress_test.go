package compress

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"testing"
)

// sizedEncoder returns a buffer whose length is looked up by quality.
// Qualities missing from sizes fail to encode.
type sizedEncoder struct {
	sizes map[int]int
	calls []int
	dims  []image.Point
}

func (e *sizedEncoder) Format() string    { return "webp" }
func (e *sizedEncoder) Extension() string { return "webp" }
func (e *sizedEncoder) Available() bool   { return true }

func (e *sizedEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	e.calls = append(e.calls, quality)
	e.dims = append(e.dims, img.Bounds().Size())
	n, ok := e.sizes[quality]
	if !ok {
		return nil, fmt.Errorf("quality %d rejected", quality)
	}
	// First byte tags the quality so tests can tell candidates apart.
	data := bytes.Repeat([]byte{0xAB}, n)
	data[0] = byte(quality)
	return data, nil
}

// pixelEncoder models a lossy encoder: size grows with quality and area.
type pixelEncoder struct{}

func (pixelEncoder) Format() string    { return "webp" }
func (pixelEncoder) Extension() string { return "webp" }
func (pixelEncoder) Available() bool   { return true }

func (pixelEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	b := img.Bounds()
	n := b.Dx() * b.Dy() * quality / 1000
	if n < 1 {
		n = 1
	}
	return make([]byte, n), nil
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255,
			})
		}
	}
	return img
}

func kb(n int) int { return n * 1024 }

func baseOptions() Options {
	return Options{
		TargetKB:  50,
		MaxWidth:  1280,
		MaxHeight: 720,
		Ladder:    []int{85, 70, 50, 30},
	}
}

func TestCompress_StopsAtFirstFit(t *testing.T) {
	enc := &sizedEncoder{sizes: map[int]int{85: kb(120), 70: kb(80), 50: kb(48), 30: kb(20)}}

	res, err := Compress(gradient(300, 200), baseOptions(), enc)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if res.Quality != 50 {
		t.Errorf("quality: got %d, want 50", res.Quality)
	}
	if !res.MetTarget {
		t.Error("expected target to be met")
	}
	if len(enc.calls) != 3 {
		t.Errorf("encode calls: got %v, want [85 70 50]", enc.calls)
	}
	if res.Data[0] != 50 {
		t.Errorf("returned candidate from quality %d", res.Data[0])
	}
}

func TestCompress_LargeTargetReturnsFirstLevel(t *testing.T) {
	enc := &sizedEncoder{sizes: map[int]int{85: kb(120), 70: kb(80), 50: kb(48), 30: kb(20)}}
	opts := baseOptions()
	opts.TargetKB = 1000

	res, err := Compress(gradient(300, 200), opts, enc)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if res.Quality != 85 || len(enc.calls) != 1 {
		t.Errorf("got quality %d after calls %v, want 85 after one call", res.Quality, enc.calls)
	}
}

func TestCompress_ExhaustedLadderReturnsLast(t *testing.T) {
	// Sizes are not monotonic: the lowest level is not the smallest.
	enc := &sizedEncoder{sizes: map[int]int{85: kb(120), 70: kb(60), 50: kb(90), 30: kb(70)}}

	res, err := Compress(gradient(300, 200), baseOptions(), enc)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if res.Quality != 30 {
		t.Errorf("quality: got %d, want 30", res.Quality)
	}
	if res.MetTarget {
		t.Error("target reported as met")
	}
	if len(res.Data) != kb(70) {
		t.Errorf("size: got %d, want %d", len(res.Data), kb(70))
	}
	if len(res.Attempts) != 4 {
		t.Errorf("attempts: got %d, want 4", len(res.Attempts))
	}
}

func TestCompress_Tolerance(t *testing.T) {
	enc := &sizedEncoder{sizes: map[int]int{85: kb(120), 70: kb(54), 50: kb(40), 30: kb(20)}}
	opts := baseOptions()

	res, err := Compress(gradient(300, 200), opts, enc)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if res.Quality != 50 {
		t.Errorf("without tolerance: got quality %d, want 50", res.Quality)
	}

	enc.calls = nil
	opts.ToleranceKB = 5
	res, err = Compress(gradient(300, 200), opts, enc)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if res.Quality != 70 {
		t.Errorf("with 5KB tolerance: got quality %d, want 70", res.Quality)
	}
}

func TestCompress_BoundaryIsInclusive(t *testing.T) {
	enc := &sizedEncoder{sizes: map[int]int{85: kb(50) + 1, 70: kb(50), 50: kb(10), 30: kb(5)}}

	res, err := Compress(gradient(64, 64), baseOptions(), enc)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if res.Quality != 70 {
		t.Errorf("quality: got %d, want 70", res.Quality)
	}
}

func TestCompress_SkipsRejectedLevels(t *testing.T) {
	enc := &sizedEncoder{sizes: map[int]int{50: kb(90)}}

	res, err := Compress(gradient(64, 64), baseOptions(), enc)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if res.Quality != 50 {
		t.Errorf("quality: got %d, want 50", res.Quality)
	}
	if res.Attempts[0].Err == nil || res.Attempts[3].Err == nil {
		t.Errorf("expected errors recorded for rejected levels: %+v", res.Attempts)
	}
}

func TestCompress_AllLevelsRejected(t *testing.T) {
	enc := &sizedEncoder{sizes: map[int]int{}}

	_, err := Compress(gradient(64, 64), baseOptions(), enc)
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("got %v, want ErrEncoding", err)
	}
}

func TestCompress_DegenerateImage(t *testing.T) {
	enc := &sizedEncoder{sizes: map[int]int{85: 10}}
	img := image.NewNRGBA(image.Rect(0, 0, 0, 10))

	_, err := Compress(img, baseOptions(), enc)
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("got %v, want ErrEncoding", err)
	}
	if len(enc.calls) != 0 {
		t.Errorf("encoder called for degenerate input")
	}
}

func TestCompress_InvalidOptions(t *testing.T) {
	cases := map[string]func(*Options){
		"zero target":      func(o *Options) { o.TargetKB = 0 },
		"negative slack":   func(o *Options) { o.ToleranceKB = -1 },
		"zero width":       func(o *Options) { o.MaxWidth = 0 },
		"empty ladder":     func(o *Options) { o.Ladder = nil },
		"ascending ladder": func(o *Options) { o.Ladder = []int{30, 50} },
		"repeated level":   func(o *Options) { o.Ladder = []int{80, 80} },
		"out of range":     func(o *Options) { o.Ladder = []int{120, 80} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			opts := baseOptions()
			mutate(&opts)
			enc := &sizedEncoder{sizes: map[int]int{85: 1}}
			_, err := Compress(gradient(8, 8), opts, enc)
			if !errors.Is(err, ErrInvalidOptions) {
				t.Fatalf("got %v, want ErrInvalidOptions", err)
			}
			if len(enc.calls) != 0 {
				t.Error("encoder called with invalid options")
			}
		})
	}
}

func TestCompress_FitsWithinBounds(t *testing.T) {
	enc := &sizedEncoder{sizes: map[int]int{85: kb(1)}}

	res, err := Compress(gradient(3000, 2000), baseOptions(), enc)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if res.Width != 1080 || res.Height != 720 {
		t.Errorf("dims: got %dx%d, want 1080x720", res.Width, res.Height)
	}
	if enc.dims[0] != image.Pt(1080, 720) {
		t.Errorf("encoder saw %v", enc.dims[0])
	}
}

func TestCompress_AspectRatioPreserved(t *testing.T) {
	sizes := []image.Point{{3000, 2000}, {2000, 3000}, {1920, 1080}, {5000, 400}, {333, 1999}}
	for _, sz := range sizes {
		enc := &sizedEncoder{sizes: map[int]int{85: 1}}
		res, err := Compress(gradient(sz.X, sz.Y), baseOptions(), enc)
		if err != nil {
			t.Fatalf("%v: %v", sz, err)
		}
		if res.Width > 1280 || res.Height > 720 {
			t.Errorf("%v: output %dx%d exceeds bounds", sz, res.Width, res.Height)
		}
		in := float64(sz.X) / float64(sz.Y)
		out := float64(res.Width) / float64(res.Height)
		// Allow a pixel of truncation on either side.
		tol := 2 * math.Max(in, 1) / float64(min(res.Width, res.Height))
		if math.Abs(in-out) > tol {
			t.Errorf("%v: aspect %.4f became %.4f", sz, in, out)
		}
	}
}

func TestCompress_NeverUpscales(t *testing.T) {
	enc := &sizedEncoder{sizes: map[int]int{85: 1}}

	res, err := Compress(gradient(200, 100), baseOptions(), enc)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if res.Width != 200 || res.Height != 100 {
		t.Errorf("dims: got %dx%d, want 200x100", res.Width, res.Height)
	}
}

func TestCompress_Deterministic(t *testing.T) {
	img := gradient(640, 480)
	a, err := Compress(img, baseOptions(), pixelEncoder{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compress(img, baseOptions(), pixelEncoder{})
	if err != nil {
		t.Fatal(err)
	}
	if a.Quality != b.Quality || !bytes.Equal(a.Data, b.Data) {
		t.Error("same input produced different output")
	}
}

func TestCompress_RepeatDoesNotGrow(t *testing.T) {
	opts := baseOptions()
	opts.TargetKB = 1 // force the whole ladder

	first, err := Compress(gradient(3000, 2000), opts, pixelEncoder{})
	if err != nil {
		t.Fatal(err)
	}
	again, err := Compress(gradient(first.Width, first.Height), Options{
		TargetKB: 1, MaxWidth: 1280, MaxHeight: 720, Ladder: []int{30},
	}, pixelEncoder{})
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Data) > len(first.Data) {
		t.Errorf("recompress grew: %d > %d", len(again.Data), len(first.Data))
	}
}

func TestFlatten_DropsAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 0})
	img.SetNRGBA(1, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	flat := Flatten(img)
	if got := flat.NRGBAAt(0, 0); got != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("transparent pixel: got %v, want white", got)
	}
	if got := flat.NRGBAAt(1, 0); got != (color.NRGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("opaque pixel: got %v", got)
	}
}

func TestFlatten_OffsetBounds(t *testing.T) {
	img := image.NewNRGBA(image.Rect(5, 5, 9, 7))
	for y := 5; y < 7; y++ {
		for x := 5; x < 9; x++ {
			img.SetNRGBA(x, y, color.NRGBA{B: 200, A: 255})
		}
	}
	flat := Flatten(img)
	if flat.Bounds() != image.Rect(0, 0, 4, 2) {
		t.Fatalf("bounds: got %v", flat.Bounds())
	}
	if got := flat.NRGBAAt(3, 1); got.B != 200 || got.A != 255 {
		t.Errorf("pixel: got %v", got)
	}
}
