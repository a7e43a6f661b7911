// Package compress encodes an image to a size budget by walking a
// descending quality ladder.
//
// The input is flattened onto an opaque background and fitted inside the
// maximum dimensions (never upscaled). Each ladder level is encoded in
// order; the first candidate at or under TargetKB+ToleranceKB is accepted.
// When no level fits, the candidate from the lowest level tried is returned,
// so the target is a best-effort bound rather than a hard limit.
package compress

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/AnyUserName/blogimg-cli/internal/encoder"
	"github.com/disintegration/imaging"
)

var (
	// ErrInvalidOptions is returned before any encoding when Options break
	// their invariants.
	ErrInvalidOptions = errors.New("invalid compress options")

	// ErrEncoding is returned when no ladder level produced output, or the
	// image has a zero dimension.
	ErrEncoding = errors.New("encoding failed")
)

// Background is the color transparent pixels are flattened onto.
var Background color.Color = color.White

// Options controls a single compression call.
type Options struct {
	TargetKB    int   // soft upper bound on output size
	ToleranceKB int   // slack added to TargetKB when testing a candidate
	MaxWidth    int   // output never exceeds this width
	MaxHeight   int   // output never exceeds this height
	Ladder      []int // encoder qualities, strictly decreasing
}

// Validate checks the option invariants.
func (o Options) Validate() error {
	if o.TargetKB <= 0 {
		return fmt.Errorf("%w: target_kb must be positive, got %d", ErrInvalidOptions, o.TargetKB)
	}
	if o.ToleranceKB < 0 {
		return fmt.Errorf("%w: tolerance_kb must not be negative, got %d", ErrInvalidOptions, o.ToleranceKB)
	}
	if o.MaxWidth <= 0 || o.MaxHeight <= 0 {
		return fmt.Errorf("%w: max dimensions must be positive, got %dx%d",
			ErrInvalidOptions, o.MaxWidth, o.MaxHeight)
	}
	return ValidateLadder(o.Ladder)
}

// ValidateLadder reports whether ladder is non-empty, strictly decreasing
// and within 0-100.
func ValidateLadder(ladder []int) error {
	if len(ladder) == 0 {
		return fmt.Errorf("%w: quality ladder is empty", ErrInvalidOptions)
	}
	for i, q := range ladder {
		if q < 0 || q > 100 {
			return fmt.Errorf("%w: quality %d out of range 0-100", ErrInvalidOptions, q)
		}
		if i > 0 && q >= ladder[i-1] {
			return fmt.Errorf("%w: quality ladder must be strictly decreasing (%d after %d)",
				ErrInvalidOptions, q, ladder[i-1])
		}
	}
	return nil
}

// LimitBytes is the accepted candidate size in bytes.
func (o Options) LimitBytes() int {
	return (o.TargetKB + o.ToleranceKB) * 1024
}

// Attempt records one ladder level.
type Attempt struct {
	Quality int
	Size    int
	Err     error
}

// Result is the accepted candidate.
type Result struct {
	Data      []byte
	Quality   int
	Width     int
	Height    int
	MetTarget bool
	Attempts  []Attempt
}

// SizeKB returns the encoded size in kilobytes.
func (r *Result) SizeKB() float64 {
	return float64(len(r.Data)) / 1024
}

// Compress fits img inside the option bounds and encodes it with enc,
// stepping down the quality ladder until a candidate fits.
func Compress(img image.Image, opts Options, enc encoder.Encoder) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: degenerate image %dx%d", ErrEncoding, b.Dx(), b.Dy())
	}

	flat := Flatten(img)
	fitted := imaging.Fit(flat, opts.MaxWidth, opts.MaxHeight, imaging.Lanczos)
	fb := fitted.Bounds()
	if fb.Dx() <= 0 || fb.Dy() <= 0 {
		return nil, fmt.Errorf("%w: resize produced %dx%d", ErrEncoding, fb.Dx(), fb.Dy())
	}

	res := &Result{Width: fb.Dx(), Height: fb.Dy()}
	limit := opts.LimitBytes()
	var lastErr error

	for _, q := range opts.Ladder {
		data, err := enc.Encode(fitted, q)
		if err != nil {
			res.Attempts = append(res.Attempts, Attempt{Quality: q, Err: err})
			lastErr = err
			continue
		}
		res.Attempts = append(res.Attempts, Attempt{Quality: q, Size: len(data)})

		// Latest candidate wins, not the smallest seen.
		res.Data = data
		res.Quality = q

		if len(data) <= limit {
			res.MetTarget = true
			break
		}
	}

	if res.Data == nil {
		return nil, fmt.Errorf("%w: no quality level in %v produced output: %v",
			ErrEncoding, opts.Ladder, lastErr)
	}
	return res, nil
}

// Flatten draws img onto an opaque Background, dropping alpha.
func Flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), Background)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
