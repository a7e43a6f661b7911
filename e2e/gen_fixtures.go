//go:build ignore

// gen_fixtures creates a small blog tree for smoke-testing convert and attach.
// Usage: go run gen_fixtures.go <output_dir>
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
)

const samplePost = `---
title: Shipping Images Under Fifty Kilobytes
date: 2024-05-01
tags: [images, webp]
---

Header images should stay small.
`

const illustratedPost = `---
title: Already Illustrated
image:
  path: /assets/img/headers/already-illustrated.webp
---

This post keeps its header.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]
	for _, sub := range []string{"images/nested", "_posts"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			panic(err)
		}
	}

	// Camera-sized noisy photo: forces several ladder steps.
	writeJPEG(filepath.Join(dir, "images", "hero.jpg"), noisyGradient(3000, 2000))

	// Header-sized PNG with transparency, flattened onto white.
	writePNG(filepath.Join(dir, "images", "logo.png"), alphaGradient(640, 360))

	// Same stem in a nested dir to exercise collision naming.
	writePNG(filepath.Join(dir, "images", "nested", "hero.png"), noisyGradient(800, 600))

	writeFile(filepath.Join(dir, "_posts", "2024-05-01-shipping-images.md"), samplePost)
	writeFile(filepath.Join(dir, "_posts", "2024-04-01-already-illustrated.md"), illustratedPost)

	fmt.Fprintf(os.Stderr, "[gen_fixtures] created 3 images and 2 posts in %s\n", dir)
}

func noisyGradient(w, h int) *image.NRGBA {
	rng := rand.New(rand.NewSource(42))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := uint8(rng.Intn(64))
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x*191/w) + n,
				G: uint8(y*191/h) + n,
				B: 96 + n,
				A: 255,
			})
		}
	}
	return img
}

func alphaGradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: 220, G: 60, B: 30,
				A: uint8(x * 255 / w),
			})
		}
	}
	return img
}

func writePNG(path string, img *image.NRGBA) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		panic(err)
	}
}

func writeJPEG(path string, img *image.NRGBA) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 92}); err != nil {
		panic(err)
	}
}

func writeFile(path, content string) {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		panic(err)
	}
}
