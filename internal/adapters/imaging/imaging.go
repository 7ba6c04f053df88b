// Package imaging bounds uploaded logos before they are embedded in a document.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// MaxDimension is the pixel ceiling for either side of an embedded image.
	MaxDimension = 1800
	// JPEGQuality is the re-encode quality for embedded images.
	JPEGQuality = 85
	// MaxPixels bounds the decoded size of an upload; headers are checked before decoding.
	MaxPixels = 50_000_000
)

var (
	// ErrDecode is returned when the upload is not a decodable PNG, JPEG, GIF or WebP.
	ErrDecode = errors.New("image could not be decoded")
	// ErrTooManyPixels is returned when the header declares more than MaxPixels.
	ErrTooManyPixels = errors.New("image dimensions are too large")
)

// Result is a re-encoded JPEG and its pixel size.
type Result struct {
	Data   []byte
	Width  int
	Height int
}

// Fit scales w x h down so neither side exceeds limit, keeping the aspect ratio.
// Images already inside the box are returned unchanged.
// PRE: w, h, limit > 0
// POST: 1 <= width <= limit and 1 <= height <= limit
func Fit(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		nh := int(math.Round(float64(h) * float64(limit) / float64(w)))
		return limit, clampMin(nh)
	}
	nw := int(math.Round(float64(w) * float64(limit) / float64(h)))
	return clampMin(nw), limit
}

func clampMin(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// Inspect reads only the image header and checks it against MaxPixels.
// POST: errors wrap ErrDecode; oversize images also wrap ErrTooManyPixels
func Inspect(data []byte) (image.Config, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return image.Config{}, fmt.Errorf("%w: empty bounds", ErrDecode)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return image.Config{}, fmt.Errorf("%w: %w: %dx%d", ErrDecode, ErrTooManyPixels, cfg.Width, cfg.Height)
	}
	return cfg, nil
}

// Downscale decodes data, fits it inside maxDim x maxDim and re-encodes it as JPEG.
// Transparent areas are flattened onto white. The header is checked with
// Inspect first, so no pixel buffer is allocated for oversize images.
// PRE: maxDim > 0
// POST: returned Data is a JPEG no larger than maxDim on either side
func Downscale(data []byte, maxDim int) (Result, error) {
	if _, err := Inspect(data); err != nil {
		return Result{}, err
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	b := src.Bounds()
	if b.Empty() {
		return Result{}, fmt.Errorf("%w: empty bounds", ErrDecode)
	}

	w, h := Fit(b.Dx(), b.Dy(), maxDim)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return Result{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return Result{Data: buf.Bytes(), Width: w, Height: h}, nil
}
