// Package imaging turns raw uploaded bytes into the canonical pixel buffer
// the recognition pipeline operates on: three-channel color, bounded
// dimensions, contrast enhanced. The transform is pure and deterministic for
// fixed parameters.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/turmalabs/presenca/internal/domain"
)

// DefaultMaxDimension bounds the larger side of a normalized image.
const DefaultMaxDimension = 1200

// jpegQuality is used whenever a normalized image is re-encoded for the
// face engine.
const jpegQuality = 90

// Normalized is a decoded, canonicalized image ready for detection.
type Normalized struct {
	rgba *image.RGBA
}

// Normalize decodes raw bytes and produces the canonical buffer. maxDim <= 0
// falls back to DefaultMaxDimension. Returns domain.ErrInvalidImage when the
// bytes are not a decodable image.
func Normalize(data []byte, maxDim int) (*Normalized, error) {
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	rgba := toRGBA(src)
	rgba = boundDimensions(rgba, maxDim)
	rgba = equalizeLuminance(rgba, claheClipLimit, claheTileGrid)

	return &Normalized{rgba: rgba}, nil
}

// toRGBA flattens any decoded image onto an opaque RGBA buffer. Grayscale
// sources end up with replicated channels; alpha is blended against white.
func toRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

// boundDimensions downscales proportionally so the larger dimension equals
// maxDim. Smaller images pass through untouched; we never upscale.
func boundDimensions(src *image.RGBA, maxDim int) *image.RGBA {
	w := src.Bounds().Dx()
	h := src.Bounds().Dy()
	if w <= maxDim && h <= maxDim {
		return src
	}

	var nw, nh int
	if w > h {
		nw = maxDim
		nh = h * maxDim / w
	} else {
		nh = maxDim
		nw = w * maxDim / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// Bounds returns the pixel bounds of the normalized buffer.
func (n *Normalized) Bounds() image.Rectangle {
	return n.rgba.Bounds()
}

// Width returns the buffer width in pixels.
func (n *Normalized) Width() int { return n.rgba.Bounds().Dx() }

// Height returns the buffer height in pixels.
func (n *Normalized) Height() int { return n.rgba.Bounds().Dy() }

// Crop copies the given region into a standalone buffer. The region is
// clamped to the image bounds; an empty intersection yields an error.
func (n *Normalized) Crop(r image.Rectangle) (*Normalized, error) {
	r = r.Intersect(n.rgba.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("crop region outside image bounds")
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), n.rgba, r.Min, draw.Src)
	return &Normalized{rgba: dst}, nil
}

// EncodeJPEG writes the buffer as JPEG, the artifact format the face engine
// consumes.
func (n *Normalized) EncodeJPEG(w io.Writer) error {
	if err := jpeg.Encode(w, n.rgba, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	return nil
}
