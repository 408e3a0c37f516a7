package imaging

import (
	"image"
	"image/color"
)

// Contrast enhancement parameters, matching the reference pipeline: adaptive
// histogram equalization with a bounded clip limit over an 8x8 tile grid,
// applied to the luminance channel only.
const (
	claheClipLimit = 3.0
	claheTileGrid  = 8
)

// equalizeLuminance runs CLAHE on the Y channel of the image in YCbCr space.
// Chroma channels pass through unchanged, so colors are preserved while local
// contrast improves. Returns a new buffer; the input is not mutated.
func equalizeLuminance(img *image.RGBA, clipLimit float64, grid int) *image.RGBA {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	if w == 0 || h == 0 {
		return img
	}

	gridX := grid
	gridY := grid
	if gridX > w {
		gridX = w
	}
	if gridY > h {
		gridY = h
	}

	// Luminance plane.
	lum := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			yy, _, _ := color.RGBToYCbCr(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
			lum[y*w+x] = yy
		}
	}

	luts := buildTileLUTs(lum, w, h, gridX, gridY, clipLimit)

	tileW := float64(w) / float64(gridX)
	tileH := float64(h) / float64(gridY)

	out := image.NewRGBA(img.Bounds())
	for y := 0; y < h; y++ {
		// Vertical tile neighbors and interpolation weight for this row.
		fy := (float64(y)+0.5)/tileH - 0.5
		ty0, ty1, wy := neighbors(fy, gridY)

		for x := 0; x < w; x++ {
			fx := (float64(x)+0.5)/tileW - 0.5
			tx0, tx1, wx := neighbors(fx, gridX)

			v := lum[y*w+x]
			top := (1-wx)*float64(luts[ty0*gridX+tx0][v]) + wx*float64(luts[ty0*gridX+tx1][v])
			bot := (1-wx)*float64(luts[ty1*gridX+tx0][v]) + wx*float64(luts[ty1*gridX+tx1][v])
			newY := uint8(clamp255((1-wy)*top + wy*bot))

			i := img.PixOffset(x, y)
			_, cb, cr := color.RGBToYCbCr(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
			r, g, b := color.YCbCrToRGB(newY, cb, cr)

			o := out.PixOffset(x, y)
			out.Pix[o] = r
			out.Pix[o+1] = g
			out.Pix[o+2] = b
			out.Pix[o+3] = img.Pix[i+3]
		}
	}

	return out
}

// buildTileLUTs computes one clipped-equalization lookup table per tile.
func buildTileLUTs(lum []uint8, w, h, gridX, gridY int, clipLimit float64) [][256]uint8 {
	luts := make([][256]uint8, gridX*gridY)

	for ty := 0; ty < gridY; ty++ {
		y0 := ty * h / gridY
		y1 := (ty + 1) * h / gridY

		for tx := 0; tx < gridX; tx++ {
			x0 := tx * w / gridX
			x1 := (tx + 1) * w / gridX

			var hist [256]int
			count := 0
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					hist[lum[y*w+x]]++
					count++
				}
			}
			if count == 0 {
				// Degenerate tile on tiny images; identity mapping.
				for v := 0; v < 256; v++ {
					luts[ty*gridX+tx][v] = uint8(v)
				}
				continue
			}

			clipHistogram(&hist, count, clipLimit)

			// Cumulative distribution to LUT.
			cdf := 0
			for v := 0; v < 256; v++ {
				cdf += hist[v]
				luts[ty*gridX+tx][v] = uint8(clamp255(float64(cdf) * 255.0 / float64(count)))
			}
		}
	}

	return luts
}

// clipHistogram caps each bin at clipLimit times the uniform bin height and
// redistributes the excess evenly across all bins.
func clipHistogram(hist *[256]int, count int, clipLimit float64) {
	limit := int(clipLimit * float64(count) / 256.0)
	if limit < 1 {
		limit = 1
	}

	excess := 0
	for v := 0; v < 256; v++ {
		if hist[v] > limit {
			excess += hist[v] - limit
			hist[v] = limit
		}
	}

	share := excess / 256
	rest := excess % 256
	for v := 0; v < 256; v++ {
		hist[v] += share
	}
	for v := 0; v < rest; v++ {
		hist[v]++
	}
}

// neighbors returns the two tile indices bracketing position f and the
// interpolation weight of the second one. Edges clamp to the border tile.
func neighbors(f float64, grid int) (int, int, float64) {
	if f <= 0 {
		return 0, 0, 0
	}
	if f >= float64(grid-1) {
		return grid - 1, grid - 1, 0
	}
	i := int(f)
	return i, i + 1, f - float64(i)
}

func clamp255(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 255 {
		return 255
	}
	return f
}
