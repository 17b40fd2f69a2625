package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// CleanOptions tunes the Image-mode cleanup pipeline.
type CleanOptions struct {
	// MinHeight is the height below which a snip is upscaled before the
	// remaining steps run. Small snips lose their strokes when sharpened.
	MinHeight int

	// MaxUpscale caps the upscale factor applied to small snips.
	MaxUpscale int

	// Contrast is the percentage passed to imaging.AdjustContrast (-100..100).
	Contrast float64

	// Sharpen is the gaussian sigma passed to imaging.Sharpen. 0 disables it.
	Sharpen float64

	// Binarize converts the result to pure black and white at Threshold.
	Binarize  bool
	Threshold uint8
}

// DefaultCleanOptions returns the settings used for Image-mode snips.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{
		MinHeight:  96,
		MaxUpscale: 4,
		Contrast:   25,
		Sharpen:    1.0,
		Binarize:   true,
		Threshold:  160,
	}
}

// Clean prepares a snipped region for embedding in a workbook using
// DefaultCleanOptions.
func Clean(img image.Image) image.Image {
	return CleanWith(img, DefaultCleanOptions())
}

// CleanWith runs the cleanup pipeline on img:
//
//  1. grayscale
//  2. upscale when the snip is shorter than MinHeight
//  3. contrast boost
//  4. sharpen
//  5. optional binarization
//
// The input is never modified. A nil or empty image yields nil.
func CleanWith(img image.Image, opts CleanOptions) image.Image {
	if img == nil || img.Bounds().Empty() {
		return nil
	}

	out := imaging.Grayscale(img)

	if h := out.Bounds().Dy(); opts.MinHeight > 0 && h < opts.MinHeight {
		factor := (opts.MinHeight + h - 1) / h
		if opts.MaxUpscale > 0 {
			factor = min(factor, opts.MaxUpscale)
		}
		if factor > 1 {
			out = imaging.Resize(out, out.Bounds().Dx()*factor, 0, imaging.Lanczos)
		}
	}

	if opts.Contrast != 0 {
		out = imaging.AdjustContrast(out, opts.Contrast)
	}
	if opts.Sharpen > 0 {
		out = imaging.Sharpen(out, opts.Sharpen)
	}

	if opts.Binarize {
		return segment.Threshold(out, opts.Threshold)
	}
	return out
}
