package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/lucasb-eyer/go-colorful"
)

// highlightTint is how strongly the inside of a highlighted region is blended
// toward the highlight colour.
const highlightTint = 0.2

// Highlight draws the source region of a snip onto a copy of its page image:
// an outline of the given thickness in hexColor ("#RRGGBB") and a light tint of
// the same colour inside. The page itself is left untouched.
//
// The rectangle is clipped to the page. An invalid colour is an error, and a
// rectangle that misses the page returns the plain copy.
func Highlight(img image.Image, rect image.Rectangle, hexColor string, thickness int) (*image.RGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("no image to highlight")
	}
	hl, err := colorful.Hex(hexColor)
	if err != nil {
		return nil, fmt.Errorf("failed to parse highlight color %q: %w", hexColor, err)
	}
	if thickness < 1 {
		thickness = 1
	}

	bounds := img.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, img, bounds.Min, draw.Src)

	rect = rect.Intersect(bounds)
	if rect.Empty() {
		return result, nil
	}

	r, g, b := hl.RGB255()
	edge := color.RGBA{R: r, G: g, B: b, A: 255}

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if onBorder(rect, x, y, thickness) {
				result.SetRGBA(x, y, edge)
				continue
			}
			px, ok := colorful.MakeColor(result.At(x, y))
			if !ok {
				result.SetRGBA(x, y, edge)
				continue
			}
			tr, tg, tb := px.BlendRgb(hl, highlightTint).Clamped().RGB255()
			result.SetRGBA(x, y, color.RGBA{R: tr, G: tg, B: tb, A: 255})
		}
	}

	return result, nil
}

func onBorder(rect image.Rectangle, x, y, thickness int) bool {
	return x < rect.Min.X+thickness || x >= rect.Max.X-thickness ||
		y < rect.Min.Y+thickness || y >= rect.Max.Y-thickness
}
