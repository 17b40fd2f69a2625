package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestHighlight(t *testing.T) {
	page := createInMemoryImage(50, 50, color.RGBA{255, 255, 255, 255})

	result, err := Highlight(page, image.Rect(10, 10, 30, 30), "#ff0000", 2)
	if err != nil {
		t.Fatalf("Highlight failed: %v", err)
	}

	// Outline
	for _, p := range []image.Point{{10, 10}, {11, 20}, {29, 29}, {20, 28}} {
		if got := result.RGBAAt(p.X, p.Y); got != (color.RGBA{255, 0, 0, 255}) {
			t.Errorf("outline at %v: got %+v, want red", p, got)
		}
	}

	// Tinted interior
	inner := result.RGBAAt(20, 20)
	if inner.R != 255 || inner.G < 190 || inner.G > 215 || inner.G != inner.B {
		t.Errorf("interior tint: got %+v, want light red", inner)
	}

	// Outside untouched
	if got := result.RGBAAt(5, 5); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("outside pixel: got %+v, want white", got)
	}

	// Source page untouched
	r, g, b, _ := page.At(10, 10).RGBA()
	if r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Error("Highlight modified the source page")
	}
}

func TestHighlight_ClipsAndMisses(t *testing.T) {
	page := createInMemoryImage(20, 20, color.RGBA{0, 0, 0, 255})

	clipped, err := Highlight(page, image.Rect(15, 15, 40, 40), "#00ff00", 1)
	if err != nil {
		t.Fatalf("Highlight failed: %v", err)
	}
	if got := clipped.RGBAAt(15, 15); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("clipped outline: got %+v, want green", got)
	}

	missed, err := Highlight(page, image.Rect(100, 100, 120, 120), "#00ff00", 1)
	if err != nil {
		t.Fatalf("Highlight failed: %v", err)
	}
	if got := missed.RGBAAt(10, 10); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("page should be unchanged, got %+v", got)
	}
}

func TestHighlight_Errors(t *testing.T) {
	page := createInMemoryImage(10, 10, color.White)

	if _, err := Highlight(page, image.Rect(0, 0, 5, 5), "not-a-color", 1); err == nil {
		t.Error("Highlight should fail for invalid color")
	}
	if _, err := Highlight(nil, image.Rect(0, 0, 5, 5), "#ff0000", 1); err == nil {
		t.Error("Highlight should fail for nil image")
	}
}
