package imaging

import (
	"image"
	"image/color"
	"testing"
)

// createInkImage draws a black block on a white background, like a glyph on paper.
func createInkImage(width, height int, ink image.Rectangle) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (image.Point{X: x, Y: y}).In(ink) {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}
	return img
}

func TestClean_Binarizes(t *testing.T) {
	img := createInkImage(200, 120, image.Rect(50, 30, 150, 90))

	cleaned := Clean(img)
	gray, ok := cleaned.(*image.Gray)
	if !ok {
		t.Fatalf("Clean should return *image.Gray, got %T", cleaned)
	}

	if gray.Bounds().Dx() != 200 || gray.Bounds().Dy() != 120 {
		t.Errorf("dimensions: got %dx%d, want 200x120 (no upscale above MinHeight)",
			gray.Bounds().Dx(), gray.Bounds().Dy())
	}

	for _, v := range gray.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("binarized image contains gray level %d", v)
		}
	}

	if got := gray.GrayAt(100, 60).Y; got != 0 {
		t.Errorf("ink pixel: got %d, want 0", got)
	}
	if got := gray.GrayAt(5, 5).Y; got != 255 {
		t.Errorf("paper pixel: got %d, want 255", got)
	}
}

func TestClean_UpscalesSmallSnips(t *testing.T) {
	img := createInkImage(20, 10, image.Rect(5, 2, 15, 8))

	cleaned := Clean(img)
	if cleaned == nil {
		t.Fatal("Clean returned nil")
	}

	// MinHeight 96 would need x10; MaxUpscale caps it at x4.
	if cleaned.Bounds().Dx() != 80 || cleaned.Bounds().Dy() != 40 {
		t.Errorf("dimensions: got %dx%d, want 80x40", cleaned.Bounds().Dx(), cleaned.Bounds().Dy())
	}
}

func TestCleanWith_NoBinarize(t *testing.T) {
	img := createPatternImage(100, 100)
	opts := DefaultCleanOptions()
	opts.Binarize = false

	cleaned := CleanWith(img, opts)
	nrgba, ok := cleaned.(*image.NRGBA)
	if !ok {
		t.Fatalf("expected *image.NRGBA without binarization, got %T", cleaned)
	}

	// Grayscale output has equal channels.
	c := nrgba.NRGBAAt(10, 10)
	if c.R != c.G || c.G != c.B {
		t.Errorf("pixel is not gray: %+v", c)
	}
}

func TestClean_DoesNotModifyInput(t *testing.T) {
	img := createPatternImage(40, 40)
	before := img.RGBAAt(5, 5)

	_ = Clean(img)

	if img.RGBAAt(5, 5) != before {
		t.Error("Clean modified its input")
	}
}

func TestClean_Empty(t *testing.T) {
	if Clean(nil) != nil {
		t.Error("Clean(nil) should return nil")
	}
	if Clean(image.NewRGBA(image.Rect(0, 0, 0, 0))) != nil {
		t.Error("Clean of an empty image should return nil")
	}
}
