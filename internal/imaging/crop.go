package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
)

// EncodedImage is a PNG image ready to be returned to a client.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// RegionRect converts snip bounds expressed as floats into the smallest pixel
// rectangle that covers them.
func RegionRect(x, y, width, height float64) image.Rectangle {
	return image.Rect(
		int(math.Floor(x)),
		int(math.Floor(y)),
		int(math.Ceil(x+width)),
		int(math.Ceil(y+height)),
	)
}

// CropRegion extracts the snip rectangle (x, y, width, height) from a page
// image and optionally rescales it.
//
// A rectangle that hangs over the page edge is clipped to the page; one that
// misses the page entirely, or has no area, is an error. A scale of 0 or 1
// leaves the crop at its native size.
func CropRegion(img image.Image, x, y, width, height int, scale float64) (*image.NRGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("no image to crop")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid crop region: width and height must be positive (got %dx%d)", width, height)
	}

	bounds := img.Bounds()
	rect := image.Rect(x, y, x+width, y+height).Intersect(bounds)
	if rect.Empty() {
		return nil, fmt.Errorf("crop region (%d,%d %dx%d) outside image bounds (%d,%d)-(%d,%d)",
			x, y, width, height, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}

	cropped := imaging.Crop(img, rect)

	if scale > 0 && scale != 1.0 {
		newWidth := max(1, int(float64(cropped.Bounds().Dx())*scale))
		newHeight := max(1, int(float64(cropped.Bounds().Dy())*scale))
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	return cropped, nil
}

// EncodePNGBase64 encodes img as a base64 PNG.
func EncodePNGBase64(img image.Image) (*EncodedImage, error) {
	if img == nil {
		return nil, fmt.Errorf("no image to encode")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
