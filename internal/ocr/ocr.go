package ocr

import (
	"context"
	"errors"
	"image"

	"github.com/disintegration/imaging"
)

// ErrOCRNotEnabled is returned by the Tesseract stub in builds without cgo.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with CGO_ENABLED=1 and tesseract installed")

// Recognizer extracts text from an image.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (*Result, error)
}

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// Region is a recognized word with its location and confidence.
type Region struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Bounds     Bounds  `json:"bounds"`
}

// Result is the outcome of recognizing one image.
type Result struct {
	// Success is false when the engine ran but produced no usable text.
	Success bool `json:"success"`

	// Text is all recognized text with the engine's line breaks.
	Text string `json:"text"`

	// Confidence is the mean word confidence in [0,1]. It is advisory only.
	Confidence float64 `json:"confidence"`

	// ErrorMessage explains an unsuccessful result.
	ErrorMessage string `json:"error_message,omitempty"`

	// Regions holds the individual words. It may be empty even when Text is
	// not, if the engine could not report word boxes.
	Regions []Region `json:"regions"`
}

// Info describes the OCR backend.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Language  string `json:"language"`
	Backend   string `json:"backend"`
	Error     string `json:"error,omitempty"`
}

// Options configures the Tesseract engine.
type Options struct {
	// Language is a Tesseract language code such as "eng" or "eng+deu".
	Language string

	// Whitelist restricts recognition to these characters when set.
	Whitelist string

	// DisableDictionary turns off Tesseract's word lists, which otherwise
	// "correct" codes and figures into dictionary words.
	DisableDictionary bool
}

func (o Options) language() string {
	if o.Language == "" {
		return "eng"
	}
	return o.Language
}

// RecognizeRegion crops rect out of img, recognizes it and shifts the word
// boxes back into img's coordinates. rect is clipped to the image.
func RecognizeRegion(ctx context.Context, r Recognizer, img image.Image, rect image.Rectangle) (*Result, error) {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return &Result{ErrorMessage: "region is outside the image", Regions: []Region{}}, nil
	}

	cropped := imaging.Crop(img, rect)
	result, err := r.Recognize(ctx, cropped)
	if err != nil {
		return nil, err
	}

	for i := range result.Regions {
		result.Regions[i].Bounds.X1 += rect.Min.X
		result.Regions[i].Bounds.Y1 += rect.Min.Y
		result.Regions[i].Bounds.X2 += rect.Min.X
		result.Regions[i].Bounds.Y2 += rect.Min.Y
	}
	return result, nil
}

// meanConfidence averages region confidences, zero without regions.
func meanConfidence(regions []Region) float64 {
	if len(regions) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range regions {
		sum += r.Confidence
	}
	return sum / float64(len(regions))
}
