//go:build !cgo

package ocr

import (
	"context"
	"image"
)

// Tesseract is a stub used when the module is built without cgo. Every
// recognition returns ErrOCRNotEnabled.
type Tesseract struct {
	opts Options
}

// NewTesseract creates the stub recognizer.
func NewTesseract(opts Options) *Tesseract {
	return &Tesseract{opts: opts}
}

// Recognize returns ErrOCRNotEnabled.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, ErrOCRNotEnabled
}

// Info reports OCR as unavailable.
func (t *Tesseract) Info() Info {
	return Info{
		Language: t.opts.language(),
		Backend:  "none",
		Error:    ErrOCRNotEnabled.Error(),
	}
}
