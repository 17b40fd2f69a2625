//go:build cgo

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract recognizes text with a local Tesseract installation. A fresh
// gosseract client is used per call, so a Tesseract value is safe for
// concurrent use.
type Tesseract struct {
	opts Options
}

// NewTesseract creates a Tesseract recognizer.
func NewTesseract(opts Options) *Tesseract {
	return &Tesseract{opts: opts}
}

type recognition struct {
	result *Result
	err    error
}

// Recognize performs OCR on img. It returns ctx.Err() if the context is done
// before Tesseract finishes.
//
// # Word-Level Results
//
// Regions are reported at Tesseract's RIL_WORD level with confidences scaled
// to [0,1]. If word boxes cannot be extracted, which happens with some
// Tesseract configurations, the full text is still returned with no regions.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	done := make(chan recognition, 1)
	go func() {
		result, err := t.recognize(buf.Bytes())
		done <- recognition{result, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.result, r.err
	}
}

func (t *Tesseract) recognize(data []byte) (*Result, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.opts.language()); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if t.opts.Whitelist != "" {
		if err := client.SetWhitelist(t.opts.Whitelist); err != nil {
			return nil, fmt.Errorf("failed to set whitelist: %w", err)
		}
	}
	if t.opts.DisableDictionary {
		_ = client.SetVariable("load_system_dawg", "false")
		_ = client.SetVariable("load_freq_dawg", "false")
	}

	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("tesseract OCR failed: %w", err)
	}

	result := &Result{Text: text, Regions: []Region{}}
	if boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD); err == nil {
		for _, box := range boxes {
			if strings.TrimSpace(box.Word) == "" {
				continue
			}
			result.Regions = append(result.Regions, Region{
				Text:       box.Word,
				Confidence: float64(box.Confidence) / 100.0,
				Bounds: Bounds{
					X1: box.Box.Min.X,
					Y1: box.Box.Min.Y,
					X2: box.Box.Max.X,
					Y2: box.Box.Max.Y,
				},
			})
		}
	}

	result.Confidence = meanConfidence(result.Regions)
	result.Success = strings.TrimSpace(text) != ""
	if !result.Success {
		result.ErrorMessage = "no text recognized"
	}
	return result, nil
}

// Info reports whether Tesseract can be used.
func (t *Tesseract) Info() Info {
	info := Info{Language: t.opts.language(), Backend: "gosseract"}

	client := gosseract.NewClient()
	defer client.Close()

	info.Version = client.Version()
	if err := client.SetLanguage(info.Language); err != nil {
		info.Error = err.Error()
		return info
	}
	info.Available = info.Version != ""
	return info
}
