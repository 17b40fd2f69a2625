// Package ocr provides Optical Character Recognition (OCR) for snipped regions
// using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2) behind the
// [Recognizer] interface, so the snip coordinator can be driven by a fake in
// tests and by Tesseract in production.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr
//   - macOS: brew install tesseract
//   - Windows: Download from https://github.com/UB-Mannheim/tesseract/wiki
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//   - Other languages: tesseract-ocr-<lang> packages
//
// Builds without cgo get a stub [Tesseract] whose methods return
// [ErrOCRNotEnabled]; everything else in the module keeps working on text
// supplied by the caller.
//
// # Supported Languages
//
// The default language is English ("eng"). Other languages can be specified
// using their Tesseract language codes:
//   - "eng" - English
//   - "deu" - German
//   - "fra" - French
//   - "eng+deu" - several languages at once
//
// # Cancellation
//
// Tesseract calls cannot be interrupted. Recognize runs the engine on its own
// goroutine and returns as soon as the context is done; the abandoned call
// finishes in the background and its result is discarded.
//
// # Coordinates
//
// [RecognizeRegion] crops the region first and shifts the word boxes back, so
// every [Region] is in the coordinates of the full page image.
package ocr
