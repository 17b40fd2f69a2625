// Package snip coordinates a single snip: the user arms a mode, draws a
// rectangle on a document page and picks a target cell, and ProcessSnip turns
// the region's text (or bitmap) into a cell value backed by a registry record.
//
// # Modes
//
//   - Text: OCR text cleaned and written as-is
//   - Sum: every number in the text added up
//   - Table: the text parsed into a table, written from the target cell down
//   - Validation, Exception: fixed ✓ / ✗ marks, no OCR
//   - Image: the cleaned bitmap itself
//
// # Outcomes
//
// ProcessSnip returns a Result instead of an error. Bad requests and hard
// failures (no table found, OCR broken in Table mode) are StatusFailure and
// register nothing. Text and Sum snips that come back empty are
// StatusSoftFailure: a placeholder such as "[No text detected]" is registered
// and written so the cell always shows something.
package snip
