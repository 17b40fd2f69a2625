// Package tables turns unstructured OCR text into a structured table.
//
// OCR output of a tabular region rarely arrives in a single clean format: the
// same snip may come back pipe-delimited, tab-separated, column-aligned with
// spaces, or as loose "label: value" pairs. Rather than guessing the format up
// front, the [Extractor] runs every parsing strategy over the text, scores each
// candidate table and keeps the best one.
//
// # Pipeline
//
//  1. Normalization: Unicode NFKC, unified line endings, box-drawing and OCR
//     artefacts mapped to plain ASCII (| - + =), pure border rows dropped
//  2. Strategies: markdown, tab, pipe, comma, semicolon, space-aligned,
//     fixed-width and structured text, optionally evaluated concurrently
//  3. Scoring: each candidate gets a quality score (see below)
//  4. Selection: the highest score wins; below [Config.MinQualityScore] the
//     text becomes a single-column table of logical rows
//  5. Post-processing: whitespace cleanup, OCR digit fixes in numeric cells,
//     empty rows dropped
//
// # Quality Score
//
// The base score is a weighted sum, 1000 points at most with default weights:
//
//   - Row consistency (30%): rows matching the modal column count
//   - Type consistency (25%): numeric/date/boolean/text agreement per column
//   - Header plausibility (20%): keywords, non-numeric, reasonable length
//   - Content quality (15%): numeric/text mix, few empty cells
//   - Structural integrity (10%): row count against source lines
//
// Flat bonuses reward financial and date patterns, consistent numeric
// formatting and a reasonable size; flat penalties hit mostly-empty,
// single-column, single-row and oversized results. Every weight and threshold
// lives on [Config] so callers can retune them.
//
// # Failure Model
//
// Extract never fails. A strategy that panics is recovered and scores zero;
// empty input yields an empty table.
package tables
