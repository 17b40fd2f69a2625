// Package registry keeps the snip records of one open workbook.
//
// Every cell written from a snip carries a reference formula holding the
// snip's id. The [Registry] maps those ids back to where the value came from:
// document, page and region, plus the extracted value, parsed numbers or
// table. It is created per workbook, loaded from the workbook's metadata on
// open and written back on save through [Registry.Serialize] and
// [Registry.Deserialize].
//
// # Concurrency
//
// Mutations are serialized by a mutex. Reads return deep copies, so callers
// never share mutable state with the registry.
//
// # Persistence Format
//
// The blob is a self-describing JSON envelope:
//
//	{"format":"snip-registry","version":1,"saved_at":"...","snips":[...]}
//
// A blob that is missing, malformed or of another format loads as an empty
// registry; persistence problems never surface as errors.
package registry
