// Package counter counts HTML tag occurrences in retrieved markup.
//
// Counting never fails: an ordered cascade of parse strategies is tried
// (plain parse, charset-detected parse, BOM-stripped parse), and when
// none can produce a document tree a regex opening-tag match serves as
// the final fallback.
package counter
