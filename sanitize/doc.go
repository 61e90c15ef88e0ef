// Package sanitize repairs common defects in AI-generated diagram markup
// before it is handed to a renderer.
//
// Repair is deliberately pattern-based and best-effort: each stage is gated
// on a grammar marker, fixes only what it recognizes, and passes everything
// else through unchanged. Sanitize is total and idempotent - it never fails,
// and at worst substitutes a fixed diagnostic diagram.
package sanitize
