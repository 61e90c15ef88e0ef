// Package render coordinates the diagram pipeline: sanitize, derive the
// cache key, consult the two-tier cache, and only then probe and invoke the
// external renderer.
//
// Each request runs on its own goroutine and reports progress through a
// channel of state transitions, so a presentation layer never blocks on
// disk or subprocess I/O. Concurrent identical requests are coalesced into
// one renderer invocation.
package render
