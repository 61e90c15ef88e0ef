// Package renderer abstracts the external diagram rendering tool.
//
// The tool is an out-of-process dependency whose presence can change
// between calls, so availability is a point-in-time answer, never a cached
// fact. Two implementations exist: the mermaid CLI and a remote rendering
// service authenticated with short-lived bearer tokens.
package renderer
