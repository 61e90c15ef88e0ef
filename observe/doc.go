// Package observe provides telemetry for the render pipeline: OpenTelemetry
// tracing and metrics plus a structured JSON logger, bundled behind a single
// Observer with pluggable exporters.
package observe
