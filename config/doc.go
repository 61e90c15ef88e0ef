// Package config loads host configuration for the rendering pipeline.
//
// Configuration is read from an optional YAML file, overridden by
// DIAGRAMFLOW_* environment variables, and falls back to defaults that
// make the zero configuration usable. Secret-bearing fields support
// ${VAR} expansion from the environment so credentials stay out of
// config files.
package config
