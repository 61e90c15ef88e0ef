// Package cache provides the content-addressed image cache for rendered
// diagrams.
//
// It derives stable SHA-256 keys from sanitized source plus render
// parameters and layers a process-lifetime memory tier over a durable tier
// (disk by default, Redis for shared deployments). Durable-tier failures
// degrade to cache misses; they never fail a render.
package cache
