// Package resilience wraps the pipeline's unreliable collaborators: a
// bounded-wait Timeout for the external renderer call and a Retry with
// exponential backoff for the Redis cache tier.
package resilience
