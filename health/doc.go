// Package health reports on the pipeline's external collaborators: the
// rendering tool and the durable cache tier. Hosts use it to drive setup
// guidance and diagnostics views.
package health
