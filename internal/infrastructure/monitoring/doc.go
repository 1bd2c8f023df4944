// Package monitoring provides Prometheus metrics for the host core.
//
// The host is embedded in a desktop application, so this package does
// not expose an HTTP endpoint itself; the embedder decides whether and
// where to serve the registry returned by Metrics.Registry.
package monitoring
