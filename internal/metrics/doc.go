// Package metrics holds Prometheus instruments for reseed runs.
//
// A run is a short-lived process, so nothing is served over HTTP. The
// registry is written once to a text file that node_exporter's textfile
// collector can pick up.
package metrics
