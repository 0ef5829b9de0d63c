// Package main hosts the ptp CLI entrypoint and command graph.
//
// The Cobra command tree wires configuration, logging, the rate-limited
// tracker transport and the lazy catalog together, then hands off to the
// internal packages: reseed matches local files against tracker manifests,
// best applies a selection profile to a movie, and search, download and user
// expose the catalog directly.
//
// Keep this package thin. New behaviour belongs in internal packages first.
package main
