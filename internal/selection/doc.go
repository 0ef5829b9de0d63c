// Package selection picks the best torrent of a movie from a profile string.
//
// A profile is a comma-separated list of sub-profiles tried in order. Each
// sub-profile holds boolean filter words (1080p, gp, not-remux, ...),
// comparisons on numeric fields (seeders>0, size<8GiB) and at most one sort
// phrase (most recent, smallest, largest, most seeders). The first
// sub-profile that leaves at least one candidate wins.
package selection
