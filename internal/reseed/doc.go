// Package reseed matches local files against tracker torrents so the data
// can be seeded again without downloading it.
//
// MatchFiles pairs a local tree with a torrent manifest in four greedy
// passes: exact path and size, path below the root folder and size,
// unique basename and size, and finally size alone. Earlier passes win and
// every manifest entry must be paired for the match to hold.
// CreateMatchedFiles lays out links so the torrent's paths exist on disk,
// and Finder searches the tracker for candidate torrents.
package reseed
