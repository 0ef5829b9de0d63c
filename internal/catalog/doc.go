// Package catalog models tracker objects (movies, torrents, users) as lazily
// populated records.
//
// Each entity holds a partial field map and a fixed schema assigning every
// field name to exactly one loader group. Reading an unset field runs the
// loader for its group once; the loader fills every field of the group,
// marking the ones the tracker omitted with a sentinel so later reads report
// ErrRemoteDataMissing without going back to the network. Loaders may also
// populate subordinate entities, e.g. loading a movie page fills the file
// manifests of its torrents.
//
// Entities are owned by the caller that created them and are not safe for
// concurrent use. Two entities for the same remote id are independent.
package catalog
