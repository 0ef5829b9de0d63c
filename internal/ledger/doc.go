// Package ledger records reseed outcomes in SQLite.
//
// The ledger answers whether a path has already been handed to the download
// client, so repeated runs over the same library skip work, and it backs the
// end-of-run summary. Open takes an exclusive file lock next to the database
// so two reseed runs never interleave.
package ledger
