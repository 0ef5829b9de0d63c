// Package testsupport holds fixtures shared by tests: a canned tracker
// fetcher, a matching local release with its tracker pages and .torrent,
// and temp-dir configuration and ledger helpers.
package testsupport
