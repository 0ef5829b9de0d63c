// Package textutil cleans names received from the tracker before they are
// used on the local filesystem.
package textutil
