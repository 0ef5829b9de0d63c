// Package guess extracts a movie title and year from a release file name.
package guess

import (
	"path/filepath"
	"strings"

	"github.com/moistari/rls"
)

// Result is a best-effort reading of a release name.
type Result struct {
	Title      string
	Year       int
	Resolution string
	Group      string
}

// Guesser parses release names with rls.
type Guesser struct{}

// Guess parses name, which may be a path. ok is false when no title could be
// read.
func (Guesser) Guess(name string) (Result, bool) {
	base := filepath.Base(strings.TrimRight(name, `/\`))
	if base == "." || base == "" {
		return Result{}, false
	}
	release := rls.ParseString(base)
	title := strings.TrimSpace(release.Title)
	if title == "" {
		return Result{}, false
	}
	return Result{
		Title:      title,
		Year:       release.Year,
		Resolution: release.Resolution,
		Group:      release.Group,
	}, true
}
