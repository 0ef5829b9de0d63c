package reseed

import (
	"fmt"
	"log/slog"
	"maps"
	"path"
	"slices"
	"strings"

	"ptpkit/internal/logging"
)

// Match is the outcome of reconciling a local path with a torrent. Files maps
// local paths (relative to Dir) to manifest paths. A failed match carries
// only Reason.
type Match struct {
	TorrentID string
	Dir       string
	Files     map[string]string
	Reason    string
}

// OK reports whether the match identifies a torrent and a directory.
func (m Match) OK() bool {
	return m.TorrentID != "" && m.Dir != ""
}

func (m Match) String() string {
	if !m.OK() {
		return fmt.Sprintf("<no match: %s>", m.Reason)
	}
	return fmt.Sprintf("<match %s:%s>", m.TorrentID, m.Dir)
}

func noMatch(format string, args ...any) Match {
	return Match{Reason: fmt.Sprintf(format, args...)}
}

// pool is a shrinking set of unpaired entries.
type pool map[string]int64

func (p pool) sortedKeys() []string {
	return slices.Sorted(maps.Keys(p))
}

type pass struct {
	name string
	run  func(local, remote pool, pairs map[string]string)
}

var passes = []pass{
	{name: "exact path and size", run: pairExact},
	{name: "path below root and size", run: pairBelowRoot},
	{name: "unique basename and size", run: pairBasename},
	{name: "size only", run: pairSize},
}

// MatchFiles pairs local entries with remote manifest entries. It returns the
// local to remote pairing and the remote paths left unpaired, sorted.
func MatchFiles(local, remote map[string]int64) (map[string]string, []string) {
	return matchFiles(local, remote, nil)
}

func matchFiles(local, remote map[string]int64, logger *slog.Logger) (map[string]string, []string) {
	if logger == nil {
		logger = logging.NewNop()
	}
	localPool := pool(maps.Clone(local))
	remotePool := pool(maps.Clone(remote))
	pairs := make(map[string]string, len(remote))
	total := len(remote)
	for _, p := range passes {
		if len(remotePool) == 0 || len(localPool) == 0 {
			break
		}
		p.run(localPool, remotePool, pairs)
		logger.Debug("match pass complete",
			logging.String("pass", p.name),
			logging.Int("matched", len(pairs)),
			logging.Int("total", total),
		)
	}
	return pairs, remotePool.sortedKeys()
}

func take(local, remote pool, pairs map[string]string, l, r string) {
	pairs[l] = r
	delete(local, l)
	delete(remote, r)
}

func pairExact(local, remote pool, pairs map[string]string) {
	for _, l := range local.sortedKeys() {
		if size, ok := remote[l]; ok && size == local[l] {
			take(local, remote, pairs, l, l)
		}
	}
}

// belowRoot drops the first path segment.
func belowRoot(p string) string {
	_, rest, _ := strings.Cut(path.Clean(p), "/")
	return rest
}

func pairBelowRoot(local, remote pool, pairs map[string]string) {
	for _, l := range local.sortedKeys() {
		suffix := belowRoot(l)
		if suffix == "" {
			continue
		}
		for _, r := range remote.sortedKeys() {
			if belowRoot(r) == suffix && remote[r] == local[l] {
				take(local, remote, pairs, l, r)
				break
			}
		}
	}
}

func pairBasename(local, remote pool, pairs map[string]string) {
	for _, l := range local.sortedKeys() {
		base := path.Base(l)
		var candidate string
		count := 0
		for _, r := range remote.sortedKeys() {
			if path.Base(r) == base {
				count++
				candidate = r
			}
		}
		if count == 1 && remote[candidate] == local[l] {
			take(local, remote, pairs, l, candidate)
		}
	}
}

func pairSize(local, remote pool, pairs map[string]string) {
	for _, l := range local.sortedKeys() {
		for _, r := range remote.sortedKeys() {
			if remote[r] == local[l] {
				take(local, remote, pairs, l, r)
				break
			}
		}
	}
}
