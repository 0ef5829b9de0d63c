package reseed

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path/filepath"
	"slices"

	"ptpkit/internal/fileutil"
	"ptpkit/internal/logging"
)

// Action selects how matched files are created.
type Action string

// Link actions.
const (
	ActionHard Action = "hard"
	ActionSoft Action = "soft"
	ActionSkip Action = "skip"
)

// CreateOptions controls CreateMatchedFiles.
type CreateOptions struct {
	// Directory receives the torrent layout; the match directory when empty.
	Directory string
	Action    Action
	DryRun    bool
}

// Report lists what CreateMatchedFiles did, by destination path.
type Report struct {
	Created  []string
	Existing []string
	Planned  []string
}

// CreateMatchedFiles makes every manifest path of m exist under the target
// directory, linking it to the paired local file. Destinations that already
// exist are left alone, so repeated calls write nothing new. The returned
// match has Dir set to the target directory.
func CreateMatchedFiles(m Match, opts CreateOptions, options ...Option) (Match, Report, error) {
	var report Report
	if !m.OK() {
		return m, report, fmt.Errorf("cannot create files for failed match: %s", m.Reason)
	}
	action := opts.Action
	if action == "" {
		action = ActionHard
	}
	switch action {
	case ActionHard, ActionSoft, ActionSkip:
	default:
		return m, report, fmt.Errorf("unknown link action %q", action)
	}
	dir := opts.Directory
	if dir == "" {
		dir = m.Dir
	}
	logger := newSettings(options).logger
	if opts.DryRun {
		logger.Info("dry run, no files or directories will be created")
	}

	for _, localPath := range slices.Sorted(maps.Keys(m.Files)) {
		origin := filepath.Join(m.Dir, filepath.FromSlash(localPath))
		dest := filepath.Join(dir, filepath.FromSlash(m.Files[localPath]))

		exists, err := fileutil.Exists(dest)
		if err != nil {
			return m, report, fmt.Errorf("check %s: %w", dest, err)
		}
		if exists {
			logger.Debug("file already exists, skipping creation", logging.String(logging.FieldPath, dest))
			report.Existing = append(report.Existing, dest)
			continue
		}
		if opts.DryRun || action == ActionSkip {
			logger.Info("would create file",
				logging.String(logging.FieldPath, dest),
				logging.String("origin", origin),
				logging.String("action", string(action)),
			)
			report.Planned = append(report.Planned, dest)
			continue
		}

		logger.Info("creating file",
			logging.String(logging.FieldPath, dest),
			logging.String("origin", origin),
			logging.String("action", string(action)),
		)
		if action == ActionSoft {
			err = fileutil.SymbolicLink(origin, dest)
		} else {
			err = fileutil.HardLink(origin, dest)
		}
		switch {
		case err == nil:
			report.Created = append(report.Created, dest)
		case errors.Is(err, fs.ErrExist):
			report.Existing = append(report.Existing, dest)
		default:
			return m, report, err
		}
	}
	m.Dir = dir
	return m, report, nil
}
