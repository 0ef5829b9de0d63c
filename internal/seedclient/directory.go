package seedclient

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ptpkit/internal/fileutil"
	"ptpkit/internal/logging"
)

// Directory drops torrents into a watch directory for a client to pick up.
// The save directory is not conveyed, so it suits clients whose watch
// folder already points at the seeding location.
type Directory struct {
	dir    string
	logger *slog.Logger
}

// NewDirectory creates a watch-directory loader.
func NewDirectory(dir string, logger *slog.Logger) *Directory {
	return &Directory{dir: dir, logger: logging.NewComponentLogger(logger, "seedclient")}
}

// Load writes <info hash>.torrent. It returns false when the file exists.
func (d *Directory) Load(_ context.Context, torrent []byte, saveDir string) (bool, error) {
	meta, err := Inspect(torrent)
	if err != nil {
		return false, err
	}
	dest := filepath.Join(d.dir, meta.InfoHash+".torrent")
	exists, err := fileutil.Exists(dest)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := fileutil.EnsureParent(dest); err != nil {
		return false, err
	}
	if err := os.WriteFile(dest, torrent, 0o644); err != nil {
		return false, fmt.Errorf("write torrent: %w", err)
	}
	d.logger.Info("torrent written to watch directory",
		logging.String(logging.FieldPath, dest),
		logging.String("save_dir", saveDir),
	)
	return true, nil
}
