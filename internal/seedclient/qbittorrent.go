package seedclient

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/autobrr/go-qbittorrent"

	"ptpkit/internal/logging"
)

// QBittorrentConfig locates a qBittorrent Web UI.
type QBittorrentConfig struct {
	URL      string
	Username string
	Password string
}

// qbitAPI is the subset of *qbittorrent.Client used here.
type qbitAPI interface {
	LoginCtx(ctx context.Context) error
	GetTorrentsCtx(ctx context.Context, o qbittorrent.TorrentFilterOptions) ([]qbittorrent.Torrent, error)
	AddTorrentFromMemoryCtx(ctx context.Context, buf []byte, options map[string]string) error
}

// QBittorrent loads torrents into qBittorrent with a forced recheck.
type QBittorrent struct {
	api    qbitAPI
	logger *slog.Logger

	loginOnce sync.Once
	loginErr  error
}

// NewQBittorrent creates a qBittorrent loader. The login happens on first use.
func NewQBittorrent(cfg QBittorrentConfig, logger *slog.Logger) *QBittorrent {
	client := qbittorrent.NewClient(qbittorrent.Config{
		Host:     cfg.URL,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	return newQBittorrent(client, logger)
}

func newQBittorrent(api qbitAPI, logger *slog.Logger) *QBittorrent {
	return &QBittorrent{api: api, logger: logging.NewComponentLogger(logger, "seedclient")}
}

// Load adds torrent with dir as its save path unless its info hash is
// already present.
func (q *QBittorrent) Load(ctx context.Context, torrent []byte, dir string) (bool, error) {
	meta, err := Inspect(torrent)
	if err != nil {
		return false, err
	}
	q.loginOnce.Do(func() {
		q.loginErr = q.api.LoginCtx(ctx)
	})
	if q.loginErr != nil {
		return false, fmt.Errorf("qbittorrent login: %w", q.loginErr)
	}

	logger := q.logger.With(logging.String("info_hash", meta.InfoHash))
	existing, err := q.api.GetTorrentsCtx(ctx, qbittorrent.TorrentFilterOptions{Hashes: []string{meta.InfoHash}})
	if err != nil {
		return false, fmt.Errorf("qbittorrent lookup: %w", err)
	}
	if len(existing) > 0 {
		logger.Warn("torrent already present in qbittorrent",
			logging.String("name", existing[0].Name),
			logging.String(logging.FieldEventType, "seedclient_duplicate"),
		)
		return false, nil
	}

	options := map[string]string{
		"savepath":      dir,
		"autoTMM":       "false",
		"skip_checking": "false",
		"paused":        "false",
	}
	if err := q.api.AddTorrentFromMemoryCtx(ctx, torrent, options); err != nil {
		return false, fmt.Errorf("qbittorrent add: %w", err)
	}
	logger.Info("torrent loaded", logging.String(logging.FieldPath, dir), logging.String("name", meta.Name))
	return true, nil
}
