package reseed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"ptpkit/internal/catalog"
	"ptpkit/internal/logging"
)

// Option configures matching.
type Option func(*settings)

type settings struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for match tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

func newSettings(opts []Option) settings {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "reseed")
	return s
}

// local is an enumerated local path.
type local struct {
	dir   string
	name  string
	files map[string]int64
}

func enumerate(p string) (local, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return local{}, fmt.Errorf("resolve %s: %w", p, err)
	}
	files, err := LocalFiles(abs)
	if err != nil {
		return local{}, fmt.Errorf("list local files: %w", err)
	}
	return local{dir: filepath.Dir(abs), name: filepath.Base(abs), files: files}, nil
}

// MatchTorrent matches the files at path against torrent's manifest.
func MatchTorrent(ctx context.Context, torrent *catalog.Torrent, path string, opts ...Option) (Match, error) {
	loc, err := enumerate(path)
	if err != nil {
		return Match{}, err
	}
	return matchTorrent(ctx, torrent, loc, newSettings(opts).logger)
}

// MatchMovie tries each torrent of movie in turn and returns the first match.
func MatchMovie(ctx context.Context, movie *catalog.Movie, path string, opts ...Option) (Match, error) {
	loc, err := enumerate(path)
	if err != nil {
		return Match{}, err
	}
	return matchMovie(ctx, movie, loc, newSettings(opts).logger)
}

func matchMovie(ctx context.Context, movie *catalog.Movie, loc local, logger *slog.Logger) (Match, error) {
	// The page fetch fills every child torrent's manifest at once.
	if err := movie.Load(ctx, catalog.MovieGroupHTML); err != nil {
		return Match{}, fmt.Errorf("load movie %s: %w", movie.ID(), err)
	}
	title, _ := movie.String(ctx, "Title")
	logger.Info("attempting to match against movie",
		logging.String(logging.FieldMovieID, movie.ID()),
		logging.String("title", title),
	)
	torrents, err := movie.Torrents(ctx)
	if errors.Is(err, catalog.ErrRemoteDataMissing) {
		return noMatch("movie %s lists no torrents", movie.ID()), nil
	}
	if err != nil {
		return Match{}, err
	}
	last := noMatch("movie %s has no torrents", movie.ID())
	for _, torrent := range torrents {
		m, err := matchTorrent(ctx, torrent, loc, logger)
		if err != nil {
			return Match{}, err
		}
		if m.OK() {
			return m, nil
		}
		last = m
	}
	return last, nil
}

func matchTorrent(ctx context.Context, torrent *catalog.Torrent, loc local, logger *slog.Logger) (Match, error) {
	logger = logger.With(logging.String(logging.FieldTorrentID, torrent.ID()))
	release, _ := torrent.String(ctx, "ReleaseName")
	logger.Info("attempting to match against torrent", logging.String("release", release))

	remote, err := torrent.Files(ctx)
	if errors.Is(err, catalog.ErrRemoteDataMissing) {
		return noMatch("torrent %s has no file list", torrent.ID()), nil
	}
	if err != nil {
		return Match{}, err
	}
	if len(loc.files) < len(remote) {
		logger.Debug("too few local files",
			logging.Int("local", len(loc.files)),
			logging.Int("remote", len(remote)),
		)
		return noMatch("torrent %s: %d local files for %d in torrent", torrent.ID(), len(loc.files), len(remote)), nil
	}

	pairs, unmatched := matchFiles(loc.files, remote, logger)
	if len(unmatched) > 0 {
		logger.Info("not all torrent files could be matched", logging.Int("unmatched", len(unmatched)))
		return noMatch("torrent %s: %d of %d files unmatched", torrent.ID(), len(unmatched), len(remote)), nil
	}
	return Match{TorrentID: torrent.ID(), Dir: loc.dir, Files: pairs}, nil
}
