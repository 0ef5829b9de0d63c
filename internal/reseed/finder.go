package reseed

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strconv"

	"ptpkit/internal/catalog"
	"ptpkit/internal/guess"
	"ptpkit/internal/logging"
)

// Search strategies.
const (
	StrategyFilename = "filename"
	StrategyTitle    = "title"
)

// DefaultMovieLimit caps how many search results are tried per strategy.
const DefaultMovieLimit = 5

// TitleGuesser reads a title from a release name.
type TitleGuesser interface {
	Guess(name string) (guess.Result, bool)
}

// LoadedChecker reports paths already handed to the download client.
type LoadedChecker interface {
	IsLoaded(ctx context.Context, path string) (bool, error)
}

// Finder locates the tracker torrent that matches a local path.
type Finder struct {
	catalog    *catalog.Catalog
	guesser    TitleGuesser
	loaded     LoadedChecker
	strategies []string
	limit      int
	logger     *slog.Logger
}

// FinderOption configures a Finder.
type FinderOption func(*Finder)

// WithStrategies sets the strategy order. Unknown names are skipped with an
// error log.
func WithStrategies(names ...string) FinderOption {
	return func(f *Finder) {
		f.strategies = append([]string(nil), names...)
	}
}

// WithMovieLimit caps the search results tried per strategy.
func WithMovieLimit(n int) FinderOption {
	return func(f *Finder) {
		if n > 0 {
			f.limit = n
		}
	}
}

// WithGuesser replaces the title guesser.
func WithGuesser(g TitleGuesser) FinderOption {
	return func(f *Finder) {
		f.guesser = g
	}
}

// WithLoadedChecker makes the filename strategy skip paths already loaded.
func WithLoadedChecker(c LoadedChecker) FinderOption {
	return func(f *Finder) {
		f.loaded = c
	}
}

// WithFinderLogger sets the logger.
func WithFinderLogger(logger *slog.Logger) FinderOption {
	return func(f *Finder) {
		f.logger = logger
	}
}

// NewFinder creates a Finder over cat.
func NewFinder(cat *catalog.Catalog, opts ...FinderOption) *Finder {
	f := &Finder{
		catalog:    cat,
		guesser:    guess.Guesser{},
		strategies: []string{StrategyFilename, StrategyTitle},
		limit:      DefaultMovieLimit,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = logging.NewComponentLogger(f.logger, "reseed")
	return f
}

// FindMatch finds the torrent matching path. When rawURL is set it names the
// torrent (torrentid=) or movie (id=) to match against and no search runs.
// Otherwise the configured strategies run in order until one matches. A
// failed Match carries the last failure reason.
func (f *Finder) FindMatch(ctx context.Context, path, rawURL string) (Match, error) {
	loc, err := enumerate(path)
	if err != nil {
		return Match{}, err
	}
	logger := f.logger.With(logging.String(logging.FieldPath, path))

	if rawURL != "" {
		return f.matchURL(ctx, loc, rawURL, logger)
	}

	last := noMatch("no search strategy configured")
	for _, strategy := range f.strategies {
		var (
			m   Match
			err error
		)
		switch strategy {
		case StrategyFilename:
			m, err = f.byFilename(ctx, path, loc, logger)
		case StrategyTitle:
			m, err = f.byTitle(ctx, loc, logger)
		default:
			logger.Error("unknown search strategy, skipping", logging.String("strategy", strategy))
			continue
		}
		if err != nil {
			return Match{}, fmt.Errorf("%s strategy: %w", strategy, err)
		}
		if m.OK() {
			logger.Info("match found",
				logging.String("strategy", strategy),
				logging.String(logging.FieldTorrentID, m.TorrentID),
			)
			return m, nil
		}
		last = m
	}
	return last, nil
}

func (f *Finder) matchURL(ctx context.Context, loc local, rawURL string, logger *slog.Logger) (Match, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Match{}, fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	query := u.Query()
	switch {
	case query.Get("torrentid") != "":
		return matchTorrent(ctx, f.catalog.Torrent(query.Get("torrentid")), loc, logger)
	case query.Get("id") != "":
		return matchMovie(ctx, f.catalog.Movie(query.Get("id")), loc, logger)
	}
	return noMatch("url %s names no torrent or movie", rawURL), nil
}

func (f *Finder) byFilename(ctx context.Context, path string, loc local, logger *slog.Logger) (Match, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Match{}, err
	}
	if f.loaded != nil {
		loaded, err := f.loaded.IsLoaded(ctx, abs)
		if err != nil {
			return Match{}, fmt.Errorf("check ledger: %w", err)
		}
		if loaded {
			logger.Info("path already loaded, skipping file list search")
			return noMatch("%s already loaded", abs), nil
		}
	}
	logger.Info("searching movies by file list")
	movies, err := f.catalog.Search(ctx, url.Values{"filelist": {filepath.Base(abs)}})
	if err != nil {
		return Match{}, err
	}
	return f.tryMovies(ctx, movies, loc, logger, "no movie lists a file named "+filepath.Base(abs))
}

func (f *Finder) byTitle(ctx context.Context, loc local, logger *slog.Logger) (Match, error) {
	name := loc.name
	guessed, ok := f.guesser.Guess(name)
	if !ok {
		logger.Debug("could not guess a title", logging.String("name", name))
		return noMatch("no title could be guessed from %s", name), nil
	}
	logger.Info("searching movies by guessed title",
		logging.String("title", guessed.Title),
		logging.Int("year", guessed.Year),
	)
	params := url.Values{"searchstr": {guessed.Title}}
	if guessed.Year > 0 {
		params.Set("year", strconv.Itoa(guessed.Year))
	}
	movies, err := f.catalog.Search(ctx, params)
	if err != nil {
		return Match{}, err
	}
	if len(movies) == 0 {
		movies, err = f.catalog.Search(ctx, url.Values{"searchstr": {guessed.Title}, "inallakas": {"1"}})
		if err != nil {
			return Match{}, err
		}
	}
	return f.tryMovies(ctx, movies, loc, logger, "no movie found for title "+guessed.Title)
}

func (f *Finder) tryMovies(ctx context.Context, movies []*catalog.Movie, loc local, logger *slog.Logger, empty string) (Match, error) {
	if len(movies) == 0 {
		logger.Debug("search returned no movies")
		return noMatch("%s", empty), nil
	}
	if len(movies) > f.limit {
		movies = movies[:f.limit]
	}
	var last Match
	for _, movie := range movies {
		m, err := matchMovie(ctx, movie, loc, logger)
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
