package selection

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"ptpkit/internal/catalog"
	"ptpkit/internal/logging"
)

// Option configures a selection run.
type Option func(*settings)

type settings struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for filter tracing.
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
	s.logger = logging.NewComponentLogger(s.logger, "selection")
	return s
}

// SelectBest returns the torrent of movie that best fits profile, or nil when
// no sub-profile matches.
func SelectBest(ctx context.Context, movie *catalog.Movie, profile string, opts ...Option) (*catalog.Torrent, error) {
	parsed, err := ParseProfile(profile)
	if err != nil {
		return nil, err
	}
	candidates, err := movie.Torrents(ctx)
	if err != nil {
		return nil, fmt.Errorf("load torrents of movie %s: %w", movie.ID(), err)
	}
	if parsed.needsPage() {
		// One page fetch fills Trumpable for every child torrent.
		if err := movie.Load(ctx, catalog.MovieGroupHTML); err != nil {
			return nil, fmt.Errorf("load page of movie %s: %w", movie.ID(), err)
		}
	}
	best, err := parsed.Select(ctx, candidates, movie, opts...)
	if err != nil {
		return nil, err
	}
	if best == nil {
		newSettings(opts).logger.Info("no torrent matched profile",
			logging.String(logging.FieldMovieID, movie.ID()),
			logging.String("profile", profile),
		)
	}
	return best, nil
}

// Select parses profile and applies it to candidates. movie may be nil, in
// which case movie-level filters resolve each torrent's parent.
func Select(ctx context.Context, candidates []*catalog.Torrent, movie *catalog.Movie, profile string, opts ...Option) (*catalog.Torrent, error) {
	parsed, err := ParseProfile(profile)
	if err != nil {
		return nil, err
	}
	return parsed.Select(ctx, candidates, movie, opts...)
}

// Select applies the profile to candidates. Sub-profiles are tried in order
// and each starts from the full candidate list.
func (p Profile) Select(ctx context.Context, candidates []*catalog.Torrent, movie *catalog.Movie, opts ...Option) (*catalog.Torrent, error) {
	logger := newSettings(opts).logger
	for _, sub := range p.Subprofiles {
		logger.Debug("trying sub-profile", logging.String("subprofile", sub.Text))
		matches := slices.Clone(candidates)
		var err error
		for _, name := range sub.Filters {
			f, _ := lookupFilter(name)
			matches, err = keep(matches, func(t *catalog.Torrent) (bool, error) {
				return f.fn(ctx, t, movie)
			})
			if err != nil {
				return nil, fmt.Errorf("filter %s: %w", name, err)
			}
			logger.Debug("filtered candidates", logging.String("filter", name), logging.Int("remaining", len(matches)))
		}
		for _, c := range sub.Comparisons {
			field := comparisonFields[c.Field]
			matches, err = keep(matches, func(t *catalog.Torrent) (bool, error) {
				v, err := t.Int(ctx, field)
				return err == nil && c.match(v), err
			})
			if err != nil {
				return nil, fmt.Errorf("compare %s: %w", c.Field, err)
			}
			logger.Debug("filtered candidates", logging.String("filter", c.Field+c.Operator), logging.Int("remaining", len(matches)))
		}

		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], nil
		}
		name := sub.Sort
		if name == "" {
			name = DefaultSort
		}
		spec, _ := lookupSort(name)
		logger.Debug("sorting candidates", logging.String("sort", name), logging.Int("candidates", len(matches)))
		return first(ctx, matches, spec)
	}
	return nil, nil
}

func (p Profile) needsPage() bool {
	for _, sub := range p.Subprofiles {
		for _, name := range sub.Filters {
			if f, ok := lookupFilter(name); ok && f.page {
				return true
			}
		}
	}
	return false
}

func keep(list []*catalog.Torrent, fn func(*catalog.Torrent) (bool, error)) ([]*catalog.Torrent, error) {
	out := list[:0]
	for _, t := range list {
		ok, err := fn(t)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// first returns the head of list ordered by spec. Ties keep candidate order.
func first(ctx context.Context, list []*catalog.Torrent, spec sortSpec) (*catalog.Torrent, error) {
	type keyed struct {
		torrent *catalog.Torrent
		key     int64
	}
	items := make([]keyed, 0, len(list))
	for _, t := range list {
		k, err := spec.key(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("sort %s: %w", spec.name, err)
		}
		items = append(items, keyed{torrent: t, key: k})
	}
	slices.SortStableFunc(items, func(a, b keyed) int {
		if spec.desc {
			return cmp.Compare(b.key, a.key)
		}
		return cmp.Compare(a.key, b.key)
	})
	return items[0].torrent, nil
}
