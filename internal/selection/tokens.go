package selection

import (
	"context"
	"errors"
	"strings"

	"ptpkit/internal/catalog"
)

type predicate func(ctx context.Context, t *catalog.Torrent, m *catalog.Movie) (bool, error)

type filter struct {
	name string
	fn   predicate
	// page marks filters that read fields scraped from the movie page.
	page bool
}

// filters is the boolean filter vocabulary, applied in this order.
var filters = []filter{
	{name: "gp", fn: flag("GoldenPopcorn")},
	{name: "scene", fn: flag("Scene")},
	{name: "576p", fn: equals("Resolution", "576p")},
	{name: "480p", fn: equals("Resolution", "480p")},
	{name: "720p", fn: equals("Resolution", "720p")},
	{name: "1080p", fn: equals("Resolution", "1080p")},
	{name: "hd", fn: equals("Quality", "High Definition")},
	{name: "sd", fn: equals("Quality", "Standard Definition")},
	{name: "not-remux", fn: not(remasterContains("remux"))},
	{name: "remux", fn: remasterContains("remux")},
	{name: "x264", fn: equals("Codec", "x264")},
	{name: "xvid", fn: equals("Codec", "XviD")},
	{name: "seeded", fn: seeded},
	{name: "not-trumpable", fn: notTrumpable, page: true},
	{name: "unseen", fn: not(movieFlag("Seen")), page: true},
	{name: "unsnatched", fn: not(movieFlag("Snatched")), page: true},
}

func lookupFilter(name string) (filter, bool) {
	for _, f := range filters {
		if f.name == name {
			return f, true
		}
	}
	return filter{}, false
}

type sortKey func(ctx context.Context, t *catalog.Torrent) (int64, error)

type sortSpec struct {
	name string
	desc bool
	key  sortKey
}

// DefaultSort applies when several candidates survive and no sort is named.
const DefaultSort = "most recent"

var sorts = []sortSpec{
	{name: "most recent", desc: true, key: uploadedAt},
	{name: "smallest", desc: false, key: intField("Size")},
	{name: "largest", desc: true, key: intField("Size")},
	{name: "most seeders", desc: true, key: intField("Seeders")},
}

func lookupSort(name string) (sortSpec, bool) {
	for _, s := range sorts {
		if s.name == name {
			return s, true
		}
	}
	return sortSpec{}, false
}

// comparisonFields maps profile field names to torrent fields.
var comparisonFields = map[string]string{
	"seeders": "Seeders",
	"size":    "Size",
}

func flag(field string) predicate {
	return func(ctx context.Context, t *catalog.Torrent, _ *catalog.Movie) (bool, error) {
		return t.Bool(ctx, field)
	}
}

func equals(field, want string) predicate {
	return func(ctx context.Context, t *catalog.Torrent, _ *catalog.Movie) (bool, error) {
		v, err := t.String(ctx, field)
		return v == want, err
	}
}

func remasterContains(word string) predicate {
	return func(ctx context.Context, t *catalog.Torrent, _ *catalog.Movie) (bool, error) {
		v, err := t.String(ctx, "RemasterTitle")
		if errors.Is(err, catalog.ErrRemoteDataMissing) {
			return false, nil
		}
		return strings.Contains(strings.ToLower(v), word), err
	}
}

func not(p predicate) predicate {
	return func(ctx context.Context, t *catalog.Torrent, m *catalog.Movie) (bool, error) {
		ok, err := p(ctx, t, m)
		return !ok, err
	}
}

func seeded(ctx context.Context, t *catalog.Torrent, _ *catalog.Movie) (bool, error) {
	n, err := t.Int(ctx, "Seeders")
	return n > 0, err
}

func notTrumpable(ctx context.Context, t *catalog.Torrent, _ *catalog.Movie) (bool, error) {
	reasons, err := t.Strings(ctx, "Trumpable")
	return len(reasons) == 0, err
}

// movieFlag reads a boolean from the parent movie. A flag the page does not
// show counts as false.
func movieFlag(field string) predicate {
	return func(ctx context.Context, t *catalog.Torrent, m *catalog.Movie) (bool, error) {
		if m == nil {
			var err error
			if m, err = t.Movie(ctx); err != nil {
				return false, err
			}
		}
		v, err := m.Bool(ctx, field)
		if errors.Is(err, catalog.ErrRemoteDataMissing) {
			return false, nil
		}
		return v, err
	}
}

func intField(field string) sortKey {
	return func(ctx context.Context, t *catalog.Torrent) (int64, error) {
		return t.Int(ctx, field)
	}
}

func uploadedAt(ctx context.Context, t *catalog.Torrent) (int64, error) {
	ts, err := t.UploadTime(ctx)
	if err != nil {
		return 0, err
	}
	return ts.Unix(), nil
}
