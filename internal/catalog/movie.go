package catalog

import (
	"context"
	"errors"
	"maps"
	"net/url"

	"ptpkit/internal/logging"
)

// Movie loader groups.
const (
	MovieGroupJSON     = "json"
	MovieGroupHTML     = "html"
	MovieGroupInferred = "inferred"
)

var movieSchema = newSchema("movie", map[string][]string{
	MovieGroupJSON:     {"ImdbId", "ImdbRating", "ImdbVoteCount", "Torrents", "CoverImage", "Name"},
	MovieGroupHTML:     {"Title", "Year", "Cover", "Tags", "Directors", "PtpRating", "PtpRatingCount", "UserRating", "Seen", "Snatched"},
	MovieGroupInferred: {"Link", "Id", "GroupId"},
})

// MovieSchema exposes the movie loader groups for inspection.
func MovieSchema() map[string][]string {
	return exportSchema(movieSchema)
}

// Movie is a tracker movie group.
type Movie struct {
	record
	cat *Catalog
}

// Movie returns a stub movie that loads its fields on demand.
func (c *Catalog) Movie(id string) *Movie {
	m := &Movie{record: newRecord(movieSchema, id), cat: c}
	m.loaders[MovieGroupJSON] = m.loadJSON
	m.loaders[MovieGroupHTML] = m.loadHTML
	m.loaders[MovieGroupInferred] = m.loadInferred
	return m
}

// MovieFromData builds a movie from already fetched data, such as a search
// result. The data must carry GroupId.
func (c *Catalog) MovieFromData(data map[string]any) (*Movie, error) {
	id := toString(data["GroupId"])
	if id == "" {
		return nil, parseErrorf("movie data", "GroupId missing")
	}
	m := c.Movie(id)
	if err := m.absorb(data, false); err != nil {
		return nil, err
	}
	return m, nil
}

// Torrents returns the movie's torrents, loading the movie JSON if needed.
func (m *Movie) Torrents(ctx context.Context) ([]*Torrent, error) {
	v, err := m.Get(ctx, "Torrents")
	if err != nil {
		return nil, err
	}
	torrents, ok := v.([]*Torrent)
	if !ok {
		return nil, m.fieldError("Torrents", errors.New("unexpected torrent list type"))
	}
	return torrents, nil
}

// absorb merges movie data. Torrent entries become Torrent entities; when
// complete is set the data came from the movie JSON endpoint and each
// torrent's movie_json group is considered loaded.
func (m *Movie) absorb(data map[string]any, complete bool) error {
	rest := maps.Clone(data)
	raw, hasTorrents := rest["Torrents"]
	delete(rest, "Torrents")
	m.merge(rest)
	if !hasTorrents || raw == nil {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return parseErrorf("movie "+m.id, "Torrents is %T, want list", raw)
	}

	current, _ := m.fields["Torrents"].([]*Torrent)
	byID := make(map[string]*Torrent, len(current))
	for _, t := range current {
		byID[t.id] = t
	}
	for _, item := range list {
		data, ok := item.(map[string]any)
		if !ok {
			return parseErrorf("movie "+m.id, "torrent entry is %T, want object", item)
		}
		if _, ok := data["RemasterTitle"]; !ok {
			data["RemasterTitle"] = ""
		}
		if _, ok := data["GroupId"]; !ok {
			data["GroupId"] = m.id
		}
		t, ok := byID[torrentID(data)]
		if ok {
			t.merge(data)
		} else {
			var err error
			if t, err = m.cat.TorrentFromData(data); err != nil {
				return err
			}
			byID[t.id] = t
			current = append(current, t)
		}
		if !t.Has("Movie") {
			t.set("Movie", m)
		}
		if complete {
			t.finish(TorrentGroupMovieJSON)
		}
	}
	if current == nil {
		current = []*Torrent{}
	}
	m.set("Torrents", current)
	return nil
}

func (m *Movie) loadJSON(ctx context.Context) error {
	resp, err := m.cat.fetcher.Fetch(ctx, "torrents.php", url.Values{"id": {m.id}, "json": {"1"}})
	if err != nil {
		return err
	}
	var data map[string]any
	if err := decodeJSON(resp.Body, "movie "+m.id+" json", &data); err != nil {
		return err
	}
	if _, ok := data["ImdbId"]; !ok {
		data["ImdbId"] = ""
	}
	return m.absorb(data, true)
}

func (m *Movie) loadHTML(ctx context.Context) error {
	resp, err := m.cat.fetcher.Fetch(ctx, "torrents.php", url.Values{"id": {m.id}, "json": {"0"}})
	if err != nil {
		return err
	}
	source := "movie " + m.id + " page"
	doc, err := resp.Document()
	if err != nil {
		return &ParseError{Source: source, Err: err}
	}
	page, err := parseMoviePage(doc, source)
	if err != nil {
		return err
	}

	m.set("Title", page.title)
	m.set("Year", page.year)
	if page.cover != "" {
		m.set("Cover", page.cover)
	}
	m.set("Tags", page.tags)
	m.set("Directors", page.directors)
	if page.hasRating {
		m.set("PtpRating", page.ptpRating)
		m.set("PtpRatingCount", page.ptpRatingCount)
		m.set("UserRating", page.userRating)
		m.set("Seen", page.seen)
	}
	m.set("Snatched", page.snatched)

	torrents, err := m.Torrents(ctx)
	if errors.Is(err, ErrRemoteDataMissing) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, t := range torrents {
		t.absorbPage(doc, m.cat)
	}
	return nil
}

func (m *Movie) loadInferred(context.Context) error {
	m.set("Id", m.id)
	m.set("GroupId", m.id)
	m.set("Link", m.cat.link("torrents.php", "id", m.id))
	return nil
}

// Bookmarks and other listing pages share this conversion.
func (c *Catalog) moviesFromCoverView(body []byte, source string) ([]*Movie, error) {
	entries, err := parseCoverView(body, source)
	if err != nil {
		return nil, err
	}
	movies := make([]*Movie, 0, len(entries))
	for _, entry := range entries {
		movie, err := c.MovieFromData(entry)
		if err != nil {
			c.logger.Debug("skipping cover view entry", logging.Error(err))
			continue
		}
		movies = append(movies, movie)
	}
	return movies, nil
}

func exportSchema(s *schema) map[string][]string {
	out := make(map[string][]string, len(s.members))
	for _, group := range s.Groups() {
		out[group] = s.Fields(group)
	}
	return out
}
