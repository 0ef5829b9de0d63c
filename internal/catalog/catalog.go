package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"ptpkit/internal/logging"
	"ptpkit/internal/tracker"
)

// Fetcher performs one rate-limited tracker request.
type Fetcher interface {
	Fetch(ctx context.Context, path string, params url.Values) (*tracker.Response, error)
}

// Catalog constructs entities bound to a tracker session.
type Catalog struct {
	fetcher Fetcher
	baseURL string
	logger  *slog.Logger
}

// New creates a Catalog. baseURL is used for the Link fields.
func New(fetcher Fetcher, baseURL string, logger *slog.Logger) *Catalog {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Catalog{
		fetcher: fetcher,
		baseURL: baseURL,
		logger:  logging.NewComponentLogger(logger, "catalog"),
	}
}

var (
	groupIDPattern = regexp.MustCompile(`[?&]id=(\d+)`)
	userIDPattern  = regexp.MustCompile(`user\.php\?id=(\d+)`)
)

// Search runs a JSON movie search. A "name" filter is sent as searchstr.
func (c *Catalog) Search(ctx context.Context, filters url.Values) ([]*Movie, error) {
	params := searchParams(filters)
	params.Set("json", "noredirect")
	resp, err := c.fetcher.Fetch(ctx, "torrents.php", params)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Movies []map[string]any `json:"Movies"`
	}
	if err := decodeJSON(resp.Body, "search results", &payload); err != nil {
		return nil, err
	}
	movies := make([]*Movie, 0, len(payload.Movies))
	for _, data := range payload.Movies {
		if _, ok := data["Directors"]; !ok {
			data["Directors"] = []any{}
		}
		if _, ok := data["ImdbId"]; !ok {
			data["ImdbId"] = "0"
		}
		if title, ok := data["Title"].(string); ok {
			data["Title"] = html.UnescapeString(title)
		}
		movie, err := c.MovieFromData(data)
		if err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}
	c.logger.Debug("search complete", logging.String("query", params.Encode()), logging.Int("results", len(movies)))
	return movies, nil
}

// SearchSingle follows a search that the tracker redirects to a single movie
// page. It returns nil when the search did not resolve to one movie.
func (c *Catalog) SearchSingle(ctx context.Context, filters url.Values) (*Movie, error) {
	params := searchParams(filters)
	params.Set("json", "noredirect")
	resp, err := c.fetcher.Fetch(ctx, "torrents.php", params)
	if err != nil {
		return nil, err
	}
	match := groupIDPattern.FindStringSubmatch(resp.URL.String())
	if match == nil {
		return nil, nil
	}
	return c.Movie(match[1]), nil
}

// CurrentUser resolves the logged-in user from the index page.
func (c *Catalog) CurrentUser(ctx context.Context) (*User, error) {
	resp, err := c.fetcher.Fetch(ctx, "index.php", nil)
	if err != nil {
		return nil, err
	}
	match := userIDPattern.FindSubmatch(resp.Body)
	if match == nil {
		return nil, parseErrorf("index page", "no user link found")
	}
	return c.User(string(match[1])), nil
}

func searchParams(filters url.Values) url.Values {
	params := url.Values{}
	for k, v := range filters {
		params[k] = append([]string(nil), v...)
	}
	if name := params.Get("name"); name != "" {
		params.Set("searchstr", name)
		params.Del("name")
	}
	return params
}

func decodeJSON(body []byte, source string, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return &ParseError{Source: source, Err: err}
	}
	return nil
}

// TorrentLink returns the permalink for torrent id without fetching anything.
func (c *Catalog) TorrentLink(id string) string {
	return c.link("torrents.php", "torrentid", id)
}

func (c *Catalog) link(path, key, id string) string {
	return fmt.Sprintf("%s%s?%s=%s", c.baseURL, path, key, url.QueryEscape(id))
}
