package testsupport

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"ptpkit/internal/tracker"
)

// BaseURL is the tracker root every fixture uses.
const BaseURL = "https://tracker.test/"

// Route is a canned tracker response. FinalURL simulates a redirect.
type Route struct {
	Body     string
	FinalURL string
	Header   http.Header
	Err      error
}

// Fetcher serves Routes keyed by Key and counts calls. A request without a
// route fails the test.
type Fetcher struct {
	t      testing.TB
	Routes map[string]Route
	Calls  map[string]int
}

// NewFetcher creates a Fetcher with no routes.
func NewFetcher(t testing.TB) *Fetcher {
	return &Fetcher{t: t, Routes: make(map[string]Route), Calls: make(map[string]int)}
}

// Key is path followed by the encoded, sorted query.
func Key(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}

// Set registers body for key.
func (f *Fetcher) Set(key, body string) {
	f.Routes[key] = Route{Body: body}
}

// Total is the number of requests served.
func (f *Fetcher) Total() int {
	total := 0
	for _, n := range f.Calls {
		total += n
	}
	return total
}

func (f *Fetcher) Fetch(_ context.Context, path string, params url.Values) (*tracker.Response, error) {
	key := Key(path, params)
	f.Calls[key]++
	route, ok := f.Routes[key]
	if !ok {
		f.t.Errorf("unexpected fetch %s", key)
		return nil, errors.New("no route for " + key)
	}
	if route.Err != nil {
		return nil, route.Err
	}
	final := route.FinalURL
	if final == "" {
		final = BaseURL + key
	}
	u, err := url.Parse(final)
	if err != nil {
		f.t.Fatalf("bad final url %q: %v", final, err)
	}
	header := route.Header
	if header == nil {
		header = http.Header{}
	}
	return &tracker.Response{URL: u, StatusCode: http.StatusOK, Header: header, Body: []byte(route.Body)}, nil
}
