package reseed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"ptpkit/internal/catalog"
	"ptpkit/internal/guess"
	"ptpkit/internal/logging"
	"ptpkit/internal/testsupport"
)

const releaseName = testsupport.ReleaseName

// fixture lays out a local release directory and a tracker whose movie 10
// lists torrent 6 (wrong sizes) before torrent 5 (matching).
func fixture(t *testing.T) (string, *testsupport.Fetcher) {
	t.Helper()
	dir := testsupport.Release(t, t.TempDir())
	fetcher := testsupport.NewFetcher(t)
	testsupport.AddReleaseRoutes(t, fetcher)
	return dir, fetcher
}

type stubGuesser struct {
	result guess.Result
	ok     bool
}

func (g stubGuesser) Guess(string) (guess.Result, bool) { return g.result, g.ok }

type stubLedger map[string]bool

func (l stubLedger) IsLoaded(_ context.Context, path string) (bool, error) { return l[path], nil }

func newFinder(fetcher *testsupport.Fetcher, opts ...FinderOption) *Finder {
	cat := catalog.New(fetcher, testsupport.BaseURL, logging.NewNop())
	return NewFinder(cat, opts...)
}

func TestFindMatchByFilename(t *testing.T) {
	dir, fetcher := fixture(t)
	fetcher.Set(testsupport.FilelistKey(releaseName), testsupport.SearchBody("10"))

	m, err := newFinder(fetcher).FindMatch(context.Background(), dir, "")
	if err != nil {
		t.Fatalf("FindMatch returned error: %v", err)
	}
	if !m.OK() {
		t.Fatalf("expected match, got %s", m)
	}
	if m.TorrentID != "5" || m.Dir != filepath.Dir(dir) {
		t.Fatalf("unexpected match %+v", m)
	}
	if m.Files[releaseName+"/"+releaseName+".nfo"] != releaseName+"/"+releaseName+".nfo" {
		t.Fatalf("unexpected pairs %v", m.Files)
	}
	if fetcher.Calls["torrents.php?id=10&json=0"] != 1 {
		t.Fatalf("movie page fetched %d times", fetcher.Calls["torrents.php?id=10&json=0"])
	}
}

func TestFindMatchByTorrentURL(t *testing.T) {
	dir, fetcher := fixture(t)

	m, err := newFinder(fetcher).FindMatch(context.Background(), dir, "https://tracker.test/torrents.php?id=10&torrentid=5")
	if err != nil {
		t.Fatalf("FindMatch returned error: %v", err)
	}
	if !m.OK() || m.TorrentID != "5" {
		t.Fatalf("unexpected match %s", m)
	}
}

func TestFindMatchByMovieURL(t *testing.T) {
	dir, fetcher := fixture(t)

	m, err := newFinder(fetcher).FindMatch(context.Background(), dir, "https://tracker.test/torrents.php?id=10")
	if err != nil {
		t.Fatalf("FindMatch returned error: %v", err)
	}
	if !m.OK() || m.TorrentID != "5" {
		t.Fatalf("unexpected match %s", m)
	}
}

func TestFindMatchSkipsLoadedPathAndGuessesTitle(t *testing.T) {
	dir, fetcher := fixture(t)
	fetcher.Set("torrents.php?json=noredirect&searchstr=Example+Movie&year=2001", testsupport.SearchBody())
	fetcher.Set("torrents.php?inallakas=1&json=noredirect&searchstr=Example+Movie", testsupport.SearchBody("10"))

	finder := newFinder(fetcher,
		WithLoadedChecker(stubLedger{dir: true}),
		WithGuesser(stubGuesser{result: guess.Result{Title: "Example Movie", Year: 2001}, ok: true}),
	)
	m, err := finder.FindMatch(context.Background(), dir, "")
	if err != nil {
		t.Fatalf("FindMatch returned error: %v", err)
	}
	if !m.OK() || m.TorrentID != "5" {
		t.Fatalf("unexpected match %s", m)
	}
	for key := range fetcher.Calls {
		if key == testsupport.FilelistKey(releaseName) {
			t.Fatal("file list search should be skipped for a loaded path")
		}
	}
}

func TestFindMatchReportsLastFailure(t *testing.T) {
	dir, fetcher := fixture(t)
	fetcher.Set(testsupport.FilelistKey(releaseName), testsupport.SearchBody())

	finder := newFinder(fetcher, WithGuesser(stubGuesser{}))
	m, err := finder.FindMatch(context.Background(), dir, "")
	if err != nil {
		t.Fatalf("FindMatch returned error: %v", err)
	}
	if m.OK() {
		t.Fatalf("expected no match, got %s", m)
	}
	if m.Reason != "no title could be guessed from "+releaseName {
		t.Fatalf("Reason = %q", m.Reason)
	}
}

func TestFindMatchRespectsMovieLimit(t *testing.T) {
	dir, fetcher := fixture(t)
	fetcher.Set(testsupport.FilelistKey(releaseName), testsupport.SearchBody("11", "10"))
	fetcher.Set("torrents.php?id=11&json=0", `<html><body><h2 class="page__title">Other [1999]</h2></body></html>`)
	fetcher.Set("torrents.php?id=11&json=1", `{"GroupId":"11","Torrents":[]}`)

	finder := newFinder(fetcher, WithStrategies(StrategyFilename), WithMovieLimit(1))
	m, err := finder.FindMatch(context.Background(), dir, "")
	if err != nil {
		t.Fatalf("FindMatch returned error: %v", err)
	}
	if m.OK() {
		t.Fatalf("movie 10 is past the limit, got %s", m)
	}
	if fetcher.Calls["torrents.php?id=10&json=0"] != 0 {
		t.Fatal("movie beyond the limit was fetched")
	}
}

func TestMatchTorrentSupersetManifestFails(t *testing.T) {
	dir, fetcher := fixture(t)
	if err := os.Remove(filepath.Join(dir, releaseName+".nfo")); err != nil {
		t.Fatal(err)
	}
	cat := catalog.New(fetcher, testsupport.BaseURL, nil)
	movie := cat.Movie("10")

	m, err := MatchMovie(context.Background(), movie, dir)
	if err != nil {
		t.Fatalf("MatchMovie returned error: %v", err)
	}
	if m.OK() {
		t.Fatalf("expected failure, got %s", m)
	}
}
