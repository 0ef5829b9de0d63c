package catalog

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ptpkit/internal/testsupport"
)

func torrentRoutes() map[string]testsupport.Route {
	routes := movieRoutes()
	routes["torrents.php?torrentid=5"] = testsupport.Route{FinalURL: testBaseURL + "torrents.php?id=10&torrentid=5"}
	routes["torrents.php?id=10&json=1&torrentid=5"] = testsupport.Route{Body: movieJSON}
	return routes
}

func TestTorrentStubResolvesGroupThroughRedirect(t *testing.T) {
	cat, fetcher := newTestCatalog(t, torrentRoutes())
	torrent := cat.Torrent("5")
	ctx := context.Background()

	seeders, err := torrent.Int(ctx, "Seeders")
	if err != nil {
		t.Fatalf("Int returned error: %v", err)
	}
	if seeders != 12 {
		t.Fatalf("Seeders = %d", seeders)
	}
	if codec, _ := torrent.String(ctx, "Codec"); codec != "x264" {
		t.Fatalf("Codec = %q", codec)
	}
	if fetcher.Calls["torrents.php?torrentid=5"] != 1 || fetcher.Calls["torrents.php?id=10&json=1&torrentid=5"] != 1 {
		t.Fatalf("unexpected fetches %v", fetcher.Calls)
	}

	if _, err := torrent.Files(ctx); err != nil {
		t.Fatalf("Files returned error: %v", err)
	}
	if fetcher.Calls["torrents.php?torrentid=5"] != 1 {
		t.Fatal("group id should be cached after the first redirect")
	}

	movie, err := torrent.Movie(ctx)
	if err != nil {
		t.Fatalf("Movie returned error: %v", err)
	}
	if movie.ID() != "10" {
		t.Fatalf("parent movie id = %q", movie.ID())
	}
	if fetcher.Total() != 3 {
		t.Fatalf("expected 3 fetches, got %d: %v", fetcher.Total(), fetcher.Calls)
	}
}

func TestTorrentInferredFields(t *testing.T) {
	cat, _ := newTestCatalog(t, torrentRoutes())
	torrent := cat.Torrent("5")
	ctx := context.Background()

	human, err := torrent.String(ctx, "HumanSize")
	if err != nil {
		t.Fatalf("String returned error: %v", err)
	}
	if human != "8.0 GiB" {
		t.Fatalf("HumanSize = %q", human)
	}
	link, _ := torrent.String(ctx, "Link")
	if link != testBaseURL+"torrents.php?torrentid=5" {
		t.Fatalf("Link = %q", link)
	}
	uploaded, err := torrent.UploadTime(ctx)
	if err != nil {
		t.Fatalf("UploadTime returned error: %v", err)
	}
	if !uploaded.Equal(time.Date(2021, 1, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("UploadTime = %v", uploaded)
	}
}

func TestTorrentLinkNeedsNoFetch(t *testing.T) {
	cat, fetcher := newTestCatalog(t, nil)
	if got := cat.TorrentLink("5"); got != testBaseURL+"torrents.php?torrentid=5" {
		t.Fatalf("TorrentLink = %q", got)
	}
	if fetcher.Total() != 0 {
		t.Fatalf("TorrentLink fetched %d times", fetcher.Total())
	}
}

func TestTorrentFromDataWithoutSizeHasNoHumanSize(t *testing.T) {
	cat, _ := newTestCatalog(t, nil)
	torrent, err := cat.TorrentFromData(map[string]any{"TorrentId": "9", "GroupId": "4"})
	if err != nil {
		t.Fatalf("TorrentFromData returned error: %v", err)
	}
	torrent.finish(TorrentGroupMovieJSON)

	link, err := torrent.String(context.Background(), "Link")
	if err != nil {
		t.Fatalf("String returned error: %v", err)
	}
	if link == "" {
		t.Fatal("expected Link")
	}
	if torrent.Has("HumanSize") {
		t.Fatal("HumanSize should be absent without Size")
	}
}

func TestTorrentDescriptionGroups(t *testing.T) {
	routes := torrentRoutes()
	routes["torrents.php?action=description&id=10&torrentid=5"] = testsupport.Route{Body: `{"Description":"[b]hi[/b]","Nfo":"&lt;nfo&gt;"}`}
	routes["torrents.php?action=get_description&id=5"] = testsupport.Route{Body: "[url=a&amp;b]x[/url]"}
	cat, _ := newTestCatalog(t, routes)
	torrent := cat.Torrent("5")
	ctx := context.Background()

	nfo, err := torrent.String(ctx, "Nfo")
	if err != nil {
		t.Fatalf("String returned error: %v", err)
	}
	if nfo != "<nfo>" {
		t.Fatalf("Nfo = %q", nfo)
	}
	bbcode, err := torrent.String(ctx, "BBCodeDescription")
	if err != nil {
		t.Fatalf("String returned error: %v", err)
	}
	if bbcode != "[url=a&b]x[/url]" {
		t.Fatalf("BBCodeDescription = %q", bbcode)
	}
}

func TestTorrentDownloadToDirUsesTrackerFilename(t *testing.T) {
	payload := []byte("d8:announce0:e")
	routes := map[string]testsupport.Route{
		"torrents.php?action=download&id=5": {
			Body:   string(payload),
			Header: http.Header{"Content-Disposition": {`attachment; filename="Example.Movie.torrent"`}},
		},
		"torrents.php?action=download&id=6": {Body: string(payload)},
	}
	cat, _ := newTestCatalog(t, routes)
	dir := filepath.Join(t.TempDir(), "downloads")

	path, err := cat.Torrent("5").DownloadToDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("DownloadToDir returned error: %v", err)
	}
	if filepath.Base(path) != "Example.Movie.torrent" {
		t.Fatalf("unexpected path %q", path)
	}
	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile returned error: %v", err)
	}
	if !bytes.Equal(written, payload) {
		t.Fatalf("written payload = %q", written)
	}

	fallback, err := cat.Torrent("6").DownloadToDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("DownloadToDir returned error: %v", err)
	}
	if filepath.Base(fallback) != "6.torrent" {
		t.Fatalf("unexpected fallback path %q", fallback)
	}
}

func TestTorrentMissingFileListIsRemoteDataMissing(t *testing.T) {
	routes := torrentRoutes()
	routes["torrents.php?id=10&json=0"] = testsupport.Route{Body: `<html><body><h2 class="page__title">Example Movie [2001]</h2></body></html>`}
	cat, fetcher := newTestCatalog(t, routes)
	torrent := cat.Torrent("5")
	torrent.set("GroupId", "10")

	for range 2 {
		if _, err := torrent.Files(context.Background()); err == nil {
			t.Fatal("expected error for missing file list")
		}
	}
	if fetcher.Calls["torrents.php?id=10&json=0"] != 1 {
		t.Fatalf("missing file list should not refetch, got %d", fetcher.Calls["torrents.php?id=10&json=0"])
	}
}
