package catalog

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func TestMovieJSONGroupLoadsOnce(t *testing.T) {
	cat, fetcher := newTestCatalog(t, movieRoutes())
	movie := cat.Movie("10")
	ctx := context.Background()

	imdb, err := movie.String(ctx, "ImdbId")
	if err != nil {
		t.Fatalf("String returned error: %v", err)
	}
	if imdb != "0123456" {
		t.Fatalf("ImdbId = %q", imdb)
	}
	for _, field := range []string{"Name", "CoverImage", "ImdbRating", "Torrents"} {
		if _, err := movie.Get(ctx, field); err != nil {
			t.Fatalf("Get(%s) returned error: %v", field, err)
		}
	}
	if got := fetcher.Calls["torrents.php?id=10&json=1"]; got != 1 {
		t.Fatalf("expected one json fetch, got %d", got)
	}
	if fetcher.Total() != 1 {
		t.Fatalf("expected no other fetches, got %d total", fetcher.Total())
	}

	fields := movie.Fields()
	for _, field := range movieSchema.Fields(MovieGroupJSON) {
		if _, ok := fields[field]; !ok {
			t.Fatalf("field %s absent after json load", field)
		}
	}
}

func TestMovieMissingFieldDoesNotRefetch(t *testing.T) {
	cat, fetcher := newTestCatalog(t, movieRoutes())
	movie := cat.Movie("10")
	ctx := context.Background()

	for range 3 {
		_, err := movie.Get(ctx, "ImdbVoteCount")
		if !errors.Is(err, ErrRemoteDataMissing) {
			t.Fatalf("expected ErrRemoteDataMissing, got %v", err)
		}
	}
	if fetcher.Total() != 1 {
		t.Fatalf("expected one fetch, got %d", fetcher.Total())
	}
	if v, ok := movie.Fields()["ImdbVoteCount"]; !ok || v != nil {
		t.Fatalf("expected ImdbVoteCount reported as nil, got %v (present=%v)", v, ok)
	}
}

func TestMovieJSONTorrentsAreComplete(t *testing.T) {
	cat, fetcher := newTestCatalog(t, movieRoutes())
	ctx := context.Background()

	movie := cat.Movie("10")
	torrents, err := movie.Torrents(ctx)
	if err != nil {
		t.Fatalf("Torrents returned error: %v", err)
	}
	if len(torrents) != 2 {
		t.Fatalf("expected 2 torrents, got %d", len(torrents))
	}
	first := torrents[0]
	if !first.Loaded(TorrentGroupMovieJSON) {
		t.Fatal("torrent from movie json should have its movie_json group loaded")
	}
	if remaster, err := first.String(ctx, "RemasterTitle"); err != nil || remaster != "" {
		t.Fatalf("RemasterTitle = %q, %v", remaster, err)
	}
	if group, err := first.String(ctx, "GroupId"); err != nil || group != "10" {
		t.Fatalf("GroupId = %q, %v", group, err)
	}
	if remaster, err := torrents[1].String(ctx, "RemasterTitle"); err != nil || remaster != "Director's Cut" {
		t.Fatalf("RemasterTitle = %q, %v", remaster, err)
	}
	for _, torrent := range torrents {
		parent, err := torrent.Movie(ctx)
		if err != nil {
			t.Fatalf("Movie returned error: %v", err)
		}
		if parent != movie {
			t.Fatalf("torrent %s parent is a separate movie entity", torrent.ID())
		}
	}
	if fetcher.Total() != 1 {
		t.Fatalf("expected one fetch, got %d", fetcher.Total())
	}
}

func TestMovieHTMLFillsPageFieldsAndManifests(t *testing.T) {
	cat, fetcher := newTestCatalog(t, movieRoutes())
	movie := cat.Movie("10")
	ctx := context.Background()

	title, err := movie.String(ctx, "Title")
	if err != nil {
		t.Fatalf("String returned error: %v", err)
	}
	if title != "Example Movie" {
		t.Fatalf("Title = %q", title)
	}
	year, _ := movie.String(ctx, "Year")
	if year != "2001" {
		t.Fatalf("Year = %q", year)
	}
	directors, err := movie.Strings(ctx, "Directors")
	if err != nil || !slices.Equal(directors, []string{"Jane Doe"}) {
		t.Fatalf("Directors = %v, %v", directors, err)
	}
	tags, _ := movie.Strings(ctx, "Tags")
	if !slices.Equal(tags, []string{"drama", "thriller"}) {
		t.Fatalf("Tags = %v", tags)
	}
	if count, _ := movie.Int(ctx, "PtpRatingCount"); count != 1234 {
		t.Fatalf("PtpRatingCount = %d", count)
	}
	if rating, _ := movie.String(ctx, "PtpRating"); rating != "85" {
		t.Fatalf("PtpRating = %q", rating)
	}
	if seen, _ := movie.Bool(ctx, "Seen"); !seen {
		t.Fatal("expected Seen")
	}
	if mine, _ := movie.String(ctx, "UserRating"); mine != "90" {
		t.Fatalf("UserRating = %q", mine)
	}
	if snatched, _ := movie.Bool(ctx, "Snatched"); !snatched {
		t.Fatal("expected Snatched")
	}

	torrents, err := movie.Torrents(ctx)
	if err != nil {
		t.Fatalf("Torrents returned error: %v", err)
	}
	before := fetcher.Total()

	files, err := torrents[0].Files(ctx)
	if err != nil {
		t.Fatalf("Files returned error: %v", err)
	}
	want := map[string]int64{
		"Example.Movie.2001.1080p.BluRay.x264-GRP/Example.Movie.2001.1080p.BluRay.x264-GRP.mkv": 8589000000,
		"Example.Movie.2001.1080p.BluRay.x264-GRP/Example.Movie.2001.1080p.BluRay.x264-GRP.nfo": 4096,
	}
	if len(files) != len(want) {
		t.Fatalf("Files = %v", files)
	}
	for name, size := range want {
		if files[name] != size {
			t.Fatalf("Files[%q] = %d, want %d", name, files[name], size)
		}
	}

	single, err := torrents[1].Files(ctx)
	if err != nil {
		t.Fatalf("Files returned error: %v", err)
	}
	if single["Example.Movie.2001.DVDRip.XviD-OLD.avi"] != 734003200 || len(single) != 1 {
		t.Fatalf("single-file manifest = %v", single)
	}
	trumpable, _ := torrents[1].Strings(ctx, "Trumpable")
	if !slices.Equal(trumpable, []string{"Bad encode", "Hardcoded subs"}) {
		t.Fatalf("Trumpable = %v", trumpable)
	}
	if fetcher.Total() != before {
		t.Fatalf("manifests should come from the movie page already fetched, saw %d extra fetches", fetcher.Total()-before)
	}
}

func TestMovieInferredFields(t *testing.T) {
	cat, fetcher := newTestCatalog(t, nil)
	movie := cat.Movie("10")

	link, err := movie.String(context.Background(), "Link")
	if err != nil {
		t.Fatalf("String returned error: %v", err)
	}
	if link != testBaseURL+"torrents.php?id=10" {
		t.Fatalf("Link = %q", link)
	}
	if fetcher.Total() != 0 {
		t.Fatalf("inferred fields should not fetch, got %d", fetcher.Total())
	}
}

func TestMovieFromDataRequiresGroupID(t *testing.T) {
	cat, _ := newTestCatalog(t, nil)
	_, err := cat.MovieFromData(map[string]any{"Title": "No id"})
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestMovieSchemaExport(t *testing.T) {
	groups := MovieSchema()
	if !slices.Contains(groups[MovieGroupHTML], "Title") {
		t.Fatalf("html group = %v", groups[MovieGroupHTML])
	}
	groups[MovieGroupHTML][0] = "mutated"
	if MovieSchema()[MovieGroupHTML][0] == "mutated" {
		t.Fatal("MovieSchema should return a copy")
	}
}
