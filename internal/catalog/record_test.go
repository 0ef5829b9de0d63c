package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ptpkit/internal/testsupport"
)

func TestSchemasAssignEachFieldToOneGroup(t *testing.T) {
	for _, s := range []*schema{movieSchema, torrentSchema, userSchema} {
		total := 0
		for _, group := range s.Groups() {
			fields := s.Fields(group)
			total += len(fields)
			for _, field := range fields {
				if s.groupOf[field] != group {
					t.Fatalf("%s field %q maps to %q, want %q", s.kind, field, s.groupOf[field], group)
				}
			}
		}
		if total != len(s.groupOf) {
			t.Fatalf("%s schema declares %d field slots for %d fields", s.kind, total, len(s.groupOf))
		}
	}
}

func TestNewSchemaRejectsDuplicateField(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for duplicated field")
		}
		if !strings.Contains(r.(string), `"Size"`) {
			t.Fatalf("unexpected panic message %v", r)
		}
	}()
	newSchema("test", map[string][]string{"a": {"Size"}, "b": {"Size"}})
}

func TestEveryGroupHasALoader(t *testing.T) {
	cat, _ := newTestCatalog(t, nil)
	entities := []*record{&cat.Movie("1").record, &cat.Torrent("1").record, &cat.User("1").record}
	for _, rec := range entities {
		for _, group := range rec.schema.Groups() {
			if _, ok := rec.loaders[group]; !ok {
				t.Fatalf("%s group %q has no loader", rec.schema.kind, group)
			}
		}
	}
}

func TestUnknownFieldFailsWithoutFetching(t *testing.T) {
	cat, fetcher := newTestCatalog(t, nil)
	movie := cat.Movie("10")

	_, err := movie.Get(context.Background(), "Bogus")
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != "Bogus" || fieldErr.Entity != "movie" {
		t.Fatalf("unexpected error detail %#v", err)
	}
	if fetcher.Total() != 0 {
		t.Fatalf("expected no fetches, got %d", fetcher.Total())
	}
}

func TestFailedLoadIsRetriedOnNextRead(t *testing.T) {
	transient := errors.New("connection reset")
	routes := map[string]testsupport.Route{"torrents.php?id=10&json=1": {Err: transient}}
	cat, fetcher := newTestCatalog(t, routes)
	movie := cat.Movie("10")

	if _, err := movie.Get(context.Background(), "Name"); !errors.Is(err, transient) {
		t.Fatalf("expected transport error to surface unmodified, got %v", err)
	}
	if movie.Loaded(MovieGroupJSON) {
		t.Fatal("failed load must not mark the group loaded")
	}

	fetcher.Routes["torrents.php?id=10&json=1"] = testsupport.Route{Body: movieJSON}
	name, err := movie.String(context.Background(), "Name")
	if err != nil {
		t.Fatalf("String returned error: %v", err)
	}
	if name != "Example Movie" {
		t.Fatalf("Name = %q", name)
	}
	if fetcher.Calls["torrents.php?id=10&json=1"] != 2 {
		t.Fatalf("expected two attempts, got %d", fetcher.Calls["torrents.php?id=10&json=1"])
	}
}

func TestMalformedPayloadIsParseError(t *testing.T) {
	routes := map[string]testsupport.Route{"torrents.php?id=10&json=1": {Body: "<html>not json</html>"}}
	cat, _ := newTestCatalog(t, routes)

	_, err := cat.Movie("10").Get(context.Background(), "ImdbId")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestValueConversions(t *testing.T) {
	cases := []struct {
		in   any
		want int64
	}{
		{"1,234", 1234},
		{" 42 ", 42},
		{"", 0},
		{float64(7), 7},
		{true, 1},
	}
	for _, tc := range cases {
		got, err := toInt(tc.in)
		if err != nil {
			t.Fatalf("toInt(%v) returned error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("toInt(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
	if _, err := toInt("12 GB"); err == nil {
		t.Fatal("expected error for non-numeric string")
	}
	if b, err := toBool("1"); err != nil || !b {
		t.Fatalf("toBool(\"1\") = %v, %v", b, err)
	}
	if b, err := toBool(false); err != nil || b {
		t.Fatalf("toBool(false) = %v, %v", b, err)
	}
	names := toStrings([]any{map[string]any{"Name": "Jane Doe"}, "drama"})
	if strings.Join(names, "|") != "Jane Doe|drama" {
		t.Fatalf("toStrings = %v", names)
	}
}

func TestLoadRunsGroupOnce(t *testing.T) {
	cat, fetcher := newTestCatalog(t, movieRoutes())
	movie := cat.Movie("10")
	ctx := context.Background()

	for range 2 {
		if err := movie.Load(ctx, MovieGroupHTML); err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
	}
	if fetcher.Calls["torrents.php?id=10&json=0"] != 1 {
		t.Fatalf("expected one page fetch, got %d", fetcher.Calls["torrents.php?id=10&json=0"])
	}
	if err := movie.Load(ctx, "bogus"); err == nil {
		t.Fatal("expected error for unknown group")
	}
}
