package reseed

import (
	"maps"
	"slices"
	"testing"
)

func TestMatchFiles(t *testing.T) {
	tests := []struct {
		name      string
		local     map[string]int64
		remote    map[string]int64
		want      map[string]string
		unmatched []string
	}{
		{
			name:   "exact path and size",
			local:  map[string]int64{"Movie/a.mkv": 100, "Movie/a.nfo": 5},
			remote: map[string]int64{"Movie/a.mkv": 100, "Movie/a.nfo": 5},
			want:   map[string]string{"Movie/a.mkv": "Movie/a.mkv", "Movie/a.nfo": "Movie/a.nfo"},
		},
		{
			name:      "manifest is a superset of local files",
			local:     map[string]int64{"a/b.mkv": 100},
			remote:    map[string]int64{"a/b.mkv": 100, "a/c.nfo": 50},
			want:      map[string]string{"a/b.mkv": "a/b.mkv"},
			unmatched: []string{"a/c.nfo"},
		},
		{
			name:   "renamed root folder",
			local:  map[string]int64{"Movie (2001)/Sub/a.srt": 7, "Movie (2001)/a.mkv": 100},
			remote: map[string]int64{"Movie.2001.1080p/Sub/a.srt": 7, "Movie.2001.1080p/a.mkv": 100},
			want: map[string]string{
				"Movie (2001)/Sub/a.srt": "Movie.2001.1080p/Sub/a.srt",
				"Movie (2001)/a.mkv":     "Movie.2001.1080p/a.mkv",
			},
		},
		{
			name:   "basename pass before size pass",
			local:  map[string]int64{"x.mkv": 100, "y.mkv": 100},
			remote: map[string]int64{"movie/x.mkv": 100, "movie/y.mkv": 100},
			want:   map[string]string{"x.mkv": "movie/x.mkv", "y.mkv": "movie/y.mkv"},
		},
		{
			name:   "duplicate remote basenames fall to size",
			local:  map[string]int64{"local/sample.mkv": 10, "local/feature.mkv": 100},
			remote: map[string]int64{"r/a/sample.mkv": 100, "r/b/sample.mkv": 10},
			want:   map[string]string{"local/feature.mkv": "r/a/sample.mkv", "local/sample.mkv": "r/b/sample.mkv"},
		},
		{
			name:   "size only",
			local:  map[string]int64{"movie.mkv": 4242},
			remote: map[string]int64{"Release/release.mkv": 4242},
			want:   map[string]string{"movie.mkv": "Release/release.mkv"},
		},
		{
			name:      "size mismatch",
			local:     map[string]int64{"Movie/a.mkv": 99},
			remote:    map[string]int64{"Movie/a.mkv": 100},
			want:      map[string]string{},
			unmatched: []string{"Movie/a.mkv"},
		},
		{
			name:   "extra local files are ignored",
			local:  map[string]int64{"Movie/a.mkv": 100, "Movie/notes.txt": 3},
			remote: map[string]int64{"Movie/a.mkv": 100},
			want:   map[string]string{"Movie/a.mkv": "Movie/a.mkv"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pairs, unmatched := MatchFiles(tc.local, tc.remote)
			if !maps.Equal(pairs, tc.want) {
				t.Fatalf("pairs = %v, want %v", pairs, tc.want)
			}
			if !slices.Equal(unmatched, tc.unmatched) {
				t.Fatalf("unmatched = %v, want %v", unmatched, tc.unmatched)
			}
		})
	}
}

func TestMatchFilesLeavesInputsUntouched(t *testing.T) {
	local := map[string]int64{"a/b.mkv": 100}
	remote := map[string]int64{"a/b.mkv": 100}
	MatchFiles(local, remote)
	if len(local) != 1 || len(remote) != 1 {
		t.Fatalf("inputs were modified: %v %v", local, remote)
	}
}

func TestMatchFilesExactPassWinsOverSize(t *testing.T) {
	local := map[string]int64{"m/a.mkv": 100, "m/b.mkv": 100}
	remote := map[string]int64{"m/b.mkv": 100, "m/a.mkv": 100}
	pairs, _ := MatchFiles(local, remote)
	if pairs["m/a.mkv"] != "m/a.mkv" || pairs["m/b.mkv"] != "m/b.mkv" {
		t.Fatalf("expected identity pairing, got %v", pairs)
	}
}

func TestMatchOK(t *testing.T) {
	if (Match{TorrentID: "1"}).OK() {
		t.Fatal("match without directory should not be OK")
	}
	if (Match{Dir: "/data"}).OK() {
		t.Fatal("match without torrent should not be OK")
	}
	if !(Match{TorrentID: "1", Dir: "/data"}).OK() {
		t.Fatal("expected OK match")
	}
}
