package testsupport

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/anacrolix/torrent/bencode"
	"github.com/anacrolix/torrent/metainfo"
)

// ReleaseName is the folder name of the fixture release.
const ReleaseName = "Example.Movie.2001.1080p.BluRay.x264-GRP"

// WriteTree creates files (slash paths relative to root) with the given
// contents.
func WriteTree(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", path, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

// Release writes ReleaseName under root (a 10 byte .mkv and a 4 byte .nfo)
// and returns its path.
func Release(t testing.TB, root string) string {
	t.Helper()
	WriteTree(t, root, map[string]string{
		ReleaseName + "/" + ReleaseName + ".mkv": "0123456789",
		ReleaseName + "/" + ReleaseName + ".nfo": "nfo!",
	})
	return filepath.Join(root, ReleaseName)
}

// AddReleaseRoutes serves movie 10, which lists torrent 6 (wrong sizes)
// before torrent 5 (matching Release), plus torrent 5's redirect to its
// group and its .torrent download.
func AddReleaseRoutes(t testing.TB, f *Fetcher) {
	t.Helper()
	movieJSON := `{"GroupId":"10","Name":"Example Movie","Torrents":[
{"Id":"6","ReleaseName":"Example.Movie.2001.720p-OTHER","Size":"99","Seeders":"1","UploadTime":"2020-01-01 00:00:00"},
{"Id":"5","ReleaseName":"` + ReleaseName + `","Size":"14","Seeders":"3","UploadTime":"2021-01-01 00:00:00"}]}`
	page := fmt.Sprintf(`<html><body><h2 class="page__title">Example Movie [2001]</h2>
<div id="files_6"><table><thead><tr><td><div>Name</div><div>/Example.Movie.2001.720p-OTHER/</div></td></tr></thead>
<tbody><tr><td>Example.Movie.2001.720p-OTHER.mkv</td><td><span title="99 bytes">99 B</span></td></tr></tbody></table></div>
<div id="files_5"><table><thead><tr><td><div>Name</div><div>/%[1]s/</div></td></tr></thead>
<tbody><tr><td>%[1]s.mkv</td><td><span title="10 bytes">10 B</span></td></tr>
<tr><td>%[1]s.nfo</td><td><span title="4 bytes">4 B</span></td></tr></tbody></table></div>
</body></html>`, ReleaseName)

	f.Set("torrents.php?id=10&json=1", movieJSON)
	f.Set("torrents.php?id=10&json=0", page)
	f.Set("torrents.php?id=10&json=1&torrentid=5", movieJSON)
	f.Routes["torrents.php?torrentid=5"] = Route{FinalURL: BaseURL + "torrents.php?id=10&torrentid=5"}
	f.Set("torrents.php?action=download&id=5", string(Torrent(t, metainfo.Info{
		Name: ReleaseName,
		Files: []metainfo.FileInfo{
			{Path: []string{ReleaseName + ".mkv"}, Length: 10},
			{Path: []string{ReleaseName + ".nfo"}, Length: 4},
		},
	})))
}

// FilelistKey is the search request the filename strategy sends for name.
func FilelistKey(name string) string {
	return "torrents.php?filelist=" + url.QueryEscape(name) + "&json=noredirect"
}

// SearchBody is a JSON search result listing the given movie ids.
func SearchBody(ids ...string) string {
	body := `{"Movies":[`
	for i, id := range ids {
		if i > 0 {
			body += ","
		}
		body += `{"GroupId":"` + id + `","Title":"Example Movie","Year":"2001"}`
	}
	return body + `]}`
}

// Torrent encodes info as a .torrent file. Piece data is filled in.
func Torrent(t testing.TB, info metainfo.Info) []byte {
	t.Helper()
	info.PieceLength = 16384
	info.Pieces = make([]byte, 20)
	infoBytes, err := bencode.Marshal(info)
	if err != nil {
		t.Fatalf("marshal info: %v", err)
	}
	mi := metainfo.MetaInfo{InfoBytes: infoBytes, Announce: BaseURL + "announce"}
	var buf bytes.Buffer
	if err := mi.Write(&buf); err != nil {
		t.Fatalf("write metainfo: %v", err)
	}
	return buf.Bytes()
}
