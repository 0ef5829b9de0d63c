package catalog

import (
	"context"
	"errors"
	"fmt"
	"html"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dustin/go-humanize"

	"ptpkit/internal/logging"
	"ptpkit/internal/textutil"
)

// Torrent loader groups.
const (
	TorrentGroupMovieJSON   = "movie_json"
	TorrentGroupTorrentJSON = "torrent_json"
	TorrentGroupMovieHTML   = "movie_html"
	TorrentGroupInferred    = "inferred"
	TorrentGroupDescription = "torrent_description"
	TorrentGroupParent      = "parent"
)

// UploadTimeLayout is the tracker's UploadTime format.
const UploadTimeLayout = "2006-01-02 15:04:05"

var torrentSchema = newSchema("torrent", map[string][]string{
	TorrentGroupMovieJSON: {
		"Checked", "Codec", "Container", "GoldenPopcorn", "GroupId", "InfoHash", "Leechers",
		"Quality", "ReleaseGroup", "ReleaseName", "RemasterTitle", "Resolution", "Scene",
		"Seeders", "Size", "Snatched", "Source", "UploadTime",
	},
	TorrentGroupTorrentJSON: {"Description", "Nfo"},
	TorrentGroupMovieHTML:   {"Filelist", "Trumpable"},
	TorrentGroupInferred:    {"Link", "Id", "HumanSize"},
	TorrentGroupDescription: {"BBCodeDescription"},
	TorrentGroupParent:      {"Movie"},
})

// TorrentSchema exposes the torrent loader groups for inspection.
func TorrentSchema() map[string][]string {
	return exportSchema(torrentSchema)
}

// Torrent is a single tracker torrent.
type Torrent struct {
	record
	cat *Catalog
}

// Torrent returns a stub torrent that loads its fields on demand.
func (c *Catalog) Torrent(id string) *Torrent {
	t := &Torrent{record: newRecord(torrentSchema, id), cat: c}
	t.set("Id", id)
	t.loaders[TorrentGroupMovieJSON] = t.loadMovieJSON
	t.loaders[TorrentGroupTorrentJSON] = t.loadTorrentJSON
	t.loaders[TorrentGroupMovieHTML] = t.loadMovieHTML
	t.loaders[TorrentGroupInferred] = t.loadInferred
	t.loaders[TorrentGroupDescription] = t.loadDescription
	t.loaders[TorrentGroupParent] = t.loadParent
	return t
}

// TorrentFromData builds a torrent from already fetched data. The data must
// carry Id or TorrentId.
func (c *Catalog) TorrentFromData(data map[string]any) (*Torrent, error) {
	id := torrentID(data)
	if id == "" {
		return nil, parseErrorf("torrent data", "Id missing")
	}
	t := c.Torrent(id)
	t.merge(data)
	return t, nil
}

func torrentID(data map[string]any) string {
	if id := toString(data["Id"]); id != "" {
		return id
	}
	return toString(data["TorrentId"])
}

// Files returns the torrent's manifest: relative path (including the top-level
// folder) to declared size in bytes.
func (t *Torrent) Files(ctx context.Context) (map[string]int64, error) {
	v, err := t.Get(ctx, "Filelist")
	if err != nil {
		return nil, err
	}
	files, ok := v.(map[string]int64)
	if !ok {
		return nil, t.fieldError("Filelist", fmt.Errorf("unexpected manifest type %T", v))
	}
	return files, nil
}

// UploadTime parses the UploadTime field.
func (t *Torrent) UploadTime(ctx context.Context) (time.Time, error) {
	raw, err := t.String(ctx, "UploadTime")
	if err != nil {
		return time.Time{}, err
	}
	ts, err := time.Parse(UploadTimeLayout, raw)
	if err != nil {
		return time.Time{}, t.fieldError("UploadTime", err)
	}
	return ts, nil
}

// Movie returns the parent movie.
func (t *Torrent) Movie(ctx context.Context) (*Movie, error) {
	v, err := t.Get(ctx, "Movie")
	if err != nil {
		return nil, err
	}
	movie, ok := v.(*Movie)
	if !ok {
		return nil, t.fieldError("Movie", fmt.Errorf("unexpected parent type %T", v))
	}
	return movie, nil
}

// groupID returns the parent movie id, resolving it through the tracker's
// torrentid redirect when unknown. It does not trigger the movie_json group.
func (t *Torrent) groupID(ctx context.Context) (string, error) {
	if t.Has("GroupId") {
		return toString(t.fields["GroupId"]), nil
	}
	resp, err := t.cat.fetcher.Fetch(ctx, "torrents.php", url.Values{"torrentid": {t.id}})
	if err != nil {
		return "", err
	}
	match := groupIDPattern.FindStringSubmatch(resp.URL.String())
	if match == nil {
		return "", parseErrorf("torrent "+t.id+" redirect", "no movie id in %s", resp.URL)
	}
	t.set("GroupId", match[1])
	return match[1], nil
}

func (t *Torrent) loadMovieJSON(ctx context.Context) error {
	group, err := t.groupID(ctx)
	if err != nil {
		return err
	}
	resp, err := t.cat.fetcher.Fetch(ctx, "torrents.php", url.Values{"torrentid": {t.id}, "id": {group}, "json": {"1"}})
	if err != nil {
		return err
	}
	var payload struct {
		Torrents []map[string]any `json:"Torrents"`
	}
	if err := decodeJSON(resp.Body, "movie "+group+" json", &payload); err != nil {
		return err
	}
	for _, data := range payload.Torrents {
		if torrentID(data) != t.id {
			continue
		}
		if _, ok := data["RemasterTitle"]; !ok {
			data["RemasterTitle"] = ""
		}
		t.merge(data)
		return nil
	}
	t.cat.logger.Debug("torrent not listed in movie json",
		logging.String(logging.FieldTorrentID, t.id),
		logging.String(logging.FieldMovieID, group),
	)
	return nil
}

func (t *Torrent) loadTorrentJSON(ctx context.Context) error {
	group, err := t.groupID(ctx)
	if err != nil {
		return err
	}
	resp, err := t.cat.fetcher.Fetch(ctx, "torrents.php", url.Values{"action": {"description"}, "id": {group}, "torrentid": {t.id}})
	if err != nil {
		return err
	}
	var data map[string]any
	if err := decodeJSON(resp.Body, "torrent "+t.id+" description json", &data); err != nil {
		return err
	}
	if nfo, ok := data["Nfo"].(string); ok {
		data["Nfo"] = html.UnescapeString(nfo)
	}
	t.merge(data)
	return nil
}

func (t *Torrent) loadMovieHTML(ctx context.Context) error {
	group, err := t.groupID(ctx)
	if err != nil {
		return err
	}
	resp, err := t.cat.fetcher.Fetch(ctx, "torrents.php", url.Values{"id": {group}, "json": {"0"}})
	if err != nil {
		return err
	}
	doc, err := resp.Document()
	if err != nil {
		return &ParseError{Source: "movie " + group + " page", Err: err}
	}
	t.absorbPage(doc, t.cat)
	return nil
}

// absorbPage fills the movie_html group from a parsed movie page.
func (t *Torrent) absorbPage(doc *goquery.Document, cat *Catalog) {
	files, skipped, err := parseFileList(doc, t.id)
	switch {
	case err != nil:
		logging.WarnWithContext(cat.logger, "torrent file list unavailable", "catalog_filelist_missing",
			logging.String(logging.FieldTorrentID, t.id),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the torrent page for unusual file names"),
			logging.String(logging.FieldImpact, "torrent cannot be matched against local files"),
		)
	default:
		if len(skipped) > 0 {
			logging.WarnWithContext(cat.logger, "file list rows without size", "catalog_filelist_partial",
				logging.String(logging.FieldTorrentID, t.id),
				logging.Int("skipped", len(skipped)),
				logging.String(logging.FieldErrorHint, cat.TorrentLink(t.id)),
				logging.String(logging.FieldImpact, "manifest is incomplete"),
			)
		}
		t.set("Filelist", files)
	}
	t.set("Trumpable", parseTrumpable(doc, t.id))
	t.finish(TorrentGroupMovieHTML)
}

func (t *Torrent) loadInferred(ctx context.Context) error {
	t.set("Id", t.id)
	t.set("Link", t.cat.TorrentLink(t.id))
	size, err := t.Int(ctx, "Size")
	switch {
	case errors.Is(err, ErrRemoteDataMissing):
	case err != nil:
		return err
	default:
		t.set("HumanSize", humanize.IBytes(uint64(max(size, 0))))
	}
	return nil
}

func (t *Torrent) loadDescription(ctx context.Context) error {
	resp, err := t.cat.fetcher.Fetch(ctx, "torrents.php", url.Values{"id": {t.id}, "action": {"get_description"}})
	if err != nil {
		return err
	}
	t.set("BBCodeDescription", html.UnescapeString(string(resp.Body)))
	return nil
}

func (t *Torrent) loadParent(ctx context.Context) error {
	group, err := t.groupID(ctx)
	if err != nil {
		return err
	}
	t.set("Movie", t.cat.Movie(group))
	return nil
}

// Download fetches the .torrent file.
func (t *Torrent) Download(ctx context.Context) ([]byte, error) {
	data, _, err := t.download(ctx)
	return data, err
}

// DownloadToDir writes the .torrent file into dir using the name the tracker
// supplies and returns the written path.
func (t *Torrent) DownloadToDir(ctx context.Context, dir string) (string, error) {
	data, name, err := t.download(ctx)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}
	dest := filepath.Join(dir, name)
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", fmt.Errorf("write torrent file: %w", err)
	}
	return dest, nil
}

func (t *Torrent) download(ctx context.Context) ([]byte, string, error) {
	resp, err := t.cat.fetcher.Fetch(ctx, "torrents.php", url.Values{"action": {"download"}, "id": {t.id}})
	if err != nil {
		return nil, "", err
	}
	name := t.id + ".torrent"
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		if fn := textutil.SanitizeFileName(params["filename"]); fn != "" {
			name = fn
		}
	}
	return resp.Body, name, nil
}
