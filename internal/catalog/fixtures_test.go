package catalog

import (
	"maps"
	"testing"

	"ptpkit/internal/logging"
	"ptpkit/internal/testsupport"
)

const testBaseURL = testsupport.BaseURL

func newTestCatalog(t *testing.T, routes map[string]testsupport.Route) (*Catalog, *testsupport.Fetcher) {
	t.Helper()
	fetcher := testsupport.NewFetcher(t)
	maps.Copy(fetcher.Routes, routes)
	return New(fetcher, testBaseURL, logging.NewNop()), fetcher
}

const movieJSON = `{
  "GroupId": "10",
  "Name": "Example Movie",
  "ImdbId": "0123456",
  "ImdbRating": "7.5",
  "CoverImage": "https://img.test/cover.jpg",
  "Torrents": [
    {"Id": "5", "Quality": "High Definition", "Source": "Blu-ray", "Container": "MKV", "Codec": "x264",
     "Resolution": "1080p", "Size": "8589934592", "Scene": false, "GoldenPopcorn": true,
     "UploadTime": "2021-01-01 10:00:00", "Seeders": "12", "Leechers": "0", "Snatched": "40",
     "ReleaseName": "Example.Movie.2001.1080p.BluRay.x264-GRP", "ReleaseGroup": "GRP", "Checked": true, "InfoHash": "ABC"},
    {"Id": "6", "Quality": "Standard Definition", "Source": "DVD", "Container": "AVI", "Codec": "XviD",
     "Resolution": "720x576", "Size": "734003200", "Scene": true, "GoldenPopcorn": false,
     "UploadTime": "2010-05-01 08:00:00", "Seeders": "0", "Leechers": "1", "Snatched": "5",
     "ReleaseName": "Example.Movie.2001.DVDRip.XviD-OLD", "ReleaseGroup": "OLD", "Checked": false, "InfoHash": "DEF",
     "RemasterTitle": "Director's Cut"}
  ]
}`

const moviePageHTML = `<html><body>
<img class="sidebar-cover-image" src="https://img.test/sidebar.jpg">
<h2 class="page__title">Example Movie [2001] by <a class="artist-info-link" href="artist.php?id=1">Jane Doe</a></h2>
<div class="box_tags"><ul><li><a href="#">drama</a></li><li><a href="#">thriller</a></li></ul></div>
<table><tr><td id="ptp_rating_td"><span id="user_rating">85%</span> <span id="user_total">(1,234 votes)</span> <span id="ptp_your_rating">Your rating: 90</span></td></tr></table>
<a class="torrent-info-link torrent-info-link--user-snatched" href="#">1080p</a>
<div id="files_5"><table>
<thead><tr><td><div>Name</div><div>/Example.Movie.2001.1080p.BluRay.x264-GRP/</div></td></tr></thead>
<tbody>
<tr><td>Example.Movie.2001.1080p.BluRay.x264-GRP.mkv</td><td><span title="8,589,000,000 bytes">8 GiB</span></td></tr>
<tr><td>Example.Movie.2001.1080p.BluRay.x264-GRP.nfo</td><td><span title="4,096 bytes">4 KiB</span></td></tr>
</tbody></table></div>
<div id="files_6"><table>
<thead><tr><td><div>Name</div><div>/</div></td></tr></thead>
<tbody><tr><td>Example.Movie.2001.DVDRip.XviD-OLD.avi</td><td><span title="734,003,200 bytes">700 MiB</span></td></tr></tbody>
</table></div>
<div id="trumpable_6"><span>Bad encode</span><span>Hardcoded subs</span></div>
</body></html>`

func movieRoutes() map[string]testsupport.Route {
	return map[string]testsupport.Route{
		"torrents.php?id=10&json=1": {Body: movieJSON},
		"torrents.php?id=10&json=0": {Body: moviePageHTML},
	}
}
