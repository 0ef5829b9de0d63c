package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"html"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	titleYearPattern  = regexp.MustCompile(`^(.*?)\s*\[(\d{4})\]`)
	basePathPattern   = regexp.MustCompile(`/(.*)/`)
	nonDigitPattern   = regexp.MustCompile(`\D`)
	coverViewPattern  = regexp.MustCompile(`coverViewJsonData\[\s*\d+\s*\]\s*=\s*`)
	torrentRefPattern = regexp.MustCompile(`torrents\.php\?id=(\d+)&(?:amp;)?torrentid=(\d+)`)

	errNoFileList = errors.New("file list not present on movie page")
)

// moviePage is the data scraped from a movie's HTML page.
type moviePage struct {
	title          string
	year           string
	cover          string
	tags           []string
	directors      []any
	hasRating      bool
	ptpRating      string
	ptpRatingCount string
	userRating     string
	seen           bool
	snatched       bool
}

func parseMoviePage(doc *goquery.Document, source string) (*moviePage, error) {
	heading := doc.Find("h2.page__title").First()
	if heading.Length() == 0 {
		return nil, parseErrorf(source, "page title not found")
	}
	page := &moviePage{year: "0", directors: []any{}, tags: []string{}}

	heading.Find("a.artist-info-link").Each(func(_ int, s *goquery.Selection) {
		page.directors = append(page.directors, map[string]any{"Name": strings.TrimSpace(s.Text())})
	})
	text := strings.Join(strings.Fields(heading.Text()), " ")
	if match := titleYearPattern.FindStringSubmatch(text); match != nil {
		page.title, page.year = match[1], match[2]
	} else {
		page.title = text
		if len(page.directors) > 0 {
			if idx := strings.LastIndex(text, " by "); idx >= 0 {
				page.title = text[:idx]
			}
		}
	}

	page.cover = doc.Find("img.sidebar-cover-image").First().AttrOr("src", "")
	doc.Find("div.box_tags li").Each(func(_ int, s *goquery.Selection) {
		if tag := strings.TrimSpace(s.Find("a").First().Text()); tag != "" {
			page.tags = append(page.tags, tag)
		}
	})

	if rating := doc.Find("#ptp_rating_td").First(); rating.Length() > 0 {
		page.hasRating = true
		page.ptpRating = strings.TrimSpace(strings.Trim(strings.TrimSpace(rating.Find("#user_rating").Text()), "%"))
		page.ptpRatingCount = nonDigitPattern.ReplaceAllString(rating.Find("#user_total").Text(), "")
		yours := rating.Find("#ptp_your_rating").Text()
		switch {
		case strings.Contains(yours, "?"):
			page.seen = false
		default:
			page.seen = true
			page.userRating = nonDigitPattern.ReplaceAllString(yours, "")
		}
	}

	page.snatched = doc.Find(".torrent-info-link--user-snatched, .torrent-info-link--user-seeding").Length() > 0
	return page, nil
}

// parseFileList reads the manifest of one torrent from a movie page. Paths
// are prefixed with the torrent's top-level folder when it has one. Rows
// without a byte size are returned in skipped.
func parseFileList(doc *goquery.Document, torrentID string) (files map[string]int64, skipped []string, err error) {
	div := doc.Find("div#files_" + torrentID).First()
	if div.Length() == 0 {
		return nil, nil, errNoFileList
	}
	base := ""
	if header := div.Find("thead div").Eq(1); header.Length() > 0 {
		if match := basePathPattern.FindStringSubmatch(strings.TrimSpace(header.Text())); match != nil {
			base = match[1]
		}
	}
	files = make(map[string]int64)
	div.Find("tbody tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		name := strings.TrimSpace(cells.Eq(0).Text())
		title, ok := cells.Eq(1).Find("span").First().Attr("title")
		if !ok {
			skipped = append(skipped, name)
			return true
		}
		raw := strings.TrimSuffix(strings.ReplaceAll(strings.TrimSpace(title), ",", ""), " bytes")
		size, perr := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if perr != nil {
			err = parseErrorf("file list of torrent "+torrentID, "size %q: %v", title, perr)
			return false
		}
		if base != "" {
			name = path.Join(base, name)
		}
		files[name] = size
		return true
	})
	if err != nil {
		return nil, nil, err
	}
	return files, skipped, nil
}

func parseTrumpable(doc *goquery.Document, torrentID string) []string {
	reasons := []string{}
	doc.Find("#trumpable_" + torrentID + " span").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			reasons = append(reasons, text)
		}
	})
	return reasons
}

// parseCoverView extracts the movie list embedded in listing pages as
// coverViewJsonData[n] = {...}; assignments.
func parseCoverView(body []byte, source string) ([]map[string]any, error) {
	var movies []map[string]any
	for _, loc := range coverViewPattern.FindAllIndex(body, -1) {
		var payload struct {
			Movies []map[string]any `json:"Movies"`
		}
		dec := json.NewDecoder(bytes.NewReader(body[loc[1]:]))
		dec.UseNumber()
		if err := dec.Decode(&payload); err != nil {
			return nil, &ParseError{Source: source, Err: err}
		}
		for _, movie := range payload.Movies {
			if title, ok := movie["Title"].(string); ok {
				movie["Title"] = html.UnescapeString(title)
			}
			movie["Torrents"] = coverViewTorrents(movie)
			delete(movie, "GroupingQualities")
			movies = append(movies, movie)
		}
	}
	return movies, nil
}

func coverViewTorrents(movie map[string]any) []any {
	torrents := []any{}
	groups, _ := movie["GroupingQualities"].([]any)
	for _, g := range groups {
		group, _ := g.(map[string]any)
		list, _ := group["Torrents"].([]any)
		for _, item := range list {
			torrent, ok := item.(map[string]any)
			if !ok {
				continue
			}
			fragment, _ := torrent["Title"].(string)
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
			if err != nil {
				continue
			}
			anchor := doc.Find("a").First()
			parts := strings.Split(anchor.Text(), "/")
			if len(parts) < 4 {
				continue
			}
			torrent["Codec"] = strings.TrimSpace(parts[0])
			torrent["Container"] = strings.TrimSpace(parts[1])
			torrent["Source"] = strings.TrimSpace(parts[2])
			torrent["Resolution"] = strings.TrimSpace(parts[3])
			if title, ok := anchor.Attr("title"); ok {
				lines := strings.Split(title, "\n")
				torrent["ReleaseName"] = strings.TrimSpace(lines[len(lines)-1])
			}
			match := torrentRefPattern.FindStringSubmatch(anchor.AttrOr("href", ""))
			if match == nil {
				continue
			}
			torrent["Id"] = match[2]
			delete(torrent, "Title")
			torrents = append(torrents, torrent)
		}
	}
	return torrents
}
