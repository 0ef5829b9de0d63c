package catalog

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// User loader groups.
const UserGroupStats = "stats"

var userSchema = newSchema("user", map[string][]string{
	UserGroupStats: {"Stats"},
})

var (
	statTailPattern    = regexp.MustCompile(`\t.*`)
	parenthesisPattern = regexp.MustCompile(`^(.*) \((.*)\)$`)
	movieIDPattern     = regexp.MustCompile(`id=(\d+)`)
)

// User is a tracker member.
type User struct {
	record
	cat *Catalog
}

// User returns a stub user.
func (c *Catalog) User(id string) *User {
	u := &User{record: newRecord(userSchema, id), cat: c}
	u.loaders[UserGroupStats] = u.loadStats
	return u
}

// Stats returns the profile statistics keyed by CamelCase stat name.
func (u *User) Stats(ctx context.Context) (map[string]string, error) {
	v, err := u.Get(ctx, "Stats")
	if err != nil {
		return nil, err
	}
	stats, ok := v.(map[string]string)
	if !ok {
		return nil, u.fieldError("Stats", fmt.Errorf("unexpected stats type %T", v))
	}
	return stats, nil
}

// Rating is one movie rating on a user's ratings page.
type Rating struct {
	MovieID string
	Rating  string
}

// Bookmarks lists the movies the user has bookmarked.
func (u *User) Bookmarks(ctx context.Context, filters url.Values) ([]*Movie, error) {
	params := url.Values{}
	for k, v := range filters {
		params[k] = append([]string(nil), v...)
	}
	params.Set("userid", u.id)
	resp, err := u.cat.fetcher.Fetch(ctx, "bookmarks.php", params)
	if err != nil {
		return nil, err
	}
	return u.cat.moviesFromCoverView(resp.Body, "bookmarks of user "+u.id)
}

// Ratings lists the user's movie ratings (0-100).
func (u *User) Ratings(ctx context.Context) ([]Rating, error) {
	resp, err := u.cat.fetcher.Fetch(ctx, "user.php", url.Values{"id": {u.id}, "action": {"ratings"}})
	if err != nil {
		return nil, err
	}
	doc, err := resp.Document()
	if err != nil {
		return nil, &ParseError{Source: "ratings of user " + u.id, Err: err}
	}
	table := doc.Find("#ratings_table")
	if table.Length() == 0 {
		return nil, parseErrorf("ratings of user "+u.id, "ratings table not found")
	}
	ratings := []Rating{}
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		match := movieIDPattern.FindStringSubmatch(row.Find(".l_movie").AttrOr("href", ""))
		if match == nil {
			return
		}
		value := strings.TrimSpace(row.Find("#user_rating_" + match[1]).Text())
		ratings = append(ratings, Rating{MovieID: match[1], Rating: strings.TrimRight(value, "%")})
	})
	return ratings, nil
}

func (u *User) loadStats(ctx context.Context) error {
	resp, err := u.cat.fetcher.Fetch(ctx, "user.php", url.Values{"id": {u.id}})
	if err != nil {
		return err
	}
	doc, err := resp.Document()
	if err != nil {
		return &ParseError{Source: "profile of user " + u.id, Err: err}
	}
	stats := make(map[string]string)
	statsSection(doc, "Stats").Each(func(_ int, li *goquery.Selection) {
		name, value := parseStat(li.Text())
		stats[name] = value
	})
	statsSection(doc, "Personal").Each(func(_ int, li *goquery.Selection) {
		if name, value := parseStat(li.Text()); value != "" {
			stats[name] = value
		}
	})
	statsSection(doc, "Community").Each(func(_ int, li *goquery.Selection) {
		name, value := parseStat(li.Text())
		switch name {
		case "Uploaded":
			if match := parenthesisPattern.FindStringSubmatch(value); match != nil {
				stats["UploadedTorrentsWithDeleted"] = match[1]
				value = match[2]
			}
			name = "UploadedTorrents"
		case "Downloaded":
			name = "DownloadedTorrents"
		case "SnatchesFromUploads":
			if match := parenthesisPattern.FindStringSubmatch(value); match != nil {
				stats["SnatchesFromUploadsWithDeleted"] = match[1]
				value = match[2]
			}
		case "AverageSeedTime(Active)":
			name = "AverageSeedTimeActive"
		}
		stats[name] = value
	})
	if len(stats) == 0 {
		return parseErrorf("profile of user "+u.id, "no stats sections found")
	}
	u.set("Stats", stats)
	return nil
}

// statsSection returns the list items of the profile box headed by title.
func statsSection(doc *goquery.Document, title string) *goquery.Selection {
	return doc.Find("span").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == title
	}).First().Parent().Parent().Find("li")
}

func parseStat(line string) (string, string) {
	stat, value, _ := strings.Cut(line, ":")
	stat = strings.ReplaceAll(cases.Title(language.English).String(strings.TrimSpace(stat)), " ", "")
	value = statTailPattern.ReplaceAllString(value, "")
	value = strings.TrimSpace(strings.ReplaceAll(value, "[View]", ""))
	return stat, value
}
