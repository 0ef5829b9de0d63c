package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"ptpkit/internal/catalog"
)

type movieRow struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Year     string `json:"year"`
	Torrents int    `json:"torrents,omitempty"`
	Link     string `json:"link"`
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var params []string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search [terms...]",
		Short: "Search the tracker for movies",
		Example: `  ptp search the thing
  ptp search --param year=1982 --param resolution=1080p thing`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := parseParams(params)
			if err != nil {
				return err
			}
			if terms := strings.TrimSpace(strings.Join(args, " ")); terms != "" {
				filters.Set("searchstr", terms)
			}
			return ctx.withCatalog(cmd, func(s *session) error {
				movies, err := s.catalog.Search(s.ctx, filters)
				if err != nil {
					return err
				}
				if limit > 0 && len(movies) > limit {
					movies = movies[:limit]
				}
				rows := make([]movieRow, 0, len(movies))
				for _, m := range movies {
					row, err := describeMovie(s.ctx, m)
					if err != nil {
						return err
					}
					rows = append(rows, row)
				}
				if wantJSON(cmd, asJSON) {
					return writeJSON(cmd, rows)
				}
				out := newListing(
					numberColumn("ID"),
					textColumn("Title").wrapAt(titleWidth),
					numberColumn("Year"),
					numberColumn("Torrents"),
					textColumn("Link"),
				)
				torrents := 0
				for _, r := range rows {
					out.add(r.ID, r.Title, r.Year, r.Torrents, r.Link)
					torrents += r.Torrents
				}
				out.total("", fmt.Sprintf("%d movies", len(rows)), "", torrents, "")
				fmt.Fprintln(cmd.OutOrStdout(), out.render())
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVar(&params, "param", nil, "Extra search parameter as key=value (repeatable)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Show at most this many movies")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON even on a terminal")
	return cmd
}

func parseParams(pairs []string) (url.Values, error) {
	values := url.Values{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q (want key=value)", pair)
		}
		values.Add(key, strings.TrimSpace(value))
	}
	return values, nil
}

// describeMovie reads only fields already present on m, so search results
// cost no extra requests. Link and Id are computed locally.
func describeMovie(ctx context.Context, m *catalog.Movie) (movieRow, error) {
	row := movieRow{ID: m.ID()}
	if m.Has("Title") {
		title, err := m.String(ctx, "Title")
		if err != nil {
			return row, err
		}
		row.Title = title
	}
	if m.Has("Year") {
		year, err := m.String(ctx, "Year")
		if err != nil {
			return row, err
		}
		row.Year = year
	}
	if m.Has("Torrents") {
		torrents, err := m.Torrents(ctx)
		if err != nil {
			return row, err
		}
		row.Torrents = len(torrents)
	}
	link, err := m.String(ctx, "Link")
	if err != nil {
		return row, err
	}
	row.Link = link
	return row, nil
}
