package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ptpkit/internal/catalog"
	"ptpkit/internal/logging"
	"ptpkit/internal/selection"
)

type torrentRow struct {
	ID          string `json:"id"`
	ReleaseName string `json:"release_name"`
	Size        string `json:"size"`
	Seeders     int64  `json:"seeders"`
	Link        string `json:"link"`
	File        string `json:"file,omitempty"`
}

func newBestCommand(ctx *commandContext) *cobra.Command {
	var filter string
	var download bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "best <movie id or url>",
		Short: "Pick the best torrent of a movie with a selection profile",
		Long: `Pick the best torrent of a movie with a selection profile.

A profile is a comma separated list of sub-profiles tried in order. Each
sub-profile names filters (` + strings.Join(selection.FilterNames(), ", ") + `),
comparisons on seeders or size (size>=4GiB, seeders>0) and an optional sort
(` + strings.Join(selection.SortNames(), ", ") + `).`,
		Example: `  ptp best 12345 --filter "gp 1080p seeded,720p most seeders"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			movieID, err := parseTarget(args[0], "id")
			if err != nil {
				return err
			}
			return ctx.withCatalog(cmd, func(s *session) error {
				profile := strings.TrimSpace(filter)
				if profile == "" {
					profile = s.cfg.Main.Filter
				}
				if profile == "" {
					return errors.New("no selection profile: pass --filter or set main.filter")
				}
				best, err := selection.SelectBest(s.ctx, s.catalog.Movie(movieID), profile,
					selection.WithLogger(s.logger))
				if err != nil {
					return err
				}
				if best == nil {
					return fmt.Errorf("no torrent of movie %s matches %q", movieID, profile)
				}
				row, err := describeTorrent(s.ctx, best)
				if err != nil {
					return err
				}
				if download {
					path, err := best.DownloadToDir(s.ctx, s.cfg.Main.DownloadDir)
					if err != nil {
						return err
					}
					row.File = path
					s.logger.Info("torrent downloaded",
						logging.String(logging.FieldTorrentID, row.ID),
						logging.String(logging.FieldPath, path),
					)
				}
				if wantJSON(cmd, asJSON) {
					return writeJSON(cmd, row)
				}
				out := newListing(
					numberColumn("ID"),
					textColumn("Release").wrapAt(releaseWidth),
					numberColumn("Size"),
					numberColumn("Seeders"),
					textColumn("Link"),
				)
				out.add(row.ID, row.ReleaseName, row.Size, row.Seeders, row.Link)
				fmt.Fprintln(cmd.OutOrStdout(), out.render())
				if row.File != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", row.File)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Selection profile (defaults to main.filter)")
	cmd.Flags().BoolVarP(&download, "download", "d", false, "Download the chosen .torrent into main.download_dir")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON even on a terminal")
	return cmd
}

func describeTorrent(ctx context.Context, t *catalog.Torrent) (torrentRow, error) {
	row := torrentRow{ID: t.ID()}
	var err error
	if row.ReleaseName, err = t.String(ctx, "ReleaseName"); err != nil {
		return row, err
	}
	if row.Seeders, err = t.Int(ctx, "Seeders"); err != nil {
		return row, err
	}
	if row.Link, err = t.String(ctx, "Link"); err != nil {
		return row, err
	}
	size, err := t.String(ctx, "HumanSize")
	if err != nil && !errors.Is(err, catalog.ErrRemoteDataMissing) {
		return row, err
	}
	row.Size = size
	return row, nil
}
