package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"ptpkit/internal/catalog"
)

func newUserCommand(ctx *commandContext) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Inspect a tracker user (the logged-in user by default)",
	}
	userCmd.AddCommand(newUserStatsCommand(ctx))
	userCmd.AddCommand(newUserRatingsCommand(ctx))
	userCmd.AddCommand(newUserBookmarksCommand(ctx))
	return userCmd
}

func resolveUser(s *session, args []string) (*catalog.User, error) {
	if len(args) == 1 {
		id, err := parseTarget(args[0], "id")
		if err != nil {
			return nil, err
		}
		return s.catalog.User(id), nil
	}
	return s.catalog.CurrentUser(s.ctx)
}

func newUserStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats [user id or url]",
		Short: "Show profile statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(cmd, func(s *session) error {
				user, err := resolveUser(s, args)
				if err != nil {
					return err
				}
				stats, err := user.Stats(s.ctx)
				if err != nil {
					return err
				}
				if wantJSON(cmd, asJSON) {
					return writeJSON(cmd, stats)
				}
				out := newListing(textColumn("Stat"), numberColumn("Value"))
				for _, key := range slices.Sorted(maps.Keys(stats)) {
					out.add(key, stats[key])
				}
				fmt.Fprintln(cmd.OutOrStdout(), out.render())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON even on a terminal")
	return cmd
}

func newUserRatingsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ratings [user id or url]",
		Short: "List movie ratings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(cmd, func(s *session) error {
				user, err := resolveUser(s, args)
				if err != nil {
					return err
				}
				ratings, err := user.Ratings(s.ctx)
				if err != nil {
					return err
				}
				if wantJSON(cmd, asJSON) {
					return writeJSON(cmd, ratings)
				}
				out := newListing(numberColumn("Movie"), numberColumn("Rating"))
				for _, r := range ratings {
					out.add(r.MovieID, r.Rating)
				}
				fmt.Fprintln(cmd.OutOrStdout(), out.render())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON even on a terminal")
	return cmd
}

func newUserBookmarksCommand(ctx *commandContext) *cobra.Command {
	var params []string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "bookmarks [user id or url]",
		Short: "List bookmarked movies",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := parseParams(params)
			if err != nil {
				return err
			}
			return ctx.withCatalog(cmd, func(s *session) error {
				user, err := resolveUser(s, args)
				if err != nil {
					return err
				}
				movies, err := user.Bookmarks(s.ctx, filters)
				if err != nil {
					return err
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
				out := newListing(numberColumn("ID"), textColumn("Title").wrapAt(titleWidth), numberColumn("Year"), textColumn("Link"))
				for _, r := range rows {
					out.add(r.ID, r.Title, r.Year, r.Link)
				}
				fmt.Fprintln(cmd.OutOrStdout(), out.render())
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&params, "param", nil, "Extra filter as key=value (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON even on a terminal")
	return cmd
}
