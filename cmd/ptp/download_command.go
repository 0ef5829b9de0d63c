package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ptpkit/internal/logging"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "download <torrent id or url>...",
		Short: "Download .torrent files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]string, 0, len(args))
			for _, arg := range args {
				id, err := parseTarget(arg, "torrentid")
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return ctx.withCatalog(cmd, func(s *session) error {
				target := strings.TrimSpace(dir)
				if target == "" {
					target = s.cfg.Main.DownloadDir
				}
				for _, id := range ids {
					path, err := s.catalog.Torrent(id).DownloadToDir(s.ctx, target)
					if err != nil {
						return fmt.Errorf("download torrent %s: %w", id, err)
					}
					s.logger.Info("torrent downloaded",
						logging.String(logging.FieldTorrentID, id),
						logging.String(logging.FieldPath, path),
					)
					fmt.Fprintln(cmd.OutOrStdout(), path)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Destination directory (defaults to main.download_dir)")
	return cmd
}
