package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ptpkit/internal/catalog"
	"ptpkit/internal/config"
	"ptpkit/internal/fileutil"
	"ptpkit/internal/guess"
	"ptpkit/internal/ledger"
	"ptpkit/internal/logging"
	"ptpkit/internal/metrics"
	"ptpkit/internal/reseed"
	"ptpkit/internal/seedclient"
)

type reseedOptions struct {
	url      string
	dryRun   bool
	action   reseed.Action
	createIn string
}

func newReseedCommand(ctx *commandContext) *cobra.Command {
	var (
		opts        reseedOptions
		action      string
		limit       int
		showSummary bool
	)

	cmd := &cobra.Command{
		Use:   "reseed [path...]",
		Short: "Match local files to tracker torrents and hand them to the download client",
		Long: `Match local files to tracker torrents and hand them to the download client.

Paths are read from stdin when none are given or the only argument is "-".
The exit status is 1 when one path had no match, 2 when several had none and
3 when every match was already loaded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := reseedPaths(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return ctx.withCatalog(cmd, func(s *session) error {
				if action == "" {
					action = s.cfg.Reseed.Action
				}
				switch reseed.Action(action) {
				case reseed.ActionHard, reseed.ActionSoft, reseed.ActionSkip:
					opts.action = reseed.Action(action)
				default:
					return fmt.Errorf("--action: unsupported value %q (want hard, soft or skip)", action)
				}
				if opts.createIn == "" {
					opts.createIn = s.cfg.Reseed.CreateInDirectory
				} else if opts.createIn, err = config.ExpandPath(opts.createIn); err != nil {
					return err
				}
				if limit <= 0 {
					limit = s.cfg.Reseed.MovieLimit
				}

				store, err := ledger.Open(s.cfg.LedgerPath())
				if err != nil {
					if errors.Is(err, ledger.ErrLocked) {
						return fmt.Errorf("another reseed run is in progress: %w", err)
					}
					return err
				}
				defer store.Close()

				loader := ctx.loader
				if loader == nil {
					loader = newLoader(s.cfg, s.logger)
				}
				r := &reseeder{
					catalog: s.catalog,
					finder: reseed.NewFinder(s.catalog,
						reseed.WithStrategies(s.cfg.Reseed.FindBy...),
						reseed.WithMovieLimit(limit),
						reseed.WithGuesser(guess.Guesser{}),
						reseed.WithLoadedChecker(store),
						reseed.WithFinderLogger(s.logger),
					),
					loader:  loader,
					ledger:  store,
					metrics: metrics.NewReseed(),
					opts:    opts,
					logger:  logging.NewComponentLogger(s.logger, "reseed"),
				}
				for _, path := range paths {
					if err := r.run(s.ctx, path); err != nil {
						return err
					}
				}
				if file := s.cfg.Reseed.MetricsFile; file != "" {
					if s.limiter != nil {
						r.metrics.TokensConsumed.Set(float64(s.limiter.Consumed()))
					}
					if err := r.metrics.WriteTextfile(file, time.Now()); err != nil {
						logging.WarnWithContext(r.logger, "failed to write metrics file", "metrics_write_failed",
							logging.Error(err),
							logging.String(logging.FieldImpact, "run counters were not exported"),
							logging.String(logging.FieldErrorHint, "check reseed.metrics_file is writable"),
						)
					}
				}
				if showSummary {
					fmt.Fprint(cmd.OutOrStdout(), r.summary.render())
				}
				if code := r.summary.exitCode(); code != 0 {
					return &exitError{code: code}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&opts.url, "url", "u", "", "Match against this torrent (torrentid=) or movie (id=) link instead of searching")
	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "Report what would be linked and loaded without changing anything")
	cmd.Flags().StringVarP(&action, "action", "a", "", "How to create matched files: hard, soft or skip (defaults to reseed.action)")
	cmd.Flags().StringVarP(&opts.createIn, "create-in-directory", "d", "", "Create the torrent layout under this directory instead of next to the files")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum movies checked per search (defaults to reseed.movie_limit)")
	cmd.Flags().BoolVarP(&showSummary, "summary", "s", false, "Print a summary of every path's outcome")
	return cmd
}

func newLoader(cfg *config.Config, logger *slog.Logger) seedclient.Loader {
	if cfg.Client.Kind == config.ClientQBittorrent {
		return seedclient.NewQBittorrent(seedclient.QBittorrentConfig{
			URL:      cfg.Client.URL,
			Username: cfg.Client.Username,
			Password: cfg.Client.Password,
		}, logger)
	}
	return seedclient.NewDirectory(cfg.Main.DownloadDir, logger)
}

// reseedPaths returns args, or the non-empty lines of stdin when args is
// empty or just "-".
func reseedPaths(stdin io.Reader, args []string) ([]string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return args, nil
	}
	var paths []string
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read paths from stdin: %w", err)
	}
	return paths, nil
}

type reseeder struct {
	catalog *catalog.Catalog
	finder  *reseed.Finder
	loader  seedclient.Loader
	ledger  *ledger.Store
	metrics *metrics.Reseed
	opts    reseedOptions
	logger  *slog.Logger
	summary reseedSummary
}

// run processes one path. Paths that cannot be matched are recorded, not
// returned as errors.
func (r *reseeder) run(ctx context.Context, path string) error {
	logger := r.logger.With(logging.String(logging.FieldPath, path))
	logger.Info("starting reseed attempt")

	exists, err := fileutil.Exists(path)
	if err != nil {
		return err
	}
	if !exists {
		logger.Error("path does not exist")
		return r.notFound(ctx, path, "path does not exist")
	}

	started := time.Now()
	m, err := r.finder.FindMatch(ctx, path, r.opts.url)
	r.metrics.ObserveFind(time.Since(started))
	if err != nil {
		return fmt.Errorf("match %s: %w", path, err)
	}
	if !m.OK() {
		logging.WarnWithContext(logger, "could not find an associated torrent", "reseed_not_found",
			logging.String("reason", m.Reason),
			logging.String(logging.FieldImpact, "path will not be seeded"),
			logging.String(logging.FieldErrorHint, "pass --url with the torrent link to match it explicitly"),
		)
		return r.notFound(ctx, path, m.Reason)
	}

	m, report, err := reseed.CreateMatchedFiles(m, reseed.CreateOptions{
		Directory: r.opts.createIn,
		Action:    r.opts.action,
		DryRun:    r.opts.dryRun,
	}, reseed.WithLogger(logger))
	if err != nil {
		return err
	}
	logger.Info("found match",
		logging.String(logging.FieldTorrentID, m.TorrentID),
		logging.String("dir", m.Dir),
		logging.Int("created", len(report.Created)),
		logging.Int("existing", len(report.Existing)),
	)

	if r.opts.dryRun {
		link := r.catalog.TorrentLink(m.TorrentID)
		r.summary.WouldLoad = append(r.summary.WouldLoad, link+" -> "+path)
		return r.record(ctx, ledger.Outcome{Path: path, Status: ledger.StatusWouldLoad, TorrentID: m.TorrentID, Directory: m.Dir})
	}

	data, err := r.catalog.Torrent(m.TorrentID).Download(ctx)
	if err != nil {
		return fmt.Errorf("download torrent %s: %w", m.TorrentID, err)
	}
	meta, err := seedclient.Inspect(data)
	if err != nil {
		return fmt.Errorf("torrent %s: %w", m.TorrentID, err)
	}
	if missing := meta.Missing(slices.Sorted(maps.Values(m.Files))); len(missing) > 0 {
		logging.WarnWithContext(logger, "torrent file does not list every matched path", "reseed_manifest_mismatch",
			logging.String(logging.FieldTorrentID, m.TorrentID),
			logging.Int("missing", len(missing)),
			logging.String(logging.FieldImpact, "the client will download the missing files"),
			logging.String(logging.FieldErrorHint, "compare the tracker file list with the .torrent"),
		)
	}

	loaded, err := r.loader.Load(ctx, data, m.Dir)
	if err != nil {
		return fmt.Errorf("load torrent %s: %w", m.TorrentID, err)
	}
	outcome := ledger.Outcome{
		Path:      path,
		Status:    ledger.StatusLoaded,
		TorrentID: m.TorrentID,
		InfoHash:  meta.InfoHash,
		Directory: m.Dir,
	}
	if loaded {
		r.summary.Loaded = append(r.summary.Loaded, path)
	} else {
		outcome.Status = ledger.StatusAlreadyLoaded
		r.summary.AlreadyLoaded = append(r.summary.AlreadyLoaded, path)
	}
	return r.record(ctx, outcome)
}

func (r *reseeder) notFound(ctx context.Context, path, reason string) error {
	r.summary.NotFound = append(r.summary.NotFound, path)
	return r.record(ctx, ledger.Outcome{Path: path, Status: ledger.StatusNotFound, Reason: reason})
}

func (r *reseeder) record(ctx context.Context, o ledger.Outcome) error {
	if _, err := r.ledger.Record(ctx, o); err != nil {
		return err
	}
	r.metrics.Outcome(string(o.Status))
	return nil
}

type reseedSummary struct {
	Loaded        []string
	WouldLoad     []string
	AlreadyLoaded []string
	NotFound      []string
}

func (s reseedSummary) exitCode() int {
	switch {
	case len(s.NotFound) == 1:
		return 1
	case len(s.NotFound) > 1:
		return 2
	case len(s.AlreadyLoaded) > 0:
		return 3
	}
	return 0
}

func (s reseedSummary) render() string {
	sections := []struct {
		label string
		paths []string
	}{
		{"Loaded", s.Loaded},
		{"Would have loaded", s.WouldLoad},
		{"Already loaded", s.AlreadyLoaded},
		{"Not found", s.NotFound},
	}
	out := newListing(textColumn("Outcome"), textColumn("Path"))
	for _, section := range sections {
		for _, p := range section.paths {
			out.add(section.label, p)
		}
	}
	if out.empty() {
		return "Nothing processed\n"
	}
	out.total("Total", fmt.Sprintf("%d paths", len(out.rows)))
	return out.render() + "\n"
}
