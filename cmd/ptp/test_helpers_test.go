package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"ptpkit/internal/config"
	"ptpkit/internal/testsupport"
)

const releaseName = testsupport.ReleaseName

type fakeLoader struct {
	result bool
	dirs   []string
}

func (l *fakeLoader) Load(_ context.Context, _ []byte, dir string) (bool, error) {
	l.dirs = append(l.dirs, dir)
	return l.result, nil
}

type cliEnv struct {
	base       string
	cfg        *config.Config
	configPath string
	fetcher    *testsupport.Fetcher
	loader     *fakeLoader
}

func setupCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	cfg := testsupport.NewConfig(t)
	return &cliEnv{
		base:       base,
		cfg:        cfg,
		configPath: testsupport.WriteConfig(t, cfg),
		fetcher:    testsupport.NewFetcher(t),
		loader:     &fakeLoader{result: true},
	}
}

func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(func(c *commandContext) {
		c.fetcher = e.fetcher
		c.loader = e.loader
	})
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

// addRelease lays out the fixture release under a library directory and
// routes a file list search for it to movie 10.
func (e *cliEnv) addRelease(t *testing.T) string {
	t.Helper()
	dir := testsupport.Release(t, filepath.Join(e.base, "library"))
	testsupport.AddReleaseRoutes(t, e.fetcher)
	e.fetcher.Set(testsupport.FilelistKey(releaseName), testsupport.SearchBody("10"))
	return dir
}

func exitCodeOf(err error) int {
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	if err != nil {
		return -1
	}
	return 0
}
