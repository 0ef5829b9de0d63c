package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// parseTarget accepts a bare id or a tracker URL and returns the id stored
// under key (torrentid or id).
func parseTarget(arg, key string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	if _, err := strconv.ParseUint(arg, 10, 64); err == nil {
		return arg, nil
	}
	u, err := url.Parse(arg)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", arg, err)
	}
	id := u.Query().Get(key)
	if id == "" {
		return "", fmt.Errorf("%q has no %s parameter", arg, key)
	}
	return id, nil
}
