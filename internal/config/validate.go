package config

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrMissingCredentials is returned by RequireCredentials when the tracker API
// user or key is unset.
var ErrMissingCredentials = errors.New("tracker credentials missing: set tracker.api_user and tracker.api_key (or PTPAPI_APIUSER/PTPAPI_APIKEY)")

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTracker(); err != nil {
		return err
	}
	if err := c.validateReseed(); err != nil {
		return err
	}
	return c.validateClient()
}

// RequireCredentials reports whether tracker credentials are configured.
// Commands that never talk to the tracker skip this check.
func (c *Config) RequireCredentials() error {
	if c.Tracker.APIUser == "" || c.Tracker.APIKey == "" {
		return ErrMissingCredentials
	}
	return nil
}

func (c *Config) validateTracker() error {
	parsed, err := url.Parse(c.Tracker.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("tracker.base_url: invalid url %q", c.Tracker.BaseURL)
	}
	return nil
}

func (c *Config) validateReseed() error {
	switch c.Reseed.Action {
	case ActionHard, ActionSoft, ActionSkip:
	default:
		return fmt.Errorf("reseed.action: unsupported value %q (want hard, soft or skip)", c.Reseed.Action)
	}
	for _, strategy := range c.Reseed.FindBy {
		switch strategy {
		case FindByFilename, FindByTitle:
		default:
			return fmt.Errorf("reseed.find_by: unsupported strategy %q", strategy)
		}
	}
	return nil
}

func (c *Config) validateClient() error {
	switch c.Client.Kind {
	case ClientNone:
		return nil
	case ClientQBittorrent:
		if c.Client.URL == "" {
			return errors.New("client.url: required when client.kind is qbittorrent")
		}
		return nil
	default:
		return fmt.Errorf("client.kind: unsupported value %q", c.Client.Kind)
	}
}
