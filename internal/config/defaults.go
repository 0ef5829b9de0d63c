package config

const (
	defaultConfigPath      = "~/.config/ptpkit/config.toml"
	defaultBaseURL         = "https://passthepopcorn.me/"
	defaultUserAgent       = "Wget/1.13.4"
	defaultTimeoutSeconds  = 60
	defaultRateTokens      = 3
	defaultRateFillRate    = 0.5
	defaultRateWaitSeconds = 1
	defaultDownloadDir     = "."
	defaultReseedAction    = ActionHard
	defaultMovieLimit      = 5
	defaultClientKind      = ClientNone
	defaultStateDir        = "~/.local/share/ptpkit"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultLogMaxSizeMB    = 10
	defaultLogMaxBackups   = 3
)

// Reseed actions.
const (
	ActionHard = "hard"
	ActionSoft = "soft"
	ActionSkip = "skip"
)

// Download client kinds.
const (
	ClientNone        = "none"
	ClientQBittorrent = "qbittorrent"
)

// Find strategies understood by the reseed command.
const (
	FindByFilename = "filename"
	FindByTitle    = "title"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Tracker: Tracker{
			BaseURL:        defaultBaseURL,
			UserAgent:      defaultUserAgent,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		RateLimit: RateLimit{
			Tokens:      defaultRateTokens,
			FillRate:    defaultRateFillRate,
			WaitSeconds: defaultRateWaitSeconds,
		},
		Main: Main{
			DownloadDir: defaultDownloadDir,
		},
		Reseed: Reseed{
			Action:     defaultReseedAction,
			FindBy:     []string{FindByFilename, FindByTitle},
			MovieLimit: defaultMovieLimit,
		},
		Client: Client{
			Kind: defaultClientKind,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
		},
	}
}
