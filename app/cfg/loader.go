package cfg

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	DBPath string `long:"db-path" env:"BEATCHECK_DB" description:"Path to the SQLite database file (default: ~/.local/share/beatcheck/beatcheck.db)"`

	// Summarization service
	AIBaseURL string `long:"ai-base-url" env:"BEATCHECK_AI_BASE_URL" description:"Base URL of an OpenAI-compatible summarization endpoint (empty for api.openai.com)"`
	AIAPIKey  string `long:"ai-api-key" env:"BEATCHECK_AI_API_KEY" description:"API key for the summarization service"`
	AIModel   string `long:"ai-model" env:"BEATCHECK_AI_MODEL" default:"gpt-4o-mini" description:"Model identifier for summarization"`

	// Raindrop.io bookmarking
	RaindropToken string `long:"raindrop-token" env:"BEATCHECK_RAINDROP_TOKEN" description:"Raindrop.io API access token"`

	// Ingestion
	MaxConcurrentFetches int    `long:"max-fetches" env:"BEATCHECK_MAX_FETCHES" default:"5" description:"Maximum simultaneous feed fetches during a refresh"`
	FetchTimeout         int    `long:"fetch-timeout" env:"BEATCHECK_FETCH_TIMEOUT" default:"30" description:"Overall feed fetch timeout in seconds"`
	ConnectTimeout       int    `long:"connect-timeout" env:"BEATCHECK_CONNECT_TIMEOUT" default:"10" description:"Connection timeout in seconds"`
	RetentionDays        int    `long:"retention-days" env:"BEATCHECK_RETENTION_DAYS" default:"30" description:"Delete articles older than this many days at startup (0 disables)"`
	BlocklistPath        string `long:"blocklist" env:"BEATCHECK_BLOCKLIST" description:"Path to a YAML blocklist file of title keywords to suppress"`

	// Operating mode
	ImportPath string `long:"import" description:"Import feeds from an OPML file, then exit"`
	Refresh    bool   `long:"refresh" description:"Refresh all feeds once without the interactive screen, then exit"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"BEATCHECK_USER_AGENT" default:"beatcheck/1.0" description:"User agent string for HTTP requests"`
	LogPath   string `long:"log-path" env:"BEATCHECK_LOG" default:"/tmp/beatcheck.log" description:"Log file used while the interactive screen is active"`
	Debug     bool   `long:"debug" env:"BEATCHECK_DEBUG" description:"Enable debug logging"`
}

// Load parses command-line flags and environment variables. It returns
// (nil, nil) when help was requested. Remaining positional arguments are
// returned for mode dispatch.
func Load(args []string) (*Cfg, []string, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	rest, err := parser.ParseArgs(args)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil, nil
			}
		}
		return nil, nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:               raw.DBPath,
		AIBaseURL:            raw.AIBaseURL,
		AIAPIKey:             raw.AIAPIKey,
		AIModel:              raw.AIModel,
		RaindropToken:        raw.RaindropToken,
		MaxConcurrentFetches: raw.MaxConcurrentFetches,
		FetchTimeout:         raw.FetchTimeout,
		ConnectTimeout:       raw.ConnectTimeout,
		RetentionDays:        raw.RetentionDays,
		BlocklistPath:        raw.BlocklistPath,
		ImportPath:           raw.ImportPath,
		Refresh:              raw.Refresh,
		UserAgent:            raw.UserAgent,
		LogPath:              raw.LogPath,
		Debug:                raw.Debug,
		Version:              GetVersion(),
	}

	if cfg.DBPath == "" {
		cfg.DBPath, err = defaultDBPath()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve database path: %w", err)
		}
	}

	return cfg, rest, nil
}

func defaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".local", "share", "beatcheck")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "beatcheck.db"), nil
}
