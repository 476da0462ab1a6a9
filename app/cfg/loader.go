package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Provider API keys
	GuardianAPIKey string `long:"guardian-api-key" env:"GUARDIAN_API_KEY" description:"API key for the Guardian content API"`
	NewsAPIKey     string `long:"newsapi-api-key" env:"NEWSAPI_API_KEY" description:"API key for NewsAPI"`
	NYTimesAPIKey  string `long:"nytimes-api-key" env:"NYTIMES_API_KEY" description:"API key for the New York Times APIs"`

	// Application configuration
	DBPath            string `long:"db-path" env:"DB_PATH" default:"./news-comb.db" description:"Path to the SQLite database file"`
	SourcesDir        string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing source configuration files"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl           string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://news.example.com)"`
	RedisAddr         string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for response caching (optional, e.g., localhost:6379)"`
	CacheTTL          int    `long:"cache-ttl" env:"CACHE_TTL" default:"300" description:"Response cache TTL in seconds"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers for source refresh tasks"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler interval in seconds"`
	RequestTimeout    int    `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"15" description:"Upstream provider request timeout in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"News Comb/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		GuardianAPIKey:    raw.GuardianAPIKey,
		NewsAPIKey:        raw.NewsAPIKey,
		NYTimesAPIKey:     raw.NYTimesAPIKey,
		DBPath:            raw.DBPath,
		SourcesDir:        raw.SourcesDir,
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		RedisAddr:         raw.RedisAddr,
		CacheTTL:          raw.CacheTTL,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		RequestTimeout:    raw.RequestTimeout,
		APIAccessKey:      raw.APIAccessKey,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
