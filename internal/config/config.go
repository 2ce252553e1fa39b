package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for sidocrawl.
type Config struct {
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Site    SiteConfig    `mapstructure:"site"    yaml:"site"`
	Crawl   CrawlConfig   `mapstructure:"crawl"   yaml:"crawl"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// BrowserConfig controls the headless browser session.
type BrowserConfig struct {
	Headless   bool   `mapstructure:"headless"    yaml:"headless"`
	Stealth    bool   `mapstructure:"stealth"     yaml:"stealth"`
	WindowSize string `mapstructure:"window_size" yaml:"window_size"`
}

// SiteConfig identifies the crawl targets. The two schedule endpoints share
// one filter UI; the player endpoint backs the validate command.
type SiteConfig struct {
	TournamentURL string `mapstructure:"tournament_url" yaml:"tournament_url"`
	RecordURL     string `mapstructure:"record_url"     yaml:"record_url"`
	PlayerURL     string `mapstructure:"player_url"     yaml:"player_url"`
	RegionCode    string `mapstructure:"region_code"    yaml:"region_code"`
	RegionName    string `mapstructure:"region_name"    yaml:"region_name"`
}

// CrawlConfig holds every wait budget, pause, and attempt cap in the
// pipeline. All waits are bounded; nothing blocks indefinitely.
type CrawlConfig struct {
	NavTimeout         time.Duration `mapstructure:"nav_timeout"          yaml:"nav_timeout"`
	ResultsTimeout     time.Duration `mapstructure:"results_timeout"      yaml:"results_timeout"`
	ResultsSettlePause time.Duration `mapstructure:"results_settle_pause" yaml:"results_settle_pause"`
	LoadMoreMaxClicks  int           `mapstructure:"load_more_max_clicks" yaml:"load_more_max_clicks"`
	LoadMorePause      time.Duration `mapstructure:"load_more_pause"      yaml:"load_more_pause"`
	PanelOpenTimeout   time.Duration `mapstructure:"panel_open_timeout"   yaml:"panel_open_timeout"`
	PanelTableTimeout  time.Duration `mapstructure:"panel_table_timeout"  yaml:"panel_table_timeout"`
	PanelSettlePause   time.Duration `mapstructure:"panel_settle_pause"   yaml:"panel_settle_pause"`
	PanelCloseTimeout  time.Duration `mapstructure:"panel_close_timeout"  yaml:"panel_close_timeout"`
	RowAttempts        int           `mapstructure:"row_attempts"         yaml:"row_attempts"`
	AlertTries         int           `mapstructure:"alert_tries"          yaml:"alert_tries"`
	AlertWaitEach      time.Duration `mapstructure:"alert_wait_each"      yaml:"alert_wait_each"`
	LimitDates         int           `mapstructure:"limit_dates"          yaml:"limit_dates"`
	LimitCategories    int           `mapstructure:"limit_categories"     yaml:"limit_categories"`
	MaxRows            int           `mapstructure:"max_rows"             yaml:"max_rows"`
}

// StorageConfig controls output.
type StorageConfig struct {
	Type          string `mapstructure:"type"           yaml:"type"` // csv, mongo
	OutputDir     string `mapstructure:"output_dir"     yaml:"output_dir"`
	MongoURI      string `mapstructure:"mongo_uri"      yaml:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database" yaml:"mongo_database"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults. The timing values
// mirror what the live site tolerates; bump them before tightening selectors
// when rows start failing.
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:   true,
			Stealth:    false,
			WindowSize: "1400,2400",
		},
		Site: SiteConfig{
			TournamentURL: "https://meet.sports.or.kr/national/schedule/scheduleT.do",
			RecordURL:     "https://meet.sports.or.kr/national/schedule/scheduleR.do",
			PlayerURL:     "https://meet.sports.or.kr/national/search/player.do",
			RegionCode:    "13",
			RegionName:    "전남",
		},
		Crawl: CrawlConfig{
			NavTimeout:         20 * time.Second,
			ResultsTimeout:     45 * time.Second,
			ResultsSettlePause: 1 * time.Second,
			LoadMoreMaxClicks:  40,
			LoadMorePause:      1 * time.Second,
			PanelOpenTimeout:   15 * time.Second,
			PanelTableTimeout:  25 * time.Second,
			PanelSettlePause:   1 * time.Second,
			PanelCloseTimeout:  5 * time.Second,
			RowAttempts:        3,
			AlertTries:         6,
			AlertWaitEach:      2 * time.Second,
		},
		Storage: StorageConfig{
			Type:          "csv",
			OutputDir:     "./output",
			MongoDatabase: "sidocrawl",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
