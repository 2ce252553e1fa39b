package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and defaults.
// Priority (highest to lowest): env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("SIDOCRAWL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("sidocrawl")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".sidocrawl"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.stealth", cfg.Browser.Stealth)
	v.SetDefault("browser.window_size", cfg.Browser.WindowSize)

	v.SetDefault("site.tournament_url", cfg.Site.TournamentURL)
	v.SetDefault("site.record_url", cfg.Site.RecordURL)
	v.SetDefault("site.player_url", cfg.Site.PlayerURL)
	v.SetDefault("site.region_code", cfg.Site.RegionCode)
	v.SetDefault("site.region_name", cfg.Site.RegionName)

	v.SetDefault("crawl.nav_timeout", cfg.Crawl.NavTimeout)
	v.SetDefault("crawl.results_timeout", cfg.Crawl.ResultsTimeout)
	v.SetDefault("crawl.results_settle_pause", cfg.Crawl.ResultsSettlePause)
	v.SetDefault("crawl.load_more_max_clicks", cfg.Crawl.LoadMoreMaxClicks)
	v.SetDefault("crawl.load_more_pause", cfg.Crawl.LoadMorePause)
	v.SetDefault("crawl.panel_open_timeout", cfg.Crawl.PanelOpenTimeout)
	v.SetDefault("crawl.panel_table_timeout", cfg.Crawl.PanelTableTimeout)
	v.SetDefault("crawl.panel_settle_pause", cfg.Crawl.PanelSettlePause)
	v.SetDefault("crawl.panel_close_timeout", cfg.Crawl.PanelCloseTimeout)
	v.SetDefault("crawl.row_attempts", cfg.Crawl.RowAttempts)
	v.SetDefault("crawl.alert_tries", cfg.Crawl.AlertTries)
	v.SetDefault("crawl.alert_wait_each", cfg.Crawl.AlertWaitEach)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.output_dir", cfg.Storage.OutputDir)
	v.SetDefault("storage.mongo_database", cfg.Storage.MongoDatabase)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}
