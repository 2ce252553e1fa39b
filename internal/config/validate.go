package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	for name, raw := range map[string]string{
		"site.tournament_url": cfg.Site.TournamentURL,
		"site.record_url":     cfg.Site.RecordURL,
		"site.player_url":     cfg.Site.PlayerURL,
	} {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, raw, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%s scheme must be http or https, got %q", name, u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("%s must have a host", name)
		}
	}

	if cfg.Site.RegionCode == "" || cfg.Site.RegionName == "" {
		return fmt.Errorf("site.region_code and site.region_name are required")
	}

	if cfg.Crawl.NavTimeout <= 0 {
		return fmt.Errorf("crawl.nav_timeout must be > 0")
	}
	if cfg.Crawl.ResultsTimeout <= 0 {
		return fmt.Errorf("crawl.results_timeout must be > 0")
	}
	if cfg.Crawl.PanelOpenTimeout <= 0 || cfg.Crawl.PanelTableTimeout <= 0 {
		return fmt.Errorf("crawl panel timeouts must be > 0")
	}
	if cfg.Crawl.LoadMoreMaxClicks < 0 {
		return fmt.Errorf("crawl.load_more_max_clicks must be >= 0, got %d", cfg.Crawl.LoadMoreMaxClicks)
	}
	if cfg.Crawl.RowAttempts < 1 {
		return fmt.Errorf("crawl.row_attempts must be >= 1, got %d", cfg.Crawl.RowAttempts)
	}
	if cfg.Crawl.AlertTries < 1 {
		return fmt.Errorf("crawl.alert_tries must be >= 1, got %d", cfg.Crawl.AlertTries)
	}

	switch cfg.Storage.Type {
	case "csv":
	case "mongo":
		if cfg.Storage.MongoURI == "" {
			return fmt.Errorf("storage.mongo_uri is required when storage.type is mongo")
		}
	default:
		return fmt.Errorf("storage.type %q is not supported (valid: csv, mongo)", cfg.Storage.Type)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}
