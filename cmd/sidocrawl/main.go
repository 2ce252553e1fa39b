package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JMJ-GIF/jw-streamlit/internal/config"
	"github.com/JMJ-GIF/jw-streamlit/internal/crawler"
	"github.com/JMJ-GIF/jw-streamlit/internal/session"
	"github.com/JMJ-GIF/jw-streamlit/internal/storage"
	"github.com/JMJ-GIF/jw-streamlit/internal/transform"
	"github.com/JMJ-GIF/jw-streamlit/internal/validate"
)

var (
	cfgFile         string
	verbose         bool
	outputDir       string
	storageType     string
	headful         bool
	limitDates      int
	limitCategories int
	maxRows         int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sidocrawl",
		Short: "sidocrawl — national sports festival schedule crawler",
		Long: `sidocrawl harvests the si/do tournament and record-event schedules from
the national sports festival site, including each match's roster or
standings panel, and reconciles the output into reporting tables.

Commands cover the full pipeline:
  tournament  — crawl the tournament schedule and match rosters
  records     — crawl the record-event schedule and standings
  backfill    — re-extract rows a previous crawl failed on
  validate    — check roster names against the player directory
  builddb     — derive the joined match table from raw output`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "output directory")
	rootCmd.PersistentFlags().StringVarP(&storageType, "storage", "s", "", "storage backend: csv, mongo")
	rootCmd.PersistentFlags().BoolVar(&headful, "headful", false, "run the browser with a visible window")

	rootCmd.AddCommand(tournamentCmd())
	rootCmd.AddCommand(recordsCmd())
	rootCmd.AddCommand(backfillCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(builddbCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func crawlFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&limitDates, "limit-dates", 0, "crawl only the first N dates (0 = all)")
	cmd.Flags().IntVar(&limitCategories, "limit-categories", 0, "crawl only the first N categories per date (0 = all)")
	cmd.Flags().IntVar(&maxRows, "max-rows", 0, "open at most N detail panels per page (0 = all)")
}

func tournamentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tournament",
		Short: "Crawl the tournament schedule and match rosters",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			sink, err := storage.Open(cfg, logger)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer sink.Close()
			return crawler.New(cfg, logger).RunTournament(sink)
		},
	}
	crawlFlags(cmd)
	return cmd
}

func recordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Crawl the record-event schedule and standings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			sink, err := storage.Open(cfg, logger)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer sink.Close()
			return crawler.New(cfg, logger).RunRecords(sink)
		},
	}
	crawlFlags(cmd)
	return cmd
}

func backfillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill [tournament|records]",
		Short: "Re-extract rows a previous crawl failed on",
		Long: `backfill reads a previous run's CSV output from the output directory,
finds schedule rows with no detail entries, reopens only the filter pages
holding them, and merges recovered entries back into the output.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"tournament", "records"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			sink, err := storage.Open(cfg, logger)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer sink.Close()
			return crawler.New(cfg, logger).RunBackfill(args[0], sink)
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check roster names against the player directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			entries, err := storage.ReadRosters(cfg.Storage.OutputDir)
			if err != nil {
				return fmt.Errorf("load rosters: %w", err)
			}

			sess, err := session.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("open session: %w", err)
			}
			defer sess.Close()

			v := validate.New(sess, cfg, logger)
			if err := v.Open(); err != nil {
				return err
			}

			flags := validate.Summarize(v.VerifyRoster(entries))
			if err := storage.WriteVerifications(cfg.Storage.OutputDir, flags); err != nil {
				return err
			}
			verified := 0
			for player, ok := range flags {
				if ok {
					verified++
				} else {
					fmt.Printf("unverified: %s\n", player)
				}
			}
			fmt.Printf("\n%d of %d players verified\n", verified, len(flags))
			return nil
		},
	}
}

func builddbCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "builddb",
		Short: "Derive the joined match table from raw output",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			records, err := storage.ReadSchedule(cfg.Storage.OutputDir)
			if err != nil {
				return fmt.Errorf("load schedule: %w", err)
			}
			rosters, err := storage.ReadRosters(cfg.Storage.OutputDir)
			if err != nil {
				return fmt.Errorf("load rosters: %w", err)
			}

			rows := transform.BuildMatchTable(records, rosters)
			if err := storage.WriteMatches(cfg.Storage.OutputDir, rows); err != nil {
				return err
			}
			logger.Info("match table written", "rows", len(rows))
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sidocrawl %s\n", config.Version)
		},
	}
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			applyCLIOverrides(cfg)
			fmt.Printf("Site:\n")
			fmt.Printf("  Tournament URL:   %s\n", cfg.Site.TournamentURL)
			fmt.Printf("  Record URL:       %s\n", cfg.Site.RecordURL)
			fmt.Printf("  Player URL:       %s\n", cfg.Site.PlayerURL)
			fmt.Printf("  Region:           %s (%s)\n", cfg.Site.RegionName, cfg.Site.RegionCode)
			fmt.Printf("\nBrowser:\n")
			fmt.Printf("  Headless:         %v\n", cfg.Browser.Headless)
			fmt.Printf("  Stealth:          %v\n", cfg.Browser.Stealth)
			fmt.Printf("  Window Size:      %s\n", cfg.Browser.WindowSize)
			fmt.Printf("\nCrawl:\n")
			fmt.Printf("  Nav Timeout:      %s\n", cfg.Crawl.NavTimeout)
			fmt.Printf("  Results Timeout:  %s\n", cfg.Crawl.ResultsTimeout)
			fmt.Printf("  Row Attempts:     %d\n", cfg.Crawl.RowAttempts)
			fmt.Printf("  Load More Cap:    %d clicks\n", cfg.Crawl.LoadMoreMaxClicks)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Type:             %s\n", cfg.Storage.Type)
			fmt.Printf("  Output Dir:       %s\n", cfg.Storage.OutputDir)
			if cfg.Storage.Type == "mongo" {
				fmt.Printf("  Mongo Database:   %s\n", cfg.Storage.MongoDatabase)
			}
			return nil
		},
	}
}

func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, setupLogger(cfg), nil
}

// setupLogger creates a structured logger.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if verbose || strings.EqualFold(cfg.Logging.Level, "debug") {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Logging.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if outputDir != "" {
		cfg.Storage.OutputDir = outputDir
	}
	if storageType != "" {
		cfg.Storage.Type = strings.ToLower(storageType)
	}
	if headful {
		cfg.Browser.Headless = false
	}
	if limitDates > 0 {
		cfg.Crawl.LimitDates = limitDates
	}
	if limitCategories > 0 {
		cfg.Crawl.LimitCategories = limitCategories
	}
	if maxRows > 0 {
		cfg.Crawl.MaxRows = maxRows
	}
}
