// Package crawler wires the session, navigation, extraction, and storage
// layers into full crawl runs. A run walks every (date, category) pair the
// filter UI offers, harvests the schedule table, then opens each row's side
// panel for its details. Rows that keep failing are reported, never fatal;
// a later backfill pass recovers them.
package crawler

import (
	"fmt"
	"log/slog"

	"github.com/JMJ-GIF/jw-streamlit/internal/backfill"
	"github.com/JMJ-GIF/jw-streamlit/internal/config"
	"github.com/JMJ-GIF/jw-streamlit/internal/detail"
	"github.com/JMJ-GIF/jw-streamlit/internal/navigate"
	"github.com/JMJ-GIF/jw-streamlit/internal/schedule"
	"github.com/JMJ-GIF/jw-streamlit/internal/session"
	"github.com/JMJ-GIF/jw-streamlit/internal/storage"
	"github.com/JMJ-GIF/jw-streamlit/internal/types"
)

// Crawler runs full crawl passes against the schedule endpoints.
type Crawler struct {
	cfg    *config.Config
	logger *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) *Crawler {
	return &Crawler{cfg: cfg, logger: logger.With("component", "crawler")}
}

// RunTournament crawls the tournament schedule endpoint: schedule rows plus
// the two-team roster panel behind each row.
func (c *Crawler) RunTournament(sink storage.Sink) error {
	sess, err := session.New(c.cfg, c.logger)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer sess.Close()

	nav := navigate.New(sess, c.cfg, c.logger)
	if err := nav.Open(c.cfg.Site.TournamentURL); err != nil {
		return err
	}

	extractor := schedule.NewExtractor(c.logger)
	brackets := detail.NewBracketExtractor(sess, nav, c.cfg, c.logger)

	var (
		records []types.ScheduleRecord
		rosters []types.RosterEntry
		failed  []int
	)

	err = c.walkPages(sess, nav, func(page types.PageKey, pageHTML string) error {
		pageRecords, err := extractor.Parse(pageHTML, page)
		if err != nil {
			return err
		}
		records = append(records, pageRecords...)

		for i, rec := range pageRecords {
			if c.cfg.Crawl.MaxRows > 0 && i >= c.cfg.Crawl.MaxRows {
				break
			}
			entries, ok := brackets.ExtractRow(i, rec)
			if !ok {
				failed = append(failed, rec.LocalPK)
				continue
			}
			rosters = append(rosters, entries...)
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.Info("tournament crawl finished",
		"schedule_rows", len(records),
		"roster_entries", len(rosters),
		"failed_rows", len(failed),
	)
	if len(failed) > 0 {
		c.logger.Warn("rows left for backfill", "local_pks", failed)
	}

	if err := sink.WriteSchedule(records); err != nil {
		return err
	}
	return sink.WriteRosters(rosters)
}

// RunRecords crawls the record-event schedule endpoint: schedule rows plus
// the ranked standings panel behind each row.
func (c *Crawler) RunRecords(sink storage.Sink) error {
	sess, err := session.New(c.cfg, c.logger)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer sess.Close()

	nav := navigate.New(sess, c.cfg, c.logger)
	if err := nav.Open(c.cfg.Site.RecordURL); err != nil {
		return err
	}

	extractor := schedule.NewExtractor(c.logger)
	standings := detail.NewRecordExtractor(sess, nav, c.cfg, c.logger)

	var (
		records []types.ScheduleRecord
		results []types.ResultEntry
		failed  []int
	)

	err = c.walkPages(sess, nav, func(page types.PageKey, pageHTML string) error {
		pageRecords, err := extractor.Parse(pageHTML, page)
		if err != nil {
			return err
		}
		records = append(records, pageRecords...)

		for i, rec := range pageRecords {
			if c.cfg.Crawl.MaxRows > 0 && i >= c.cfg.Crawl.MaxRows {
				break
			}
			entries, ok := standings.ExtractRow(i, rec)
			if !ok {
				failed = append(failed, rec.LocalPK)
				continue
			}
			results = append(results, entries...)
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.Info("record crawl finished",
		"schedule_rows", len(records),
		"result_entries", len(results),
		"failed_rows", len(failed),
	)
	if len(failed) > 0 {
		c.logger.Warn("rows left for backfill", "local_pks", failed)
	}

	if err := sink.WriteSchedule(records); err != nil {
		return err
	}
	return sink.WriteResults(results)
}

// walkPages iterates every (date, category) pair, positions the browser on
// its fully-paginated results page, and hands the snapshot to visit. Pairs
// whose navigation fails or whose results never appear are skipped.
func (c *Crawler) walkPages(sess *session.Session, nav *navigate.Controller, visit func(page types.PageKey, pageHTML string) error) error {
	dates, err := nav.ListDates()
	if err != nil {
		return err
	}
	if c.cfg.Crawl.LimitDates > 0 && len(dates) > c.cfg.Crawl.LimitDates {
		dates = dates[:c.cfg.Crawl.LimitDates]
	}

	for _, date := range dates {
		if err := nav.SelectDate(date); err != nil {
			c.logger.Warn("date select failed, skipping", "date", date, "error", err)
			continue
		}

		cats, err := nav.ListCategories()
		if err != nil {
			c.logger.Warn("category listing failed, skipping date", "date", date, "error", err)
			continue
		}
		if c.cfg.Crawl.LimitCategories > 0 && len(cats) > c.cfg.Crawl.LimitCategories {
			cats = cats[:c.cfg.Crawl.LimitCategories]
		}

		for _, cat := range cats {
			page := types.PageKey{
				FilterDate:         date,
				FilterCategoryCode: cat.Code,
				FilterCategoryName: cat.Name,
			}

			if err := nav.SelectCategory(cat); err != nil {
				c.logger.Warn("category select failed, skipping",
					"date", date, "category", cat.Name, "error", err)
				continue
			}
			nav.Search()
			if !nav.WaitResults() {
				c.logger.Info("no results", "date", date, "category", cat.Name)
				continue
			}
			nav.LoadMoreAll()

			html, err := sess.HTML()
			if err != nil {
				c.logger.Warn("snapshot failed, skipping",
					"date", date, "category", cat.Name, "error", err)
				continue
			}

			c.logger.Info("page loaded", "date", date, "category", cat.Name)
			if err := visit(page, html); err != nil {
				return err
			}
		}
	}
	return nil
}

// RunBackfill re-extracts rows that failed in a previous tournament or
// record crawl, reading that run's CSV output and merging recovered entries
// back into it.
func (c *Crawler) RunBackfill(kind string, sink storage.Sink) error {
	records, err := storage.ReadSchedule(c.cfg.Storage.OutputDir)
	if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}
	max := backfill.MaxLocalPK(records)

	var have []int
	var baseRosters []types.RosterEntry
	var baseResults []types.ResultEntry
	switch kind {
	case "tournament":
		if baseRosters, err = storage.ReadRosters(c.cfg.Storage.OutputDir); err != nil {
			return fmt.Errorf("load rosters: %w", err)
		}
		for _, e := range baseRosters {
			have = append(have, e.LocalPK)
		}
	case "records":
		if baseResults, err = storage.ReadResults(c.cfg.Storage.OutputDir); err != nil {
			return fmt.Errorf("load results: %w", err)
		}
		for _, e := range baseResults {
			have = append(have, e.LocalPK)
		}
	default:
		return fmt.Errorf("unknown backfill kind %q", kind)
	}

	missing := backfill.Missing(have, max)
	if len(missing) == 0 {
		c.logger.Info("nothing to backfill")
		return nil
	}

	index := backfill.BuildPageIndex(records)
	groups, unmapped := backfill.GroupByPage(missing, index)
	for _, pk := range unmapped {
		c.logger.Warn("missing row has no schedule record", "local_pk", pk)
	}
	c.logger.Info("backfill planned", "plan", backfill.Describe(groups, unmapped))

	sess, err := session.New(c.cfg, c.logger)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer sess.Close()

	nav := navigate.New(sess, c.cfg, c.logger)
	url := c.cfg.Site.TournamentURL
	if kind == "records" {
		url = c.cfg.Site.RecordURL
	}
	if err := nav.Open(url); err != nil {
		return err
	}

	runner := backfill.NewRunner(nav, c.logger)

	switch kind {
	case "tournament":
		brackets := detail.NewBracketExtractor(sess, nav, c.cfg, c.logger)
		var patch []types.RosterEntry
		recovered, remaining := runner.Run(groups, func(rowIndex int, rec types.ScheduleRecord) bool {
			entries, ok := brackets.ExtractRow(rowIndex, rec)
			if ok {
				patch = append(patch, entries...)
			}
			return ok
		})
		c.logger.Info("backfill finished", "recovered", recovered, "remaining", remaining)
		return sink.WriteRosters(backfill.MergeRosters(baseRosters, patch))
	default:
		standings := detail.NewRecordExtractor(sess, nav, c.cfg, c.logger)
		var patch []types.ResultEntry
		recovered, remaining := runner.Run(groups, func(rowIndex int, rec types.ScheduleRecord) bool {
			entries, ok := standings.ExtractRow(rowIndex, rec)
			if ok {
				patch = append(patch, entries...)
			}
			return ok
		})
		c.logger.Info("backfill finished", "recovered", recovered, "remaining", remaining)
		return sink.WriteResults(backfill.MergeResults(baseResults, patch))
	}
}
