package detail

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/JMJ-GIF/jw-streamlit/internal/config"
	"github.com/JMJ-GIF/jw-streamlit/internal/navigate"
	"github.com/JMJ-GIF/jw-streamlit/internal/session"
	"github.com/JMJ-GIF/jw-streamlit/internal/textnorm"
	"github.com/JMJ-GIF/jw-streamlit/internal/types"
)

const (
	recordCaptionMarker = "기록경기"

	// Standings tables render after the panel shell.
	recordTableSel = "div.record table"
)

// RecordExtractor harvests the ranked-result panel for record-style events,
// where a row's side panel carries a standings table instead of two rosters.
type RecordExtractor struct {
	sess   *session.Session
	nav    *navigate.Controller
	cfg    *config.Config
	logger *slog.Logger
}

func NewRecordExtractor(sess *session.Session, nav *navigate.Controller, cfg *config.Config, logger *slog.Logger) *RecordExtractor {
	return &RecordExtractor{
		sess:   sess,
		nav:    nav,
		cfg:    cfg,
		logger: logger.With("component", "record"),
	}
}

// ExtractRow opens the panel for the schedule row at rowIndex and parses its
// standings. The open-parse-close cycle shares the bracket flow's attempt
// budget; an exhausted row yields zero entries.
func (r *RecordExtractor) ExtractRow(rowIndex int, rec types.ScheduleRecord) ([]types.ResultEntry, bool) {
	var entries []types.ResultEntry

	out := runAttempts(r.cfg.Crawl.RowAttempts, 300*time.Millisecond, func(attempt int) outcome {
		o, got := r.attemptRow(rowIndex, rec)
		if o.ok() {
			entries = got
			r.logger.Info("row extracted", "local_pk", rec.LocalPK, "results", len(got))
		} else {
			r.logger.Warn("row attempt failed",
				"local_pk", rec.LocalPK,
				"attempt", attempt,
				"reason", o.reason,
			)
		}
		return o
	})

	return entries, out.ok()
}

func (r *RecordExtractor) attemptRow(rowIndex int, rec types.ScheduleRecord) (outcome, []types.ResultEntry) {
	rows, err := r.nav.RowElements()
	if err != nil {
		return retry(fmt.Sprintf("rows: %v", err)), nil
	}
	if rowIndex >= len(rows) {
		r.nav.LoadMoreAll()
		if rows, err = r.nav.RowElements(); err != nil || rowIndex >= len(rows) {
			return retry(fmt.Sprintf("row %d out of range", rowIndex)), nil
		}
	}
	tr := rows[rowIndex]

	if err := openRowPanel(r.sess, r.cfg, tr, recordTableSel, r.cfg.Crawl.PanelTableTimeout); err != nil {
		if r.sess.DrainDialogs() > 0 {
			return retry("dialog interrupted panel open"), nil
		}
		return retry(fmt.Sprintf("panel wait: %v", err)), nil
	}
	time.Sleep(r.cfg.Crawl.PanelSettlePause)

	html, err := r.sess.HTML()
	if err != nil {
		closeRowPanel(r.sess, r.cfg, r.logger, rec.LocalPK)
		return retry(fmt.Sprintf("snapshot: %v", err)), nil
	}

	entries, perr := ParseRecordPanel(html, rec)

	closeRowPanel(r.sess, r.cfg, r.logger, rec.LocalPK)

	return standingsOutcome(entries, perr)
}

// standingsOutcome classifies one row's parse. Zero entries is a retryable
// failure, not success: the table body often renders its rows a beat after
// the table itself, and a row with genuinely no standings must end up
// reported as failed, never counted as extracted.
func standingsOutcome(entries []types.ResultEntry, perr error) (outcome, []types.ResultEntry) {
	if perr != nil {
		return retry(perr.Error()), nil
	}
	if len(entries) == 0 {
		return retry("standings parsed to zero entries"), nil
	}
	return succeed(), entries
}

// ParseRecordPanel parses a page snapshot containing an open record panel
// into ranked result entries. The panel renders the standings caption twice
// for some events; when two matching tables exist the second carries the
// populated rows, so that one wins.
func ParseRecordPanel(pageHTML string, rec types.ScheduleRecord) ([]types.ResultEntry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("parse panel: %w", err)
	}

	var tables []*goquery.Selection
	doc.Find("table").Each(func(_ int, t *goquery.Selection) {
		cap := textnorm.Normalize(t.Find("caption").First().Text())
		if strings.Contains(cap, recordCaptionMarker) {
			tables = append(tables, t)
		}
	})
	if len(tables) == 0 {
		return nil, types.ErrNoResults
	}

	table := tables[0]
	if len(tables) >= 2 {
		table = tables[1]
	}

	var entries []types.ResultEntry
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.Find("td.no-result").Length() > 0 {
			return
		}
		tds := tr.Find("td")
		if tds.Length() < 7 {
			return
		}

		cell := func(i int) string { return textnorm.Normalize(cellContent(tds.Eq(i))) }

		e := types.ResultEntry{
			LocalPK:     rec.LocalPK,
			GlobalPK:    rec.GlobalPK,
			Page:        rec.Page,
			Rank:        cell(0),
			Region:      cell(1),
			PlayerName:  cell(2),
			Affiliation: cell(3),
			Grade:       cell(4),
			Record:      cell(5),
			Remarks:     cell(6),
		}
		entries = append(entries, e)
	})

	return entries, nil
}
