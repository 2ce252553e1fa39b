// Package detail opens the singleton side panel for schedule rows and
// parses the nested layouts inside it: two-team rosters for the tournament
// bracket flow, ranked result tables for the match-record flow. Exactly one
// panel instance exists in the DOM, so every open is paired with a close
// before the next row is touched.
package detail

import (
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"

	"github.com/JMJ-GIF/jw-streamlit/internal/config"
	"github.com/JMJ-GIF/jw-streamlit/internal/session"
	"github.com/JMJ-GIF/jw-streamlit/internal/textnorm"
	"github.com/JMJ-GIF/jw-streamlit/internal/types"
)

const (
	panelSel      = "div.record-match-area, div.record"
	scoreTopSel   = "div.record .scoreTop, div.record-match-area .scoreTop"
	rosterListSel = "div.participating-players > ul"
	closeButtonX  = `//button[contains(@class,'closeBtn')]`

	// openSideMarker is the recognizable substring of the inline handler
	// that opens a row's detail panel. The exact function signature is a
	// site implementation detail we never parse.
	openSideMarker = "openSide"
)

// openRowPanel triggers the row's inline handler when one is present, falls
// back to a JS click on the cell, then waits for the panel to be visible AND
// contentSel to exist: the panel can be visible before its content renders.
// Both detail flows open their rows through this sequence.
func openRowPanel(sess *session.Session, cfg *config.Config, tr *rod.Element, contentSel string, contentTimeout time.Duration) error {
	td, err := tr.ElementX(`.//td[contains(@onclick,'` + openSideMarker + `')][1]`)
	if err != nil {
		if td, err = tr.ElementX(`./td[1]`); err != nil {
			return &types.StaleElementError{Err: err}
		}
	}

	sess.ScrollIntoView(td)

	call := ""
	if attr, aerr := td.Attribute("onclick"); aerr == nil && attr != nil {
		call = strings.TrimSpace(*attr)
	}
	if strings.Contains(call, openSideMarker) {
		if err := sess.EvalStatement(call); err != nil {
			if err := sess.JSClick(td); err != nil {
				return err
			}
		}
	} else if err := sess.JSClick(td); err != nil {
		return err
	}

	return sess.WaitIgnoringDialogs(2, func() error {
		if _, err := sess.WaitVisible("div.record", cfg.Crawl.PanelOpenTimeout); err != nil {
			return err
		}
		_, err := sess.WaitPresent(contentSel, contentTimeout)
		return err
	})
}

// closeRowPanel clicks the close control and waits for the panel to leave
// the viewport. Close failures are logged, not returned: the next open
// attempt supersedes a stuck panel.
func closeRowPanel(sess *session.Session, cfg *config.Config, logger *slog.Logger, localPK int) {
	els, err := sess.ElementsX(closeButtonX)
	if err != nil || len(els) == 0 {
		logger.Warn("panel close control missing", "local_pk", localPK)
		return
	}
	if err := sess.JSClick(els[0]); err != nil {
		logger.Warn("panel close click failed", "local_pk", localPK, "error", err)
		return
	}
	if err := sess.WaitInvisible(panelSel, cfg.Crawl.PanelCloseTimeout); err != nil {
		logger.Warn("panel did not hide", "local_pk", localPK, "error", err)
	}
}

// cellContent extracts a result-table cell value, preferring the content
// span over the raw cell text.
func cellContent(td *goquery.Selection) string {
	span := td.Find("span.tablesaw-cell-content").First()
	if span.Length() > 0 {
		if txt := textnorm.Normalize(span.Text()); txt != "" {
			return txt
		}
	}
	clone := td.Clone()
	clone.Find("b.tablesaw-cell-label").Remove()
	return textnorm.Normalize(clone.Text())
}

// matchTitle derives the panel's display title from the score header: the
// first span's ">"-separated path plus the last span, re-joined with ">".
func matchTitle(doc *goquery.Document) string {
	st := doc.Find("div.record .scoreTop, div.record-match-area .scoreTop").First()
	if st.Length() == 0 {
		return ""
	}
	spans := st.Find("span")
	if spans.Length() == 0 {
		return textnorm.Normalize(st.Text())
	}

	var parts []string
	first := textnorm.Normalize(spans.First().Text())
	for _, p := range strings.Split(first, ">") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if spans.Length() > 1 {
		if last := textnorm.Normalize(spans.Last().Text()); last != "" {
			parts = append(parts, last)
		}
	}
	return strings.Join(parts, ">")
}
