package detail

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"

	"github.com/JMJ-GIF/jw-streamlit/internal/config"
	"github.com/JMJ-GIF/jw-streamlit/internal/navigate"
	"github.com/JMJ-GIF/jw-streamlit/internal/session"
	"github.com/JMJ-GIF/jw-streamlit/internal/textnorm"
	"github.com/JMJ-GIF/jw-streamlit/internal/types"
)

var teamNameParens = regexp.MustCompile(`\((.*?)\)`)

// Roster header labels recognized in the desktop-table layout.
const (
	headAttend   = "출전"
	headPlayer   = "선수"
	headAffil    = "소속"
	headPosition = "포지"
)

// BracketExtractor harvests the two-team roster panel for tournament
// schedule rows.
type BracketExtractor struct {
	sess   *session.Session
	nav    *navigate.Controller
	cfg    *config.Config
	logger *slog.Logger
}

// NewBracketExtractor creates a BracketExtractor sharing the crawl's single
// session.
func NewBracketExtractor(sess *session.Session, nav *navigate.Controller, cfg *config.Config, logger *slog.Logger) *BracketExtractor {
	return &BracketExtractor{
		sess:   sess,
		nav:    nav,
		cfg:    cfg,
		logger: logger.With("component", "bracket"),
	}
}

// ExtractRow opens the detail panel for the schedule row at rowIndex, parses
// its rosters, and closes the panel. The whole open-parse-close sequence is
// retried up to the configured attempt budget; a row that exhausts its
// attempts contributes zero entries and is reported, never fatal.
func (b *BracketExtractor) ExtractRow(rowIndex int, rec types.ScheduleRecord) ([]types.RosterEntry, bool) {
	var entries []types.RosterEntry

	out := runAttempts(b.cfg.Crawl.RowAttempts, 300*time.Millisecond, func(attempt int) outcome {
		start := time.Now()
		o, got := b.attemptRow(rowIndex, rec)
		if o.ok() {
			entries = got
			b.logger.Info("row extracted",
				"local_pk", rec.LocalPK,
				"players", len(got),
				"elapsed", time.Since(start).Round(10*time.Millisecond),
			)
		} else {
			b.logger.Warn("row attempt failed",
				"local_pk", rec.LocalPK,
				"attempt", attempt,
				"reason", o.reason,
			)
		}
		return o
	})

	return entries, out.ok()
}

func (b *BracketExtractor) attemptRow(rowIndex int, rec types.ScheduleRecord) (outcome, []types.RosterEntry) {
	tr, err := b.locateRow(rowIndex)
	if err != nil {
		return retry(err.Error()), nil
	}

	if err := openRowPanel(b.sess, b.cfg, tr, scoreTopSel, b.cfg.Crawl.PanelOpenTimeout); err != nil {
		if b.sess.DrainDialogs() > 0 {
			return retry("dialog interrupted panel open"), nil
		}
		if session.IsTimeout(err) {
			return retry(fmt.Sprintf("panel timeout: %v", err)), nil
		}
		return retry(err.Error()), nil
	}

	// Roster block render lags the panel itself; wait briefly but carry on
	// without it, the parse below reports the absence.
	if _, err := b.sess.WaitPresent(rosterListSel, 3*time.Second); err != nil {
		b.logger.Debug("roster block slow to render", "local_pk", rec.LocalPK)
	}
	time.Sleep(b.cfg.Crawl.PanelSettlePause)

	html, err := b.sess.HTML()
	if err != nil {
		closeRowPanel(b.sess, b.cfg, b.logger, rec.LocalPK)
		return retry(fmt.Sprintf("snapshot: %v", err)), nil
	}

	entries, perr := ParseBracketPanel(html, rec.LocalPK, rec.GlobalPK)

	closeRowPanel(b.sess, b.cfg, b.logger, rec.LocalPK)

	if perr != nil {
		return retry(perr.Error()), nil
	}
	if len(entries) == 0 {
		return retry("roster parsed to zero entries"), nil
	}
	return succeed(), entries
}

// locateRow re-resolves the row element on every attempt, since the table
// re-renders under us after pagination and panel churn.
func (b *BracketExtractor) locateRow(rowIndex int) (*rod.Element, error) {
	rows, err := b.nav.RowElements()
	if err != nil {
		return nil, &types.StaleElementError{Err: err}
	}
	if rowIndex >= len(rows) {
		// Pagination may not be exhausted on a freshly reopened page.
		b.nav.LoadMoreAll()
		rows, err = b.nav.RowElements()
		if err != nil {
			return nil, &types.StaleElementError{Err: err}
		}
		if rowIndex >= len(rows) {
			return nil, fmt.Errorf("%w: index %d of %d", types.ErrRowOutOfRange, rowIndex, len(rows))
		}
	}
	return rows[rowIndex], nil
}

// ParseBracketPanel parses a page snapshot containing an open bracket panel
// into roster entries tagged with the parent row's identifiers.
func ParseBracketPanel(pageHTML string, localPK int, globalPK string) ([]types.RosterEntry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("parse panel: %w", err)
	}

	title := matchTitle(doc)

	list := doc.Find(rosterListSel).First()
	if list.Length() == 0 {
		return nil, types.ErrNoRosterBlock
	}

	var entries []types.RosterEntry
	list.ChildrenFiltered("li").Each(func(_ int, teamLI *goquery.Selection) {
		h6 := teamLI.Find("h6").First()
		if h6.Length() == 0 {
			return
		}
		team := textnorm.Normalize(h6.Text())
		if m := teamNameParens.FindStringSubmatch(team); m != nil {
			team = m[1]
		}

		rows := parseTeamTable(teamLI, title, team, localPK, globalPK)
		if len(rows) == 0 {
			rows = parseTeamList(teamLI, title, team, localPK, globalPK)
		}
		entries = append(entries, rows...)
	})

	return entries, nil
}

// parseTeamTable parses the desktop-table roster layout. Column meaning is
// resolved from header labels once per team section, with a positional
// fallback for header-less tables.
func parseTeamTable(teamLI *goquery.Selection, title, team string, localPK int, globalPK string) []types.RosterEntry {
	table := teamLI.Find("div.boardTable01 table.pcView").First()
	if table.Length() == 0 {
		return nil
	}

	headerIdx := map[string]int{}
	table.Find("thead tr > th").Each(func(i int, th *goquery.Selection) {
		label := textnorm.Normalize(th.Text())
		switch {
		case strings.Contains(label, headAttend):
			headerIdx[headAttend] = i
		case strings.Contains(label, headPlayer):
			headerIdx[headPlayer] = i
		case strings.Contains(label, headAffil):
			headerIdx[headAffil] = i
		case strings.Contains(label, headPosition):
			headerIdx[headPosition] = i
		}
	})

	var entries []types.RosterEntry
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		tds := tr.Find("td")
		if tds.Length() == 0 {
			return
		}

		e := types.RosterEntry{
			LocalPK:    localPK,
			GlobalPK:   globalPK,
			MatchTitle: title,
			TeamLabel:  team,
		}

		if len(headerIdx) > 0 {
			if i, ok := headerIdx[headAttend]; ok && i < tds.Length() {
				e.Attended = attendanceCell(tds.Eq(i))
			}
			if i, ok := headerIdx[headPlayer]; ok && i < tds.Length() {
				e.PlayerName = textnorm.Normalize(tds.Eq(i).Text())
			}
			if i, ok := headerIdx[headAffil]; ok && i < tds.Length() {
				e.AffiliationGrade = textnorm.Normalize(tds.Eq(i).Text())
			}
			if i, ok := headerIdx[headPosition]; ok && i < tds.Length() {
				e.Position = textnorm.Normalize(tds.Eq(i).Text())
			}
		} else {
			switch tds.Length() {
			case 4:
				e.Attended = attendanceCell(tds.Eq(0))
				e.PlayerName = textnorm.Normalize(tds.Eq(1).Text())
				e.AffiliationGrade = textnorm.Normalize(tds.Eq(2).Text())
				e.Position = textnorm.Normalize(tds.Eq(3).Text())
			case 3:
				e.PlayerName = textnorm.Normalize(tds.Eq(0).Text())
				e.AffiliationGrade = textnorm.Normalize(tds.Eq(1).Text())
				e.Position = textnorm.Normalize(tds.Eq(2).Text())
			default:
				return
			}
		}

		if e.PlayerName == "" && e.AffiliationGrade == "" && e.Position == "" {
			return
		}
		entries = append(entries, e)
	})
	return entries
}

// parseTeamList parses the mobile-list roster layout, where rows arrive as
// a flat label/value stream. A repeated player-name label signals the start
// of a new record: the buffered one is flushed first.
func parseTeamList(teamLI *goquery.Selection, title, team string, localPK int, globalPK string) []types.RosterEntry {
	items := teamLI.Find("div.mobView ul.box-list > li")
	if items.Length() == 0 {
		return nil
	}

	var entries []types.RosterEntry
	cur := types.RosterEntry{LocalPK: localPK, GlobalPK: globalPK, MatchTitle: title, TeamLabel: team}

	flush := func() {
		if cur.PlayerName != "" || cur.AffiliationGrade != "" || cur.Position != "" {
			entries = append(entries, cur)
		}
		cur = types.RosterEntry{LocalPK: localPK, GlobalPK: globalPK, MatchTitle: title, TeamLabel: team}
	}

	items.Each(func(_ int, li *goquery.Selection) {
		strong := li.Find("strong").First()
		if strong.Length() == 0 {
			return
		}
		key := textnorm.Normalize(strong.Text())
		span := li.Find("span").First()
		val := ""
		if span.Length() > 0 {
			val = textnorm.Normalize(span.Text())
		}

		switch {
		case strings.Contains(key, headAttend):
			cur.Attended = attendanceCell(span)
		case strings.Contains(key, headPlayer):
			if cur.PlayerName != "" {
				flush()
			}
			cur.PlayerName = val
		case strings.Contains(key, headAffil):
			cur.AffiliationGrade = val
		case strings.Contains(key, headPosition):
			cur.Position = val
			flush()
		}
	})

	flush()
	return entries
}

// attendanceCell derives the tri-state from the checkbox icon inside a cell
// or value span.
func attendanceCell(sel *goquery.Selection) types.Attendance {
	if sel == nil || sel.Length() == 0 {
		return types.AttendanceUnknown
	}
	src, _ := sel.Find("img").First().Attr("src")
	return types.AttendanceFromIconSrc(src)
}
