// Package validate cross-checks crawled roster names against the site's
// player directory. A roster entry verifies when the directory holds a
// player with the same name under the same sport and kind.
package validate

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod/lib/input"

	"github.com/JMJ-GIF/jw-streamlit/internal/config"
	"github.com/JMJ-GIF/jw-streamlit/internal/session"
	"github.com/JMJ-GIF/jw-streamlit/internal/textnorm"
	"github.com/JMJ-GIF/jw-streamlit/internal/transform"
	"github.com/JMJ-GIF/jw-streamlit/internal/types"
)

const (
	searchInputSel      = "#searchKorNm"
	searchResultCaption = "선수명 검색 결과"
)

var searchButtonX = `//button[contains(@class,'searchBtn') or contains(@onclick,'search')]`

// PlayerHit is one row of the player directory's search results.
type PlayerHit struct {
	Sport       string
	Kind        string
	Name        string
	Affiliation string
}

// Verification pairs a roster entry with its directory check.
type Verification struct {
	Entry    types.RosterEntry
	Verified bool
}

// Validator drives the player directory page.
type Validator struct {
	sess   *session.Session
	cfg    *config.Config
	logger *slog.Logger
}

func New(sess *session.Session, cfg *config.Config, logger *slog.Logger) *Validator {
	return &Validator{sess: sess, cfg: cfg, logger: logger.With("component", "validate")}
}

// Open loads the player directory page.
func (v *Validator) Open() error {
	if err := v.sess.Navigate(v.cfg.Site.PlayerURL); err != nil {
		return &types.NavigationError{Stage: "player_directory", Err: err}
	}
	v.sess.AcceptAlerts(2, v.cfg.Crawl.AlertWaitEach)
	if _, err := v.sess.WaitVisible(searchInputSel, v.cfg.Crawl.NavTimeout); err != nil {
		return &types.NavigationError{Stage: "player_directory", Err: err}
	}
	return nil
}

// Search runs one name query and returns the parsed result rows. An empty
// result set is not an error.
func (v *Validator) Search(name string) ([]PlayerHit, error) {
	field, err := v.sess.WaitVisible(searchInputSel, v.cfg.Crawl.NavTimeout)
	if err != nil {
		return nil, err
	}
	if err := field.SelectAllText(); err == nil {
		_ = field.Input("")
	}
	if err := field.Input(name); err != nil {
		return nil, fmt.Errorf("type query: %w", err)
	}

	if els, err := v.sess.ElementsX(searchButtonX); err == nil && len(els) > 0 {
		_ = v.sess.JSClick(els[0])
	} else if err := field.Type(input.Enter); err != nil {
		return nil, fmt.Errorf("submit query: %w", err)
	}
	v.sess.DrainDialogs()

	deadline := time.Now().Add(v.cfg.Crawl.ResultsTimeout)
	for {
		html, err := v.sess.HTML()
		if err == nil {
			if hits, ok := ParseSearchResults(html); ok {
				return hits, nil
			}
		}
		if time.Now().After(deadline) {
			return nil, &types.WaitTimeoutError{Selector: searchResultCaption, Timeout: v.cfg.Crawl.ResultsTimeout}
		}
		time.Sleep(500 * time.Millisecond)
	}
}

// VerifyRoster checks each roster entry against the directory, one query per
// distinct player name. Lookups that error leave their entries unverified.
func (v *Validator) VerifyRoster(entries []types.RosterEntry) []Verification {
	cache := make(map[string][]PlayerHit)
	out := make([]Verification, 0, len(entries))
	for _, e := range entries {
		name := textnorm.Normalize(e.PlayerName)
		if name == "" {
			out = append(out, Verification{Entry: e})
			continue
		}
		hits, cached := cache[name]
		if !cached {
			var err error
			hits, err = v.Search(name)
			if err != nil {
				v.logger.Warn("directory lookup failed", "player", name, "error", err)
				hits = nil
			}
			cache[name] = hits
		}
		out = append(out, Verification{Entry: e, Verified: Matches(e, hits)})
	}
	return out
}

// Matches reports whether any directory hit confirms the entry: identical
// name, and the hit's sport and kind both appearing in the entry's match
// title.
func Matches(e types.RosterEntry, hits []PlayerHit) bool {
	name := textnorm.Normalize(e.PlayerName)
	title := textnorm.Normalize(e.MatchTitle)
	for _, h := range hits {
		if h.Name != name {
			continue
		}
		if h.Sport != "" && !strings.Contains(title, h.Sport) {
			continue
		}
		if h.Kind != "" && !strings.Contains(title, h.Kind) {
			continue
		}
		return true
	}
	return false
}

// ParseSearchResults extracts directory hits from a page snapshot. The
// second return is false until the results table has rendered.
func ParseSearchResults(pageHTML string) ([]PlayerHit, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, false
	}

	var table *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		cap := textnorm.Normalize(t.Find("caption").First().Text())
		if strings.Contains(cap, searchResultCaption) {
			table = t
			return false
		}
		return true
	})
	if table == nil {
		return nil, false
	}

	var hits []PlayerHit
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.Find("td.no-result").Length() > 0 {
			return
		}
		tds := tr.Find("td")
		if tds.Length() < 4 {
			return
		}
		cell := func(i int) string { return textnorm.Normalize(tds.Eq(i).Text()) }
		hit := PlayerHit{Sport: cell(0), Kind: cell(1), Name: cell(2), Affiliation: cell(3)}
		if hit.Name == "" {
			return
		}
		hits = append(hits, hit)
	})
	return hits, true
}

// Summarize folds verifications into per-player flags for reporting, one
// row per distinct (name, affiliation) pair.
func Summarize(verifications []Verification) map[string]bool {
	out := make(map[string]bool)
	for _, v := range verifications {
		aff, _ := transform.SplitAffiliationGrade(v.Entry.AffiliationGrade)
		key := textnorm.Normalize(v.Entry.PlayerName)
		if aff != "" {
			key += " (" + aff + ")"
		}
		if key == "" || strings.HasPrefix(key, " ") {
			continue
		}
		out[key] = out[key] || v.Verified
	}
	return out
}
