// Package schedule parses the visible results tables into ScheduleRecord
// rows and assigns both identifier layers: the page-local running counter
// and the content-derived global key.
package schedule

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/JMJ-GIF/jw-streamlit/internal/textnorm"
	"github.com/JMJ-GIF/jw-streamlit/internal/types"
)

// Field labels embedded in each cell by the site's responsive table markup.
const (
	labelKind      = "종별"
	labelSubkind   = "세부종목"
	labelMatchType = "경기구분"
	labelStatus    = "상태"
	labelDateTime  = "일시"
	labelVenue     = "경기장"
	labelRegion    = "시도"
)

var tableXPath = fmt.Sprintf(
	`//table[contains(@class,'tablesaw')][.//caption[contains(normalize-space(),'%s')]]`,
	types.ScheduleCaption,
)

// sectionLabelXPaths locate the heading naming the sport for a table, most
// reliable form first.
var sectionLabelXPaths = []string{
	`preceding::h5[@id='classNm' or contains(@class,'subTit')][1]`,
	`preceding::h5[1]`,
}

// Extractor turns page DOM snapshots into schedule rows. The localPK counter
// is threaded through Parse calls, never reset, so one Extractor instance
// spans all (date, category) pages of a run.
type Extractor struct {
	logger *slog.Logger
	seq    int
}

// NewExtractor creates an Extractor whose first row gets localPK 1.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{
		logger: logger.With("component", "schedule"),
		seq:    1,
	}
}

// NextSeq returns the localPK the next parsed row will receive.
func (e *Extractor) NextSeq() int { return e.seq }

// Parse scans every marked results table in the page HTML, in document
// order, and returns typed rows tagged with the crawl context that produced
// the page.
func (e *Extractor) Parse(pageHTML string, page types.PageKey) ([]types.ScheduleRecord, error) {
	doc, err := htmlquery.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	var records []types.ScheduleRecord
	for _, tbl := range htmlquery.Find(doc, tableXPath) {
		sport := sectionLabel(tbl)
		rows := e.parseTable(tbl, sport, page)
		records = append(records, rows...)
	}

	e.logger.Info("schedule parsed",
		"rows", len(records),
		"date", page.FilterDate,
		"category", page.FilterCategoryName,
	)
	return records, nil
}

// parseTable scans one table's body rows, applying the kind carry-forward
// rule for rowspan-collapsed cells.
func (e *Extractor) parseTable(tbl *html.Node, sport string, page types.PageKey) []types.ScheduleRecord {
	gq := goquery.NewDocumentFromNode(tbl)
	lastKind := ""

	var records []types.ScheduleRecord
	gq.Find("tbody > tr").Each(func(_ int, tr *goquery.Selection) {
		rec, ok := parseRow(tr, lastKind)
		if !ok {
			return
		}
		if rec.Kind != "" {
			lastKind = rec.Kind
		}

		rec.LocalPK = e.seq
		rec.Sport = textnorm.Normalize(sport)
		rec.Page = page
		rec.GlobalPK = types.GlobalPK(rec.Sport, rec.Kind, rec.Subkind, rec.MatchType)
		records = append(records, rec)
		e.seq++
	})
	return records
}

// parseRow maps one physical row's cells to semantic fields: by inline label
// marker when present (robust to column reordering), positionally otherwise.
// Returns false for rows carrying no data (spacer/ad rows).
func parseRow(tr *goquery.Selection, lastKind string) (types.ScheduleRecord, bool) {
	var rec types.ScheduleRecord

	if m := rowLabelMap(tr); len(m) > 0 {
		rec.Kind = m[labelKind]
		if rec.Kind == "" {
			rec.Kind = lastKind
		}
		rec.Subkind = textnorm.NormalizeSubkind(m[labelSubkind])
		rec.MatchType = m[labelMatchType]
		rec.Status = m[labelStatus]
		rec.DateTime = m[labelDateTime]
		rec.Venue = m[labelVenue]
		rec.Region = m[labelRegion]
		return rec, true
	}

	tds := tr.Find("td")
	if tds.Length() < 7 {
		return rec, false
	}
	rec.Kind = cellText(tds.Eq(0))
	if rec.Kind == "" {
		rec.Kind = lastKind
	}
	rec.Subkind = textnorm.NormalizeSubkind(cellText(tds.Eq(1)))
	rec.MatchType = cellText(tds.Eq(2))
	rec.Status = cellText(tds.Eq(3))
	rec.DateTime = cellText(tds.Eq(4))
	rec.Venue = cellText(tds.Eq(5))
	rec.Region = cellText(tds.Eq(6))
	return rec, true
}

// rowLabelMap builds a label-to-value map from the hidden
// b.tablesaw-cell-label markers. Empty when the table renders without them.
func rowLabelMap(tr *goquery.Selection) map[string]string {
	m := map[string]string{}
	tr.ChildrenFiltered("td").Each(func(_ int, td *goquery.Selection) {
		labelEl := td.Find("b.tablesaw-cell-label").First()
		if labelEl.Length() == 0 {
			return
		}
		label := textnorm.Normalize(labelEl.Text())
		if label == "" {
			return
		}
		m[label] = cellText(td)
	})
	return m
}

// cellText extracts a cell's value, preferring the content span over the
// whole cell so the hidden label text is not duplicated into the value.
func cellText(td *goquery.Selection) string {
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

// sectionLabel resolves a table's sport heading from the nearest preceding
// h5, a lookup goquery cannot express but XPath's preceding axis can.
func sectionLabel(tbl *html.Node) string {
	for _, x := range sectionLabelXPaths {
		if h5 := htmlquery.FindOne(tbl, x); h5 != nil {
			if txt := textnorm.Normalize(htmlquery.InnerText(h5)); txt != "" {
				return txt
			}
		}
	}
	return ""
}
