// Package navigate drives the site's cascading filter UI: region, then date,
// then sport/category, then search. Each step is a bounded wait; a step that
// cannot find its target reports a NavigationError with the stage name and
// the caller skips that (date, category) combination.
package navigate

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
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
	regionButtonSel   = "#sidoCdBtn"
	regionListSel     = "ul#sidoCdList"
	dateButtonSel     = "#gmDtBtn"
	dateListSel       = "#gmDtList > li"
	categoryButtonSel = "#classCdBtn"
	categoryListSel   = "#classCdList > li"

	searchButtonX = `//button[contains(@class,'searchBtn') or @onclick='javascript:search();']`
	loadMoreX     = `//button[normalize-space()='더보기' or contains(.,'더보기')] | //a[normalize-space()='더보기' or contains(.,'더보기')]`
)

// scheduleTableX matches result tables by their caption marker.
var scheduleTableX = fmt.Sprintf(`//table[.//caption[contains(normalize-space(),'%s')]]`, types.ScheduleCaption)

var selectClassCdRe = regexp.MustCompile(`selectClassCd\('([^']+)','([^']+)'\)`)

// Category is one sport/category entry of the category dropdown.
type Category struct {
	Code string
	Name string
}

// Controller positions the browser on a (date, category) results page.
type Controller struct {
	sess   *session.Session
	cfg    *config.Config
	logger *slog.Logger
}

// New creates a Controller over an open session.
func New(sess *session.Session, cfg *config.Config, logger *slog.Logger) *Controller {
	return &Controller{
		sess:   sess,
		cfg:    cfg,
		logger: logger.With("component", "navigate"),
	}
}

// Open loads a schedule endpoint and selects the configured region. This is
// the only non-recoverable navigation step: without a region there is no
// usable starting state.
func (c *Controller) Open(url string) error {
	if err := c.sess.Navigate(url); err != nil {
		return &types.NavigationError{Stage: "open", Err: err}
	}
	c.sess.AcceptAlerts(2, c.cfg.Crawl.AlertWaitEach)

	btn, err := c.sess.WaitVisible(regionButtonSel, c.cfg.Crawl.NavTimeout)
	if err != nil {
		return &types.NavigationError{Stage: "region", Err: err}
	}
	if err := c.sess.JSClick(btn); err != nil {
		return &types.NavigationError{Stage: "region", Err: err}
	}

	if err := c.clickRegionItem(); err != nil {
		return &types.NavigationError{Stage: "region", Err: err}
	}
	c.sess.AcceptAlerts(c.cfg.Crawl.AlertTries, c.cfg.Crawl.AlertWaitEach)

	c.logger.Info("region selected", "region", c.cfg.Site.RegionName)
	return nil
}

// clickRegionItem finds the region list item, first by its inline handler
// (getGmDtList('<code>','<name>')), then by link text.
func (c *Controller) clickRegionItem() error {
	call := fmt.Sprintf("getGmDtList('%s','%s')", c.cfg.Site.RegionCode, c.cfg.Site.RegionName)
	x := fmt.Sprintf(`//ul[@id='sidoCdList']//li[contains(@onclick, %q)]`, call)
	items, err := c.sess.ElementsX(x)
	if err == nil && len(items) > 0 {
		return c.sess.JSClick(items[0])
	}

	x = fmt.Sprintf(`//ul[@id='sidoCdList']//li[a[normalize-space()='%s']]`, c.cfg.Site.RegionName)
	el, werr := c.waitX(x, c.cfg.Crawl.NavTimeout)
	if werr != nil {
		return werr
	}
	return c.sess.JSClick(el)
}

// ListDates opens the date dropdown and returns its entries, skipping the
// "전체" (all) item.
func (c *Controller) ListDates() ([]string, error) {
	btn, err := c.sess.WaitVisible(dateButtonSel, c.cfg.Crawl.NavTimeout)
	if err != nil {
		return nil, &types.NavigationError{Stage: "date", Err: err}
	}
	if err := c.sess.JSClick(btn); err != nil {
		return nil, &types.NavigationError{Stage: "date", Err: err}
	}
	time.Sleep(200 * time.Millisecond)

	doc, err := c.document()
	if err != nil {
		return nil, &types.NavigationError{Stage: "date", Err: err}
	}

	var dates []string
	doc.Find(dateListSel).Each(func(_ int, li *goquery.Selection) {
		if li.HasClass("all") {
			return
		}
		txt := textnorm.Normalize(li.Text())
		if txt != "" && txt != "전체" {
			dates = append(dates, txt)
		}
	})
	c.logger.Info("dates listed", "count", len(dates))
	return dates, nil
}

// SelectDate picks a date, preferring the site's own handler over clicking
// through the dropdown.
func (c *Controller) SelectDate(date string) error {
	call := fmt.Sprintf("getClassCdList('%s','%s')", date, date)
	if err := c.sess.EvalStatement(call); err == nil {
		time.Sleep(400 * time.Millisecond)
		return nil
	}

	btn, err := c.sess.WaitVisible(dateButtonSel, c.cfg.Crawl.NavTimeout)
	if err != nil {
		return &types.NavigationError{Stage: "date", Err: err}
	}
	if err := c.sess.JSClick(btn); err != nil {
		return &types.NavigationError{Stage: "date", Err: err}
	}
	x := fmt.Sprintf(`//ul[@id='gmDtList']//li[a[normalize-space()='%s']]`, date)
	li, err := c.waitX(x, c.cfg.Crawl.NavTimeout)
	if err != nil {
		return &types.NavigationError{Stage: "date", Err: err}
	}
	if err := c.sess.JSClick(li); err != nil {
		return &types.NavigationError{Stage: "date", Err: err}
	}
	time.Sleep(400 * time.Millisecond)
	return nil
}

// ListCategories opens the category dropdown for the currently selected date
// and returns code/name pairs, pulled from each item's inline handler when
// present.
func (c *Controller) ListCategories() ([]Category, error) {
	btn, err := c.sess.WaitVisible(categoryButtonSel, c.cfg.Crawl.NavTimeout)
	if err != nil {
		return nil, &types.NavigationError{Stage: "category", Err: err}
	}
	if err := c.sess.JSClick(btn); err != nil {
		return nil, &types.NavigationError{Stage: "category", Err: err}
	}
	time.Sleep(200 * time.Millisecond)

	doc, err := c.document()
	if err != nil {
		return nil, &types.NavigationError{Stage: "category", Err: err}
	}

	var cats []Category
	doc.Find(categoryListSel).Each(func(_ int, li *goquery.Selection) {
		if li.HasClass("all") {
			return
		}
		onclick, _ := li.Attr("onclick")
		if m := selectClassCdRe.FindStringSubmatch(onclick); m != nil {
			cats = append(cats, Category{Code: m[1], Name: m[2]})
			return
		}
		if name := textnorm.Normalize(li.Text()); name != "" {
			cats = append(cats, Category{Name: name})
		}
	})
	c.logger.Info("categories listed", "count", len(cats))
	return cats, nil
}

// SelectCategory picks a category by invoking the site's handler, falling
// back to clicking the dropdown item by name.
func (c *Controller) SelectCategory(cat Category) error {
	if cat.Code != "" {
		call := fmt.Sprintf("selectClassCd('%s','%s')", cat.Code, cat.Name)
		if err := c.sess.EvalStatement(call); err == nil {
			return nil
		}
	}

	btn, err := c.sess.WaitVisible(categoryButtonSel, c.cfg.Crawl.NavTimeout)
	if err != nil {
		return &types.NavigationError{Stage: "category", Err: err}
	}
	if err := c.sess.JSClick(btn); err != nil {
		return &types.NavigationError{Stage: "category", Err: err}
	}
	x := fmt.Sprintf(`//ul[@id='classCdList']//li[a[normalize-space()='%s']]`, cat.Name)
	li, err := c.waitX(x, c.cfg.Crawl.NavTimeout)
	if err != nil {
		return &types.NavigationError{Stage: "category", Err: err}
	}
	return c.sess.JSClick(li)
}

// Search submits the current filter selection. A missing search button is
// not an error: some filter states auto-submit.
func (c *Controller) Search() {
	el, err := c.waitX(searchButtonX, 10*time.Second)
	if err == nil {
		_ = c.sess.JSClick(el)
	}
	c.sess.AcceptAlerts(3, time.Second)
}

// WaitResults polls until a results table appears, tolerating dialogs that
// fire mid-wait, then pauses for the DOM to settle. Returns false when the
// page stayed empty for the whole budget; callers treat that as an empty
// result set, not a failure.
func (c *Controller) WaitResults() bool {
	deadline := time.Now().Add(c.cfg.Crawl.ResultsTimeout)
	for time.Now().Before(deadline) {
		els, err := c.sess.ElementsX(scheduleTableX)
		if err == nil && len(els) > 0 {
			time.Sleep(c.cfg.Crawl.ResultsSettlePause)
			return true
		}
		c.sess.DrainDialogs()
		time.Sleep(500 * time.Millisecond)
	}
	return false
}

// LoadMoreAll clicks the "load more" control until it disappears or the
// click budget runs out. The budget guards against a control that never
// exhausts. Returns the number of clicks performed.
func (c *Controller) LoadMoreAll() int {
	clicks := 0
	for clicks < c.cfg.Crawl.LoadMoreMaxClicks {
		el, err := c.waitX(loadMoreX, 4*time.Second)
		if err != nil {
			break
		}
		if err := c.sess.JSClick(el); err != nil {
			break
		}
		time.Sleep(c.cfg.Crawl.LoadMorePause)
		clicks++
	}
	if clicks > 0 {
		c.logger.Debug("pagination exhausted", "clicks", clicks)
	}
	return clicks
}

// EnsurePageLoaded positions the browser on the results page for one
// (date, category) pair: select, search, wait, exhaust pagination.
func (c *Controller) EnsurePageLoaded(page types.PageKey) error {
	if err := c.SelectDate(page.FilterDate); err != nil {
		return err
	}
	cat := Category{Code: page.FilterCategoryCode, Name: page.FilterCategoryName}
	if err := c.SelectCategory(cat); err != nil {
		return err
	}
	c.Search()
	if !c.WaitResults() {
		return &types.NavigationError{Stage: "results", Err: types.ErrNoResults}
	}
	c.LoadMoreAll()
	return nil
}

// RowElements returns the schedule table body rows currently in the DOM, in
// document order.
func (c *Controller) RowElements() (rod.Elements, error) {
	return c.sess.ElementsX(scheduleTableX + `//tbody/tr`)
}

// document parses the current page DOM with goquery.
func (c *Controller) document() (*goquery.Document, error) {
	html, err := c.sess.HTML()
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// waitX waits for an XPath match to appear, polling because rod's blocking
// ElementX requires a page context deadline we manage ourselves here.
func (c *Controller) waitX(x string, timeout time.Duration) (*rod.Element, error) {
	deadline := time.Now().Add(timeout)
	for {
		els, err := c.sess.ElementsX(x)
		if err == nil && len(els) > 0 {
			return els[0], nil
		}
		if time.Now().After(deadline) {
			return nil, &types.WaitTimeoutError{Selector: x, Timeout: timeout, Err: errors.New("no xpath match")}
		}
		time.Sleep(200 * time.Millisecond)
	}
}
