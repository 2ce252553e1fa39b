// Package session owns the single headless browser instance that drives the
// whole crawl. Every higher layer goes through its alert-dismissal, scoped
// wait, and script-injection helpers; none of them talk to rod directly.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/JMJ-GIF/jw-streamlit/internal/config"
	"github.com/JMJ-GIF/jw-streamlit/internal/types"
)

// Session wraps one browser tab. The crawl is strictly sequential, so there
// is exactly one page and no pooling.
type Session struct {
	browser *rod.Browser
	page    *rod.Page
	cfg     *config.Config
	logger  *slog.Logger

	// dialogs receives the message of every JS dialog the auto-accept
	// handler dismissed. Buffered so the handler never blocks.
	dialogs chan string
}

// New launches a browser and opens the crawl page. Construction failure is
// fatal to the run.
func New(cfg *config.Config, logger *slog.Logger) (*Session, error) {
	l := launcher.New().
		Headless(cfg.Browser.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-blink-features", "AutomationControlled")

	if cfg.Browser.WindowSize != "" {
		l = l.Set("window-size", cfg.Browser.WindowSize)
	}

	launchURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	var page *rod.Page
	if cfg.Browser.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}

	s := &Session{
		browser: browser,
		page:    page,
		cfg:     cfg,
		logger:  logger.With("component", "session"),
		dialogs: make(chan string, 16),
	}

	// Driver-level backstop: accept every JS dialog the site throws, and
	// record its message so waits in flight can notice and retry.
	go s.page.EachEvent(func(e *proto.PageJavascriptDialogOpening) {
		s.logger.Debug("dialog auto-accepted", "message", e.Message)
		_ = proto.PageHandleJavaScriptDialog{Accept: true}.Call(s.page)
		select {
		case s.dialogs <- e.Message:
		default:
		}
	})()

	s.logger.Info("browser session ready",
		"headless", cfg.Browser.Headless,
		"stealth", cfg.Browser.Stealth,
	)
	return s, nil
}

// Navigate opens a URL and waits for the load event.
func (s *Session) Navigate(url string) error {
	if err := s.page.Timeout(s.cfg.Crawl.NavTimeout).Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := s.page.Timeout(s.cfg.Crawl.NavTimeout).WaitLoad(); err != nil {
		s.logger.Warn("page load wait elapsed, continuing", "url", url, "error", err)
	}
	return nil
}

// AcceptAlerts polls for dialogs dismissed by the backstop handler: up to
// tries rounds, waiting waitEach per round, stopping at the first quiet
// round. Returns how many dialogs were seen.
func (s *Session) AcceptAlerts(tries int, waitEach time.Duration) int {
	accepted := 0
	for i := 0; i < tries; i++ {
		select {
		case msg := <-s.dialogs:
			accepted++
			s.logger.Debug("dialog acknowledged", "message", msg)
		case <-time.After(waitEach):
			return accepted
		}
	}
	return accepted
}

// DrainDialogs consumes any already-recorded dialog messages without
// waiting. Used by retry wrappers to tell "the wait failed because a dialog
// fired" apart from a plain timeout.
func (s *Session) DrainDialogs() int {
	n := 0
	for {
		select {
		case <-s.dialogs:
			n++
		default:
			return n
		}
	}
}

// WaitPresent waits until an element matching sel exists in the DOM.
func (s *Session) WaitPresent(sel string, timeout time.Duration) (*rod.Element, error) {
	el, err := s.page.Timeout(timeout).Element(sel)
	if err != nil {
		return nil, &types.WaitTimeoutError{Selector: sel, Timeout: timeout, Err: err}
	}
	return el, nil
}

// WaitVisible waits until an element matching sel exists and is visible.
func (s *Session) WaitVisible(sel string, timeout time.Duration) (*rod.Element, error) {
	el, err := s.page.Timeout(timeout).Element(sel)
	if err != nil {
		return nil, &types.WaitTimeoutError{Selector: sel, Timeout: timeout, Err: err}
	}
	if err := el.Timeout(timeout).WaitVisible(); err != nil {
		return nil, &types.WaitTimeoutError{Selector: sel, Timeout: timeout, Err: err}
	}
	return el, nil
}

// WaitInvisible waits until no visible element matches sel. An element that
// is absent entirely counts as invisible.
func (s *Session) WaitInvisible(sel string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		has, el, err := s.page.Has(sel)
		if err == nil && !has {
			return nil
		}
		if err == nil && has {
			if vis, verr := el.Visible(); verr == nil && !vis {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return &types.WaitTimeoutError{Selector: sel, Timeout: timeout, Err: errors.New("still visible")}
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// WaitIgnoringDialogs runs a wait, retrying it when it failed because an
// unexpected dialog fired mid-wait. Bounded by retries; the final error is
// the wait's own.
func (s *Session) WaitIgnoringDialogs(retries int, wait func() error) error {
	var err error
	for i := 0; i <= retries; i++ {
		s.DrainDialogs()
		err = wait()
		if err == nil {
			return nil
		}
		if s.AcceptAlerts(1, s.cfg.Crawl.AlertWaitEach) == 0 {
			return err
		}
		s.logger.Warn("dialog interrupted wait, retrying", "attempt", i+1)
	}
	return err
}

// JSClick clicks an element via script injection. Many of the site's click
// targets are visually obscured or off-screen in the headless viewport, so a
// native click is unreliable.
func (s *Session) JSClick(el *rod.Element) error {
	_, err := el.Eval(`() => this.click()`)
	if err != nil {
		return &types.ScriptError{Script: "this.click()", Err: err}
	}
	return nil
}

// ScrollIntoView centers an element in the viewport.
func (s *Session) ScrollIntoView(el *rod.Element) {
	_, _ = el.Eval(`() => this.scrollIntoView({block: 'center'})`)
}

// EvalStatement runs a raw JS statement, e.g. an inline handler call lifted
// from an onclick attribute.
func (s *Session) EvalStatement(stmt string) error {
	stmt = strings.TrimSuffix(strings.TrimSpace(stmt), ";")
	_, err := s.page.Eval(`() => { ` + stmt + ` }`)
	if err != nil {
		return &types.ScriptError{Script: stmt, Err: err}
	}
	return nil
}

// HTML snapshots the full page DOM.
func (s *Session) HTML() (string, error) {
	return s.page.HTML()
}

// ElementsX returns all elements matching an XPath expression.
func (s *Session) ElementsX(xpath string) (rod.Elements, error) {
	return s.page.ElementsX(xpath)
}

// IsTimeout reports whether an error is a bounded-wait expiry.
func IsTimeout(err error) bool {
	var wt *types.WaitTimeoutError
	return errors.As(err, &wt) || errors.Is(err, context.DeadlineExceeded)
}

// Close shuts down the browser.
func (s *Session) Close() error {
	if s.page != nil {
		_ = s.page.Close()
	}
	if s.browser != nil {
		return s.browser.Close()
	}
	return nil
}
