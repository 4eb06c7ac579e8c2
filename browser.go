package main

import (
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
)

// Default values for the shared browser
const (
	DefaultUserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	DefaultPageLoadTimeout = 20 * time.Second
	DefaultViewportWidth   = 1280
	DefaultViewportHeight  = 720
)

// PageSnapshot is what a visit leaves behind once the page has loaded
type PageSnapshot struct {
	RequestedURL string
	URL          string // after redirects
	Title        string
	HTML         string
	BodyText     string
}

// Session is a single browser reused sequentially for every article of a run.
type Session interface {
	// Visit navigates to url, waits settle for scripts to run and returns a snapshot.
	Visit(url string, settle time.Duration) (*PageSnapshot, error)

	// Close terminates the browser and its child processes. Safe to call more than once.
	Close() error
}

// SessionOptions configures the shared browser
type SessionOptions struct {
	Headless        bool
	UserAgent       string
	PageLoadTimeout time.Duration
	ViewportWidth   int
	ViewportHeight  int

	// Install downloads the driver and Chromium before starting
	Install bool
}

// SessionFactory acquires the shared browser for a run
type SessionFactory func(opts SessionOptions, log *logrus.Entry) (Session, error)

// chromiumArgs returns the launch flags. Images and JavaScript stay enabled:
// image URLs and meta tags are read from the rendered page.
func chromiumArgs(headless bool) []string {
	args := []string{
		"--no-sandbox",
		"--disable-dev-shm-usage",
		"--disable-extensions",
		"--disable-popup-blocking",
		"--disable-notifications",
		"--disable-infobars",
		"--mute-audio",
		"--disable-plugins",
		"--disable-background-timer-throttling",
		"--disable-backgrounding-occluded-windows",
		"--disable-renderer-backgrounding",
		"--disable-features=TranslateUI",
		"--disable-ipc-flooding-protection",
	}
	if headless {
		args = append(args, "--disable-gpu")
	}
	return args
}

// BrowserSession is a Playwright-backed Session
type BrowserSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page

	log       *logrus.Entry
	closeOnce sync.Once
	closeErr  error
}

// AcquireSession starts the driver, launches Chromium and opens the page
// every article will be loaded into. On failure everything started so far
// is torn down and a *SessionStartError is returned.
func AcquireSession(opts SessionOptions, log *logrus.Entry) (Session, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.PageLoadTimeout <= 0 {
		opts.PageLoadTimeout = DefaultPageLoadTimeout
	}
	if opts.ViewportWidth <= 0 || opts.ViewportHeight <= 0 {
		opts.ViewportWidth, opts.ViewportHeight = DefaultViewportWidth, DefaultViewportHeight
	}

	// Keep driver output off the terminal
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if opts.Install {
		log.Debug("Installing playwright driver and chromium")
		if err := playwright.Install(runOpts); err != nil {
			return nil, &SessionStartError{Stage: "install", Err: errors.WithStack(err)}
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, &SessionStartError{Stage: "driver", Err: errors.WithStack(err)}
	}
	s := &BrowserSession{pw: pw, log: log}

	s.browser, err = pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless:        playwright.Bool(opts.Headless),
		ChromiumSandbox: playwright.Bool(false),
		Args:            chromiumArgs(opts.Headless),
	})
	if err != nil {
		s.Close()
		return nil, &SessionStartError{Stage: "launch", Err: errors.WithStack(err)}
	}

	s.context, err = s.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:         playwright.String(opts.UserAgent),
		JavaScriptEnabled: playwright.Bool(true),
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
	})
	if err != nil {
		s.Close()
		return nil, &SessionStartError{Stage: "context", Err: errors.WithStack(err)}
	}

	s.page, err = s.context.NewPage()
	if err != nil {
		s.Close()
		return nil, &SessionStartError{Stage: "page", Err: errors.WithStack(err)}
	}
	s.page.SetDefaultNavigationTimeout(float64(opts.PageLoadTimeout.Milliseconds()))

	mode := "headed"
	if opts.Headless {
		mode = "headless"
	}
	log.WithFields(logrus.Fields{
		"mode":              mode,
		"page_load_timeout": opts.PageLoadTimeout.String(),
	}).Info("✓ Shared browser instance created")

	return s, nil
}

// Visit navigates the shared page to url
func (s *BrowserSession) Visit(url string, settle time.Duration) (*PageSnapshot, error) {
	s.log.WithField("url", url).Debug("Navigating")

	if _, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return nil, errors.Wrapf(err, "navigating to %s", url)
	}

	// Give client-side scripts a moment to fill in meta tags and images
	if settle > 0 {
		s.page.WaitForTimeout(float64(settle.Milliseconds()))
	}

	snapshot := &PageSnapshot{
		RequestedURL: url,
		URL:          s.page.URL(),
	}
	if title, err := s.page.Title(); err == nil {
		snapshot.Title = title
	}

	html, err := s.page.Content()
	if err != nil {
		return nil, errors.Wrapf(err, "reading content of %s", snapshot.URL)
	}
	snapshot.HTML = html

	if text, err := s.page.Locator("body").InnerText(); err == nil {
		snapshot.BodyText = text
	}

	s.log.WithField("url", snapshot.URL).Debug("Current URL after redirects")
	return snapshot, nil
}

// Close releases page, context, browser and driver in that order. Later calls
// return the result of the first.
func (s *BrowserSession) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.page != nil {
			if err := s.page.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if s.context != nil {
			if err := s.context.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if s.pw != nil {
			if err := s.pw.Stop(); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			s.closeErr = errors.Errorf("errors closing browser session: %v", errs)
		}
	})
	return s.closeErr
}
