package playwright

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/devicelab-dev/webflow-runner/pkg/config"
	"github.com/devicelab-dev/webflow-runner/pkg/core"
	"github.com/devicelab-dev/webflow-runner/pkg/logger"
	"github.com/playwright-community/playwright-go"
)

// LaunchOptions configures the shared browser process.
type LaunchOptions struct {
	Browser  string // chromium, firefox or webkit
	Headless bool
	SlowMo   time.Duration
	Viewport config.Viewport
	BaseURL  string
	Timeout  time.Duration // Page default timeout for operations without their own
}

// Launcher owns one playwright driver and one browser process. Each session
// gets its own browser context and page.
type Launcher struct {
	opts    LaunchOptions
	pw      *playwright.Playwright
	browser playwright.Browser

	mu     sync.Mutex
	closed bool
}

func runOptions() *playwright.RunOptions {
	return &playwright.RunOptions{
		DriverDirectory:     config.PlaywrightDir(),
		SkipInstallBrowsers: true,
	}
}

// Install downloads the playwright driver and the named browsers into the
// runner's drivers directory.
func Install(browsers ...string) error {
	opts := runOptions()
	opts.SkipInstallBrowsers = false
	opts.Browsers = browsers
	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("install playwright: %w", err)
	}
	return nil
}

// Launch starts the driver and the browser.
func Launch(opts LaunchOptions) (*Launcher, error) {
	if !config.PlaywrightInstalled() {
		return nil, core.ErrBrowserUnavailable.
			WithMessage(fmt.Sprintf("no playwright driver in %s (run install-browsers first)", config.PlaywrightDir()))
	}
	pw, err := playwright.Run(runOptions())
	if err != nil {
		return nil, core.ErrBrowserUnavailable.
			WithMessage("could not start playwright").
			WithCause(err)
	}

	var bt playwright.BrowserType
	switch opts.Browser {
	case "", "chromium":
		bt = pw.Chromium
	case "firefox":
		bt = pw.Firefox
	case "webkit":
		bt = pw.WebKit
	default:
		_ = pw.Stop()
		return nil, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unknown browser %q", opts.Browser))
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if opts.SlowMo > 0 {
		launch.SlowMo = playwright.Float(float64(opts.SlowMo.Milliseconds()))
	}
	b, err := bt.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return nil, core.ErrBrowserUnavailable.
			WithMessage(fmt.Sprintf("could not launch %s", bt.Name())).
			WithCause(err)
	}

	logger.Info("launched %s %s (headless=%v)", bt.Name(), b.Version(), opts.Headless)
	return &Launcher{opts: opts, pw: pw, browser: b}, nil
}

// BrowserName returns the launched browser's engine name.
func (l *Launcher) BrowserName() string {
	if l.opts.Browser == "" {
		return "chromium"
	}
	return l.opts.Browser
}

// Options returns the options the launcher was started with.
func (l *Launcher) Options() LaunchOptions { return l.opts }

// Version returns the browser version.
func (l *Launcher) Version() string { return l.browser.Version() }

// Session is one isolated browser context with a single page.
type Session struct {
	context playwright.BrowserContext
	page    *Page
}

// Page returns the session's page.
func (s *Session) Page() *Page { return s.page }

// Close closes the page and its context.
func (s *Session) Close() error {
	if err := s.page.Raw().Close(); err != nil {
		logger.Warn("close page: %v", err)
	}
	return s.context.Close()
}

// NewSession opens a fresh context and page.
func (l *Launcher) NewSession(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return nil, core.ErrBrowserUnavailable.WithMessage("browser already closed")
	}

	ctxOpts := playwright.BrowserNewContextOptions{}
	if l.opts.Viewport.Width > 0 && l.opts.Viewport.Height > 0 {
		ctxOpts.Viewport = &playwright.Size{Width: l.opts.Viewport.Width, Height: l.opts.Viewport.Height}
	}
	if l.opts.BaseURL != "" {
		ctxOpts.BaseURL = playwright.String(l.opts.BaseURL)
	}

	bctx, err := l.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, core.ErrBrowserUnavailable.WithMessage("could not create browser context").WithCause(err)
	}
	p, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, core.ErrBrowserUnavailable.WithMessage("could not open page").WithCause(err)
	}
	if l.opts.Timeout > 0 {
		p.SetDefaultTimeout(float64(l.opts.Timeout.Milliseconds()))
	}
	return &Session{context: bctx, page: NewPage(p)}, nil
}

// Close shuts down the browser and the driver.
func (l *Launcher) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	if err := l.browser.Close(); err != nil {
		logger.Warn("close browser: %v", err)
	}
	return l.pw.Stop()
}
