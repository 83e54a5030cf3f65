package web

import (
	"context"
	"sync"

	"github.com/devicelab-dev/webflow-runner/pkg/browser"
	"github.com/devicelab-dev/webflow-runner/pkg/browser/playwright"
	"github.com/devicelab-dev/webflow-runner/pkg/core"
	"github.com/devicelab-dev/webflow-runner/pkg/logger"
)

// PageOpener opens a fresh, isolated page and returns the func that closes it.
type PageOpener func(ctx context.Context) (browser.Page, func() error, error)

// LauncherOpener opens each page in its own browser context.
func LauncherOpener(l *playwright.Launcher) PageOpener {
	return func(ctx context.Context) (browser.Page, func() error, error) {
		s, err := l.NewSession(ctx)
		if err != nil {
			return nil, nil, err
		}
		return s.Page(), s.Close, nil
	}
}

// LauncherInfo describes the launched browser for reports.
func LauncherInfo(l *playwright.Launcher) core.PlatformInfo {
	opts := l.Options()
	return core.PlatformInfo{
		Platform:       "web",
		BrowserName:    l.BrowserName(),
		BrowserVersion: l.Version(),
		Headless:       opts.Headless,
		ViewportWidth:  opts.Viewport.Width,
		ViewportHeight: opts.Viewport.Height,
		BaseURL:        opts.BaseURL,
	}
}

// Factory implements core.SessionFactory: every scenario gets a new page and
// a driver bound to it.
type Factory struct {
	open PageOpener
	opts Options
}

// NewFactory creates a session factory.
func NewFactory(open PageOpener, opts Options) *Factory {
	return &Factory{open: open, opts: opts}
}

// NewSession opens a page for one scenario. BASE_URL in variables overrides
// the configured base URL for that scenario.
func (f *Factory) NewSession(ctx context.Context, variables map[string]string) (core.Driver, func(), error) {
	page, closePage, err := f.open(ctx)
	if err != nil {
		return nil, nil, err
	}

	opts := f.opts
	if base := variables["BASE_URL"]; base != "" {
		opts.BaseURL = base
		opts.Info.BaseURL = base
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			if closePage == nil {
				return
			}
			if err := closePage(); err != nil {
				logger.Warn("close session: %v", err)
			}
		})
	}
	return New(page, opts), release, nil
}
