// Package web implements core.Driver on top of the engine: each flow step is
// resolved to locator descriptors and dispatched to one engine operation.
package web

import (
	"fmt"
	"net/url"
	"time"

	"github.com/devicelab-dev/webflow-runner/pkg/browser"
	"github.com/devicelab-dev/webflow-runner/pkg/core"
	"github.com/devicelab-dev/webflow-runner/pkg/engine"
	"github.com/devicelab-dev/webflow-runner/pkg/flow"
	"github.com/devicelab-dev/webflow-runner/pkg/locator"
	"github.com/devicelab-dev/webflow-runner/pkg/logger"
)

// Options configures a Driver.
type Options struct {
	Resolver *locator.Resolver // Registry lookups; nil allows inline selectors only
	Engine   *engine.Engine    // nil uses engine defaults
	BaseURL  string            // Joined with relative navigate URLs
	Info     core.PlatformInfo
}

// Driver executes steps against one page. It is not safe for concurrent use;
// a scenario's steps run strictly in order.
type Driver struct {
	page     browser.Page
	engine   *engine.Engine
	resolver *locator.Resolver
	baseURL  string
	info     core.PlatformInfo
}

// New creates a driver for page.
func New(page browser.Page, opts Options) *Driver {
	e := opts.Engine
	if e == nil {
		e = engine.New()
	}
	info := opts.Info
	if info.Platform == "" {
		info.Platform = "web"
	}
	if info.BaseURL == "" {
		info.BaseURL = opts.BaseURL
	}
	return &Driver{
		page:     page,
		engine:   e,
		resolver: opts.Resolver,
		baseURL:  opts.BaseURL,
		info:     info,
	}
}

// Page returns the driver's page.
func (d *Driver) Page() browser.Page { return d.page }

// Execute runs a single step.
func (d *Driver) Execute(step flow.Step) *core.CommandResult {
	start := time.Now()
	result := d.executeStep(step)
	result.Duration = time.Since(start)
	if !result.Success {
		logger.WithFields(logger.Fields{
			"step":     string(step.Type()),
			"category": core.CategoryOf(result.Error).String(),
		}).Warn(result.Message)
	}
	return result
}

// Screenshot captures the page as PNG.
func (d *Driver) Screenshot() ([]byte, error) {
	return d.page.Screenshot()
}

// Hierarchy returns the page's serialized DOM.
func (d *Driver) Hierarchy() ([]byte, error) {
	html, err := d.page.Content()
	if err != nil {
		return nil, err
	}
	return []byte(html), nil
}

// GetPlatformInfo returns browser information.
func (d *Driver) GetPlatformInfo() *core.PlatformInfo {
	info := d.info
	if size, err := d.page.ViewportSize(); err == nil {
		info.ViewportWidth, info.ViewportHeight = size.Width, size.Height
	}
	return &info
}

// resolve turns an element reference into a descriptor: inline selectors are
// normalized directly, Screen.element references go through the registry.
func (d *Driver) resolve(ref *flow.ElementRef) (locator.Descriptor, error) {
	if err := ref.Validate(); err != nil {
		return locator.Descriptor{}, core.ErrInvalidDescriptor.WithMessage(err.Error())
	}
	switch {
	case ref.CSS != "":
		return locator.Inline(ref.CSS, locator.SelectorCSS, ref.Iframe), nil
	case ref.XPath != "":
		return locator.Inline(ref.XPath, locator.SelectorXPath, ref.Iframe), nil
	}
	if d.resolver == nil {
		return locator.Descriptor{}, core.ErrStoreUnavailable.
			WithMessage(fmt.Sprintf("no locator store configured for %s", ref.Key()))
	}
	return d.resolver.Resolve(ref.Screen, ref.Element)
}

// absoluteURL resolves a relative URL against the base URL the way a
// browser resolves a link.
func (d *Driver) absoluteURL(raw string) (string, error) {
	if d.baseURL == "" {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.IsAbs() {
		return raw, nil
	}
	base, err := url.Parse(d.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", d.baseURL, err)
	}
	return base.ResolveReference(u).String(), nil
}

// callOpts converts a step's timeout override into an engine call option.
func callOpts(step flow.Step) []engine.CallOption {
	if ms := step.Timeout(); ms > 0 {
		return []engine.CallOption{engine.Timeout(time.Duration(ms) * time.Millisecond)}
	}
	return nil
}

func elementInfo(ref *flow.ElementRef, desc locator.Descriptor) *core.ElementInfo {
	return &core.ElementInfo{
		Screen:   ref.Screen,
		Name:     ref.Element,
		Selector: desc.Selector,
		Type:     string(desc.Type),
		Iframe:   desc.Scope.IframeSelector,
	}
}

func successResult(msg string, elem *core.ElementInfo) *core.CommandResult {
	return &core.CommandResult{
		Success: true,
		Message: msg,
		Element: elem,
	}
}

func errorResult(err error, msg string) *core.CommandResult {
	if msg == "" && err != nil {
		msg = err.Error()
	}
	return &core.CommandResult{
		Success: false,
		Error:   err,
		Message: msg,
	}
}
