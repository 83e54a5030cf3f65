// Package playwright adapts playwright-go to the browser interfaces.
package playwright

import (
	"errors"
	"fmt"
	"time"

	"github.com/devicelab-dev/webflow-runner/pkg/browser"
	"github.com/devicelab-dev/webflow-runner/pkg/core"
	"github.com/playwright-community/playwright-go"
	"github.com/spf13/cast"
)

// Page-side scripts for reads playwright-go has no method for.
const (
	jsAttribute     = `(el, name) => el.getAttribute(name)`
	jsComputedStyle = `(el, prop) => window.getComputedStyle(el).getPropertyValue(prop)`
	jsHasAncestor   = `(el, sel) => el.parentElement !== null && el.parentElement.closest(sel) !== null`
	jsIsFocused     = `el => el === el.ownerDocument.activeElement`
	jsOptions       = `el => Array.from(el.options || []).map(o => ({value: o.value, text: o.textContent.trim(), disabled: o.disabled}))`
	jsScrollBy      = `([dx, dy]) => window.scrollBy(dx, dy)`
	jsScrollTop     = `() => window.scrollTo(0, 0)`
	jsScrollBottom  = `() => window.scrollTo(0, document.body.scrollHeight)`
	jsBlur          = `() => { if (document.activeElement) document.activeElement.blur() }`
	jsActiveTag     = `() => document.activeElement ? document.activeElement.tagName.toLowerCase() : ""`
)

func ms(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

// convertError maps playwright timeouts onto core.ErrWaitTimeout.
func convertError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return core.ErrWaitTimeout.WithMessage(err.Error()).WithCause(err)
	}
	return err
}

var waitStates = map[browser.WaitState]*playwright.WaitForSelectorState{
	browser.StateAttached: playwright.WaitForSelectorStateAttached,
	browser.StateVisible:  playwright.WaitForSelectorStateVisible,
	browser.StateHidden:   playwright.WaitForSelectorStateHidden,
}

// frameDocument is a browser.Document over a playwright frame.
type frameDocument struct {
	frame playwright.Frame
}

func (d *frameDocument) QuerySelector(selector string) (browser.Element, error) {
	h, err := d.frame.QuerySelector(selector)
	if err != nil {
		return nil, convertError(err)
	}
	if h == nil {
		return nil, nil
	}
	return &element{handle: h}, nil
}

func (d *frameDocument) QuerySelectorAll(selector string) ([]browser.Element, error) {
	handles, err := d.frame.QuerySelectorAll(selector)
	if err != nil {
		return nil, convertError(err)
	}
	out := make([]browser.Element, len(handles))
	for i, h := range handles {
		out[i] = &element{handle: h}
	}
	return out, nil
}

func (d *frameDocument) WaitForSelector(selector string, state browser.WaitState, timeout time.Duration) (browser.Element, error) {
	h, err := d.frame.WaitForSelector(selector, playwright.FrameWaitForSelectorOptions{
		State:   waitStates[state],
		Timeout: ms(timeout),
	})
	if err != nil {
		return nil, convertError(err)
	}
	if h == nil {
		return nil, nil
	}
	return &element{handle: h}, nil
}

// Page adapts a playwright.Page.
type Page struct {
	frameDocument
	page playwright.Page
}

var _ browser.Page = (*Page)(nil)

// NewPage wraps p.
func NewPage(p playwright.Page) *Page {
	return &Page{frameDocument: frameDocument{frame: p.MainFrame()}, page: p}
}

// Raw returns the wrapped page.
func (p *Page) Raw() playwright.Page { return p.page }

func (p *Page) Goto(url string, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   ms(timeout),
		WaitUntil: playwright.WaitUntilStateLoad,
	})
	return convertError(err)
}

func (p *Page) URL() string { return p.page.URL() }

func (p *Page) Title() (string, error) { return p.page.Title() }

func (p *Page) Mouse() browser.Mouse { return &mouse{m: p.page.Mouse()} }

func (p *Page) ScrollBy(dx, dy int) error {
	_, err := p.page.Evaluate(jsScrollBy, []int{dx, dy})
	return err
}

func (p *Page) ScrollToTop() error {
	_, err := p.page.Evaluate(jsScrollTop)
	return err
}

func (p *Page) ScrollToBottom() error {
	_, err := p.page.Evaluate(jsScrollBottom)
	return err
}

func (p *Page) BlurActive() error {
	_, err := p.page.Evaluate(jsBlur)
	return err
}

func (p *Page) ActiveElementTag() (string, error) {
	v, err := p.page.Evaluate(jsActiveTag)
	if err != nil {
		return "", err
	}
	return cast.ToString(v), nil
}

func (p *Page) ViewportSize() (browser.Size, error) {
	if s := p.page.ViewportSize(); s != nil {
		return browser.Size{Width: s.Width, Height: s.Height}, nil
	}
	v, err := p.page.Evaluate(`() => ({width: window.innerWidth, height: window.innerHeight})`)
	if err != nil {
		return browser.Size{}, err
	}
	m := cast.ToStringMap(v)
	return browser.Size{Width: cast.ToInt(m["width"]), Height: cast.ToInt(m["height"])}, nil
}

func (p *Page) Screenshot() ([]byte, error) {
	return p.page.Screenshot(playwright.PageScreenshotOptions{
		Type: playwright.ScreenshotTypePng,
	})
}

func (p *Page) Content() (string, error) { return p.page.Content() }

type mouse struct {
	m playwright.Mouse
}

func (m *mouse) Move(x, y float64) error { return m.m.Move(x, y) }
func (m *mouse) Down() error             { return m.m.Down() }
func (m *mouse) Up() error               { return m.m.Up() }

// element adapts a playwright.ElementHandle.
type element struct {
	handle playwright.ElementHandle
}

func (e *element) ContentDocument() (browser.Document, error) {
	f, err := e.handle.ContentFrame()
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, nil
	}
	return &frameDocument{frame: f}, nil
}

func (e *element) Fill(value string) error {
	return convertError(e.handle.Fill(value))
}

func (e *element) Click(opts browser.ClickOptions) error {
	var button *playwright.MouseButton
	switch opts.Button {
	case browser.ButtonRight:
		button = playwright.MouseButtonRight
	case browser.ButtonMiddle:
		button = playwright.MouseButtonMiddle
	}
	if opts.ClickCount == 2 {
		return convertError(e.handle.Dblclick(playwright.ElementHandleDblclickOptions{Button: button}))
	}
	return convertError(e.handle.Click(playwright.ElementHandleClickOptions{Button: button}))
}

func (e *element) SetChecked(checked bool) error {
	if checked {
		return convertError(e.handle.Check())
	}
	return convertError(e.handle.Uncheck())
}

func (e *element) Hover() error { return convertError(e.handle.Hover()) }

func (e *element) Focus() error { return e.handle.Focus() }

// optionMatching matches one option by value or by visible label. Passing
// Values and Labels separately would require both to match on <select multiple>.
func optionMatching(value string) playwright.SelectOptionValues {
	return playwright.SelectOptionValues{ValuesOrLabels: &[]string{value}}
}

func (e *element) SelectOption(value string) error {
	selected, err := e.handle.SelectOption(optionMatching(value))
	if err != nil {
		return convertError(err)
	}
	if len(selected) == 0 {
		return fmt.Errorf("no option with value or label %q", value)
	}
	return nil
}

func (e *element) ScrollIntoView() error {
	return convertError(e.handle.ScrollIntoViewIfNeeded())
}

func (e *element) TextContent() (string, error) { return e.handle.TextContent() }

func (e *element) InnerText() (string, error) { return e.handle.InnerText() }

func (e *element) InnerHTML() (string, error) { return e.handle.InnerHTML() }

func (e *element) InputValue() (string, error) { return e.handle.InputValue() }

func (e *element) Attribute(name string) (string, bool, error) {
	v, err := e.handle.Evaluate(jsAttribute, name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return cast.ToString(v), true, nil
}

func (e *element) Property(name string) (interface{}, error) {
	h, err := e.handle.GetProperty(name)
	if err != nil {
		return nil, err
	}
	defer h.Dispose()
	return h.JSONValue()
}

func (e *element) ComputedStyle(property string) (string, error) {
	v, err := e.handle.Evaluate(jsComputedStyle, property)
	if err != nil {
		return "", err
	}
	return cast.ToString(v), nil
}

func (e *element) HasAncestor(selector string) (bool, error) {
	v, err := e.handle.Evaluate(jsHasAncestor, selector)
	if err != nil {
		return false, err
	}
	return cast.ToBool(v), nil
}

func (e *element) Options() ([]browser.Option, error) {
	v, err := e.handle.Evaluate(jsOptions)
	if err != nil {
		return nil, err
	}
	items := cast.ToSlice(v)
	out := make([]browser.Option, 0, len(items))
	for _, item := range items {
		m := cast.ToStringMap(item)
		out = append(out, browser.Option{
			Value:    cast.ToString(m["value"]),
			Text:     cast.ToString(m["text"]),
			Disabled: cast.ToBool(m["disabled"]),
		})
	}
	return out, nil
}

func (e *element) IsVisible() (bool, error) { return e.handle.IsVisible() }

func (e *element) IsEnabled() (bool, error) { return e.handle.IsEnabled() }

func (e *element) IsChecked() (bool, error) { return e.handle.IsChecked() }

func (e *element) IsFocused() (bool, error) {
	v, err := e.handle.Evaluate(jsIsFocused)
	if err != nil {
		return false, err
	}
	return cast.ToBool(v), nil
}

func (e *element) BoundingBox() (*browser.Rect, error) {
	r, err := e.handle.BoundingBox()
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, nil
	}
	return &browser.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}, nil
}
