// Package fake is an in-memory browser.Page over static HTML.
//
// Selectors are matched with cascadia through goquery. Iframes are
// <iframe srcdoc="..."> elements whose srcdoc is parsed as a nested document;
// an iframe carrying data-unloaded has no content document. Layout comes from
// data-box="x,y,width,height" attributes and computed style from inline
// style attributes. Interactions mutate the DOM and are recorded in Events.
package fake

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/devicelab-dev/webflow-runner/pkg/browser"
	"github.com/devicelab-dev/webflow-runner/pkg/core"
	"golang.org/x/net/html"
)

// pngHeader is returned by Screenshot.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Page is a fake browser tab.
type Page struct {
	mu       sync.Mutex
	routes   map[string]string
	url      string
	doc      *document
	frames   map[*html.Node]*document
	focused  *html.Node
	viewport browser.Size
	scrollY  int
	events   []string
	mouse    *Mouse
}

var _ browser.Page = (*Page)(nil)

// NewPage returns a page showing content at about:blank.
func NewPage(content string) (*Page, error) {
	p := &Page{
		routes:   map[string]string{},
		url:      "about:blank",
		frames:   map[*html.Node]*document{},
		viewport: browser.Size{Width: 1280, Height: 720},
	}
	p.mouse = &Mouse{page: p}
	if err := p.SetContent(content); err != nil {
		return nil, err
	}
	return p, nil
}

// MustPage is NewPage for tests; it panics on malformed input.
func MustPage(content string) *Page {
	p, err := NewPage(content)
	if err != nil {
		panic(err)
	}
	return p
}

// Route registers the HTML served for url by Goto.
func (p *Page) Route(url, content string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routes[url] = content
}

// SetContent replaces the page's document.
func (p *Page) SetContent(content string) error {
	doc, err := parseDocument(p, content)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.doc = doc
	p.frames = map[*html.Node]*document{}
	p.focused = nil
	p.scrollY = 0
	return nil
}

// SetViewport changes the viewport size.
func (p *Page) SetViewport(width, height int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewport = browser.Size{Width: width, Height: height}
}

// Events returns the recorded interactions in order.
func (p *Page) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

// ScrollY returns the vertical scroll offset.
func (p *Page) ScrollY() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scrollY
}

func (p *Page) record(format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, fmt.Sprintf(format, args...))
}

func (p *Page) current() *document {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc
}

// QuerySelector implements browser.Document on the top-level document.
func (p *Page) QuerySelector(selector string) (browser.Element, error) {
	return p.current().QuerySelector(selector)
}

// QuerySelectorAll implements browser.Document on the top-level document.
func (p *Page) QuerySelectorAll(selector string) ([]browser.Element, error) {
	return p.current().QuerySelectorAll(selector)
}

// WaitForSelector implements browser.Document on the top-level document.
func (p *Page) WaitForSelector(selector string, state browser.WaitState, timeout time.Duration) (browser.Element, error) {
	return p.current().WaitForSelector(selector, state, timeout)
}

// Goto loads the routed HTML for url. Unrouted URLs keep the current document.
func (p *Page) Goto(url string, timeout time.Duration) error {
	p.mu.Lock()
	content, ok := p.routes[url]
	p.mu.Unlock()

	if ok {
		if err := p.SetContent(content); err != nil {
			return err
		}
	}
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
	p.record("navigate %s", url)
	return nil
}

// URL returns the current URL.
func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// Title returns the text of <title>.
func (p *Page) Title() (string, error) {
	return strings.TrimSpace(p.current().root.Find("title").First().Text()), nil
}

// Mouse returns the page's pointer.
func (p *Page) Mouse() browser.Mouse { return p.mouse }

// ScrollBy scrolls the window. Only the vertical offset is tracked.
func (p *Page) ScrollBy(dx, dy int) error {
	p.mu.Lock()
	p.scrollY += dy
	if p.scrollY < 0 {
		p.scrollY = 0
	}
	p.mu.Unlock()
	p.record("scroll %d,%d", dx, dy)
	return nil
}

// ScrollToTop scrolls to the top of the document.
func (p *Page) ScrollToTop() error {
	p.mu.Lock()
	p.scrollY = 0
	p.mu.Unlock()
	p.record("scroll top")
	return nil
}

// ScrollToBottom scrolls to the body's data-height.
func (p *Page) ScrollToBottom() error {
	h, _ := p.current().root.Find("body").Attr("data-height")
	n, _ := strconv.Atoi(h)
	p.mu.Lock()
	p.scrollY = n
	p.mu.Unlock()
	p.record("scroll bottom")
	return nil
}

// BlurActive clears focus.
func (p *Page) BlurActive() error {
	p.mu.Lock()
	p.focused = nil
	p.mu.Unlock()
	p.record("blur")
	return nil
}

// ActiveElementTag returns the focused element's tag, or body.
func (p *Page) ActiveElementTag() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.focused == nil {
		return "body", nil
	}
	return p.focused.Data, nil
}

// ViewportSize returns the viewport size.
func (p *Page) ViewportSize() (browser.Size, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewport, nil
}

// Screenshot returns a PNG signature.
func (p *Page) Screenshot() ([]byte, error) {
	return append([]byte(nil), pngHeader...), nil
}

// Content returns the serialized document.
func (p *Page) Content() (string, error) {
	return p.current().root.Html()
}

func (p *Page) setFocus(n *html.Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.focused = n
}

func (p *Page) isFocused(n *html.Node) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.focused == n
}

// frame returns the parsed srcdoc of an iframe node, parsing it once.
func (p *Page) frame(n *html.Node, srcdoc string) (*document, error) {
	p.mu.Lock()
	doc, ok := p.frames[n]
	p.mu.Unlock()
	if ok {
		return doc, nil
	}

	doc, err := parseDocument(p, srcdoc)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.frames[n] = doc
	p.mu.Unlock()
	return doc, nil
}

// Mouse records pointer primitives as page events.
type Mouse struct {
	page *Page
}

// Move records a pointer move.
func (m *Mouse) Move(x, y float64) error {
	m.page.record("mouse move %g,%g", x, y)
	return nil
}

// Down records a button press.
func (m *Mouse) Down() error {
	m.page.record("mouse down")
	return nil
}

// Up records a button release.
func (m *Mouse) Up() error {
	m.page.record("mouse up")
	return nil
}

// document is one parsed HTML document: the page's own or an iframe's.
type document struct {
	page *Page
	root *goquery.Document
}

func parseDocument(p *Page, content string) (*document, error) {
	root, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &document{page: p, root: root}, nil
}

// match evaluates a selector in the engine's query syntax.
func (d *document) match(selector string) (*goquery.Selection, error) {
	switch {
	case strings.HasPrefix(selector, "xpath="):
		return nil, fmt.Errorf("xpath selectors are not supported: %s", selector)
	case strings.HasPrefix(selector, "text="):
		want := strings.ToLower(strings.Trim(strings.TrimPrefix(selector, "text="), `"`))
		contains := func(_ int, s *goquery.Selection) bool {
			return strings.Contains(strings.ToLower(strings.TrimSpace(s.Text())), want)
		}
		return d.root.Find("body *").FilterFunction(func(i int, s *goquery.Selection) bool {
			return contains(i, s) && s.Children().FilterFunction(contains).Length() == 0
		}), nil
	default:
		m, err := cascadia.Compile(selector)
		if err != nil {
			return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
		}
		return d.root.FindMatcher(m), nil
	}
}

func (d *document) QuerySelector(selector string) (browser.Element, error) {
	sel, err := d.match(selector)
	if err != nil {
		return nil, err
	}
	if sel.Length() == 0 {
		return nil, nil
	}
	return &Element{doc: d, s: sel.First()}, nil
}

func (d *document) QuerySelectorAll(selector string) ([]browser.Element, error) {
	sel, err := d.match(selector)
	if err != nil {
		return nil, err
	}
	elements := make([]browser.Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, &Element{doc: d, s: s})
	})
	return elements, nil
}

// WaitForSelector checks the condition once. The DOM only changes through
// this package's own calls, so waiting longer could not change the outcome.
func (d *document) WaitForSelector(selector string, state browser.WaitState, timeout time.Duration) (browser.Element, error) {
	sel, err := d.match(selector)
	if err != nil {
		return nil, err
	}

	// Only the first match counts, as in a real browser: a visible duplicate
	// further down does not satisfy a wait on a hidden first match.
	var found *Element
	if sel.Length() > 0 {
		found = &Element{doc: d, s: sel.First()}
	}

	switch state {
	case browser.StateHidden:
		if found == nil || !found.visible() {
			return found, nil
		}
	case browser.StateVisible:
		if found != nil && found.visible() {
			return found, nil
		}
	default:
		if found != nil {
			return found, nil
		}
	}
	return nil, core.ErrWaitTimeout.WithMessage(
		fmt.Sprintf("Timeout %dms exceeded waiting for %q to be %s", timeout.Milliseconds(), selector, state))
}
