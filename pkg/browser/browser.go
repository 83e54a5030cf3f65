// Package browser defines what the engine needs from a browser page.
//
// The engine never talks to a browser library directly. The playwright
// package adapts playwright-go to these interfaces; the fake package serves
// static HTML for tests.
package browser

import (
	"time"
)

// WaitState is the condition WaitForSelector waits for.
type WaitState string

// Wait states.
const (
	StateAttached WaitState = "attached" // present in the DOM
	StateVisible  WaitState = "visible"  // present and rendered
	StateHidden   WaitState = "hidden"   // absent or not rendered
)

// MouseButton identifies a pointer button.
type MouseButton string

// Mouse buttons.
const (
	ButtonLeft   MouseButton = "left"
	ButtonRight  MouseButton = "right"
	ButtonMiddle MouseButton = "middle"
)

// ClickOptions configures Element.Click. Zero values mean a single left click.
type ClickOptions struct {
	Button     MouseButton
	ClickCount int
}

// Rect is an element's bounding box in CSS pixels relative to the viewport.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the center point of the box.
func (r Rect) Center() (x, y float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Within reports whether the box lies entirely inside a viewport of the given size.
func (r Rect) Within(size Size) bool {
	return r.X >= 0 && r.Y >= 0 &&
		r.X+r.Width <= float64(size.Width) &&
		r.Y+r.Height <= float64(size.Height)
}

// Size is a viewport size in CSS pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Option is one <option> of a <select>.
type Option struct {
	Value    string
	Text     string
	Disabled bool
}

// Document is a context selectors are evaluated in: the page's main document
// or an iframe's content document.
type Document interface {
	// QuerySelector returns the first match, or nil when nothing matches.
	QuerySelector(selector string) (Element, error)
	QuerySelectorAll(selector string) ([]Element, error)
	// WaitForSelector waits until selector reaches state. For StateHidden the
	// returned element may be nil.
	WaitForSelector(selector string, state WaitState, timeout time.Duration) (Element, error)
}

// Element is a handle to one DOM element.
type Element interface {
	// ContentDocument returns the document of an iframe element, or nil when
	// it has none.
	ContentDocument() (Document, error)

	Fill(value string) error
	Click(opts ClickOptions) error
	SetChecked(checked bool) error
	Hover() error
	Focus() error
	SelectOption(value string) error
	ScrollIntoView() error

	TextContent() (string, error)
	InnerText() (string, error)
	InnerHTML() (string, error)
	InputValue() (string, error)
	// Attribute returns ok=false when the attribute is absent.
	Attribute(name string) (value string, ok bool, err error)
	// Property reads a DOM property such as tagName or offsetWidth.
	Property(name string) (interface{}, error)
	ComputedStyle(property string) (string, error)
	// HasAncestor reports whether a strict ancestor matches selector.
	HasAncestor(selector string) (bool, error)
	Options() ([]Option, error)

	IsVisible() (bool, error)
	IsEnabled() (bool, error)
	IsChecked() (bool, error)
	IsFocused() (bool, error)
	// BoundingBox returns nil when the element is not rendered.
	BoundingBox() (*Rect, error)
}

// Mouse exposes pointer primitives in viewport coordinates.
type Mouse interface {
	Move(x, y float64) error
	Down() error
	Up() error
}

// Page is a browser tab. Its embedded Document is the top-level document.
type Page interface {
	Document

	Goto(url string, timeout time.Duration) error
	URL() string
	Title() (string, error)
	Mouse() Mouse

	ScrollBy(dx, dy int) error
	ScrollToTop() error
	ScrollToBottom() error
	// BlurActive removes focus from the active element.
	BlurActive() error
	// ActiveElementTag returns the lower-case tag name of the focused element.
	ActiveElementTag() (string, error)
	ViewportSize() (Size, error)

	Screenshot() ([]byte, error)
	Content() (string, error)
}
