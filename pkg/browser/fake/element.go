package fake

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/devicelab-dev/webflow-runner/pkg/browser"
	"golang.org/x/net/html"
)

var (
	errNotVisible  = errors.New("element is not visible")
	errNotEditable = errors.New("element is not editable")
	errNotCheckbox = errors.New("not a checkbox or radio button")
	errNotSelect   = errors.New("element is not a <select> element")
	errNotInput    = errors.New("node is not an <input>, <textarea> or <select> element")
)

// focusableTags are focusable without a tabindex.
var focusableTags = map[string]bool{"a": true, "button": true, "input": true, "select": true, "textarea": true}

// blockTags default to display:block.
var blockTags = map[string]bool{
	"div": true, "p": true, "form": true, "ul": true, "ol": true, "li": true, "section": true,
	"header": true, "footer": true, "main": true, "nav": true, "h1": true, "h2": true, "h3": true,
	"table": true, "body": true, "html": true,
}

// Element is a fake element handle.
type Element struct {
	doc *document
	s   *goquery.Selection
}

var _ browser.Element = (*Element)(nil)

func (e *Element) node() *html.Node { return e.s.Nodes[0] }

func (e *Element) tag() string { return e.node().Data }

func (e *Element) attr(name string) (string, bool) { return e.s.Attr(name) }

func (e *Element) hasAttr(name string) bool {
	_, ok := e.s.Attr(name)
	return ok
}

// String describes the element for event logs: tag#id or tag[name=x].
func (e *Element) String() string {
	if id, ok := e.attr("id"); ok && id != "" {
		return e.tag() + "#" + id
	}
	if name, ok := e.attr("name"); ok && name != "" {
		return e.tag() + "[name=" + name + "]"
	}
	return e.tag()
}

func (e *Element) inputType() string {
	t, _ := e.attr("type")
	return strings.ToLower(t)
}

func (e *Element) isToggle() bool {
	return e.tag() == "input" && (e.inputType() == "checkbox" || e.inputType() == "radio")
}

// style parses the inline style attribute.
func style(s *goquery.Selection) map[string]string {
	out := map[string]string{}
	raw, _ := s.Attr("style")
	for _, decl := range strings.Split(raw, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out
}

func (e *Element) visible() bool {
	switch e.tag() {
	case "head", "script", "style", "title", "meta", "template":
		return false
	}
	if e.tag() == "input" && e.inputType() == "hidden" {
		return false
	}
	for s := e.s; s.Length() > 0 && s.Nodes[0].Type == html.ElementNode; s = s.Parent() {
		if _, hidden := s.Attr("hidden"); hidden {
			return false
		}
		st := style(s)
		if st["display"] == "none" || st["visibility"] == "hidden" {
			return false
		}
	}
	return true
}

func (e *Element) box() (*browser.Rect, bool) {
	raw, ok := e.attr("data-box")
	if !ok {
		return nil, false
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, false
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, false
		}
		v[i] = f
	}
	return &browser.Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, true
}

func (e *Element) requireVisible() error {
	if !e.visible() {
		return errNotVisible
	}
	return nil
}

func (e *Element) requireEditable() error {
	if err := e.requireVisible(); err != nil {
		return err
	}
	if e.hasAttr("disabled") || e.hasAttr("readonly") {
		return errNotEditable
	}
	return nil
}

// ContentDocument returns the srcdoc document of an iframe.
func (e *Element) ContentDocument() (browser.Document, error) {
	if e.tag() != "iframe" && e.tag() != "frame" {
		return nil, nil
	}
	if e.hasAttr("data-unloaded") {
		return nil, nil
	}
	srcdoc, _ := e.attr("srcdoc")
	doc, err := e.doc.page.frame(e.node(), srcdoc)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Fill sets the value of an input or textarea.
func (e *Element) Fill(value string) error {
	if err := e.requireEditable(); err != nil {
		return err
	}
	switch {
	case e.tag() == "textarea":
		e.s.SetText(value)
	case e.tag() == "input" && !e.isToggle():
		e.s.SetAttr("value", value)
	case e.hasAttr("contenteditable"):
		e.s.SetText(value)
	default:
		return errNotEditable
	}
	e.doc.page.record("fill %s %s", e, value)
	return nil
}

// Click records the click. Checkboxes toggle and elements with data-href
// navigate.
func (e *Element) Click(opts browser.ClickOptions) error {
	if err := e.requireVisible(); err != nil {
		return err
	}
	if e.hasAttr("disabled") {
		return errNotEditable
	}

	name := "click"
	switch {
	case opts.Button == browser.ButtonRight:
		name = "rightclick"
	case opts.ClickCount == 2:
		name = "dblclick"
	}
	e.doc.page.record("%s %s", name, e)

	if name == "click" && e.isToggle() {
		checked, _ := e.IsChecked()
		e.setChecked(!checked || e.inputType() == "radio")
	}
	if href, ok := e.attr("data-href"); ok && name == "click" {
		return e.doc.page.Goto(href, 0)
	}
	return nil
}

// SetChecked checks or unchecks a checkbox or radio button.
func (e *Element) SetChecked(checked bool) error {
	if !e.isToggle() {
		return errNotCheckbox
	}
	if err := e.requireEditable(); err != nil {
		return err
	}
	if !checked && e.inputType() == "radio" {
		return errors.New("cannot uncheck a radio button")
	}
	e.setChecked(checked)
	if checked {
		e.doc.page.record("check %s", e)
	} else {
		e.doc.page.record("uncheck %s", e)
	}
	return nil
}

func (e *Element) setChecked(checked bool) {
	if !checked {
		e.s.RemoveAttr("checked")
		return
	}
	if e.inputType() == "radio" {
		if name, ok := e.attr("name"); ok {
			e.doc.root.Find(`input[type="radio"]`).Each(func(_ int, s *goquery.Selection) {
				if n, _ := s.Attr("name"); n == name {
					s.RemoveAttr("checked")
				}
			})
		}
	}
	e.s.SetAttr("checked", "")
}

// Hover records a hover.
func (e *Element) Hover() error {
	if err := e.requireVisible(); err != nil {
		return err
	}
	e.doc.page.record("hover %s", e)
	return nil
}

// Focus moves focus to the element.
func (e *Element) Focus() error {
	e.doc.page.setFocus(e.node())
	e.doc.page.record("focus %s", e)
	return nil
}

// SelectOption selects the option whose value or text equals value.
func (e *Element) SelectOption(value string) error {
	if e.tag() != "select" {
		return errNotSelect
	}
	if err := e.requireEditable(); err != nil {
		return err
	}

	var match *goquery.Selection
	e.s.Find("option").EachWithBreak(func(_ int, o *goquery.Selection) bool {
		v, ok := o.Attr("value")
		if !ok {
			v = strings.TrimSpace(o.Text())
		}
		if v == value || strings.TrimSpace(o.Text()) == value {
			match = o
			return false
		}
		return true
	})
	if match == nil {
		return fmt.Errorf("no option with value or label %q", value)
	}
	if _, disabled := match.Attr("disabled"); disabled {
		return fmt.Errorf("option %q is disabled", value)
	}

	e.s.Find("option").RemoveAttr("selected")
	match.SetAttr("selected", "")
	e.doc.page.record("select %s %s", e, value)
	return nil
}

// ScrollIntoView records the scroll.
func (e *Element) ScrollIntoView() error {
	if err := e.requireVisible(); err != nil {
		return err
	}
	e.doc.page.record("scroll-into-view %s", e)
	return nil
}

// TextContent returns all descendant text.
func (e *Element) TextContent() (string, error) {
	return e.s.Text(), nil
}

// InnerText returns descendant text, trimmed.
func (e *Element) InnerText() (string, error) {
	return strings.TrimSpace(e.s.Text()), nil
}

// InnerHTML returns the serialized children.
func (e *Element) InnerHTML() (string, error) {
	return e.s.Html()
}

// InputValue returns the value of an input, textarea or select.
func (e *Element) InputValue() (string, error) {
	switch e.tag() {
	case "input":
		v, _ := e.attr("value")
		return v, nil
	case "textarea":
		return e.s.Text(), nil
	case "select":
		opts, _ := e.Options()
		selected := e.s.Find("option[selected]").First()
		if selected.Length() > 0 {
			if v, ok := selected.Attr("value"); ok {
				return v, nil
			}
			return strings.TrimSpace(selected.Text()), nil
		}
		if len(opts) > 0 {
			return opts[0].Value, nil
		}
		return "", nil
	default:
		return "", errNotInput
	}
}

// Attribute returns an attribute value.
func (e *Element) Attribute(name string) (string, bool, error) {
	v, ok := e.attr(name)
	return v, ok, nil
}

// Property reads the DOM properties the engine uses. Unknown names fall back
// to the attribute of the same name, or nil.
func (e *Element) Property(name string) (interface{}, error) {
	switch name {
	case "tagName":
		return strings.ToUpper(e.tag()), nil
	case "childElementCount":
		return e.s.Children().Length(), nil
	case "tabIndex":
		if v, ok := e.attr("tabindex"); ok {
			n, err := strconv.Atoi(v)
			if err == nil {
				return n, nil
			}
		}
		if focusableTags[e.tag()] {
			return 0, nil
		}
		return -1, nil
	case "offsetWidth", "offsetHeight":
		r, ok := e.box()
		if !ok || !e.visible() {
			return 0, nil
		}
		if name == "offsetWidth" {
			return int(r.Width), nil
		}
		return int(r.Height), nil
	case "value":
		return e.InputValue()
	case "checked":
		return e.hasAttr("checked"), nil
	case "disabled":
		return e.hasAttr("disabled"), nil
	case "className":
		v, _ := e.attr("class")
		return v, nil
	case "textContent":
		return e.TextContent()
	case "innerText":
		return e.InnerText()
	case "innerHTML":
		return e.InnerHTML()
	}
	if v, ok := e.attr(name); ok {
		return v, nil
	}
	return nil, nil
}

// ComputedStyle returns an inline style value. display falls back to the
// tag's default.
func (e *Element) ComputedStyle(property string) (string, error) {
	property = strings.ToLower(property)
	if v, ok := style(e.s)[property]; ok {
		return v, nil
	}
	if property == "display" {
		if blockTags[e.tag()] {
			return "block", nil
		}
		return "inline", nil
	}
	return "", nil
}

// HasAncestor reports whether a strict ancestor matches a CSS selector.
func (e *Element) HasAncestor(selector string) (bool, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return false, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return e.s.ParentsMatcher(m).Length() > 0, nil
}

// Options lists the <option> children of a select.
func (e *Element) Options() ([]browser.Option, error) {
	var out []browser.Option
	e.s.Find("option").Each(func(_ int, o *goquery.Selection) {
		text := strings.TrimSpace(o.Text())
		v, ok := o.Attr("value")
		if !ok {
			v = text
		}
		_, disabled := o.Attr("disabled")
		out = append(out, browser.Option{Value: v, Text: text, Disabled: disabled})
	})
	return out, nil
}

// IsVisible reports whether the element is rendered.
func (e *Element) IsVisible() (bool, error) { return e.visible(), nil }

// IsEnabled reports whether the element lacks a disabled attribute.
func (e *Element) IsEnabled() (bool, error) { return !e.hasAttr("disabled"), nil }

// IsChecked reports the checked state of a checkbox or radio button.
func (e *Element) IsChecked() (bool, error) {
	if !e.isToggle() {
		return false, errNotCheckbox
	}
	return e.hasAttr("checked"), nil
}

// IsFocused reports whether the element holds focus.
func (e *Element) IsFocused() (bool, error) {
	return e.doc.page.isFocused(e.node()), nil
}

// BoundingBox returns the data-box of a visible element.
func (e *Element) BoundingBox() (*browser.Rect, error) {
	if !e.visible() {
		return nil, nil
	}
	r, ok := e.box()
	if !ok {
		return nil, nil
	}
	return r, nil
}
