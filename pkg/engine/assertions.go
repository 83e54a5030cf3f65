package engine

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/devicelab-dev/webflow-runner/pkg/browser"
	"github.com/devicelab-dev/webflow-runner/pkg/core"
	"github.com/devicelab-dev/webflow-runner/pkg/locator"
	"github.com/spf13/cast"
)

// check builds an op that waits for d to be attached and then calls do.
func check(name string, d locator.Descriptor, do func(el browser.Element) error) op {
	return op{
		name:   name,
		kind:   assertionOp,
		target: d,
		wait:   browser.StateAttached,
		perform: func(_ browser.Document, el browser.Element) error {
			return do(el)
		},
	}
}

// checkString compares one string read from the element.
func checkString(name string, d locator.Descriptor, read func(el browser.Element) (string, error), cmp func(actual string) error) op {
	return check(name, d, func(el browser.Element) error {
		actual, err := read(el)
		if err != nil {
			return err
		}
		return cmp(actual)
	})
}

func equals(expected string) func(string) error {
	return func(actual string) error {
		if actual != expected {
			return mismatch(expected, actual)
		}
		return nil
	}
}

func contains(expected string) func(string) error {
	return func(actual string) error {
		if !strings.Contains(actual, expected) {
			return mismatch("contains "+expected, actual)
		}
		return nil
	}
}

func matches(pattern string) func(string) error {
	return func(actual string) error {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if !re.MatchString(actual) {
			return mismatch("matches "+pattern, actual)
		}
		return nil
	}
}

// --- Visibility ---

// AssertVisible waits for the element to be visible.
func (e *Engine) AssertVisible(page browser.Page, d locator.Descriptor, opts ...CallOption) error {
	o := check("assertVisible", d, func(browser.Element) error { return nil })
	o.wait = browser.StateVisible
	return e.run(page, o, opts)
}

// AssertHidden succeeds when the element is not rendered or does not exist,
// including when its iframe does not exist.
func (e *Engine) AssertHidden(page browser.Page, d locator.Descriptor, opts ...CallOption) error {
	return e.run(page, op{
		name:   "assertHidden",
		kind:   assertionOp,
		target: d,
		absent: true,
		perform: func(doc browser.Document, _ browser.Element) error {
			el, err := first(doc, d)
			if errors.Is(err, core.ErrNoSuchElement) {
				return nil
			}
			if err != nil {
				return err
			}
			visible, err := el.IsVisible()
			if err != nil {
				return err
			}
			if visible {
				return failf("%q is visible but should be hidden", d.Selector)
			}
			return nil
		},
	}, opts)
}

// AssertExists waits for the element to be attached.
func (e *Engine) AssertExists(page browser.Page, d locator.Descriptor, opts ...CallOption) error {
	return e.run(page, check("assertExists", d, func(browser.Element) error { return nil }), opts)
}

// --- Text ---

// AssertTextContains checks that the text content contains expected.
func (e *Engine) AssertTextContains(page browser.Page, d locator.Descriptor, expected string, opts ...CallOption) error {
	return e.run(page, checkString("assertTextContains", d, browser.Element.TextContent, contains(expected)), opts)
}

// AssertTextEquals compares the text content with expected, both trimmed.
func (e *Engine) AssertTextEquals(page browser.Page, d locator.Descriptor, expected string, opts ...CallOption) error {
	trimmed := func(el browser.Element) (string, error) {
		s, err := el.TextContent()
		return strings.TrimSpace(s), err
	}
	return e.run(page, checkString("assertTextEquals", d, trimmed, equals(strings.TrimSpace(expected))), opts)
}

// AssertTextMatches tests the raw text content against a regular expression.
func (e *Engine) AssertTextMatches(page browser.Page, d locator.Descriptor, pattern string, opts ...CallOption) error {
	return e.run(page, checkString("assertTextMatches", d, browser.Element.TextContent, matches(pattern)), opts)
}

// --- Value ---

// AssertValueEquals compares an input's value.
func (e *Engine) AssertValueEquals(page browser.Page, d locator.Descriptor, expected string, opts ...CallOption) error {
	return e.run(page, checkString("assertValueEquals", d, browser.Element.InputValue, equals(expected)), opts)
}

// AssertValueContains checks that an input's value contains expected.
func (e *Engine) AssertValueContains(page browser.Page, d locator.Descriptor, expected string, opts ...CallOption) error {
	return e.run(page, checkString("assertValueContains", d, browser.Element.InputValue, contains(expected)), opts)
}

// AssertValueEmpty checks that an input is empty.
func (e *Engine) AssertValueEmpty(page browser.Page, d locator.Descriptor, opts ...CallOption) error {
	return e.run(page, checkString("assertValueEmpty", d, browser.Element.InputValue, func(actual string) error {
		if actual != "" {
			return failf("%q should be empty but contains %q", d.Selector, actual)
		}
		return nil
	}), opts)
}

// AssertValueNotEmpty checks that an input has a value.
func (e *Engine) AssertValueNotEmpty(page browser.Page, d locator.Descriptor, opts ...CallOption) error {
	return e.run(page, checkString("assertValueNotEmpty", d, browser.Element.InputValue, func(actual string) error {
		if actual == "" {
			return failf("%q should not be empty but is empty", d.Selector)
		}
		return nil
	}), opts)
}

// AssertSelectValue compares a select's selected value.
func (e *Engine) AssertSelectValue(page browser.Page, d locator.Descriptor, expected string, opts ...CallOption) error {
	return e.run(page, checkString("assertSelectValue", d, browser.Element.InputValue, equals(expected)), opts)
}

// --- Attribute ---

func attribute(name string) func(el browser.Element) (string, error) {
	return func(el browser.Element) (string, error) {
		v, _, err := el.Attribute(name)
		return v, err
	}
}

// AssertAttributeEquals compares an attribute value. A missing attribute
// reads as empty.
func (e *Engine) AssertAttributeEquals(page browser.Page, d locator.Descriptor, name, expected string, opts ...CallOption) error {
	return e.run(page, checkString("assertAttributeEquals", d, attribute(name), equals(expected)), opts)
}

// AssertAttributeContains checks that an attribute value contains expected.
func (e *Engine) AssertAttributeContains(page browser.Page, d locator.Descriptor, name, expected string, opts ...CallOption) error {
	return e.run(page, check("assertAttributeContains", d, func(el browser.Element) error {
		v, ok, err := el.Attribute(name)
		if err != nil {
			return err
		}
		if !ok {
			return failf("%q has no attribute %q", d.Selector, name)
		}
		return contains(expected)(v)
	}), opts)
}

// AssertDataAttribute compares data-<name>.
func (e *Engine) AssertDataAttribute(page browser.Page, d locator.Descriptor, name, expected string, opts ...CallOption) error {
	return e.run(page, checkString("assertDataAttribute", d, attribute("data-"+name), equals(expected)), opts)
}

func hasClass(el browser.Element, class string) (bool, string, error) {
	v, _, err := el.Attribute("class")
	if err != nil {
		return false, "", err
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true, v, nil
		}
	}
	return false, v, nil
}

// AssertHasClass checks that the class list contains class.
func (e *Engine) AssertHasClass(page browser.Page, d locator.Descriptor, class string, opts ...CallOption) error {
	return e.run(page, check("assertHasClass", d, func(el browser.Element) error {
		ok, classes, err := hasClass(el, class)
		if err != nil {
			return err
		}
		if !ok {
			return failf("class %q not found on %q (classes %q)", class, d.Selector, classes)
		}
		return nil
	}), opts)
}

// AssertNotHasClass checks that the class list lacks class. An element that
// does not exist has no classes.
func (e *Engine) AssertNotHasClass(page browser.Page, d locator.Descriptor, class string, opts ...CallOption) error {
	return e.run(page, op{
		name:   "assertNotHasClass",
		kind:   assertionOp,
		target: d,
		absent: true,
		perform: func(doc browser.Document, _ browser.Element) error {
			el, err := first(doc, d)
			if errors.Is(err, core.ErrNoSuchElement) {
				return nil
			}
			if err != nil {
				return err
			}
			ok, classes, err := hasClass(el, class)
			if err != nil {
				return err
			}
			if ok {
				return failf("class %q should not be present on %q but found in %q", class, d.Selector, classes)
			}
			return nil
		},
	}, opts)
}

// --- Checked / Enabled / Focus ---

// state builds a boolean check with a "should be X but is Y" message.
func state(name string, d locator.Descriptor, read func(browser.Element) (bool, error), want bool, yes, no string) op {
	return check(name, d, func(el browser.Element) error {
		got, err := read(el)
		if err != nil {
			return err
		}
		if got != want {
			label := func(b bool) string {
				if b {
					return yes
				}
				return no
			}
			return failf("%q should be %s but is %s", d.Selector, label(want), label(got))
		}
		return nil
	})
}

// AssertChecked checks that a checkbox or radio button is checked.
func (e *Engine) AssertChecked(page browser.Page, d locator.Descriptor, opts ...CallOption) error {
	return e.run(page, state("assertChecked", d, browser.Element.IsChecked, true, "checked", "unchecked"), opts)
}

// AssertNotChecked checks that a checkbox or radio button is unchecked.
func (e *Engine) AssertNotChecked(page browser.Page, d locator.Descriptor, opts ...CallOption) error {
	return e.run(page, state("assertNotChecked", d, browser.Element.IsChecked, false, "checked", "unchecked"), opts)
}

// AssertRadioSelected checks that a radio button is selected.
func (e *Engine) AssertRadioSelected(page browser.Page, d locator.Descriptor, opts ...CallOption) error {
	return e.run(page, state("assertRadioSelected", d, browser.Element.IsChecked, true, "selected", "not selected"), opts)
}

// AssertRadioNotSelected checks that a radio button is not selected.
func (e *Engine) AssertRadioNotSelected(page browser.Page, d locator.Descriptor, opts ...CallOption) error {
	return e.run(page, state("assertRadioNotSelected", d, browser.Element.IsChecked, false, "selected", "not selected"), opts)
}

// AssertEnabled checks that the element is enabled.
func (e *Engine) AssertEnabled(page browser.Page, d locator.Descriptor, opts ...CallOption) error {
	return e.run(page, state("assertEnabled", d, browser.Element.IsEnabled, true, "enabled", "disabled"), opts)
}

// AssertDisabled checks that the element is disabled.
func (e *Engine) AssertDisabled(page browser.Page, d locator.Descriptor, opts ...CallOption) error {
	return e.run(page, state("assertDisabled", d, browser.Element.IsEnabled, false, "enabled", "disabled"), opts)
}

// AssertFocused checks that the element holds focus.
func (e *Engine) AssertFocused(page browser.Page, d locator.Descriptor, opts ...CallOption) error {
	return e.run(page, state("assertFocused", d, browser.Element.IsFocused, true, "focused", "not focused"), opts)
}

// AssertNotFocused checks that the element does not hold focus.
func (e *Engine) AssertNotFocused(page browser.Page, d locator.Descriptor, opts ...CallOption) error {
	return e.run(page, state("assertNotFocused", d, browser.Element.IsFocused, false, "focused", "not focused"), opts)
}

// focusableTags are focusable regardless of tabindex.
var focusableTags = map[string]bool{"a": true, "button": true, "input": true, "select": true, "textarea": true}

// AssertFocusable checks that the element is a natively focusable control or
// has a non-negative tabindex.
func (e *Engine) AssertFocusable(page browser.Page, d locator.Descriptor, opts ...CallOption) error {
	return e.run(page, check("assertFocusable", d, func(el browser.Element) error {
		tag, err := el.Property("tagName")
		if err != nil {
			return err
		}
		if focusableTags[strings.ToLower(cast.ToString(tag))] {
			return nil
		}
		idx, err := el.Property("tabIndex")
		if err != nil {
			return err
		}
		if cast.ToInt(idx) < 0 {
			return failf("%q is not focusable", d.Selector)
		}
		return nil
	}), opts)
}

// AssertFocusedType checks the tag name of the focused element.
func (e *Engine) AssertFocusedType(page browser.Page, tag string) error {
	return e.checkPage("assertFocusedType", func() error {
		actual, err := page.ActiveElementTag()
		if err != nil {
			return err
		}
		return equals(strings.ToLower(tag))(strings.ToLower(actual))
	})
}

// --- Count ---

// count builds a check over every match of d. Nothing is waited for and a
// missing iframe counts as zero matches.
func count(name string, d locator.Descriptor, cmp func(n int) error) op {
	return op{
		name:   name,
		kind:   assertionOp,
		target: d,
		absent: true,
		perform: func(doc browser.Document, _ browser.Element) error {
			all, err := doc.QuerySelectorAll(d.Query())
			if err != nil {
				return err
			}
			return cmp(len(all))
		},
	}
}

// AssertCount checks the exact number of matches.
func (e *Engine) AssertCount(page browser.Page, d locator.Descriptor, expected int, opts ...CallOption) error {
	return e.run(page, count("assertCount", d, func(n int) error {
		if n != expected {
			return mismatch(strconv.Itoa(expected), strconv.Itoa(n))
		}
		return nil
	}), opts)
}

// AssertCountAtLeast checks a minimum number of matches.
func (e *Engine) AssertCountAtLeast(page browser.Page, d locator.Descriptor, min int, opts ...CallOption) error {
	return e.run(page, count("assertCountAtLeast", d, func(n int) error {
		if n < min {
			return mismatch(fmt.Sprintf("at least %d", min), strconv.Itoa(n))
		}
		return nil
	}), opts)
}

// AssertCountAtMost checks a maximum number of matches.
func (e *Engine) AssertCountAtMost(page browser.Page, d locator.Descriptor, max int, opts ...CallOption) error {
	return e.run(page, count("assertCountAtMost", d, func(n int) error {
		if n > max {
			return mismatch(fmt.Sprintf("at most %d", max), strconv.Itoa(n))
		}
		return nil
	}), opts)
}

// AssertNoElements checks that nothing matches.
func (e *Engine) AssertNoElements(page browser.Page, d locator.Descriptor, opts ...CallOption) error {
	return e.run(page, count("assertNoElements", d, func(n int) error {
		if n > 0 {
			return failf("expected no elements but found %d for %q", n, d.Selector)
		}
		return nil
	}), opts)
}

// AssertHasElements checks that at least one element matches.
func (e *Engine) AssertHasElements(page browser.Page, d locator.Descriptor, opts ...CallOption) error {
	return e.run(page, count("assertHasElements", d, func(n int) error {
		if n == 0 {
			return failf("expected at least one element for %q but found none", d.Selector)
		}
		return nil
	}), opts)
}

// --- DOM ---

func property(name string) func(el browser.Element) (string, error) {
	return func(el browser.Element) (string, error) {
		v, err := el.Property(name)
		if err != nil {
			return "", err
		}
		return cast.ToString(v), nil
	}
}

// AssertTagName compares the tag name, ignoring case.
func (e *Engine) AssertTagName(page browser.Page, d locator.Descriptor, expected string, opts ...CallOption) error {
	lower := func(el browser.Element) (string, error) {
		s, err := property("tagName")(el)
		return strings.ToLower(s), err
	}
	return e.run(page, checkString("assertTagName", d, lower, equals(strings.ToLower(expected))), opts)
}

// AssertChildCount compares the number of child elements.
func (e *Engine) AssertChildCount(page browser.Page, d locator.Descriptor, expected int, opts ...CallOption) error {
	return e.run(page, checkString("assertChildCount", d, property("childElementCount"), equals(strconv.Itoa(expected))), opts)
}

// AssertParent checks that an ancestor of the element matches parent.
func (e *Engine) AssertParent(page browser.Page, d locator.Descriptor, parent string, opts ...CallOption) error {
	return e.run(page, check("assertParent", d, func(el browser.Element) error {
		ok, err := el.HasAncestor(parent)
		if err != nil {
			return err
		}
		if !ok {
			return failf("%q has no ancestor matching %q", d.Selector, parent)
		}
		return nil
	}), opts)
}

// AssertInnerText compares the trimmed rendered text.
func (e *Engine) AssertInnerText(page browser.Page, d locator.Descriptor, expected string, opts ...CallOption) error {
	trimmed := func(el browser.Element) (string, error) {
		s, err := el.InnerText()
		return strings.TrimSpace(s), err
	}
	return e.run(page, checkString("assertInnerText", d, trimmed, equals(strings.TrimSpace(expected))), opts)
}

// AssertInnerHTMLContains checks that the inner HTML contains expected.
func (e *Engine) AssertInnerHTMLContains(page browser.Page, d locator.Descriptor, expected string, opts ...CallOption) error {
	return e.run(page, checkString("assertInnerHtml", d, browser.Element.InnerHTML, contains(expected)), opts)
}

// AssertWidth compares offsetWidth in pixels.
func (e *Engine) AssertWidth(page browser.Page, d locator.Descriptor, px int, opts ...CallOption) error {
	return e.run(page, checkString("assertWidth", d, intProperty("offsetWidth"), equals(strconv.Itoa(px)+"px")), opts)
}

// AssertHeight compares offsetHeight in pixels.
func (e *Engine) AssertHeight(page browser.Page, d locator.Descriptor, px int, opts ...CallOption) error {
	return e.run(page, checkString("assertHeight", d, intProperty("offsetHeight"), equals(strconv.Itoa(px)+"px")), opts)
}

func intProperty(name string) func(el browser.Element) (string, error) {
	return func(el browser.Element) (string, error) {
		v, err := el.Property(name)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(cast.ToInt(v)) + "px", nil
	}
}

// AssertInViewport checks that the element's bounding box lies entirely
// inside the viewport.
func (e *Engine) AssertInViewport(page browser.Page, d locator.Descriptor, opts ...CallOption) error {
	return e.run(page, check("assertInViewport", d, func(el browser.Element) error {
		r, err := el.BoundingBox()
		if err != nil {
			return err
		}
		if r == nil {
			return failf("%q is not rendered", d.Selector)
		}
		size, err := page.ViewportSize()
		if err != nil {
			return err
		}
		if !r.Within(size) {
			return failf("%q is not completely inside the %dx%d viewport", d.Selector, size.Width, size.Height)
		}
		return nil
	}), opts)
}

// AssertDOMProperty compares a DOM property rendered as a string.
func (e *Engine) AssertDOMProperty(page browser.Page, d locator.Descriptor, name, expected string, opts ...CallOption) error {
	return e.run(page, checkString("assertDomProperty", d, property(name), equals(expected)), opts)
}

// --- Style ---

func computed(prop string) func(el browser.Element) (string, error) {
	return func(el browser.Element) (string, error) {
		return el.ComputedStyle(prop)
	}
}

// AssertStyle checks that a computed style value contains expected.
func (e *Engine) AssertStyle(page browser.Page, d locator.Descriptor, prop, expected string, opts ...CallOption) error {
	return e.run(page, checkString("assertStyle", d, computed(prop), nonEmptyContains(expected)), opts)
}

// AssertDisplay compares the computed display value.
func (e *Engine) AssertDisplay(page browser.Page, d locator.Descriptor, expected string, opts ...CallOption) error {
	return e.run(page, checkString("assertDisplay", d, computed("display"), equals(expected)), opts)
}

// AssertBackgroundColor checks that background-color contains expected.
func (e *Engine) AssertBackgroundColor(page browser.Page, d locator.Descriptor, expected string, opts ...CallOption) error {
	return e.run(page, checkString("assertBackgroundColor", d, computed("background-color"), nonEmptyContains(expected)), opts)
}

// AssertColor checks that color contains expected.
func (e *Engine) AssertColor(page browser.Page, d locator.Descriptor, expected string, opts ...CallOption) error {
	return e.run(page, checkString("assertColor", d, computed("color"), nonEmptyContains(expected)), opts)
}

// AssertFontSize compares the computed font-size.
func (e *Engine) AssertFontSize(page browser.Page, d locator.Descriptor, expected string, opts ...CallOption) error {
	return e.run(page, checkString("assertFontSize", d, computed("font-size"), equals(expected)), opts)
}

// nonEmptyContains fails on an empty value even when expected is empty.
func nonEmptyContains(expected string) func(string) error {
	return func(actual string) error {
		if actual == "" {
			return mismatch("contains "+expected, actual)
		}
		return contains(expected)(actual)
	}
}

// --- Options ---

func options(name string, d locator.Descriptor, cmp func(opts []browser.Option) error) op {
	return check(name, d, func(el browser.Element) error {
		opts, err := el.Options()
		if err != nil {
			return err
		}
		return cmp(opts)
	})
}

func findOption(opts []browser.Option, pred func(browser.Option) bool) (browser.Option, bool) {
	for _, o := range opts {
		if pred(o) {
			return o, true
		}
	}
	return browser.Option{}, false
}

// AssertHasOption checks for an option with the given value.
func (e *Engine) AssertHasOption(page browser.Page, d locator.Descriptor, value string, opts ...CallOption) error {
	return e.run(page, options("assertHasOption", d, func(all []browser.Option) error {
		if _, ok := findOption(all, func(o browser.Option) bool { return o.Value == value }); !ok {
			return failf("option %q not found in %q", value, d.Selector)
		}
		return nil
	}), opts)
}

// AssertHasOptionText checks for an option with the given trimmed text.
func (e *Engine) AssertHasOptionText(page browser.Page, d locator.Descriptor, text string, opts ...CallOption) error {
	return e.run(page, options("assertHasOptionText", d, func(all []browser.Option) error {
		if _, ok := findOption(all, func(o browser.Option) bool { return o.Text == text }); !ok {
			return failf("option with text %q not found in %q", text, d.Selector)
		}
		return nil
	}), opts)
}

// AssertOptionCount compares the number of options.
func (e *Engine) AssertOptionCount(page browser.Page, d locator.Descriptor, expected int, opts ...CallOption) error {
	return e.run(page, options("assertOptionCount", d, func(all []browser.Option) error {
		if len(all) != expected {
			return mismatch(strconv.Itoa(expected), strconv.Itoa(len(all)))
		}
		return nil
	}), opts)
}

// AssertOptionCountAtLeast checks a minimum number of options.
func (e *Engine) AssertOptionCountAtLeast(page browser.Page, d locator.Descriptor, min int, opts ...CallOption) error {
	return e.run(page, options("assertOptionCountAtLeast", d, func(all []browser.Option) error {
		if len(all) < min {
			return mismatch(fmt.Sprintf("at least %d", min), strconv.Itoa(len(all)))
		}
		return nil
	}), opts)
}

// AssertOptionEnabled checks that the option with value exists and is enabled.
func (e *Engine) AssertOptionEnabled(page browser.Page, d locator.Descriptor, value string, opts ...CallOption) error {
	return e.run(page, options("assertOptionEnabled", d, func(all []browser.Option) error {
		o, ok := findOption(all, func(o browser.Option) bool { return o.Value == value })
		if !ok || o.Disabled {
			return failf("option %q of %q is not enabled", value, d.Selector)
		}
		return nil
	}), opts)
}

// AssertOptionDisabled checks that the option with value exists and is disabled.
func (e *Engine) AssertOptionDisabled(page browser.Page, d locator.Descriptor, value string, opts ...CallOption) error {
	return e.run(page, options("assertOptionDisabled", d, func(all []browser.Option) error {
		o, ok := findOption(all, func(o browser.Option) bool { return o.Value == value })
		if !ok || !o.Disabled {
			return failf("option %q of %q is not disabled", value, d.Selector)
		}
		return nil
	}), opts)
}

// --- URL / Title ---

// checkPage runs a page-level assertion. There is no selector and no wait.
func (e *Engine) checkPage(name string, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	var ae *core.AssertionError
	if errors.As(err, &ae) {
		if ae.Assertion == "" {
			ae.Assertion = name
		}
		return ae
	}
	return &core.AssertionError{Assertion: name, Cause: err}
}

// AssertURLEquals compares the current URL.
func (e *Engine) AssertURLEquals(page browser.Page, expected string) error {
	return e.checkPage("assertUrlEquals", func() error { return equals(expected)(page.URL()) })
}

// AssertURLContains checks that the current URL contains expected.
func (e *Engine) AssertURLContains(page browser.Page, expected string) error {
	return e.checkPage("assertUrlContains", func() error { return contains(expected)(page.URL()) })
}

// AssertURLMatches tests the current URL against a regular expression.
func (e *Engine) AssertURLMatches(page browser.Page, pattern string) error {
	return e.checkPage("assertUrlMatches", func() error { return matches(pattern)(page.URL()) })
}

// AssertOnPath checks that the path of the current URL contains path.
func (e *Engine) AssertOnPath(page browser.Page, path string) error {
	return e.checkPage("assertOnPath", func() error {
		u, err := url.Parse(page.URL())
		if err != nil {
			return err
		}
		return contains(path)(u.Path)
	})
}

func title(page browser.Page, cmp func(string) error) func() error {
	return func() error {
		t, err := page.Title()
		if err != nil {
			return err
		}
		return cmp(t)
	}
}

// AssertTitleEquals compares the page title.
func (e *Engine) AssertTitleEquals(page browser.Page, expected string) error {
	return e.checkPage("assertTitleEquals", title(page, equals(expected)))
}

// AssertTitleContains checks that the page title contains expected.
func (e *Engine) AssertTitleContains(page browser.Page, expected string) error {
	return e.checkPage("assertTitleContains", title(page, contains(expected)))
}

// AssertTitleMatches tests the page title against a regular expression.
func (e *Engine) AssertTitleMatches(page browser.Page, pattern string) error {
	return e.checkPage("assertTitleMatches", title(page, matches(pattern)))
}
