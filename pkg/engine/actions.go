package engine

import (
	"fmt"

	"github.com/devicelab-dev/webflow-runner/pkg/browser"
	"github.com/devicelab-dev/webflow-runner/pkg/core"
	"github.com/devicelab-dev/webflow-runner/pkg/locator"
	"github.com/devicelab-dev/webflow-runner/pkg/logger"
)

// action builds an op that waits for d to be visible and then calls do.
func action(name string, d locator.Descriptor, do func(el browser.Element) error) op {
	return op{
		name:   name,
		kind:   actionOp,
		target: d,
		wait:   browser.StateVisible,
		perform: func(_ browser.Document, el browser.Element) error {
			return do(el)
		},
	}
}

// Navigate loads url in the top-level document.
func (e *Engine) Navigate(page browser.Page, url string, opts ...CallOption) error {
	c := e.callSettings(opts)
	logger.Debug("navigate %s", url)
	if err := page.Goto(url, c.timeout); err != nil {
		return &core.ActionError{Action: "navigate", Selector: url, Scope: locator.Top().String(), Cause: err}
	}
	return nil
}

// Fill replaces the value of an input.
func (e *Engine) Fill(page browser.Page, d locator.Descriptor, value string, opts ...CallOption) error {
	return e.run(page, action("fill", d, func(el browser.Element) error {
		return el.Fill(value)
	}), opts)
}

// Click left-clicks the element once.
func (e *Engine) Click(page browser.Page, d locator.Descriptor, opts ...CallOption) error {
	return e.run(page, action("click", d, func(el browser.Element) error {
		return el.Click(browser.ClickOptions{Button: browser.ButtonLeft, ClickCount: 1})
	}), opts)
}

// DoubleClick double-clicks the element.
func (e *Engine) DoubleClick(page browser.Page, d locator.Descriptor, opts ...CallOption) error {
	return e.run(page, action("doubleClick", d, func(el browser.Element) error {
		return el.Click(browser.ClickOptions{Button: browser.ButtonLeft, ClickCount: 2})
	}), opts)
}

// RightClick opens the element's context menu.
func (e *Engine) RightClick(page browser.Page, d locator.Descriptor, opts ...CallOption) error {
	return e.run(page, action("rightClick", d, func(el browser.Element) error {
		return el.Click(browser.ClickOptions{Button: browser.ButtonRight, ClickCount: 1})
	}), opts)
}

// Hover moves the pointer over the element.
func (e *Engine) Hover(page browser.Page, d locator.Descriptor, opts ...CallOption) error {
	return e.run(page, action("hover", d, browser.Element.Hover), opts)
}

// Focus focuses the element.
func (e *Engine) Focus(page browser.Page, d locator.Descriptor, opts ...CallOption) error {
	return e.run(page, action("focus", d, browser.Element.Focus), opts)
}

// ClearFocus blurs whatever element holds focus.
func (e *Engine) ClearFocus(page browser.Page) error {
	if err := page.BlurActive(); err != nil {
		return &core.ActionError{Action: "clearFocus", Scope: locator.Top().String(), Cause: err}
	}
	return nil
}

// Check checks a checkbox or radio button.
func (e *Engine) Check(page browser.Page, d locator.Descriptor, opts ...CallOption) error {
	return e.run(page, action("check", d, func(el browser.Element) error {
		return el.SetChecked(true)
	}), opts)
}

// Uncheck unchecks a checkbox.
func (e *Engine) Uncheck(page browser.Page, d locator.Descriptor, opts ...CallOption) error {
	return e.run(page, action("uncheck", d, func(el browser.Element) error {
		return el.SetChecked(false)
	}), opts)
}

// Select chooses the option whose value or label is value.
func (e *Engine) Select(page browser.Page, d locator.Descriptor, value string, opts ...CallOption) error {
	return e.run(page, action("select", d, func(el browser.Element) error {
		return el.SelectOption(value)
	}), opts)
}

// ScrollTo scrolls the element into view.
func (e *Engine) ScrollTo(page browser.Page, d locator.Descriptor, opts ...CallOption) error {
	return e.run(page, action("scroll", d, browser.Element.ScrollIntoView), opts)
}

// ScrollBy scrolls the page vertically; negative pixels scroll up.
func (e *Engine) ScrollBy(page browser.Page, pixels int) error {
	if err := page.ScrollBy(0, pixels); err != nil {
		return &core.ActionError{Action: "scrollBy", Selector: fmt.Sprintf("%dpx", pixels), Scope: locator.Top().String(), Cause: err}
	}
	return nil
}

// ScrollToTop scrolls the page to the top.
func (e *Engine) ScrollToTop(page browser.Page) error {
	if err := page.ScrollToTop(); err != nil {
		return &core.ActionError{Action: "scrollToTop", Scope: locator.Top().String(), Cause: err}
	}
	return nil
}

// ScrollToBottom scrolls the page to the bottom.
func (e *Engine) ScrollToBottom(page browser.Page) error {
	if err := page.ScrollToBottom(); err != nil {
		return &core.ActionError{Action: "scrollToBottom", Scope: locator.Top().String(), Cause: err}
	}
	return nil
}

// DragAndDrop drags source onto target with pointer primitives: press at the
// center of source, move to the center of target, release.
func (e *Engine) DragAndDrop(page browser.Page, source, target locator.Descriptor, opts ...CallOption) error {
	c := e.callSettings(opts)
	fail := func(err error) error {
		return &core.ActionError{
			Action:   "dragAndDrop",
			Selector: source.Selector + " -> " + target.Selector,
			Scope:    source.Scope.String(),
			Cause:    err,
		}
	}

	box := func(d locator.Descriptor) (*browser.Rect, error) {
		doc, err := EnterScope(page, d)
		if err != nil {
			return nil, err
		}
		el, err := doc.WaitForSelector(d.Query(), browser.StateVisible, c.timeout)
		if err != nil {
			return nil, fail(err)
		}
		r, err := el.BoundingBox()
		if err != nil {
			return nil, fail(err)
		}
		if r == nil {
			return nil, fail(core.ErrGeometryUnavailable.
				WithMessage(fmt.Sprintf("could not get bounding box of %s", d.Selector)).
				WithDetails(map[string]interface{}{"selector": d.Selector}))
		}
		return r, nil
	}

	from, err := box(source)
	if err != nil {
		return err
	}
	to, err := box(target)
	if err != nil {
		return err
	}

	m := page.Mouse()
	fx, fy := from.Center()
	tx, ty := to.Center()
	logger.Debug("dragAndDrop (%g,%g) -> (%g,%g)", fx, fy, tx, ty)
	for _, step := range []func() error{
		func() error { return m.Move(fx, fy) },
		m.Down,
		func() error { return m.Move(tx, ty) },
		m.Up,
	} {
		if err := step(); err != nil {
			return fail(err)
		}
	}
	return nil
}
