package web

import (
	"fmt"

	"github.com/devicelab-dev/webflow-runner/pkg/core"
	"github.com/devicelab-dev/webflow-runner/pkg/engine"
	"github.com/devicelab-dev/webflow-runner/pkg/flow"
	"github.com/devicelab-dev/webflow-runner/pkg/locator"
)

//nolint:gocyclo
func (d *Driver) executeStep(step flow.Step) *core.CommandResult {
	switch s := step.(type) {
	case *flow.NavigateStep:
		return d.navigate(s)
	case *flow.ElementStep:
		return d.elementStep(s)
	case *flow.FillStep:
		return d.fill(s)
	case *flow.ClearFocusStep:
		return d.clearFocus(s)
	case *flow.SelectStep:
		return d.selectOption(s)
	case *flow.ScrollStep:
		return d.scroll(s)
	case *flow.DragAndDropStep:
		return d.dragAndDrop(s)
	case *flow.AssertTextStep:
		return d.assertText(s)
	case *flow.AssertValueStep:
		return d.assertValue(s)
	case *flow.AssertAttributeStep:
		return d.assertAttribute(s)
	case *flow.AssertFocusedTypeStep:
		return d.assertFocusedType(s)
	case *flow.AssertCountStep:
		return d.assertCount(s)
	case *flow.AssertDOMStep:
		return d.assertDOM(s)
	case *flow.AssertStyleStep:
		return d.assertStyle(s)
	case *flow.AssertOptionsStep:
		return d.assertOptions(s)
	case *flow.AssertURLStep:
		return d.assertURL(s)
	case *flow.AssertTitleStep:
		return d.assertTitle(s)
	default:
		return errorResult(fmt.Errorf("unsupported step: %s", step.Type()), "")
	}
}

// check is one engine call bound to a resolved descriptor.
type check func(desc locator.Descriptor, opts ...engine.CallOption) error

// onElement resolves the step's target and runs each check in order,
// stopping at the first failure.
func (d *Driver) onElement(step flow.Step, ref *flow.ElementRef, done string, checks ...check) *core.CommandResult {
	desc, err := d.resolve(ref)
	if err != nil {
		return errorResult(err, "")
	}
	info := elementInfo(ref, desc)
	if len(checks) == 0 {
		err := core.ErrMissingRequired.WithMessage(fmt.Sprintf("%s: nothing to check", step.Type()))
		return errorResult(err, "")
	}
	opts := callOpts(step)
	for _, c := range checks {
		if err := c(desc, opts...); err != nil {
			r := errorResult(err, "")
			r.Element = info
			return r
		}
	}
	return successResult(done, info)
}

// onPage runs page-level checks that need no element.
func onPage(step flow.Step, done string, checks ...func() error) *core.CommandResult {
	if len(checks) == 0 {
		err := core.ErrMissingRequired.WithMessage(fmt.Sprintf("%s: nothing to check", step.Type()))
		return errorResult(err, "")
	}
	for _, c := range checks {
		if err := c(); err != nil {
			return errorResult(err, "")
		}
	}
	return successResult(done, nil)
}

// ============================================
// Navigation & Interaction
// ============================================

func (d *Driver) navigate(s *flow.NavigateStep) *core.CommandResult {
	target, err := d.absoluteURL(s.URL)
	if err != nil {
		return errorResult(core.ErrInvalidConfig.WithMessage(err.Error()), "")
	}
	if err := d.engine.Navigate(d.page, target, callOpts(s)...); err != nil {
		return errorResult(err, "")
	}
	return successResult("Navigated to "+target, nil)
}

//nolint:gocyclo
func (d *Driver) elementStep(s *flow.ElementStep) *core.CommandResult {
	e, p := d.engine, d.page
	var c check
	switch s.Type() {
	case flow.StepClick:
		c = func(l locator.Descriptor, o ...engine.CallOption) error { return e.Click(p, l, o...) }
	case flow.StepDoubleClick:
		c = func(l locator.Descriptor, o ...engine.CallOption) error { return e.DoubleClick(p, l, o...) }
	case flow.StepRightClick:
		c = func(l locator.Descriptor, o ...engine.CallOption) error { return e.RightClick(p, l, o...) }
	case flow.StepHover:
		c = func(l locator.Descriptor, o ...engine.CallOption) error { return e.Hover(p, l, o...) }
	case flow.StepFocus:
		c = func(l locator.Descriptor, o ...engine.CallOption) error { return e.Focus(p, l, o...) }
	case flow.StepCheck:
		c = func(l locator.Descriptor, o ...engine.CallOption) error { return e.Check(p, l, o...) }
	case flow.StepUncheck:
		c = func(l locator.Descriptor, o ...engine.CallOption) error { return e.Uncheck(p, l, o...) }
	case flow.StepAssertVisible:
		c = func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertVisible(p, l, o...) }
	case flow.StepAssertHidden:
		c = func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertHidden(p, l, o...) }
	case flow.StepAssertExists:
		c = func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertExists(p, l, o...) }
	case flow.StepAssertChecked:
		c = func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertChecked(p, l, o...) }
	case flow.StepAssertNotChecked:
		c = func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertNotChecked(p, l, o...) }
	case flow.StepAssertRadioSelected:
		c = func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertRadioSelected(p, l, o...) }
	case flow.StepAssertRadioNotSelected:
		c = func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertRadioNotSelected(p, l, o...) }
	case flow.StepAssertEnabled:
		c = func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertEnabled(p, l, o...) }
	case flow.StepAssertDisabled:
		c = func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertDisabled(p, l, o...) }
	case flow.StepAssertFocused:
		c = func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertFocused(p, l, o...) }
	case flow.StepAssertNotFocused:
		c = func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertNotFocused(p, l, o...) }
	case flow.StepAssertFocusable:
		c = func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertFocusable(p, l, o...) }
	default:
		return errorResult(fmt.Errorf("unsupported element step: %s", s.Type()), "")
	}
	return d.onElement(s, &s.Target, s.Describe(), c)
}

func (d *Driver) fill(s *flow.FillStep) *core.CommandResult {
	return d.onElement(s, &s.Target, fmt.Sprintf("Filled %q", s.Text),
		func(l locator.Descriptor, o ...engine.CallOption) error { return d.engine.Fill(d.page, l, s.Text, o...) })
}

func (d *Driver) clearFocus(_ *flow.ClearFocusStep) *core.CommandResult {
	if err := d.engine.ClearFocus(d.page); err != nil {
		return errorResult(err, "")
	}
	return successResult("Cleared focus", nil)
}

func (d *Driver) selectOption(s *flow.SelectStep) *core.CommandResult {
	return d.onElement(s, &s.Target, fmt.Sprintf("Selected %q", s.Value),
		func(l locator.Descriptor, o ...engine.CallOption) error { return d.engine.Select(d.page, l, s.Value, o...) })
}

func (d *Driver) scroll(s *flow.ScrollStep) *core.CommandResult {
	var err error
	switch {
	case !s.Target.IsEmpty():
		return d.onElement(s, &s.Target, s.Describe(),
			func(l locator.Descriptor, o ...engine.CallOption) error { return d.engine.ScrollTo(d.page, l, o...) })
	case s.To == flow.ScrollTop:
		err = d.engine.ScrollToTop(d.page)
	case s.To == flow.ScrollBottom:
		err = d.engine.ScrollToBottom(d.page)
	case s.By != 0:
		err = d.engine.ScrollBy(d.page, s.By)
	default:
		err = core.ErrMissingRequired.WithMessage("scroll: element, by or to is required")
	}
	if err != nil {
		return errorResult(err, "")
	}
	return successResult(s.Describe(), nil)
}

func (d *Driver) dragAndDrop(s *flow.DragAndDropStep) *core.CommandResult {
	src, err := d.resolve(&s.Source)
	if err != nil {
		return errorResult(err, "")
	}
	dst, err := d.resolve(&s.Target)
	if err != nil {
		return errorResult(err, "")
	}
	info := elementInfo(&s.Source, src)
	if err := d.engine.DragAndDrop(d.page, src, dst, callOpts(s)...); err != nil {
		r := errorResult(err, "")
		r.Element = info
		return r
	}
	return successResult(s.Describe(), info)
}

// ============================================
// Element assertions
// ============================================

func (d *Driver) assertText(s *flow.AssertTextStep) *core.CommandResult {
	e, p := d.engine, d.page
	var checks []check
	if s.Equals != "" {
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertTextEquals(p, l, s.Equals, o...) })
	}
	if s.Contains != "" {
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertTextContains(p, l, s.Contains, o...) })
	}
	if s.Matches != "" {
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertTextMatches(p, l, s.Matches, o...) })
	}
	return d.onElement(s, &s.Target, s.Describe(), checks...)
}

func (d *Driver) assertValue(s *flow.AssertValueStep) *core.CommandResult {
	e, p := d.engine, d.page
	var checks []check
	if s.Equals != "" {
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertValueEquals(p, l, s.Equals, o...) })
	}
	if s.Contains != "" {
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertValueContains(p, l, s.Contains, o...) })
	}
	if s.Selected != "" {
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertSelectValue(p, l, s.Selected, o...) })
	}
	if s.Empty {
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertValueEmpty(p, l, o...) })
	}
	if s.NotEmpty {
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertValueNotEmpty(p, l, o...) })
	}
	return d.onElement(s, &s.Target, s.Describe(), checks...)
}

func (d *Driver) assertAttribute(s *flow.AssertAttributeStep) *core.CommandResult {
	e, p := d.engine, d.page
	var checks []check
	switch {
	case s.Class != "":
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertHasClass(p, l, s.Class, o...) })
	case s.NotClass != "":
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertNotHasClass(p, l, s.NotClass, o...) })
	default:
		name := s.Name
		if s.Data != "" {
			name = "data-" + s.Data
		}
		if s.Equals != "" {
			if s.Data != "" {
				checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertDataAttribute(p, l, s.Data, s.Equals, o...) })
			} else {
				checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertAttributeEquals(p, l, name, s.Equals, o...) })
			}
		}
		// With no expectation the attribute only has to exist.
		if s.Contains != "" || s.Equals == "" {
			checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertAttributeContains(p, l, name, s.Contains, o...) })
		}
	}
	return d.onElement(s, &s.Target, s.Describe(), checks...)
}

func (d *Driver) assertFocusedType(s *flow.AssertFocusedTypeStep) *core.CommandResult {
	if s.Tag == "" {
		return errorResult(core.ErrMissingRequired.WithMessage("assertFocusedType: tag is required"), "")
	}
	return onPage(s, s.Describe(), func() error { return d.engine.AssertFocusedType(d.page, s.Tag) })
}

func (d *Driver) assertCount(s *flow.AssertCountStep) *core.CommandResult {
	e, p := d.engine, d.page
	var checks []check
	if s.Equals != nil {
		n := *s.Equals
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertCount(p, l, n, o...) })
	}
	if s.AtLeast != nil {
		n := *s.AtLeast
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertCountAtLeast(p, l, n, o...) })
	}
	if s.AtMost != nil {
		n := *s.AtMost
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertCountAtMost(p, l, n, o...) })
	}
	if s.Zero {
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertNoElements(p, l, o...) })
	}
	if s.Any {
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertHasElements(p, l, o...) })
	}
	return d.onElement(s, &s.Target, s.Describe(), checks...)
}

//nolint:gocyclo
func (d *Driver) assertDOM(s *flow.AssertDOMStep) *core.CommandResult {
	e, p := d.engine, d.page
	var checks []check
	if s.Tag != "" {
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertTagName(p, l, s.Tag, o...) })
	}
	if s.Children != nil {
		n := *s.Children
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertChildCount(p, l, n, o...) })
	}
	if s.Parent != "" {
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertParent(p, l, s.Parent, o...) })
	}
	if s.InnerText != "" {
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertInnerText(p, l, s.InnerText, o...) })
	}
	if s.InnerHTML != "" {
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertInnerHTMLContains(p, l, s.InnerHTML, o...) })
	}
	if s.Width != nil {
		n := *s.Width
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertWidth(p, l, n, o...) })
	}
	if s.Height != nil {
		n := *s.Height
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertHeight(p, l, n, o...) })
	}
	if s.InViewport {
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertInViewport(p, l, o...) })
	}
	if s.Property != "" {
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertDOMProperty(p, l, s.Property, s.Value, o...) })
	}
	return d.onElement(s, &s.Target, s.Describe(), checks...)
}

func (d *Driver) assertStyle(s *flow.AssertStyleStep) *core.CommandResult {
	e, p := d.engine, d.page
	var checks []check
	if s.Property != "" {
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertStyle(p, l, s.Property, s.Value, o...) })
	}
	if s.Display != "" {
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertDisplay(p, l, s.Display, o...) })
	}
	if s.BackgroundColor != "" {
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertBackgroundColor(p, l, s.BackgroundColor, o...) })
	}
	if s.Color != "" {
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertColor(p, l, s.Color, o...) })
	}
	if s.FontSize != "" {
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertFontSize(p, l, s.FontSize, o...) })
	}
	return d.onElement(s, &s.Target, s.Describe(), checks...)
}

func (d *Driver) assertOptions(s *flow.AssertOptionsStep) *core.CommandResult {
	e, p := d.engine, d.page
	var checks []check
	if s.HasValue != "" {
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertHasOption(p, l, s.HasValue, o...) })
	}
	if s.HasText != "" {
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertHasOptionText(p, l, s.HasText, o...) })
	}
	if s.Count != nil {
		n := *s.Count
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertOptionCount(p, l, n, o...) })
	}
	if s.AtLeast != nil {
		n := *s.AtLeast
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertOptionCountAtLeast(p, l, n, o...) })
	}
	if s.Enabled != "" {
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertOptionEnabled(p, l, s.Enabled, o...) })
	}
	if s.Disabled != "" {
		checks = append(checks, func(l locator.Descriptor, o ...engine.CallOption) error { return e.AssertOptionDisabled(p, l, s.Disabled, o...) })
	}
	return d.onElement(s, &s.Target, s.Describe(), checks...)
}

// ============================================
// Page assertions
// ============================================

func (d *Driver) assertURL(s *flow.AssertURLStep) *core.CommandResult {
	e, p := d.engine, d.page
	var checks []func() error
	if s.Equals != "" {
		want, err := d.absoluteURL(s.Equals)
		if err != nil {
			return errorResult(err, "")
		}
		checks = append(checks, func() error { return e.AssertURLEquals(p, want) })
	}
	if s.Contains != "" {
		checks = append(checks, func() error { return e.AssertURLContains(p, s.Contains) })
	}
	if s.Matches != "" {
		checks = append(checks, func() error { return e.AssertURLMatches(p, s.Matches) })
	}
	if s.Path != "" {
		checks = append(checks, func() error { return e.AssertOnPath(p, s.Path) })
	}
	return onPage(s, s.Describe(), checks...)
}

func (d *Driver) assertTitle(s *flow.AssertTitleStep) *core.CommandResult {
	e, p := d.engine, d.page
	var checks []func() error
	if s.Equals != "" {
		checks = append(checks, func() error { return e.AssertTitleEquals(p, s.Equals) })
	}
	if s.Contains != "" {
		checks = append(checks, func() error { return e.AssertTitleContains(p, s.Contains) })
	}
	if s.Matches != "" {
		checks = append(checks, func() error { return e.AssertTitleMatches(p, s.Matches) })
	}
	return onPage(s, s.Describe(), checks...)
}
