package flow

import (
	"fmt"
	"strconv"
)

// StepType represents the type of step.
type StepType string

// Step type constants.
const (
	// Navigation & Interaction
	StepNavigate    StepType = "navigate"
	StepFill        StepType = "fill"
	StepClick       StepType = "click"
	StepDoubleClick StepType = "doubleClick"
	StepRightClick  StepType = "rightClick"
	StepHover       StepType = "hover"
	StepFocus       StepType = "focus"
	StepClearFocus  StepType = "clearFocus"
	StepCheck       StepType = "check"
	StepUncheck     StepType = "uncheck"
	StepSelect      StepType = "select"
	StepScroll      StepType = "scroll"
	StepDragAndDrop StepType = "dragAndDrop"

	// Element assertions
	StepAssertVisible          StepType = "assertVisible"
	StepAssertHidden           StepType = "assertHidden"
	StepAssertExists           StepType = "assertExists"
	StepAssertText             StepType = "assertText"
	StepAssertValue            StepType = "assertValue"
	StepAssertAttribute        StepType = "assertAttribute"
	StepAssertChecked          StepType = "assertChecked"
	StepAssertNotChecked       StepType = "assertNotChecked"
	StepAssertRadioSelected    StepType = "assertRadioSelected"
	StepAssertRadioNotSelected StepType = "assertRadioNotSelected"
	StepAssertEnabled          StepType = "assertEnabled"
	StepAssertDisabled         StepType = "assertDisabled"
	StepAssertFocused          StepType = "assertFocused"
	StepAssertNotFocused       StepType = "assertNotFocused"
	StepAssertFocusable        StepType = "assertFocusable"
	StepAssertFocusedType      StepType = "assertFocusedType"
	StepAssertCount            StepType = "assertCount"
	StepAssertDOM              StepType = "assertDom"
	StepAssertStyle            StepType = "assertStyle"
	StepAssertOptions          StepType = "assertOptions"

	// Page assertions
	StepAssertURL   StepType = "assertUrl"
	StepAssertTitle StepType = "assertTitle"

	// Flow Control
	StepRepeat  StepType = "repeat"
	StepRunFlow StepType = "runFlow"

	// Other
	StepTakeScreenshot  StepType = "takeScreenshot"
	StepDefineVariables StepType = "defineVariables"
)

// Step is the interface for all flow steps.
type Step interface {
	Type() StepType
	IsOptional() bool
	Label() string
	Describe() string
	Timeout() int
}

// BaseStep contains common fields for all steps.
type BaseStep struct {
	StepType  StepType `yaml:"-"`
	Optional  bool     `yaml:"optional"`
	StepLabel string   `yaml:"label"`
	TimeoutMs int      `yaml:"timeout"`
}

// Type returns the step type.
func (b *BaseStep) Type() StepType { return b.StepType }

// IsOptional returns whether the step is optional.
func (b *BaseStep) IsOptional() bool { return b.Optional }

// Label returns the step label.
func (b *BaseStep) Label() string { return b.StepLabel }

// Describe returns a human-readable description.
func (b *BaseStep) Describe() string { return string(b.StepType) }

// Timeout returns the per-step wait override in ms (0 = engine default).
func (b *BaseStep) Timeout() int { return b.TimeoutMs }

// Base returns the embedded BaseStep so callers can adjust common fields.
func (b *BaseStep) Base() *BaseStep { return b }

// Targeted is implemented by steps that act on one or more elements.
type Targeted interface {
	Targets() []*ElementRef
}

// ============================================
// Navigation & Interaction Steps
// ============================================

// NavigateStep opens a URL. Relative URLs are joined to the base URL.
type NavigateStep struct {
	BaseStep `yaml:",inline"`
	URL      string `yaml:"url"`
}

// ElementStep is any step whose only parameter is its target element.
// Used by click, doubleClick, rightClick, hover, focus, check, uncheck and
// the state assertions.
type ElementStep struct {
	BaseStep `yaml:",inline"`
	Target   ElementRef `yaml:",inline"`
}

// FillStep types text into an input.
type FillStep struct {
	BaseStep `yaml:",inline"`
	Target   ElementRef `yaml:",inline"`
	Text     string     `yaml:"text"`
}

// ClearFocusStep blurs the active element.
type ClearFocusStep struct {
	BaseStep `yaml:",inline"`
}

// SelectStep selects an option by value.
type SelectStep struct {
	BaseStep `yaml:",inline"`
	Target   ElementRef `yaml:",inline"`
	Value    string     `yaml:"value"`
}

// Scroll positions.
const (
	ScrollTop    = "top"
	ScrollBottom = "bottom"
)

// ScrollStep scrolls an element into view, the page by a pixel offset, or
// the page to the top or bottom.
type ScrollStep struct {
	BaseStep `yaml:",inline"`
	Target   ElementRef `yaml:",inline"`
	By       int        `yaml:"by"`
	To       string     `yaml:"to"` // top, bottom
}

// DragAndDropStep drags one element onto another.
type DragAndDropStep struct {
	BaseStep `yaml:",inline"`
	Source   ElementRef `yaml:"source"`
	Target   ElementRef `yaml:"target"`
}

// ============================================
// Assertion Steps
// ============================================

// AssertTextStep checks an element's text content.
type AssertTextStep struct {
	BaseStep `yaml:",inline"`
	Target   ElementRef `yaml:",inline"`
	Equals   string     `yaml:"equals"` // Compared after trimming both sides
	Contains string     `yaml:"contains"`
	Matches  string     `yaml:"matches"` // Regular expression
}

// AssertValueStep checks an input or select value.
type AssertValueStep struct {
	BaseStep `yaml:",inline"`
	Target   ElementRef `yaml:",inline"`
	Equals   string     `yaml:"equals"`
	Contains string     `yaml:"contains"`
	Selected string     `yaml:"selected"` // Selected option value of a <select>
	Empty    bool       `yaml:"empty"`
	NotEmpty bool       `yaml:"notEmpty"`
}

// AssertAttributeStep checks an attribute, a data-* attribute or a class.
type AssertAttributeStep struct {
	BaseStep `yaml:",inline"`
	Target   ElementRef `yaml:",inline"`
	Name     string     `yaml:"name"`
	Data     string     `yaml:"data"` // data-<Data>
	Equals   string     `yaml:"equals"`
	Contains string     `yaml:"contains"`
	Class    string     `yaml:"class"`
	NotClass string     `yaml:"notClass"`
}

// AssertFocusedTypeStep checks the tag name of the focused element.
type AssertFocusedTypeStep struct {
	BaseStep `yaml:",inline"`
	Tag      string `yaml:"tag"`
}

// AssertCountStep checks how many elements match a selector.
type AssertCountStep struct {
	BaseStep `yaml:",inline"`
	Target   ElementRef `yaml:",inline"`
	Equals   *int       `yaml:"equals"`
	AtLeast  *int       `yaml:"atLeast"`
	AtMost   *int       `yaml:"atMost"`
	Zero     bool       `yaml:"zero"` // nothing matches
	Any      bool       `yaml:"any"`  // at least one match
}

// AssertDOMStep checks structural DOM facts about an element.
type AssertDOMStep struct {
	BaseStep   `yaml:",inline"`
	Target     ElementRef `yaml:",inline"`
	Tag        string     `yaml:"tag"`
	Children   *int       `yaml:"children"`
	Parent     string     `yaml:"parent"` // Ancestor selector
	InnerText  string     `yaml:"innerText"`
	InnerHTML  string     `yaml:"innerHtml"` // Substring
	Width      *int       `yaml:"width"`
	Height     *int       `yaml:"height"`
	InViewport bool       `yaml:"inViewport"`
	Property   string     `yaml:"property"`
	Value      string     `yaml:"value"` // Expected property value
}

// AssertStyleStep checks computed style.
type AssertStyleStep struct {
	BaseStep        `yaml:",inline"`
	Target          ElementRef `yaml:",inline"`
	Property        string     `yaml:"property"`
	Value           string     `yaml:"value"` // Substring of the property value
	Display         string     `yaml:"display"`
	BackgroundColor string     `yaml:"backgroundColor"`
	Color           string     `yaml:"color"`
	FontSize        string     `yaml:"fontSize"`
}

// AssertOptionsStep checks the options of a <select>.
type AssertOptionsStep struct {
	BaseStep `yaml:",inline"`
	Target   ElementRef `yaml:",inline"`
	HasValue string     `yaml:"hasValue"`
	HasText  string     `yaml:"hasText"`
	Count    *int       `yaml:"count"`
	AtLeast  *int       `yaml:"atLeast"`
	Enabled  string     `yaml:"enabled"`  // Option value expected enabled
	Disabled string     `yaml:"disabled"` // Option value expected disabled
}

// AssertURLStep checks the page URL.
type AssertURLStep struct {
	BaseStep `yaml:",inline"`
	Equals   string `yaml:"equals"`
	Contains string `yaml:"contains"`
	Matches  string `yaml:"matches"`
	Path     string `yaml:"path"` // Substring of the URL path
}

// AssertTitleStep checks the page title.
type AssertTitleStep struct {
	BaseStep `yaml:",inline"`
	Equals   string `yaml:"equals"`
	Contains string `yaml:"contains"`
	Matches  string `yaml:"matches"`
}

// ============================================
// Flow Control Steps
// ============================================

// RepeatStep repeats steps.
type RepeatStep struct {
	BaseStep `yaml:",inline"`
	Times    string `yaml:"times"` // String for variable support
	Steps    []Step `yaml:"-"`
}

// RunFlowStep runs another flow.
type RunFlowStep struct {
	BaseStep `yaml:",inline"`
	File     string            `yaml:"file"`
	Steps    []Step            `yaml:"-"` // Inline steps
	Env      map[string]string `yaml:"env"`
}

// ============================================
// Other Steps
// ============================================

// TakeScreenshotStep takes a screenshot.
type TakeScreenshotStep struct {
	BaseStep `yaml:",inline"`
	Path     string `yaml:"path"`
}

// DefineVariablesStep defines variables.
type DefineVariablesStep struct {
	BaseStep `yaml:",inline"`
	Env      map[string]string `yaml:"env"`
}

// ============================================
// Targets() implementations
// ============================================

// Targets returns the step's element.
func (s *ElementStep) Targets() []*ElementRef { return []*ElementRef{&s.Target} }

// Targets returns the step's element.
func (s *FillStep) Targets() []*ElementRef { return []*ElementRef{&s.Target} }

// Targets returns the step's element.
func (s *SelectStep) Targets() []*ElementRef { return []*ElementRef{&s.Target} }

// Targets returns the step's element, if it scrolls one into view.
func (s *ScrollStep) Targets() []*ElementRef {
	if s.Target.IsEmpty() {
		return nil
	}
	return []*ElementRef{&s.Target}
}

// Targets returns source and target.
func (s *DragAndDropStep) Targets() []*ElementRef { return []*ElementRef{&s.Source, &s.Target} }

// Targets returns the step's element.
func (s *AssertTextStep) Targets() []*ElementRef { return []*ElementRef{&s.Target} }

// Targets returns the step's element.
func (s *AssertValueStep) Targets() []*ElementRef { return []*ElementRef{&s.Target} }

// Targets returns the step's element.
func (s *AssertAttributeStep) Targets() []*ElementRef { return []*ElementRef{&s.Target} }

// Targets returns the step's element.
func (s *AssertCountStep) Targets() []*ElementRef { return []*ElementRef{&s.Target} }

// Targets returns the step's element.
func (s *AssertDOMStep) Targets() []*ElementRef { return []*ElementRef{&s.Target} }

// Targets returns the step's element.
func (s *AssertStyleStep) Targets() []*ElementRef { return []*ElementRef{&s.Target} }

// Targets returns the step's element.
func (s *AssertOptionsStep) Targets() []*ElementRef { return []*ElementRef{&s.Target} }

// ============================================
// Describe() implementations for detailed output
// ============================================

// Describe returns a human-readable description of the navigate step.
func (s *NavigateStep) Describe() string {
	return "navigate: " + s.URL
}

// Describe returns a human-readable description of an element step.
func (s *ElementStep) Describe() string {
	return string(s.StepType) + ": " + s.Target.Describe()
}

// Describe returns a human-readable description of the fill step.
func (s *FillStep) Describe() string {
	return "fill: " + s.Target.Describe() + " with \"" + s.Text + "\""
}

// Describe returns a human-readable description of the select step.
func (s *SelectStep) Describe() string {
	return "select: \"" + s.Value + "\" in " + s.Target.Describe()
}

// Describe returns a human-readable description of the scroll step.
func (s *ScrollStep) Describe() string {
	switch {
	case !s.Target.IsEmpty():
		return "scroll: " + s.Target.Describe()
	case s.To != "":
		return "scroll: " + s.To
	default:
		return "scroll: " + strconv.Itoa(s.By) + "px"
	}
}

// Describe returns a human-readable description of the drag and drop step.
func (s *DragAndDropStep) Describe() string {
	return "dragAndDrop: " + s.Source.Describe() + " -> " + s.Target.Describe()
}

// Describe returns a human-readable description of the text assertion.
func (s *AssertTextStep) Describe() string {
	return "assertText: " + s.Target.Describe() + describeExpectation("equals", s.Equals, "contains", s.Contains, "matches", s.Matches)
}

// Describe returns a human-readable description of the value assertion.
func (s *AssertValueStep) Describe() string {
	switch {
	case s.Empty:
		return "assertValue: " + s.Target.Describe() + " is empty"
	case s.NotEmpty:
		return "assertValue: " + s.Target.Describe() + " is not empty"
	}
	return "assertValue: " + s.Target.Describe() + describeExpectation("equals", s.Equals, "contains", s.Contains, "selected", s.Selected)
}

// Describe returns a human-readable description of the attribute assertion.
func (s *AssertAttributeStep) Describe() string {
	switch {
	case s.Class != "":
		return "assertAttribute: " + s.Target.Describe() + " has class \"" + s.Class + "\""
	case s.NotClass != "":
		return "assertAttribute: " + s.Target.Describe() + " does not have class \"" + s.NotClass + "\""
	case s.Data != "":
		return "assertAttribute: " + s.Target.Describe() + " data-" + s.Data + describeExpectation("equals", s.Equals, "contains", s.Contains)
	}
	return "assertAttribute: " + s.Target.Describe() + " " + s.Name + describeExpectation("equals", s.Equals, "contains", s.Contains)
}

// Describe returns a human-readable description of the focused type assertion.
func (s *AssertFocusedTypeStep) Describe() string {
	return "assertFocusedType: " + s.Tag
}

// Describe returns a human-readable description of the count assertion.
func (s *AssertCountStep) Describe() string {
	d := "assertCount: " + s.Target.Describe()
	if s.Equals != nil {
		d += fmt.Sprintf(" == %d", *s.Equals)
	}
	if s.AtLeast != nil {
		d += fmt.Sprintf(" >= %d", *s.AtLeast)
	}
	if s.AtMost != nil {
		d += fmt.Sprintf(" <= %d", *s.AtMost)
	}
	if s.Zero {
		d += " none"
	}
	if s.Any {
		d += " any"
	}
	return d
}

// Describe returns a human-readable description of the DOM assertion.
func (s *AssertDOMStep) Describe() string {
	return "assertDom: " + s.Target.Describe()
}

// Describe returns a human-readable description of the style assertion.
func (s *AssertStyleStep) Describe() string {
	if s.Property != "" {
		return "assertStyle: " + s.Target.Describe() + " " + s.Property + " contains \"" + s.Value + "\""
	}
	return "assertStyle: " + s.Target.Describe()
}

// Describe returns a human-readable description of the options assertion.
func (s *AssertOptionsStep) Describe() string {
	return "assertOptions: " + s.Target.Describe()
}

// Describe returns a human-readable description of the URL assertion.
func (s *AssertURLStep) Describe() string {
	return "assertUrl:" + describeExpectation("equals", s.Equals, "contains", s.Contains, "matches", s.Matches, "path", s.Path)
}

// Describe returns a human-readable description of the title assertion.
func (s *AssertTitleStep) Describe() string {
	return "assertTitle:" + describeExpectation("equals", s.Equals, "contains", s.Contains, "matches", s.Matches)
}

// Describe returns a human-readable description of the run flow step.
func (s *RunFlowStep) Describe() string {
	if s.File != "" {
		return "runFlow: " + s.File
	}
	return "runFlow"
}

// Describe returns a human-readable description of the repeat step.
func (s *RepeatStep) Describe() string {
	if s.Times != "" {
		return "repeat: " + s.Times + " times"
	}
	return "repeat"
}

// describeExpectation renders the first non-empty (name, value) pair.
func describeExpectation(pairs ...string) string {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			return " " + pairs[i] + " \"" + pairs[i+1] + "\""
		}
	}
	return ""
}
