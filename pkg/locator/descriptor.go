// Package locator maps symbolic (screen, element) references to normalized
// locator descriptors.
package locator

import (
	"fmt"
	"strings"

	"github.com/devicelab-dev/webflow-runner/pkg/core"
	"gopkg.in/yaml.v3"
)

// ScopeKind says where a selector is evaluated.
type ScopeKind int

const (
	TopDocument  ScopeKind = iota // The page's own document
	IframeScoped                  // The content document of an iframe
)

// String returns the string representation of ScopeKind
func (k ScopeKind) String() string {
	switch k {
	case TopDocument:
		return "top"
	case IframeScoped:
		return "iframe"
	default:
		return "unknown"
	}
}

// Scope is the document a descriptor's selector is evaluated against.
// IframeSelector is non-empty exactly when Kind is IframeScoped.
type Scope struct {
	Kind           ScopeKind `json:"kind" yaml:"kind"`
	IframeSelector string    `json:"iframe,omitempty" yaml:"iframe,omitempty"`
}

// Top returns the top-level document scope.
func Top() Scope { return Scope{Kind: TopDocument} }

// Iframe returns the scope of the iframe matched by sel.
// An empty selector yields the top-level scope.
func Iframe(sel string) Scope {
	if sel == "" {
		return Top()
	}
	return Scope{Kind: IframeScoped, IframeSelector: sel}
}

// IsIframe returns true for IframeScoped.
func (s Scope) IsIframe() bool { return s.Kind == IframeScoped }

// String renders the scope for logs and errors.
func (s Scope) String() string {
	return core.ScopeLabel(s.IframeSelector)
}

// SelectorType tags selector syntax. Unknown values pass through unchanged.
type SelectorType string

// Known selector types.
const (
	SelectorCSS   SelectorType = "css"
	SelectorXPath SelectorType = "xpath"
	SelectorText  SelectorType = "text"
	SelectorID    SelectorType = "id"
)

// ParseSelectorType normalizes a type cell. Empty means css.
func ParseSelectorType(s string) SelectorType {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SelectorCSS
	}
	return SelectorType(s)
}

// Descriptor is the normalized form of a registry entry.
type Descriptor struct {
	Screen   string       `json:"screen" yaml:"screen"`
	Element  string       `json:"element" yaml:"element"`
	Selector string       `json:"selector" yaml:"selector"`
	Type     SelectorType `json:"type" yaml:"type"`
	Scope    Scope        `json:"scope" yaml:"scope"`
}

// Query renders the selector in the browser engine's syntax.
func (d Descriptor) Query() string {
	switch d.Type {
	case SelectorXPath:
		return "xpath=" + d.Selector
	case SelectorText:
		return "text=" + d.Selector
	case SelectorID:
		return "#" + d.Selector
	default:
		return d.Selector
	}
}

// IsScoped returns true if the descriptor targets an iframe's document.
func (d Descriptor) IsScoped() bool { return d.Scope.IsIframe() }

// Key returns "Screen.element", or the selector for inline descriptors.
func (d Descriptor) Key() string {
	if d.Screen == "" {
		return d.Selector
	}
	return d.Screen + "." + d.Element
}

// RawDescriptor is a registry value as stored: either a bare selector string
// or a record with a type and an optional iframe selector.
type RawDescriptor struct {
	Locator string `yaml:"locator"`
	Type    string `yaml:"type"`
	Iframe  string `yaml:"iframe"`
	record  bool
}

// Bare returns a raw descriptor in the bare-string shape.
func Bare(selector string) RawDescriptor {
	return RawDescriptor{Locator: selector}
}

// Record returns a raw descriptor in the record shape.
func Record(selector, selectorType, iframe string) RawDescriptor {
	return RawDescriptor{Locator: selector, Type: selectorType, Iframe: iframe, record: true}
}

// IsRecord returns true for the record shape.
func (r RawDescriptor) IsRecord() bool { return r.record }

// rawRecord mirrors RawDescriptor's record shape for decoding.
type rawRecord struct {
	Locator string `yaml:"locator"`
	Type    string `yaml:"type"`
	Iframe  string `yaml:"iframe"`
}

// UnmarshalYAML allows RawDescriptor to be unmarshaled from a string or a record.
func (r *RawDescriptor) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*r = Bare(node.Value)
		return nil
	}

	var raw rawRecord
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*r = Record(raw.Locator, raw.Type, raw.Iframe)
	return nil
}

// Normalize converts either shape into a Descriptor. A bare string is always
// top-level; a record is iframe-scoped when its iframe selector is non-empty.
func (r RawDescriptor) Normalize(screen, element string) (Descriptor, error) {
	selector := strings.TrimSpace(r.Locator)
	if selector == "" {
		return Descriptor{}, core.ErrInvalidDescriptor.
			WithMessage(fmt.Sprintf("empty locator for element: %s on screen: %s", element, screen)).
			WithDetails(map[string]interface{}{"screen": screen, "element": element})
	}

	d := Descriptor{
		Screen:   screen,
		Element:  element,
		Selector: selector,
		Type:     ParseSelectorType(r.Type),
		Scope:    Top(),
	}
	if r.record {
		d.Scope = Iframe(strings.TrimSpace(r.Iframe))
	}
	return d, nil
}

// Inline builds a descriptor for a selector written directly in a step,
// bypassing the registry.
func Inline(selector string, selectorType SelectorType, iframe string) Descriptor {
	return Descriptor{
		Selector: selector,
		Type:     selectorType,
		Scope:    Iframe(iframe),
	}
}
