package flow

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ElementRef identifies the element a step targets.
// Either Screen+Element name a registry entry, or CSS/XPath give an inline
// selector. Iframe only applies to inline selectors; registry entries carry
// their own scope.
type ElementRef struct {
	Screen  string `yaml:"screen"`
	Element string `yaml:"element"`
	CSS     string `yaml:"css"`
	XPath   string `yaml:"xpath"`
	Iframe  string `yaml:"iframe"`
}

// ParseElementRef parses the "Screen.element" shorthand.
// The split happens on the first dot; element names may contain dots.
func ParseElementRef(s string) ElementRef {
	s = strings.TrimSpace(s)
	if screen, element, ok := strings.Cut(s, "."); ok {
		return ElementRef{Screen: screen, Element: element}
	}
	return ElementRef{Element: s}
}

// elementRefRaw mirrors ElementRef without the custom unmarshaler.
type elementRefRaw ElementRef

// UnmarshalYAML allows ElementRef to be unmarshaled from "Screen.element" or a mapping.
func (r *ElementRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*r = ParseElementRef(node.Value)
		return nil
	}

	var raw elementRefRaw
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*r = ElementRef(raw)
	r.normalize()
	return nil
}

// normalize expands {element: "Screen.element"} into its two parts.
func (r *ElementRef) normalize() {
	if r.Screen == "" && !r.IsInline() && strings.Contains(r.Element, ".") {
		parsed := ParseElementRef(r.Element)
		r.Screen, r.Element = parsed.Screen, parsed.Element
	}
}

// IsInline returns true if the reference carries its own selector.
func (r *ElementRef) IsInline() bool {
	return r.CSS != "" || r.XPath != ""
}

// IsEmpty returns true if nothing identifies an element.
func (r *ElementRef) IsEmpty() bool {
	return !r.IsInline() && r.Element == ""
}

// Validate checks that the reference can be resolved.
func (r *ElementRef) Validate() error {
	switch {
	case r.IsEmpty():
		return fmt.Errorf("element reference is empty")
	case r.CSS != "" && r.XPath != "":
		return fmt.Errorf("element reference has both css and xpath")
	case !r.IsInline() && r.Screen == "":
		return fmt.Errorf("element reference %q must be written as Screen.element", r.Element)
	case !r.IsInline() && r.Iframe != "":
		return fmt.Errorf("iframe is only allowed with css or xpath selectors")
	}
	return nil
}

// Key returns "Screen.element" for registry references and "" otherwise.
func (r *ElementRef) Key() string {
	if r.IsInline() || r.IsEmpty() {
		return ""
	}
	return r.Screen + "." + r.Element
}

// Describe returns a human-readable description.
func (r *ElementRef) Describe() string {
	var s string
	switch {
	case r.CSS != "":
		s = "css=\"" + r.CSS + "\""
	case r.XPath != "":
		s = "xpath=\"" + r.XPath + "\""
	default:
		return r.Key()
	}
	if r.Iframe != "" {
		s += " in iframe \"" + r.Iframe + "\""
	}
	return s
}
