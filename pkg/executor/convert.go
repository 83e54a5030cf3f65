package executor

import (
	"github.com/devicelab-dev/webflow-runner/pkg/core"
	"github.com/devicelab-dev/webflow-runner/pkg/report"
)

// commandResultToElement converts core.CommandResult to report.Element.
func commandResultToElement(r *core.CommandResult) *report.Element {
	if r == nil || r.Element == nil {
		return nil
	}

	el := r.Element
	element := &report.Element{
		Found:    r.Success,
		Selector: el.Selector,
		Iframe:   el.Iframe,
		Text:     el.Text,
	}
	if el.Screen != "" {
		element.Name = el.Screen + "." + el.Name
	}

	// Convert bounds
	if el.Bounds != (core.Bounds{}) {
		element.Bounds = &report.Bounds{
			X:      el.Bounds.X,
			Y:      el.Bounds.Y,
			Width:  el.Bounds.Width,
			Height: el.Bounds.Height,
		}
	}

	return element
}

// commandResultToError converts core.CommandResult error to report.Error.
// The type is the error category, so reports group failures the same way
// the engine classifies them.
func commandResultToError(r *core.CommandResult) *report.Error {
	if r == nil || r.Success {
		return nil
	}

	errType := core.CategoryOf(r.Error).String()
	message := "step failed"
	if r.Error != nil {
		message = r.Error.Error()
	}

	// Use message from result if available
	if r.Message != "" {
		message = r.Message
	}

	var details string
	if r.Error != nil && r.Message != "" && r.Message != r.Error.Error() {
		details = r.Error.Error()
	}

	return &report.Error{
		Type:    errType,
		Message: message,
		Details: details,
	}
}
