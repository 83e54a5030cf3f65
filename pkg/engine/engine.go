// Package engine runs actions and assertions against a browser page.
//
// Every operation follows one sequence: enter the descriptor's scope, wait for
// the target, perform or check, then wrap any failure. Actions fail with
// *core.ActionError and assertions with *core.AssertionError. Scope failures
// (core.ErrIframeNotFound, core.ErrIframeContentUnavailable) are returned as is.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/devicelab-dev/webflow-runner/pkg/browser"
	"github.com/devicelab-dev/webflow-runner/pkg/core"
	"github.com/devicelab-dev/webflow-runner/pkg/locator"
	"github.com/devicelab-dev/webflow-runner/pkg/logger"
	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds each wait when neither the engine nor the call sets one.
const DefaultTimeout = 5 * time.Second

// Engine holds settings shared by all operations. It keeps no page state;
// callers pass the scenario's page into every call.
type Engine struct {
	timeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout sets the default wait timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// New creates an engine.
func New(opts ...Option) *Engine {
	e := &Engine{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DefaultWait returns the engine's wait timeout.
func (e *Engine) DefaultWait() time.Duration { return e.timeout }

// CallOption adjusts a single operation.
type CallOption func(*call)

type call struct {
	timeout time.Duration
}

// Timeout overrides the wait timeout for one call. Zero keeps the default.
func Timeout(d time.Duration) CallOption {
	return func(c *call) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func (e *Engine) callSettings(opts []CallOption) call {
	c := call{timeout: e.timeout}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// EnterScope returns the document d's selector is evaluated in: the page
// itself, or the content document of the iframe d names.
func EnterScope(page browser.Page, d locator.Descriptor) (browser.Document, error) {
	if !d.IsScoped() {
		return page, nil
	}

	sel := d.Scope.IframeSelector
	details := map[string]interface{}{"iframe": sel, "selector": d.Selector}

	frame, err := page.QuerySelector(sel)
	if err != nil {
		return nil, core.ErrIframeNotFound.
			WithMessage(fmt.Sprintf("Iframe not found: %s", sel)).
			WithDetails(details).
			WithCause(err)
	}
	if frame == nil {
		return nil, core.ErrIframeNotFound.
			WithMessage(fmt.Sprintf("Iframe not found: %s", sel)).
			WithDetails(details)
	}

	doc, err := frame.ContentDocument()
	if err != nil || doc == nil {
		e := core.ErrIframeContentUnavailable.
			WithMessage(fmt.Sprintf("Failed to get content frame from: %s", sel)).
			WithDetails(details)
		if err != nil {
			e = e.WithCause(err)
		}
		return nil, e
	}
	return doc, nil
}

type opKind int

const (
	actionOp opKind = iota
	assertionOp
)

// op is one action or assertion.
type op struct {
	name   string
	kind   opKind
	target locator.Descriptor
	// wait is the state to wait for before perform; empty skips the wait
	// and perform receives a nil element.
	wait browser.WaitState
	// absent makes a missing iframe behave as an empty document.
	absent  bool
	perform func(doc browser.Document, el browser.Element) error
}

// run is the shared resolve, wait, perform, wrap sequence.
func (e *Engine) run(page browser.Page, o op, opts []CallOption) error {
	c := e.callSettings(opts)
	log := logger.WithFields(logger.Fields{
		"op":       o.name,
		"selector": o.target.Selector,
		"scope":    o.target.Scope.String(),
	})
	log.Debug("start")

	doc, err := EnterScope(page, o.target)
	if err != nil {
		if !(o.absent && errors.Is(err, core.ErrIframeNotFound)) {
			log.WithField("error", err).Debug("scope failed")
			return err
		}
		doc = absentDocument{}
	}

	var el browser.Element
	if o.wait != "" {
		el, err = doc.WaitForSelector(o.target.Query(), o.wait, c.timeout)
		if err != nil {
			return o.fail(log, err)
		}
	}

	if err := o.perform(doc, el); err != nil {
		return o.fail(log, err)
	}
	log.Debug("ok")
	return nil
}

func (o op) fail(log *logrus.Entry, err error) error {
	var wrapped error
	if o.kind == actionOp {
		wrapped = &core.ActionError{
			Action:   o.name,
			Selector: o.target.Selector,
			Scope:    o.target.Scope.String(),
			Cause:    err,
		}
	} else {
		var ae *core.AssertionError
		if errors.As(err, &ae) {
			if ae.Assertion == "" {
				ae.Assertion = o.name
			}
			if ae.Selector == "" {
				ae.Selector = o.target.Selector
			}
			wrapped = ae
		} else {
			wrapped = &core.AssertionError{Assertion: o.name, Selector: o.target.Selector, Cause: err}
		}
	}
	log.Debug(wrapped.Error())
	return wrapped
}

// first returns the first match in doc, or core.ErrNoSuchElement.
func first(doc browser.Document, d locator.Descriptor) (browser.Element, error) {
	el, err := doc.QuerySelector(d.Query())
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, core.ErrNoSuchElement.
			WithMessage(fmt.Sprintf("no element matches %s", d.Selector)).
			WithDetails(map[string]interface{}{"selector": d.Selector})
	}
	return el, nil
}

// absentDocument stands in for the content of an iframe that does not exist.
type absentDocument struct{}

func (absentDocument) QuerySelector(string) (browser.Element, error) { return nil, nil }

func (absentDocument) QuerySelectorAll(string) ([]browser.Element, error) { return nil, nil }

func (absentDocument) WaitForSelector(sel string, state browser.WaitState, _ time.Duration) (browser.Element, error) {
	if state == browser.StateHidden {
		return nil, nil
	}
	return nil, core.ErrNoSuchElement.WithMessage(fmt.Sprintf("no element matches %s", sel))
}

// mismatch reports an expected/actual difference.
func mismatch(expected, actual string) error {
	return &core.AssertionError{Expected: expected, Actual: actual}
}

// failf reports a predicate that does not hold.
func failf(format string, args ...interface{}) error {
	return &core.AssertionError{Message: fmt.Sprintf(format, args...)}
}
