package core

import (
	"errors"
	"fmt"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: screen_not_found, iframe_not_found, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is matches another ExecutionError by code, so copies made with
// WithCause/WithMessage/WithDetails still match their sentinel.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok || t.Code == "" {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Predefined errors
var (
	// Locator registry errors
	ErrStoreUnavailable = &ExecutionError{
		Category: ErrCategoryLocator,
		Code:     "store_unavailable",
		Message:  "locator store unavailable",
	}
	ErrScreenNotFound = &ExecutionError{
		Category: ErrCategoryLocator,
		Code:     "screen_not_found",
		Message:  "no locators found for screen",
	}
	ErrElementNotFound = &ExecutionError{
		Category: ErrCategoryLocator,
		Code:     "element_not_found",
		Message:  "no locator found for element",
	}
	ErrInvalidDescriptor = &ExecutionError{
		Category: ErrCategoryLocator,
		Code:     "invalid_descriptor",
		Message:  "invalid locator descriptor",
	}

	// Scope errors
	ErrIframeNotFound = &ExecutionError{
		Category: ErrCategoryScope,
		Code:     "iframe_not_found",
		Message:  "iframe not found",
	}
	ErrIframeContentUnavailable = &ExecutionError{
		Category: ErrCategoryScope,
		Code:     "iframe_content_unavailable",
		Message:  "failed to get content frame",
	}

	// Action errors
	ErrActionFailed = &ExecutionError{
		Category: ErrCategoryAction,
		Code:     "action_failed",
		Message:  "action failed",
	}
	ErrGeometryUnavailable = &ExecutionError{
		Category: ErrCategoryAction,
		Code:     "geometry_unavailable",
		Message:  "could not get bounding boxes",
	}

	// Assertion errors
	ErrAssertionFailed = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "assertion_failed",
		Message:  "assertion failed",
	}
	ErrNoSuchElement = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "no_such_element",
		Message:  "no element matches selector",
	}

	// Timeout errors
	ErrTimeout = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "timeout",
		Message:  "operation timed out",
	}
	ErrWaitTimeout = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "wait_timeout",
		Message:  "wait condition timed out",
	}

	// Browser errors
	ErrBrowserUnavailable = &ExecutionError{
		Category: ErrCategoryApp,
		Code:     "browser_unavailable",
		Message:  "could not start browser session",
	}

	// Config errors
	ErrInvalidConfig = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
	ErrMissingRequired = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "missing_required",
		Message:  "missing required field",
	}

	// Test data errors
	ErrDataUnavailable = &ExecutionError{
		Category: ErrCategoryData,
		Code:     "data_unavailable",
		Message:  "test data store unavailable",
	}
	ErrTestDataNotFound = &ExecutionError{
		Category: ErrCategoryData,
		Code:     "test_data_not_found",
		Message:  "no test data record matches scenario",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// ScopeLabel renders a scope for error messages: "top" or "iframe <selector>".
func ScopeLabel(iframeSelector string) string {
	if iframeSelector == "" {
		return "top"
	}
	return "iframe " + iframeSelector
}

// ActionError is returned when a browser interaction could not be completed.
type ActionError struct {
	Action   string
	Selector string
	Scope    string
	Cause    error
}

func (e *ActionError) Error() string {
	msg := fmt.Sprintf("%s failed on %q", e.Action, e.Selector)
	if e.Scope != "" && e.Scope != "top" {
		msg += " in " + e.Scope
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ActionError) Unwrap() error { return e.Cause }

// Is reports ErrActionFailed as a match.
func (e *ActionError) Is(target error) bool {
	return target == ErrActionFailed
}

// AssertionError is returned when a page or element check does not hold.
// Expected and Actual are empty when the check is a plain predicate.
type AssertionError struct {
	Assertion string
	Selector  string
	Message   string
	Expected  string
	Actual    string
	Cause     error
}

func (e *AssertionError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Assertion)
	if e.Selector != "" {
		msg += fmt.Sprintf(" for %q", e.Selector)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Expected != "" || e.Actual != "" {
		msg += fmt.Sprintf(" (expected %q, got %q)", e.Expected, e.Actual)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *AssertionError) Unwrap() error { return e.Cause }

// Is reports ErrAssertionFailed as a match.
func (e *AssertionError) Is(target error) bool {
	return target == ErrAssertionFailed
}

// CategoryOf classifies any error returned while running a step.
func CategoryOf(err error) ErrorCategory {
	if err == nil {
		return ErrCategoryNone
	}
	var assertErr *AssertionError
	if errors.As(err, &assertErr) {
		return ErrCategoryAssertion
	}
	var actionErr *ActionError
	if errors.As(err, &actionErr) {
		if errors.Is(err, ErrTimeout) || errors.Is(err, ErrWaitTimeout) {
			return ErrCategoryTimeout
		}
		return ErrCategoryAction
	}
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Category
	}
	return ErrCategoryApp
}
