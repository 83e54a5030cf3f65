package core

// ErrorCategory classifies the type of error for better debugging and reporting
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryAssertion                       // Element not found, text mismatch, visibility check failed
	ErrCategoryTimeout                         // Operation timed out
	ErrCategoryConnection                      // Browser connection lost
	ErrCategoryApp                             // Browser crashed or could not be launched
	ErrCategoryConfig                          // Invalid configuration, missing required field
	ErrCategoryLocator                         // Locator store unreadable, unknown screen or element
	ErrCategoryScope                           // Iframe missing or without content document
	ErrCategoryAction                          // Interaction could not be completed
	ErrCategoryData                            // Test data store unreadable
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryAssertion:
		return "assertion"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryConnection:
		return "connection"
	case ErrCategoryApp:
		return "app"
	case ErrCategoryConfig:
		return "config"
	case ErrCategoryLocator:
		return "locator"
	case ErrCategoryScope:
		return "scope"
	case ErrCategoryAction:
		return "action"
	case ErrCategoryData:
		return "data"
	default:
		return "unknown"
	}
}
