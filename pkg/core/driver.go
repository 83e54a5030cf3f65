// Package core provides the execution model shared by the runner, the
// browser driver and the engine: the driver contract and the error taxonomy.
package core

import (
	"context"
	"time"

	"github.com/devicelab-dev/webflow-runner/pkg/flow"
)

// Driver defines the interface for executing steps against one browser page.
// The Runner handles flow logic; Driver just executes individual commands.
type Driver interface {
	// Execute runs a single step and returns the result
	Execute(step flow.Step) *CommandResult

	// Screenshot captures the current page as PNG
	Screenshot() ([]byte, error)

	// Hierarchy captures the current page markup
	Hierarchy() ([]byte, error)

	// GetPlatformInfo returns browser/platform information
	GetPlatformInfo() *PlatformInfo
}

// SessionFactory creates one isolated browser page per scenario.
// The returned release func closes the page and its context; it is safe to
// call more than once.
type SessionFactory interface {
	NewSession(ctx context.Context, variables map[string]string) (Driver, func(), error)
}

// CommandResult represents the outcome of executing a single command
type CommandResult struct {
	// Core outcome
	Success  bool          `json:"success"`
	Error    error         `json:"-"`
	Duration time.Duration `json:"duration"`

	// Human-readable output
	Message string `json:"message,omitempty"`

	// Element information (for click, assert, scroll, etc.)
	Element *ElementInfo `json:"element,omitempty"`

	// Generic data for command-specific results
	// Examples: resolved descriptor, screenshot path, matched count
	Data interface{} `json:"data,omitempty"`

	// Debug information (internal details, not for reporting)
	Debug interface{} `json:"-"`
}

// ElementInfo describes the element a command targeted
type ElementInfo struct {
	Screen   string `json:"screen,omitempty"`
	Name     string `json:"name,omitempty"`
	Selector string `json:"selector"`
	Type     string `json:"type,omitempty"`
	Iframe   string `json:"iframe,omitempty"`
	Text     string `json:"text,omitempty"`
	Bounds   Bounds `json:"bounds"`
}

// Bounds represents element position and size
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PlatformInfo contains browser and page details
type PlatformInfo struct {
	Platform       string `json:"platform"`                 // web
	BrowserName    string `json:"browserName"`              // chromium, firefox, webkit
	BrowserVersion string `json:"browserVersion,omitempty"` // e.g., "120.0.6099.28"
	Headless       bool   `json:"headless"`
	ViewportWidth  int    `json:"viewportWidth,omitempty"`
	ViewportHeight int    `json:"viewportHeight,omitempty"`
	BaseURL        string `json:"baseUrl,omitempty"`
}
