// Package config handles configuration for webflow-runner.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/devicelab-dev/webflow-runner/pkg/core"
	"gopkg.in/yaml.v3"
)

// Defaults applied by Merge.
const (
	DefaultBrowser   = "chromium"
	DefaultTimeoutMs = 5000
	DefaultWidth     = 1280
	DefaultHeight    = 720
	DefaultOutput    = "reports"
)

// Default store locations, relative to the workspace.
var (
	DefaultLocators = filepath.Join("locators", "locators.xlsx")
	DefaultTestData = filepath.Join("test-data", "testData.xlsx")
)

// Browsers lists the supported browser names.
var Browsers = []string{"chromium", "firefox", "webkit"}

// Config represents the workspace configuration (config.yaml).
type Config struct {
	// Flow selection
	Flows       []string `yaml:"flows"`       // Glob patterns for flows
	IncludeTags []string `yaml:"includeTags"` // Tags to include
	ExcludeTags []string `yaml:"excludeTags"` // Tags to exclude

	// Execution settings
	Env       map[string]string `yaml:"env"`       // Environment variables
	BaseURL   string            `yaml:"baseUrl"`   // Prefix for relative navigate URLs
	TimeoutMs int               `yaml:"timeoutMs"` // Default wait for actions and assertions
	Output    string            `yaml:"output"`    // Report directory

	// Data stores
	Locators string `yaml:"locators"` // Locator table (xlsx, csv or yaml)
	TestData string `yaml:"testData"` // Test data table (xlsx, csv or yaml)

	// Browser settings
	Browser Browser `yaml:"browser"`
}

// Browser configures the browser each scenario runs in.
type Browser struct {
	Name     string   `yaml:"name"`     // chromium, firefox or webkit
	Headless *bool    `yaml:"headless"` // Defaults to true
	SlowMoMs int      `yaml:"slowMoMs"` // Delay between browser operations
	Viewport Viewport `yaml:"viewport"`
}

// Viewport is the page size in CSS pixels.
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// IsHeadless returns the headless setting, true when unset.
func (b Browser) IsHeadless() bool {
	return b.Headless == nil || *b.Headless
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, core.ErrInvalidConfig.
			WithMessage(fmt.Sprintf("invalid config %s", path)).
			WithCause(err)
	}

	return &cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	// Try config.yaml first
	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// Try config.yml
	configPath = filepath.Join(dir, "config.yml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// No config file found, return empty config
	return &Config{}, nil
}

// IsConfigFile reports whether name is a workspace config file name.
func IsConfigFile(name string) bool {
	base := filepath.Base(name)
	return base == "config.yaml" || base == "config.yml"
}

// Merge fills unset fields with defaults. Relative store paths are resolved
// against dir.
func (c *Config) Merge(dir string) {
	if c.Browser.Name == "" {
		c.Browser.Name = DefaultBrowser
	}
	c.Browser.Name = strings.ToLower(c.Browser.Name)
	if c.Browser.Viewport.Width == 0 {
		c.Browser.Viewport.Width = DefaultWidth
	}
	if c.Browser.Viewport.Height == 0 {
		c.Browser.Viewport.Height = DefaultHeight
	}
	if c.TimeoutMs == 0 {
		c.TimeoutMs = DefaultTimeoutMs
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.Locators == "" {
		c.Locators = DefaultLocators
	}
	if c.TestData == "" {
		c.TestData = DefaultTestData
	}
	if c.Env == nil {
		c.Env = map[string]string{}
	}
	c.Locators = resolvePath(dir, c.Locators)
	c.TestData = resolvePath(dir, c.TestData)
}

func resolvePath(dir, path string) string {
	if dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// Validate checks values Merge cannot default.
func (c *Config) Validate() error {
	known := false
	for _, b := range Browsers {
		if c.Browser.Name == b {
			known = true
			break
		}
	}
	if !known {
		return core.ErrInvalidConfig.WithMessage(
			fmt.Sprintf("unknown browser %q (expected one of %s)", c.Browser.Name, strings.Join(Browsers, ", ")))
	}
	if c.TimeoutMs < 0 {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("timeoutMs must not be negative, got %d", c.TimeoutMs))
	}
	if c.Browser.Viewport.Width < 0 || c.Browser.Viewport.Height < 0 {
		return core.ErrInvalidConfig.WithMessage("viewport dimensions must not be negative")
	}
	return nil
}
