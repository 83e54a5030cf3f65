// Package flow handles parsing and representation of web scenario YAML files.
package flow

// Flow represents a parsed scenario file.
type Flow struct {
	SourcePath string // Path to the source file
	Config     Config // Flow configuration (url, tags, etc.)
	Steps      []Step // Steps to execute
}

// Config represents flow-level configuration.
type Config struct {
	URL            string            `yaml:"url"` // Opened before the first step when set
	Name           string            `yaml:"name"`
	Tags           []string          `yaml:"tags"`
	Env            map[string]string `yaml:"env"`
	TestData       string            `yaml:"testData"` // Scenario query for the test data store
	Timeout        int               `yaml:"timeout"`  // Default wait per step in ms
	OnFlowStart    []Step            `yaml:"-"`        // Lifecycle hook: runs before commands
	OnFlowComplete []Step            `yaml:"-"`        // Lifecycle hook: runs after commands
}
