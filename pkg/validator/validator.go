// Package validator validates scenario files before execution.
// It parses all files upfront, resolves runFlow references, checks element
// references against the locator registry, and detects errors.
package validator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/devicelab-dev/webflow-runner/pkg/config"
	"github.com/devicelab-dev/webflow-runner/pkg/flow"
	"github.com/devicelab-dev/webflow-runner/pkg/locator"
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	File    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Result contains the validation result.
type Result struct {
	// TestCases is the list of top-level flow files in execution order.
	// runFlow targets are validated but only listed when selected themselves.
	TestCases []string
	// Errors contains all validation errors found.
	Errors []error
}

// IsValid returns true if there are no validation errors.
func (r *Result) IsValid() bool {
	return len(r.Errors) == 0
}

func (r *Result) addError(file, format string, args ...interface{}) {
	r.Errors = append(r.Errors, &ValidationError{File: file, Message: fmt.Sprintf(format, args...)})
}

// Validator validates flow files.
type Validator struct {
	includeTags []string
	excludeTags []string
	resolver    *locator.Resolver
}

// New creates a new Validator.
func New(includeTags, excludeTags []string) *Validator {
	return &Validator{
		includeTags: includeTags,
		excludeTags: excludeTags,
	}
}

// WithResolver enables element reference checks against a locator registry.
func (v *Validator) WithResolver(r *locator.Resolver) *Validator {
	v.resolver = r
	return v
}

// validation tracks state across one Validate call.
type validation struct {
	result      *Result
	parsed      map[string]*flow.Flow
	failed      map[string]bool
	selected    map[string]bool
	includeTags []string
	excludeTags []string
}

// Validate validates a file or directory.
// For a directory, config.yaml may narrow the flows with glob patterns and
// add tag filters; without patterns only top-level flow files are selected.
func (v *Validator) Validate(path string) *Result {
	run := &validation{
		result:      &Result{},
		parsed:      make(map[string]*flow.Flow),
		failed:      make(map[string]bool),
		selected:    make(map[string]bool),
		includeTags: v.includeTags,
		excludeTags: v.excludeTags,
	}

	info, err := os.Stat(path)
	if err != nil {
		run.result.addError(path, "cannot access: %v", err)
		return run.result
	}

	var files []string
	if info.IsDir() {
		cfg, err := config.LoadFromDir(path)
		if err != nil {
			run.result.addError(path, "config: %v", err)
			return run.result
		}
		run.includeTags = append(append([]string(nil), v.includeTags...), cfg.IncludeTags...)
		run.excludeTags = append(append([]string(nil), v.excludeTags...), cfg.ExcludeTags...)

		files, err = collectFlowFiles(path, cfg.Flows)
		if err != nil {
			run.result.addError(path, "failed to scan directory: %v", err)
			return run.result
		}
	} else {
		files = []string{path}
	}

	for _, file := range files {
		v.validateTestCase(run, file)
	}

	return run.result
}

// validateTestCase validates a top-level flow and records it when selected.
func (v *Validator) validateTestCase(run *validation, filePath string) {
	if run.selected[filePath] {
		return
	}
	f := v.validateFile(run, filePath, nil)
	if f == nil {
		return
	}
	if !flow.ShouldIncludeFlow(f, run.includeTags, run.excludeTags) {
		return
	}
	run.selected[filePath] = true
	run.result.TestCases = append(run.result.TestCases, filePath)
}

// validateFile parses a file once and validates its dependencies and
// element references. Returns nil when the file could not be parsed.
func (v *Validator) validateFile(run *validation, filePath string, chain []string) *flow.Flow {
	// Check for circular dependency
	for _, ancestor := range chain {
		if ancestor == filePath {
			cycle := append(append([]string(nil), chain...), filePath)
			run.result.addError(filePath, "circular dependency detected: %s", strings.Join(cycle, " -> "))
			return nil
		}
	}

	if f, ok := run.parsed[filePath]; ok {
		return f
	}
	if run.failed[filePath] {
		return nil
	}

	f, err := flow.ParseFile(filePath)
	if err != nil {
		run.failed[filePath] = true
		run.result.addError(filePath, "parse error: %v", err)
		return nil
	}
	run.parsed[filePath] = f

	newChain := append(append([]string(nil), chain...), filePath)
	v.validateSteps(run, f.Steps, filePath, newChain)

	// Also validate lifecycle hooks
	v.validateSteps(run, f.Config.OnFlowStart, filePath, newChain)
	v.validateSteps(run, f.Config.OnFlowComplete, filePath, newChain)

	return f
}

// validateSteps follows runFlow references and checks element references.
func (v *Validator) validateSteps(run *validation, steps []flow.Step, parentFile string, chain []string) {
	parentDir := filepath.Dir(parentFile)

	for _, step := range steps {
		switch s := step.(type) {
		case *flow.RunFlowStep:
			if s.File != "" && !strings.Contains(s.File, "$") {
				v.validateFile(run, resolveFilePath(parentDir, s.File), chain)
			}
			// Also check inline commands
			v.validateSteps(run, s.Steps, parentFile, chain)

		case *flow.RepeatStep:
			v.validateSteps(run, s.Steps, parentFile, chain)

		case flow.Targeted:
			v.checkRefs(run, parentFile, step, s.Targets())
		}
	}
}

// checkRefs verifies registry references resolve. References built from
// variables are only known at run time and are skipped.
func (v *Validator) checkRefs(run *validation, file string, step flow.Step, refs []*flow.ElementRef) {
	for _, ref := range refs {
		if v.resolver == nil || ref.IsInline() || strings.Contains(ref.Key(), "$") {
			continue
		}
		if _, err := v.resolver.Resolve(ref.Screen, ref.Element); err != nil {
			run.result.addError(file, "%s: %v", step.Describe(), err)
		}
	}
}

// collectFlowFiles selects flow files in dir. Without patterns only
// top-level files are used; patterns are globs relative to dir, "**" selects
// everything below dir, and "**/<glob>" matches file names at any depth.
func collectFlowFiles(dir string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return topLevelFlows(dir)
	}

	seen := make(map[string]bool)
	var files []string
	add := func(paths ...string) {
		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				files = append(files, p)
			}
		}
	}

	for _, pattern := range patterns {
		var matched []string
		var err error
		switch {
		case pattern == "**":
			matched, err = walkFlows(dir, "")
		case strings.HasPrefix(pattern, "**/"):
			matched, err = walkFlows(dir, strings.TrimPrefix(pattern, "**/"))
		default:
			matched, err = globFlows(dir, pattern)
		}
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}
		add(matched...)
	}

	return files, nil
}

// globFlows expands a glob; matched directories contribute every flow below them.
func globFlows(dir, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	var files []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if info.IsDir() {
			nested, err := walkFlows(m, "")
			if err != nil {
				return nil, err
			}
			files = append(files, nested...)
			continue
		}
		if isFlowFile(m) {
			files = append(files, m)
		}
	}
	return files, nil
}

// walkFlows collects flow files below dir whose base name matches nameGlob
// (every flow file when nameGlob is empty).
func walkFlows(dir, nameGlob string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isFlowFile(path) {
			return nil
		}
		if nameGlob != "" {
			ok, err := filepath.Match(nameGlob, info.Name())
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// topLevelFlows lists flow files directly inside dir.
func topLevelFlows(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if isFlowFile(path) {
			files = append(files, path)
		}
	}
	return files, nil
}

// isFlowFile reports whether path is a .yaml/.yml file other than config.
func isFlowFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return (ext == ".yaml" || ext == ".yml") && !config.IsConfigFile(path)
}

// resolveFilePath resolves a file path relative to a base directory.
func resolveFilePath(baseDir, filePath string) string {
	if filepath.IsAbs(filePath) {
		return filePath
	}
	return filepath.Join(baseDir, filePath)
}
