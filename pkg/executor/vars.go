package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/devicelab-dev/webflow-runner/pkg/core"
	"github.com/devicelab-dev/webflow-runner/pkg/flow"
	"github.com/devicelab-dev/webflow-runner/pkg/logger"
)

// envVarPattern matches ALL_CAPS identifiers that look like env variables
var envVarPattern = regexp.MustCompile(`\b([A-Z][A-Z0-9_]{2,})\b`)

// bracedVarPattern matches ${NAME}.
var bracedVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Variables holds the variables visible to one flow and expands them in steps.
type Variables struct {
	values  map[string]string
	flowDir string // Directory of current flow (for resolving relative paths)
}

// NewVariables creates an empty variable set.
func NewVariables() *Variables {
	return &Variables{values: make(map[string]string)}
}

// SetFlowDir sets the current flow directory for relative path resolution.
func (v *Variables) SetFlowDir(dir string) {
	v.flowDir = dir
}

// Set sets a variable.
func (v *Variables) Set(name, value string) {
	v.values[name] = value
}

// SetAll sets multiple variables.
func (v *Variables) SetAll(vars map[string]string) {
	for k, val := range vars {
		v.Set(k, val)
	}
}

// ImportSystemEnv imports system environment variables.
// Only imports variables matching the pattern (uppercase with underscores).
func (v *Variables) ImportSystemEnv() {
	for _, env := range os.Environ() {
		name, value, ok := strings.Cut(env, "=")
		if ok && envVarPattern.MatchString(name) {
			v.Set(name, value)
		}
	}
}

// Get returns a variable value.
func (v *Variables) Get(name string) string {
	return v.values[name]
}

// Snapshot returns a copy of all variables.
func (v *Variables) Snapshot() map[string]string {
	out := make(map[string]string, len(v.values))
	for k, val := range v.values {
		out[k] = val
	}
	return out
}

// Expand expands ${NAME} and $NAME syntax in text.
// Unknown ${NAME} references expand to the empty string; unknown $NAME is
// left alone so literal dollar signs survive.
func (v *Variables) Expand(text string) string {
	if !strings.Contains(text, "$") {
		return text
	}

	text = bracedVarPattern.ReplaceAllStringFunc(text, func(m string) string {
		name := bracedVarPattern.FindStringSubmatch(m)[1]
		value, ok := v.values[name]
		if !ok {
			logger.Debug("variable %s is not defined, expanding to empty", name)
		}
		return value
	})

	// Longest names first to avoid partial matches
	names := make([]string, 0, len(v.values))
	for name := range v.values {
		if envVarPattern.MatchString(name) {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return len(names[i]) > len(names[j])
	})
	for _, name := range names {
		text = expandDollarVar(text, name, v.values[name])
	}
	return text
}

// expandDollarVar replaces $VAR with value, checking word boundaries.
func expandDollarVar(text, name, value string) string {
	pattern := "$" + name
	idx := 0
	for {
		pos := strings.Index(text[idx:], pattern)
		if pos == -1 {
			break
		}
		pos += idx

		// Followed by an identifier character means a different variable
		endPos := pos + len(pattern)
		if endPos < len(text) {
			next := text[endPos]
			if (next >= 'a' && next <= 'z') || (next >= 'A' && next <= 'Z') ||
				(next >= '0' && next <= '9') || next == '_' {
				idx = endPos
				continue
			}
		}

		text = text[:pos] + value + text[endPos:]
		idx = pos + len(value)
	}
	return text
}

// ResolvePath resolves a relative path against the flow directory.
func (v *Variables) ResolvePath(path string) string {
	if filepath.IsAbs(path) || v.flowDir == "" {
		return path
	}
	return filepath.Join(v.flowDir, path)
}

// ExecuteDefineVariables handles defineVariables step.
func (v *Variables) ExecuteDefineVariables(step *flow.DefineVariablesStep) *core.CommandResult {
	for k, val := range step.Env {
		v.Set(k, v.Expand(val))
	}
	return &core.CommandResult{
		Success: true,
		Message: fmt.Sprintf("Defined %d variable(s)", len(step.Env)),
	}
}

// withEnvVars applies variables and returns a restore function.
// Variables that did not exist before are removed again on restore.
func (v *Variables) withEnvVars(env map[string]string) func() {
	type saved struct {
		value   string
		existed bool
	}
	old := make(map[string]saved, len(env))
	for k, val := range env {
		prev, ok := v.values[k]
		old[k] = saved{prev, ok}
		v.Set(k, v.Expand(val))
	}
	return func() {
		for k, s := range old {
			if s.existed {
				v.values[k] = s.value
			} else {
				delete(v.values, k)
			}
		}
	}
}

// ParseInt parses an integer from string, supporting variable expansion.
func (v *Variables) ParseInt(s string, defaultVal int) int {
	s = v.Expand(s)
	s = strings.ReplaceAll(s, "_", "") // Support 10_000 format
	if val, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return val
	}
	return defaultVal
}

// ExpandStep returns a copy of step with variables expanded in its string
// fields. The parsed step is left untouched so repeated steps see fresh values.
// Steps without expandable fields are returned as is.
func (v *Variables) ExpandStep(step flow.Step) flow.Step {
	x := v.Expand
	switch s := step.(type) {
	case *flow.NavigateStep:
		c := *s
		c.URL = x(c.URL)
		return &c
	case *flow.ElementStep:
		c := *s
		c.Target = v.expandRef(c.Target)
		return &c
	case *flow.FillStep:
		c := *s
		c.Target = v.expandRef(c.Target)
		c.Text = x(c.Text)
		return &c
	case *flow.ClearFocusStep:
		c := *s
		return &c
	case *flow.SelectStep:
		c := *s
		c.Target = v.expandRef(c.Target)
		c.Value = x(c.Value)
		return &c
	case *flow.ScrollStep:
		c := *s
		c.Target = v.expandRef(c.Target)
		return &c
	case *flow.DragAndDropStep:
		c := *s
		c.Source = v.expandRef(c.Source)
		c.Target = v.expandRef(c.Target)
		return &c
	case *flow.AssertTextStep:
		c := *s
		c.Target = v.expandRef(c.Target)
		c.Equals, c.Contains, c.Matches = x(c.Equals), x(c.Contains), x(c.Matches)
		return &c
	case *flow.AssertValueStep:
		c := *s
		c.Target = v.expandRef(c.Target)
		c.Equals, c.Contains, c.Selected = x(c.Equals), x(c.Contains), x(c.Selected)
		return &c
	case *flow.AssertAttributeStep:
		c := *s
		c.Target = v.expandRef(c.Target)
		c.Name, c.Data = x(c.Name), x(c.Data)
		c.Equals, c.Contains = x(c.Equals), x(c.Contains)
		c.Class, c.NotClass = x(c.Class), x(c.NotClass)
		return &c
	case *flow.AssertFocusedTypeStep:
		c := *s
		c.Tag = x(c.Tag)
		return &c
	case *flow.AssertCountStep:
		c := *s
		c.Target = v.expandRef(c.Target)
		return &c
	case *flow.AssertDOMStep:
		c := *s
		c.Target = v.expandRef(c.Target)
		c.Tag, c.Parent = x(c.Tag), x(c.Parent)
		c.InnerText, c.InnerHTML = x(c.InnerText), x(c.InnerHTML)
		c.Property, c.Value = x(c.Property), x(c.Value)
		return &c
	case *flow.AssertStyleStep:
		c := *s
		c.Target = v.expandRef(c.Target)
		c.Property, c.Value = x(c.Property), x(c.Value)
		c.Display, c.FontSize = x(c.Display), x(c.FontSize)
		c.BackgroundColor, c.Color = x(c.BackgroundColor), x(c.Color)
		return &c
	case *flow.AssertOptionsStep:
		c := *s
		c.Target = v.expandRef(c.Target)
		c.HasValue, c.HasText = x(c.HasValue), x(c.HasText)
		c.Enabled, c.Disabled = x(c.Enabled), x(c.Disabled)
		return &c
	case *flow.AssertURLStep:
		c := *s
		c.Equals, c.Contains, c.Matches, c.Path = x(c.Equals), x(c.Contains), x(c.Matches), x(c.Path)
		return &c
	case *flow.AssertTitleStep:
		c := *s
		c.Equals, c.Contains, c.Matches = x(c.Equals), x(c.Contains), x(c.Matches)
		return &c
	case *flow.TakeScreenshotStep:
		c := *s
		c.Path = x(c.Path)
		return &c
	}
	return step
}

// expandRef expands variables in every part of an element reference.
func (v *Variables) expandRef(ref flow.ElementRef) flow.ElementRef {
	ref.Screen = v.Expand(ref.Screen)
	ref.Element = v.Expand(ref.Element)
	ref.CSS = v.Expand(ref.CSS)
	ref.XPath = v.Expand(ref.XPath)
	ref.Iframe = v.Expand(ref.Iframe)
	return ref
}
