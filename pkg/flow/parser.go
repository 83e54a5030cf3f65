package flow

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseError represents a parsing error with location info.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ParseFile parses a single scenario file.
func ParseFile(path string) (*Flow, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is user-provided flow file
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data, path)
}

// Parse parses scenario YAML content.
func Parse(data []byte, sourcePath string) (*Flow, error) {
	parts := splitYAMLDocuments(string(data))

	flow := &Flow{
		SourcePath: sourcePath,
	}

	if len(parts) == 0 {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    1,
			Message: "empty flow file",
		}
	}

	if len(parts) == 1 {
		if err := parseSteps(parts[0], flow); err != nil {
			return nil, err
		}
	} else {
		if err := parseConfig(parts[0], flow); err != nil {
			return nil, err
		}
		if err := parseSteps(parts[1], flow); err != nil {
			return nil, err
		}
	}

	return flow, nil
}

func splitYAMLDocuments(content string) []string {
	var parts []string
	var current strings.Builder
	inMultiline := false
	multilineIndent := 0

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if !inMultiline {
			if strings.HasSuffix(trimmed, "|") || strings.HasSuffix(trimmed, ">") ||
				strings.HasSuffix(trimmed, "|-") || strings.HasSuffix(trimmed, ">-") {
				inMultiline = true
				if i+1 < len(lines) {
					next := lines[i+1]
					multilineIndent = len(next) - len(strings.TrimLeft(next, " \t"))
				}
			}
		} else {
			indent := len(line) - len(strings.TrimLeft(line, " \t"))
			if trimmed != "" && indent < multilineIndent {
				inMultiline = false
			}
		}

		if !inMultiline && trimmed == "---" && strings.TrimLeft(line, " \t") == "---" {
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		} else {
			current.WriteString(line)
			current.WriteString("\n")
		}
	}

	if current.Len() > 0 {
		s := strings.TrimSpace(current.String())
		if s != "" {
			parts = append(parts, current.String())
		}
	}

	return parts
}

func parseConfig(content string, flow *Flow) error {
	var config Config
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return &ParseError{
			Path:    flow.SourcePath,
			Message: fmt.Sprintf("invalid config: %v", err),
		}
	}

	// Parse lifecycle hooks (onFlowStart, onFlowComplete)
	var rawConfig struct {
		OnFlowStart    []yaml.Node `yaml:"onFlowStart"`
		OnFlowComplete []yaml.Node `yaml:"onFlowComplete"`
	}
	if err := yaml.Unmarshal([]byte(content), &rawConfig); err != nil {
		return &ParseError{
			Path:    flow.SourcePath,
			Message: fmt.Sprintf("invalid config: %v", err),
		}
	}

	for _, node := range rawConfig.OnFlowStart {
		step, err := parseStep(&node, flow.SourcePath)
		if err != nil {
			return err
		}
		config.OnFlowStart = append(config.OnFlowStart, step)
	}

	for _, node := range rawConfig.OnFlowComplete {
		step, err := parseStep(&node, flow.SourcePath)
		if err != nil {
			return err
		}
		config.OnFlowComplete = append(config.OnFlowComplete, step)
	}

	flow.Config = config
	return nil
}

func parseSteps(content string, flow *Flow) error {
	var rawSteps []yaml.Node
	if err := yaml.Unmarshal([]byte(content), &rawSteps); err != nil {
		return &ParseError{
			Path:    flow.SourcePath,
			Message: fmt.Sprintf("invalid steps: %v", err),
		}
	}

	for _, node := range rawSteps {
		step, err := parseStep(&node, flow.SourcePath)
		if err != nil {
			return err
		}
		flow.Steps = append(flow.Steps, step)
	}

	return nil
}

func parseStep(node *yaml.Node, sourcePath string) (Step, error) {
	// Handle scalar nodes like "- clearFocus" (no colon, no params)
	if node.Kind == yaml.ScalarNode {
		stepType := node.Value
		if !isStepType(stepType) {
			return nil, &ParseError{
				Path:    sourcePath,
				Line:    node.Line,
				Message: fmt.Sprintf("unknown step type: %s", stepType),
			}
		}
		// Create empty value node for steps with no parameters
		emptyNode := &yaml.Node{Kind: yaml.MappingNode}
		return decodeStep(StepType(stepType), emptyNode, sourcePath)
	}

	if node.Kind != yaml.MappingNode {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: "step must be a mapping or command name",
		}
	}

	stepType, valueNode := extractStepType(node)
	if stepType == "" || valueNode == nil {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: "unknown step type",
		}
	}

	step, err := decodeStep(StepType(stepType), valueNode, sourcePath)
	if err != nil {
		return nil, err
	}
	if t, ok := step.(Targeted); ok {
		for _, ref := range t.Targets() {
			ref.normalize()
			if err := ref.Validate(); err != nil {
				return nil, wrapParseError(sourcePath, valueNode.Line, fmt.Errorf("%s: %w", stepType, err))
			}
		}
	}
	return step, nil
}

func extractStepType(node *yaml.Node) (string, *yaml.Node) {
	for i := 0; i < len(node.Content)-1; i += 2 {
		key := node.Content[i].Value
		if isStepType(key) {
			return key, node.Content[i+1]
		}
	}
	return "", nil
}

func isStepType(key string) bool {
	switch StepType(key) {
	case StepNavigate, StepFill, StepClick, StepDoubleClick, StepRightClick,
		StepHover, StepFocus, StepClearFocus, StepCheck, StepUncheck, StepSelect,
		StepScroll, StepDragAndDrop,
		StepAssertVisible, StepAssertHidden, StepAssertExists, StepAssertText, StepAssertValue,
		StepAssertAttribute, StepAssertChecked, StepAssertNotChecked,
		StepAssertRadioSelected, StepAssertRadioNotSelected,
		StepAssertEnabled, StepAssertDisabled, StepAssertFocused, StepAssertNotFocused,
		StepAssertFocusable, StepAssertFocusedType, StepAssertCount, StepAssertDOM,
		StepAssertStyle, StepAssertOptions, StepAssertURL, StepAssertTitle,
		StepRepeat, StepRunFlow, StepTakeScreenshot, StepDefineVariables:
		return true
	}
	return false
}

// decodeInto decodes a mapping into s, or hands a scalar to shorthand.
func decodeInto(valueNode *yaml.Node, sourcePath string, s interface{}, shorthand func(string)) error {
	if valueNode.Kind == yaml.ScalarNode {
		if shorthand == nil {
			return &ParseError{Path: sourcePath, Line: valueNode.Line, Message: "expected a mapping"}
		}
		shorthand(valueNode.Value)
		return nil
	}
	if err := valueNode.Decode(s); err != nil {
		return wrapParseError(sourcePath, valueNode.Line, err)
	}
	return nil
}

//nolint:gocyclo
func decodeStep(stepType StepType, valueNode *yaml.Node, sourcePath string) (Step, error) {
	switch stepType {
	case StepNavigate:
		var s NavigateStep
		if err := decodeInto(valueNode, sourcePath, &s, func(v string) { s.URL = v }); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepClick, StepDoubleClick, StepRightClick, StepHover, StepFocus,
		StepCheck, StepUncheck, StepAssertVisible, StepAssertHidden, StepAssertExists,
		StepAssertChecked, StepAssertNotChecked, StepAssertRadioSelected, StepAssertRadioNotSelected,
		StepAssertEnabled, StepAssertDisabled,
		StepAssertFocused, StepAssertNotFocused, StepAssertFocusable:
		var s ElementStep
		if err := decodeInto(valueNode, sourcePath, &s, func(v string) { s.Target = ParseElementRef(v) }); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepFill:
		var s FillStep
		if err := decodeInto(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepClearFocus:
		return &ClearFocusStep{BaseStep: BaseStep{StepType: stepType}}, nil

	case StepSelect:
		var s SelectStep
		if err := decodeInto(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepScroll:
		var s ScrollStep
		if err := decodeInto(valueNode, sourcePath, &s, func(v string) { parseScrollShorthand(&s, v) }); err != nil {
			return nil, err
		}
		if s.To != "" && s.To != ScrollTop && s.To != ScrollBottom {
			return nil, &ParseError{Path: sourcePath, Line: valueNode.Line, Message: fmt.Sprintf("scroll: invalid position %q (want top or bottom)", s.To)}
		}
		s.StepType = stepType
		return &s, nil

	case StepDragAndDrop:
		var s DragAndDropStep
		if err := decodeInto(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepAssertText:
		var s AssertTextStep
		if err := decodeInto(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepAssertValue:
		var s AssertValueStep
		if err := decodeInto(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepAssertAttribute:
		var s AssertAttributeStep
		if err := decodeInto(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		if s.Name == "" && s.Data == "" && s.Class == "" && s.NotClass == "" {
			return nil, &ParseError{Path: sourcePath, Line: valueNode.Line, Message: "assertAttribute: one of name, data, class or notClass is required"}
		}
		s.StepType = stepType
		return &s, nil

	case StepAssertFocusedType:
		var s AssertFocusedTypeStep
		if err := decodeInto(valueNode, sourcePath, &s, func(v string) { s.Tag = v }); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepAssertCount:
		var s AssertCountStep
		if err := decodeInto(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		if s.Equals == nil && s.AtLeast == nil && s.AtMost == nil && !s.Zero && !s.Any {
			return nil, &ParseError{Path: sourcePath, Line: valueNode.Line, Message: "assertCount: one of equals, atLeast, atMost, zero or any is required"}
		}
		if s.Zero && s.Any {
			return nil, &ParseError{Path: sourcePath, Line: valueNode.Line, Message: "assertCount: zero and any are mutually exclusive"}
		}
		s.StepType = stepType
		return &s, nil

	case StepAssertDOM:
		var s AssertDOMStep
		if err := decodeInto(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepAssertStyle:
		var s AssertStyleStep
		if err := decodeInto(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepAssertOptions:
		var s AssertOptionsStep
		if err := decodeInto(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepAssertURL:
		var s AssertURLStep
		if err := decodeInto(valueNode, sourcePath, &s, func(v string) { s.Contains = v }); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepAssertTitle:
		var s AssertTitleStep
		if err := decodeInto(valueNode, sourcePath, &s, func(v string) { s.Equals = v }); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepRepeat:
		return parseRepeatStep(valueNode, sourcePath)

	case StepRunFlow:
		return parseRunFlowStep(valueNode, sourcePath)

	case StepTakeScreenshot:
		var s TakeScreenshotStep
		if err := decodeInto(valueNode, sourcePath, &s, func(v string) { s.Path = v }); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepDefineVariables:
		var s DefineVariablesStep
		s.Env = make(map[string]string)
		if valueNode.Kind == yaml.MappingNode {
			for i := 0; i < len(valueNode.Content)-1; i += 2 {
				s.Env[valueNode.Content[i].Value] = valueNode.Content[i+1].Value
			}
		}
		s.StepType = stepType
		return &s, nil

	default:
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    valueNode.Line,
			Message: fmt.Sprintf("unknown step type: %s", stepType),
		}
	}
}

// parseScrollShorthand handles "scroll: top", "scroll: 300" and "scroll: Screen.element".
func parseScrollShorthand(s *ScrollStep, v string) {
	v = strings.TrimSpace(v)
	switch v {
	case ScrollTop, ScrollBottom:
		s.To = v
		return
	}
	if px, err := strconv.Atoi(v); err == nil {
		s.By = px
		return
	}
	s.Target = ParseElementRef(v)
}

// parseRepeatStep handles repeat with nested commands.
func parseRepeatStep(valueNode *yaml.Node, sourcePath string) (Step, error) {
	var raw struct {
		Times    string      `yaml:"times"` // String for variable support
		Commands []yaml.Node `yaml:"commands"`
		Optional bool        `yaml:"optional"`
		Label    string      `yaml:"label"`
	}

	if err := valueNode.Decode(&raw); err != nil {
		return nil, wrapParseError(sourcePath, valueNode.Line, err)
	}

	s := &RepeatStep{
		BaseStep: BaseStep{
			StepType:  StepRepeat,
			Optional:  raw.Optional,
			StepLabel: raw.Label,
		},
		Times: raw.Times,
	}

	for _, cmdNode := range raw.Commands {
		step, err := parseStep(&cmdNode, sourcePath)
		if err != nil {
			return nil, err
		}
		s.Steps = append(s.Steps, step)
	}

	return s, nil
}

// parseRunFlowStep handles runFlow with optional nested commands.
func parseRunFlowStep(valueNode *yaml.Node, sourcePath string) (Step, error) {
	s := &RunFlowStep{BaseStep: BaseStep{StepType: StepRunFlow}}

	if valueNode.Kind == yaml.ScalarNode {
		s.File = valueNode.Value
		return s, nil
	}

	var raw struct {
		File     string            `yaml:"file"`
		Commands []yaml.Node       `yaml:"commands"`
		Env      map[string]string `yaml:"env"`
		Optional bool              `yaml:"optional"`
		Label    string            `yaml:"label"`
	}

	if err := valueNode.Decode(&raw); err != nil {
		return nil, wrapParseError(sourcePath, valueNode.Line, err)
	}

	s.File = raw.File
	s.Env = raw.Env
	s.Optional = raw.Optional
	s.StepLabel = raw.Label

	for _, cmdNode := range raw.Commands {
		step, err := parseStep(&cmdNode, sourcePath)
		if err != nil {
			return nil, err
		}
		s.Steps = append(s.Steps, step)
	}

	return s, nil
}

func wrapParseError(path string, line int, err error) error {
	return &ParseError{
		Path:    path,
		Line:    line,
		Message: err.Error(),
	}
}

// ShouldIncludeFlow checks if a flow matches tag filters.
func ShouldIncludeFlow(flow *Flow, includeTags, excludeTags []string) bool {
	if len(includeTags) > 0 {
		hasTag := false
		for _, tag := range flow.Config.Tags {
			for _, include := range includeTags {
				if tag == include {
					hasTag = true
					break
				}
			}
		}
		if !hasTag {
			return false
		}
	}

	for _, tag := range flow.Config.Tags {
		for _, exclude := range excludeTags {
			if tag == exclude {
				return false
			}
		}
	}

	return true
}
