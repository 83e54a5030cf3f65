package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/devicelab-dev/webflow-runner/pkg/flow"
	"github.com/google/uuid"
)

// BuilderConfig contains configuration for building the report skeleton.
type BuilderConfig struct {
	OutputDir     string  // Base output directory for reports
	Browser       Browser // Browser information
	CI            *CI     // CI/CD information (optional)
	RunnerVersion string  // webflow-runner version
	DriverName    string  // Browser automation driver (playwright)
}

// BuildSkeleton creates the initial report structure from parsed flows.
// All flows and commands are set to "pending" status.
// This should be called after YAML validation, before execution starts.
func BuildSkeleton(flows []flow.Flow, cfg BuilderConfig) (*Index, []FlowDetail, error) {
	now := time.Now()

	// Build index
	index := &Index{
		Version:     Version,
		RunID:       uuid.NewString(),
		UpdateSeq:   0,
		Status:      StatusPending,
		StartTime:   now,
		LastUpdated: now,
		Browser:     cfg.Browser,
		CI:          cfg.CI,
		Runner: RunnerInfo{
			Version: cfg.RunnerVersion,
			Driver:  cfg.DriverName,
		},
		Summary: Summary{
			Total:   len(flows),
			Pending: len(flows),
		},
		Flows: make([]FlowEntry, len(flows)),
	}

	// Build flow details
	flowDetails := make([]FlowDetail, len(flows))

	for i, f := range flows {
		flowID := fmt.Sprintf("flow-%03d", i)
		flowName := extractFlowName(f)

		// Build commands for this flow
		commands := buildCommands(f.Steps)

		// Create flow entry for index
		index.Flows[i] = FlowEntry{
			Index:      i,
			ID:         flowID,
			Name:       flowName,
			SourceFile: f.SourcePath,
			DataFile:   filepath.Join("flows", flowID+".json"),
			AssetsDir:  filepath.Join("assets", flowID),
			Status:     StatusPending,
			UpdateSeq:  0,
			Commands: CommandSummary{
				Total:   len(commands),
				Pending: len(commands),
			},
		}

		// Create flow detail
		flowDetails[i] = FlowDetail{
			ID:         flowID,
			Name:       flowName,
			SourceFile: f.SourcePath,
			Tags:       f.Config.Tags,
			Commands:   commands,
			Artifacts:  FlowArtifacts{},
		}
	}

	return index, flowDetails, nil
}

// extractFlowName extracts a display name from the flow.
func extractFlowName(f flow.Flow) string {
	if f.Config.Name != "" {
		return f.Config.Name
	}
	// Use filename without extension
	base := filepath.Base(f.SourcePath)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}

// buildCommands creates Command entries from flow steps.
func buildCommands(steps []flow.Step) []Command {
	commands := make([]Command, len(steps))
	for i, step := range steps {
		commands[i] = Command{
			ID:        fmt.Sprintf("cmd-%03d", i),
			Index:     i,
			Type:      string(step.Type()),
			Label:     step.Label(),
			YAML:      step.Describe(),
			Status:    StatusPending,
			Params:    extractParams(step),
			Artifacts: CommandArtifacts{},
		}
	}
	return commands
}

// extractParams extracts command parameters from a step.
func extractParams(step flow.Step) *CommandParams {
	params := &CommandParams{}
	hasContent := false

	// Element references, in declaration order
	if t, ok := step.(flow.Targeted); ok {
		refs := t.Targets()
		if len(refs) > 0 {
			params.Selector = convertRef(refs[0], step.IsOptional())
			hasContent = params.Selector != nil
		}
		if len(refs) > 1 {
			params.Target = convertRef(refs[1], step.IsOptional())
		}
	}

	switch s := step.(type) {
	case *flow.FillStep:
		if s.Text != "" {
			params.Text = s.Text
			hasContent = true
		}
	case *flow.SelectStep:
		if s.Value != "" {
			params.Text = s.Value
			hasContent = true
		}
	case *flow.NavigateStep:
		if s.URL != "" {
			params.URL = s.URL
			hasContent = true
		}
	}

	// Extract timeout
	if b, ok := step.(interface{ Base() *flow.BaseStep }); ok && b.Base().TimeoutMs > 0 {
		params.Timeout = b.Base().TimeoutMs
		hasContent = true
	}

	if !hasContent {
		return nil
	}
	return params
}

// convertRef converts flow.ElementRef to report.Selector.
func convertRef(ref *flow.ElementRef, optional bool) *Selector {
	if ref == nil || ref.IsEmpty() {
		return nil
	}

	sel := &Selector{Optional: optional, Iframe: ref.Iframe}
	switch {
	case ref.CSS != "":
		sel.Type, sel.Value = "css", ref.CSS
	case ref.XPath != "":
		sel.Type, sel.Value = "xpath", ref.XPath
	default:
		sel.Type, sel.Value = "registry", ref.Key()
	}
	return sel
}

// WriteSkeleton writes the initial skeleton to disk.
// Creates report.json and all flow detail files with pending status.
func WriteSkeleton(outputDir string, index *Index, flowDetails []FlowDetail) error {
	// Ensure directories exist
	if err := ensureDir(filepath.Join(outputDir, "flows")); err != nil {
		return fmt.Errorf("create flows dir: %w", err)
	}
	if err := ensureDir(filepath.Join(outputDir, "assets")); err != nil {
		return fmt.Errorf("create assets dir: %w", err)
	}

	// Write each flow detail file
	for _, fd := range flowDetails {
		flowPath := filepath.Join(outputDir, "flows", fd.ID+".json")
		if err := atomicWriteJSON(flowPath, fd); err != nil {
			return fmt.Errorf("write flow %s: %w", fd.ID, err)
		}

		// Create assets directory for this flow
		assetsPath := filepath.Join(outputDir, "assets", fd.ID)
		if err := ensureDir(assetsPath); err != nil {
			return fmt.Errorf("create assets dir for %s: %w", fd.ID, err)
		}
	}

	// Write index file
	indexPath := filepath.Join(outputDir, "report.json")
	if err := atomicWriteJSON(indexPath, index); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	return nil
}
