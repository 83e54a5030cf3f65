package executor

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/devicelab-dev/webflow-runner/pkg/core"
	"github.com/devicelab-dev/webflow-runner/pkg/flow"
	"github.com/devicelab-dev/webflow-runner/pkg/logger"
	"github.com/devicelab-dev/webflow-runner/pkg/report"
)

// FlowRunner executes a single flow in its own browser session.
type FlowRunner struct {
	ctx         context.Context
	flow        flow.Flow
	detail      *report.FlowDetail
	sessions    core.SessionFactory
	driver      core.Driver
	config      RunnerConfig
	indexWriter *report.IndexWriter
	flowWriter  *report.FlowWriter
	vars        *Variables
	timeoutMs   int // Default wait for steps without their own timeout
	depth       int // Nesting depth for runFlow reporting
	flowIdx     int // Current flow index (0-based)
	totalFlows  int // Total number of flows
	// Step counters
	stepsPassed  int
	stepsFailed  int
	stepsSkipped int
	// Sub-command tracking for compound steps (runFlow, repeat)
	subCommands []report.Command
}

// Run executes the flow and returns the result.
func (fr *FlowRunner) Run() FlowResult {
	flowStart := time.Now()

	// Create flow writer for this flow's updates
	fr.flowWriter = report.NewFlowWriter(fr.detail, fr.config.OutputDir, fr.indexWriter)

	// Variables: OS env, then run env, then flow env
	fr.vars = NewVariables()
	fr.vars.ImportSystemEnv()
	if fr.flow.SourcePath != "" {
		fr.vars.SetFlowDir(filepath.Dir(fr.flow.SourcePath))
	}
	fr.vars.SetAll(fr.config.Env)
	fr.vars.SetAll(fr.flow.Config.Env)
	fr.timeoutMs = fr.flow.Config.Timeout

	// Notify flow start
	flowName := fr.detail.Name
	flowFile := filepath.Base(fr.flow.SourcePath)
	if fr.config.OnFlowStart != nil {
		fr.config.OnFlowStart(fr.flowIdx, fr.totalFlows, flowName, flowFile)
	}
	logger.WithFields(logger.Fields{"flow": flowName, "file": fr.flow.SourcePath}).Info("flow started")

	// Mark flow as started
	fr.flowWriter.Start()

	if err := fr.bindTestData(); err != nil {
		return fr.abort(flowStart, err.Error())
	}

	// One browser session per flow, closed even when the flow fails
	driver, release, err := fr.sessions.NewSession(fr.ctx, fr.vars.Snapshot())
	if err != nil {
		return fr.abort(flowStart, fmt.Sprintf("open browser session: %v", err))
	}
	defer release()
	fr.driver = driver

	// Execute onFlowComplete in defer (runs even on failure, before the session closes)
	defer func() {
		for _, step := range fr.flow.Config.OnFlowComplete {
			fr.executeNestedStep(step) // Ignore failures in cleanup
		}
	}()

	// Open the flow's start page
	if fr.flow.Config.URL != "" {
		open := &flow.NavigateStep{BaseStep: flow.BaseStep{StepType: flow.StepNavigate}, URL: fr.flow.Config.URL}
		if result := fr.driver.Execute(fr.prepare(open)); !result.Success {
			return fr.abort(flowStart, fmt.Sprintf("open %s: %v", fr.flow.Config.URL, result.Error))
		}
	}

	// Execute onFlowStart hooks
	for _, step := range fr.flow.Config.OnFlowStart {
		result := fr.executeNestedStep(step)
		if !result.Success && !step.IsOptional() {
			return fr.abort(flowStart, fmt.Sprintf("onFlowStart failed: %v", result.Error))
		}
	}

	// Execute all steps
	flowStatus := report.StatusPassed
	var flowError string

	for i, step := range fr.flow.Steps {
		// Check context cancellation
		if fr.ctx.Err() != nil {
			fr.flowWriter.SkipRemainingCommands(i)
			fr.stepsSkipped += countLeafSteps(fr.flow.Steps[i:])
			flowStatus = report.StatusSkipped
			flowError = "execution cancelled"
			break
		}

		// Execute step
		stepStatus, stepError, stepDuration := fr.executeStep(i, step)

		// Notify step complete
		if fr.config.OnStepComplete != nil {
			fr.config.OnStepComplete(i, step.Describe(), stepStatus == report.StatusPassed, stepDuration, stepError)
		}

		// Compound steps don't count themselves; their sub-steps are
		// counted individually in executeNestedStep
		if !isCompound(step) {
			switch stepStatus {
			case report.StatusPassed:
				fr.stepsPassed++
			case report.StatusFailed:
				fr.stepsFailed++
			case report.StatusSkipped:
				fr.stepsSkipped++
			}
		}

		// Handle step result
		if stepStatus == report.StatusFailed {
			if step.IsOptional() {
				// Optional step failure doesn't fail flow
				continue
			}
			// Required step failed - skip remaining and fail flow
			fr.flowWriter.SkipRemainingCommands(i + 1)
			fr.stepsSkipped += countLeafSteps(fr.flow.Steps[i+1:])
			flowStatus = report.StatusFailed
			flowError = stepError
			break
		}
	}

	// Mark flow as complete
	fr.flowWriter.End(flowStatus)

	return fr.finish(flowStart, flowStatus, flowError)
}

// bindTestData looks up the flow's test data record and exposes its
// columns as variables.
func (fr *FlowRunner) bindTestData() error {
	query := fr.vars.Expand(fr.flow.Config.TestData)
	if query == "" {
		return nil
	}
	if fr.config.TestData == nil {
		return core.ErrDataUnavailable.WithMessage(fmt.Sprintf("flow needs test data %q but no test data store is configured", query))
	}

	rec, ok, err := fr.config.TestData.Find(query)
	if err != nil {
		return err
	}
	if !ok {
		return core.ErrTestDataNotFound.WithMessage(fmt.Sprintf("no test data record matches scenario %q", query))
	}

	fr.vars.SetAll(rec.Vars())
	fr.flowWriter.SetTestData(rec.TestCaseID)
	logger.WithFields(logger.Fields{"flow": fr.detail.Name, "testCase": rec.TestCaseID}).Info("test data bound")
	return nil
}

// abort fails the flow before or outside its steps.
func (fr *FlowRunner) abort(flowStart time.Time, msg string) FlowResult {
	fr.flowWriter.SkipRemainingCommands(0)
	fr.stepsSkipped += countLeafSteps(fr.flow.Steps)
	fr.flowWriter.EndWithError(report.StatusFailed, msg)
	return fr.finish(flowStart, report.StatusFailed, msg)
}

// finish notifies listeners and builds the flow result.
func (fr *FlowRunner) finish(flowStart time.Time, status report.Status, errMsg string) FlowResult {
	flowDuration := time.Since(flowStart).Milliseconds()

	if fr.config.OnFlowEnd != nil {
		fr.config.OnFlowEnd(fr.detail.Name, status == report.StatusPassed, flowDuration)
	}
	entry := logger.WithFields(logger.Fields{"flow": fr.detail.Name, "status": string(status), "durationMs": flowDuration})
	if errMsg != "" {
		entry.Warn("flow finished: " + errMsg)
	} else {
		entry.Info("flow finished")
	}

	return FlowResult{
		ID:           fr.detail.ID,
		Name:         fr.detail.Name,
		Status:       status,
		Duration:     flowDuration,
		Error:        errMsg,
		StepsTotal:   fr.stepsPassed + fr.stepsFailed + fr.stepsSkipped,
		StepsPassed:  fr.stepsPassed,
		StepsFailed:  fr.stepsFailed,
		StepsSkipped: fr.stepsSkipped,
	}
}

// executeStep executes a single step and updates the report.
// Returns status, error message, and duration in milliseconds.
func (fr *FlowRunner) executeStep(idx int, step flow.Step) (report.Status, string, int64) {
	stepStart := time.Now()

	// Mark step as started
	fr.flowWriter.CommandStart(idx)

	// Determine what artifacts to capture
	captureAlways := fr.config.Artifacts == ArtifactAlways
	captureOnFailure := fr.config.Artifacts == ArtifactOnFailure

	// Capture before screenshot if configured
	var artifacts report.CommandArtifacts
	if captureAlways {
		artifacts = fr.captureArtifacts(idx, "before")
	}

	// Compound steps collect their sub-commands from scratch
	if isCompound(step) {
		fr.subCommands = nil
	}
	result := fr.dispatch(step)

	stepDuration := time.Since(stepStart).Milliseconds()

	// Determine status and error
	var status report.Status
	var errorInfo *report.Error
	var errorMsg string

	if result.Success {
		status = report.StatusPassed
	} else {
		status = report.StatusFailed
		errorInfo = commandResultToError(result)
		if errorInfo != nil {
			errorMsg = errorInfo.Message
		}
	}

	// Capture after screenshot (on failure or always)
	shouldCaptureAfter := captureAlways || (captureOnFailure && !result.Success)
	if shouldCaptureAfter {
		afterArtifacts := fr.captureArtifacts(idx, "after")
		artifacts.ScreenshotAfter = afterArtifacts.ScreenshotAfter
		artifacts.PageSource = afterArtifacts.PageSource
	}

	// Convert element info
	element := commandResultToElement(result)

	// Update report - use CommandEndWithSubs for compound steps
	if isCompound(step) {
		fr.flowWriter.CommandEndWithSubs(idx, status, element, errorInfo, artifacts, fr.subCommands)
		fr.subCommands = nil // Clear after use
	} else {
		fr.flowWriter.CommandEnd(idx, status, element, errorInfo, artifacts)
	}

	return status, errorMsg, stepDuration
}

// dispatch routes a step to the runner or the browser driver.
func (fr *FlowRunner) dispatch(step flow.Step) *core.CommandResult {
	switch s := step.(type) {
	case *flow.DefineVariablesStep:
		return fr.vars.ExecuteDefineVariables(s)
	case *flow.RepeatStep:
		return fr.executeRepeat(s)
	case *flow.RunFlowStep:
		return fr.executeRunFlow(s)
	case *flow.TakeScreenshotStep:
		return fr.takeScreenshot(fr.prepare(s).(*flow.TakeScreenshotStep))
	default:
		return fr.driver.Execute(fr.prepare(step))
	}
}

// prepare expands variables and applies the flow's default timeout.
func (fr *FlowRunner) prepare(step flow.Step) flow.Step {
	expanded := fr.vars.ExpandStep(step)
	if expanded == step || fr.timeoutMs <= 0 {
		return expanded
	}
	if b, ok := expanded.(interface{ Base() *flow.BaseStep }); ok && b.Base().TimeoutMs == 0 {
		b.Base().TimeoutMs = fr.timeoutMs
	}
	return expanded
}

// takeScreenshot saves the current page under the flow's assets.
func (fr *FlowRunner) takeScreenshot(step *flow.TakeScreenshotStep) *core.CommandResult {
	data, err := fr.driver.Screenshot()
	if err != nil {
		return &core.CommandResult{
			Success: false,
			Error:   err,
			Message: fmt.Sprintf("Failed to take screenshot: %v", err),
		}
	}

	path, err := fr.flowWriter.SaveNamedScreenshot(step.Path, data)
	if err != nil {
		return &core.CommandResult{
			Success: false,
			Error:   err,
			Message: fmt.Sprintf("Failed to save screenshot: %v", err),
		}
	}

	return &core.CommandResult{
		Success: true,
		Message: "Screenshot saved to " + path,
		Data:    path,
	}
}

// executeRepeat handles repeat step execution.
func (fr *FlowRunner) executeRepeat(step *flow.RepeatStep) *core.CommandResult {
	times := fr.vars.ParseInt(step.Times, 1)
	if times < 0 {
		return &core.CommandResult{
			Success: false,
			Error:   core.ErrInvalidConfig.WithMessage(fmt.Sprintf("repeat: invalid times %q", step.Times)),
		}
	}

	for i := 0; i < times; i++ {
		// Check context
		if fr.ctx.Err() != nil {
			return &core.CommandResult{
				Success: false,
				Error:   fr.ctx.Err(),
				Message: "Repeat cancelled",
			}
		}

		// Execute nested steps
		for _, nestedStep := range step.Steps {
			result := fr.executeNestedStep(nestedStep)
			if !result.Success && !nestedStep.IsOptional() {
				return result
			}
		}
	}

	return &core.CommandResult{
		Success: true,
		Message: fmt.Sprintf("Repeat completed (%d iterations)", times),
	}
}

// executeRunFlow handles runFlow step execution.
func (fr *FlowRunner) executeRunFlow(step *flow.RunFlowStep) *core.CommandResult {
	// Report nested flow start
	if fr.config.OnNestedFlowStart != nil && step.File != "" {
		fr.config.OnNestedFlowStart(fr.depth+1, "Run "+step.File)
	}

	// Increment depth for nested execution
	fr.depth++
	defer func() { fr.depth-- }()

	// Apply env variables with restore
	defer fr.vars.withEnvVars(step.Env)()

	// Execute inline steps if present
	if len(step.Steps) > 0 {
		for _, nestedStep := range step.Steps {
			result := fr.executeNestedStep(nestedStep)
			if !result.Success && !nestedStep.IsOptional() {
				return result
			}
		}
		return &core.CommandResult{
			Success: true,
			Message: "Inline flow completed",
		}
	}

	// Load and execute external flow file
	if step.File == "" {
		return &core.CommandResult{
			Success: false,
			Error:   core.ErrMissingRequired.WithMessage("runFlow requires file or inline commands"),
		}
	}

	filePath := fr.vars.ResolvePath(fr.vars.Expand(step.File))
	subFlow, err := flow.ParseFile(filePath)
	if err != nil {
		return &core.CommandResult{
			Success: false,
			Error:   err,
			Message: fmt.Sprintf("Failed to parse flow file: %s", filePath),
		}
	}

	return fr.executeSubFlow(*subFlow)
}

// executeNestedStep executes a step without report tracking (for nested execution).
func (fr *FlowRunner) executeNestedStep(step flow.Step) *core.CommandResult {
	start := time.Now()

	// For nested compound steps, we need to track their sub-commands separately
	var nestedSubCommands []report.Command
	compound := isCompound(step)
	var result *core.CommandResult
	if compound {
		// Save parent's subCommands and start fresh for this nested compound step
		parentSubCommands := fr.subCommands
		fr.subCommands = nil
		result = fr.dispatch(step)
		nestedSubCommands = fr.subCommands
		fr.subCommands = parentSubCommands
	} else {
		result = fr.dispatch(step)
	}

	duration := time.Since(start).Milliseconds()

	// Track nested step counts (compound steps don't count themselves)
	if !compound {
		if result.Success {
			fr.stepsPassed++
		} else {
			fr.stepsFailed++
		}
	}

	// Report nested step progress
	if fr.config.OnNestedStep != nil && fr.depth > 0 {
		errMsg := ""
		if !result.Success && result.Error != nil {
			errMsg = result.Error.Error()
		}
		fr.config.OnNestedStep(fr.depth, step.Describe(), result.Success, duration, errMsg)
	}

	// Add to parent's sub-commands for report
	status := report.StatusPassed
	if !result.Success {
		status = report.StatusFailed
	}

	now := time.Now()
	cmd := report.Command{
		ID:        fmt.Sprintf("sub-%d", len(fr.subCommands)),
		Index:     len(fr.subCommands),
		Type:      string(step.Type()),
		Label:     step.Label(),
		YAML:      step.Describe(),
		Status:    status,
		StartTime: &start,
		EndTime:   &now,
		Duration:  &duration,
		Element:   commandResultToElement(result),
		Error:     commandResultToError(result),
	}

	// Add nested sub-commands for compound steps
	if compound {
		cmd.SubCommands = nestedSubCommands
	}

	fr.subCommands = append(fr.subCommands, cmd)

	return result
}

// executeSubFlow executes a sub-flow without separate report tracking.
func (fr *FlowRunner) executeSubFlow(subFlow flow.Flow) *core.CommandResult {
	// Save current flow dir
	prevDir := fr.vars.flowDir
	if subFlow.SourcePath != "" {
		fr.vars.SetFlowDir(filepath.Dir(subFlow.SourcePath))
	}
	defer func() { fr.vars.flowDir = prevDir }()

	// Sub-flow timeout applies to its own steps only
	prevTimeout := fr.timeoutMs
	if subFlow.Config.Timeout > 0 {
		fr.timeoutMs = subFlow.Config.Timeout
	}
	defer func() { fr.timeoutMs = prevTimeout }()

	// Apply sub-flow env
	defer fr.vars.withEnvVars(subFlow.Config.Env)()

	// Execute steps
	for _, step := range subFlow.Steps {
		if fr.ctx.Err() != nil {
			return &core.CommandResult{
				Success: false,
				Error:   fr.ctx.Err(),
				Message: "Sub-flow cancelled",
			}
		}

		result := fr.executeNestedStep(step)
		if !result.Success && !step.IsOptional() {
			return result
		}
	}

	return &core.CommandResult{
		Success: true,
		Message: fmt.Sprintf("Sub-flow '%s' completed", subFlow.Config.Name),
	}
}

// captureArtifacts captures a screenshot and, after a step, the page source.
func (fr *FlowRunner) captureArtifacts(cmdIdx int, timing string) report.CommandArtifacts {
	var artifacts report.CommandArtifacts

	// Capture screenshot
	if data, err := fr.driver.Screenshot(); err == nil && len(data) > 0 {
		path, saveErr := fr.flowWriter.SaveScreenshot(cmdIdx, timing, data)
		if saveErr == nil {
			if timing == "before" {
				artifacts.ScreenshotBefore = path
			} else {
				artifacts.ScreenshotAfter = path
			}
		}
	}

	// Capture page source after the step
	if timing == "after" {
		if data, err := fr.driver.Hierarchy(); err == nil && len(data) > 0 {
			path, saveErr := fr.flowWriter.SavePageSource(cmdIdx, data)
			if saveErr == nil {
				artifacts.PageSource = path
			}
		}
	}

	return artifacts
}

// isCompound reports whether a step runs other steps.
func isCompound(step flow.Step) bool {
	switch step.(type) {
	case *flow.RepeatStep, *flow.RunFlowStep:
		return true
	}
	return false
}

// countLeafSteps counts the steps that are reported individually.
func countLeafSteps(steps []flow.Step) int {
	n := 0
	for _, s := range steps {
		if !isCompound(s) {
			n++
		}
	}
	return n
}
