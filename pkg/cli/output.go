package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/devicelab-dev/webflow-runner/pkg/executor"
	"github.com/devicelab-dev/webflow-runner/pkg/report"
	"github.com/fatih/color"
)

// Terminal styles. fatih/color honors NO_COLOR, non-tty stdout and --no-ansi.
var (
	bold   = color.New(color.Bold).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
)

// Slow step threshold in milliseconds (5 seconds)
const slowThresholdMs = 5000

// printSetupStep prints a setup step with spinner-style prefix
func printSetupStep(msg string) {
	fmt.Printf("  %s %s\n", cyan("⏳"), msg)
}

// printSetupSuccess prints a success message for setup
func printSetupSuccess(msg string) {
	fmt.Printf("  %s %s\n", green("✓"), msg)
}

// Live progress callbacks

func onFlowStart(flowIdx, totalFlows int, name, file string) {
	fmt.Printf("\n  %s %s (%s)\n", cyan(fmt.Sprintf("[%d/%d]", flowIdx+1, totalFlows)), bold(name), file)
	fmt.Println(strings.Repeat("─", 60))
}

func onStepComplete(idx int, desc string, passed bool, durationMs int64, errMsg string) {
	printStepLine("    ", desc, passed, durationMs, errMsg, !isCompoundCommand(desc))
}

func onNestedFlowStart(depth int, desc string) {
	// Base indent (4 spaces) + 2 spaces per depth level
	indent := strings.Repeat("  ", 2+depth)
	fmt.Printf("%s%s %s\n", indent, cyan("▸"), desc)
}

func onNestedStep(depth int, desc string, passed bool, durationMs int64, errMsg string) {
	indent := strings.Repeat("  ", 2+depth+1)
	printStepLine(indent, desc, passed, durationMs, errMsg, true)
}

func onFlowEnd(name string, passed bool, durationMs int64) {
	if passed {
		fmt.Printf("%s %s %s\n", green("✓"), name, gray(formatDuration(durationMs)))
	} else {
		fmt.Printf("%s %s %s\n", red("✗"), name, gray(formatDuration(durationMs)))
	}
}

// printStepLine prints one step result; slow passing steps get a warning mark.
func printStepLine(indent, desc string, passed bool, durationMs int64, errMsg string, canBeSlow bool) {
	durStr := fmt.Sprintf("(%s)", formatDuration(durationMs))
	if !passed {
		fmt.Printf("%s%s %s %s\n", indent, red("✗"), desc, durStr)
		if errMsg != "" {
			fmt.Printf("%s  %s %s\n", indent, gray("╰─"), errMsg)
		}
		return
	}
	if canBeSlow && durationMs >= slowThresholdMs {
		fmt.Printf("%s%s %s %s\n", indent, yellow("⚠"), desc, yellow(durStr))
		return
	}
	fmt.Printf("%s%s %s %s\n", indent, green("✓"), desc, durStr)
}

// isCompoundCommand checks if a command is a compound command (runFlow, repeat).
func isCompoundCommand(desc string) bool {
	return strings.HasPrefix(desc, "runFlow") ||
		strings.HasPrefix(desc, "repeat")
}

func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// printUnifiedOutput prints detailed results, the summary table and the
// browser summary from the report files.
func printUnifiedOutput(outputDir string, result *executor.RunResult) error {
	index, err := report.ReadIndex(filepath.Join(outputDir, "report.json"))
	if err != nil {
		return fmt.Errorf("load report: %w", err)
	}

	printDetailedFlowResults(outputDir, index)
	printStepTotals(result.FlowResults, result.Duration)
	printUnifiedSummaryTable(index, result)
	printBrowserSummary(index)
	return nil
}

// printDetailedFlowResults prints flow-by-flow results with all commands.
func printDetailedFlowResults(outputDir string, index *report.Index) {
	for i, entry := range index.Flows {
		header := fmt.Sprintf("\n  %s %s (%s)", cyan(fmt.Sprintf("[%d/%d]", i+1, len(index.Flows))), bold(entry.Name), entry.SourceFile)
		if entry.TestData != "" {
			header += " - Data: " + entry.TestData
		}
		fmt.Println(header)
		fmt.Println("  " + strings.Repeat("─", 60))

		detail, err := report.ReadFlowDetail(filepath.Join(outputDir, entry.DataFile))
		if err != nil {
			fmt.Printf("    (Could not load command details: %v)\n", err)
		} else {
			for _, cmd := range detail.Commands {
				printCommand(cmd, 0)
			}
		}

		var duration int64
		if entry.Duration != nil {
			duration = *entry.Duration
		}
		switch entry.Status {
		case report.StatusPassed:
			fmt.Printf("%s %s %s\n", green("✓"), entry.Name, gray(formatDuration(duration)))
		case report.StatusFailed:
			fmt.Printf("%s %s %s\n", red("✗"), entry.Name, gray(formatDuration(duration)))
			if entry.Error != nil && *entry.Error != "" {
				fmt.Printf("  %s %s\n", gray("╰─"), *entry.Error)
			}
		case report.StatusSkipped:
			fmt.Printf("%s %s %s\n", cyan("-"), entry.Name, gray("skipped"))
		}
	}
}

// commandDescription prefers the author's label, then the step type.
func commandDescription(cmd report.Command) string {
	switch {
	case cmd.Label != "":
		return cmd.Label
	case cmd.Type != "":
		return cmd.Type
	default:
		return cmd.YAML
	}
}

// printCommand prints a single command with proper indentation.
func printCommand(cmd report.Command, depth int) {
	indent := strings.Repeat("  ", 2+depth)

	description := commandDescription(cmd)

	var duration int64
	if cmd.Duration != nil {
		duration = *cmd.Duration
	}

	switch cmd.Status {
	case report.StatusSkipped, report.StatusPending:
		fmt.Printf("%s%s %s\n", indent, gray("-"), gray(description))
	default:
		errMsg := ""
		if cmd.Error != nil {
			errMsg = cmd.Error.Message
			if cmd.Error.Type != "" {
				errMsg = fmt.Sprintf("[%s] %s", cmd.Error.Type, errMsg)
			}
		}
		printStepLine(indent, description, cmd.Status == report.StatusPassed, duration, errMsg, !isCompoundCommand(description))
	}

	for _, sub := range cmd.SubCommands {
		printCommand(sub, depth+1)
	}
}

// printStepTotals prints passing/failing/skipped step counts.
func printStepTotals(results []executor.FlowResult, durationMs int64) {
	var passed, failed, skipped int
	for _, fr := range results {
		passed += fr.StepsPassed
		failed += fr.StepsFailed
		skipped += fr.StepsSkipped
	}

	fmt.Println()
	if passed > 0 {
		fmt.Printf("  %s (%s)\n", green(fmt.Sprintf("%d steps passing", passed)), formatDuration(durationMs))
	}
	if failed > 0 {
		fmt.Printf("  %s\n", red(fmt.Sprintf("%d steps failing", failed)))
	}
	if skipped > 0 {
		fmt.Printf("  %s\n", cyan(fmt.Sprintf("%d steps skipped", skipped)))
	}
	fmt.Println()
}

// statusCell renders a padded, colored status column.
func statusCell(status report.Status) string {
	switch status {
	case report.StatusFailed:
		return red(fmt.Sprintf("%6s", "✗ FAIL"))
	case report.StatusSkipped:
		return cyan(fmt.Sprintf("%6s", "- SKIP"))
	default:
		return green(fmt.Sprintf("%6s", "✓ PASS"))
	}
}

// printUnifiedSummaryTable prints the summary table with a test data column.
func printUnifiedSummaryTable(index *report.Index, result *executor.RunResult) {
	testData := make(map[string]string, len(index.Flows))
	for _, entry := range index.Flows {
		testData[entry.ID] = entry.TestData
	}

	const tableWidth = 104
	fmt.Println(strings.Repeat("═", tableWidth))
	fmt.Printf("  %-30s %6s %7s %6s %6s %6s %10s  %s\n",
		"Flow", "Status", "Steps", "Pass", "Fail", "Skip", "Duration", "Data")
	fmt.Println(strings.Repeat("─", tableWidth))

	var total, passed, failed, skipped int
	for _, fr := range result.FlowResults {
		total += fr.StepsTotal
		passed += fr.StepsPassed
		failed += fr.StepsFailed
		skipped += fr.StepsSkipped

		fmt.Printf("  %-30s %s %7d %6d %6d %6d %10s  %s\n",
			truncate(fr.Name, 30), statusCell(fr.Status),
			fr.StepsTotal, fr.StepsPassed, fr.StepsFailed, fr.StepsSkipped,
			formatDuration(fr.Duration), truncate(testData[fr.ID], 16))
	}

	fmt.Println(strings.Repeat("─", tableWidth))
	flows := fmt.Sprintf("%6s", fmt.Sprintf("%d/%d", result.PassedFlows, result.TotalFlows))
	if result.FailedFlows > 0 {
		flows = red(flows)
	} else {
		flows = green(flows)
	}
	fmt.Printf("  %s %s %7d %6d %6d %6d %10s\n",
		bold(fmt.Sprintf("%-30s", "TOTAL")), flows,
		total, passed, failed, skipped, formatDuration(result.Duration))
	fmt.Println(strings.Repeat("═", tableWidth))
}

// printSummary prints the summary table without report details.
func printSummary(result *executor.RunResult) {
	printStepTotals(result.FlowResults, result.Duration)
	printUnifiedSummaryTable(&report.Index{}, result)
}

// printBrowserSummary prints the browser the run used.
func printBrowserSummary(index *report.Index) {
	b := index.Browser
	if b.Name == "" {
		return
	}

	label := b.Name
	if b.Version != "" {
		label += " " + b.Version
	}
	mode := "headed"
	if b.Headless {
		mode = "headless"
	}

	fmt.Printf("\nBrowser: %s (%s", label, mode)
	if b.ViewportWidth > 0 && b.ViewportHeight > 0 {
		fmt.Printf(", %dx%d", b.ViewportWidth, b.ViewportHeight)
	}
	fmt.Println(")")
	if b.BaseURL != "" {
		fmt.Printf("  Base URL: %s\n", b.BaseURL)
	}
	fmt.Printf("  Flows: %d • Passed: %s • Failed: %s • Skipped: %s\n",
		index.Summary.Total,
		green(index.Summary.Passed), red(index.Summary.Failed), cyan(index.Summary.Skipped))
	if index.CI != nil && index.CI.Provider != "" {
		fmt.Printf("  CI: %s %s\n", index.CI.Provider, index.CI.BuildID)
	}
}

// runResultFromIndex rebuilds a RunResult from report files so a finished
// or recovered report can be printed without re-running it.
func runResultFromIndex(index *report.Index, details []report.FlowDetail) *executor.RunResult {
	result := &executor.RunResult{
		Status:     index.Status,
		TotalFlows: len(index.Flows),
	}
	if index.EndTime != nil {
		result.Duration = index.EndTime.Sub(index.StartTime).Milliseconds()
	}

	for i, entry := range index.Flows {
		fr := executor.FlowResult{
			ID:     entry.ID,
			Name:   entry.Name,
			Status: entry.Status,
		}
		if entry.Duration != nil {
			fr.Duration = *entry.Duration
		}
		if entry.Error != nil {
			fr.Error = *entry.Error
		}
		if i < len(details) {
			for _, cmd := range details[i].Commands {
				fr.StepsTotal++
				switch cmd.Status {
				case report.StatusPassed:
					fr.StepsPassed++
				case report.StatusFailed:
					fr.StepsFailed++
				case report.StatusSkipped:
					fr.StepsSkipped++
				}
			}
		}

		switch entry.Status {
		case report.StatusPassed:
			result.PassedFlows++
		case report.StatusFailed:
			result.FailedFlows++
		case report.StatusSkipped:
			result.SkippedFlows++
		}
		result.FlowResults = append(result.FlowResults, fr)
	}
	return result
}
