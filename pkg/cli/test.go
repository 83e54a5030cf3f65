package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/devicelab-dev/webflow-runner/pkg/browser/playwright"
	"github.com/devicelab-dev/webflow-runner/pkg/config"
	"github.com/devicelab-dev/webflow-runner/pkg/core"
	"github.com/devicelab-dev/webflow-runner/pkg/driver/web"
	"github.com/devicelab-dev/webflow-runner/pkg/engine"
	"github.com/devicelab-dev/webflow-runner/pkg/executor"
	"github.com/devicelab-dev/webflow-runner/pkg/flow"
	"github.com/devicelab-dev/webflow-runner/pkg/locator"
	"github.com/devicelab-dev/webflow-runner/pkg/logger"
	"github.com/devicelab-dev/webflow-runner/pkg/report"
	"github.com/devicelab-dev/webflow-runner/pkg/store"
	"github.com/devicelab-dev/webflow-runner/pkg/validator"
	"github.com/urfave/cli/v2"
)

var testCommand = &cli.Command{
	Name:      "test",
	Usage:     "Run scenario files in a browser",
	ArgsUsage: "<flow-file-or-folder>...",
	Description: `Run one or more scenario files. Every scenario gets a fresh browser
context and page; element references are resolved through the locator table.

Reports are generated in the output directory:
  - Default: ./reports/<timestamp>/
  - With --output: <output>/<timestamp>/
  - With --output and --flatten: <output>/ (no timestamp subfolder)

Examples:
  webflow-runner test flows/
  webflow-runner test login.yaml checkout.yaml

  # With environment variables
  webflow-runner test flows/ -e BASE_URL=https://staging.example.com

  # With tag filtering
  webflow-runner test flows/ --include-tags smoke

  # Different browser, visible window
  webflow-runner test flows/ --browser firefox --headless=false

  # Custom output directory
  webflow-runner test flows/ --output ./my-reports --flatten`,
	Flags: []cli.Flag{
		// Configuration
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path to workspace config.yaml",
			EnvVars: []string{"WEBFLOW_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "locators",
			Usage:   "Locator table (.xlsx, .csv or .yaml)",
			EnvVars: []string{"WEBFLOW_LOCATORS"},
		},
		&cli.StringFlag{
			Name:    "test-data",
			Usage:   "Test data table (.xlsx, .csv or .yaml)",
			EnvVars: []string{"WEBFLOW_TEST_DATA"},
		},

		// Browser
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Prefix for relative navigate URLs",
			EnvVars: []string{"WEBFLOW_BASE_URL"},
		},
		&cli.StringFlag{
			Name:    "browser",
			Aliases: []string{"b"},
			Usage:   "Browser to run (" + strings.Join(config.Browsers, ", ") + ")",
			EnvVars: []string{"WEBFLOW_BROWSER"},
		},
		&cli.BoolFlag{
			Name:    "headless",
			Usage:   "Run the browser headless (--headless=false shows the window)",
			EnvVars: []string{"WEBFLOW_HEADLESS"},
		},
		&cli.IntFlag{
			Name:    "timeout",
			Usage:   "Default wait for actions and assertions in ms",
			EnvVars: []string{"WEBFLOW_TIMEOUT"},
		},

		// Environment variables
		&cli.StringSliceFlag{
			Name:    "env",
			Aliases: []string{"e"},
			Usage:   "Environment variables (KEY=VALUE)",
		},

		// Tag filtering
		&cli.StringSliceFlag{
			Name:  "include-tags",
			Usage: "Only include flows with these tags",
		},
		&cli.StringSliceFlag{
			Name:  "exclude-tags",
			Usage: "Exclude flows with these tags",
		},

		// Output
		&cli.StringFlag{
			Name:  "output",
			Usage: "Output directory for reports (default: ./reports)",
		},
		&cli.BoolFlag{
			Name:  "flatten",
			Usage: "Don't create timestamp subfolder (requires --output)",
		},

		// Execution
		&cli.BoolFlag{
			Name:  "stop-on-fail",
			Usage: "Skip remaining flows after the first failure",
		},
		&cli.StringFlag{
			Name:  "screenshots",
			Usage: "When to capture screenshots and page source (on-failure, always, never)",
			Value: "on-failure",
		},
	},
	Action: runTest,
}

// RunConfig holds everything a test run needs after flags and config are merged.
type RunConfig struct {
	// Paths
	FlowPaths []string

	// Workspace settings with defaults and flag overrides applied
	Workspace *config.Config

	// Environment
	Env map[string]string

	// Filtering
	IncludeTags []string
	ExcludeTags []string

	// Output
	OutputDir string
	LogFile   string
	Verbose   bool

	// Execution
	StopOnFail bool
	Artifacts  executor.ArtifactMode
}

func printBanner() {
	title := fmt.Sprintf("webflow-runner %s", Version)
	width := 64
	if len(title)+4 > width {
		width = len(title) + 4
	}

	fmt.Println()
	fmt.Println("╔" + strings.Repeat("═", width) + "╗")
	fmt.Printf("║  %s%s║\n", bold(title), strings.Repeat(" ", width-len(title)-2))
	tagline := "Data-driven browser UI testing"
	fmt.Printf("║  %s%s║\n", tagline, strings.Repeat(" ", width-len(tagline)-2))
	fmt.Println("╚" + strings.Repeat("═", width) + "╝")
	fmt.Println()
}

func runTest(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("at least one flow file or folder is required")
	}

	cfg, err := buildRunConfig(c)
	if err != nil {
		return err
	}

	printBanner()
	return executeTest(c.Context, cfg)
}

// buildRunConfig merges the workspace config with command-line flags.
// Flags take precedence over config values.
func buildRunConfig(c *cli.Context) (*RunConfig, error) {
	flowPaths := c.Args().Slice()

	ws, dir, err := loadWorkspace(c.String("config"), flowPaths)
	if err != nil {
		return nil, err
	}

	if c.IsSet("browser") {
		ws.Browser.Name = c.String("browser")
	}
	if c.IsSet("headless") {
		headless := c.Bool("headless")
		ws.Browser.Headless = &headless
	}
	if c.IsSet("base-url") {
		ws.BaseURL = c.String("base-url")
	}
	if c.IsSet("timeout") {
		ws.TimeoutMs = c.Int("timeout")
	}

	ws.Merge(dir)

	// Flag paths are relative to the working directory, not the workspace
	if c.IsSet("locators") {
		ws.Locators = c.String("locators")
	}
	if c.IsSet("test-data") {
		ws.TestData = c.String("test-data")
	}

	if err := ws.Validate(); err != nil {
		return nil, err
	}

	artifacts, ok := executor.ParseArtifactMode(c.String("screenshots"))
	if !ok {
		return nil, fmt.Errorf("invalid --screenshots value %q (expected on-failure, always or never)", c.String("screenshots"))
	}

	output := c.String("output")
	if output == "" && ws.Output != config.DefaultOutput {
		output = ws.Output
	}
	outputDir, err := resolveOutputDir(output, c.Bool("flatten"))
	if err != nil {
		return nil, err
	}

	// Merge env variables: workspace config env + CLI env (CLI takes precedence)
	env := make(map[string]string, len(ws.Env))
	for k, v := range ws.Env {
		env[k] = v
	}
	for k, v := range parseEnvVars(c.StringSlice("env")) {
		env[k] = v
	}

	return &RunConfig{
		FlowPaths:   flowPaths,
		Workspace:   ws,
		Env:         env,
		IncludeTags: append(c.StringSlice("include-tags"), ws.IncludeTags...),
		ExcludeTags: append(c.StringSlice("exclude-tags"), ws.ExcludeTags...),
		OutputDir:   outputDir,
		LogFile:     c.String("log-file"),
		Verbose:     c.Bool("verbose"),
		StopOnFail:  c.Bool("stop-on-fail"),
		Artifacts:   artifacts,
	}, nil
}

// loadWorkspace finds the workspace config: an explicit --config file, or
// config.yaml in the first flow folder. Store paths in the config are
// relative to the returned directory; without a config file they are
// relative to the working directory.
func loadWorkspace(configPath string, flowPaths []string) (*config.Config, string, error) {
	if configPath != "" {
		ws, err := config.Load(configPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		return ws, filepath.Dir(configPath), nil
	}

	for _, p := range flowPaths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			continue
		}
		if !hasConfigFile(p) {
			break
		}
		ws, err := config.LoadFromDir(p)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		return ws, p, nil
	}
	return &config.Config{}, "", nil
}

func hasConfigFile(dir string) bool {
	for _, name := range []string{"config.yaml", "config.yml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// resolveOutputDir determines the final output directory.
// Without flatten a timestamp subfolder is created under the base directory.
func resolveOutputDir(output string, flatten bool) (string, error) {
	if flatten && output == "" {
		return "", fmt.Errorf("--flatten requires --output to be specified")
	}

	baseDir := output
	if baseDir == "" {
		baseDir = "./reports"
	}

	if flatten {
		return filepath.Clean(baseDir), nil
	}

	// Create timestamp-based subfolder
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(baseDir, timestamp), nil
}

func executeTest(parent context.Context, cfg *RunConfig) error {
	if parent == nil {
		parent = context.Background()
	}

	// 1. Create output directory
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// 2. Initialize logging
	logPath := cfg.LogFile
	if logPath == "" {
		logPath = filepath.Join(cfg.OutputDir, "webflow-runner.log")
	}
	if err := logger.Init(logPath); err != nil {
		fmt.Printf("Warning: Failed to initialize logger: %v\n", err)
	}
	defer logger.Close()
	level := "info"
	if cfg.Verbose {
		level = "debug"
	}
	if err := logger.SetLevel(level); err != nil {
		fmt.Printf("Warning: Failed to set log level: %v\n", err)
	}

	ws := cfg.Workspace
	logger.Info("=== Test execution started ===")
	logger.WithFields(logger.Fields{
		"output":   cfg.OutputDir,
		"browser":  ws.Browser.Name,
		"headless": ws.Browser.IsHeadless(),
		"locators": ws.Locators,
		"testData": ws.TestData,
		"baseUrl":  ws.BaseURL,
	}).Info("run configuration")

	// Ctrl+C stops after the current step; the report is still finalized
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("Received signal %v, stopping run", sig)
			fmt.Fprintf(os.Stderr, "\nReceived %v, stopping after the current step...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	// 3. Validate and parse flows
	resolver := locator.NewResolver(store.NewDescriptorStore(ws.Locators))
	flows, err := validateAndParseFlows(cfg, resolver)
	if err != nil {
		logger.Error("Flow validation failed: %v", err)
		return err
	}
	logger.Info("Validated %d flow(s)", len(flows))

	// 4. Launch the browser
	printSetupStep(fmt.Sprintf("Launching %s...", ws.Browser.Name))
	launcher, err := playwright.Launch(playwright.LaunchOptions{
		Browser:  ws.Browser.Name,
		Headless: ws.Browser.IsHeadless(),
		SlowMo:   time.Duration(ws.Browser.SlowMoMs) * time.Millisecond,
		Viewport: ws.Browser.Viewport,
		BaseURL:  ws.BaseURL,
		Timeout:  time.Duration(ws.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		logger.Error("Browser launch failed: %v", err)
		return fmt.Errorf("launch %s: %w (run 'webflow-runner install-browsers' first)", ws.Browser.Name, err)
	}
	defer func() {
		if err := launcher.Close(); err != nil {
			logger.Warn("Closing browser: %v", err)
		}
	}()
	info := web.LauncherInfo(launcher)
	printSetupSuccess(fmt.Sprintf("%s %s ready", info.BrowserName, info.BrowserVersion))

	// 5. Execute flows
	sessions := web.NewFactory(web.LauncherOpener(launcher), web.Options{
		Resolver: resolver,
		Engine:   engine.New(engine.WithTimeout(time.Duration(ws.TimeoutMs) * time.Millisecond)),
		BaseURL:  ws.BaseURL,
		Info:     info,
	})

	runner := executor.New(sessions, executor.RunnerConfig{
		OutputDir:         cfg.OutputDir,
		StopOnFail:        cfg.StopOnFail,
		Artifacts:         cfg.Artifacts,
		Env:               cfg.Env,
		TestData:          store.NewProvider(ws.TestData),
		Browser:           browserReport(info),
		CI:                report.DetectCI(),
		RunnerVersion:     Version,
		DriverName:        "playwright",
		OnFlowStart:       onFlowStart,
		OnStepComplete:    onStepComplete,
		OnNestedStep:      onNestedStep,
		OnNestedFlowStart: onNestedFlowStart,
		OnFlowEnd:         onFlowEnd,
	})

	fmt.Printf("\n%s\n", bold("Execution"))
	result, err := runner.Run(ctx, flows)
	if err != nil {
		logger.Error("Flow execution failed: %v", err)
		return err
	}
	logger.Info("Flow execution completed: %d passed, %d failed, %d skipped",
		result.PassedFlows, result.FailedFlows, result.SkippedFlows)

	// 6. Print results
	if err := printUnifiedOutput(cfg.OutputDir, result); err != nil {
		fmt.Printf("Warning: Failed to print unified output: %v\n", err)
		printSummary(result)
	}

	fmt.Println()
	fmt.Println("  Reports:")
	fmt.Printf("    JSON:   %s\n", filepath.Join(cfg.OutputDir, "report.json"))
	fmt.Printf("    Log:    %s\n", logPath)
	fmt.Println()

	// Exit with code 1 if any flows failed (summary already printed)
	if result.Status != report.StatusPassed {
		return cli.Exit("", 1)
	}
	return nil
}

// validateAndParseFlows validates and parses all flow files.
func validateAndParseFlows(cfg *RunConfig, resolver *locator.Resolver) ([]flow.Flow, error) {
	testCases, errs := validatePaths(cfg.FlowPaths, cfg.IncludeTags, cfg.ExcludeTags, resolver)

	if len(errs) > 0 {
		fmt.Fprintf(os.Stderr, "Validation errors:\n")
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "  - %v\n", err)
		}
		return nil, fmt.Errorf("validation failed with %d error(s)", len(errs))
	}

	if len(testCases) == 0 {
		return nil, fmt.Errorf("no test flows found")
	}

	fmt.Printf("\n%s\n", bold("Setup"))
	fmt.Println(strings.Repeat("─", 40))
	printSetupSuccess(fmt.Sprintf("Found %d test flow(s)", len(testCases)))

	flows := make([]flow.Flow, 0, len(testCases))
	for _, path := range testCases {
		f, err := flow.ParseFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		flows = append(flows, *f)
	}
	return flows, nil
}

// validatePaths runs the validator over every path and collects the
// selected test cases and all errors.
func validatePaths(paths, includeTags, excludeTags []string, resolver *locator.Resolver) ([]string, []error) {
	v := validator.New(includeTags, excludeTags).WithResolver(resolver)
	var testCases []string
	var errs []error
	for _, path := range paths {
		result := v.Validate(path)
		testCases = append(testCases, result.TestCases...)
		errs = append(errs, result.Errors...)
	}
	return testCases, errs
}

// browserReport converts driver platform info for the report index.
func browserReport(info core.PlatformInfo) report.Browser {
	return report.Browser{
		Name:           info.BrowserName,
		Version:        info.BrowserVersion,
		Headless:       info.Headless,
		ViewportWidth:  info.ViewportWidth,
		ViewportHeight: info.ViewportHeight,
		BaseURL:        info.BaseURL,
	}
}

func parseEnvVars(envs []string) map[string]string {
	result := make(map[string]string)
	for _, e := range envs {
		parts := strings.SplitN(e, "=", 2)
		if len(parts) == 2 {
			result[parts[0]] = parts[1]
		}
	}
	return result
}
