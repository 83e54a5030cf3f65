package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/devicelab-dev/webflow-runner/pkg/browser/playwright"
	"github.com/devicelab-dev/webflow-runner/pkg/config"
	"github.com/devicelab-dev/webflow-runner/pkg/locator"
	"github.com/devicelab-dev/webflow-runner/pkg/report"
	"github.com/devicelab-dev/webflow-runner/pkg/store"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Store flags shared by commands that read the locator or test data tables.
var storeFlags = []cli.Flag{
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
}

var formatFlag = &cli.StringFlag{
	Name:    "format",
	Aliases: []string{"f"},
	Usage:   "Output format (yaml, json)",
	Value:   "yaml",
}

var validateCommand = &cli.Command{
	Name:      "validate",
	Usage:     "Parse scenario files and check every element reference",
	ArgsUsage: "<flow-file-or-folder>...",
	Flags: append(append([]cli.Flag(nil), storeFlags...),
		&cli.StringSliceFlag{
			Name:  "include-tags",
			Usage: "Only include flows with these tags",
		},
		&cli.StringSliceFlag{
			Name:  "exclude-tags",
			Usage: "Exclude flows with these tags",
		},
	),
	Action: runValidate,
}

var locateCommand = &cli.Command{
	Name:      "locate",
	Usage:     "Print the resolved locator for an element",
	ArgsUsage: "[screen] [element]",
	Description: `Without arguments, lists the screens in the locator table.
With a screen, lists its elements. With both, prints the normalized
descriptor including the selector query and iframe scope.`,
	Flags:  append(append([]cli.Flag(nil), storeFlags...), formatFlag),
	Action: runLocate,
}

var dataCommand = &cli.Command{
	Name:      "data",
	Usage:     "Print the test data record for a scenario",
	ArgsUsage: "[scenario]",
	Description: `Scenario matching is a case-insensitive substring match on the
Scenario column; the first matching row wins. Without arguments every
record is printed.`,
	Flags: append(append([]cli.Flag(nil), storeFlags...),
		formatFlag,
		&cli.StringFlag{
			Name:  "id",
			Usage: "Look up a record by exact TestCaseID instead",
		},
	),
	Action: runData,
}

var initCommand = &cli.Command{
	Name:      "init",
	Usage:     "Create a sample workspace",
	ArgsUsage: "[dir]",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "force",
			Usage: "Overwrite existing files",
		},
	},
	Action: runInit,
}

var installBrowsersCommand = &cli.Command{
	Name:      "install-browsers",
	Usage:     "Download the playwright driver and browsers",
	ArgsUsage: "[browser]...",
	Action:    runInstallBrowsers,
}

var reportCommand = &cli.Command{
	Name:      "report",
	Usage:     "Print the results of a previous run",
	ArgsUsage: "<report-dir>",
	Description: `Reads report.json and the flow files from a report directory. A run
that was killed is finalized first: running flows get a status inferred
from their commands.

With --follow, flow progress of a run that is still writing to the
directory is printed until the run finishes.`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "follow",
			Aliases: []string{"f"},
			Usage:   "Print progress until the run finishes",
		},
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "Poll interval for --follow",
			Value: time.Second,
		},
	},
	Action: runReport,
}

// loadStores loads the workspace config for store commands and applies
// --locators and --test-data.
func loadStores(c *cli.Context, paths []string) (*config.Config, error) {
	ws, dir, err := loadWorkspace(c.String("config"), paths)
	if err != nil {
		return nil, err
	}
	ws.Merge(dir)
	if c.IsSet("locators") {
		ws.Locators = c.String("locators")
	}
	if c.IsSet("test-data") {
		ws.TestData = c.String("test-data")
	}
	return ws, nil
}

func runValidate(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("at least one flow file or folder is required")
	}
	paths := c.Args().Slice()

	ws, err := loadStores(c, paths)
	if err != nil {
		return err
	}
	resolver := locator.NewResolver(store.NewDescriptorStore(ws.Locators))

	testCases, errs := validatePaths(paths,
		append(c.StringSlice("include-tags"), ws.IncludeTags...),
		append(c.StringSlice("exclude-tags"), ws.ExcludeTags...),
		resolver)

	for _, tc := range testCases {
		fmt.Printf("  %s %s\n", green("✓"), tc)
	}
	if len(errs) > 0 {
		fmt.Fprintf(os.Stderr, "\nValidation errors:\n")
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "  %s %v\n", red("✗"), err)
		}
		return cli.Exit(fmt.Sprintf("validation failed with %d error(s)", len(errs)), 1)
	}
	if len(testCases) == 0 {
		return fmt.Errorf("no test flows found")
	}
	fmt.Printf("\n%d flow(s) valid\n", len(testCases))
	return nil
}

// descriptorView is the printable form of a resolved descriptor.
type descriptorView struct {
	Screen   string `json:"screen" yaml:"screen"`
	Element  string `json:"element" yaml:"element"`
	Selector string `json:"selector" yaml:"selector"`
	Type     string `json:"type" yaml:"type"`
	Query    string `json:"query" yaml:"query"`
	Scope    string `json:"scope" yaml:"scope"`
	Iframe   string `json:"iframe,omitempty" yaml:"iframe,omitempty"`
}

func newDescriptorView(d locator.Descriptor) descriptorView {
	return descriptorView{
		Screen:   d.Screen,
		Element:  d.Element,
		Selector: d.Selector,
		Type:     string(d.Type),
		Query:    d.Query(),
		Scope:    d.Scope.Kind.String(),
		Iframe:   d.Scope.IframeSelector,
	}
}

func runLocate(c *cli.Context) error {
	ws, err := loadStores(c, nil)
	if err != nil {
		return err
	}
	resolver := locator.NewResolver(store.NewDescriptorStore(ws.Locators))

	switch c.NArg() {
	case 0:
		screens, err := resolver.Screens()
		if err != nil {
			return err
		}
		return writeFormatted(c.App.Writer, c.String("format"), screens)
	case 1:
		elements, err := resolver.Elements(c.Args().Get(0))
		if err != nil {
			return err
		}
		return writeFormatted(c.App.Writer, c.String("format"), elements)
	default:
		d, err := resolver.Resolve(c.Args().Get(0), c.Args().Get(1))
		if err != nil {
			return err
		}
		return writeFormatted(c.App.Writer, c.String("format"), newDescriptorView(d))
	}
}

func runData(c *cli.Context) error {
	ws, err := loadStores(c, nil)
	if err != nil {
		return err
	}
	provider := store.NewProvider(ws.TestData)

	if id := c.String("id"); id != "" {
		rec, ok, err := provider.Get(id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no test data with TestCaseID %q", id)
		}
		return writeFormatted(c.App.Writer, c.String("format"), rec)
	}

	if c.NArg() == 0 {
		records, err := provider.Records()
		if err != nil {
			return err
		}
		return writeFormatted(c.App.Writer, c.String("format"), records)
	}

	query := strings.Join(c.Args().Slice(), " ")
	rec, ok, err := provider.Find(query)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no test data for scenario %q", query)
	}
	return writeFormatted(c.App.Writer, c.String("format"), rec)
}

// writeFormatted encodes v as yaml or json.
func writeFormatted(w io.Writer, format string, v interface{}) error {
	switch strings.ToLower(format) {
	case "", "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	default:
		return fmt.Errorf("unknown format %q (expected yaml or json)", format)
	}
}

const sampleConfig = `# webflow-runner workspace
flows:
  - flows/*
locators: locators/locators.xlsx
testData: test-data/testData.xlsx
baseUrl: https://www.saucedemo.com
timeoutMs: 5000
browser:
  name: chromium
  headless: true
  viewport:
    width: 1280
    height: 720
`

const sampleFlow = `name: Login with valid credentials
url: /
testData: valid credentials
tags:
  - smoke
---
- fill:
    element: LoginPage.username
    text: ${USERNAME}
- fill:
    element: LoginPage.password
    text: ${PASSWORD}
- click: LoginPage.loginButton
- assertUrl: inventory.html
- assertVisible: ProductsPage.productTitle
- assertText:
    element: ProductsPage.productTitle
    equals: Products
`

const sampleInvalidLoginFlow = `name: Login with invalid password
url: /
testData: invalid password
tags:
  - smoke
---
- fill:
    element: LoginPage.username
    text: ${USERNAME}
- fill:
    element: LoginPage.password
    text: ${PASSWORD}
- click: LoginPage.loginButton
- assertVisible: LoginPage.errorMessage
- assertText:
    element: LoginPage.errorMessage
    contains: do not match
`

// initWorkspace writes the sample workspace under dir and returns the
// written paths. Existing files are kept unless force is set.
func initWorkspace(dir string, force bool) ([]string, error) {
	files := map[string]string{
		"config.yaml":                 sampleConfig,
		"flows/login.yaml":            sampleFlow,
		"flows/invalid_password.yaml": sampleInvalidLoginFlow,
	}
	targets := []string{
		filepath.Join(dir, store.DefaultLocatorsPath),
		filepath.Join(dir, store.DefaultTestDataPath),
	}
	for name := range files {
		targets = append(targets, filepath.Join(dir, filepath.FromSlash(name)))
	}
	if !force {
		for _, t := range targets {
			if _, err := os.Stat(t); err == nil {
				return nil, fmt.Errorf("%s already exists (use --force to overwrite)", t)
			} else if !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	locatorsPath, testDataPath, err := store.WriteSampleWorkbooks(dir)
	if err != nil {
		return nil, err
	}
	written := []string{locatorsPath, testDataPath}

	for _, name := range []string{"config.yaml", "flows/login.yaml", "flows/invalid_password.yaml"} {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, []byte(files[name]), 0o644); err != nil {
			return nil, err
		}
		written = append(written, path)
	}
	return written, nil
}

func runInit(c *cli.Context) error {
	dir := "."
	if c.NArg() > 0 {
		dir = c.Args().Get(0)
	}

	written, err := initWorkspace(dir, c.Bool("force"))
	if err != nil {
		return err
	}
	for _, path := range written {
		printSetupSuccess(path)
	}
	fmt.Printf("\nRun the sample with:\n  webflow-runner test %s\n", dir)
	return nil
}

func runInstallBrowsers(c *cli.Context) error {
	browsers := c.Args().Slice()
	for _, b := range browsers {
		if !isKnownBrowser(b) {
			return fmt.Errorf("unknown browser %q (expected one of %s)", b, strings.Join(config.Browsers, ", "))
		}
	}
	if len(browsers) == 0 {
		browsers = config.Browsers
	}

	printSetupStep(fmt.Sprintf("Installing %s into %s...", strings.Join(browsers, ", "), config.PlaywrightDir()))
	if err := playwright.Install(browsers...); err != nil {
		return err
	}
	printSetupSuccess("Browsers installed")
	return nil
}

func isKnownBrowser(name string) bool {
	for _, b := range config.Browsers {
		if b == name {
			return true
		}
	}
	return false
}

func runReport(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("a report directory is required")
	}
	dir := c.Args().Get(0)

	if c.Bool("follow") {
		if c.Duration("interval") <= 0 {
			return fmt.Errorf("--interval must be positive")
		}
		if _, err := followReport(c.Context, c.App.Writer, dir, c.Duration("interval")); err != nil {
			return fmt.Errorf("follow report: %w", err)
		}
	}

	if err := report.Recover(dir); err != nil {
		return fmt.Errorf("read report: %w", err)
	}
	index, details, err := report.ReadReport(dir)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	result := runResultFromIndex(index, details)
	printDetailedFlowResults(dir, index)
	printStepTotals(result.FlowResults, result.Duration)
	printUnifiedSummaryTable(index, result)
	printBrowserSummary(index)

	if index.Status != report.StatusPassed {
		return cli.Exit("", 1)
	}
	return nil
}
