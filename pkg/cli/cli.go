// Package cli provides the command-line interface for webflow-runner.
package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose (debug) logging",
		EnvVars: []string{"WEBFLOW_VERBOSE"},
	},
	&cli.StringFlag{
		Name:    "log-file",
		Usage:   "Log file path (default: <output>/webflow-runner.log)",
		EnvVars: []string{"WEBFLOW_LOG_FILE"},
	},
	&cli.BoolFlag{
		Name:    "no-ansi",
		Usage:   "Disable ANSI colors",
		EnvVars: []string{"WEBFLOW_NO_ANSI"},
	},
}

// newApp builds the CLI application.
func newApp() *cli.App {
	return &cli.App{
		Name:    "webflow-runner",
		Usage:   "Data-driven browser UI test runner",
		Version: Version,
		Description: `webflow-runner executes YAML scenario files against a real browser.
Elements are referenced as Screen.element and resolved through a locator
table; scenarios can bind a row of test data by scenario name.

Examples:
  webflow-runner init
  webflow-runner test flows/
  webflow-runner test flows/login.yaml --browser firefox -e BASE_URL=https://staging.example.com
  webflow-runner locate LoginPage username`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if c.Bool("no-ansi") {
				color.NoColor = true
			}
			return nil
		},
		Commands: []*cli.Command{
			testCommand,
			validateCommand,
			locateCommand,
			dataCommand,
			initCommand,
			installBrowsersCommand,
			reportCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := newApp().Run(os.Args); err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
