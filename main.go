// Command webflow-runner runs data-driven browser UI scenarios.
package main

import "github.com/devicelab-dev/webflow-runner/pkg/cli"

func main() {
	cli.Execute()
}
