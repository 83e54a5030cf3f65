package config

import (
	"os"
	"path/filepath"
	"sync"
)

// EnvHome overrides where the runner keeps its playwright driver and browsers.
const EnvHome = "WEBFLOW_RUNNER_HOME"

var (
	homeOnce sync.Once
	homeDir  string
)

// GetHome returns the directory that holds installed browser tooling. It is
// $WEBFLOW_RUNNER_HOME when set, the install prefix when the binary sits in
// <prefix>/bin, and the working directory otherwise. The result is cached.
func GetHome() string {
	homeOnce.Do(func() {
		homeDir = resolveHome()
	})
	return homeDir
}

// PlaywrightDir is where install-browsers puts the playwright driver, its
// node runtime and the downloaded browser builds.
func PlaywrightDir() string {
	return filepath.Join(GetHome(), "drivers", "playwright")
}

// PlaywrightInstalled reports whether install-browsers has populated
// PlaywrightDir. The driver keeps its scripts under package/.
func PlaywrightInstalled() bool {
	info, err := os.Stat(filepath.Join(PlaywrightDir(), "package"))
	return err == nil && info.IsDir()
}

func resolveHome() string {
	if env := os.Getenv(EnvHome); env != "" {
		return env
	}

	if execPath, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
			execPath = resolved
		}
		if binDir := filepath.Dir(execPath); filepath.Base(binDir) == "bin" {
			return filepath.Dir(binDir)
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}
	return "."
}

// ResetHome forgets the cached home so tests can point EnvHome elsewhere.
func ResetHome() {
	homeOnce = sync.Once{}
	homeDir = ""
}
