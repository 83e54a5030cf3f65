package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/devicelab-dev/webflow-runner/pkg/core"
)

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
flows:
  - "**"
includeTags:
  - smoke
excludeTags:
  - wip
env:
  USER: test
  PASS: secret
baseUrl: https://www.saucedemo.com
timeoutMs: 8000
locators: data/locators.csv
browser:
  name: firefox
  headless: false
  viewport:
    width: 1440
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Flows) != 1 || cfg.Flows[0] != "**" {
		t.Errorf("expected flows [**], got %v", cfg.Flows)
	}
	if len(cfg.IncludeTags) != 1 || cfg.IncludeTags[0] != "smoke" {
		t.Errorf("expected includeTags [smoke], got %v", cfg.IncludeTags)
	}
	if len(cfg.ExcludeTags) != 1 || cfg.ExcludeTags[0] != "wip" {
		t.Errorf("expected excludeTags [wip], got %v", cfg.ExcludeTags)
	}
	if cfg.Env["USER"] != "test" || cfg.Env["PASS"] != "secret" {
		t.Errorf("expected env {USER:test, PASS:secret}, got %v", cfg.Env)
	}
	if cfg.BaseURL != "https://www.saucedemo.com" {
		t.Errorf("expected baseUrl, got %s", cfg.BaseURL)
	}
	if cfg.TimeoutMs != 8000 {
		t.Errorf("expected timeoutMs 8000, got %d", cfg.TimeoutMs)
	}
	if cfg.Browser.Name != "firefox" || cfg.Browser.IsHeadless() {
		t.Errorf("expected headed firefox, got %+v", cfg.Browser)
	}
	if cfg.Browser.Viewport.Width != 1440 {
		t.Errorf("expected viewport width 1440, got %d", cfg.Browser.Viewport.Width)
	}
	if cfg.Locators != "data/locators.csv" {
		t.Errorf("expected locators path, got %s", cfg.Locators)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `flows: [invalid yaml`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
	if !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoad_EmptyConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := ``
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Flows) != 0 {
		t.Errorf("expected empty flows, got %v", cfg.Flows)
	}
}

func TestLoadFromDir_ConfigYaml(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `browser: {name: webkit}`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Browser.Name != "webkit" {
		t.Errorf("expected browser webkit, got %s", cfg.Browser.Name)
	}
}

func TestLoadFromDir_ConfigYml(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	content := `browser: {name: firefox}`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Browser.Name != "firefox" {
		t.Errorf("expected browser firefox, got %s", cfg.Browser.Name)
	}
}

func TestLoadFromDir_NoConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should return empty config
	if cfg.Browser.Name != "" {
		t.Errorf("expected empty browser, got %s", cfg.Browser.Name)
	}
	if len(cfg.Flows) != 0 {
		t.Errorf("expected empty flows, got %v", cfg.Flows)
	}
}

func TestLoadFromDir_PrefersYamlOverYml(t *testing.T) {
	dir := t.TempDir()

	// Create both config.yaml and config.yml
	yamlContent := `browser: {name: firefox}`
	ymlContent := `browser: {name: webkit}`

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yamlContent), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(ymlContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should prefer config.yaml
	if cfg.Browser.Name != "firefox" {
		t.Errorf("expected browser firefox (from config.yaml), got %s", cfg.Browser.Name)
	}
}

func TestMerge_Defaults(t *testing.T) {
	cfg := &Config{}
	cfg.Merge("/work")

	if cfg.Browser.Name != DefaultBrowser {
		t.Errorf("Browser.Name = %q, want %q", cfg.Browser.Name, DefaultBrowser)
	}
	if !cfg.Browser.IsHeadless() {
		t.Error("expected headless by default")
	}
	if cfg.Browser.Viewport != (Viewport{Width: 1280, Height: 720}) {
		t.Errorf("Viewport = %+v", cfg.Browser.Viewport)
	}
	if cfg.TimeoutMs != 5000 {
		t.Errorf("TimeoutMs = %d, want 5000", cfg.TimeoutMs)
	}
	if cfg.Locators != filepath.Join("/work", "locators", "locators.xlsx") {
		t.Errorf("Locators = %q", cfg.Locators)
	}
	if cfg.TestData != filepath.Join("/work", "test-data", "testData.xlsx") {
		t.Errorf("TestData = %q", cfg.TestData)
	}
	if cfg.Env == nil {
		t.Error("Env should be initialized")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestMerge_KeepsValues(t *testing.T) {
	headless := false
	cfg := &Config{
		TimeoutMs: 250,
		Locators:  "/abs/locators.yaml",
		Browser:   Browser{Name: "WebKit", Headless: &headless},
	}
	cfg.Merge("/work")

	if cfg.Browser.Name != "webkit" {
		t.Errorf("Browser.Name = %q, want webkit", cfg.Browser.Name)
	}
	if cfg.Browser.IsHeadless() {
		t.Error("headless override lost")
	}
	if cfg.TimeoutMs != 250 {
		t.Errorf("TimeoutMs = %d, want 250", cfg.TimeoutMs)
	}
	if cfg.Locators != "/abs/locators.yaml" {
		t.Errorf("Locators = %q", cfg.Locators)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown browser", Config{Browser: Browser{Name: "lynx"}}},
		{"negative timeout", Config{TimeoutMs: -1, Browser: Browser{Name: "chromium"}}},
		{"negative viewport", Config{Browser: Browser{Name: "chromium", Viewport: Viewport{Width: -5}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if !errors.Is(err, core.ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestIsConfigFile(t *testing.T) {
	for name, want := range map[string]bool{
		"config.yaml":          true,
		"flows/config.yml":     true,
		"login.yaml":           false,
		"config.yaml.disabled": false,
	} {
		if got := IsConfigFile(name); got != want {
			t.Errorf("IsConfigFile(%q) = %v, want %v", name, got, want)
		}
	}
}
