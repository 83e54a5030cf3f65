package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devicelab-dev/webflow-runner/pkg/core"
	"github.com/devicelab-dev/webflow-runner/pkg/flow"
	"github.com/devicelab-dev/webflow-runner/pkg/report"
	"github.com/devicelab-dev/webflow-runner/pkg/store"
)

// mockDriver implements core.Driver for testing.
type mockDriver struct {
	mu             sync.Mutex
	executed       []flow.Step
	executeFunc    func(step flow.Step) *core.CommandResult
	screenshotFunc func() ([]byte, error)
}

func (m *mockDriver) Execute(step flow.Step) *core.CommandResult {
	m.mu.Lock()
	m.executed = append(m.executed, step)
	m.mu.Unlock()
	if m.executeFunc != nil {
		return m.executeFunc(step)
	}
	return &core.CommandResult{Success: true, Duration: time.Millisecond}
}

func (m *mockDriver) Screenshot() ([]byte, error) {
	if m.screenshotFunc != nil {
		return m.screenshotFunc()
	}
	return []byte{0x89, 0x50, 0x4E, 0x47}, nil // PNG magic bytes
}

func (m *mockDriver) Hierarchy() ([]byte, error) {
	return []byte("<html><body></body></html>"), nil
}

func (m *mockDriver) GetPlatformInfo() *core.PlatformInfo {
	return &core.PlatformInfo{Platform: "web", BrowserName: "chromium"}
}

func (m *mockDriver) steps() []flow.Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]flow.Step(nil), m.executed...)
}

// mockSessions implements core.SessionFactory over one shared mock driver.
type mockSessions struct {
	driver    *mockDriver
	err       error
	opened    int
	released  int
	variables []map[string]string
}

func (m *mockSessions) NewSession(ctx context.Context, variables map[string]string) (core.Driver, func(), error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	m.opened++
	m.variables = append(m.variables, variables)
	return m.driver, func() { m.released++ }, nil
}

func parseFlow(t *testing.T, name, src string) flow.Flow {
	t.Helper()
	f, err := flow.Parse([]byte(src), name)
	if err != nil {
		t.Fatalf("parse %s: %v", name, err)
	}
	return *f
}

func newRunner(t *testing.T, driver *mockDriver, cfg RunnerConfig) (*Runner, *mockSessions) {
	t.Helper()
	if cfg.OutputDir == "" {
		cfg.OutputDir = t.TempDir()
	}
	sessions := &mockSessions{driver: driver}
	return New(sessions, cfg), sessions
}

func failOn(stepType flow.StepType, err error) func(flow.Step) *core.CommandResult {
	return func(step flow.Step) *core.CommandResult {
		if step.Type() == stepType {
			return &core.CommandResult{Success: false, Error: err}
		}
		return &core.CommandResult{Success: true}
	}
}

func TestRunner_Run_AllPassed(t *testing.T) {
	driver := &mockDriver{}
	runner, sessions := newRunner(t, driver, RunnerConfig{
		Artifacts:     ArtifactNever,
		Browser:       report.Browser{Name: "chromium", Headless: true},
		RunnerVersion: "1.0.0",
		DriverName:    "mock",
	})

	flows := []flow.Flow{
		parseFlow(t, "login.yaml", `
- navigate: /
- click: LoginPage.loginButton
`),
		parseFlow(t, "title.yaml", `
- assertTitle: Swag Labs
`),
	}

	result, err := runner.Run(context.Background(), flows)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Status != report.StatusPassed {
		t.Errorf("Status = %v, want %v", result.Status, report.StatusPassed)
	}
	if result.TotalFlows != 2 || result.PassedFlows != 2 {
		t.Errorf("TotalFlows/PassedFlows = %d/%d, want 2/2", result.TotalFlows, result.PassedFlows)
	}
	if result.FlowResults[0].StepsPassed != 2 {
		t.Errorf("StepsPassed = %d, want 2", result.FlowResults[0].StepsPassed)
	}

	// One isolated session per flow, always released
	if sessions.opened != 2 || sessions.released != 2 {
		t.Errorf("sessions opened/released = %d/%d, want 2/2", sessions.opened, sessions.released)
	}
	if len(driver.steps()) != 3 {
		t.Errorf("executed %d steps, want 3", len(driver.steps()))
	}
}

func TestRunner_Run_WithFailure(t *testing.T) {
	tmpDir := t.TempDir()
	driver := &mockDriver{
		executeFunc: failOn(flow.StepClick, core.ErrElementNotFound.WithMessage("no locator found for element LoginPage.loginButton")),
	}
	runner, sessions := newRunner(t, driver, RunnerConfig{OutputDir: tmpDir, Artifacts: ArtifactNever})

	flows := []flow.Flow{parseFlow(t, "login.yaml", `
- navigate: /
- click: LoginPage.loginButton
- assertVisible: ProductsPage.title
`)}

	result, err := runner.Run(context.Background(), flows)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Status != report.StatusFailed {
		t.Errorf("Status = %v, want %v", result.Status, report.StatusFailed)
	}
	fr := result.FlowResults[0]
	if fr.StepsPassed != 1 || fr.StepsFailed != 1 || fr.StepsSkipped != 1 {
		t.Errorf("steps passed/failed/skipped = %d/%d/%d, want 1/1/1", fr.StepsPassed, fr.StepsFailed, fr.StepsSkipped)
	}
	if !strings.Contains(fr.Error, "LoginPage.loginButton") {
		t.Errorf("Error = %q, want the missing element", fr.Error)
	}
	if sessions.released != 1 {
		t.Errorf("session released %d times, want 1", sessions.released)
	}

	index, details, err := report.ReadReport(tmpDir)
	if err != nil {
		t.Fatalf("ReadReport() error = %v", err)
	}
	if index.Status != report.StatusFailed {
		t.Errorf("index.Status = %v, want failed", index.Status)
	}
	cmds := details[0].Commands
	if cmds[1].Error == nil || cmds[1].Error.Type != "locator" {
		t.Errorf("Commands[1].Error = %+v, want locator error", cmds[1].Error)
	}
	if cmds[2].Status != report.StatusSkipped {
		t.Errorf("Commands[2].Status = %v, want skipped", cmds[2].Status)
	}
}

func TestRunner_OptionalStepFailure(t *testing.T) {
	driver := &mockDriver{executeFunc: failOn(flow.StepClick, errors.New("boom"))}
	runner, _ := newRunner(t, driver, RunnerConfig{Artifacts: ArtifactNever})

	result, err := runner.Run(context.Background(), []flow.Flow{parseFlow(t, "cookie.yaml", `
- click:
    element: CookieBanner.accept
    optional: true
- assertVisible: ProductsPage.title
`)})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Status != report.StatusPassed {
		t.Errorf("Status = %v, want passed", result.Status)
	}
	if fr := result.FlowResults[0]; fr.StepsFailed != 1 || fr.StepsPassed != 1 {
		t.Errorf("steps passed/failed = %d/%d, want 1/1", fr.StepsPassed, fr.StepsFailed)
	}
}

func TestRunner_StopOnFail(t *testing.T) {
	driver := &mockDriver{executeFunc: failOn(flow.StepClick, errors.New("boom"))}
	runner, sessions := newRunner(t, driver, RunnerConfig{StopOnFail: true, Artifacts: ArtifactNever})

	flows := []flow.Flow{
		parseFlow(t, "a.yaml", "- click: LoginPage.loginButton\n"),
		parseFlow(t, "b.yaml", "- navigate: /\n"),
	}

	result, err := runner.Run(context.Background(), flows)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.FailedFlows != 1 || result.SkippedFlows != 1 {
		t.Errorf("failed/skipped = %d/%d, want 1/1", result.FailedFlows, result.SkippedFlows)
	}
	if sessions.opened != 1 {
		t.Errorf("sessions opened = %d, want 1", sessions.opened)
	}
}

func TestRunner_ContextCancelled(t *testing.T) {
	driver := &mockDriver{}
	runner, sessions := newRunner(t, driver, RunnerConfig{Artifacts: ArtifactNever})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := runner.Run(ctx, []flow.Flow{parseFlow(t, "a.yaml", "- navigate: /\n")})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.SkippedFlows != 1 {
		t.Errorf("SkippedFlows = %d, want 1", result.SkippedFlows)
	}
	if result.Status != report.StatusPassed {
		t.Errorf("Status = %v, want passed (nothing failed)", result.Status)
	}
	if sessions.opened != 0 {
		t.Errorf("sessions opened = %d, want 0", sessions.opened)
	}
}

func TestRunner_SessionError(t *testing.T) {
	tmpDir := t.TempDir()
	runner, sessions := newRunner(t, &mockDriver{}, RunnerConfig{OutputDir: tmpDir, Artifacts: ArtifactNever})
	sessions.err = core.ErrBrowserUnavailable.WithCause(errors.New("executable doesn't exist"))

	result, err := runner.Run(context.Background(), []flow.Flow{parseFlow(t, "a.yaml", "- navigate: /\n- click: LoginPage.loginButton\n")})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	fr := result.FlowResults[0]
	if fr.Status != report.StatusFailed {
		t.Errorf("Status = %v, want failed", fr.Status)
	}
	if !strings.Contains(fr.Error, "open browser session") {
		t.Errorf("Error = %q", fr.Error)
	}
	if fr.StepsSkipped != 2 {
		t.Errorf("StepsSkipped = %d, want 2", fr.StepsSkipped)
	}

	index, err := report.ReadIndex(filepath.Join(tmpDir, "report.json"))
	if err != nil {
		t.Fatalf("ReadIndex() error = %v", err)
	}
	if index.Flows[0].Error == nil || !strings.Contains(*index.Flows[0].Error, "executable doesn't exist") {
		t.Errorf("index error = %v", index.Flows[0].Error)
	}
}

func TestRunner_ArtifactsOnFailure(t *testing.T) {
	tmpDir := t.TempDir()
	driver := &mockDriver{executeFunc: failOn(flow.StepAssertVisible, errors.New("not visible"))}
	runner, _ := newRunner(t, driver, RunnerConfig{OutputDir: tmpDir, Artifacts: ArtifactOnFailure})

	if _, err := runner.Run(context.Background(), []flow.Flow{parseFlow(t, "a.yaml", `
- navigate: /
- assertVisible: ProductsPage.title
`)}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	_, details, err := report.ReadReport(tmpDir)
	if err != nil {
		t.Fatalf("ReadReport() error = %v", err)
	}
	if a := details[0].Commands[0].Artifacts; a.ScreenshotAfter != "" {
		t.Errorf("passing step captured %+v", a)
	}
	a := details[0].Commands[1].Artifacts
	if a.ScreenshotAfter == "" || a.PageSource == "" {
		t.Fatalf("failing step artifacts = %+v", a)
	}
	for _, p := range []string{a.ScreenshotAfter, a.PageSource} {
		if _, err := os.Stat(filepath.Join(tmpDir, p)); err != nil {
			t.Errorf("artifact %s missing: %v", p, err)
		}
	}
}

func TestRunner_Variables(t *testing.T) {
	driver := &mockDriver{}
	runner, sessions := newRunner(t, driver, RunnerConfig{
		Artifacts: ArtifactNever,
		Env:       map[string]string{"USERNAME": "standard_user", "BASE_URL": "https://staging.example.com"},
	})

	f := parseFlow(t, "login.yaml", `
env:
  PASSWORD: secret_sauce
---
- defineVariables:
    GREETING: "Hello ${USERNAME}"
- fill:
    element: LoginPage.username
    text: ${USERNAME}
- fill:
    element: LoginPage.password
    text: $PASSWORD
- assertText:
    element: ProductsPage.title
    contains: ${GREETING}
`)

	if _, err := runner.Run(context.Background(), []flow.Flow{f}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	executed := driver.steps()
	if len(executed) != 3 {
		t.Fatalf("executed %d driver steps, want 3", len(executed))
	}
	if got := executed[0].(*flow.FillStep).Text; got != "standard_user" {
		t.Errorf("fill text = %q, want standard_user", got)
	}
	if got := executed[1].(*flow.FillStep).Text; got != "secret_sauce" {
		t.Errorf("fill text = %q, want secret_sauce", got)
	}
	if got := executed[2].(*flow.AssertTextStep).Contains; got != "Hello standard_user" {
		t.Errorf("assertText contains = %q", got)
	}

	// The parsed flow keeps its placeholders
	if got := f.Steps[1].(*flow.FillStep).Text; got != "${USERNAME}" {
		t.Errorf("parsed step mutated to %q", got)
	}
	if got := sessions.variables[0]["BASE_URL"]; got != "https://staging.example.com" {
		t.Errorf("session BASE_URL = %q", got)
	}
}

func TestRunner_TestData(t *testing.T) {
	tmpDir := t.TempDir()
	driver := &mockDriver{}
	runner, _ := newRunner(t, driver, RunnerConfig{
		OutputDir: tmpDir,
		Artifacts: ArtifactNever,
		TestData: store.NewStaticProvider([]store.Record{
			{TestCaseID: "TC001", Scenario: "Valid Login", Username: "standard_user", Password: "secret_sauce", ExpectedResult: "Products"},
			{TestCaseID: "TC002", Scenario: "Locked Out User", Username: "locked_out_user", Password: "secret_sauce"},
		}),
	})

	flows := []flow.Flow{
		parseFlow(t, "login.yaml", `
testData: valid login
---
- fill:
    element: LoginPage.username
    text: ${USERNAME}
- assertText:
    element: ProductsPage.title
    equals: ${EXPECTED_RESULT}
`),
		parseFlow(t, "missing.yaml", `
testData: no such scenario
---
- navigate: /
`),
	}

	result, err := runner.Run(context.Background(), flows)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	executed := driver.steps()
	if got := executed[0].(*flow.FillStep).Text; got != "standard_user" {
		t.Errorf("fill text = %q, want standard_user", got)
	}
	if got := executed[1].(*flow.AssertTextStep).Equals; got != "Products" {
		t.Errorf("assertText equals = %q, want Products", got)
	}

	if result.FlowResults[0].Status != report.StatusPassed {
		t.Errorf("flow 0 = %v, want passed", result.FlowResults[0].Status)
	}
	if fr := result.FlowResults[1]; fr.Status != report.StatusFailed || !strings.Contains(fr.Error, "no such scenario") {
		t.Errorf("flow 1 = %v %q, want failed on missing record", fr.Status, fr.Error)
	}

	index, err := report.ReadIndex(filepath.Join(tmpDir, "report.json"))
	if err != nil {
		t.Fatalf("ReadIndex() error = %v", err)
	}
	if index.Flows[0].TestData != "TC001" {
		t.Errorf("index TestData = %q, want TC001", index.Flows[0].TestData)
	}
}

func TestRunner_TestDataWithoutStore(t *testing.T) {
	runner, sessions := newRunner(t, &mockDriver{}, RunnerConfig{Artifacts: ArtifactNever})

	result, err := runner.Run(context.Background(), []flow.Flow{parseFlow(t, "a.yaml", "testData: valid login\n---\n- navigate: /\n")})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.FlowResults[0].Status != report.StatusFailed {
		t.Errorf("Status = %v, want failed", result.FlowResults[0].Status)
	}
	if sessions.opened != 0 {
		t.Errorf("opened a session for a flow without data")
	}
}

func TestRunner_Repeat(t *testing.T) {
	tmpDir := t.TempDir()
	driver := &mockDriver{}
	runner, _ := newRunner(t, driver, RunnerConfig{OutputDir: tmpDir, Artifacts: ArtifactNever, Env: map[string]string{"TIMES": "3"}})

	result, err := runner.Run(context.Background(), []flow.Flow{parseFlow(t, "a.yaml", `
- repeat:
    times: ${TIMES}
    commands:
      - click: ProductsPage.addToCart
`)})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(driver.steps()) != 3 {
		t.Errorf("executed %d steps, want 3", len(driver.steps()))
	}
	if result.FlowResults[0].StepsPassed != 3 {
		t.Errorf("StepsPassed = %d, want 3", result.FlowResults[0].StepsPassed)
	}

	_, details, err := report.ReadReport(tmpDir)
	if err != nil {
		t.Fatalf("ReadReport() error = %v", err)
	}
	if subs := details[0].Commands[0].SubCommands; len(subs) != 3 {
		t.Errorf("SubCommands = %d, want 3", len(subs))
	}
}

func TestRunner_RunFlowFile(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "common", "login.yaml")
	if err := os.MkdirAll(filepath.Dir(sub), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(sub, []byte(`
- fill:
    element: LoginPage.username
    text: ${WHO}
- click: LoginPage.loginButton
`), 0o644); err != nil {
		t.Fatal(err)
	}

	driver := &mockDriver{}
	runner, _ := newRunner(t, driver, RunnerConfig{Artifacts: ArtifactNever})
	main := parseFlow(t, filepath.Join(dir, "main.yaml"), `
- runFlow:
    file: common/login.yaml
    env:
      WHO: problem_user
- assertUrl: inventory
`)

	result, err := runner.Run(context.Background(), []flow.Flow{main})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Status != report.StatusPassed {
		t.Fatalf("Status = %v: %s", result.Status, result.FlowResults[0].Error)
	}

	executed := driver.steps()
	if len(executed) != 3 {
		t.Fatalf("executed %d steps, want 3", len(executed))
	}
	if got := executed[0].(*flow.FillStep).Text; got != "problem_user" {
		t.Errorf("fill text = %q, want problem_user", got)
	}
}

func TestRunner_RunFlowMissingFile(t *testing.T) {
	runner, _ := newRunner(t, &mockDriver{}, RunnerConfig{Artifacts: ArtifactNever})
	result, err := runner.Run(context.Background(), []flow.Flow{parseFlow(t, "main.yaml", "- runFlow: nope.yaml\n")})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Status != report.StatusFailed {
		t.Errorf("Status = %v, want failed", result.Status)
	}
}

func TestRunner_Hooks(t *testing.T) {
	driver := &mockDriver{executeFunc: failOn(flow.StepClick, errors.New("boom"))}
	runner, _ := newRunner(t, driver, RunnerConfig{Artifacts: ArtifactNever})

	f := parseFlow(t, "a.yaml", `
url: https://www.saucedemo.com/
onFlowStart:
  - assertTitle: Swag Labs
onFlowComplete:
  - takeScreenshot: final
---
- click: LoginPage.loginButton
- assertVisible: ProductsPage.title
`)

	result, err := runner.Run(context.Background(), []flow.Flow{f})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Status != report.StatusFailed {
		t.Errorf("Status = %v, want failed", result.Status)
	}

	var types []string
	for _, s := range driver.steps() {
		types = append(types, string(s.Type()))
	}
	want := "navigate,assertTitle,click"
	if got := strings.Join(types, ","); got != want {
		t.Errorf("driver steps = %s, want %s", got, want)
	}
	if nav := driver.steps()[0].(*flow.NavigateStep); nav.URL != "https://www.saucedemo.com/" {
		t.Errorf("start URL = %q", nav.URL)
	}
}

func TestRunner_OnFlowStartFailure(t *testing.T) {
	driver := &mockDriver{executeFunc: failOn(flow.StepAssertTitle, errors.New("wrong title"))}
	runner, sessions := newRunner(t, driver, RunnerConfig{Artifacts: ArtifactNever})

	result, err := runner.Run(context.Background(), []flow.Flow{parseFlow(t, "a.yaml", `
onFlowStart:
  - assertTitle: Swag Labs
---
- click: LoginPage.loginButton
`)})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	fr := result.FlowResults[0]
	if fr.Status != report.StatusFailed || !strings.Contains(fr.Error, "onFlowStart failed") {
		t.Errorf("flow = %v %q", fr.Status, fr.Error)
	}
	if len(driver.steps()) != 1 {
		t.Errorf("steps ran after a failed hook: %d", len(driver.steps()))
	}
	if sessions.released != 1 {
		t.Errorf("session not released")
	}
}

func TestRunner_DefaultTimeout(t *testing.T) {
	driver := &mockDriver{}
	runner, _ := newRunner(t, driver, RunnerConfig{Artifacts: ArtifactNever})

	if _, err := runner.Run(context.Background(), []flow.Flow{parseFlow(t, "a.yaml", `
timeout: 8000
---
- click: LoginPage.loginButton
- click:
    element: LoginPage.loginButton
    timeout: 500
`)}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	executed := driver.steps()
	if got := executed[0].Timeout(); got != 8000 {
		t.Errorf("default timeout = %d, want 8000", got)
	}
	if got := executed[1].Timeout(); got != 500 {
		t.Errorf("explicit timeout = %d, want 500", got)
	}
}

func TestRunner_TakeScreenshot(t *testing.T) {
	tmpDir := t.TempDir()
	driver := &mockDriver{}
	runner, _ := newRunner(t, driver, RunnerConfig{OutputDir: tmpDir, Artifacts: ArtifactNever})

	if _, err := runner.Run(context.Background(), []flow.Flow{parseFlow(t, "a.yaml", "- takeScreenshot: inventory\n")}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	_, details, err := report.ReadReport(tmpDir)
	if err != nil {
		t.Fatalf("ReadReport() error = %v", err)
	}
	shots := details[0].Artifacts.Screenshots
	if len(shots) != 1 || filepath.Base(shots[0]) != "inventory.png" {
		t.Fatalf("Screenshots = %v", shots)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, shots[0])); err != nil {
		t.Errorf("screenshot missing: %v", err)
	}
	if len(driver.steps()) != 0 {
		t.Errorf("takeScreenshot should not reach Execute")
	}
}

func TestRunner_Callbacks(t *testing.T) {
	var events []string
	runner, _ := newRunner(t, &mockDriver{}, RunnerConfig{
		Artifacts: ArtifactNever,
		OnFlowStart: func(idx, total int, name, file string) {
			events = append(events, "start "+name+" "+file)
		},
		OnStepComplete: func(idx int, desc string, passed bool, durationMs int64, err string) {
			events = append(events, "step "+desc)
		},
		OnFlowEnd: func(name string, passed bool, durationMs int64) {
			events = append(events, "end "+name)
		},
	})

	if _, err := runner.Run(context.Background(), []flow.Flow{parseFlow(t, "flows/login.yaml", "- click: LoginPage.loginButton\n")}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{"start login login.yaml", "step click: LoginPage.loginButton", "end login"}
	if strings.Join(events, "|") != strings.Join(want, "|") {
		t.Errorf("events = %q, want %q", events, want)
	}
}

func TestParseArtifactMode(t *testing.T) {
	tests := []struct {
		in   string
		want ArtifactMode
		ok   bool
	}{
		{"", ArtifactOnFailure, true},
		{"on-failure", ArtifactOnFailure, true},
		{"always", ArtifactAlways, true},
		{"never", ArtifactNever, true},
		{"sometimes", ArtifactOnFailure, false},
	}
	for _, tt := range tests {
		got, ok := ParseArtifactMode(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseArtifactMode(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
