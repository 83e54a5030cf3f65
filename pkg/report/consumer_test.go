package report

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
)

// loginRun returns a two-flow run: the valid login has finished, the invalid
// password flow is on its second command.
func loginRun() (*Index, []FlowDetail) {
	index := &Index{
		Version:   Version,
		RunID:     "run-1",
		Status:    StatusRunning,
		UpdateSeq: 3,
		Flows: []FlowEntry{
			{ID: "flow-000", Name: "Login with valid credentials", Status: StatusPassed, DataFile: "flows/flow-000.json", UpdateSeq: 2, TestData: "TC_001"},
			{ID: "flow-001", Name: "Login with invalid password", Status: StatusRunning, DataFile: "flows/flow-001.json", UpdateSeq: 1, TestData: "TC_002"},
		},
		Summary: Summary{Total: 2, Passed: 1, Running: 1},
	}
	details := []FlowDetail{
		{ID: "flow-000", Name: "Login with valid credentials", Commands: []Command{
			{Index: 0, Type: "fill", Status: StatusPassed},
			{Index: 1, Type: "click", Status: StatusPassed},
		}},
		{ID: "flow-001", Name: "Login with invalid password", Commands: []Command{
			{Index: 0, Type: "fill", Status: StatusPassed},
			{Index: 1, Type: "click", Label: "Submit login", Status: StatusRunning},
			{Index: 2, Type: "assertText", Status: StatusPending},
		}},
	}
	return index, details
}

func writeRun(t *testing.T, dir string, index *Index, details []FlowDetail) {
	t.Helper()
	if err := WriteSkeleton(dir, index, details); err != nil {
		t.Fatalf("write report: %v", err)
	}
}

func TestConsumer_Poll(t *testing.T) {
	dir := t.TempDir()
	index, details := loginRun()
	writeRun(t, dir, index, details)
	c := NewConsumer(dir)

	changed, got, err := c.Poll()
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if got.RunID != "run-1" {
		t.Errorf("RunID = %q", got.RunID)
	}
	if len(changed) != 2 {
		t.Fatalf("first poll changed = %v, want both flows", changed)
	}

	changed, _, err = c.Poll()
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if len(changed) != 0 {
		t.Errorf("unchanged index reported %v", changed)
	}

	// Only the running flow moves on.
	index.UpdateSeq++
	index.Flows[1].UpdateSeq++
	index.Flows[1].Status = StatusFailed
	writeRun(t, dir, index, details)

	changed, got, err = c.Poll()
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if len(changed) != 1 || changed[0] != "flow-001" {
		t.Errorf("changed = %v, want [flow-001]", changed)
	}
	if got.Flows[1].Status != StatusFailed {
		t.Errorf("status = %s, want failed", got.Flows[1].Status)
	}
}

func TestConsumer_PollMissingIndex(t *testing.T) {
	c := NewConsumer(t.TempDir())
	_, index, err := c.Poll()
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error = %v, want not-exist", err)
	}
	if index != nil {
		t.Error("index should be nil")
	}
}

func TestConsumer_ReadFlow(t *testing.T) {
	dir := t.TempDir()
	index, details := loginRun()
	writeRun(t, dir, index, details)

	detail, err := NewConsumer(dir).ReadFlow("flow-001")
	if err != nil {
		t.Fatalf("ReadFlow() error = %v", err)
	}
	if len(detail.Commands) != 3 || detail.Commands[1].Label != "Submit login" {
		t.Errorf("commands = %+v", detail.Commands)
	}

	if _, err := NewConsumer(dir).ReadFlow("flow-009"); err == nil {
		t.Error("expected error for unknown flow")
	}
}

func TestConsumer_Reset(t *testing.T) {
	dir := t.TempDir()
	index, details := loginRun()
	writeRun(t, dir, index, details)
	c := NewConsumer(dir)

	if _, _, err := c.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	c.Reset()

	changed, _, err := c.Poll()
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(changed) != 2 {
		t.Errorf("after Reset changed = %v, want every flow", changed)
	}
}

func TestReadReport(t *testing.T) {
	dir := t.TempDir()
	index, details := loginRun()
	writeRun(t, dir, index, details)

	got, flows, err := ReadReport(dir)
	if err != nil {
		t.Fatalf("ReadReport() error = %v", err)
	}
	if len(got.Flows) != 2 || len(flows) != 2 {
		t.Fatalf("flows = %d/%d, want 2", len(got.Flows), len(flows))
	}
	if flows[1].Name != "Login with invalid password" {
		t.Errorf("flows[1].Name = %q", flows[1].Name)
	}

	index.Flows[1].DataFile = "flows/missing.json"
	writeRun(t, dir, index, details)
	if _, _, err := ReadReport(dir); err == nil {
		t.Error("expected error for missing flow file")
	}
}

func TestRecover(t *testing.T) {
	tests := []struct {
		name       string
		commands   []Command
		noDetail   bool
		wantStatus Status
		wantError  string
	}{
		{
			name:       "every command finished",
			commands:   []Command{{Status: StatusPassed}, {Status: StatusPassed}},
			wantStatus: StatusPassed,
		},
		{
			name:       "killed mid command",
			commands:   []Command{{Status: StatusPassed}, {Status: StatusRunning}, {Status: StatusPending}},
			wantStatus: StatusFailed,
			wantError:  "Flow interrupted",
		},
		{
			name:       "failed command",
			commands:   []Command{{Status: StatusFailed}, {Status: StatusSkipped}},
			wantStatus: StatusFailed,
		},
		{
			name:       "detail file missing",
			noDetail:   true,
			wantStatus: StatusFailed,
			wantError:  "Flow detail missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			index := &Index{
				Version:   Version,
				Status:    StatusRunning,
				UpdateSeq: 1,
				Flows: []FlowEntry{
					{ID: "flow-000", Name: "Checkout", Status: StatusRunning, DataFile: "flows/flow-000.json"},
				},
			}
			var details []FlowDetail
			if !tt.noDetail {
				details = []FlowDetail{{ID: "flow-000", Commands: tt.commands}}
			}
			writeRun(t, dir, index, details)

			if err := Recover(dir); err != nil {
				t.Fatalf("Recover() error = %v", err)
			}

			got, err := ReadIndex(filepath.Join(dir, "report.json"))
			if err != nil {
				t.Fatal(err)
			}
			f := got.Flows[0]
			if f.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", f.Status, tt.wantStatus)
			}
			if tt.wantError != "" && (f.Error == nil || *f.Error != tt.wantError) {
				t.Errorf("error = %v, want %q", f.Error, tt.wantError)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("run status = %s, want %s", got.Status, tt.wantStatus)
			}
			if got.EndTime == nil {
				t.Error("EndTime should be set once the run is terminal")
			}
			if got.UpdateSeq != 2 {
				t.Errorf("UpdateSeq = %d, want 2", got.UpdateSeq)
			}

			if tt.wantError == "Flow interrupted" {
				detail, err := ReadFlowDetail(filepath.Join(dir, f.DataFile))
				if err != nil {
					t.Fatal(err)
				}
				if detail.Commands[1].Status != StatusFailed || detail.Commands[2].Status != StatusSkipped {
					t.Errorf("commands = %+v, want running failed and pending skipped", detail.Commands)
				}
			}
		})
	}
}

func TestRecover_FinishedRunUntouched(t *testing.T) {
	dir := t.TempDir()
	index, details := loginRun()
	index.Status = StatusPassed
	index.Flows[1].Status = StatusPassed
	writeRun(t, dir, index, details)

	if err := Recover(dir); err != nil {
		t.Fatalf("Recover() error = %v", err)
	}
	got, err := ReadIndex(filepath.Join(dir, "report.json"))
	if err != nil {
		t.Fatal(err)
	}
	if got.UpdateSeq != index.UpdateSeq {
		t.Errorf("UpdateSeq changed from %d to %d", index.UpdateSeq, got.UpdateSeq)
	}
}

func TestInferStatus(t *testing.T) {
	tests := []struct {
		name     string
		commands []Command
		want     Status
	}{
		{"no commands", nil, StatusFailed},
		{"all passed", []Command{{Status: StatusPassed}, {Status: StatusPassed}}, StatusPassed},
		{"one failed", []Command{{Status: StatusPassed}, {Status: StatusFailed}}, StatusFailed},
		{"still running", []Command{{Status: StatusPassed}, {Status: StatusRunning}}, StatusRunning},
		{"skipped after pass", []Command{{Status: StatusPassed}, {Status: StatusSkipped}}, StatusRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inferStatus(tt.commands); got != tt.want {
				t.Errorf("inferStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}
