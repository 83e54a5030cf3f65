package report

import (
	"fmt"
	"path/filepath"
	"time"
)

// Consumer reads a report directory that may still be written to.
// It remembers the sequence numbers it has seen so Poll only reports flows
// that changed since the previous call.
type Consumer struct {
	reportDir     string
	lastGlobalSeq uint64
	lastFlowSeq   map[string]uint64
}

// NewConsumer creates a consumer for reportDir.
func NewConsumer(reportDir string) *Consumer {
	return &Consumer{
		reportDir:   reportDir,
		lastFlowSeq: make(map[string]uint64),
	}
}

// Poll reads the index and returns the IDs of flows that changed.
func (c *Consumer) Poll() ([]string, *Index, error) {
	index, err := c.ReadIndex()
	if err != nil {
		return nil, nil, err
	}
	if index.UpdateSeq == c.lastGlobalSeq {
		return nil, index, nil
	}
	c.lastGlobalSeq = index.UpdateSeq

	var changed []string
	for _, f := range index.Flows {
		seq, seen := c.lastFlowSeq[f.ID]
		if !seen || seq != f.UpdateSeq {
			changed = append(changed, f.ID)
			c.lastFlowSeq[f.ID] = f.UpdateSeq
		}
	}
	return changed, index, nil
}

// ReadIndex reads the current report.json.
func (c *Consumer) ReadIndex() (*Index, error) {
	return ReadIndex(filepath.Join(c.reportDir, "report.json"))
}

// ReadFlow reads one flow detail file.
func (c *Consumer) ReadFlow(flowID string) (*FlowDetail, error) {
	return ReadFlowDetail(filepath.Join(c.reportDir, "flows", flowID+".json"))
}

// Reset forgets every sequence number seen so far.
func (c *Consumer) Reset() {
	c.lastGlobalSeq = 0
	c.lastFlowSeq = make(map[string]uint64)
}

// ReadReport reads the index and every flow detail of a finished report.
func ReadReport(reportDir string) (*Index, []FlowDetail, error) {
	index, err := ReadIndex(filepath.Join(reportDir, "report.json"))
	if err != nil {
		return nil, nil, err
	}

	flows := make([]FlowDetail, 0, len(index.Flows))
	for _, f := range index.Flows {
		detail, err := ReadFlowDetail(filepath.Join(reportDir, f.DataFile))
		if err != nil {
			return nil, nil, fmt.Errorf("read flow %s: %w", f.ID, err)
		}
		flows = append(flows, *detail)
	}
	return index, flows, nil
}

// Recover finalizes a report left behind by a run that was killed.
// Running flows get a status inferred from their commands; flows whose
// commands never finished are marked failed. The index is only rewritten
// when something changed.
func Recover(reportDir string) error {
	indexPath := filepath.Join(reportDir, "report.json")
	index, err := ReadIndex(indexPath)
	if err != nil {
		return err
	}

	changed := false
	for i := range index.Flows {
		f := &index.Flows[i]
		if f.Status != StatusRunning {
			continue
		}
		changed = true

		detailPath := filepath.Join(reportDir, f.DataFile)
		detail, err := ReadFlowDetail(detailPath)
		if err != nil {
			msg := "Flow detail missing"
			f.Status = StatusFailed
			f.Error = &msg
			continue
		}

		status := inferStatus(detail.Commands)
		if status == StatusRunning {
			msg := "Flow interrupted"
			status = StatusFailed
			f.Error = &msg
			for j := range detail.Commands {
				switch detail.Commands[j].Status {
				case StatusRunning:
					detail.Commands[j].Status = StatusFailed
				case StatusPending:
					detail.Commands[j].Status = StatusSkipped
				}
			}
			if err := atomicWriteJSON(detailPath, detail); err != nil {
				return fmt.Errorf("write flow %s: %w", f.ID, err)
			}
		}
		f.Status = status
	}

	if !changed {
		return nil
	}

	now := time.Now()
	index.Summary = summarize(index.Flows)
	if status := runStatus(index.Flows); status.IsTerminal() {
		index.Status = status
		if index.EndTime == nil {
			index.EndTime = &now
		}
	}
	index.LastUpdated = now
	index.UpdateSeq++
	return atomicWriteJSON(indexPath, index)
}

// inferStatus derives a flow status from its commands.
func inferStatus(commands []Command) Status {
	if len(commands) == 0 {
		return StatusFailed
	}
	passed := 0
	for _, cmd := range commands {
		switch cmd.Status {
		case StatusFailed:
			return StatusFailed
		case StatusPassed:
			passed++
		}
	}
	if passed == len(commands) {
		return StatusPassed
	}
	return StatusRunning
}
