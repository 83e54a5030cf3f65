package report

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/devicelab-dev/webflow-runner/pkg/logger"
)

// progressDelay bounds how stale report.json may be while flows only report
// command progress. Flow results are written at once.
const progressDelay = 100 * time.Millisecond

// IndexWriter owns report.json for one run. Flow writers on parallel
// sessions hand it updates; it merges them and rewrites the file.
type IndexWriter struct {
	mu    sync.Mutex
	path  string
	index *Index

	pending map[string]*FlowUpdate
	timer   *time.Timer
}

func NewIndexWriter(outputDir string, index *Index) *IndexWriter {
	return &IndexWriter{
		path:    filepath.Join(outputDir, "report.json"),
		index:   index,
		pending: make(map[string]*FlowUpdate),
	}
}

// Start marks the run as running and stamps its start time.
func (w *IndexWriter) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.index.Status = StatusRunning
	w.index.StartTime = time.Now()
	w.flushLocked()
}

// UpdateFlow queues a flow update. A flow reaching passed, failed or skipped
// is written immediately together with anything queued before it.
func (w *IndexWriter) UpdateFlow(flowID string, update *FlowUpdate) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[flowID] = update
	if update.Status.IsTerminal() {
		w.flushLocked()
		return
	}
	if w.timer == nil {
		w.timer = time.AfterFunc(progressDelay, w.flush)
	}
}

// End derives the run status from its flows and writes the final index.
func (w *IndexWriter) End() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.applyPendingLocked()
	now := time.Now()
	w.index.EndTime = &now
	w.index.Status = runStatus(w.index.Flows)
	w.flushLocked()
}

// Close writes any queued progress.
func (w *IndexWriter) Close() {
	w.flush()
}

// Snapshot returns a copy of the index as last merged. The copy does not
// change as flows progress.
func (w *IndexWriter) Snapshot() Index {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := *w.index
	snap.Flows = append([]FlowEntry(nil), w.index.Flows...)
	return snap
}

func (w *IndexWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushLocked()
}

func (w *IndexWriter) flushLocked() {
	w.applyPendingLocked()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}

	w.index.UpdateSeq++
	w.index.LastUpdated = time.Now()
	w.index.Summary = summarize(w.index.Flows)
	if err := atomicWriteJSON(w.path, w.index); err != nil {
		logger.Warn("write report index: %v", err)
	}
}

func (w *IndexWriter) applyPendingLocked() {
	for flowID, update := range w.pending {
		if f := w.findFlow(flowID); f != nil {
			f.apply(update)
		}
	}
	w.pending = make(map[string]*FlowUpdate)
}

func (w *IndexWriter) findFlow(id string) *FlowEntry {
	for i := range w.index.Flows {
		if w.index.Flows[i].ID == id {
			return &w.index.Flows[i]
		}
	}
	return nil
}

// apply merges an update. Unset times, test data and error keep their
// previous values; the flow's own UpdateSeq moves so consumers see it.
func (f *FlowEntry) apply(u *FlowUpdate) {
	f.Status = u.Status
	f.Commands = u.Commands
	if u.StartTime != nil {
		f.StartTime = u.StartTime
	}
	if u.EndTime != nil {
		f.EndTime = u.EndTime
	}
	if u.Duration != nil {
		f.Duration = u.Duration
	}
	if u.TestData != "" {
		f.TestData = u.TestData
	}
	if u.Error != nil {
		f.Error = u.Error
	}
	now := time.Now()
	f.LastUpdated = &now
	f.UpdateSeq++
}

func summarize(flows []FlowEntry) Summary {
	s := Summary{Total: len(flows)}
	for _, f := range flows {
		switch f.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		case StatusRunning:
			s.Running++
		case StatusPending:
			s.Pending++
		}
	}
	return s
}

// runStatus is running until every flow is terminal, then failed if any
// flow failed and passed otherwise. Skipped flows do not fail a run.
func runStatus(flows []FlowEntry) Status {
	failed := false
	for _, f := range flows {
		if !f.Status.IsTerminal() {
			return StatusRunning
		}
		if f.Status == StatusFailed {
			failed = true
		}
	}
	if failed {
		return StatusFailed
	}
	return StatusPassed
}
