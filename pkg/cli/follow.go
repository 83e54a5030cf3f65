package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/devicelab-dev/webflow-runner/pkg/report"
)

// followReport prints flow status changes of a report directory that another
// process is still writing. It returns once the run reaches a terminal status.
// A missing report.json is waited for: the run may not have started yet.
func followReport(ctx context.Context, w io.Writer, dir string, interval time.Duration) (*report.Index, error) {
	consumer := report.NewConsumer(dir)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runID := ""
	for {
		changed, index, err := consumer.Poll()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}

		if index != nil {
			if index.RunID != runID {
				// Same directory, new run: flow IDs restart so old sequence numbers mean nothing.
				if runID != "" {
					fmt.Fprintf(w, "\n%s %s\n", bold("New run"), index.RunID)
				}
				runID = index.RunID
				consumer.Reset()
				if changed, index, err = consumer.Poll(); err != nil {
					return nil, err
				}
			}

			for _, id := range changed {
				for _, f := range index.Flows {
					if f.ID == id {
						fmt.Fprintln(w, followLine(consumer, f))
						break
					}
				}
			}
			if index.Status.IsTerminal() {
				return index, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// followLine renders one flow: name, status, finished commands and, while the
// flow runs, the command in progress.
func followLine(consumer *report.Consumer, f report.FlowEntry) string {
	done := f.Commands.Passed + f.Commands.Failed + f.Commands.Skipped
	line := fmt.Sprintf("  %-30s %s %d/%d", truncate(f.Name, 30), followStatus(f.Status), done, f.Commands.Total)

	if f.Status == report.StatusRunning {
		if detail, err := consumer.ReadFlow(f.ID); err == nil {
			for _, cmd := range detail.Commands {
				if cmd.Status == report.StatusRunning {
					line += "  " + gray(commandDescription(cmd))
					break
				}
			}
		}
	}
	if f.Error != nil {
		line += "  " + red(*f.Error)
	}
	return line
}

func followStatus(status report.Status) string {
	s := fmt.Sprintf("%-8s", status)
	switch status {
	case report.StatusPassed:
		return green(s)
	case report.StatusFailed:
		return red(s)
	case report.StatusRunning:
		return cyan(s)
	default:
		return gray(s)
	}
}
