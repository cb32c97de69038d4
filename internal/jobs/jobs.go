// Package jobs tracks background children and reaps them without blocking.
package jobs

import (
	"errors"
	"fmt"
	"log/slog"
	"syscall"

	"golang.org/x/sys/unix"

	"smallsh/internal/logging"
	"smallsh/internal/runstate"
)

// Report is a background child that has finished.
type Report struct {
	PID    int
	Status runstate.Status
}

func (r Report) String() string {
	if r.Status.Signaled() {
		return fmt.Sprintf("The process %d was terminated with signal: %d.", r.PID, int(r.Status.Signal))
	}
	return fmt.Sprintf("The process %d exited normally with status: %d.", r.PID, r.Status.Code)
}

// waitFunc polls pid without blocking. done is false while the child runs.
type waitFunc func(pid int) (status runstate.Status, done bool, err error)

type killFunc func(pid int, sig syscall.Signal) error

// Table holds background pids in launch order.
type Table struct {
	pids   []int
	wait   waitFunc
	kill   killFunc
	logger *slog.Logger
}

// NewTable returns an empty table.
func NewTable(logger *slog.Logger) *Table {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Table{
		wait:   wait4NoHang,
		kill:   unix.Kill,
		logger: logger,
	}
}

// Add starts tracking pid.
func (t *Table) Add(pid int) {
	t.pids = append(t.pids, pid)
	t.logger.Debug("tracking background job", "pid", pid, "jobs", len(t.pids))
}

// Len returns the number of tracked jobs.
func (t *Table) Len() int {
	return len(t.pids)
}

// PIDs returns a copy of the tracked pids in launch order.
func (t *Table) PIDs() []int {
	return append([]int(nil), t.pids...)
}

// Reap makes one non-blocking pass over the table and returns the jobs that
// finished, in table order. Finished jobs are removed; the rest keep their
// relative order.
func (t *Table) Reap() []Report {
	var reports []Report
	kept := t.pids[:0]
	for _, pid := range t.pids {
		status, done, err := t.wait(pid)
		switch {
		case errors.Is(err, unix.ECHILD):
			// Not our child any more; nothing left to observe.
			t.logger.Warn("dropping unknown background job", "pid", pid)
		case err != nil:
			t.logger.Warn("polling background job failed", "pid", pid, "error", err)
			kept = append(kept, pid)
		case done:
			t.logger.Debug("reaped background job", "pid", pid, "status", status.String())
			reports = append(reports, Report{PID: pid, Status: status})
		default:
			kept = append(kept, pid)
		}
	}
	clear(t.pids[len(kept):])
	t.pids = kept
	return reports
}

// Shutdown reaps what has finished, sends SIGTERM to every job still
// running and empties the table. It does not wait for the terminated jobs.
func (t *Table) Shutdown() []Report {
	reports := t.Reap()
	for _, pid := range t.pids {
		if err := t.kill(pid, unix.SIGTERM); err != nil {
			t.logger.Warn("terminating background job failed", "pid", pid, "error", err)
			continue
		}
		t.logger.Info("terminated background job", "pid", pid)
	}
	t.pids = nil
	return reports
}

func wait4NoHang(pid int) (runstate.Status, bool, error) {
	var ws unix.WaitStatus
	for {
		got, err := unix.Wait4(pid, &ws, unix.WNOHANG, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil || got == 0 {
			return runstate.Status{}, false, err
		}
		return runstate.FromWaitStatus(syscall.WaitStatus(ws)), true, nil
	}
}
