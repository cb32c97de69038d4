// Package launch starts external programs for the shell.
//
// A child is the shell binary re-executed in helper mode (see ChildMain). The
// helper sets the child's signal dispositions, installs redirections and then
// replaces itself with the target program, which is the work a forked C child
// does between fork and exec.
package launch

import (
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"syscall"

	"go.trai.ch/zerr"

	"smallsh/internal/command"
	"smallsh/internal/logging"
	"smallsh/internal/runstate"
)

// ErrStartFailed is returned when the child process could not be created.
var ErrStartFailed = zerr.New("could not start process")

// Result describes a launched child.
type Result struct {
	PID int
	// Background is true when the child was left running. Status is only
	// meaningful when it is false.
	Background bool
	Status     runstate.Status
}

// Launcher starts commands as child processes.
type Launcher struct {
	// Executable is the binary re-executed as the child helper.
	Executable string
	State      *runstate.State
	Logger     *slog.Logger

	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
	// Env is the child environment; nil inherits the shell's.
	Env []string
}

// New returns a Launcher that re-executes the running binary.
func New(state *runstate.State, logger *slog.Logger) (*Launcher, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to determine executable path")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Launcher{
		Executable: exe,
		State:      state,
		Logger:     logger,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}, nil
}

// Launch starts c. Foreground commands, and background commands while
// foreground-only mode is active, are waited for and their status is stored
// in the run state. Other background commands return as soon as they start.
func (l *Launcher) Launch(c *command.Command) (*Result, error) {
	background := c.Background && !l.State.ForegroundOnly()

	//nolint:gosec // G204: the helper runs the user's command
	cmd := exec.Command(l.Executable, helperArgs(c, background)...)
	cmd.Stdin = l.Stdin
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr
	cmd.Env = l.Env
	if background {
		// Own process group: terminal generated signals never reach it.
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	}

	if err := cmd.Start(); err != nil {
		return nil, zerr.With(zerr.Wrap(err, ErrStartFailed.Error()), "command", c.Name)
	}
	pid := cmd.Process.Pid
	l.Logger.Debug("launched", "pid", pid, "command", c.String(), "background", background)

	if background {
		// The job table reaps it with wait4.
		_ = cmd.Process.Release()
		return &Result{PID: pid, Background: true}, nil
	}

	l.State.SetForegroundPID(pid)
	err := cmd.Wait()
	l.State.ClearForegroundPID()

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return nil, zerr.With(zerr.Wrap(err, "failed to wait for foreground process"), "pid", pid)
	}

	ws, ok := cmd.ProcessState.Sys().(syscall.WaitStatus)
	if !ok {
		return nil, zerr.With(zerr.New("unexpected wait status"), "pid", pid)
	}
	status := runstate.FromWaitStatus(ws)
	l.State.SetLastStatus(status)
	l.Logger.Debug("foreground finished", "pid", pid, "status", status.String())

	return &Result{PID: pid, Status: status}, nil
}

// helperArgs builds the helper's argument list: the ChildArg marker, the
// launch options and, after --, the target argv.
func helperArgs(c *command.Command, background bool) []string {
	args := []string{ChildArg}
	if c.Input != "" {
		args = append(args, "--stdin="+c.Input)
	}
	if c.Output != "" {
		args = append(args, "--stdout="+c.Output)
	}
	if background {
		args = append(args, "--ignore-interrupt")
	}
	args = append(args, "--")
	return append(args, c.Argv()...)
}
