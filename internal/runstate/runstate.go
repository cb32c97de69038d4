// Package runstate holds the shell state shared between the main loop and the
// signal goroutine. Every field is an independent atomic value so the signal
// path never needs a lock.
package runstate

import (
	"fmt"
	"sync/atomic"
	"syscall"
)

// NoPID marks that no foreground child is being waited on.
const NoPID = -1

// Status is how a child finished: an exit code, or the signal that killed it.
type Status struct {
	Code   int
	Signal syscall.Signal
}

// FromWaitStatus converts a kernel wait status.
func FromWaitStatus(ws syscall.WaitStatus) Status {
	if ws.Signaled() {
		return Status{Signal: ws.Signal()}
	}
	return Status{Code: ws.ExitStatus()}
}

// Signaled reports whether the child was terminated by a signal.
func (s Status) Signaled() bool {
	return s.Signal != 0
}

func (s Status) String() string {
	if s.Signaled() {
		return fmt.Sprintf("signal %d", int(s.Signal))
	}
	return fmt.Sprintf("exit code %d", s.Code)
}

// pack stores a Status in a single word: signal in the low byte, code above it.
func (s Status) pack() int64 {
	return int64(s.Code)<<8 | int64(s.Signal&0xff)
}

func unpack(v int64) Status {
	return Status{Code: int(v >> 8), Signal: syscall.Signal(v & 0xff)}
}

// State is the single foreground/background status record of the shell.
type State struct {
	lastStatus     atomic.Int64
	foregroundOnly atomic.Bool
	foregroundPID  atomic.Int64
	commandCount   atomic.Uint64
}

// New returns a State in Normal mode with no foreground child and a zero exit status.
func New() *State {
	s := &State{}
	s.foregroundPID.Store(NoPID)
	return s
}

// LastStatus returns the status of the last foreground child.
func (s *State) LastStatus() Status {
	return unpack(s.lastStatus.Load())
}

// SetLastStatus records the status of a foreground child.
func (s *State) SetLastStatus(st Status) {
	s.lastStatus.Store(st.pack())
}

// ForegroundOnly reports whether background requests are forced into the foreground.
func (s *State) ForegroundOnly() bool {
	return s.foregroundOnly.Load()
}

// ToggleForegroundOnly flips the mode and returns the new value.
func (s *State) ToggleForegroundOnly() bool {
	for {
		old := s.foregroundOnly.Load()
		if s.foregroundOnly.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// ForegroundPID returns the child currently being waited on, or NoPID.
func (s *State) ForegroundPID() int {
	return int(s.foregroundPID.Load())
}

// SetForegroundPID marks pid as the awaited foreground child.
func (s *State) SetForegroundPID(pid int) {
	s.foregroundPID.Store(int64(pid))
}

// ClearForegroundPID marks that no foreground child is being waited on.
func (s *State) ClearForegroundPID() {
	s.foregroundPID.Store(NoPID)
}

// CommandCount returns the number of lines dispatched so far.
func (s *State) CommandCount() uint64 {
	return s.commandCount.Load()
}

// IncCommandCount bumps the dispatched line counter.
func (s *State) IncCommandCount() uint64 {
	return s.commandCount.Add(1)
}
