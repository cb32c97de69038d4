package shell

import (
	"io"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"smallsh/internal/runstate"
)

// Mode is the dispatch mode toggled by SIGTSTP.
type Mode int

const (
	Normal Mode = iota
	ForegroundOnly
)

func (m Mode) String() string {
	if m == ForegroundOnly {
		return "foreground-only"
	}
	return "normal"
}

// Fixed notices, allocated once.
var (
	enterNotice = []byte("\nEntering foreground-only mode (& is now ignored)\n")
	exitNotice  = []byte("\nExiting foreground-only mode\n")
)

// rawWriter writes straight to a file descriptor with write(2).
type rawWriter int

func (w rawWriter) Write(p []byte) (int, error) {
	return unix.Write(int(w), p)
}

// ModeController owns the Normal/ForegroundOnly toggle. Toggle requests that
// arrive while a foreground child is being waited on stay pending until the
// main loop calls Service.
type ModeController struct {
	state    *runstate.State
	out      io.Writer
	pending  atomic.Int32
	onToggle func(Mode)
}

// NewModeController writes notices to out; nil means raw writes to stdout.
func NewModeController(state *runstate.State, out io.Writer) *ModeController {
	if out == nil {
		out = rawWriter(unix.Stdout)
	}
	return &ModeController{state: state, out: out}
}

// Mode returns the current mode.
func (m *ModeController) Mode() Mode {
	if m.state.ForegroundOnly() {
		return ForegroundOnly
	}
	return Normal
}

// Deliver requests one toggle. It is called from the signal goroutine and
// from the line editor when Ctrl-Z is typed at the prompt.
func (m *ModeController) Deliver() {
	m.pending.Add(1)
	if m.state.ForegroundPID() == runstate.NoPID {
		m.Service()
	}
}

// Pending returns the number of toggles not yet applied.
func (m *ModeController) Pending() int {
	return int(m.pending.Load())
}

// Service applies every pending toggle.
func (m *ModeController) Service() {
	for n := m.pending.Swap(0); n > 0; n-- {
		mode := m.toggle()
		if m.onToggle != nil {
			m.onToggle(mode)
		}
	}
}

func (m *ModeController) toggle() Mode {
	if m.state.ToggleForegroundOnly() {
		_, _ = m.out.Write(enterNotice)
		return ForegroundOnly
	}
	_, _ = m.out.Write(exitNotice)
	return Normal
}
