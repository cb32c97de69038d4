package shell

import (
	"bytes"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"smallsh/internal/runstate"
)

func TestModeString(t *testing.T) {
	assert.Equal(t, "normal", Normal.String())
	assert.Equal(t, "foreground-only", ForegroundOnly.String())
}

func TestModeToggle(t *testing.T) {
	state := runstate.New()
	var out bytes.Buffer
	m := NewModeController(state, &out)

	var seen []Mode
	m.onToggle = func(mode Mode) { seen = append(seen, mode) }

	m.Deliver()
	assert.True(t, state.ForegroundOnly())
	m.Deliver()
	assert.False(t, state.ForegroundOnly())

	assert.Equal(t, []Mode{ForegroundOnly, Normal}, seen)
	assert.Equal(t, string(enterNotice)+string(exitNotice), out.String())
}

func TestModeDeferredDuringForeground(t *testing.T) {
	state := runstate.New()
	var out bytes.Buffer
	m := NewModeController(state, &out)

	state.SetForegroundPID(4242)
	m.Deliver()

	assert.Equal(t, 1, m.Pending())
	assert.Equal(t, Normal, m.Mode())
	assert.Empty(t, out.String())

	state.ClearForegroundPID()
	m.Service()

	assert.Zero(t, m.Pending())
	assert.Equal(t, ForegroundOnly, m.Mode())
	assert.Equal(t, string(enterNotice), out.String())
}

func TestModeDeferredTogglesCancel(t *testing.T) {
	state := runstate.New()
	var out bytes.Buffer
	m := NewModeController(state, &out)

	state.SetForegroundPID(4242)
	m.Deliver()
	m.Deliver()
	state.ClearForegroundPID()
	m.Service()

	assert.Equal(t, Normal, m.Mode())
	assert.Equal(t, string(enterNotice)+string(exitNotice), out.String())
}

func TestServiceWithoutPending(t *testing.T) {
	state := runstate.New()
	var out bytes.Buffer
	m := NewModeController(state, &out)

	m.Service()

	assert.Equal(t, Normal, m.Mode())
	assert.Empty(t, out.String())
}

func TestSIGTSTPTogglesMode(t *testing.T) {
	f := newFixture(t, nil)

	f.shell.setupSignalHandling()
	defer f.shell.stopSignalHandling()

	require.NoError(t, unix.Kill(os.Getpid(), syscall.SIGTSTP))
	assert.Eventually(t, func() bool {
		return f.shell.mode.Mode() == ForegroundOnly
	}, 2*time.Second, 10*time.Millisecond)

	// The shell survives Ctrl-C.
	require.NoError(t, unix.Kill(os.Getpid(), syscall.SIGINT))
	require.NoError(t, unix.Kill(os.Getpid(), syscall.SIGTSTP))
	assert.Eventually(t, func() bool {
		return f.shell.mode.Mode() == Normal
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSIGTSTPDeferredDuringForegroundCommand(t *testing.T) {
	f := newFixture(t, nil)
	marker := f.path("marker")
	script := f.path("wait.sh")
	body := "while [ ! -e " + marker + " ]; do sleep 0.05; done\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o644))

	f.shell.setupSignalHandling()
	defer f.shell.stopSignalHandling()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for f.shell.state.ForegroundPID() == runstate.NoPID {
			time.Sleep(5 * time.Millisecond)
		}
		_ = unix.Kill(os.Getpid(), syscall.SIGTSTP)
		for f.shell.mode.Pending() == 0 {
			time.Sleep(5 * time.Millisecond)
		}
		_ = os.WriteFile(marker, nil, 0o644)
	}()

	f.shell.Execute("sh " + script)
	<-done

	// The toggle stays pending until the foreground child is gone.
	assert.Equal(t, ForegroundOnly, f.shell.mode.Mode())
	assert.Zero(t, f.shell.mode.Pending())
	assert.Equal(t, string(enterNotice), f.out(t))
}

func TestFilterInputCtrlZ(t *testing.T) {
	f := newFixture(t, nil)

	_, ok := f.shell.filterInput('a')
	assert.True(t, ok)

	_, ok = f.shell.filterInput(26)
	assert.False(t, ok)
	assert.Equal(t, ForegroundOnly, f.shell.mode.Mode())
}
