package shell

import (
	"os/signal"
	"syscall"
)

func (s *Shell) setupSignalHandling() {
	signal.Notify(s.signalChan, syscall.SIGINT, syscall.SIGTSTP)
	go s.handleSignals()
}

func (s *Shell) stopSignalHandling() {
	signal.Stop(s.signalChan)
	close(s.signalChan)
}

// handleSignals only touches the run state and the mode controller.
func (s *Shell) handleSignals() {
	for sig := range s.signalChan {
		switch sig {
		case syscall.SIGINT:
			// The shell survives Ctrl-C. A foreground child shares the
			// terminal's process group and receives it directly.
		case syscall.SIGTSTP:
			s.mode.Deliver()
		}
	}
}
