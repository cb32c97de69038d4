package shell

import (
	"fmt"

	"smallsh/internal/command"
)

// runExternal launches c. Background children go into the job table.
func (s *Shell) runExternal(c *command.Command) {
	// Toggles that arrived during a foreground wait apply once it is over.
	defer s.mode.Service()

	res, err := s.launcher.Launch(c)
	if err != nil {
		s.logger.Error("launch failed", "command", c.String(), "error", err)
		s.errorf("Could not start %s.", c.Name)
		return
	}

	if res.Background {
		s.jobs.Add(res.PID)
		fmt.Fprintf(s.out, "The background process is %d.\n", res.PID)
		return
	}

	if res.Status.Signaled() {
		fmt.Fprintf(s.out, "The foreground process %d was terminated by signal %d.\n", res.PID, int(res.Status.Signal))
	}
}

// reapJobs reports every background job that has finished.
func (s *Shell) reapJobs() {
	for _, r := range s.jobs.Reap() {
		fmt.Fprintln(s.out, r)
	}
}

// shutdownJobs reports what finished and terminates what is left.
func (s *Shell) shutdownJobs() {
	for _, r := range s.jobs.Shutdown() {
		fmt.Fprintln(s.out, r)
	}
}
