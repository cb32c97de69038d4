package shell

import (
	"fmt"
	"os"
	"strings"

	"smallsh/internal/command"
)

// executeBuiltin runs c if it is a built-in. exit and status only match when
// the whole line is the bare keyword; cd matches on its name and takes a path.
func (s *Shell) executeBuiltin(line string, c *command.Command) (handled, exit bool) {
	switch {
	case strings.TrimSpace(line) == "exit":
		return true, true
	case strings.TrimSpace(line) == "status":
		s.showStatus()
		return true, false
	case c.Name == "cd":
		s.changeDirectory(c.Args)
		return true, false
	default:
		return false, false
	}
}

func (s *Shell) changeDirectory(args []string) {
	dir := s.config.HomeDir
	if len(args) > 0 {
		dir = args[0]
	}

	if err := os.Chdir(dir); err != nil {
		s.logger.Debug("cd failed", "dir", dir, "error", err)
		s.errorf("No such directory %s.", dir)
	}
}

func (s *Shell) showStatus() {
	st := s.state.LastStatus()
	if st.Signaled() {
		fmt.Fprintf(s.out, "The last foreground process was terminated by signal %d.\n", int(st.Signal))
		return
	}
	fmt.Fprintf(s.out, "The last foreground process exited normally with exit code %d.\n", st.Code)
}
