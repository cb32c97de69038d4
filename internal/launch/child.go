package launch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/pborman/getopt/v2"
	"golang.org/x/sys/unix"
)

// ChildArg is the first argument of a helper invocation.
const ChildArg = "__launch"

// ExitFailure is the helper's exit status when redirection or exec fails.
const ExitFailure = 1

// IsChild reports whether args (usually os.Args) is a helper invocation.
func IsChild(args []string) bool {
	return len(args) > 1 && args[1] == ChildArg
}

// ChildMain runs the helper. args starts at ChildArg. It only returns on
// failure, with the status the process should exit with.
func ChildMain(args []string) int {
	return childMain(args, os.Stderr)
}

func childMain(args []string, stderr io.Writer) int {
	// Ctrl-Z never reaches a child.
	signal.Ignore(syscall.SIGTSTP)

	opts := getopt.New()
	input := opts.StringLong("stdin", 'i', "", "redirect standard input from FILE", "FILE")
	output := opts.StringLong("stdout", 'o', "", "redirect standard output to FILE", "FILE")
	ignoreInterrupt := opts.BoolLong("ignore-interrupt", 'n', "ignore SIGINT")

	if err := opts.Getopt(args, nil); err != nil {
		fmt.Fprintln(stderr, err)
		return ExitFailure
	}
	if *ignoreInterrupt {
		signal.Ignore(syscall.SIGINT)
	}

	argv := opts.Args()
	if len(argv) == 0 {
		fmt.Fprintln(stderr, "No command given.")
		return ExitFailure
	}

	if err := redirect(*input, *output); err != nil {
		var rerr *redirectError
		if errors.As(err, &rerr) {
			fmt.Fprintln(stderr, rerr.report())
		} else {
			fmt.Fprintln(stderr, err)
		}
		return ExitFailure
	}

	path, err := exec.LookPath(argv[0])
	if errors.Is(err, exec.ErrDot) {
		err = nil
	}
	if err == nil {
		err = unix.Exec(path, argv, os.Environ())
	}
	fmt.Fprintf(stderr, "No such file or directory named %s.\n", argv[0])
	return ExitFailure
}

type redirectError struct {
	stream string
	path   string
	dup    bool
	err    error
}

func (e *redirectError) Error() string {
	return fmt.Sprintf("redirect %s %s: %v", e.stream, e.path, e.err)
}

func (e *redirectError) Unwrap() error {
	return e.err
}

// report is the line shown to the user.
func (e *redirectError) report() string {
	if e.dup {
		return fmt.Sprintf("Could not redirect %s to %s.", e.stream, e.path)
	}
	return fmt.Sprintf("Could not open file %s for %s.", e.path, e.stream)
}

// redirect installs input as fd 0 and output as fd 1. The opened descriptors
// are closed before it returns; the duplicates stay.
func redirect(input, output string) error {
	var opened []*os.File
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()

	install := func(stream, path string, flag, fd int) error {
		f, err := os.OpenFile(path, flag, 0o644)
		if err != nil {
			return &redirectError{stream: stream, path: path, err: err}
		}
		opened = append(opened, f)
		if err := unix.Dup2(int(f.Fd()), fd); err != nil {
			return &redirectError{stream: stream, path: path, dup: true, err: err}
		}
		return nil
	}

	if input != "" {
		if err := install("input", input, os.O_RDONLY, 0); err != nil {
			return err
		}
	}
	if output != "" {
		if err := install("output", output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 1); err != nil {
			return err
		}
	}
	return nil
}
