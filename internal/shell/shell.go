package shell

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/afero"
	"go.trai.ch/zerr"
	"golang.org/x/term"

	"smallsh/internal/command"
	"smallsh/internal/config"
	"smallsh/internal/history"
	"smallsh/internal/jobs"
	"smallsh/internal/launch"
	"smallsh/internal/logging"
	"smallsh/internal/runstate"
)

type Shell struct {
	config     *config.Config
	history    *history.History
	state      *runstate.State
	mode       *ModeController
	launcher   *launch.Launcher
	jobs       *jobs.Table
	parser     command.Parser
	logger     *slog.Logger
	pid        int
	signalChan chan os.Signal

	stdin    *os.File
	out      io.Writer
	errOut   io.Writer
	errColor *color.Color
}

// Option customizes a Shell.
type Option func(*options)

type options struct {
	fs     afero.Fs
	logger *slog.Logger
	stdin  *os.File
	stdout *os.File
	stderr *os.File
}

// WithFs sets the filesystem holding the history file.
func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithIO sets the shell's standard streams. Children inherit them.
func WithIO(stdin, stdout, stderr *os.File) Option {
	return func(o *options) {
		o.stdin = stdin
		o.stdout = stdout
		o.stderr = stderr
	}
}

func New(cfg *config.Config, opts ...Option) (*Shell, error) {
	o := &options{
		fs:     afero.NewOsFs(),
		logger: logging.Discard(),
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(o)
	}

	hist, err := history.New(o.fs, cfg.HistoryFile, cfg.HistorySize)
	if err != nil {
		return nil, fmt.Errorf("error initializing history: %w", err)
	}

	state := runstate.New()
	launcher, err := launch.New(state, o.logger)
	if err != nil {
		return nil, fmt.Errorf("error initializing launcher: %w", err)
	}
	launcher.Stdin = o.stdin
	launcher.Stdout = o.stdout
	launcher.Stderr = o.stderr

	errColor := color.New(color.FgRed)
	switch cfg.Color {
	case config.ColorAlways:
		errColor.EnableColor()
	case config.ColorNever:
		errColor.DisableColor()
	default:
		if !term.IsTerminal(int(o.stderr.Fd())) {
			errColor.DisableColor()
		}
	}

	return &Shell{
		config:     cfg,
		history:    hist,
		state:      state,
		mode:       NewModeController(state, rawWriter(o.stdout.Fd())),
		launcher:   launcher,
		jobs:       jobs.NewTable(o.logger),
		parser:     command.Parser{NullDevice: cfg.NullDevice},
		logger:     o.logger,
		pid:        os.Getpid(),
		signalChan: make(chan os.Signal, 1),
		stdin:      o.stdin,
		out:        o.stdout,
		errOut:     o.stderr,
		errColor:   errColor,
	}, nil
}

// Run reads and dispatches lines until exit or end of input, then reaps and
// terminates the remaining background jobs.
func (s *Shell) Run() error {
	historyLimit := s.config.HistorySize
	if historyLimit == 0 {
		historyLimit = -1
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 s.prompt(),
		Stdin:                  s.stdin,
		Stdout:                 s.out,
		Stderr:                 s.errOut,
		HistoryLimit:           historyLimit,
		DisableAutoSaveHistory: true,
		FuncFilterInputRune:    s.filterInput,
		FuncIsTerminal: func() bool {
			return term.IsTerminal(int(s.stdin.Fd()))
		},
	})
	if err != nil {
		return zerr.Wrap(err, "error initializing readline")
	}
	defer rl.Close()

	for _, item := range s.history.GetAll() {
		_ = rl.SaveHistory(item)
	}

	s.mode.onToggle = func(Mode) { rl.Refresh() }
	s.setupSignalHandling()
	defer s.stopSignalHandling()

	s.logger.Info("shell started", "pid", s.pid)
	for {
		s.mode.Service()
		rl.SetPrompt(s.prompt())

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		} else if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			s.logger.Error("read failed", "error", err)
			break
		}

		if !command.IsNoop(line) {
			_ = rl.SaveHistory(line)
			if err := s.history.Add(line); err != nil {
				s.logger.Warn("saving history failed", "error", err)
			}
		}

		if s.Execute(line) {
			break
		}
	}

	s.shutdownJobs()
	s.logger.Info("shell exited", "commands", s.state.CommandCount())
	return nil
}

// Execute dispatches one input line and reaps finished background jobs. It
// returns true when the line asks the shell to exit.
func (s *Shell) Execute(line string) bool {
	if command.IsNoop(line) {
		return false
	}

	c, err := s.parser.Parse(line)
	if err != nil {
		s.logger.Debug("parse failed", "line", line, "error", err)
		s.errorf("smallsh: %v", err)
		s.reapJobs()
		return false
	}
	c.Expand(s.pid)
	s.state.IncCommandCount()

	handled, exit := s.executeBuiltin(line, c)
	if exit {
		return true
	}
	if !handled {
		s.runExternal(c)
	}
	s.reapJobs()
	return false
}

// filterInput turns Ctrl-Z at the prompt into a mode toggle instead of
// suspending the shell.
func (s *Shell) filterInput(r rune) (rune, bool) {
	if r == readline.CharCtrlZ {
		s.mode.Deliver()
		return r, false
	}
	return r, true
}

// prompt expands \# to the command count and \w to the working directory.
func (s *Shell) prompt() string {
	p := strings.ReplaceAll(s.config.Prompt, `\#`, strconv.FormatUint(s.state.CommandCount(), 10))
	if strings.Contains(p, `\w`) {
		wd, _ := os.Getwd()
		if s.config.HomeDir != "" && strings.HasPrefix(wd, s.config.HomeDir) {
			wd = "~" + strings.TrimPrefix(wd, s.config.HomeDir)
		}
		p = strings.ReplaceAll(p, `\w`, wd)
	}
	return p
}

func (s *Shell) errorf(format string, a ...interface{}) {
	s.errColor.Fprintf(s.errOut, format, a...)
	fmt.Fprintln(s.errOut)
}
