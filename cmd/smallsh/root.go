package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.trai.ch/zerr"

	"smallsh/internal/config"
	"smallsh/internal/logging"
	"smallsh/internal/shell"
)

type rootOptions struct {
	configPath string
	logFile    string
	noColor    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "smallsh",
		Short:         "A small interactive shell",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(afero.NewOsFs(), opts)
		},
	}

	rootCmd.Flags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath(), "Path to the YAML config file")
	rootCmd.Flags().StringVar(&opts.logFile, "log-file", "", "Write diagnostic logs to FILE (overrides log_file)")
	rootCmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored error output")

	return rootCmd
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "smallsh", "config.yml")
	}
	return ""
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(fsys afero.Fs, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(fsys, opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logFile != "" {
		cfg.LogFile = opts.logFile
	}
	if opts.noColor {
		cfg.Color = config.ColorNever
	}
	return cfg, nil
}

// newLogger discards logs unless a log file is configured.
func newLogger(fsys afero.Fs, cfg *config.Config) (*slog.Logger, io.Closer, error) {
	if cfg.LogFile == "" {
		return logging.Discard(), io.NopCloser(nil), nil
	}

	f, err := logging.Open(fsys, cfg.LogFile)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(f, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return logger, f, nil
}

func runShell(fsys afero.Fs, opts *rootOptions) error {
	cfg, err := loadConfig(fsys, opts)
	if err != nil {
		return err
	}

	logger, closer, err := newLogger(fsys, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	s, err := shell.New(cfg, shell.WithFs(fsys), shell.WithLogger(logger))
	if err != nil {
		return zerr.Wrap(err, "error initializing shell")
	}
	return s.Run()
}
