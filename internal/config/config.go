package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v2"
)

const (
	DefaultPrompt      = ": "
	DefaultHistoryName = ".smallsh_history"
	DefaultHistorySize = 1000

	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var (
	// ErrConfigRead is returned when the config file exists but cannot be read.
	ErrConfigRead = zerr.New("failed to read config file")

	// ErrConfigParse is returned when the config file is not valid YAML for Config.
	ErrConfigParse = zerr.New("failed to parse config file")

	// ErrConfigInvalid is returned when a field fails validation.
	ErrConfigInvalid = zerr.New("invalid configuration")
)

type Config struct {
	// Prompt supports \# for the command count and \w for the working directory.
	Prompt      string `yaml:"prompt"`
	HomeDir     string `yaml:"home_dir"`
	HistoryFile string `yaml:"history_file"`
	HistorySize int    `yaml:"history_size" validate:"gte=0"`
	NullDevice  string `yaml:"null_device" validate:"required"`
	Color       string `yaml:"color" validate:"oneof=auto always never"`
	LogFile     string `yaml:"log_file"`
	LogLevel    string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat   string `yaml:"log_format" validate:"omitempty,oneof=text json"`
}

// Default returns the configuration used when no file is given.
func Default() (*Config, error) {
	cfg := &Config{HistorySize: -1}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the YAML file at path from fsys. An empty path or a missing file
// yields the defaults.
func Load(fsys afero.Fs, path string) (*Config, error) {
	// -1 tells an omitted history_size apart from an explicit 0.
	cfg := &Config{HistorySize: -1}
	if path != "" {
		data, err := afero.ReadFile(fsys, path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, zerr.With(zerr.Wrap(err, ErrConfigRead.Error()), "path", path)
		default:
			if err := yaml.UnmarshalStrict(data, cfg); err != nil {
				return nil, zerr.With(zerr.Wrap(err, ErrConfigParse.Error()), "path", path)
			}
		}
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerr.Wrap(err, ErrConfigInvalid.Error())
	}
	return cfg, nil
}

func (c *Config) applyDefaults() error {
	if c.Prompt == "" {
		c.Prompt = DefaultPrompt
	}
	if c.HomeDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return zerr.Wrap(err, "failed to determine home directory")
		}
		c.HomeDir = home
	}
	if c.HistoryFile == "" {
		c.HistoryFile = filepath.Join(c.HomeDir, DefaultHistoryName)
	}
	if c.HistorySize < 0 {
		c.HistorySize = DefaultHistorySize
	}
	if c.NullDevice == "" {
		c.NullDevice = os.DevNull
	}
	if c.Color == "" {
		c.Color = ColorAuto
	}
	return nil
}

// Validate the configuration for basic semantic errors.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
	})

	return validate.Struct(c)
}
