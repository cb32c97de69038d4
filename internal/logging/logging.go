// Package logging builds the shell's diagnostic logger on log/slog.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/afero"
	"go.trai.ch/zerr"
)

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ErrUnknownFormat is returned for a log format other than text or json.
var ErrUnknownFormat = zerr.New("unknown log format")

// New returns a logger writing to w in the given format at the given level.
func New(w io.Writer, format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "invalid log level"), "level", level)
		}
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", FormatText:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, zerr.With(ErrUnknownFormat, "format", format)
	}
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Open opens the log file at path in append-only mode.
func Open(fs afero.Fs, path string) (afero.File, error) {
	f, err := fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open log file"), "path", path)
	}
	return f, nil
}
