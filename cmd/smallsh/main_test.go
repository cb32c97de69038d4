package main

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smallsh/internal/config"
)

func TestRootFlags(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--config", "/etc/smallsh.yml", "--log-file", "/tmp/sh.log", "--no-color"}))

	path, err := cmd.Flags().GetString("config")
	require.NoError(t, err)
	assert.Equal(t, "/etc/smallsh.yml", path)

	noColor, err := cmd.Flags().GetBool("no-color")
	require.NoError(t, err)
	assert.True(t, noColor)
}

func TestRootRejectsArguments(t *testing.T) {
	assert.Equal(t, 1, run([]string{"unexpected"}))
}

func TestLoadConfigOverrides(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/smallsh.yml", []byte("prompt: \"$ \"\ncolor: always\nlog_file: /from-config.log\n"), 0o644))

	cfg, err := loadConfig(fs, &rootOptions{
		configPath: "/smallsh.yml",
		logFile:    "/from-flag.log",
		noColor:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, "$ ", cfg.Prompt)
	assert.Equal(t, config.ColorNever, cfg.Color)
	assert.Equal(t, "/from-flag.log", cfg.LogFile)
}

func TestRunShellBadConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/smallsh.yml", []byte("no_such_key: 1\n"), 0o644))

	err := runShell(fs, &rootOptions{configPath: "/smallsh.yml"})
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestNewLogger(t *testing.T) {
	fs := afero.NewMemMapFs()

	logger, closer, err := newLogger(fs, &config.Config{})
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.NoError(t, closer.Close())

	logger, closer, err = newLogger(fs, &config.Config{LogFile: "/sh.log", LogFormat: "json"})
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, closer.Close())

	data, err := afero.ReadFile(fs, "/sh.log")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)

	_, _, err = newLogger(fs, &config.Config{LogFile: "/sh.log", LogFormat: "xml"})
	assert.Error(t, err)
}
