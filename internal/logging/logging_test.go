package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, FormatText, "info")
	require.NoError(t, err)

	logger.Info("background job started", "pid", 42)
	logger.Debug("dropped")

	assert.Contains(t, buf.String(), "msg=\"background job started\"")
	assert.Contains(t, buf.String(), "pid=42")
	assert.NotContains(t, buf.String(), "dropped")
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, FormatJSON, "debug")
	require.NoError(t, err)

	logger.Debug("reaped", "pid", 7, "status", "exit code 0")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "reaped", record["msg"])
	assert.Equal(t, "DEBUG", record["level"])
	assert.EqualValues(t, 7, record["pid"])
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "xml", "info")
	assert.ErrorContains(t, err, "unknown log format")

	_, err = New(&bytes.Buffer{}, FormatText, "loud")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.False(t, logger.Enabled(t.Context(), 12))
	logger.Error("nothing happens")
}

func TestOpenAppends(t *testing.T) {
	fs := afero.NewMemMapFs()

	f, err := Open(fs, "smallsh.log")
	require.NoError(t, err)
	_, err = f.WriteString("one\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f, err = Open(fs, "smallsh.log")
	require.NoError(t, err)
	_, err = f.WriteString("two\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := afero.ReadFile(fs, "smallsh.log")
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}
