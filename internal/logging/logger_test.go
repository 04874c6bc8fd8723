package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-kit/log/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := NewLogger(&buf, Options{Level: "warn"})
	require.NoError(t, err)
	defer closer.Close()

	level.Info(logger).Log("msg", "hidden")
	level.Warn(logger).Log("msg", "shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "level=warn")
	assert.Contains(t, out, "caller=logger_test.go:")
	assert.NotContains(t, out, "level.go")
}

func TestNewLogger_CallerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := NewLogger(&buf, Options{Format: "json"})
	require.NoError(t, err)
	defer closer.Close()

	level.Info(logger).Log("msg", "where")
	logger.Log("msg", "plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	for _, l := range lines {
		var line map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(l), &line))
		assert.Contains(t, line["caller"], "logger_test.go:")
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := NewLogger(&buf, Options{Format: "json"})
	require.NoError(t, err)
	defer closer.Close()

	level.Info(logger).Log("msg", "hello", "courses", 2)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "info", line["level"])
	assert.EqualValues(t, 2, line["courses"])
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gpa.log")
	var buf bytes.Buffer
	logger, closer, err := NewLogger(&buf, Options{File: path})
	require.NoError(t, err)

	level.Info(logger).Log("msg", "to both")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=\"to both\"")
	assert.Contains(t, buf.String(), "msg=\"to both\"")
}

func TestNewLogger_RejectsUnknownOptions(t *testing.T) {
	_, _, err := NewLogger(&bytes.Buffer{}, Options{Format: "xml"})
	assert.Error(t, err)

	_, _, err = NewLogger(&bytes.Buffer{}, Options{Level: "loud"})
	assert.Error(t, err)

	assert.True(t, ValidLevel("debug"))
	assert.False(t, ValidLevel("loud"))
}

func TestTimed(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := NewLogger(&buf, Options{Level: "debug"})
	require.NoError(t, err)
	defer closer.Close()

	require.NoError(t, Timed(logger, "migrate", func() error { return nil }))
	boom := errors.New("boom")
	assert.ErrorIs(t, Timed(logger, "connect", func() error { return boom }), boom)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "migrate done")
	assert.Contains(t, lines[1], "connect failed")
	assert.Contains(t, lines[1], "err=boom")
}
