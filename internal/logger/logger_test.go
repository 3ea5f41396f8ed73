package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/CortexDash/config"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "cortexdash.log")
	log, closer, err := New(&config.Config{LogLevel: "info", LogFile: path})
	require.NoError(t, err)

	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	log.WithField("company", "nvidia").Info("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), "company=nvidia")
}

func TestNewLevels(t *testing.T) {
	log, closer, err := New(&config.Config{})
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())

	log, closer, err = New(&config.Config{LogLevel: "error", Debug: true})
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	_, _, err = New(&config.Config{LogLevel: "loud"})
	assert.Error(t, err)
}

func TestSetOutputSwitchesFile(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.log")
	second := filepath.Join(dir, "nested", "second.log")

	log, closer, err := New(&config.Config{LogLevel: "info", LogFile: first})
	require.NoError(t, err)
	log.Info("before")

	next, err := SetOutput(log, second)
	require.NoError(t, err)
	require.NoError(t, closer.Close())
	log.Info("after")
	require.NoError(t, next.Close())

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Contains(t, string(data), "before")
	assert.NotContains(t, string(data), "after")

	data, err = os.ReadFile(second)
	require.NoError(t, err)
	assert.Contains(t, string(data), "after")
}
