package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRuntimeCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	runtime, err := LoadRuntime(path)
	require.NoError(t, err)

	assert.Equal(t, 30, runtime.InactiveDays())
	assert.True(t, runtime.AutoDeleteEnabled())

	_, err = os.Stat(path)
	assert.NoError(t, err, "defaults must be written to disk")
}

func TestSetInactiveDaysPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	runtime, err := LoadRuntime(path)
	require.NoError(t, err)
	require.NoError(t, runtime.SetInactiveDays(45))
	assert.Equal(t, 45, runtime.InactiveDays())

	reloaded, err := LoadRuntime(path)
	require.NoError(t, err)
	assert.Equal(t, 45, reloaded.InactiveDays(), "setting must survive a restart")
}

func TestSetInactiveDaysRejectsInvalid(t *testing.T) {
	runtime, err := LoadRuntime(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	assert.Error(t, runtime.SetInactiveDays(0))
	assert.Error(t, runtime.SetInactiveDays(-3))
	assert.Equal(t, 30, runtime.InactiveDays())
}

func TestToggleAutoDeletePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	runtime, err := LoadRuntime(path)
	require.NoError(t, err)

	enabled, err := runtime.ToggleAutoDelete()
	require.NoError(t, err)
	assert.False(t, enabled)
	assert.False(t, runtime.AutoDeleteEnabled())

	reloaded, err := LoadRuntime(path)
	require.NoError(t, err)
	assert.False(t, reloaded.AutoDeleteEnabled())

	enabled, err = reloaded.ToggleAutoDelete()
	require.NoError(t, err)
	assert.True(t, enabled)
}
