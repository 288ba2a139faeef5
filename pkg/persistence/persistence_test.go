package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "estimator.db")
	w, err := NewBoltWriter(dbPath)
	require.NoError(t, err)
	defer w.Close()

	snapshot := map[string]float64{
		"g1|g2":     0.75,
		"g1|g2,g3":  0.42,
	}

	require.NoError(t, w.Save("run-1", snapshot))

	loaded, err := w.Load("run-1")
	require.NoError(t, err)
	assert.Equal(t, snapshot, loaded)
}

func TestLoadMissingPath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "estimator.db")
	w, err := NewBoltWriter(dbPath)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Load("does-not-exist")
	assert.Error(t, err)
}

func TestSaveOverwritesExistingPath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "estimator.db")
	w, err := NewBoltWriter(dbPath)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Save("run-1", map[string]float64{"a": 1}))
	require.NoError(t, w.Save("run-1", map[string]float64{"b": 2}))

	loaded, err := w.Load("run-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"b": 2}, loaded)
}
