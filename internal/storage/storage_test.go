package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopad/internal/model"
)

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	set := model.NewSet("drum-kit-1")
	root := filepath.Join(dir, "samples")
	set.SamplesRoot = &root
	pad := set.Launchpad.At(0)
	pad.Sample = &model.Sample{Path: "kick.wav", DisplayName: "Kick"}
	pad.Mode = model.ModeOneShot

	require.NoError(t, store.Save(set))
	assert.True(t, store.Exists("drum-kit-1"))

	loaded, err := store.Load("drum-kit-1")
	require.NoError(t, err)
	assert.Equal(t, "drum-kit-1", loaded.Name)
	assert.Equal(t, filepath.Join(root, "kick.wav"), loaded.Launchpad.At(0).Sample.Path)
}

func TestListTreatsMissingDirAsEmpty(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does-not-exist")
	store := New(dir)
	names, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestListReturnsSavedSets(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	require.NoError(t, store.Save(model.NewSet("zeta")))
	require.NoError(t, store.Save(model.NewSet("alpha")))

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)
}

func TestLoadMissingSetFails(t *testing.T) {
	store := New(t.TempDir())
	_, err := store.Load("nope")
	assert.Error(t, err)
}

func TestDeleteMissingSetIsNotAnError(t *testing.T) {
	store := New(t.TempDir())
	assert.NoError(t, store.Delete("nope"))
}
