package kvstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAbsentKey(t *testing.T) {
	s := New(t.TempDir())

	v, ok, err := s.Get("nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestSetThenGet(t *testing.T) {
	s := New(t.TempDir())

	require.NoError(t, s.Set(KeyToken, "abc123"))

	v, ok, err := s.Get(KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", v)
}

func TestSetPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, New(dir).Set(KeyBirthday, "1990-01-01"))

	v, ok, err := New(dir).Get(KeyBirthday)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1990-01-01", v)
}

func TestRemove(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Set(KeyPhone, "555"))

	require.NoError(t, s.Remove(KeyPhone))

	_, ok, err := s.Get(KeyPhone)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoveMany(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Set(KeyToken, "t"))
	require.NoError(t, s.Set(KeyBirthday, "b"))
	require.NoError(t, s.Set(KeyPhone, "p"))

	require.NoError(t, s.RemoveMany([]string{KeyToken, KeyBirthday, KeyPhone}))

	for _, k := range []string{KeyToken, KeyBirthday, KeyPhone} {
		_, ok, err := s.Get(k)
		require.NoError(t, err)
		assert.False(t, ok, k)
	}
}

func TestRemoveAbsentKeyIsNoop(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Remove("never-set"))
}

func TestCorruptStateFileSurfacesErrStorage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "state.json"), []byte("{not json"), 0o600))

	s := New(dir)
	_, _, err := s.Get(KeyToken)
	assert.ErrorIs(t, err, ErrStorage)
}

func TestStateFilePermissions(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, s.Set(KeyToken, "secret"))

	fi, err := os.Stat(filepath.Join(dir, "state.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
}
