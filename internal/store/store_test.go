package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "portal.db")
	s, err := Open(path)
	require.NoError(t, err)
	return s, path
}

func TestStore_MarkSeen(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()

	seen, err := s.Seen("u1", "n1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, s.MarkSeen("u1", "n1", "", "n2"))
	require.NoError(t, s.MarkSeen("u1"))

	seen, err = s.Seen("u1", "n1")
	require.NoError(t, err)
	assert.True(t, seen)

	// ids are scoped per user
	seen, err = s.Seen("u2", "n1")
	require.NoError(t, err)
	assert.False(t, seen)

	n, err := s.CountSeen("u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	s, path := openTemp(t)
	require.NoError(t, s.MarkSeen("u1", "n1"))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	seen, err := reopened.Seen("u1", "n1")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestStore_UserIDsWithSeparatorsStayIsolated(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()

	require.NoError(t, s.MarkSeen("a/b", "n1"))
	require.NoError(t, s.MarkSeen("a", "b/n2"))

	n, err := s.CountSeen("a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.CountSeen("a/b")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	seen, err := s.Seen("a", "b/n1")
	require.NoError(t, err)
	assert.False(t, seen)

	assert.Error(t, s.MarkSeen("", "n3"))
}
