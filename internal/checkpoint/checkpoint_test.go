package checkpoint

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "izdose.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndLoadPreservesOrder(t *testing.T) {
	s := openTestStore(t)

	ids := []string{"cc:11", "aa:22", "bb:33"}
	require.NoError(t, s.Save(ids))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, ids, got, "identities must come back in saved order")
}

func TestSaveReplacesPreviousCheckpoint(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Save([]string{"aa", "bb"}))
	require.NoError(t, s.Save([]string{"cc"}))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"cc"}, got)
}

func TestLoadEmptyCheckpoint(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, got)

	// An explicitly empty save is also valid.
	require.NoError(t, s.Save(nil))
	got, err = s.Load()
	require.NoError(t, err)
	assert.Empty(t, got)
}
