package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSetGetRemove(t *testing.T) {
	s := openTemp(t)

	_, ok, err := s.GetItem("token")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.SetItem("token", "abc"))
	require.NoError(t, s.SetItem("token", "def"))

	v, ok, err := s.GetItem("token")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "def", v)

	require.NoError(t, s.RemoveItem("token"))
	require.NoError(t, s.RemoveItem("token"))

	_, ok, err = s.GetItem("token")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestKeysAndClearByPrefix(t *testing.T) {
	s := openTemp(t)

	require.NoError(t, s.SetItems(map[string]string{
		"search_aapl":      "[]",
		"search_aapl_time": "1",
		"search_msft":      "[]",
		"searchXother":     "x",
		"token":            "t",
	}))

	keys, err := s.Keys("search_")
	require.NoError(t, err)
	require.Equal(t, []string{"search_aapl", "search_aapl_time", "search_msft"}, keys)

	n, err := s.Clear("search_")
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	keys, err = s.Keys("")
	require.NoError(t, err)
	require.Equal(t, []string{"searchXother", "token"}, keys)
}

func TestStats(t *testing.T) {
	s := openTemp(t)

	st, err := s.Stats()
	require.NoError(t, err)
	require.Zero(t, st.Items)

	require.NoError(t, s.SetItem("a", "12345"))
	require.NoError(t, s.SetItem("b", "123"))

	st, err = s.Stats()
	require.NoError(t, err)
	require.Equal(t, 2, st.Items)
	require.EqualValues(t, 8, st.TotalBytes)
	require.False(t, st.Newest.IsZero())
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SetItem("k", "v"))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	v, ok, err := s.GetItem("k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", v)
}
