package cache

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "registry.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestReadMissingCollection(t *testing.T) {
	s := newTestStore(t)
	assert.Nil(t, s.Read("model"))
}

func TestWriteThenRead(t *testing.T) {
	s := newTestStore(t)

	entries := []json.RawMessage{
		raw(t, map[string]string{"name": "alpha"}),
		raw(t, map[string]string{"name": "beta"}),
	}
	require.NoError(t, s.Write("model", entries))

	col := s.Read("model")
	require.NotNil(t, col)
	assert.Len(t, col.Data, 2)
	assert.Positive(t, col.Timestamp)

	// A second write replaces wholesale and restamps.
	require.NoError(t, s.Write("model", entries[:1]))
	col2 := s.Read("model")
	require.NotNil(t, col2)
	assert.Len(t, col2.Data, 1)
	assert.GreaterOrEqual(t, col2.Timestamp, col.Timestamp)
}

func TestWriteEmptyCollection(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Write("agent", nil))

	col := s.Read("agent")
	require.NotNil(t, col)
	assert.Empty(t, col.Data)
}

func TestAppendPreservesTimestamp(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Write("model", []json.RawMessage{raw(t, map[string]string{"name": "alpha"})}))
	before := s.Read("model").Timestamp

	require.NoError(t, s.Append("model", map[string]string{"name": "beta"}))

	col := s.Read("model")
	require.NotNil(t, col)
	assert.Len(t, col.Data, 2)
	assert.Equal(t, before, col.Timestamp, "local mutation must not count as a refresh")
}

func TestAppendCreatesCollection(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append("dataset", map[string]string{"name": "corpus"}))

	col := s.Read("dataset")
	require.NotNil(t, col)
	assert.Len(t, col.Data, 1)
	assert.Positive(t, col.Timestamp)
}

func TestRemoveByName(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Write("model", []json.RawMessage{
		raw(t, map[string]string{"name": "alpha"}),
		raw(t, map[string]string{"name": "beta"}),
	}))
	before := s.Read("model").Timestamp

	require.NoError(t, s.Remove("model", "alpha"))

	col := s.Read("model")
	require.NotNil(t, col)
	require.Len(t, col.Data, 1)
	assert.Contains(t, string(col.Data[0]), "beta")
	assert.Equal(t, before, col.Timestamp)

	// Removing from an absent collection is a no-op.
	require.NoError(t, s.Remove("agent", "alpha"))
}

func TestReplaceKeepsOrderAndTimestamp(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Write("model", []json.RawMessage{
		raw(t, map[string]any{"name": "alpha", "likes": 0}),
		raw(t, map[string]any{"name": "beta", "likes": 0}),
	}))
	before := s.Read("model").Timestamp

	require.NoError(t, s.Replace("model", "alpha", map[string]any{"name": "alpha", "likes": 1}))

	col := s.Read("model")
	require.NotNil(t, col)
	require.Len(t, col.Data, 2)
	assert.Contains(t, string(col.Data[0]), `"likes":1`)
	assert.Contains(t, string(col.Data[1]), "beta")
	assert.Equal(t, before, col.Timestamp)

	// Unknown names and absent collections are no-ops.
	require.NoError(t, s.Replace("model", "gamma", map[string]string{"name": "gamma"}))
	require.NoError(t, s.Replace("agent", "alpha", map[string]string{"name": "alpha"}))
	assert.Len(t, s.Read("model").Data, 2)
}

func TestCorruptBlobTreatedAsAbsent(t *testing.T) {
	s := newTestStore(t)
	_, err := s.db.Exec(`INSERT INTO collections (kind, data, timestamp) VALUES (?, ?, ?)`,
		"model", "{{{not json", 12345)
	require.NoError(t, err)

	assert.Nil(t, s.Read("model"))
}
