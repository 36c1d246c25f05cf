package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/qshape-go/internal/predicates"
)

func setupTestBadgerBackend(t *testing.T) *BadgerBackend {
	t.Helper()

	backend := NewBadgerBackend()
	require.NoError(t, backend.Initialize(filepath.Join(t.TempDir(), "badger"), false))
	t.Cleanup(func() { _ = backend.Close() })
	return backend
}

func TestBadgerBackend(t *testing.T) {
	t.Parallel()

	testShapeStore(t, func(t *testing.T) ShapeStore {
		return setupTestBadgerBackend(t)
	})
}

func TestBadgerBackend_Initialize(t *testing.T) {
	t.Parallel()

	t.Run("Success", func(t *testing.T) {
		backend := setupTestBadgerBackend(t)
		assert.NotNil(t, backend.db)
		assert.True(t, backend.initialized)
		assert.Zero(t, backend.ShapeTotal())
	})

	t.Run("ReopenKeepsCounts", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "badger")

		first := NewBadgerBackend()
		require.NoError(t, first.Initialize(dbPath, false))
		require.NoError(t, first.MergeSummary(t.Context(),
			map[string]int64{`["1,2"]`: 2, `["3"]`: 1}, map[string]int64{"UNION": 1}))
		require.NoError(t, first.SavePredicates(t.Context(), []predicates.Entry{{URI: "http://x/p", ID: 1}}))
		require.NoError(t, first.Close())

		second := NewBadgerBackend()
		require.NoError(t, second.Initialize(dbPath, true))
		defer second.Close()

		assert.Equal(t, 2, second.ShapeTotal())
		n, err := second.ShapeCount(t.Context(), `["1,2"]`)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		entries, err := second.LoadPredicates(t.Context())
		require.NoError(t, err)
		assert.Equal(t, []predicates.Entry{{URI: "http://x/p", ID: 1}}, entries)
	})

	t.Run("CloseTwice", func(t *testing.T) {
		backend := NewBadgerBackend()
		require.NoError(t, backend.Initialize(filepath.Join(t.TempDir(), "badger"), false))
		assert.NoError(t, backend.Close())
		assert.NoError(t, backend.Close())
	})
}

func TestCounterEncoding(t *testing.T) {
	t.Parallel()

	n, err := decodeCount(encodeCount(1 << 40))
	require.NoError(t, err)
	assert.EqualValues(t, 1<<40, n)

	_, err = decodeCount([]byte{1, 2})
	assert.Error(t, err)
}
