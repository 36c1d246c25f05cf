package predicates

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_Intern(t *testing.T) {
	t.Parallel()

	m := New()
	assert.Equal(t, 1, m.Intern("http://x/knows"))
	assert.Equal(t, 2, m.Intern("http://x/foaf"))
	assert.Equal(t, 1, m.Intern("http://x/knows"))
	assert.Equal(t, 2, m.Size())

	id, ok := m.Lookup("http://x/foaf")
	assert.True(t, ok)
	assert.Equal(t, 2, id)

	_, ok = m.Lookup("http://x/missing")
	assert.False(t, ok)
	assert.Equal(t, 2, m.Size(), "Lookup must not allocate")

	uri, ok := m.URI(1)
	assert.True(t, ok)
	assert.Equal(t, "http://x/knows", uri)
}

func TestMap_ConcurrentIntern(t *testing.T) {
	t.Parallel()

	const (
		workers = 16
		uris    = 200
	)

	m := New()
	results := make([][]int, workers)

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]int, uris)
			for i := range uris {
				// Walk the URIs in a different order per worker so first
				// sightings race.
				j := (i + w*7) % uris
				ids[j] = m.Intern(fmt.Sprintf("http://x/p%d", j))
			}
			results[w] = ids
		}()
	}
	wg.Wait()

	assert.Equal(t, uris, m.Size())
	for w := 1; w < workers; w++ {
		assert.Equal(t, results[0], results[w])
	}

	// Ids are dense from 1.
	seen := make(map[int]bool)
	for _, id := range results[0] {
		seen[id] = true
	}
	for id := 1; id <= uris; id++ {
		assert.True(t, seen[id], "id %d missing", id)
	}
}

func TestMap_SaveLoad(t *testing.T) {
	t.Parallel()

	t.Run("RoundTripPreservesIDs", func(t *testing.T) {
		m := New()
		m.Intern("http://x/b")
		m.Intern("http://x/a")

		path := filepath.Join(t.TempDir(), "predicates.tsv")
		require.NoError(t, m.SaveFile(path))

		loaded, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, m.Entries(), loaded.Entries())
		assert.Equal(t, 3, loaded.Intern("http://x/c"))
	})

	t.Run("SavedSortedByID", func(t *testing.T) {
		m, err := FromEntries([]Entry{{"http://x/z", 2}, {"http://x/y", 1}})
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, m.Save(&buf))
		assert.Equal(t, "http://x/y\t1\nhttp://x/z\t2\n", buf.String())
	})

	t.Run("LoadAnyOrderSeedsMaxPlusOne", func(t *testing.T) {
		m, err := Load(strings.NewReader("http://x/c\t7\n\nhttp://x/a\t2\r\nhttp://x/b\t5\n"))
		require.NoError(t, err)
		assert.Equal(t, 3, m.Size())
		assert.Equal(t, 5, m.Intern("http://x/b"))
		assert.Equal(t, 8, m.Intern("http://x/d"))
	})

	t.Run("RejectsBadInput", func(t *testing.T) {
		for _, in := range []string{
			"http://x/a 1\n",
			"http://x/a\tone\n",
			"http://x/a\t0\n",
			"http://x/a\t1\nhttp://x/b\t1\n",
			"http://x/a\t1\nhttp://x/a\t2\n",
		} {
			_, err := Load(strings.NewReader(in))
			assert.Error(t, err, in)
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.tsv"))
		assert.Error(t, err)
	})
}
