package ingestion

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/qshape-go/internal/logging"
)

func TestBatchIterator(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.log": "header\na1\na2\r\na3\n",
		"b.log": "header\nb1\n",
		"c.log": "header\n",
	})
	writeGzip(t, filepath.Join(dir, "d.log.gz"), "header\nd1\nd2\n")

	files, err := CollectLogs([]string{dir})
	require.NoError(t, err)

	drain := func(t *testing.T, opts BatchOptions) [][]string {
		it := NewBatchIterator(files, opts)
		defer it.Close()

		var batches [][]string
		for {
			batch, err := it.Next(t.Context())
			if err == io.EOF {
				return batches
			}
			require.NoError(t, err)
			batches = append(batches, batch)
		}
	}

	t.Run("BatchesSpanFiles", func(t *testing.T) {
		batches := drain(t, BatchOptions{BatchSize: 2, SkipLines: 1, Logger: logging.Discard()})
		assert.Equal(t, [][]string{
			{"a1", "a2"},
			{"a3", "b1"},
			{"d1", "d2"},
		}, batches)
	})

	t.Run("NoSkip", func(t *testing.T) {
		batches := drain(t, BatchOptions{BatchSize: 100, Logger: logging.Discard()})
		require.Len(t, batches, 1)
		assert.Len(t, batches[0], 10)
		assert.Equal(t, "header", batches[0][0])
	})

	t.Run("SkipMoreThanFile", func(t *testing.T) {
		batches := drain(t, BatchOptions{BatchSize: 100, SkipLines: 10, Logger: logging.Discard()})
		assert.Empty(t, batches)
	})

	t.Run("Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		it := NewBatchIterator(files, BatchOptions{Logger: logging.Discard()})
		defer it.Close()
		_, err := it.Next(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("MissingFile", func(t *testing.T) {
		it := NewBatchIterator([]LogFile{{Path: filepath.Join(dir, "gone.log")}}, BatchOptions{Logger: logging.Discard()})
		_, err := it.Next(t.Context())
		assert.Error(t, err)
		assert.NotErrorIs(t, err, io.EOF)
	})
}
