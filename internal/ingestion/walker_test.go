package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(root, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func relPaths(files []LogFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelPath
	}
	return out
}

func TestCollectLogs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"2024/02.log":       "q",
		"2024/01.log":       "q",
		"2023/12.log.gz":    "q",
		"b.tsv":             "q",
		"a.tsv":             "q",
		"scratch/notes.txt": "q",
		"old.bak":           "q",
		".qshape/store/x":   "q",
		".git/HEAD":         "q",
		IgnoreFile:          "# local\nscratch/\n*.bak\n",
	})

	t.Run("WalksDirectorySorted", func(t *testing.T) {
		files, err := CollectLogs([]string{root})
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join("2023", "12.log.gz"),
			filepath.Join("2024", "01.log"),
			filepath.Join("2024", "02.log"),
			"a.tsv",
			"b.tsv",
		}, relPaths(files))
		assert.EqualValues(t, 1, files[0].Size)
	})

	t.Run("SingleFile", func(t *testing.T) {
		files, err := CollectLogs([]string{filepath.Join(root, "a.tsv"), filepath.Join(root, "b.tsv")})
		require.NoError(t, err)
		assert.Equal(t, []string{"a.tsv", "b.tsv"}, relPaths(files))
	})

	t.Run("IgnoredFileNamedExplicitly", func(t *testing.T) {
		files, err := CollectLogs([]string{filepath.Join(root, "old.bak")})
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})

	t.Run("MissingSource", func(t *testing.T) {
		_, err := CollectLogs([]string{filepath.Join(root, "nope")})
		assert.ErrorIs(t, err, ErrNotLogSource)
	})
}

func TestWalkLogs_NoIgnoreFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"x.log":             "q",
		"x.log.swp":         "q",
		"deep/y.log":        "q",
	})

	patterns, err := loadIgnore(root)
	require.NoError(t, err)
	assert.Nil(t, patterns)

	files, err := WalkLogs(root, patterns)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("deep", "y.log"), "x.log"}, relPaths(files))
}

func TestParseIgnore(t *testing.T) {
	t.Parallel()

	patterns := parseIgnore("\n# comment\n  *.tmp  \nraw/\n")
	assert.Len(t, patterns, 2)
}
