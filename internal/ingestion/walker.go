// Package ingestion reads query logs and aggregates their shapes.
package ingestion

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// IgnoreFile holds gitignore-style patterns excluded when walking a log
// directory.
const IgnoreFile = ".qshapeignore"

// ErrNotLogSource is returned for a source that is neither a regular file
// nor a directory.
var ErrNotLogSource = errors.New("not a log source")

// LogFile represents one log file to be read.
type LogFile struct {
	// Path is the file path as found on disk.
	Path string

	// RelPath is the path relative to the source it was found under.
	RelPath string

	// Size is the file size in bytes.
	Size int64
}

// Files never worth reading as logs.
var defaultIgnorePatterns = []string{
	".git/",
	".qshape/",
	IgnoreFile,
	".qshape.yaml",
	".DS_Store",
	"Thumbs.db",
	"*.swp",
	"*~",
}

// CollectLogs resolves every source to the log files it names. A file is
// taken as is; a directory is walked recursively in lexical order.
func CollectLogs(sources []string) ([]LogFile, error) {
	var files []LogFile
	for _, src := range sources {
		found, err := collect(src)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

func collect(src string) ([]LogFile, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotLogSource, err)
	}
	switch {
	case info.Mode().IsRegular():
		return []LogFile{{Path: src, RelPath: filepath.Base(src), Size: info.Size()}}, nil
	case info.IsDir():
		patterns, err := loadIgnore(src)
		if err != nil {
			return nil, err
		}
		return WalkLogs(src, patterns)
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotLogSource, src)
	}
}

// WalkLogs walks root and returns every regular file not excluded by the
// default patterns or by patterns.
func WalkLogs(root string, patterns []gitignore.Pattern) ([]LogFile, error) {
	matcher := newMatcher(patterns...)

	var files []LogFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if matcher.Match(splitPath(rel), d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, LogFile{Path: path, RelPath: rel, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	// WalkDir is lexical per directory; sort so nested files interleave
	// the same way on every platform.
	slices.SortFunc(files, func(a, b LogFile) int { return strings.Compare(a.RelPath, b.RelPath) })
	return files, nil
}

// newMatcher combines the default patterns with patterns.
func newMatcher(patterns ...gitignore.Pattern) gitignore.Matcher {
	all := make([]gitignore.Pattern, 0, len(defaultIgnorePatterns)+len(patterns))
	for _, p := range defaultIgnorePatterns {
		all = append(all, gitignore.ParsePattern(p, nil))
	}
	return gitignore.NewMatcher(append(all, patterns...))
}

// loadIgnore reads the ignore file at the root of dir, if any.
func loadIgnore(dir string) ([]gitignore.Pattern, error) {
	content, err := os.ReadFile(filepath.Join(dir, IgnoreFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", IgnoreFile, err)
	}
	return parseIgnore(string(content)), nil
}

func parseIgnore(content string) []gitignore.Pattern {
	var patterns []gitignore.Pattern
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return patterns
}

// splitPath splits a path into its components.
func splitPath(path string) []string {
	return strings.Split(path, string(filepath.Separator))
}
