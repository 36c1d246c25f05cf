package ingestion

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// maxLineSize bounds a single log line. DBpedia access log lines carry
// whole URL-encoded queries and can be long.
const maxLineSize = 16 * 1024 * 1024

// BatchOptions configures a BatchIterator.
type BatchOptions struct {
	// BatchSize is the maximum number of lines per batch. Defaults to
	// 10000.
	BatchSize int

	// SkipLines header lines are dropped at the start of every file.
	SkipLines int

	// Compression selects the codec; auto detects it per file.
	Compression Compression

	Logger *slog.Logger
}

// BatchIterator yields the lines of a sequence of log files in batches.
// A batch may span file boundaries. It is not safe for concurrent use.
type BatchIterator struct {
	files []LogFile
	opts  BatchOptions

	next    int
	current io.ReadCloser
	scanner *bufio.Scanner
}

// NewBatchIterator returns an iterator over files in order.
func NewBatchIterator(files []LogFile, opts BatchOptions) *BatchIterator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10000
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &BatchIterator{files: files, opts: opts}
}

// Next returns the next batch of lines. It returns io.EOF once every file
// is exhausted; a final partial batch is returned with a nil error first.
func (it *BatchIterator) Next(ctx context.Context) ([]string, error) {
	batch := make([]string, 0, it.opts.BatchSize)
	for len(batch) < it.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if it.scanner == nil {
			ok, err := it.open()
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
		}

		if it.scanner.Scan() {
			batch = append(batch, strings.TrimRight(it.scanner.Text(), "\r"))
			continue
		}
		err := it.scanner.Err()
		name := it.files[it.next-1].Path
		it.closeCurrent()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
	}

	if len(batch) == 0 {
		return nil, io.EOF
	}
	return batch, nil
}

// open advances to the next file. It returns false when none are left.
func (it *BatchIterator) open() (bool, error) {
	if it.next >= len(it.files) {
		return false, nil
	}
	f := it.files[it.next]
	it.next++

	it.opts.Logger.Info("Switching to file", "path", f.Path, "bytes", f.Size)
	r, err := OpenLog(f.Path, it.opts.Compression)
	if err != nil {
		return false, err
	}
	it.current = r
	it.scanner = bufio.NewScanner(r)
	it.scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for range it.opts.SkipLines {
		if !it.scanner.Scan() {
			break
		}
	}
	return true, nil
}

func (it *BatchIterator) closeCurrent() {
	if it.current != nil {
		_ = it.current.Close()
	}
	it.current = nil
	it.scanner = nil
}

// Close releases the file being read, if any.
func (it *BatchIterator) Close() error {
	if it.current == nil {
		return nil
	}
	err := it.current.Close()
	it.current = nil
	it.scanner = nil
	return err
}
